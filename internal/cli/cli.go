package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/client"
	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/internal/journal"
	"github.com/betkit/polytrade/pkg/config"
	"github.com/betkit/polytrade/pkg/keystore"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/walletbridge"
)

// Setup loads .env (best-effort), the configuration and the process
// logger, in that order.
func Setup(configPath string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Wallet resolves the signing identity from configuration: raw key
// first, then keystore profile, then the wallet bridge. The TxSigner
// is nil when the wallet cannot sign raw transactions (bridge). The
// returned cleanup stops whatever the source started.
func Wallet(ctx context.Context, cfg *config.Config) (signing.Wallet, client.TxSigner, func(), error) {
	noop := func() {}
	switch {
	case cfg.Wallet.PrivateKey != "":
		w, err := signing.NewLocalWalletFromHex(cfg.Wallet.PrivateKey)
		if err != nil {
			return nil, nil, nil, err
		}
		return w, w, noop, nil

	case cfg.Wallet.KeystorePath != "":
		key, err := keystore.ParseEncryptionKey(cfg.Wallet.KeystoreKey)
		if err != nil {
			return nil, nil, nil, err
		}
		store, err := keystore.Open(cfg.Wallet.KeystorePath, key)
		if err != nil {
			return nil, nil, nil, err
		}
		w, err := store.Wallet(cfg.Wallet.KeystoreProfile)
		store.Close()
		if err != nil {
			return nil, nil, nil, err
		}
		return w, w, noop, nil

	case cfg.Bridge.Enabled:
		host := walletbridge.NewHost(time.Duration(cfg.Bridge.RequestTimeout)*time.Second, cfg.Bridge.AuthToken)
		srv := &http.Server{
			Addr:              cfg.Bridge.ListenAddr,
			Handler:           host.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("bridge server: %v", err)
			}
		}()
		stop := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		logger.Infof("waiting for wallet at ws://%s/ws", cfg.Bridge.ListenAddr)
		w, err := walletbridge.Connect(ctx, host)
		if err != nil {
			stop()
			return nil, nil, nil, err
		}
		logger.Infof("bridge wallet connected: %s", w.Address().Hex())
		return w, nil, stop, nil
	}
	return nil, nil, nil, pkgerrors.New("no signing source configured")
}

// BuildClient assembles the trading client from configuration. The
// returned cleanup closes the client and the wallet source.
func BuildClient(ctx context.Context, cfg *config.Config) (*client.Client, func(), error) {
	wallet, txSigner, stopWallet, err := Wallet(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	var j *journal.Journal
	if cfg.JournalPath != "" {
		j, err = journal.Open(cfg.JournalPath)
		if err != nil {
			stopWallet()
			return nil, nil, err
		}
	}

	c, err := client.New(client.Options{
		Host:          cfg.ExchangeHost,
		Chain:         types.Chain(cfg.ChainID),
		Venue:         cfg.Venue,
		RPCEndpoints:  cfg.RPCEndpoints,
		Wallet:        wallet,
		TxSigner:      txSigner,
		AccountType:   types.AccountType(cfg.Wallet.AccountType),
		CredentialTTL: time.Duration(cfg.CredentialTTL) * time.Minute,
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		PollAttempts:  cfg.PollAttempts,
		StatusDelay:   time.Duration(cfg.StatusDelay) * time.Second,
		Journal:       j,
	})
	if err != nil {
		j.Close()
		stopWallet()
		return nil, nil, err
	}
	cleanup := func() {
		c.Close()
		stopWallet()
	}
	return c, cleanup, nil
}

// StreamProgress prints flow events to stdout until the stream closes.
// The returned channel closes when the last event has been printed.
func StreamProgress(p *client.Progress) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range p.Events() {
			if ev.TxHash != "" {
				fmt.Printf("  [%s] %s  tx=%s  %s\n", ev.Stage, ev.Message, ev.TxHash, ev.ExplorerURL)
				continue
			}
			fmt.Printf("  [%s] %s\n", ev.Stage, ev.Message)
		}
	}()
	return done
}
