package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/betkit/polytrade/internal/metrics"
	"github.com/betkit/polytrade/pkg/walletbridge"
)

func main() {
	// Load .env (best-effort). If missing, fall back to real env vars.
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		listenAddr = flag.String("listen", getenv("BRIDGE_LISTEN_ADDR", "127.0.0.1:8787"), "HTTP listen address")
		authToken  = flag.String("token", getenv("BRIDGE_AUTH_TOKEN", ""), "shared token the wallet must present")
		timeout    = flag.Duration("timeout", 120*time.Second, "per-request wallet timeout")
	)
	flag.Parse()

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// pprof for a stuck bridge; off unless METRICS_ADDR is set.
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		if _, err := metrics.StartAsync(rootCtx, addr); err != nil {
			log.Printf("metrics server: %v", err)
		}
	}

	host := walletbridge.NewHost(*timeout, *authToken)

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           host.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("wallet bridge listening on ws://%s/ws", *listenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	go announceWallet(host)

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	fmt.Println("bridge stopped")
}

// announceWallet logs the connected wallet's address each time one attaches.
func announceWallet(host *walletbridge.Host) {
	for {
		if err := host.WaitForWallet(context.Background()); err != nil {
			return
		}
		w, err := walletbridge.Connect(context.Background(), host)
		if err != nil {
			log.Printf("wallet attached but address query failed: %v", err)
		} else {
			log.Printf("wallet connected: %s", w.Address().Hex())
		}
		waitForDetach(host)
	}
}

func waitForDetach(host *walletbridge.Host) {
	for host.Connected() {
		time.Sleep(time.Second)
	}
	log.Printf("wallet disconnected")
}
