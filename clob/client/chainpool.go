package client

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/internal/metrics"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/syncgroup"
)

const readCallTimeout = 10 * time.Second

// ReaderPool fans read-only calls out over redundant RPC endpoints,
// plus the wallet's own read path when the wallet exposes one. A read
// succeeds if any path succeeds; all paths failing is the only failure.
type ReaderPool struct {
	endpoints []string
	clients   []*ethclient.Client
	wallet    signing.ChainReader
}

// NewReaderPool dials every endpoint and keeps the ones that answer.
// Endpoints that fail to dial are logged and skipped; the pool is only
// unusable when no endpoint dials and no wallet reader exists.
func NewReaderPool(endpoints []string, wallet signing.ChainReader) (*ReaderPool, error) {
	p := &ReaderPool{wallet: wallet}
	for _, ep := range endpoints {
		c, err := ethclient.Dial(ep)
		if err != nil {
			logger.Warnf("chain endpoint %s unavailable: %v", ep, err)
			continue
		}
		p.endpoints = append(p.endpoints, ep)
		p.clients = append(p.clients, c)
	}
	if len(p.clients) == 0 && wallet == nil {
		return nil, pkgerrors.New("no usable chain read endpoints")
	}
	return p, nil
}

func (p *ReaderPool) Close() {
	for _, c := range p.clients {
		c.Close()
	}
}

// Primary returns the first healthy endpoint client, used for writes.
func (p *ReaderPool) Primary() *ethclient.Client {
	if len(p.clients) == 0 {
		return nil
	}
	return p.clients[0]
}

func (p *ReaderPool) Size() int {
	n := len(p.clients)
	if p.wallet != nil {
		n++
	}
	return n
}

// CallAll issues the same eth_call on every path concurrently and
// returns the successful results. An empty slice means every path
// failed; callers decide whether that is fatal.
func (p *ReaderPool) CallAll(ctx context.Context, to common.Address, data []byte) [][]byte {
	var (
		mu      sync.Mutex
		results [][]byte
	)
	collect := func(out []byte, err error, source string) {
		if err != nil {
			metrics.ChainReadFailures.Add(1)
			logger.Debugf("read via %s failed: %v", source, err)
			return
		}
		mu.Lock()
		results = append(results, out)
		mu.Unlock()
	}

	sg := syncgroup.NewSyncGroup()
	for i, c := range p.clients {
		c, ep := c, p.endpoints[i]
		sg.Add(func() {
			callCtx, cancel := context.WithTimeout(ctx, readCallTimeout)
			defer cancel()
			out, err := c.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: data}, nil)
			collect(out, err, ep)
		})
	}
	if p.wallet != nil {
		sg.Add(func() {
			callCtx, cancel := context.WithTimeout(ctx, readCallTimeout)
			defer cancel()
			out, err := p.wallet.CallContract(callCtx, to, data)
			collect(out, err, "wallet")
		})
	}
	sg.Run()
	sg.Wait()
	return results
}

// CodePresence reports whether deployed code exists at addr. The third
// state matters: ok is false when every read path failed, and the
// caller must not treat that as "not deployed".
func (p *ReaderPool) CodePresence(ctx context.Context, addr common.Address) (present bool, ok bool) {
	var (
		lock      sync.Mutex
		successes int
		found     bool
	)

	sg := syncgroup.NewSyncGroup()
	for i, c := range p.clients {
		c, ep := c, p.endpoints[i]
		sg.Add(func() {
			callCtx, cancel := context.WithTimeout(ctx, readCallTimeout)
			defer cancel()
			code, err := c.CodeAt(callCtx, addr, nil)
			if err != nil {
				metrics.ChainReadFailures.Add(1)
				logger.Debugf("code read via %s failed: %v", ep, err)
				return
			}
			lock.Lock()
			successes++
			if len(code) > 0 {
				found = true
			}
			lock.Unlock()
		})
	}
	sg.Run()
	sg.Wait()
	return found, successes > 0
}
