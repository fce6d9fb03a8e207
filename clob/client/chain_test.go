package client

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
)

// scriptedReader answers eth_call by exact (contract, calldata) match,
// standing in for the wallet's read path with no live endpoint.
type scriptedReader struct {
	mu      sync.Mutex
	answers map[string][]byte
}

func newScriptedReader() *scriptedReader {
	return &scriptedReader{answers: make(map[string][]byte)}
}

func callKey(to common.Address, data []byte) string {
	return to.Hex() + "|" + common.Bytes2Hex(data)
}

func (r *scriptedReader) set(to common.Address, data, answer []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answers[callKey(to, data)] = answer
}

func (r *scriptedReader) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	answer, ok := r.answers[callKey(to, data)]
	if !ok {
		return nil, pkgerrors.Errorf("no scripted answer for %s", to.Hex())
	}
	return answer, nil
}

// failingReader fails every call, simulating all read paths down.
type failingReader struct{}

func (failingReader) CallContract(context.Context, common.Address, []byte) ([]byte, error) {
	return nil, pkgerrors.New("endpoint down")
}

func encodeUint256(v *big.Int) []byte { return common.LeftPadBytes(v.Bytes(), 32) }

func encodeBool(v bool) []byte {
	word := make([]byte, 32)
	if v {
		word[31] = 1
	}
	return word
}

func encodeAddress(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

// testChainClient builds a client whose only read path is the given
// reader, so every fan-out resolves through it.
func testChainClient(t *testing.T, reader signing.ChainReader) *ChainClient {
	t.Helper()
	cfg, err := GetContractConfig(types.ChainAmoy)
	if err != nil {
		t.Fatalf("GetContractConfig: %v", err)
	}
	chain, err := NewChainClient(&ReaderPool{wallet: reader}, types.ChainAmoy, cfg, time.Millisecond, 2)
	if err != nil {
		t.Fatalf("NewChainClient: %v", err)
	}
	return chain
}

func TestChainClient_MinNonce(t *testing.T) {
	reader := newScriptedReader()
	chain := testChainClient(t, reader)
	maker := common.HexToAddress("0x1111111111111111111111111111111111111111")
	exchangeAddr := common.HexToAddress(chain.Contracts().Exchange)

	calldata, err := chain.exchange.Pack("nonces", maker)
	if err != nil {
		t.Fatalf("pack nonces: %v", err)
	}
	reader.set(exchangeAddr, calldata, encodeUint256(big.NewInt(7)))

	v, n := chain.MinNonce(context.Background(), exchangeAddr, maker)
	if n != 1 {
		t.Fatalf("successes got=%d want=1", n)
	}
	if v.Int64() != 7 {
		t.Fatalf("nonce got=%s want=7", v)
	}
}

func TestChainClient_BalanceAllReadsFailed(t *testing.T) {
	chain := testChainClient(t, failingReader{})
	owner := common.HexToAddress("0x2222222222222222222222222222222222222222")

	if _, err := chain.CollateralBalance(context.Background(), owner); !pkgerrors.Is(err, ErrAllReadsFailed) {
		t.Fatalf("err got=%v want ErrAllReadsFailed", err)
	}
}

func TestChainClient_IsOperatorApproved(t *testing.T) {
	reader := newScriptedReader()
	chain := testChainClient(t, reader)
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	operator := common.HexToAddress(chain.Contracts().Exchange)
	conditional := common.HexToAddress(chain.Contracts().ConditionalTokens)

	calldata, err := chain.erc1155.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		t.Fatalf("pack isApprovedForAll: %v", err)
	}

	reader.set(conditional, calldata, encodeBool(true))
	approved, err := chain.IsOperatorApproved(context.Background(), owner, operator)
	if err != nil || !approved {
		t.Fatalf("approved got=(%v, %v) want=(true, nil)", approved, err)
	}

	reader.set(conditional, calldata, encodeBool(false))
	approved, err = chain.IsOperatorApproved(context.Background(), owner, operator)
	if err != nil || approved {
		t.Fatalf("approved got=(%v, %v) want=(false, nil)", approved, err)
	}
}

func TestChainClient_ProxyCodeProbe(t *testing.T) {
	reader := newScriptedReader()
	chain := testChainClient(t, reader)
	proxy := common.HexToAddress("0x3333333333333333333333333333333333333333")

	calldata, err := chain.proxy.Pack("nonce")
	if err != nil {
		t.Fatalf("pack nonce: %v", err)
	}

	// a deployed proxy answers its counter
	reader.set(proxy, calldata, encodeUint256(big.NewInt(4)))
	deployed, ok := chain.ProxyCodeProbe(context.Background(), proxy)
	if !ok || !deployed {
		t.Fatalf("probe got=(%v, %v) want=(true, true)", deployed, ok)
	}

	// an empty account answers with no data
	reader.set(proxy, calldata, nil)
	deployed, ok = chain.ProxyCodeProbe(context.Background(), proxy)
	if !ok || deployed {
		t.Fatalf("probe got=(%v, %v) want=(false, true)", deployed, ok)
	}

	// every path failing must stay distinguishable from "not deployed"
	chain = testChainClient(t, failingReader{})
	deployed, ok = chain.ProxyCodeProbe(context.Background(), proxy)
	if ok || deployed {
		t.Fatalf("probe got=(%v, %v) want=(false, false)", deployed, ok)
	}
}
