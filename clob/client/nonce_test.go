package client

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestNonceResolver_RaisesToChainFloor(t *testing.T) {
	reader := newScriptedReader()
	chain := testChainClient(t, reader)
	venue, err := VenueFor("ctf")
	if err != nil {
		t.Fatalf("VenueFor: %v", err)
	}
	maker := common.HexToAddress("0x1111111111111111111111111111111111111111")
	exchangeAddr := common.HexToAddress(venue.ExchangeAddress(chain.Contracts()))

	calldata, err := chain.exchange.Pack("nonces", maker)
	if err != nil {
		t.Fatalf("pack nonces: %v", err)
	}
	reader.set(exchangeAddr, calldata, encodeUint256(big.NewInt(5)))

	r := NewNonceResolver(chain, venue)
	if got := r.Resolve(context.Background(), maker.Hex(), 3); got != 5 {
		t.Fatalf("Resolve got=%d want=5, chain floor wins", got)
	}
	if got := r.Resolve(context.Background(), maker.Hex(), 9); got != 9 {
		t.Fatalf("Resolve got=%d want=9, proposed is never lowered", got)
	}
}

func TestNonceResolver_AllReadsFailed(t *testing.T) {
	chain := testChainClient(t, failingReader{})
	venue, err := VenueFor("ctf")
	if err != nil {
		t.Fatalf("VenueFor: %v", err)
	}
	maker := "0x1111111111111111111111111111111111111111"

	r := NewNonceResolver(chain, venue)
	if got := r.Resolve(context.Background(), maker, 7); got != 7 {
		t.Fatalf("Resolve got=%d want=7, proposed survives a blind chain", got)
	}
	if got := r.Resolve(context.Background(), maker, -2); got != 0 {
		t.Fatalf("Resolve got=%d want=0", got)
	}
}
