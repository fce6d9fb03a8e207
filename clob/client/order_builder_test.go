package client

import (
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/types"
)

const testTokenID = "71321045679252212594626385532706912750332728571942532289631379312455583992563"

func testBuilder(t *testing.T) *OrderBuilder {
	t.Helper()
	rounder, err := NewAmountRounder(types.TickSize001)
	if err != nil {
		t.Fatalf("NewAmountRounder: %v", err)
	}
	venue, err := VenueFor("ctf")
	if err != nil {
		t.Fatalf("VenueFor: %v", err)
	}
	return NewOrderBuilder(rounder, venue)
}

func testInput() *types.TradeInput {
	return &types.TradeInput{
		TokenID: testTokenID,
		Side:    types.SideBuy,
		Price:   decimal.RequireFromString("0.42"),
		Spend:   decimal.RequireFromString("50"),
		Address: "0x1111111111111111111111111111111111111111",
	}
}

func TestBuild_BuyWithSpend(t *testing.T) {
	b := testBuilder(t)
	order, err := b.Build(testInput())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if order.Maker != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("Maker got=%s", order.Maker)
	}
	if order.Signer != order.Maker {
		t.Fatalf("Signer got=%s want maker", order.Signer)
	}
	if order.Taker != NullTaker {
		t.Fatalf("Taker got=%s want open order", order.Taker)
	}
	// buying: maker leg is collateral, taker leg is outcome tokens
	if order.MakerAmount != "49996800000000000000" {
		t.Fatalf("MakerAmount got=%s", order.MakerAmount)
	}
	if order.TakerAmount != "119040000000000000000" {
		t.Fatalf("TakerAmount got=%s", order.TakerAmount)
	}
	if order.Price != "0.42" {
		t.Fatalf("Price got=%s", order.Price)
	}
	if order.Expiration != 0 {
		t.Fatalf("Expiration got=%d want 0 for open-ended", order.Expiration)
	}
	if order.SignatureType != types.SignatureTypeEOA {
		t.Fatalf("SignatureType got=%d want EOA", order.SignatureType)
	}
}

func TestBuild_SellWithSize(t *testing.T) {
	b := testBuilder(t)
	in := testInput()
	in.Side = types.SideSell
	in.Spend = decimal.Zero
	in.Size = decimal.RequireFromString("119.04")

	order, err := b.Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// selling flips the legs
	if order.MakerAmount != "119040000000000000000" {
		t.Fatalf("MakerAmount got=%s", order.MakerAmount)
	}
	if order.TakerAmount != "49996800000000000000" {
		t.Fatalf("TakerAmount got=%s", order.TakerAmount)
	}
}

func TestBuild_Expiration(t *testing.T) {
	b := testBuilder(t)

	in := testInput()
	in.Expiration = time.Now().Add(time.Hour)
	order, err := b.Build(in)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if order.Expiration != in.Expiration.Unix() {
		t.Fatalf("Expiration got=%d want=%d", order.Expiration, in.Expiration.Unix())
	}

	in = testInput()
	in.Expiration = time.Now().Add(-time.Minute)
	if _, err := b.Build(in); pkgerrors.Cause(err) != ErrExpirationInPast {
		t.Fatalf("past expiration got err=%v", err)
	}
}

func TestBuild_Validation(t *testing.T) {
	b := testBuilder(t)

	in := testInput()
	in.TokenID = ""
	if _, err := b.Build(in); pkgerrors.Cause(err) != ErrMissingTokenID {
		t.Fatalf("empty token got err=%v", err)
	}

	in = testInput()
	in.TokenID = "0xdeadbeef"
	if _, err := b.Build(in); err == nil {
		t.Fatal("hex token id should fail, ids are decimal on the wire")
	}

	in = testInput()
	in.Address = ""
	if _, err := b.Build(in); pkgerrors.Cause(err) != ErrMissingAddress {
		t.Fatalf("empty address got err=%v", err)
	}

	// both size and spend set
	in = testInput()
	in.Size = decimal.RequireFromString("10")
	if _, err := b.Build(in); pkgerrors.Cause(err) != ErrAmbiguousAmount {
		t.Fatalf("ambiguous amount got err=%v", err)
	}

	// neither set
	in = testInput()
	in.Spend = decimal.Zero
	if _, err := b.Build(in); pkgerrors.Cause(err) != ErrAmbiguousAmount {
		t.Fatalf("missing amount got err=%v", err)
	}

	// sells only take a size
	in = testInput()
	in.Side = types.SideSell
	if _, err := b.Build(in); pkgerrors.Cause(err) != ErrSellNeedsSize {
		t.Fatalf("sell with spend got err=%v", err)
	}

	in = testInput()
	in.Side = types.Side("HOLD")
	if _, err := b.Build(in); err == nil {
		t.Fatal("unknown side should fail")
	}
}
