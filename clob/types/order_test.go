package types

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func testSignedOrder() *SignedOrder {
	return &SignedOrder{
		Order: UnsignedOrder{
			Salt:          479249096354,
			Maker:         "0x1111111111111111111111111111111111111111",
			Signer:        "0x2222222222222222222222222222222222222222",
			Taker:         "0x0000000000000000000000000000000000000000",
			TokenID:       "71321045679252212594626385532706912750332728571942532289631379312455583992563",
			MakerAmount:   "49996800000000000000",
			TakerAmount:   "119040000000000000000",
			Expiration:    1700000000,
			Nonce:         7,
			FeeRateBps:    0,
			Side:          SideBuy,
			SignatureType: SignatureTypeProxy,
			Price:         "0.42",
		},
		Signature: "0xsignature",
		SignedAt:  time.Now(),
	}
}

func TestPayload_ReshapesWithoutRecomputing(t *testing.T) {
	signed := testSignedOrder()
	p := signed.Payload()

	if p.Salt != signed.Order.Salt {
		t.Fatalf("Salt got=%d want=%d", p.Salt, signed.Order.Salt)
	}
	if p.MakerAmount != signed.Order.MakerAmount || p.TakerAmount != signed.Order.TakerAmount {
		t.Fatalf("amounts must pass through untouched: %+v", p)
	}
	// integer fields travel as decimal strings
	if p.Expiration != "1700000000" {
		t.Fatalf("Expiration got=%q", p.Expiration)
	}
	if p.Nonce != "7" {
		t.Fatalf("Nonce got=%q", p.Nonce)
	}
	if p.FeeRateBps != "0" {
		t.Fatalf("FeeRateBps got=%q", p.FeeRateBps)
	}
	if p.SignatureType != 1 {
		t.Fatalf("SignatureType got=%d want=1", p.SignatureType)
	}
	if p.Signature != signed.Signature {
		t.Fatalf("Signature got=%q", p.Signature)
	}
}

func TestNewOrder_WireShape(t *testing.T) {
	env := NewOrder{
		Order:     testSignedOrder().Payload(),
		Owner:     "api-key-id",
		OrderType: OrderTypeGTC,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	// salt is the one numeric field; the rest are strings or labels
	for _, fragment := range []string{
		`"salt":479249096354`,
		`"expiration":"1700000000"`,
		`"nonce":"7"`,
		`"feeRateBps":"0"`,
		`"side":"BUY"`,
		`"signatureType":1`,
		`"owner":"api-key-id"`,
		`"orderType":"GTC"`,
	} {
		if !strings.Contains(body, fragment) {
			t.Fatalf("wire body missing %s:\n%s", fragment, body)
		}
	}
	// the reporting-only price never reaches the wire
	if strings.Contains(body, "0.42") {
		t.Fatalf("price leaked into wire body:\n%s", body)
	}
}

func TestBigFieldParsing(t *testing.T) {
	o := testSignedOrder().Order
	if _, err := o.BigTokenID(); err != nil {
		t.Fatalf("BigTokenID: %v", err)
	}
	if _, err := o.BigMakerAmount(); err != nil {
		t.Fatalf("BigMakerAmount: %v", err)
	}

	o.TokenID = "0xhex"
	if _, err := o.BigTokenID(); err == nil {
		t.Fatal("hex token id should fail")
	}
	o.MakerAmount = ""
	if _, err := o.BigMakerAmount(); err == nil {
		t.Fatal("empty maker amount should fail")
	}
}
