package signing

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betkit/polytrade/clob/types"
)

const testExchange = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"

func testUnsigned() *types.UnsignedOrder {
	return &types.UnsignedOrder{
		Salt:          479249096354,
		Maker:         "0x1111111111111111111111111111111111111111",
		Signer:        "0x2222222222222222222222222222222222222222",
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		MakerAmount:   "49996800000000000000",
		TakerAmount:   "119040000000000000000",
		Expiration:    0,
		Nonce:         0,
		FeeRateBps:    0,
		Side:          types.SideBuy,
		SignatureType: types.SignatureTypeEOA,
	}
}

func TestOrderDataFromUnsigned(t *testing.T) {
	data, err := OrderDataFromUnsigned(testUnsigned())
	if err != nil {
		t.Fatalf("OrderDataFromUnsigned: %v", err)
	}
	if data.TokenID.String() != testUnsigned().TokenID {
		t.Fatalf("TokenID got=%s", data.TokenID)
	}
	if data.MakerAmount.String() != "49996800000000000000" {
		t.Fatalf("MakerAmount got=%s", data.MakerAmount)
	}
	if data.Salt != 479249096354 {
		t.Fatalf("Salt got=%d", data.Salt)
	}

	bad := testUnsigned()
	bad.TakerAmount = "not-a-number"
	if _, err := OrderDataFromUnsigned(bad); err == nil {
		t.Fatal("bad taker amount should fail")
	}
}

func TestBuildOrderTypedData(t *testing.T) {
	data, err := OrderDataFromUnsigned(testUnsigned())
	if err != nil {
		t.Fatalf("OrderDataFromUnsigned: %v", err)
	}
	td := BuildOrderTypedData(types.ChainPolygon, testExchange, data)

	if td.PrimaryType != "Order" {
		t.Fatalf("PrimaryType got=%s", td.PrimaryType)
	}
	if td.Domain.Name != OrderDomainName {
		t.Fatalf("domain name got=%s", td.Domain.Name)
	}
	if td.Domain.VerifyingContract != testExchange {
		t.Fatalf("verifying contract got=%s", td.Domain.VerifyingContract)
	}
	if len(td.Types["Order"]) != 12 {
		t.Fatalf("order schema got=%d fields want=12", len(td.Types["Order"]))
	}
	if _, _, err := apitypes.TypedDataAndHash(td); err != nil {
		t.Fatalf("TypedDataAndHash: %v", err)
	}
}

func TestOrderSignature_RecoversSigner(t *testing.T) {
	w := testWallet(t)
	order := testUnsigned()
	order.Signer = w.Address().Hex()
	data, err := OrderDataFromUnsigned(order)
	if err != nil {
		t.Fatalf("OrderDataFromUnsigned: %v", err)
	}

	sig, err := BuildOrderSignature(context.Background(), w, types.ChainPolygon, testExchange, data)
	if err != nil {
		t.Fatalf("BuildOrderSignature: %v", err)
	}
	raw, err := DecodeSignature(sig)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	hash, _, err := apitypes.TypedDataAndHash(BuildOrderTypedData(types.ChainPolygon, testExchange, data))
	if err != nil {
		t.Fatalf("TypedDataAndHash: %v", err)
	}

	raw[64] -= 27
	pub, err := crypto.SigToPub(hash, raw)
	if err != nil {
		t.Fatalf("SigToPub: %v", err)
	}
	if got := crypto.PubkeyToAddress(*pub); got != w.Address() {
		t.Fatalf("recovered %s want %s", got.Hex(), w.Address().Hex())
	}
}

func TestOrderSignature_BindsVenueAndChain(t *testing.T) {
	w := testWallet(t)
	data, err := OrderDataFromUnsigned(testUnsigned())
	if err != nil {
		t.Fatalf("OrderDataFromUnsigned: %v", err)
	}
	ctx := context.Background()

	base, err := BuildOrderSignature(ctx, w, types.ChainPolygon, testExchange, data)
	if err != nil {
		t.Fatalf("BuildOrderSignature: %v", err)
	}
	otherChain, err := BuildOrderSignature(ctx, w, types.ChainAmoy, testExchange, data)
	if err != nil {
		t.Fatalf("BuildOrderSignature: %v", err)
	}
	if otherChain == base {
		t.Fatal("chain id must bind the order signature")
	}
	otherVenue, err := BuildOrderSignature(ctx, w, types.ChainPolygon, "0x5d3a536E4D6DbD6114cc1Ead35777bAB948E3643", data)
	if err != nil {
		t.Fatalf("BuildOrderSignature: %v", err)
	}
	if otherVenue == base {
		t.Fatal("verifying contract must bind the order signature")
	}
}

func TestCreateL2Headers(t *testing.T) {
	creds := &types.ApiKeyCreds{
		Key:        "api-key-id",
		Secret:     "c2VjcmV0LWtleS1ieXRlcy1mb3ItdGVzdHM=",
		Passphrase: "passphrase",
		IssuedAt:   time.Now(),
	}
	body := `{"orderID":"0xabc"}`
	ts := int64(1700000000)

	h, err := CreateL2Headers("0xaddr", creds, types.AccountTypeProxy, &types.L2HeaderArgs{
		Method:      "DELETE",
		RequestPath: "/order",
		Body:        &body,
	}, &ts)
	if err != nil {
		t.Fatalf("CreateL2Headers: %v", err)
	}
	if h.PolyAddress != "0xaddr" || h.PolyAPIKey != "api-key-id" || h.PolyPassphrase != "passphrase" {
		t.Fatalf("header fields got=%+v", h)
	}
	if h.PolyTimestamp != "1700000000" {
		t.Fatalf("PolyTimestamp got=%s", h.PolyTimestamp)
	}
	if h.PolyAccountType != "PROXY" {
		t.Fatalf("PolyAccountType got=%s", h.PolyAccountType)
	}

	want, err := BuildPolyHmacSignature(creds.Secret, ts, "DELETE", "/order", &body)
	if err != nil {
		t.Fatalf("BuildPolyHmacSignature: %v", err)
	}
	if h.PolySignature != want {
		t.Fatalf("PolySignature got=%s want=%s", h.PolySignature, want)
	}
}
