package signing

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betkit/polytrade/clob/types"
)

func testProxyCall() *ProxyCall {
	return &ProxyCall{
		To:    common.HexToAddress("0x4d97dcd97ec945f40cf65f87097ace5ea0476045"),
		Data:  []byte{0xa9, 0x05, 0x9c, 0xbb},
		Nonce: big.NewInt(3),
	}
}

func TestBuildProxyRelayTypedData(t *testing.T) {
	proxy := common.HexToAddress("0x3333333333333333333333333333333333333333")
	td := BuildProxyRelayTypedData(types.ChainPolygon, proxy, testProxyCall())

	if td.PrimaryType != "SafeTx" {
		t.Fatalf("PrimaryType got=%s", td.PrimaryType)
	}
	// Safe-convention domain: chain id and contract only
	if len(td.Types["EIP712Domain"]) != 2 {
		t.Fatalf("domain schema got=%d fields want=2", len(td.Types["EIP712Domain"]))
	}
	if td.Domain.Name != "" {
		t.Fatalf("domain name got=%q want empty", td.Domain.Name)
	}
	if td.Domain.VerifyingContract != proxy.Hex() {
		t.Fatalf("verifying contract got=%s", td.Domain.VerifyingContract)
	}
	if td.Message["value"] != "0" || td.Message["operation"] != "0" {
		t.Fatalf("call must be plain: %v", td.Message)
	}
	if _, _, err := apitypes.TypedDataAndHash(td); err != nil {
		t.Fatalf("TypedDataAndHash: %v", err)
	}
}

func TestBuildProxyDeployTypedData(t *testing.T) {
	factory := common.HexToAddress("0xaacfeea03eb1561c4e67d661e40682bd20e3541b")
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	td := BuildProxyDeployTypedData(types.ChainPolygon, factory, owner)

	if td.PrimaryType != "CreateProxy" {
		t.Fatalf("PrimaryType got=%s", td.PrimaryType)
	}
	if td.Domain.Name != ProxyFactoryDomainName {
		t.Fatalf("domain name got=%s", td.Domain.Name)
	}
	if td.Message["owner"] != owner.Hex() {
		t.Fatalf("owner got=%v", td.Message["owner"])
	}
	if _, _, err := apitypes.TypedDataAndHash(td); err != nil {
		t.Fatalf("TypedDataAndHash: %v", err)
	}
}

// Relay, deployment and order authorizations live under distinct domains;
// a signature produced for one kind must never verify as another.
func TestProxyDomains_AreSeparate(t *testing.T) {
	w := testWallet(t)
	ctx := context.Background()
	contract := common.HexToAddress("0x3333333333333333333333333333333333333333")

	relaySig, err := BuildProxyRelaySignature(ctx, w, types.ChainPolygon, contract, testProxyCall())
	if err != nil {
		t.Fatalf("BuildProxyRelaySignature: %v", err)
	}
	deploySig, err := BuildProxyDeploySignature(ctx, w, types.ChainPolygon, contract, w.Address())
	if err != nil {
		t.Fatalf("BuildProxyDeploySignature: %v", err)
	}
	if string(relaySig) == string(deploySig) {
		t.Fatal("relay and deploy signatures must differ")
	}

	// same call, different proxy: different authorization
	otherProxy, err := BuildProxyRelaySignature(ctx, w, types.ChainPolygon,
		common.HexToAddress("0x4444444444444444444444444444444444444444"), testProxyCall())
	if err != nil {
		t.Fatalf("BuildProxyRelaySignature: %v", err)
	}
	if string(relaySig) == string(otherProxy) {
		t.Fatal("proxy address must bind the relay signature")
	}
}
