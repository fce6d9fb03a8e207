package signing

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/betkit/polytrade/clob/types"
)

var zeroAddress = common.Address{}

// ProxyCall describes one call relayed through a proxy account: target,
// calldata and the proxy's current replay counter. Value and every gas
// override are pinned to zero; the proxy executes plain calls only.
type ProxyCall struct {
	To    common.Address
	Data  []byte
	Nonce *big.Int
}

// BuildProxyRelayTypedData assembles the execution authorization the
// proxy contract verifies. Its domain is the Safe convention: chain id
// and verifying contract only, no name or version, and the schema
// declares exactly those two fields.
func BuildProxyRelayTypedData(chainID types.Chain, proxyAddress common.Address, call *ProxyCall) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"SafeTx": {
				{Name: "to", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "data", Type: "bytes"},
				{Name: "operation", Type: "uint8"},
				{Name: "safeTxGas", Type: "uint256"},
				{Name: "baseGas", Type: "uint256"},
				{Name: "gasPrice", Type: "uint256"},
				{Name: "gasToken", Type: "address"},
				{Name: "refundReceiver", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "SafeTx",
		Domain: apitypes.TypedDataDomain{
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: proxyAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"to":             call.To.Hex(),
			"value":          "0",
			"data":           call.Data,
			"operation":      "0",
			"safeTxGas":      "0",
			"baseGas":        "0",
			"gasPrice":       "0",
			"gasToken":       zeroAddress.Hex(),
			"refundReceiver": zeroAddress.Hex(),
			"nonce":          call.Nonce.String(),
		},
	}
}

// BuildProxyRelaySignature signs a relayed call authorization. The
// returned signature has v in the 27/28 form execTransaction checks.
func BuildProxyRelaySignature(ctx context.Context, wallet Wallet, chainID types.Chain, proxyAddress common.Address, call *ProxyCall) ([]byte, error) {
	typedData := BuildProxyRelayTypedData(chainID, proxyAddress, call)
	sig, err := wallet.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, fmt.Errorf("sign proxy call: %w", err)
	}
	return NormalizeV(sig), nil
}

// BuildProxyDeployTypedData assembles the one-time deployment
// authorization the factory verifies. This is its own message kind under
// its own domain; it shares nothing with the relay or order domains.
func BuildProxyDeployTypedData(chainID types.Chain, factoryAddress common.Address, owner common.Address) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"CreateProxy": {
				{Name: "owner", Type: "address"},
				{Name: "nonce", Type: "uint256"},
			},
		},
		PrimaryType: "CreateProxy",
		Domain: apitypes.TypedDataDomain{
			Name:              ProxyFactoryDomainName,
			Version:           ProxyFactoryDomainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: factoryAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner": owner.Hex(),
			"nonce": big.NewInt(0),
		},
	}
}

// BuildProxyDeploySignature signs the deployment authorization.
func BuildProxyDeploySignature(ctx context.Context, wallet Wallet, chainID types.Chain, factoryAddress common.Address, owner common.Address) ([]byte, error) {
	typedData := BuildProxyDeployTypedData(chainID, factoryAddress, owner)
	sig, err := wallet.SignTypedData(ctx, typedData)
	if err != nil {
		return nil, fmt.Errorf("sign proxy deployment: %w", err)
	}
	return NormalizeV(sig), nil
}
