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

// BuildAuthTypedData assembles the API-key attestation message. The
// domain carries no verifying contract, and the EIP712Domain schema
// declares only the fields actually present; listing an absent field
// would shift the domain separator and make the signature unverifiable.
func BuildAuthTypedData(chainID types.Chain, address common.Address, timestamp int64, nonce int64) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    ClobAuthDomainName,
			Version: ClobAuthVersion,
			ChainId: math.NewHexOrDecimal256(int64(chainID)),
		},
		Message: apitypes.TypedDataMessage{
			"address":   address.Hex(),
			"timestamp": fmt.Sprintf("%d", timestamp),
			"nonce":     big.NewInt(nonce),
			"message":   MsgToSign,
		},
	}
}

// BuildClobAuthSignature signs the attestation for the given timestamp
// and nonce and returns it 0x-hex encoded.
func BuildClobAuthSignature(ctx context.Context, wallet Wallet, chainID types.Chain, timestamp int64, nonce int64) (string, error) {
	typedData := BuildAuthTypedData(chainID, wallet.Address(), timestamp, nonce)
	sig, err := wallet.SignTypedData(ctx, typedData)
	if err != nil {
		return "", fmt.Errorf("sign auth attestation: %w", err)
	}
	return EncodeSignature(sig), nil
}
