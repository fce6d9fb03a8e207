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

// OrderData are the exact fields the exchange hashes for an order.
type OrderData struct {
	Salt          int64
	Maker         string
	Signer        string
	Taker         string
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          types.Side
	SignatureType types.SignatureType
}

// OrderDataFromUnsigned converts an assembled order into its signing
// form. Amounts are parsed, never re-rounded.
func OrderDataFromUnsigned(o *types.UnsignedOrder) (*OrderData, error) {
	tokenID, err := o.BigTokenID()
	if err != nil {
		return nil, err
	}
	makerAmt, err := o.BigMakerAmount()
	if err != nil {
		return nil, err
	}
	takerAmt, err := o.BigTakerAmount()
	if err != nil {
		return nil, err
	}
	return &OrderData{
		Salt:          o.Salt,
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       tokenID,
		MakerAmount:   makerAmt,
		TakerAmount:   takerAmt,
		Expiration:    big.NewInt(o.Expiration),
		Nonce:         big.NewInt(o.Nonce),
		FeeRateBps:    big.NewInt(o.FeeRateBps),
		Side:          o.Side,
		SignatureType: o.SignatureType,
	}, nil
}

// BuildOrderTypedData assembles the order message under the exchange's
// own domain (name, version, chain, verifying contract all pinned).
func BuildOrderTypedData(chainID types.Chain, exchangeAddress string, order *OrderData) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Order": {
				{Name: "salt", Type: "uint256"},
				{Name: "maker", Type: "address"},
				{Name: "signer", Type: "address"},
				{Name: "taker", Type: "address"},
				{Name: "tokenId", Type: "uint256"},
				{Name: "makerAmount", Type: "uint256"},
				{Name: "takerAmount", Type: "uint256"},
				{Name: "expiration", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "feeRateBps", Type: "uint256"},
				{Name: "side", Type: "uint8"},
				{Name: "signatureType", Type: "uint8"},
			},
		},
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              OrderDomainName,
			Version:           OrderDomainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(chainID)),
			VerifyingContract: exchangeAddress,
		},
		Message: apitypes.TypedDataMessage{
			"salt":          big.NewInt(order.Salt),
			"maker":         common.HexToAddress(order.Maker).Hex(),
			"signer":        common.HexToAddress(order.Signer).Hex(),
			"taker":         common.HexToAddress(order.Taker).Hex(),
			"tokenId":       order.TokenID,
			"makerAmount":   order.MakerAmount,
			"takerAmount":   order.TakerAmount,
			"expiration":    order.Expiration,
			"nonce":         order.Nonce,
			"feeRateBps":    order.FeeRateBps,
			"side":          big.NewInt(int64(order.Side.Uint8())),
			"signatureType": big.NewInt(int64(order.SignatureType)),
		},
	}
}

// BuildOrderSignature signs an order message and returns the signature
// 0x-hex encoded.
func BuildOrderSignature(ctx context.Context, wallet Wallet, chainID types.Chain, exchangeAddress string, order *OrderData) (string, error) {
	typedData := BuildOrderTypedData(chainID, exchangeAddress, order)
	sig, err := wallet.SignTypedData(ctx, typedData)
	if err != nil {
		return "", fmt.Errorf("sign order: %w", err)
	}
	return EncodeSignature(sig), nil
}
