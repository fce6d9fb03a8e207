package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Uint8 returns the on-chain encoding of the side (BUY = 0, SELL = 1).
func (s Side) Uint8() uint8 {
	if s == SideBuy {
		return 0
	}
	return 1
}

// OrderType is the execution type attached to a submitted order.
type OrderType string

const (
	OrderTypeGTC OrderType = "GTC" // Good till cancelled
	OrderTypeFOK OrderType = "FOK" // Fill or kill
	OrderTypeGTD OrderType = "GTD" // Good till date
	OrderTypeFAK OrderType = "FAK" // Fill and kill
)

// Chain is the settlement chain id.
type Chain int

const (
	ChainPolygon Chain = 137
	ChainAmoy    Chain = 80002
)

// SignatureType selects how the exchange verifies the order signature.
type SignatureType int

const (
	SignatureTypeEOA   SignatureType = 0 // maker signs directly
	SignatureTypeProxy SignatureType = 1 // proxy account is maker, owner signs
	SignatureTypeSafe  SignatureType = 2 // safe-style contract account is maker
)

// AccountType is the account model reported to the exchange on
// authenticated requests.
type AccountType string

const (
	AccountTypeEOA   AccountType = "EOA"
	AccountTypeProxy AccountType = "PROXY"
)

// AssetType distinguishes the collateral token from outcome tokens.
type AssetType string

const (
	AssetTypeCollateral  AssetType = "COLLATERAL"
	AssetTypeConditional AssetType = "CONDITIONAL"
)

// TickSize is the minimum price increment of a market.
type TickSize string

const (
	TickSize01    TickSize = "0.1"
	TickSize001   TickSize = "0.01"
	TickSize0001  TickSize = "0.001"
	TickSize00001 TickSize = "0.0001"
)

// ParseTickSize maps a textual tick onto one of the known sizes,
// tolerating number formats like "0.010" or "1e-2".
func ParseTickSize(s string) (TickSize, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", fmt.Errorf("invalid tick size %q", s)
	}
	switch TickSize(d.String()) {
	case TickSize01:
		return TickSize01, nil
	case TickSize001:
		return TickSize001, nil
	case TickSize0001:
		return TickSize0001, nil
	case TickSize00001:
		return TickSize00001, nil
	}
	return "", fmt.Errorf("unsupported tick size %q", s)
}
