package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeInput is one user trade intent. It is ephemeral: built per action,
// consumed by the order builder, never stored.
type TradeInput struct {
	// MarketID is the condition id of the market.
	MarketID string

	// TokenID is the outcome token the trade is against.
	TokenID string

	// Side is BUY or SELL.
	Side Side

	// Price is the reference price, strictly inside (0, 1).
	Price decimal.Decimal

	// Size is the target outcome-token quantity. Exactly one of Size and
	// Spend must be positive.
	Size decimal.Decimal

	// Spend is the collateral amount to spend on a BUY; the quantity is
	// then derived as Spend / Price.
	Spend decimal.Decimal

	// Expiration is the requested order expiry. Zero means good till
	// cancelled.
	Expiration time.Time

	// Address is the account the trade acts for (the wallet address, not
	// the proxy; maker resolution happens at signing time).
	Address string
}
