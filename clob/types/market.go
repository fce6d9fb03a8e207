package types

import "encoding/json"

// OrderSummary is one price level of the book.
type OrderSummary struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBookSummary is the venue's book snapshot for one outcome token.
// TickSize and NegRisk ride along, so one fetch also settles which
// rounding table and exchange contract an order needs.
type OrderBookSummary struct {
	Market       string         `json:"market"`
	AssetID      string         `json:"asset_id"`
	Timestamp    string         `json:"timestamp"`
	Bids         []OrderSummary `json:"bids"`
	Asks         []OrderSummary `json:"asks"`
	MinOrderSize string         `json:"min_order_size"`
	TickSize     string         `json:"tick_size"`
	NegRisk      bool           `json:"neg_risk"`
	Hash         string         `json:"hash"`
}

// TickSizeResponse answers the tick-size endpoint. The venue returns
// the tick as a JSON number; keep it textual to avoid a float detour.
type TickSizeResponse struct {
	MinimumTickSize json.Number `json:"minimum_tick_size"`
}

// MidpointResponse answers the midpoint endpoint.
type MidpointResponse struct {
	Mid string `json:"mid"`
}

// PriceResponse answers the best-price endpoint for one side.
type PriceResponse struct {
	Price string `json:"price"`
}

// BalanceAllowanceParams select the venue-side funds view to read.
type BalanceAllowanceParams struct {
	AssetType AssetType
	// TokenID scopes a CONDITIONAL read to one outcome token.
	TokenID string
}

// BalanceAllowanceResponse is the venue's own view of funding-address
// balance and exchange allowance, in raw token units.
type BalanceAllowanceResponse struct {
	Balance    string            `json:"balance"`
	Allowance  string            `json:"allowance"`
	Allowances map[string]string `json:"allowances,omitempty"`
}
