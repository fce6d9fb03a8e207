package types

import (
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// UnsignedOrder is a fully assembled order before signing. Amount fields
// are fixed-point integer strings in the venue's base; they always derive
// from one (price, quantity) pair through the rounding step and are never
// edited afterwards.
type UnsignedOrder struct {
	Salt          int64
	Maker         string
	Signer        string
	Taker         string
	TokenID       string
	MakerAmount   string
	TakerAmount   string
	Expiration    int64
	Nonce         int64
	FeeRateBps    int64
	Side          Side
	SignatureType SignatureType

	// Price is the rounded price the amounts were derived from, kept for
	// reporting; it is not part of the signed message.
	Price string
}

// BigTokenID parses the token id as a uint256.
func (o *UnsignedOrder) BigTokenID() (*big.Int, error) {
	v, ok := new(big.Int).SetString(o.TokenID, 10)
	if !ok {
		return nil, fmt.Errorf("invalid token id %q", o.TokenID)
	}
	return v, nil
}

// BigMakerAmount parses the maker amount as a uint256.
func (o *UnsignedOrder) BigMakerAmount() (*big.Int, error) {
	v, ok := new(big.Int).SetString(o.MakerAmount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid maker amount %q", o.MakerAmount)
	}
	return v, nil
}

// BigTakerAmount parses the taker amount as a uint256.
func (o *UnsignedOrder) BigTakerAmount() (*big.Int, error) {
	v, ok := new(big.Int).SetString(o.TakerAmount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid taker amount %q", o.TakerAmount)
	}
	return v, nil
}

// SignedOrder is an UnsignedOrder plus its signature. The embedded order
// is a frozen snapshot: the signature is valid only over exactly these
// fields, so submission must serialize them unchanged.
type SignedOrder struct {
	Order     UnsignedOrder
	Signature string
	SignedAt  time.Time
}

// Payload reshapes the signed snapshot into the submission wire format.
// Integer fields become decimal strings and nothing is recomputed; the
// payload must describe exactly what was signed.
func (s *SignedOrder) Payload() OrderPayload {
	o := s.Order
	return OrderPayload{
		Salt:          o.Salt,
		Maker:         o.Maker,
		Signer:        o.Signer,
		Taker:         o.Taker,
		TokenID:       o.TokenID,
		MakerAmount:   o.MakerAmount,
		TakerAmount:   o.TakerAmount,
		Expiration:    strconv.FormatInt(o.Expiration, 10),
		Nonce:         strconv.FormatInt(o.Nonce, 10),
		FeeRateBps:    strconv.FormatInt(o.FeeRateBps, 10),
		Side:          o.Side,
		SignatureType: int(o.SignatureType),
		Signature:     s.Signature,
	}
}

// OrderPayload is the submission wire format. Side is carried as its
// string label and every numeric field as a decimal string, matching what
// the exchange hashes on its side.
type OrderPayload struct {
	Salt          int64  `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          Side   `json:"side"`
	SignatureType int    `json:"signatureType"`
	Signature     string `json:"signature"`
}

// NewOrder is the envelope POSTed to the order endpoint.
type NewOrder struct {
	Order     OrderPayload `json:"order"`
	Owner     string       `json:"owner"`
	OrderType OrderType    `json:"orderType"`
}

// OrderResponse is the exchange's answer to an order submission.
type OrderResponse struct {
	Success           bool     `json:"success"`
	ErrorMsg          string   `json:"errorMsg"`
	OrderID           string   `json:"orderID"`
	TransactionHashes []string `json:"transactionsHashes"`
	Status            string   `json:"status"`
	TakingAmount      string   `json:"takingAmount"`
	MakingAmount      string   `json:"makingAmount"`
}

// OpenOrder is one resting order as returned by the order endpoints.
type OpenOrder struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Owner        string `json:"owner"`
	MakerAddress string `json:"maker_address"`
	Market       string `json:"market"`
	AssetID      string `json:"asset_id"`
	Side         string `json:"side"`
	OriginalSize string `json:"original_size"`
	SizeMatched  string `json:"size_matched"`
	Price        string `json:"price"`
	Outcome      string `json:"outcome"`
	CreatedAt    int64  `json:"created_at"`
	Expiration   string `json:"expiration"`
	OrderType    string `json:"order_type"`
}

// OpenOrdersResponse is the paged open-orders listing.
type OpenOrdersResponse struct {
	Data       []OpenOrder `json:"data"`
	NextCursor string      `json:"next_cursor"`
	Limit      int         `json:"limit"`
	Count      int         `json:"count"`
}

// CancelResponse is the answer to an order cancellation.
type CancelResponse struct {
	Canceled    []string          `json:"canceled"`
	NotCanceled map[string]string `json:"not_canceled"`
}
