package client

import (
	"math/big"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/types"
)

// NullTaker leaves the order open to any counterparty.
const NullTaker = "0x0000000000000000000000000000000000000000"

var (
	ErrMissingTokenID   = pkgerrors.New("trade input has no token id")
	ErrMissingAddress   = pkgerrors.New("trade input has no account address")
	ErrAmbiguousAmount  = pkgerrors.New("exactly one of size or spend must be positive")
	ErrSellNeedsSize    = pkgerrors.New("sell orders take a quantity, not a spend budget")
	ErrExpirationInPast = pkgerrors.New("expiration is in the past")
)

// OrderBuilder assembles an UnsignedOrder from a trade intent. It is a
// pure translation: no chain reads, no signing, no mutation of its
// inputs. The maker and signature type it writes are the direct-account
// defaults; the signing step rewrites both when a proxy account funds
// the order.
type OrderBuilder struct {
	rounder *AmountRounder
	venue   Venue
}

func NewOrderBuilder(rounder *AmountRounder, venue Venue) *OrderBuilder {
	return &OrderBuilder{rounder: rounder, venue: venue}
}

func (b *OrderBuilder) Build(in *types.TradeInput) (*types.UnsignedOrder, error) {
	if in.TokenID == "" {
		return nil, ErrMissingTokenID
	}
	if _, okID := new(big.Int).SetString(in.TokenID, 10); !okID {
		return nil, pkgerrors.Errorf("token id %q is not a decimal integer", in.TokenID)
	}
	if in.Address == "" {
		return nil, ErrMissingAddress
	}

	amounts, err := b.roundedAmounts(in)
	if err != nil {
		return nil, err
	}

	var expiration int64
	if !in.Expiration.IsZero() {
		if in.Expiration.Before(time.Now()) {
			return nil, ErrExpirationInPast
		}
		expiration = in.Expiration.Unix()
	}

	return &types.UnsignedOrder{
		Maker:         in.Address,
		Signer:        in.Address,
		Taker:         NullTaker,
		TokenID:       in.TokenID,
		MakerAmount:   amounts.MakerAmount.String(),
		TakerAmount:   amounts.TakerAmount.String(),
		Expiration:    expiration,
		Nonce:         0,
		FeeRateBps:    b.venue.DefaultFeeRateBps(),
		Side:          in.Side,
		SignatureType: types.SignatureTypeEOA,
		Price:         amounts.Price.String(),
	}, nil
}

func (b *OrderBuilder) roundedAmounts(in *types.TradeInput) (*RoundedAmounts, error) {
	hasSize := in.Size.Sign() > 0
	hasSpend := in.Spend.Sign() > 0

	switch in.Side {
	case types.SideBuy:
		if hasSize == hasSpend {
			return nil, ErrAmbiguousAmount
		}
		if hasSpend {
			return b.rounder.ForBuyWithSpend(in.Price, in.Spend)
		}
		return b.rounder.ForBuyWithQuantity(in.Price, in.Size)
	case types.SideSell:
		if hasSpend {
			return nil, ErrSellNeedsSize
		}
		if !hasSize {
			return nil, ErrAmountNotPositive
		}
		return b.rounder.ForSell(in.Price, in.Size)
	default:
		return nil, pkgerrors.Errorf("unknown side %q", in.Side)
	}
}

// Rounder exposes the rounding policy so callers can preview amounts
// without building an order.
func (b *OrderBuilder) Rounder() *AmountRounder { return b.rounder }
