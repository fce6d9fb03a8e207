package client

import (
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/types"
)

// FillEstimate previews how a marketable order would walk the book.
// Exhausted means the book ran out before the target was met; the
// numbers then cover only what the book could fill.
type FillEstimate struct {
	Quantity  decimal.Decimal
	AvgPrice  decimal.Decimal
	Spent     decimal.Decimal
	Exhausted bool
}

type bookLevel struct {
	price decimal.Decimal
	size  decimal.Decimal
}

// EstimateFill walks the opposing side of the book: for a BUY, amount
// is the collateral to spend against the asks; for a SELL, amount is
// the quantity to unload into the bids. It is a preview only and holds
// no lock on the book.
func EstimateFill(book *types.OrderBookSummary, side types.Side, amount decimal.Decimal) (*FillEstimate, error) {
	if book == nil {
		return nil, pkgerrors.New("no book")
	}
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	var levels []bookLevel
	var err error
	if side == types.SideBuy {
		levels, err = parseLevels(book.Asks)
	} else {
		levels, err = parseLevels(book.Bids)
	}
	if err != nil {
		return nil, err
	}
	// Best price first: lowest ask for a buy, highest bid for a sell.
	sort.Slice(levels, func(i, j int) bool {
		if side == types.SideBuy {
			return levels[i].price.LessThan(levels[j].price)
		}
		return levels[i].price.GreaterThan(levels[j].price)
	})

	if side == types.SideBuy {
		return estimateBuy(levels, amount), nil
	}
	return estimateSell(levels, amount), nil
}

func estimateBuy(levels []bookLevel, spend decimal.Decimal) *FillEstimate {
	remaining := spend
	quantity := decimal.Zero
	cost := decimal.Zero
	for _, lv := range levels {
		levelCost := lv.size.Mul(lv.price)
		if levelCost.LessThanOrEqual(remaining) {
			quantity = quantity.Add(lv.size)
			cost = cost.Add(levelCost)
			remaining = remaining.Sub(levelCost)
			continue
		}
		quantity = quantity.Add(remaining.Div(lv.price))
		cost = cost.Add(remaining)
		remaining = decimal.Zero
		break
	}
	est := &FillEstimate{Quantity: quantity, Spent: cost, Exhausted: remaining.IsPositive()}
	if quantity.IsPositive() {
		est.AvgPrice = cost.Div(quantity)
	}
	return est
}

func estimateSell(levels []bookLevel, quantity decimal.Decimal) *FillEstimate {
	remaining := quantity
	filled := decimal.Zero
	proceeds := decimal.Zero
	for _, lv := range levels {
		if lv.size.LessThanOrEqual(remaining) {
			filled = filled.Add(lv.size)
			proceeds = proceeds.Add(lv.size.Mul(lv.price))
			remaining = remaining.Sub(lv.size)
			continue
		}
		filled = filled.Add(remaining)
		proceeds = proceeds.Add(remaining.Mul(lv.price))
		remaining = decimal.Zero
		break
	}
	est := &FillEstimate{Quantity: filled, Spent: proceeds, Exhausted: remaining.IsPositive()}
	if filled.IsPositive() {
		est.AvgPrice = proceeds.Div(filled)
	}
	return est
}

func parseLevels(raw []types.OrderSummary) ([]bookLevel, error) {
	levels := make([]bookLevel, 0, len(raw))
	for _, r := range raw {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "book price %q", r.Price)
		}
		size, err := decimal.NewFromString(r.Size)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "book size %q", r.Size)
		}
		if !price.IsPositive() || !size.IsPositive() {
			continue
		}
		levels = append(levels, bookLevel{price: price, size: size})
	}
	return levels, nil
}
