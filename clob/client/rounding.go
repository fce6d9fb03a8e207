package client

import (
	"math/big"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/types"
)

var (
	ErrPriceOutOfRange   = pkgerrors.New("price must be strictly between 0 and 1")
	ErrAmountNotPositive = pkgerrors.New("amount must be positive")
)

// Precision fixes how many decimals a market accepts for price,
// quantity and collateral amount at a given tick size.
type Precision struct {
	Price  int32
	Size   int32
	Amount int32
}

var roundingTable = map[types.TickSize]Precision{
	types.TickSize01:    {Price: 1, Size: 2, Amount: 3},
	types.TickSize001:   {Price: 2, Size: 2, Amount: 4},
	types.TickSize0001:  {Price: 3, Size: 2, Amount: 5},
	types.TickSize00001: {Price: 4, Size: 2, Amount: 6},
}

// RoundedAmounts is the integer order core: the price actually used
// after tick rounding, the human-scale quantity and collateral legs,
// and both legs scaled to the 18-decimal fixed point the exchange
// contract settles in.
type RoundedAmounts struct {
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Collateral decimal.Decimal

	MakerAmount *big.Int
	TakerAmount *big.Int
}

// AmountRounder converts a price/amount pair into integer maker and
// taker amounts. All arithmetic stays in decimal form until the final
// fixed-point shift; binary floats would corrupt 18-decimal values.
type AmountRounder struct {
	tick types.TickSize
	prec Precision
}

func NewAmountRounder(tick types.TickSize) (*AmountRounder, error) {
	if tick == "" {
		tick = types.TickSize001
	}
	prec, okTick := roundingTable[tick]
	if !okTick {
		return nil, pkgerrors.Errorf("unsupported tick size %q", tick)
	}
	return &AmountRounder{tick: tick, prec: prec}, nil
}

func (r *AmountRounder) Tick() types.TickSize { return r.tick }

// RoundPrice snaps a price to tick precision, half to even, and keeps
// the result strictly inside (0, 1).
func (r *AmountRounder) RoundPrice(price decimal.Decimal) (decimal.Decimal, error) {
	one := decimal.NewFromInt(1)
	if price.Sign() <= 0 || price.Cmp(one) >= 0 {
		return decimal.Zero, ErrPriceOutOfRange
	}
	rounded := price.RoundBank(r.prec.Price)
	tick := decimal.New(1, -r.prec.Price)
	if rounded.Sign() <= 0 {
		rounded = tick
	}
	if rounded.Cmp(one) >= 0 {
		rounded = one.Sub(tick)
	}
	return rounded, nil
}

// ForBuyWithSpend turns a collateral budget into a buy order: quantity
// received is the exact floor of spend/price at size precision, and the
// collateral paid recomputes from that quantity so it never exceeds the
// budget. QuoRem keeps the division exact; a rounding division could
// tip the quotient over a size step and overshoot the budget.
func (r *AmountRounder) ForBuyWithSpend(price, spend decimal.Decimal) (*RoundedAmounts, error) {
	if spend.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	p, err := r.RoundPrice(price)
	if err != nil {
		return nil, err
	}
	quantity, _ := spend.QuoRem(p, r.prec.Size)
	if quantity.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	paid := quantity.Mul(p).RoundCeil(r.prec.Amount)
	return r.buyAmounts(p, quantity, paid), nil
}

// ForBuyWithQuantity prices a target quantity directly.
func (r *AmountRounder) ForBuyWithQuantity(price, quantity decimal.Decimal) (*RoundedAmounts, error) {
	if quantity.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	p, err := r.RoundPrice(price)
	if err != nil {
		return nil, err
	}
	q := quantity.RoundFloor(r.prec.Size)
	if q.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	paid := q.Mul(p).RoundCeil(r.prec.Amount)
	return r.buyAmounts(p, q, paid), nil
}

// ForSell prices an outcome-token sale: quantity spent rounds down,
// proceeds round down as well so the seller never overstates them.
func (r *AmountRounder) ForSell(price, quantity decimal.Decimal) (*RoundedAmounts, error) {
	if quantity.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	p, err := r.RoundPrice(price)
	if err != nil {
		return nil, err
	}
	q := quantity.RoundFloor(r.prec.Size)
	if q.Sign() <= 0 {
		return nil, ErrAmountNotPositive
	}
	proceeds := q.Mul(p).RoundFloor(r.prec.Amount)
	return &RoundedAmounts{
		Price:       p,
		Quantity:    q,
		Collateral:  proceeds,
		MakerAmount: fixedPoint(q),
		TakerAmount: fixedPoint(proceeds),
	}, nil
}

func (r *AmountRounder) buyAmounts(price, quantity, paid decimal.Decimal) *RoundedAmounts {
	return &RoundedAmounts{
		Price:       price,
		Quantity:    quantity,
		Collateral:  paid,
		MakerAmount: fixedPoint(paid),
		TakerAmount: fixedPoint(quantity),
	}
}

// fixedPoint shifts a decimal into the exchange's 18-decimal integer
// representation. Inputs carry at most six decimals, so the shift is
// always exact.
func fixedPoint(d decimal.Decimal) *big.Int {
	return d.Shift(FixedPointDecimals).BigInt()
}

// TokenUnits shifts a decimal into an ERC-20 style token amount.
func TokenUnits(d decimal.Decimal, decimals int32) *big.Int {
	return d.Shift(decimals).BigInt()
}

// FromTokenUnits renders a raw token amount at the given decimals.
func FromTokenUnits(v *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(v, -decimals)
}
