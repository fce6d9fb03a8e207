package client

import (
	"testing"
	"testing/quick"

	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/types"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestRoundPrice(t *testing.T) {
	cases := []struct {
		tick  types.TickSize
		in    string
		want  string
		isErr bool
	}{
		{types.TickSize001, "0.42", "0.42", false},
		// half to even: 0.425 -> 0.42, 0.435 -> 0.44
		{types.TickSize001, "0.425", "0.42", false},
		{types.TickSize001, "0.435", "0.44", false},
		// rounding to zero clamps to one tick inside the range
		{types.TickSize001, "0.004", "0.01", false},
		// rounding to one clamps to one tick below
		{types.TickSize01, "0.99", "0.9", false},
		{types.TickSize0001, "0.1234", "0.1234", false},
		{types.TickSize00001, "0.12345", "0.1234", false},
		{types.TickSize001, "0", "", true},
		{types.TickSize001, "1", "", true},
		{types.TickSize001, "1.5", "", true},
		{types.TickSize001, "-0.3", "", true},
	}
	for _, tc := range cases {
		r, err := NewAmountRounder(tc.tick)
		if err != nil {
			t.Fatalf("NewAmountRounder(%s): %v", tc.tick, err)
		}
		got, err := r.RoundPrice(mustDecimal(t, tc.in))
		if tc.isErr {
			if err == nil {
				t.Fatalf("RoundPrice(%s@%s) expected error, got %s", tc.in, tc.tick, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("RoundPrice(%s@%s): %v", tc.in, tc.tick, err)
		}
		if got.String() != tc.want {
			t.Fatalf("RoundPrice(%s@%s) got=%s want=%s", tc.in, tc.tick, got, tc.want)
		}
	}
}

func TestForBuyWithSpend(t *testing.T) {
	r, err := NewAmountRounder(types.TickSize001)
	if err != nil {
		t.Fatalf("NewAmountRounder: %v", err)
	}

	// 50 collateral at 0.42: raw quantity 119.0476... floors to 119.04,
	// cost recomputes to exactly 119.04*0.42 = 49.9968.
	got, err := r.ForBuyWithSpend(mustDecimal(t, "0.42"), mustDecimal(t, "50"))
	if err != nil {
		t.Fatalf("ForBuyWithSpend: %v", err)
	}
	if got.Quantity.String() != "119.04" {
		t.Fatalf("Quantity got=%s want=119.04", got.Quantity)
	}
	if got.Collateral.String() != "49.9968" {
		t.Fatalf("Collateral got=%s want=49.9968", got.Collateral)
	}
	if got.MakerAmount.String() != "49996800000000000000" {
		t.Fatalf("MakerAmount got=%s want=49996800000000000000", got.MakerAmount)
	}
	if got.TakerAmount.String() != "119040000000000000000" {
		t.Fatalf("TakerAmount got=%s want=119040000000000000000", got.TakerAmount)
	}

	if _, err := r.ForBuyWithSpend(mustDecimal(t, "0.42"), decimal.Zero); err == nil {
		t.Fatal("zero spend should fail")
	}
	// spend too small to buy the minimum quantity step
	if _, err := r.ForBuyWithSpend(mustDecimal(t, "0.99"), mustDecimal(t, "0.001")); err == nil {
		t.Fatal("dust spend should fail")
	}
}

func TestForBuyWithQuantity(t *testing.T) {
	r, err := NewAmountRounder(types.TickSize001)
	if err != nil {
		t.Fatalf("NewAmountRounder: %v", err)
	}
	got, err := r.ForBuyWithQuantity(mustDecimal(t, "0.75"), mustDecimal(t, "10.499"))
	if err != nil {
		t.Fatalf("ForBuyWithQuantity: %v", err)
	}
	if got.Quantity.String() != "10.49" {
		t.Fatalf("Quantity got=%s want=10.49", got.Quantity)
	}
	// 10.49 * 0.75 = 7.8675
	if got.Collateral.String() != "7.8675" {
		t.Fatalf("Collateral got=%s want=7.8675", got.Collateral)
	}
}

func TestForSell(t *testing.T) {
	r, err := NewAmountRounder(types.TickSize001)
	if err != nil {
		t.Fatalf("NewAmountRounder: %v", err)
	}
	got, err := r.ForSell(mustDecimal(t, "0.42"), mustDecimal(t, "119.045"))
	if err != nil {
		t.Fatalf("ForSell: %v", err)
	}
	if got.Quantity.String() != "119.04" {
		t.Fatalf("Quantity got=%s want=119.04", got.Quantity)
	}
	if got.Collateral.String() != "49.9968" {
		t.Fatalf("Collateral got=%s want=49.9968", got.Collateral)
	}
	// a sale makes the outcome tokens the maker leg
	if got.MakerAmount.String() != "119040000000000000000" {
		t.Fatalf("MakerAmount got=%s want=119040000000000000000", got.MakerAmount)
	}
	if got.TakerAmount.String() != "49996800000000000000" {
		t.Fatalf("TakerAmount got=%s want=49996800000000000000", got.TakerAmount)
	}
}

func TestDefaultTick(t *testing.T) {
	r, err := NewAmountRounder("")
	if err != nil {
		t.Fatalf("NewAmountRounder: %v", err)
	}
	if r.Tick() != types.TickSize001 {
		t.Fatalf("default tick got=%s want=%s", r.Tick(), types.TickSize001)
	}
	if _, err := NewAmountRounder(types.TickSize("0.5")); err == nil {
		t.Fatal("unknown tick should fail")
	}
}

// Buying never spends more than the budget, and the recorded collateral
// always equals quantity times price exactly: price carries at most
// tick-precision decimals and quantity two, so the product fits inside
// amount precision with nothing left to round.
func TestProperty_BuySpendNeverExceeded(t *testing.T) {
	property := func(priceTenths uint16, spendCents uint32) bool {
		price := decimal.New(int64(priceTenths%9998)+1, -4) // (0, 1)
		spend := decimal.New(int64(spendCents%5_000_000)+1, -2)

		r, err := NewAmountRounder(types.TickSize00001)
		if err != nil {
			return false
		}
		got, err := r.ForBuyWithSpend(price, spend)
		if err != nil {
			// dust spends legitimately fail
			return got == nil
		}
		if got.Collateral.Cmp(spend) > 0 {
			return false
		}
		return got.Collateral.Equal(got.Quantity.Mul(got.Price))
	}
	config := &quick.Config{MaxCount: 300}
	if err := quick.Check(property, config); err != nil {
		t.Fatalf("buy rounding property failed: %v", err)
	}
}

// Selling never credits more than quantity times price, and the fixed
// point legs always re-derive from the decimal legs.
func TestProperty_SellLegsConsistent(t *testing.T) {
	property := func(priceTenths uint16, qtyCents uint32) bool {
		price := decimal.New(int64(priceTenths%98)+1, -2) // (0, 1)
		quantity := decimal.New(int64(qtyCents%10_000_000)+1, -2)

		r, err := NewAmountRounder(types.TickSize001)
		if err != nil {
			return false
		}
		got, err := r.ForSell(price, quantity)
		if err != nil {
			return got == nil
		}
		if !got.Collateral.Equal(got.Quantity.Mul(got.Price)) {
			return false
		}
		if got.MakerAmount.Cmp(fixedPoint(got.Quantity)) != 0 {
			return false
		}
		return got.TakerAmount.Cmp(fixedPoint(got.Collateral)) == 0
	}
	config := &quick.Config{MaxCount: 300}
	if err := quick.Check(property, config); err != nil {
		t.Fatalf("sell rounding property failed: %v", err)
	}
}
