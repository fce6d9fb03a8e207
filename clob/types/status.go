package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderStatus is the classified fill state of a submitted order.
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
)

// ClassifyStatus derives the fill state from the matched and original
// sizes the exchange reports.
func ClassifyStatus(originalSize, sizeMatched string) (OrderStatus, error) {
	orig, err := decimal.NewFromString(originalSize)
	if err != nil {
		return "", fmt.Errorf("invalid original size %q: %w", originalSize, err)
	}
	matched := decimal.Zero
	if sizeMatched != "" {
		matched, err = decimal.NewFromString(sizeMatched)
		if err != nil {
			return "", fmt.Errorf("invalid matched size %q: %w", sizeMatched, err)
		}
	}
	switch {
	case matched.IsZero():
		return OrderStatusOpen, nil
	case matched.Cmp(orig) < 0:
		return OrderStatusPartiallyFilled, nil
	default:
		return OrderStatusFilled, nil
	}
}
