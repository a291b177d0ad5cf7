package promotion

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Discount returns the amount the promotion takes off total.
//
// A nil promotion yields zero. Cash discounts are returned as-is and are not
// capped at total; callers decide what a discount above the total means.
func Discount(p *Promotion, total decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	switch p.Kind {
	case KindPercentage:
		return total.Mul(p.Value).Div(hundred)
	case KindCash:
		return p.Value
	default:
		return decimal.Zero
	}
}

// Payable returns total minus discount, floored at zero.
func Payable(total, discount decimal.Decimal) decimal.Decimal {
	paid := total.Sub(discount)
	if paid.IsNegative() {
		return decimal.Zero
	}
	return paid
}
