package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// NextTier tells the customer how much more unlocks the next discount.
type NextTier struct {
	Threshold      int64  `json:"threshold"`
	Percent        int64  `json:"percent"`
	AmountToUnlock int64  `json:"amount_to_unlock"`
	Message        string `json:"message"`
}

// Quote is a fully computed bill for a subtotal under one policy.
type Quote struct {
	Policy          PolicyName `json:"policy"`
	Subtotal        int64      `json:"subtotal"`
	DiscountPercent int64      `json:"discount_percent"`
	DiscountAmount  int64      `json:"discount_amount"`
	ShippingCharge  int64      `json:"shipping_charge"`
	NetPayable      int64      `json:"net_payable"`
	NextTier        *NextTier  `json:"next_tier,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Compute prices subtotal under the named policy.
func Compute(subtotal int64, name PolicyName) (*Quote, error) {
	if subtotal < 0 {
		return nil, apperror.Validation("subtotal cannot be negative: %d", subtotal)
	}
	if subtotal > MaxAmount {
		return nil, apperror.Validation("subtotal %d exceeds the maximum of %d", subtotal, MaxAmount)
	}
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	pct := p.discountPercent(subtotal)
	discount := DiscountAmount(subtotal, pct)
	shipping := p.shippingCharge(subtotal)

	q := &Quote{
		Policy:          p.Name,
		Subtotal:        subtotal,
		DiscountPercent: pct,
		DiscountAmount:  discount,
		ShippingCharge:  shipping,
		NetPayable:      subtotal - discount + shipping,
	}
	if p.Upsell {
		if nt := p.nextTier(subtotal); nt != nil {
			nt.Message = fmt.Sprintf("Add ₹%d more to get %d%% off", nt.AmountToUnlock, nt.Percent)
			q.NextTier = nt
		}
	}
	return q, nil
}

// DiscountAmount is subtotal*percent/100 rounded half away from zero to whole rupees.
func DiscountAmount(subtotal, percent int64) int64 {
	if percent == 0 || subtotal == 0 {
		return 0
	}
	return decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(percent)).
		Div(hundred).
		Round(0).
		IntPart()
}

// Check recomputes q from its subtotal and reports any field that disagrees.
func (q *Quote) Check() error {
	want, err := Compute(q.Subtotal, q.Policy)
	if err != nil {
		return err
	}
	if want.DiscountPercent != q.DiscountPercent ||
		want.DiscountAmount != q.DiscountAmount ||
		want.ShippingCharge != q.ShippingCharge ||
		want.NetPayable != q.NetPayable {
		return apperror.Inconsistent("quote",
			"policy %s subtotal %d: got discount %d shipping %d net %d, want discount %d shipping %d net %d",
			q.Policy, q.Subtotal, q.DiscountAmount, q.ShippingCharge, q.NetPayable,
			want.DiscountAmount, want.ShippingCharge, want.NetPayable)
	}
	return nil
}
