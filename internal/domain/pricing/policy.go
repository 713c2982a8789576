// Package pricing turns a subtotal into a bill under one of the storefront's
// discount and shipping policies. It holds no state and performs no I/O.
package pricing

import (
	"strings"

	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// PolicyName selects a pricing table
type PolicyName string

const (
	// PolicyCart prices a multi-item cart checkout
	PolicyCart PolicyName = "cart"
	// PolicyBuyNow prices a single product bought directly from its page
	PolicyBuyNow PolicyName = "buy_now"
	// PolicyReview prices the address review step and carries the upsell hint
	PolicyReview PolicyName = "review"
)

// Tier grants Percent off when the subtotal clears Threshold.
// Inclusive tiers match on >=, the others on >.
type Tier struct {
	Threshold int64 `json:"threshold"`
	Inclusive bool  `json:"inclusive"`
	Percent   int64 `json:"percent"`
}

func (t Tier) matches(subtotal int64) bool {
	if t.Inclusive {
		return subtotal >= t.Threshold
	}
	return subtotal > t.Threshold
}

// Bracket charges Charge for subtotals up to and including UpTo.
type Bracket struct {
	UpTo      int64 `json:"up_to,omitempty"`
	Unbounded bool  `json:"unbounded,omitempty"`
	Charge    int64 `json:"charge"`
}

// Policy is the data table behind one pricing flow. Tiers are ordered from
// the highest threshold down; Brackets from the lowest bound up.
type Policy struct {
	Name         PolicyName `json:"name"`
	Tiers        []Tier     `json:"tiers"`
	Brackets     []Bracket  `json:"brackets"`
	FreeWhenZero bool       `json:"free_when_zero"`
	Upsell       bool       `json:"upsell"`
}

var buyNowBrackets = []Bracket{
	{UpTo: 500, Charge: 99},
	{UpTo: 1500, Charge: 149},
	{UpTo: 5000, Charge: 299},
	{Unbounded: true, Charge: 499},
}

var policies = map[PolicyName]Policy{
	PolicyCart: {
		Name: PolicyCart,
		Tiers: []Tier{
			{Threshold: 100000, Inclusive: true, Percent: 8},
			{Threshold: 50000, Inclusive: true, Percent: 5},
		},
		Brackets: []Bracket{
			{UpTo: 9999, Charge: 499},
			{Unbounded: true, Charge: 0},
		},
		FreeWhenZero: true,
	},
	PolicyBuyNow: {
		Name: PolicyBuyNow,
		Tiers: []Tier{
			{Threshold: 10000, Inclusive: false, Percent: 7},
			{Threshold: 5000, Inclusive: false, Percent: 2},
		},
		Brackets: buyNowBrackets,
	},
	PolicyReview: {
		Name: PolicyReview,
		Tiers: []Tier{
			{Threshold: 10000, Inclusive: true, Percent: 7},
			{Threshold: 5000, Inclusive: true, Percent: 2},
		},
		Brackets: buyNowBrackets,
		Upsell:   true,
	},
}

// ParsePolicy resolves a policy name, accepting the long flow names too.
func ParsePolicy(name string) (PolicyName, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cart", "cart-checkout", "cart_checkout":
		return PolicyCart, nil
	case "buy_now", "buy-now", "single-item-buy-now":
		return PolicyBuyNow, nil
	case "review", "address-review", "address_review":
		return PolicyReview, nil
	}
	return "", apperror.Validation("unknown pricing policy %q", name)
}

// Lookup returns the table for a policy.
func Lookup(name PolicyName) (Policy, error) {
	p, ok := policies[name]
	if !ok {
		return Policy{}, apperror.Validation("unknown pricing policy %q", name)
	}
	return p, nil
}

// Policies lists every table in a stable order.
func Policies() []Policy {
	return []Policy{policies[PolicyCart], policies[PolicyBuyNow], policies[PolicyReview]}
}

func (p Policy) discountPercent(subtotal int64) int64 {
	for _, t := range p.Tiers {
		if t.matches(subtotal) {
			return t.Percent
		}
	}
	return 0
}

func (p Policy) shippingCharge(subtotal int64) int64 {
	if subtotal == 0 && p.FreeWhenZero {
		return 0
	}
	for _, b := range p.Brackets {
		if b.Unbounded || subtotal <= b.UpTo {
			return b.Charge
		}
	}
	return 0
}

// nextTier finds the cheapest tier not yet reached.
func (p Policy) nextTier(subtotal int64) *NextTier {
	for i := len(p.Tiers) - 1; i >= 0; i-- {
		t := p.Tiers[i]
		if t.matches(subtotal) {
			continue
		}
		need := t.Threshold - subtotal
		if !t.Inclusive {
			need++
		}
		return &NextTier{
			Threshold:      t.Threshold,
			Percent:        t.Percent,
			AmountToUnlock: need,
		}
	}
	return nil
}
