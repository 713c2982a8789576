package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

const (
	// MaxQuantity caps the units of one product on a single line.
	MaxQuantity = 10000
	// MaxAmount caps any line total, subtotal or bill, in whole rupees.
	MaxAmount int64 = 1_000_000_000_000
)

var maxAmount = decimal.NewFromInt(MaxAmount)

// CheckQuantity rejects quantities outside 1..MaxQuantity.
func CheckQuantity(quantity int) error {
	if quantity < 1 {
		return apperror.Validation("quantity must be at least 1, got %d", quantity)
	}
	if quantity > MaxQuantity {
		return apperror.Validation("quantity cannot exceed %d, got %d", MaxQuantity, quantity)
	}
	return nil
}

// LineTotal is unitPrice × quantity, computed without wrapping.
func LineTotal(unitPrice int64, quantity int) (int64, error) {
	if unitPrice < 0 {
		return 0, apperror.Validation("unit price cannot be negative: %d", unitPrice)
	}
	if err := CheckQuantity(quantity); err != nil {
		return 0, err
	}
	total := decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	if total.GreaterThan(maxAmount) {
		return 0, apperror.Validation("line total %s exceeds the maximum of %d", total.String(), MaxAmount)
	}
	return total.IntPart(), nil
}

// SumAmounts adds non-negative amounts, failing once the sum passes MaxAmount.
func SumAmounts(amounts ...int64) (int64, error) {
	sum := decimal.Zero
	for _, a := range amounts {
		if a < 0 {
			return 0, apperror.Validation("amount cannot be negative: %d", a)
		}
		sum = sum.Add(decimal.NewFromInt(a))
		if sum.GreaterThan(maxAmount) {
			return 0, apperror.Validation("total exceeds the maximum of %d", MaxAmount)
		}
	}
	return sum.IntPart(), nil
}
