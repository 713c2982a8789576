package cart

import (
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// NewCart returns an empty cart for owner.
func NewCart(ownerID uint) *Cart {
	return &Cart{OwnerID: ownerID, Items: []LineItem{}}
}

func (c *Cart) find(productID uint) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Item returns the line for productID, if present.
func (c *Cart) Item(productID uint) (LineItem, bool) {
	if i := c.find(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// AddItem adds quantity units of a product. An existing line keeps its
// original price snapshot; name and unitPrice only seed new lines. The cart
// is left untouched when the result would exceed the quantity or amount caps.
func (c *Cart) AddItem(productID uint, name string, unitPrice int64, quantity int) error {
	if err := pricing.CheckQuantity(quantity); err != nil {
		return err
	}
	if unitPrice < 0 {
		return apperror.Validation("unit price cannot be negative")
	}

	items := append([]LineItem(nil), c.Items...)
	if i := c.find(productID); i >= 0 {
		qty := items[i].Quantity + quantity
		line, err := pricing.LineTotal(items[i].UnitPrice, qty)
		if err != nil {
			return err
		}
		items[i].Quantity = qty
		items[i].LineTotal = line
	} else {
		line, err := pricing.LineTotal(unitPrice, quantity)
		if err != nil {
			return err
		}
		items = append(items, LineItem{
			CartID:      c.ID,
			ProductID:   productID,
			ProductName: name,
			UnitPrice:   unitPrice,
			Quantity:    quantity,
			LineTotal:   line,
		})
	}
	return c.apply(items)
}

// UpdateItem sets the quantity of a line. Zero or negative removes it.
func (c *Cart) UpdateItem(productID uint, quantity int) error {
	if quantity < 1 {
		c.RemoveItem(productID)
		return nil
	}
	i := c.find(productID)
	if i < 0 {
		return apperror.NotFound("cart item", productID)
	}
	line, err := pricing.LineTotal(c.Items[i].UnitPrice, quantity)
	if err != nil {
		return err
	}
	items := append([]LineItem(nil), c.Items...)
	items[i].Quantity = quantity
	items[i].LineTotal = line
	return c.apply(items)
}

// apply swaps in items once their sum is known to fit.
func (c *Cart) apply(items []LineItem) error {
	total, err := lineSum(items)
	if err != nil {
		return err
	}
	c.Items = items
	c.Total = total
	return nil
}

func lineSum(items []LineItem) (int64, error) {
	totals := make([]int64, 0, len(items))
	for _, it := range items {
		totals = append(totals, it.LineTotal)
	}
	return pricing.SumAmounts(totals...)
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID uint) {
	i := c.find(productID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.recompute()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []LineItem{}
	c.Total = 0
}

// Subtotal sums the line totals. Mutations keep it within pricing.MaxAmount.
func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.LineTotal
	}
	return sum
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) recompute() {
	c.Total = c.Subtotal()
}

// Verify checks the stored totals against prices and quantities, using
// arithmetic that cannot wrap.
func (c *Cart) Verify() error {
	totals := make([]int64, 0, len(c.Items))
	for _, it := range c.Items {
		want, err := pricing.LineTotal(it.UnitPrice, it.Quantity)
		if err != nil {
			return apperror.Inconsistent("cart", "product %d: %v", it.ProductID, err)
		}
		if it.LineTotal != want {
			return apperror.Inconsistent("cart", "product %d line total %d, want %d", it.ProductID, it.LineTotal, want)
		}
		totals = append(totals, want)
	}
	want, err := pricing.SumAmounts(totals...)
	if err != nil {
		return apperror.Inconsistent("cart", "%v", err)
	}
	if c.Total != want {
		return apperror.Inconsistent("cart", "total %d, want %d", c.Total, want)
	}
	return nil
}

// Repair rebuilds line totals and the cart total from prices and
// quantities. Lines that cannot be priced are dropped, and so are trailing
// lines that would push the total past pricing.MaxAmount.
func (c *Cart) Repair() {
	kept := c.Items[:0]
	var total int64
	for _, it := range c.Items {
		line, err := pricing.LineTotal(it.UnitPrice, it.Quantity)
		if err != nil {
			continue
		}
		if line > pricing.MaxAmount-total {
			continue
		}
		it.LineTotal = line
		total += line
		kept = append(kept, it)
	}
	c.Items = kept
	c.Total = total
}
