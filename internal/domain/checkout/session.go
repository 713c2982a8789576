package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/your-org/flooring-store/internal/domain/cart"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// Mode selects where checkout items come from
type Mode string

const (
	ModeCart   Mode = "cart"
	ModeBuyNow Mode = "buy_now"
)

// Policy is the pricing policy a mode is billed under
func (m Mode) Policy() pricing.PolicyName {
	if m == ModeBuyNow {
		return pricing.PolicyBuyNow
	}
	return pricing.PolicyCart
}

// ParseMode accepts "cart", "buy_now" and "buynow"
func ParseMode(s string) (Mode, error) {
	switch s {
	case "cart", "":
		return ModeCart, nil
	case "buy_now", "buynow", "buyNow":
		return ModeBuyNow, nil
	}
	return "", apperror.Validation("unknown checkout mode %q", s)
}

// Session holds a priced checkout between the address step and payment.
// Quote is what will be charged; Review is shown on the address review page.
type Session struct {
	ID        string                `json:"id"`
	OwnerID   uint                  `json:"owner_id"`
	Mode      Mode                  `json:"mode"`
	Items     []cart.LineItem       `json:"items"`
	Address   order.ShippingAddress `json:"shipping_address"`
	Quote     pricing.Quote         `json:"quote"`
	Review    pricing.Quote         `json:"review"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// Subtotal reprices every line from unit price and quantity and sums them.
// Quantities or amounts past the pricing caps are a ValidationError.
func (s *Session) Subtotal() (int64, error) {
	totals := make([]int64, 0, len(s.Items))
	for _, it := range s.Items {
		line, err := pricing.LineTotal(it.UnitPrice, it.Quantity)
		if err != nil {
			return 0, fmt.Errorf("product %d: %w", it.ProductID, err)
		}
		totals = append(totals, line)
	}
	return pricing.SumAmounts(totals...)
}

// orderItems converts the session lines to order input
func (s *Session) orderItems() []order.ItemInput {
	items := make([]order.ItemInput, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, order.ItemInput{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		})
	}
	return items
}

func sessionKey(id string) string {
	return "checkout:session:" + id
}

func sessionLockKey(id string) string {
	return "checkout:session:" + id + ":lock"
}

func idempotencyKey(ownerID uint, key string) string {
	return fmt.Sprintf("checkout:idem:%d:%s", ownerID, key)
}

// sessionStore keeps sessions in Redis under a TTL
type sessionStore struct {
	rdb *redis.Client
}

func (st *sessionStore) save(ctx context.Context, s *Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode checkout session: %w", err)
	}
	if err := st.rdb.Set(ctx, sessionKey(s.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store checkout session: %w", err)
	}
	return nil
}

func (st *sessionStore) load(ctx context.Context, id string) (*Session, error) {
	data, err := st.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperror.NotFound("checkout session", id)
		}
		return nil, fmt.Errorf("failed to load checkout session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &s, nil
}

func (st *sessionStore) delete(ctx context.Context, id string) error {
	return st.rdb.Del(ctx, sessionKey(id)).Err()
}
