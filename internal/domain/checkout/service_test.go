package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/cart"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

const owner uint = 7

type fakeCarts struct {
	mu       sync.Mutex
	carts    map[uint]*cart.Cart
	clearErr error
}

func (f *fakeCarts) GetCart(_ context.Context, ownerID uint) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.carts[ownerID]; ok {
		return c, nil
	}
	return cart.NewCart(ownerID), nil
}

func (f *fakeCarts) ClearCart(_ context.Context, ownerID uint) (*cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return nil, f.clearErr
	}
	c := cart.NewCart(ownerID)
	f.carts[ownerID] = c
	return c, nil
}

type fakePrices map[uint]int64

func (f fakePrices) LookupPrice(_ context.Context, id uint) (string, int64, error) {
	p, ok := f[id]
	if !ok {
		return "", 0, apperror.NotFound("product", id)
	}
	return "Product", p, nil
}

type harness struct {
	svc    *Service
	mr     *miniredis.Miniredis
	db     *gorm.DB
	carts  *fakeCarts
	orders *order.Service
	hook   *test.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&order.Payment{}, &order.Order{}, &order.OrderItem{}, &order.OrderStatusHistory{}))

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	cfg := &config.Config{Checkout: config.CheckoutConfig{
		SessionTTL:     30 * time.Minute,
		IdempotencyTTL: 24 * time.Hour,
		Currency:       "INR",
	}}

	c := cart.NewCart(owner)
	require.NoError(t, c.AddItem(1, "Natural Oak", 2400, 20))
	require.NoError(t, c.AddItem(2, "Skirting", 650, 20))
	carts := &fakeCarts{carts: map[uint]*cart.Cart{owner: c}}

	orders := order.NewService(db, cfg, nil, log)
	prices := fakePrices{1: 2400, 2: 650, 3: 5000}

	return &harness{
		svc:    NewService(rdb, carts, orders, prices, cfg, log),
		mr:     mr,
		db:     db,
		carts:  carts,
		orders: orders,
		hook:   hook,
	}
}

func address() order.ShippingAddress {
	return order.ShippingAddress{
		FullName: "Asha Verma",
		Contact:  "9876543210",
		Pincode:  "560001",
		Address:  "12 MG Road, Bengaluru",
	}
}

func (h *harness) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(&order.Order{}).Count(&n).Error)
	return n
}

func TestService_StartFromCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sess, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: address()})
	require.NoError(t, err)

	assert.Equal(t, ModeCart, sess.Mode)
	require.Len(t, sess.Items, 2)
	assert.Equal(t, pricing.PolicyCart, sess.Quote.Policy)
	assert.Equal(t, int64(61000), sess.Quote.Subtotal)
	assert.Equal(t, int64(57950), sess.Quote.NetPayable)
	assert.Equal(t, pricing.PolicyReview, sess.Review.Policy)
	assert.Equal(t, int64(7), sess.Review.DiscountPercent)

	assert.True(t, h.mr.Exists(sessionKey(sess.ID)))
	assert.Equal(t, 30*time.Minute, h.mr.TTL(sessionKey(sess.ID)))

	got, err := h.svc.Get(ctx, owner, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Quote, got.Quote)
}

func TestService_StartBuyNowBoundary(t *testing.T) {
	h := newHarness(t)

	sess, err := h.svc.Start(context.Background(), owner, &StartRequest{
		Mode: "buy_now", ProductID: 3, Quantity: 1, Address: address(),
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.PolicyBuyNow, sess.Quote.Policy)
	assert.Equal(t, int64(0), sess.Quote.DiscountPercent)
	assert.Equal(t, int64(299), sess.Quote.ShippingCharge)
	assert.Equal(t, int64(5299), sess.Quote.NetPayable)
	require.NotNil(t, sess.Review.NextTier)
	assert.Equal(t, int64(5000), sess.Review.NextTier.AmountToUnlock)
}

func TestService_StartRejectsBadInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := address()
	bad.Contact = "123"
	_, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: bad})
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.Start(ctx, 99, &StartRequest{Mode: "cart", Address: address()})
	assert.True(t, apperror.IsValidation(err), "empty cart")

	_, err = h.svc.Start(ctx, owner, &StartRequest{Mode: "buy_now", ProductID: 3, Quantity: 0, Address: address()})
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.Start(ctx, owner, &StartRequest{Mode: "buy_now", ProductID: 404, Quantity: 1, Address: address()})
	assert.True(t, apperror.IsNotFound(err))

	_, err = h.svc.Start(ctx, owner, &StartRequest{Mode: "layaway", Address: address()})
	assert.True(t, apperror.IsValidation(err))

	assert.Empty(t, h.mr.Keys())
}

func TestService_GetIsOwnerScopedAndExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: address()})
	require.NoError(t, err)

	_, err = h.svc.Get(ctx, 8, sess.ID)
	assert.True(t, apperror.IsNotFound(err))

	h.mr.FastForward(31 * time.Minute)
	_, err = h.svc.Get(ctx, owner, sess.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_ConfirmPlacesOrderOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: address()})
	require.NoError(t, err)

	req := &ConfirmRequest{SessionID: sess.ID, PaymentMode: "COD", IdempotencyKey: "k-1"}
	res, err := h.svc.Confirm(ctx, owner, req)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, int64(57950), res.Order.NetBill)
	assert.Equal(t, order.OrderStatusPending, res.Order.Status)

	payment, err := h.orders.GetPayment(ctx, res.Order)
	require.NoError(t, err)
	assert.Equal(t, res.Order.ID, payment.OrderID)
	assert.Equal(t, payment.ID, res.Order.PaymentID)

	c, err := h.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty(), "cart cleared after checkout")
	assert.False(t, h.mr.Exists(sessionKey(sess.ID)))

	again, err := h.svc.Confirm(ctx, owner, req)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Equal(t, res.Order.ID, again.Order.ID)
	assert.Equal(t, int64(1), h.orderCount(t))
}

func TestService_ConfirmConcurrentDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "buy_now", ProductID: 1, Quantity: 2, Address: address()})
	require.NoError(t, err)

	const n = 5
	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.svc.Confirm(ctx, owner, &ConfirmRequest{
				SessionID: sess.ID, PaymentMode: "UPI", IdempotencyKey: "double-click",
			})
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], apperror.ErrCheckoutInProgress)
			continue
		}
		if !results[i].Duplicate {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, int64(1), h.orderCount(t))
}

func TestService_ConfirmSessionOnceAcrossKeys(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sess, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: address()})
	require.NoError(t, err)

	// two tabs, or a client minting a key per click
	const n = 5
	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.svc.Confirm(ctx, owner, &ConfirmRequest{
				SessionID: sess.ID, PaymentMode: "COD", IdempotencyKey: fmt.Sprintf("tab-%d", i),
			})
		}(i)
	}
	wg.Wait()

	var placed *order.Order
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			assert.ErrorIs(t, errs[i], apperror.ErrCheckoutInProgress)
			continue
		}
		if !results[i].Duplicate {
			require.Nil(t, placed, "only one confirmation may place the order")
			placed = results[i].Order
		}
	}
	require.NotNil(t, placed)
	assert.Equal(t, int64(1), h.orderCount(t))

	late, err := h.svc.Confirm(ctx, owner, &ConfirmRequest{SessionID: sess.ID, PaymentMode: "UPI", IdempotencyKey: "tab-late"})
	require.NoError(t, err)
	assert.True(t, late.Duplicate)
	assert.Equal(t, placed.ID, late.Order.ID)
	assert.False(t, h.mr.Exists(idempotencyKey(owner, "tab-late")), "a refused key is not held")

	// someone else presenting the session id learns nothing
	_, err = h.svc.Confirm(ctx, 8, &ConfirmRequest{SessionID: sess.ID, PaymentMode: "COD", IdempotencyKey: "tab-x"})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, int64(1), h.orderCount(t))
}

func TestService_StartRejectsQuantitiesThatWouldWrap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "buy_now", ProductID: 1, Quantity: 1 << 59, Address: address()})
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.Start(ctx, owner, &StartRequest{Mode: "buy_now", ProductID: 1, Quantity: pricing.MaxQuantity + 1, Address: address()})
	assert.True(t, apperror.IsValidation(err))

	// a stored cart line whose total already wrapped to zero
	c := cart.NewCart(owner)
	c.Items = []cart.LineItem{{ProductID: 1, ProductName: "Natural Oak", UnitPrice: 2400, Quantity: 1 << 59}}
	h.carts.carts[owner] = c
	_, err = h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: address()})
	assert.True(t, apperror.IsValidation(err))

	assert.Empty(t, h.mr.Keys())
	assert.Zero(t, h.orderCount(t))
}

func TestService_ConfirmInProgress(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.mr.Set(idempotencyKey(owner, "k-2"), idemPending))

	_, err := h.svc.Confirm(context.Background(), owner, &ConfirmRequest{SessionID: "x", PaymentMode: "UPI", IdempotencyKey: "k-2"})
	assert.ErrorIs(t, err, apperror.ErrCheckoutInProgress)
}

func TestService_ConfirmFailureReleasesKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Confirm(ctx, owner, &ConfirmRequest{SessionID: "missing", PaymentMode: "COD", IdempotencyKey: "k-3"})
	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, h.mr.Exists(idempotencyKey(owner, "k-3")), "customer can retry with the same key")
	assert.False(t, h.mr.Exists(sessionLockKey("missing")))

	_, err = h.svc.Confirm(ctx, owner, &ConfirmRequest{SessionID: "missing", PaymentMode: "COD"})
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.Confirm(ctx, owner, &ConfirmRequest{SessionID: "missing", PaymentMode: "Cheque", IdempotencyKey: "k-4"})
	assert.True(t, apperror.IsValidation(err))
	assert.Zero(t, h.orderCount(t))
}

func TestService_ConfirmKeepsOrderWhenCartClearFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.carts.clearErr = errors.New("db offline")

	sess, err := h.svc.Start(ctx, owner, &StartRequest{Mode: "cart", Address: address()})
	require.NoError(t, err)

	res, err := h.svc.Confirm(ctx, owner, &ConfirmRequest{SessionID: sess.ID, PaymentMode: "Net Banking", IdempotencyKey: "k-5"})
	require.NoError(t, err)
	assert.NotZero(t, res.Order.ID)

	var logged bool
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "order placed but cart could not be cleared" {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestService_Preview(t *testing.T) {
	h := newHarness(t)

	q, err := h.svc.Preview(10000, "cart")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), q.NetPayable)

	_, err = h.svc.Preview(100, "bogus")
	assert.True(t, apperror.IsValidation(err))

	_, err = h.svc.Preview(-1, "cart")
	assert.True(t, apperror.IsValidation(err))
}
