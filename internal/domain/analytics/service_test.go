package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/domain/user"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&user.User{}, &catalog.Category{}, &catalog.SubCategory{}, &catalog.Product{},
		&order.Order{}, &order.OrderItem{},
	))

	svc := NewService(db)
	svc.now = func() time.Time { return fixedNow }
	return svc, db
}

type line struct {
	productID uint
	units     int
	total     int64
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&user.User{
		Email: "asha@example.com", Password: "x", IsActive: true,
		CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}).Error)

	cat := catalog.Category{Name: "Wooden", Slug: "wooden", IsActive: true}
	require.NoError(t, db.Create(&cat).Error)
	sub := catalog.SubCategory{CategoryID: cat.ID, Name: "Oak", Slug: "oak", IsActive: true}
	require.NoError(t, db.Create(&sub).Error)
	for _, p := range []catalog.Product{
		{SKU: "A", Name: "Natural Oak", Price: 2400, Stock: 100, IsActive: true},
		{SKU: "B", Name: "Smoked Oak", Price: 3100, Stock: 5, IsActive: true},
		{SKU: "C", Name: "Teak", Price: 5200, Stock: 0, IsActive: true},
		{SKU: "D", Name: "Retired", Price: 900, Stock: 0, IsActive: false},
	} {
		p.SubCategoryID = sub.ID
		p.Slug = p.SKU
		require.NoError(t, db.Create(&p).Error)
	}

	orders := []struct {
		status order.OrderStatus
		policy pricing.PolicyName
		net    int64
		at     time.Time
		lines  []line
	}{
		{order.OrderStatusDelivered, pricing.PolicyCart, 57950, fixedNow.Add(-2 * time.Hour), []line{{1, 20, 48000}, {2, 5, 15500}}},
		{order.OrderStatusPending, pricing.PolicyBuyNow, 5595, time.Date(2026, 10, 3, 15, 0, 0, 0, time.UTC), []line{{3, 1, 5200}}},
		{order.OrderStatusCancel, pricing.PolicyCart, 3000, fixedNow.Add(-3 * time.Hour), []line{{1, 1, 2400}}},
		{order.OrderStatusDelivered, pricing.PolicyCart, 10000, time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC), []line{{1, 2, 4800}}},
	}
	for i, o := range orders {
		row := order.Order{
			OrderNumber: fmt.Sprintf("FLR-TEST-%d", i),
			OwnerID:     1,
			Status:      o.status,
			Policy:      o.policy,
			PaymentMode: order.PaymentModeCOD,
			PaymentID:   uint(i + 1),
			NetBill:     o.net,
			CreatedAt:   o.at,
		}
		for _, l := range o.lines {
			row.Items = append(row.Items, order.OrderItem{
				ProductID:   l.productID,
				ProductName: fmt.Sprintf("product %d", l.productID),
				Units:       l.units,
				TotalAmount: l.total,
			})
		}
		require.NoError(t, db.Create(&row).Error)
	}
}

func TestService_GetDashboardStats(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db)

	stats, err := svc.GetDashboardStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(73545), stats.TotalRevenue)
	assert.Equal(t, int64(57950), stats.RevenueToday)
	assert.Equal(t, int64(63545), stats.RevenueThisMonth)
	assert.InDelta(t, 535.45, stats.RevenueGrowth, 0.001)

	assert.Equal(t, int64(4), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.OrdersToday)
	assert.Equal(t, int64(3), stats.OrdersThisMonth)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(73545/3), stats.AvgOrderValue)

	assert.Equal(t, int64(1), stats.TotalCustomers)
	assert.Equal(t, int64(1), stats.NewCustomersMonth)

	assert.Equal(t, int64(3), stats.ActiveProducts)
	assert.Equal(t, int64(1), stats.OutOfStockProducts)
	assert.Equal(t, int64(1), stats.LowStockProducts)
}

func TestService_GetSalesAnalytics(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db)

	sales, err := svc.GetSalesAnalytics(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 30, sales.Days)
	assert.Equal(t, int64(2), sales.TotalSales)
	assert.Equal(t, int64(63545), sales.TotalRevenue)
	assert.Equal(t, int64(31772), sales.AvgOrderValue)
	assert.Equal(t, []TimeSeriesData{
		{Date: "2026-10-03", Value: 5595, Count: 1},
		{Date: "2026-10-17", Value: 57950, Count: 1},
	}, sales.DailyRevenue)
	assert.Equal(t, []StatusData{
		{Status: "cancel", Count: 1, Value: 3000},
		{Status: "delivered", Count: 1, Value: 57950},
		{Status: "pending", Count: 1, Value: 5595},
	}, sales.SalesByStatus)
	assert.Equal(t, []StatusData{
		{Status: "buy_now", Count: 1, Value: 5595},
		{Status: "cart", Count: 1, Value: 57950},
	}, sales.SalesByPolicy)

	require.Len(t, sales.TopProducts, 3)
	assert.Equal(t, uint(1), sales.TopProducts[0].ProductID)
	assert.Equal(t, int64(20), sales.TopProducts[0].TotalSold)
	assert.Equal(t, int64(48000), sales.TopProducts[0].Revenue)
	assert.Equal(t, uint(2), sales.TopProducts[1].ProductID)
	assert.Equal(t, uint(3), sales.TopProducts[2].ProductID)
}

func TestService_GetSalesAnalyticsWindow(t *testing.T) {
	svc, db := newTestService(t)
	seed(t, db)

	sales, err := svc.GetSalesAnalytics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sales.TotalSales)
	assert.Len(t, sales.TopProducts, 2)

	sales, err = svc.GetSalesAnalytics(context.Background(), 5000)
	require.NoError(t, err)
	assert.Equal(t, maxDays, sales.Days)
	assert.Equal(t, int64(3), sales.TotalSales)
	assert.Equal(t, int64(73545), sales.TotalRevenue)
}
