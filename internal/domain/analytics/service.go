// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/user"
)

const (
	defaultDays       = 30
	maxDays           = 365
	lowStockThreshold = 10
	topProductsLimit  = 10
)

// Service computes admin dashboard figures from orders, users and the catalog
type Service struct {
	db *gorm.DB
	// now is overridable for tests
	now func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// DashboardStats represents overall dashboard statistics. Amounts are whole
// rupees and cancelled orders never count as revenue.
type DashboardStats struct {
	TotalRevenue     int64   `json:"total_revenue"`
	RevenueToday     int64   `json:"revenue_today"`
	RevenueThisMonth int64   `json:"revenue_this_month"`
	RevenueGrowth    float64 `json:"revenue_growth"`

	TotalOrders     int64 `json:"total_orders"`
	OrdersToday     int64 `json:"orders_today"`
	OrdersThisMonth int64 `json:"orders_this_month"`
	PendingOrders   int64 `json:"pending_orders"`
	AvgOrderValue   int64 `json:"avg_order_value"`

	TotalCustomers    int64 `json:"total_customers"`
	NewCustomersMonth int64 `json:"new_customers_this_month"`

	ActiveProducts     int64 `json:"active_products"`
	OutOfStockProducts int64 `json:"out_of_stock_products"`
	LowStockProducts   int64 `json:"low_stock_products"`
}

// SalesAnalytics is the sales picture for the last Days days
type SalesAnalytics struct {
	Days          int                `json:"days"`
	DailyRevenue  []TimeSeriesData   `json:"daily_revenue"`
	TotalSales    int64              `json:"total_sales"`
	TotalRevenue  int64              `json:"total_revenue"`
	AvgOrderValue int64              `json:"avg_order_value"`
	TopProducts   []ProductSalesData `json:"top_products"`
	SalesByStatus []StatusData       `json:"sales_by_status"`
	SalesByPolicy []StatusData       `json:"sales_by_policy"`
}

// TimeSeriesData is one day of revenue
type TimeSeriesData struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

// ProductSalesData is one product's units and revenue
type ProductSalesData struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int64  `json:"total_sold"`
	Revenue     int64  `json:"revenue"`
	OrderCount  int64  `json:"order_count"`
}

// StatusData groups orders by a label such as status or pricing policy
type StatusData struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Value  int64  `json:"value"`
}

func (s *Service) orders(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&order.Order{})
}

func (s *Service) billed(ctx context.Context) *gorm.DB {
	return s.orders(ctx).Where("status <> ?", order.OrderStatusCancel)
}

func sumNet(q *gorm.DB) (int64, error) {
	var total int64
	err := q.Select("COALESCE(SUM(net_bill), 0)").Row().Scan(&total)
	return total, err
}

// GetDashboardStats returns headline figures for the admin dashboard
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)

	var err error
	if stats.TotalRevenue, err = sumNet(s.billed(ctx)); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if stats.RevenueToday, err = sumNet(s.billed(ctx).Where("created_at >= ?", today)); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if stats.RevenueThisMonth, err = sumNet(s.billed(ctx).Where("created_at >= ?", thisMonth)); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	lastMonthRevenue, err := sumNet(s.billed(ctx).Where("created_at >= ? AND created_at < ?", lastMonth, thisMonth))
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if lastMonthRevenue > 0 {
		stats.RevenueGrowth = float64(stats.RevenueThisMonth-lastMonthRevenue) / float64(lastMonthRevenue) * 100
	}

	counts := []struct {
		dst *int64
		q   *gorm.DB
	}{
		{&stats.TotalOrders, s.orders(ctx)},
		{&stats.OrdersToday, s.orders(ctx).Where("created_at >= ?", today)},
		{&stats.OrdersThisMonth, s.orders(ctx).Where("created_at >= ?", thisMonth)},
		{&stats.PendingOrders, s.orders(ctx).Where("status = ?", order.OrderStatusPending)},
		{&stats.TotalCustomers, s.db.WithContext(ctx).Model(&user.User{}).Where("is_admin = ?", false)},
		{&stats.NewCustomersMonth, s.db.WithContext(ctx).Model(&user.User{}).Where("is_admin = ? AND created_at >= ?", false, thisMonth)},
		{&stats.ActiveProducts, s.db.WithContext(ctx).Model(&catalog.Product{}).Where("is_active = ?", true)},
		{&stats.OutOfStockProducts, s.db.WithContext(ctx).Model(&catalog.Product{}).Where("is_active = ? AND stock <= 0", true)},
		{&stats.LowStockProducts, s.db.WithContext(ctx).Model(&catalog.Product{}).Where("is_active = ? AND stock > 0 AND stock <= ?", true, lowStockThreshold)},
	}
	for _, c := range counts {
		if err := c.q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("failed to load dashboard counts: %w", err)
		}
	}

	var billedOrders int64
	if err := s.billed(ctx).Count(&billedOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if billedOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / billedOrders
	}

	return stats, nil
}

// GetSalesAnalytics reports sales for the last days days (30 when unset)
func (s *Service) GetSalesAnalytics(ctx context.Context, days int) (*SalesAnalytics, error) {
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		days = maxDays
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	result := &SalesAnalytics{
		Days:          days,
		DailyRevenue:  []TimeSeriesData{},
		TopProducts:   []ProductSalesData{},
		SalesByStatus: []StatusData{},
		SalesByPolicy: []StatusData{},
	}

	var rows []order.Order
	if err := s.orders(ctx).
		Select("id", "status", "policy", "net_bill", "created_at").
		Where("created_at >= ?", start).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	// Bucketing happens here rather than in SQL; date functions differ
	// between postgres and sqlite.
	daily := make(map[string]*TimeSeriesData)
	byStatus := make(map[string]*StatusData)
	byPolicy := make(map[string]*StatusData)
	for _, o := range rows {
		bump(byStatus, string(o.Status), o.NetBill)
		if o.Status == order.OrderStatusCancel {
			continue
		}
		bump(byPolicy, string(o.Policy), o.NetBill)

		day := o.CreatedAt.In(now.Location()).Format("2006-01-02")
		d, ok := daily[day]
		if !ok {
			d = &TimeSeriesData{Date: day}
			daily[day] = d
		}
		d.Value += o.NetBill
		d.Count++
		result.TotalSales++
		result.TotalRevenue += o.NetBill
	}
	if result.TotalSales > 0 {
		result.AvgOrderValue = result.TotalRevenue / result.TotalSales
	}

	for _, d := range daily {
		result.DailyRevenue = append(result.DailyRevenue, *d)
	}
	sort.Slice(result.DailyRevenue, func(i, j int) bool {
		return result.DailyRevenue[i].Date < result.DailyRevenue[j].Date
	})
	result.SalesByStatus = flatten(byStatus)
	result.SalesByPolicy = flatten(byPolicy)

	if err := s.db.WithContext(ctx).Table("order_items AS oi").
		Select(`oi.product_id AS product_id,
			MAX(oi.product_name) AS product_name,
			COALESCE(SUM(oi.units), 0) AS total_sold,
			COALESCE(SUM(oi.total_amount), 0) AS revenue,
			COUNT(DISTINCT oi.order_id) AS order_count`).
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.created_at >= ? AND o.status <> ? AND o.deleted_at IS NULL", start, order.OrderStatusCancel).
		Group("oi.product_id").
		Order("revenue DESC, oi.product_id").
		Limit(topProductsLimit).
		Scan(&result.TopProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}

	return result, nil
}

func bump(m map[string]*StatusData, key string, value int64) {
	d, ok := m[key]
	if !ok {
		d = &StatusData{Status: key}
		m[key] = d
	}
	d.Count++
	d.Value += value
}

func flatten(m map[string]*StatusData) []StatusData {
	out := make([]StatusData, 0, len(m))
	for _, d := range m {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}
