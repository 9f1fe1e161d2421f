// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"gorm.io/gorm"
)

const (
	defaultDays     = 30
	maxDays         = 365
	topProductLimit = 10
	dayLayout       = "2006-01-02"
)

// TenantNames resolves tenant display names
type TenantNames interface {
	Names(ctx context.Context, ids []uint) (map[uint]string, error)
}

// Service handles analytics business logic
type Service struct {
	db      *gorm.DB
	tenants TenantNames
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, tenants TenantNames, logger logrus.FieldLogger) *Service {
	return &Service{
		db:      db,
		tenants: tenants,
		logger:  logger.WithField("component", "analytics"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// DashboardRequest selects the reporting window
type DashboardRequest struct {
	Days int `form:"days"`
}

// Dashboard is the headline view of sales. A nil TenantID means every tenant.
type Dashboard struct {
	TenantID *uint `json:"tenant_id,omitempty"`
	Days     int   `json:"days"`

	// Revenue counts paid orders only
	TotalRevenue     int64   `json:"total_revenue"`
	RevenueToday     int64   `json:"revenue_today"`
	RevenueThisMonth int64   `json:"revenue_this_month"`
	RevenueLastMonth int64   `json:"revenue_last_month"`
	RevenueGrowth    float64 `json:"revenue_growth"` // Percentage, month over month
	AvgOrderValue    int64   `json:"avg_order_value"`

	TotalOrders     int64                       `json:"total_orders"`
	OrdersToday     int64                       `json:"orders_today"`
	OrdersThisMonth int64                       `json:"orders_this_month"`
	OrdersByStatus  map[order.OrderStatus]int64 `json:"orders_by_status"`

	TotalProducts  int64 `json:"total_products"`
	ActiveProducts int64 `json:"active_products"`
	Customers      int64 `json:"customers"` // Distinct buyers in scope

	DailyRevenue []TimeSeriesData   `json:"daily_revenue"`
	TopProducts  []ProductSalesData `json:"top_products"`
	Tenants      []TenantSalesData  `json:"tenants,omitempty"`
}

// TimeSeriesData is one day of the revenue series
type TimeSeriesData struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
	Count int64  `json:"count"`
}

// ProductSalesData ranks a product by units sold
type ProductSalesData struct {
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int64  `json:"total_sold"`
	Revenue     int64  `json:"revenue"`
	OrderCount  int64  `json:"order_count"`
}

// TenantSalesData is one tenant's share of paid revenue
type TenantSalesData struct {
	TenantID   uint   `json:"tenant_id"`
	TenantName string `json:"tenant_name"`
	Revenue    int64  `json:"revenue"`
	OrderCount int64  `json:"order_count"`
}

// Dashboard computes the dashboard for tenantID, or for every tenant when it is nil
func (s *Service) Dashboard(ctx context.Context, tenantID *uint, req *DashboardRequest) (*Dashboard, error) {
	days := req.Days
	if days <= 0 {
		days = defaultDays
	}
	if days > maxDays {
		days = maxDays
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := thisMonth.AddDate(0, -1, 0)
	seriesStart := today.AddDate(0, 0, -(days - 1))

	orders := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&order.Order{})
		if tenantID != nil {
			q = q.Where("tenant_id = ?", *tenantID)
		}
		return q
	}
	paid := func() *gorm.DB {
		return orders().Where("payment_status = ?", order.PaymentStatusPaid)
	}

	d := &Dashboard{TenantID: tenantID, Days: days, OrdersByStatus: make(map[order.OrderStatus]int64)}
	for _, st := range order.OrderStatuses {
		d.OrdersByStatus[st] = 0
	}

	sums := []struct {
		into *int64
		q    *gorm.DB
	}{
		{&d.TotalRevenue, paid()},
		{&d.RevenueToday, paid().Where("created_at >= ?", today)},
		{&d.RevenueThisMonth, paid().Where("created_at >= ?", thisMonth)},
		{&d.RevenueLastMonth, paid().Where("created_at >= ? AND created_at < ?", lastMonth, thisMonth)},
	}
	for _, sum := range sums {
		if err := sum.q.Select("COALESCE(SUM(total_amount), 0)").Scan(sum.into).Error; err != nil {
			return nil, fmt.Errorf("failed to sum revenue: %w", err)
		}
	}
	if d.RevenueLastMonth > 0 {
		d.RevenueGrowth = float64(d.RevenueThisMonth-d.RevenueLastMonth) / float64(d.RevenueLastMonth) * 100
	}

	var paidCount int64
	if err := paid().Count(&paidCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count paid orders: %w", err)
	}
	if paidCount > 0 {
		d.AvgOrderValue = d.TotalRevenue / paidCount
	}

	var statusRows []struct {
		Status order.OrderStatus
		Count  int64
	}
	if err := orders().Select("status, COUNT(*) AS count").Group("status").Scan(&statusRows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, r := range statusRows {
		d.OrdersByStatus[r.Status] = r.Count
		d.TotalOrders += r.Count
	}

	if err := orders().Where("created_at >= ?", today).Count(&d.OrdersToday).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := orders().Where("created_at >= ?", thisMonth).Count(&d.OrdersThisMonth).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := orders().Distinct("user_id").Count(&d.Customers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	products := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&product.Product{})
		if tenantID != nil {
			q = q.Where("tenant_id = ?", *tenantID)
		}
		return q
	}
	if err := products().Count(&d.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := products().Where("is_active = ?", true).Count(&d.ActiveProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	series, err := s.dailyRevenue(paid().Where("created_at >= ?", seriesStart), seriesStart, days)
	if err != nil {
		return nil, err
	}
	d.DailyRevenue = series

	if d.TopProducts, err = s.topProducts(ctx, tenantID, seriesStart); err != nil {
		return nil, err
	}

	if tenantID == nil {
		if d.Tenants, err = s.tenantBreakdown(ctx, paid()); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// dailyRevenue buckets orders by calendar day in Go so the series has one entry per day,
// including days without sales.
func (s *Service) dailyRevenue(q *gorm.DB, start time.Time, days int) ([]TimeSeriesData, error) {
	var rows []struct {
		TotalAmount int64
		CreatedAt   time.Time
	}
	if err := q.Select("total_amount, created_at").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily revenue: %w", err)
	}

	series := make([]TimeSeriesData, days)
	index := make(map[string]int, days)
	for i := range series {
		date := start.AddDate(0, 0, i).Format(dayLayout)
		series[i].Date = date
		index[date] = i
	}

	for _, r := range rows {
		i, ok := index[r.CreatedAt.In(start.Location()).Format(dayLayout)]
		if !ok {
			continue
		}
		series[i].Value += r.TotalAmount
		series[i].Count++
	}
	return series, nil
}

func (s *Service) topProducts(ctx context.Context, tenantID *uint, since time.Time) ([]ProductSalesData, error) {
	q := s.db.WithContext(ctx).
		Table("order_items oi").
		Select(`oi.product_id AS product_id,
			MAX(oi.name) AS product_name,
			COALESCE(SUM(oi.quantity), 0) AS total_sold,
			COALESCE(SUM(oi.total_price), 0) AS revenue,
			COUNT(DISTINCT oi.order_id) AS order_count`).
		Joins("JOIN orders o ON o.id = oi.order_id AND o.deleted_at IS NULL").
		Where("o.payment_status = ? AND o.created_at >= ?", order.PaymentStatusPaid, since)
	if tenantID != nil {
		q = q.Where("o.tenant_id = ?", *tenantID)
	}

	products := make([]ProductSalesData, 0, topProductLimit)
	err := q.Group("oi.product_id").
		Order("total_sold DESC, revenue DESC, product_id ASC").
		Limit(topProductLimit).
		Scan(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank products: %w", err)
	}
	return products, nil
}

func (s *Service) tenantBreakdown(ctx context.Context, paid *gorm.DB) ([]TenantSalesData, error) {
	var rows []TenantSalesData
	err := paid.Select("tenant_id, COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS order_count").
		Group("tenant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to break down revenue by tenant: %w", err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.TenantID
	}
	names, err := s.tenants.Names(ctx, ids)
	if err != nil {
		s.logger.WithError(err).Warn("failed to load tenant names for dashboard")
	}
	for i := range rows {
		rows[i].TenantName = names[rows[i].TenantID]
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].TenantID < rows[j].TenantID
	})
	return rows, nil
}

// CustomerStats counts customer accounts. Only HQ sees these figures.
type CustomerStats struct {
	TotalCustomers  int64 `json:"total_customers"`
	ActiveCustomers int64 `json:"active_customers"`
	NewThisMonth    int64 `json:"new_this_month"`
	RepeatBuyers    int64 `json:"repeat_buyers"`
}

// Customers returns platform wide customer counts
func (s *Service) Customers(ctx context.Context) (*CustomerStats, error) {
	now := s.now()
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	customers := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&user.User{}).Where("role = ?", user.RoleCustomer)
	}

	stats := &CustomerStats{}
	if err := customers().Count(&stats.TotalCustomers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := customers().Where("is_active = ?", true).Count(&stats.ActiveCustomers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	if err := customers().Where("created_at >= ?", thisMonth).Count(&stats.NewThisMonth).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}

	repeat := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("user_id").
		Group("user_id").
		Having("COUNT(*) > 1")
	if err := s.db.WithContext(ctx).Table("(?) AS repeat_buyers", repeat).Count(&stats.RepeatBuyers).Error; err != nil {
		return nil, fmt.Errorf("failed to count repeat buyers: %w", err)
	}

	return stats, nil
}
