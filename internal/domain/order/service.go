// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound is returned when an order is missing or outside the caller's scope
	ErrOrderNotFound = errors.New("order not found")
	// ErrNoSelectedItems is returned by checkout when nothing in the cart is selected
	ErrNoSelectedItems = errors.New("no cart items selected for checkout")
	// ErrProductUnavailable is returned by checkout when a selected product can no longer be sold
	ErrProductUnavailable = errors.New("product is no longer available")
	// ErrInvalidTransition is returned for a status change the lifecycle does not allow
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidDateRange is returned for malformed or inverted date filters
	ErrInvalidDateRange = errors.New("invalid date range")
)

const dateLayout = "2006-01-02"

// CartSource supplies the selected member cart lines and drops them once ordered
type CartSource interface {
	SelectedItems(ctx context.Context, userID uint) ([]cart.Item, error)
	RemoveKeys(ctx context.Context, owner cart.Owner, keys []cart.Key, strict bool) (*cart.Cart, error)
}

// ProductLookup checks products at checkout
type ProductLookup interface {
	GetViews(ctx context.Context, ids []uint) (map[uint]product.ProductView, error)
}

// Service handles order business logic
type Service struct {
	db       *gorm.DB
	config   *config.Config
	carts    CartSource
	products ProductLookup
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, carts CartSource, products ProductLookup, logger logrus.FieldLogger) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		carts:    carts,
		products: products,
		logger:   logger.WithField("component", "order"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CheckoutRequest represents order creation data
type CheckoutRequest struct {
	ShippingAddress Address `json:"shipping_address" binding:"required"`
	PaymentMethod   string  `json:"payment_method" binding:"required"`
	PaymentProvider string  `json:"payment_provider"`
	Notes           string  `json:"notes,omitempty"`
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	Status        OrderStatus   `form:"status"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	TenantID      *uint         `form:"tenant_id"`
	UserID        *uint         `form:"user_id"`
	SortBy        string        `form:"sort_by,default=created_at"`
	SortOrder     string        `form:"sort_order,default=desc"`
	DateFrom      string        `form:"date_from"`
	DateTo        string        `form:"date_to"`
}

// StatusUpdateRequest changes an order's status
type StatusUpdateRequest struct {
	Status  OrderStatus `json:"status" binding:"required"`
	Comment string      `json:"comment"`
}

// CancelRequest carries the buyer's reason
type CancelRequest struct {
	Reason string `json:"reason"`
}

// OrderResponse represents order response with pagination
type OrderResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// OrderStats summarises orders for a dashboard
type OrderStats struct {
	TotalOrders    int64                 `json:"total_orders"`
	PaidOrders     int64                 `json:"paid_orders"`
	TotalRevenue   int64                 `json:"total_revenue"`
	AverageOrder   int64                 `json:"average_order"`
	StatusCounts   map[OrderStatus]int64 `json:"status_counts"`
	PendingPayment int64                 `json:"pending_payment"`
}

// Checkout turns the member's selected cart lines into orders, one per tenant, created in
// a single transaction. Purchased lines are removed from the cart afterwards.
func (s *Service) Checkout(ctx context.Context, userID uint, email string, req *CheckoutRequest) ([]Order, error) {
	items, err := s.carts.SelectedItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoSelectedItems
	}

	if err := s.validateItems(ctx, items); err != nil {
		return nil, err
	}

	byTenant := make(map[uint][]cart.Item)
	for _, it := range items {
		byTenant[it.TenantID] = append(byTenant[it.TenantID], it)
	}
	tenantIDs := make([]uint, 0, len(byTenant))
	for id := range byTenant {
		tenantIDs = append(tenantIDs, id)
	}
	sort.Slice(tenantIDs, func(i, j int) bool { return tenantIDs[i] < tenantIDs[j] })

	now := s.now()
	orders := make([]Order, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		orders = append(orders, s.buildOrder(userID, email, tenantID, byTenant[tenantID], req, now))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range orders {
			if err := tx.Create(&orders[i]).Error; err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := make([]cart.Key, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key())
	}
	if _, err := s.carts.RemoveKeys(ctx, cart.Owner{UserID: &userID}, keys, false); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("orders placed but purchased items could not be removed from cart")
	}

	numbers := make([]string, 0, len(orders))
	for _, o := range orders {
		numbers = append(numbers, o.OrderNumber)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "orders": numbers}).Info("checkout completed")

	return orders, nil
}

func (s *Service) validateItems(ctx context.Context, items []cart.Item) error {
	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	views, err := s.products.GetViews(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to verify products: %w", err)
	}
	for _, it := range items {
		view, ok := views[it.ProductID]
		if !ok || !view.IsActive {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, it.Name)
		}
	}
	return nil
}

func (s *Service) buildOrder(userID uint, email string, tenantID uint, items []cart.Item, req *CheckoutRequest, now time.Time) Order {
	o := Order{
		OrderNumber:     GenerateOrderNumber(now),
		TenantID:        tenantID,
		UserID:          userID,
		Email:           email,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentProvider: req.PaymentProvider,
		Currency:        s.config.Settlement.Currency,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusHistory: []OrderStatusHistory{{
			Status:    OrderStatusPending,
			Comment:   "Order placed",
			CreatedBy: userID,
			CreatedAt: now,
		}},
	}

	for _, it := range items {
		total := it.Price * int64(it.Quantity)
		o.Items = append(o.Items, OrderItem{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Brand:      it.Brand,
			Image:      it.Image,
			Size:       it.Size,
			Color:      it.Color,
			Quantity:   it.Quantity,
			Price:      it.Price,
			TotalPrice: total,
			CreatedAt:  now,
		})
		o.SubtotalAmount += total
	}
	o.TotalAmount = o.SubtotalAmount + o.ShippingAmount
	return o
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	normalizePage(&req.Page, &req.Limit)

	query, err := s.filtered(ctx, req)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := make([]Order, 0)
	err = query.Preload("Items").
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &OrderResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// SettlementOrders returns the orders of a period that produce settlement records.
// Both dates are inclusive calendar days; a nil tenant means every tenant.
func (s *Service) SettlementOrders(ctx context.Context, tenantID *uint, from, to time.Time) ([]Order, error) {
	query := s.db.WithContext(ctx).Model(&Order{}).
		Where("status NOT IN ?", []OrderStatus{OrderStatusCancelled, OrderStatusRefunded})
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	orders := make([]Order, 0)
	if err := query.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load orders for settlement: %w", err)
	}
	return orders, nil
}

// Get retrieves a single order. A non-nil tenantID restricts the lookup to that tenant.
func (s *Service) Get(ctx context.Context, tenantID *uint, id uint) (*Order, error) {
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}
	return s.first(query)
}

// GetForUser retrieves one of the buyer's own orders
func (s *Service) GetForUser(ctx context.Context, userID, id uint) (*Order, error) {
	return s.first(s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID))
}

// ListForUser retrieves the buyer's orders, newest first
func (s *Service) ListForUser(ctx context.Context, userID uint, page, limit int) (*OrderResponse, error) {
	return s.List(ctx, &OrderListRequest{
		Page:      page,
		Limit:     limit,
		UserID:    &userID,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
}

// UpdateStatus moves an order along its lifecycle. Confirming an order marks its payment
// paid; cancelling or refunding settles the payment status accordingly.
func (s *Service) UpdateStatus(ctx context.Context, tenantID *uint, id uint, req *StatusUpdateRequest, updatedBy uint) (*Order, error) {
	o, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, o, req.Status, req.Comment, updatedBy); err != nil {
		return nil, err
	}
	return s.Get(ctx, tenantID, id)
}

// CancelForUser lets the buyer cancel an order that has not been confirmed yet
func (s *Service) CancelForUser(ctx context.Context, userID, id uint, reason string) (*Order, error) {
	o, err := s.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !o.CanBeCancelledByCustomer() {
		return nil, fmt.Errorf("%w: order cannot be cancelled in status %s", ErrInvalidTransition, o.Status)
	}

	comment := "Cancelled by customer"
	if reason != "" {
		comment = fmt.Sprintf("Cancelled by customer: %s", reason)
	}
	if err := s.transition(ctx, o, OrderStatusCancelled, comment, userID); err != nil {
		return nil, err
	}
	return s.GetForUser(ctx, userID, id)
}

func (s *Service) transition(ctx context.Context, o *Order, status OrderStatus, comment string, by uint) error {
	if !CanTransition(o.Status, status) {
		return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, o.Status, status)
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}

	switch status {
	case OrderStatusConfirmed:
		updates["payment_status"] = PaymentStatusPaid
		updates["paid_at"] = now
	case OrderStatusShipped:
		updates["shipped_at"] = now
	case OrderStatusDelivered:
		updates["delivered_at"] = now
	case OrderStatusCancelled:
		if o.IsPaid() {
			updates["payment_status"] = PaymentStatusRefunded
		} else {
			updates["payment_status"] = PaymentStatusCancelled
		}
	case OrderStatusRefunded:
		updates["payment_status"] = PaymentStatusRefunded
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Order{}).Where("id = ?", o.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		history := OrderStatusHistory{
			OrderID:   o.ID,
			Status:    status,
			Comment:   comment,
			CreatedBy: by,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"order_id": o.ID,
			"from":     o.Status,
			"to":       status,
		}).Info("order status changed")
		return nil
	})
}

// Stats summarises orders, optionally for a single tenant
func (s *Service) Stats(ctx context.Context, tenantID *uint) (*OrderStats, error) {
	scoped := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&Order{})
		if tenantID != nil {
			q = q.Where("tenant_id = ?", *tenantID)
		}
		return q
	}

	stats := &OrderStats{StatusCounts: make(map[OrderStatus]int64, len(OrderStatuses))}
	for _, st := range OrderStatuses {
		stats.StatusCounts[st] = 0
	}

	var rows []struct {
		Status OrderStatus
		Count  int64
	}
	if err := scoped().Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	for _, r := range rows {
		stats.StatusCounts[r.Status] = r.Count
		stats.TotalOrders += r.Count
	}

	var paid struct {
		Count   int64
		Revenue int64
	}
	err := scoped().
		Select("COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("payment_status = ?", PaymentStatusPaid).
		Scan(&paid).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.PaidOrders = paid.Count
	stats.TotalRevenue = paid.Revenue
	if paid.Count > 0 {
		stats.AverageOrder = paid.Revenue / paid.Count
	}

	if err := scoped().Where("payment_status = ?", PaymentStatusPending).Count(&stats.PendingPayment).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending payments: %w", err)
	}

	return stats, nil
}

func (s *Service) filtered(ctx context.Context, req *OrderListRequest) (*gorm.DB, error) {
	query := s.db.WithContext(ctx).Model(&Order{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.TenantID != nil {
		query = query.Where("tenant_id = ?", *req.TenantID)
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}

	from, to, err := ParseDateRange(req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() {
		query = query.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	return query, nil
}

func (s *Service) first(query *gorm.DB) (*Order, error) {
	var o Order
	err := query.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// ParseDateRange parses optional YYYY-MM-DD bounds. Empty strings give zero times.
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if from != "" {
		if start, err = time.ParseInLocation(dateLayout, from, time.UTC); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: date_from %q, expected YYYY-MM-DD", ErrInvalidDateRange, from)
		}
	}
	if to != "" {
		if end, err = time.ParseInLocation(dateLayout, to, time.UTC); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: date_to %q, expected YYYY-MM-DD", ErrInvalidDateRange, to)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: date_to must not be before date_from", ErrInvalidDateRange)
	}
	return start, end, nil
}

func normalizePage(page, limit *int) {
	if *page < 1 {
		*page = 1
	}
	if *limit < 1 || *limit > 100 {
		*limit = 20
	}
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id %s", sortBy, sortOrder, sortOrder)
}
