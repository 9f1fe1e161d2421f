package order

import (
	"bytes"
	"context"
	"encoding/csv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type fakeProducts struct {
	mu    sync.Mutex
	views map[uint]product.ProductView
}

func (f *fakeProducts) GetView(_ context.Context, id uint) (*product.ProductView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.views[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &v, nil
}

func (f *fakeProducts) GetViews(_ context.Context, ids []uint) (map[uint]product.ProductView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[uint]product.ProductView{}
	for _, id := range ids {
		if v, ok := f.views[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryKV) SetIfAbsent(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value
	return true, nil
}

func (m *memoryKV) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type fixture struct {
	svc      *Service
	carts    *cart.Service
	products *fakeProducts
	db       *gorm.DB
}

var checkoutTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := sqlitetest.New(t, &cart.CartItem{}, &Order{}, &OrderItem{}, &OrderStatusHistory{})
	log := logger.Discard()

	products := &fakeProducts{views: map[uint]product.ProductView{
		7:  {ID: 7, TenantID: 1, Name: "Linen Shirt", Price: 39000, IsActive: true},
		8:  {ID: 8, TenantID: 2, Name: "Wool Scarf", Price: 21000, IsActive: true},
		10: {ID: 10, TenantID: 2, Name: "Canvas Tote", Price: 25000, IsActive: true},
	}}
	carts := cart.NewService(cart.NewMemberStore(db), cart.NewGuestStore(&memoryKV{data: map[string]string{}}), products, log)

	cfg := &config.Config{Settlement: config.SettlementConfig{Currency: "KRW"}}
	svc := NewService(db, cfg, carts, products, log)
	svc.now = func() time.Time { return checkoutTime }

	return &fixture{svc: svc, carts: carts, products: products, db: db}
}

func (f *fixture) add(t *testing.T, userID, productID uint, quantity int) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), cart.Owner{UserID: &userID}, &cart.AddToCartRequest{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
}

var address = Address{Recipient: "Kim", Phone: "010-0000-0000", PostalCode: "04524", AddressLine1: "1 Sejong-daero"}

func (f *fixture) checkout(t *testing.T, userID uint) []Order {
	t.Helper()
	orders, err := f.svc.Checkout(context.Background(), userID, "buyer@example.com", &CheckoutRequest{
		ShippingAddress: address,
		PaymentMethod:   "credit_card",
		PaymentProvider: "toss_payments",
	})
	require.NoError(t, err)
	return orders
}

func TestService_CheckoutSplitsByTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uid := uint(1)

	f.add(t, uid, 7, 1)
	f.add(t, uid, 8, 2)
	f.add(t, uid, 10, 1)
	_, err := f.carts.Select(ctx, cart.Owner{UserID: &uid}, cart.NewKey(10, "", ""), false)
	require.NoError(t, err)

	orders := f.checkout(t, uid)
	require.Len(t, orders, 2)

	assert.Equal(t, uint(1), orders[0].TenantID)
	assert.Equal(t, int64(39000), orders[0].TotalAmount)
	assert.Equal(t, uint(2), orders[1].TenantID)
	assert.Equal(t, int64(42000), orders[1].TotalAmount)
	assert.Equal(t, "KRW", orders[1].Currency)
	assert.Regexp(t, `^ORD-20260310-[0-9A-F]{8}$`, orders[0].OrderNumber)
	assert.NotEqual(t, orders[0].OrderNumber, orders[1].OrderNumber)

	stored, err := f.svc.GetForUser(ctx, uid, orders[1].ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 2, stored.Items[0].Quantity)
	assert.Equal(t, OrderStatusPending, stored.Status)
	assert.Equal(t, PaymentStatusPending, stored.PaymentStatus)
	require.Len(t, stored.StatusHistory, 1)

	remaining := f.carts.Get(ctx, cart.Owner{UserID: &uid})
	require.Len(t, remaining.Items, 1)
	assert.Equal(t, uint(10), remaining.Items[0].ProductID)
}

func TestService_CheckoutRejectsEmptySelectionAndUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &CheckoutRequest{ShippingAddress: address, PaymentMethod: "kakao_pay"}

	_, err := f.svc.Checkout(ctx, 2, "b@example.com", req)
	assert.ErrorIs(t, err, ErrNoSelectedItems)

	f.add(t, 2, 7, 1)
	f.products.mu.Lock()
	v := f.products.views[7]
	v.IsActive = false
	f.products.views[7] = v
	f.products.mu.Unlock()

	_, err = f.svc.Checkout(ctx, 2, "b@example.com", req)
	assert.ErrorIs(t, err, ErrProductUnavailable)

	var count int64
	require.NoError(t, f.db.Model(&Order{}).Count(&count).Error)
	assert.Zero(t, count)
	uid := uint(2)
	assert.Len(t, f.carts.Get(ctx, cart.Owner{UserID: &uid}).Items, 1)
}

func TestService_UpdateStatusFollowsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, 3, 8, 1)
	o := f.checkout(t, 3)[0]

	otherTenant := uint(1)
	_, err := f.svc.UpdateStatus(ctx, &otherTenant, o.ID, &StatusUpdateRequest{Status: OrderStatusConfirmed}, 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.UpdateStatus(ctx, nil, o.ID, &StatusUpdateRequest{Status: OrderStatusDelivered}, 99)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	ownTenant := uint(2)
	confirmed, err := f.svc.UpdateStatus(ctx, &ownTenant, o.ID, &StatusUpdateRequest{Status: OrderStatusConfirmed, Comment: "paid by card"}, 99)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, confirmed.Status)
	assert.Equal(t, PaymentStatusPaid, confirmed.PaymentStatus)
	require.NotNil(t, confirmed.PaidAt)
	assert.Len(t, confirmed.StatusHistory, 2)

	_, err = f.svc.CancelForUser(ctx, 3, o.ID, "changed my mind")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, err := f.svc.UpdateStatus(ctx, nil, o.ID, &StatusUpdateRequest{Status: OrderStatusCancelled}, 99)
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, cancelled.PaymentStatus)
}

func TestService_CancelForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, 4, 7, 1)
	o := f.checkout(t, 4)[0]

	_, err := f.svc.CancelForUser(ctx, 5, o.ID, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	cancelled, err := f.svc.CancelForUser(ctx, 4, o.ID, "wrong size")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, PaymentStatusCancelled, cancelled.PaymentStatus)
	assert.Equal(t, "Cancelled by customer: wrong size", cancelled.StatusHistory[0].Comment)
}

func TestService_ListFiltersAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, 6, 7, 1)
	f.add(t, 6, 8, 1)
	orders := f.checkout(t, 6)
	_, err := f.svc.UpdateStatus(ctx, nil, orders[1].ID, &StatusUpdateRequest{Status: OrderStatusConfirmed}, 1)
	require.NoError(t, err)

	tenant := uint(2)
	resp, err := f.svc.List(ctx, &OrderListRequest{TenantID: &tenant})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, int64(1), resp.Pagination.Total)
	assert.Equal(t, 20, resp.Pagination.Limit)

	resp, err = f.svc.List(ctx, &OrderListRequest{DateFrom: "2026-03-10", DateTo: "2026-03-10"})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 2)

	resp, err = f.svc.List(ctx, &OrderListRequest{DateFrom: "2026-03-11"})
	require.NoError(t, err)
	assert.Empty(t, resp.Orders)

	_, err = f.svc.List(ctx, &OrderListRequest{DateFrom: "10/03/2026"})
	assert.Error(t, err)
	_, err = f.svc.List(ctx, &OrderListRequest{DateFrom: "2026-03-11", DateTo: "2026-03-10"})
	assert.Error(t, err)

	mine, err := f.svc.ListForUser(ctx, 6, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine.Orders, 2)

	stats, err := f.svc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PaidOrders)
	assert.Equal(t, int64(21000), stats.TotalRevenue)
	assert.Equal(t, int64(1), stats.PendingPayment)
	assert.Equal(t, int64(1), stats.StatusCounts[OrderStatusConfirmed])
	assert.Equal(t, int64(0), stats.StatusCounts[OrderStatusShipped])

	own, err := f.svc.Stats(ctx, &tenant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), own.TotalOrders)
}

func TestService_SettlementOrdersSkipCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, 7, 7, 1)
	first := f.checkout(t, 7)[0]
	f.add(t, 7, 8, 1)
	f.checkout(t, 7)

	_, err := f.svc.CancelForUser(ctx, 7, first.ID, "")
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	orders, err := f.svc.SettlementOrders(ctx, nil, day, day)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, uint(2), orders[0].TenantID)

	orders, err = f.svc.SettlementOrders(ctx, nil, day.AddDate(0, 0, 1), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Order{{
		OrderNumber:     "ORD-20260310-ABCDEF12",
		TenantID:        2,
		UserID:          6,
		Email:           "buyer@example.com",
		Status:          OrderStatusConfirmed,
		PaymentStatus:   PaymentStatusPaid,
		PaymentMethod:   "credit_card",
		PaymentProvider: "toss_payments",
		TotalAmount:     42000,
		Currency:        "KRW",
		Items:           []OrderItem{{Quantity: 2}, {Quantity: 1}},
		CreatedAt:       checkoutTime,
	}})
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, CSVHeader, records[0])
	assert.Equal(t, []string{
		"ORD-20260310-ABCDEF12", "2", "6", "buyer@example.com", "confirmed", "paid",
		"credit_card", "toss_payments", "3", "42000", "KRW", "2026-03-10T12:00:00Z",
	}, records[1])
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusConfirmed))
	assert.True(t, CanTransition(OrderStatusDelivered, OrderStatusRefunded))
	assert.False(t, CanTransition(OrderStatusCompleted, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
}
