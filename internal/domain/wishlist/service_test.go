package wishlist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

type fakeProducts struct {
	views map[uint]product.ProductView
	fail  error
}

func (f *fakeProducts) GetView(_ context.Context, id uint) (*product.ProductView, error) {
	v, ok := f.views[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &v, nil
}

func (f *fakeProducts) GetViews(_ context.Context, ids []uint) (map[uint]product.ProductView, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	out := map[uint]product.ProductView{}
	for _, id := range ids {
		if v, ok := f.views[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type recordingCart struct {
	mu    sync.Mutex
	added []cart.AddToCartRequest
	fail  error
}

func (r *recordingCart) Add(_ context.Context, owner cart.Owner, req *cart.AddToCartRequest) (*cart.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	r.added = append(r.added, *req)
	return &cart.Cart{UserID: owner.UserID, Items: []cart.CartLine{}}, nil
}

func newTestService(t *testing.T) (*Service, *fakeProducts, *recordingCart) {
	t.Helper()
	products := &fakeProducts{views: map[uint]product.ProductView{
		1: {ID: 1, Name: "Linen Shirt", IsActive: true},
		2: {ID: 2, Name: "Wool Scarf", IsActive: false},
	}}
	carts := &recordingCart{}
	db := sqlitetest.New(t, &WishlistItem{})
	return NewService(db, products, carts, logger.Discard()), products, carts
}

func TestService_AddIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, 5, 1))
	require.NoError(t, svc.Add(ctx, 5, 1))
	require.NoError(t, svc.Add(ctx, 5, 2))
	assert.Equal(t, int64(2), svc.Count(ctx, 5))

	assert.ErrorIs(t, svc.Add(ctx, 5, 404), product.ErrProductNotFound)

	entries := svc.List(ctx, 5)
	require.Len(t, entries, 2)
	available := map[string]bool{}
	for _, e := range entries {
		available[e.Name] = e.IsAvailable
	}
	assert.Equal(t, map[string]bool{"Linen Shirt": true, "Wool Scarf": false}, available)

	assert.Empty(t, svc.List(ctx, 6))
}

func TestService_Toggle(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Toggle(ctx, 5, 1)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = svc.Toggle(ctx, 5, 1)
	require.NoError(t, err)
	assert.False(t, saved)

	ok, err := svc.Contains(ctx, 5, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_ListDegradesWhenProductsUnavailable(t *testing.T) {
	svc, products, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, 5, 1))
	products.fail = errors.New("timeout")

	entries := svc.List(ctx, 5)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestService_MoveToCart(t *testing.T) {
	svc, _, carts := newTestService(t)
	ctx := context.Background()

	_, err := svc.MoveToCart(ctx, 5, 1, &MoveToCartRequest{})
	assert.ErrorIs(t, err, ErrNotInWishlist)

	require.NoError(t, svc.Add(ctx, 5, 1))

	carts.fail = errors.New("cart store down")
	_, err = svc.MoveToCart(ctx, 5, 1, &MoveToCartRequest{Size: "M"})
	require.Error(t, err)
	still, err := svc.Contains(ctx, 5, 1)
	require.NoError(t, err)
	assert.True(t, still)

	carts.fail = nil
	_, err = svc.MoveToCart(ctx, 5, 1, &MoveToCartRequest{Size: "M"})
	require.NoError(t, err)
	require.Len(t, carts.added, 1)
	assert.Equal(t, cart.AddToCartRequest{ProductID: 1, Size: "M", Quantity: 1}, carts.added[0])

	still, err = svc.Contains(ctx, 5, 1)
	require.NoError(t, err)
	assert.False(t, still)
}
