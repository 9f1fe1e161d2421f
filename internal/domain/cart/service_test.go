package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/product"
	rediscache "github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type fakeProducts map[uint]product.ProductView

func (f fakeProducts) GetView(_ context.Context, id uint) (*product.ProductView, error) {
	v, ok := f[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &v, nil
}

var catalog = fakeProducts{
	7:  {ID: 7, TenantID: 1, Name: "Linen Shirt", Brand: "Marin", Price: 39000, ImageURL: "https://cdn/7.jpg", IsActive: true},
	8:  {ID: 8, TenantID: 2, Name: "Wool Scarf", Brand: "Harbor", Price: 21000, ImageURL: "https://cdn/8.jpg", IsActive: true},
	9:  {ID: 9, TenantID: 2, Name: "Retired Cap", Brand: "Harbor", Price: 9000, IsActive: false},
	99: {ID: 99, TenantID: 2, Name: "Cursed Socks", Brand: "Harbor", Price: 3000, IsActive: true},
}

// flakyMembers fails selected operations of the wrapped store
type flakyMembers struct {
	MemberRepository
	mu        sync.Mutex
	failWrite error
	failMerge error
	merges    int
}

func (f *flakyMembers) Upsert(ctx context.Context, userID uint, l Line) error {
	f.mu.Lock()
	err := f.failWrite
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemberRepository.Upsert(ctx, userID, l)
}

func (f *flakyMembers) SetQuantity(ctx context.Context, userID uint, key Key, quantity int) error {
	f.mu.Lock()
	err := f.failWrite
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemberRepository.SetQuantity(ctx, userID, key, quantity)
}

func (f *flakyMembers) MergeBatch(ctx context.Context, userID uint, lines []Line) error {
	f.mu.Lock()
	f.merges++
	err := f.failMerge
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemberRepository.MergeBatch(ctx, userID, lines)
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}
func (brokenKV) Set(context.Context, string, string) error { return errors.New("connection refused") }
func (brokenKV) Remove(context.Context, ...string) error   { return errors.New("connection refused") }
func (brokenKV) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

type harness struct {
	svc     *Service
	db      *gorm.DB
	members *flakyMembers
	mr      *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := sqlitetest.New(t, &CartItem{})

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	members := &flakyMembers{MemberRepository: NewMemberStore(db)}
	guests := NewGuestStore(rediscache.NewClient(rdb, time.Hour))
	return &harness{
		svc:     NewService(members, guests, catalog, logger.Discard()),
		db:      db,
		members: members,
		mr:      mr,
	}
}

func member(id uint) Owner { return Owner{UserID: &id} }

func guest(sid string) Owner { return Owner{SessionID: sid} }

func quantities(c *Cart) map[string]int {
	out := map[string]int{}
	for _, l := range c.Items {
		out[l.ID] = l.Quantity
	}
	return out
}

func TestService_GuestAddIsAdditiveAndPersisted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	g := guest("sess-1")

	_, err := h.svc.Add(ctx, g, &AddToCartRequest{ProductID: 7, Size: "M", Quantity: 1})
	require.NoError(t, err)
	cart, err := h.svc.Add(ctx, g, &AddToCartRequest{ProductID: 7, Size: "M", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"7:M:no-color": 3}, quantities(cart))
	assert.Equal(t, "Linen Shirt", cart.Items[0].Name)
	assert.Equal(t, "https://cdn/7.jpg", cart.Items[0].Image)
	assert.True(t, cart.Items[0].Selected)

	assert.True(t, h.mr.Exists("cart:guest:sess-1"))
	assert.Equal(t, time.Hour, h.mr.TTL("cart:guest:sess-1"))
	assert.Equal(t, 3, h.svc.Count(ctx, g))
}

func TestService_AddRejectsUnknownAndInactiveProducts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, guest("s"), &AddToCartRequest{ProductID: 404, Quantity: 1})
	assert.ErrorIs(t, err, product.ErrProductNotFound)

	_, err = h.svc.Add(ctx, member(1), &AddToCartRequest{ProductID: 9, Quantity: 1})
	assert.ErrorIs(t, err, product.ErrProductInactive)

	_, err = h.svc.Add(ctx, member(1), &AddToCartRequest{ProductID: 7, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = h.svc.Add(ctx, guest(""), &AddToCartRequest{ProductID: 7, Quantity: 1})
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestService_MemberMutationsAreWriteThrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := member(42)

	cart, err := h.svc.Add(ctx, m, &AddToCartRequest{ProductID: 8, Color: "grey", Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"8:no-size:grey": 2}, quantities(cart))

	h.members.failWrite = errors.New("backend down")
	_, err = h.svc.Add(ctx, m, &AddToCartRequest{ProductID: 8, Color: "grey", Quantity: 5})
	require.Error(t, err)
	_, err = h.svc.SetQuantity(ctx, m, NewKey(8, "", "grey"), 9)
	require.Error(t, err)

	h.members.failWrite = nil
	assert.Equal(t, map[string]int{"8:no-size:grey": 2}, quantities(h.svc.Get(ctx, m)))

	var stored CartItem
	require.NoError(t, h.db.Where("user_id = ?", 42).First(&stored).Error)
	assert.Equal(t, 2, stored.Quantity)
}

func TestService_QuantityStepsAndRemoval(t *testing.T) {
	for name, owner := range map[string]Owner{"guest": guest("steps"), "member": member(5)} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			key := NewKey(7, "S", "")

			_, err := h.svc.Add(ctx, owner, &AddToCartRequest{ProductID: 7, Size: "S", Quantity: 1})
			require.NoError(t, err)

			cart, err := h.svc.Increment(ctx, owner, key)
			require.NoError(t, err)
			assert.Equal(t, 2, cart.Totals.TotalQuantity)

			cart, err = h.svc.Decrement(ctx, owner, key)
			require.NoError(t, err)
			assert.Equal(t, 1, cart.Totals.TotalQuantity)

			cart, err = h.svc.Decrement(ctx, owner, key)
			require.NoError(t, err)
			assert.Empty(t, cart.Items)

			_, err = h.svc.SetQuantity(ctx, owner, key, 3)
			assert.ErrorIs(t, err, ErrItemNotFound)
			_, err = h.svc.Increment(ctx, owner, key)
			assert.ErrorIs(t, err, ErrItemNotFound)
			_, err = h.svc.Remove(ctx, owner, key)
			assert.ErrorIs(t, err, ErrItemNotFound)
			_, err = h.svc.SetQuantity(ctx, owner, key, -1)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		})
	}
}

func TestService_SelectionNeverDangles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	g := guest("sel")

	_, err := h.svc.Add(ctx, g, &AddToCartRequest{ProductID: 7, Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, g, &AddToCartRequest{ProductID: 8, Quantity: 1})
	require.NoError(t, err)

	cart, err := h.svc.SelectAll(ctx, g, false)
	require.NoError(t, err)
	assert.Zero(t, cart.Totals.SelectedCount)

	cart, err = h.svc.Select(ctx, g, NewKey(8, "", ""), true)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Totals.SelectedCount)
	assert.Equal(t, int64(21000), cart.Totals.SelectedAmount)

	raw, err := h.mr.Get("cart:guest:sel:selected")
	require.NoError(t, err)
	assert.JSONEq(t, `["8:no-size:no-color"]`, raw)

	_, err = h.svc.Remove(ctx, g, NewKey(8, "", ""))
	require.NoError(t, err)
	raw, err = h.mr.Get("cart:guest:sel:selected")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, raw)

	_, err = h.svc.Select(ctx, g, NewKey(8, "", ""), true)
	assert.ErrorIs(t, err, ErrItemNotFound)

	require.NoError(t, h.svc.Clear(ctx, g))
	assert.False(t, h.mr.Exists("cart:guest:sel"))
	assert.False(t, h.mr.Exists("cart:guest:sel:selected"))
}

func TestService_MemberSelectionAndSelectedItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	m := member(3)

	_, err := h.svc.Add(ctx, m, &AddToCartRequest{ProductID: 7, Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, m, &AddToCartRequest{ProductID: 8, Quantity: 2})
	require.NoError(t, err)
	_, err = h.svc.Select(ctx, m, NewKey(7, "", ""), false)
	require.NoError(t, err)

	items, err := h.svc.SelectedItems(ctx, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint(8), items[0].ProductID)
	assert.Equal(t, uint(2), items[0].TenantID)

	cart, err := h.svc.RemoveKeys(ctx, m, []Key{NewKey(8, "", ""), NewKey(55, "", "")}, false)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestService_MergeSumsCollidingKeys(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, guest("g1"), &AddToCartRequest{ProductID: 7, Size: "M", Quantity: 2})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, member(10), &AddToCartRequest{ProductID: 7, Size: "M", Quantity: 3})
	require.NoError(t, err)

	cart, err := h.svc.Merge(ctx, 10, "g1")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"7:M:no-color": 5}, quantities(cart))
	assert.False(t, h.mr.Exists("cart:guest:g1"))
	assert.False(t, h.mr.Exists("cart:guest:g1:selected"))
}

func TestService_MergeKeepsDistinctVariantsApart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, guest("g2"), &AddToCartRequest{ProductID: 7, Size: "M", Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, member(11), &AddToCartRequest{ProductID: 7, Size: "L", Quantity: 1})
	require.NoError(t, err)

	cart, err := h.svc.Merge(ctx, 11, "g2")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"7:M:no-color": 1, "7:L:no-color": 1}, quantities(cart))
}

func TestService_MergeCarriesGuestSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, member(12), &AddToCartRequest{ProductID: 8, Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.SelectAll(ctx, member(12), false)
	require.NoError(t, err)

	_, err = h.svc.Add(ctx, guest("g3"), &AddToCartRequest{ProductID: 8, Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, guest("g3"), &AddToCartRequest{ProductID: 7, Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.Select(ctx, guest("g3"), NewKey(7, "", ""), false)
	require.NoError(t, err)

	cart, err := h.svc.Merge(ctx, 12, "g3")
	require.NoError(t, err)

	selected := map[string]bool{}
	for _, l := range cart.Items {
		selected[l.ID] = l.Selected
	}
	assert.Equal(t, map[string]bool{"8:no-size:no-color": true, "7:no-size:no-color": false}, selected)
}

func TestService_MergeFailureLeavesGuestCartUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, guest("g4"), &AddToCartRequest{ProductID: 7, Quantity: 2})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, guest("g4"), &AddToCartRequest{ProductID: 8, Size: "M", Quantity: 1})
	require.NoError(t, err)

	itemsBefore, err := h.mr.Get("cart:guest:g4")
	require.NoError(t, err)
	selBefore, err := h.mr.Get("cart:guest:g4:selected")
	require.NoError(t, err)

	h.members.failMerge = errors.New("network dropped")
	_, err = h.svc.Merge(ctx, 20, "g4")
	require.Error(t, err)

	itemsAfter, err := h.mr.Get("cart:guest:g4")
	require.NoError(t, err)
	selAfter, err := h.mr.Get("cart:guest:g4:selected")
	require.NoError(t, err)
	assert.Equal(t, itemsBefore, itemsAfter)
	assert.Equal(t, selBefore, selAfter)
	assert.Len(t, h.svc.Get(ctx, guest("g4")).Items, 2)

	// retrying after the backend recovers applies the batch exactly once
	h.members.failMerge = nil
	cart, err := h.svc.Merge(ctx, 20, "g4")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7:no-size:no-color": 2, "8:M:no-color": 1}, quantities(cart))
	assert.Equal(t, 2, h.members.merges)
}

func TestService_MergeFailingMidBatchRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, member(30), &AddToCartRequest{ProductID: 7, Quantity: 1})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, guest("g5"), &AddToCartRequest{ProductID: 7, Quantity: 4})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, guest("g5"), &AddToCartRequest{ProductID: 99, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, h.db.Callback().Create().Before("gorm:create").Register("test:fail_product_99", func(tx *gorm.DB) {
		if row, ok := tx.Statement.Dest.(*CartItem); ok && row.ProductID == 99 {
			_ = tx.AddError(errors.New("constraint violated"))
		}
	}))

	_, err = h.svc.Merge(ctx, 30, "g5")
	require.Error(t, err)

	assert.Equal(t, map[string]int{"7:no-size:no-color": 1}, quantities(h.svc.Get(ctx, member(30))))
	assert.Len(t, h.svc.Get(ctx, guest("g5")).Items, 2)
}

func TestService_MergeRefusesWhileSessionIsClaimed(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, guest("g6"), &AddToCartRequest{ProductID: 7, Quantity: 2})
	require.NoError(t, err)
	require.NoError(t, h.mr.Set("cart:guest:g6:merging", "1"))

	_, err = h.svc.Merge(ctx, 60, "g6")
	require.ErrorIs(t, err, ErrMergeInProgress)
	assert.Empty(t, h.svc.Get(ctx, member(60)).Items)
	assert.Len(t, h.svc.Get(ctx, guest("g6")).Items, 1)
	assert.True(t, h.mr.Exists("cart:guest:g6:merging"), "a refused merge must not release another's claim")

	h.mr.Del("cart:guest:g6:merging")
	cart, err := h.svc.Merge(ctx, 60, "g6")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"7:no-size:no-color": 2}, quantities(cart))
	assert.False(t, h.mr.Exists("cart:guest:g6:merging"))
}

func TestService_ConcurrentMergesOfOneSessionCountOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, guest("g7"), &AddToCartRequest{ProductID: 7, Quantity: 2})
	require.NoError(t, err)
	_, err = h.svc.Add(ctx, guest("g7"), &AddToCartRequest{ProductID: 8, Size: "M", Quantity: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Merge(ctx, 70, "g7")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrMergeInProgress)
		}
	}
	assert.Equal(t, map[string]int{"7:no-size:no-color": 2, "8:M:no-color": 1}, quantities(h.svc.Get(ctx, member(70))))
	assert.Empty(t, h.svc.Get(ctx, guest("g7")).Items)
	assert.Equal(t, 1, h.members.merges)
}

func TestService_MergeWithEmptyGuestCartIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Add(ctx, member(40), &AddToCartRequest{ProductID: 8, Quantity: 1})
	require.NoError(t, err)

	cart, err := h.svc.Merge(ctx, 40, "never-used")
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Zero(t, h.members.merges)
}

func TestService_GetDegradesToEmptyCart(t *testing.T) {
	svc := NewService(NewMemberStore(sqlitetest.New(t, &CartItem{})), NewGuestStore(brokenKV{}), catalog, logger.Discard())
	ctx := context.Background()

	cart := svc.Get(ctx, guest("any"))
	assert.Empty(t, cart.Items)
	assert.Zero(t, svc.Count(ctx, guest("any")))

	_, err := svc.Add(ctx, guest("any"), &AddToCartRequest{ProductID: 7, Quantity: 1})
	assert.Error(t, err)

	_, err = svc.Merge(ctx, 1, "any")
	assert.Error(t, err)
}
