package product

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

func seedCategoryTree(t *testing.T, db *gorm.DB) []Category {
	t.Helper()
	cats := DefaultCategories()
	require.NoError(t, db.Create(&cats).Error)
	return cats
}

func TestResolvers_AgreeOnFixtureTree(t *testing.T) {
	db := sqlitetest.New(t, &Category{})
	cats := seedCategoryTree(t, db)
	ctx := context.Background()

	recursive := NewRecursiveResolver(db)
	traversal := NewTraversalResolver(db)

	for _, c := range cats {
		if c.Level == LevelLeaf {
			continue
		}
		fromQuery, err := recursive.ResolveDescendantIDs(ctx, c.ID)
		require.NoError(t, err)
		fromWalk, err := traversal.ResolveDescendantIDs(ctx, c.ID)
		require.NoError(t, err)

		assert.Equal(t, fromQuery.Slice(), fromWalk.Slice(), "category %d (%s)", c.ID, c.Slug)
		assert.NotEmpty(t, fromQuery.Slice(), "category %d should have descendants", c.ID)
	}
}

func TestResolvers_KnownClosures(t *testing.T) {
	db := sqlitetest.New(t, &Category{})
	seedCategoryTree(t, db)
	ctx := context.Background()

	tests := []struct {
		name     string
		parentID uint
		want     []uint
	}{
		{name: "women", parentID: 1, want: []uint{4, 5, 10, 11, 12, 13}},
		{name: "accessories", parentID: 3, want: []uint{8, 9, 17, 18, 19}},
		{name: "men tops", parentID: 6, want: []uint{14, 15}},
		{name: "leaf", parentID: 19, want: []uint{}},
		{name: "unknown", parentID: 999, want: []uint{}},
	}

	resolvers := map[string]DescendantResolver{
		"recursive": NewRecursiveResolver(db),
		"traversal": NewTraversalResolver(db),
	}

	for rname, r := range resolvers {
		for _, tt := range tests {
			t.Run(rname+"/"+tt.name, func(t *testing.T) {
				got, err := r.ResolveDescendantIDs(ctx, tt.parentID)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got.Slice())
			})
		}
	}
}

func TestResolvers_TerminateOnDeepAndCyclicTrees(t *testing.T) {
	db := sqlitetest.New(t, &Category{})
	seedCategoryTree(t, db)
	ctx := context.Background()

	extra := []Category{
		// below a leaf, deeper than the nominal three levels
		{ID: 40, Name: "Deep", Slug: "deep", Level: 4, ParentID: uintPtr(19), IsActive: true},
		{ID: 41, Name: "Deeper", Slug: "deeper", Level: 5, ParentID: uintPtr(40), IsActive: true},
		// a two node loop
		{ID: 50, Name: "Loop A", Slug: "loop-a", Level: 1, ParentID: uintPtr(51), IsActive: true},
		{ID: 51, Name: "Loop B", Slug: "loop-b", Level: 2, ParentID: uintPtr(50), IsActive: true},
	}
	require.NoError(t, db.Create(&extra).Error)

	recursive := NewRecursiveResolver(db)
	traversal := NewTraversalResolver(db)

	for _, parentID := range []uint{3, 9, 19, 50, 51} {
		a, err := recursive.ResolveDescendantIDs(ctx, parentID)
		require.NoError(t, err)
		b, err := traversal.ResolveDescendantIDs(ctx, parentID)
		require.NoError(t, err)
		assert.Equal(t, a.Slice(), b.Slice(), "parent %d", parentID)
	}

	deep, err := traversal.ResolveDescendantIDs(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []uint{19, 40, 41}, deep.Slice())

	loop, err := recursive.ResolveDescendantIDs(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint{50, 51}, loop.Slice())
}

func TestResolvers_IgnoreDeletedCategories(t *testing.T) {
	db := sqlitetest.New(t, &Category{})
	seedCategoryTree(t, db)
	require.NoError(t, db.Delete(&Category{}, 5).Error)
	ctx := context.Background()

	for _, r := range []DescendantResolver{NewRecursiveResolver(db), NewTraversalResolver(db)} {
		got, err := r.ResolveDescendantIDs(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{4, 10, 11}, got.Slice())
	}
}

type stubResolver struct {
	mu    sync.Mutex
	calls int
	ids   IDSet
	err   error
}

func (s *stubResolver) ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.ids.Clone(), nil
}

func (s *stubResolver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestFallbackResolver_TripsAndServesFallback(t *testing.T) {
	primary := &stubResolver{err: errors.New("recursive CTE not supported")}
	fallback := &stubResolver{ids: NewIDSet(4, 5)}
	cfg := config.CatalogConfig{BreakerFailures: 2, BreakerOpenDuration: time.Minute}

	r := newFallbackResolver(primary, fallback, cfg, logger.Discard())

	for i := 0; i < 4; i++ {
		got, err := r.ResolveDescendantIDs(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, []uint{4, 5}, got.Slice())
	}

	assert.Equal(t, 2, primary.Calls(), "open breaker must stop calling the recursive query")
	assert.Equal(t, 4, fallback.Calls())
}

func TestFallbackResolver_PrefersPrimary(t *testing.T) {
	primary := &stubResolver{ids: NewIDSet(7)}
	fallback := &stubResolver{ids: NewIDSet(8)}
	cfg := config.CatalogConfig{BreakerFailures: 1, BreakerOpenDuration: time.Minute}

	r := newFallbackResolver(primary, fallback, cfg, logger.Discard())
	got, err := r.ResolveDescendantIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, got.Slice())
	assert.Zero(t, fallback.Calls())
}

func TestSharedResolver_ReturnsIndependentCopies(t *testing.T) {
	r := &sharedResolver{next: &stubResolver{ids: NewIDSet(1, 2)}}

	first, err := r.ResolveDescendantIDs(context.Background(), 9)
	require.NoError(t, err)
	first.Add(99)

	second, err := r.ResolveDescendantIDs(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, second.Slice())
}

// gatedResolver blocks until released, then answers with its own context's error if any
type gatedResolver struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	ids     IDSet
}

func (g *gatedResolver) ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.ids.Clone(), nil
}

func TestSharedResolver_CancelledCallerDoesNotFailOthers(t *testing.T) {
	gate := &gatedResolver{entered: make(chan struct{}), release: make(chan struct{}), ids: NewIDSet(3, 4)}
	r := &sharedResolver{next: gate}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := r.ResolveDescendantIDs(ctxA, 2)
		errA <- err
	}()
	<-gate.entered

	type result struct {
		ids IDSet
		err error
	}
	resB := make(chan result, 1)
	go func() {
		ids, err := r.ResolveDescendantIDs(context.Background(), 2)
		resB <- result{ids, err}
	}()
	time.Sleep(20 * time.Millisecond) // let the second caller join the lookup in flight

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(gate.release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, []uint{3, 4}, got.ids.Slice())
}

func TestFallbackResolver_TimeoutsDoNotTripBreaker(t *testing.T) {
	primary := &stubResolver{err: context.DeadlineExceeded}
	fallback := &stubResolver{ids: NewIDSet(8)}
	cfg := config.CatalogConfig{BreakerFailures: 1, BreakerOpenDuration: time.Minute}

	r := newFallbackResolver(primary, fallback, cfg, logger.Discard())
	for i := 0; i < 3; i++ {
		_, _ = r.ResolveDescendantIDs(context.Background(), 1)
	}
	assert.Equal(t, 3, primary.Calls(), "breaker must stay closed on caller timeouts")

	primary.mu.Lock()
	primary.err = nil
	primary.ids = NewIDSet(7)
	primary.mu.Unlock()

	got, err := r.ResolveDescendantIDs(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, got.Slice())
}

func TestNewDescendantResolver_Strategies(t *testing.T) {
	db := sqlitetest.New(t, &Category{})
	seedCategoryTree(t, db)
	ctx := context.Background()

	for _, strategy := range []string{StrategyAuto, StrategyRecursive, StrategyTraversal} {
		t.Run(strategy, func(t *testing.T) {
			cfg := config.CatalogConfig{ClosureStrategy: strategy, BreakerFailures: 3, BreakerOpenDuration: time.Second}
			r := NewDescendantResolver(ctx, db, cfg, logger.Discard())

			got, err := r.ResolveDescendantIDs(ctx, 2)
			require.NoError(t, err)
			assert.Equal(t, []uint{6, 7, 14, 15, 16}, got.Slice())
		})
	}
}
