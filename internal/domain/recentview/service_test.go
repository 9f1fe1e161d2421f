package recentview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

type fakeProducts map[uint]product.ProductView

func (f fakeProducts) GetViews(_ context.Context, ids []uint) (map[uint]product.ProductView, error) {
	out := map[uint]product.ProductView{}
	for _, id := range ids {
		if v, ok := f[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func newTestService(t *testing.T, limit int) *Service {
	t.Helper()
	products := fakeProducts{}
	for id := uint(1); id <= 5; id++ {
		products[id] = product.ProductView{ID: id, IsActive: id != 5}
	}

	svc := NewService(sqlitetest.New(t, &RecentView{}), products, limit, logger.Discard())
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc
}

func ids(entries []Entry) []uint {
	out := make([]uint, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func TestService_RecordOrdersNewestFirstAndTrims(t *testing.T) {
	svc := newTestService(t, 3)
	ctx := context.Background()

	for _, id := range []uint{1, 2, 3, 4} {
		require.NoError(t, svc.Record(ctx, 9, id))
	}
	assert.Equal(t, []uint{4, 3, 2}, ids(svc.List(ctx, 9)))

	require.NoError(t, svc.Record(ctx, 9, 2))
	assert.Equal(t, []uint{2, 4, 3}, ids(svc.List(ctx, 9)))

	var stored int64
	require.NoError(t, svc.db.Model(&RecentView{}).Where("user_id = ?", 9).Count(&stored).Error)
	assert.Equal(t, int64(3), stored)
}

func TestService_ListHidesInactiveAndIsPerUser(t *testing.T) {
	svc := newTestService(t, 10)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, 1, 5))
	require.NoError(t, svc.Record(ctx, 1, 1))
	require.NoError(t, svc.Record(ctx, 2, 3))

	assert.Equal(t, []uint{1}, ids(svc.List(ctx, 1)))
	assert.Equal(t, []uint{3}, ids(svc.List(ctx, 2)))

	require.NoError(t, svc.Clear(ctx, 1))
	assert.Empty(t, svc.List(ctx, 1))
	assert.NotNil(t, svc.List(ctx, 1))
}
