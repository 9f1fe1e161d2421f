package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(sqlitetest.New(t, &Tenant{}), logger.Discard())
}

func TestService_CreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, &CreateRequest{Name: "  Seoul Denim Co. ", ContactEmail: "Hello@Denim.KR"})
	require.NoError(t, err)
	assert.Equal(t, "Seoul Denim Co.", created.Name)
	assert.Equal(t, "seoul-denim-co", created.Slug)
	assert.Equal(t, "hello@denim.kr", created.ContactEmail)
	assert.Equal(t, StatusActive, created.Status)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Slug, got.Slug)

	_, err = svc.Create(ctx, &CreateRequest{Name: "seoul denim co"})
	assert.ErrorIs(t, err, ErrDuplicateTenant)
}

func TestService_GetMissing(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestService_UpdateAndStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, &CreateRequest{Name: "Alpha"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &CreateRequest{Name: "Beta"})
	require.NoError(t, err)

	renamed := "Beta"
	_, err = svc.Update(ctx, a.ID, &UpdateRequest{Name: &renamed})
	assert.ErrorIs(t, err, ErrDuplicateTenant)

	renamed = "Alpha Goods"
	updated, err := svc.Update(ctx, a.ID, &UpdateRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "alpha-goods", updated.Slug)

	suspended, err := svc.SetStatus(ctx, a.ID, StatusSuspended)
	require.NoError(t, err)
	assert.False(t, suspended.IsActive())

	_, err = svc.SetStatus(ctx, a.ID, "closed")
	assert.Error(t, err)
	_, err = svc.SetStatus(ctx, 404, StatusActive)
	assert.ErrorIs(t, err, ErrTenantNotFound)

	active, err := svc.List(ctx, StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Beta", active[0].Name)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	names, err := svc.Names(ctx, []uint{a.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[uint]string{a.ID: "Alpha Goods"}, names)
}
