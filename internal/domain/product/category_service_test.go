package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func TestCategoryService_NameAndChildren(t *testing.T) {
	_, categories, _ := newTestServices(t)
	ctx := context.Background()

	assert.Equal(t, "Accessories", categories.Name(ctx, 3))
	assert.Equal(t, "", categories.Name(ctx, 404))

	children := categories.Children(ctx, 3)
	require.Len(t, children, 2)
	assert.Equal(t, "Bags", children[0].Name)
	assert.Equal(t, "Shoes", children[1].Name)

	assert.Empty(t, categories.Children(ctx, 19))
}

func TestCategoryService_SubtreeIDs(t *testing.T) {
	_, categories, _ := newTestServices(t)
	ctx := context.Background()

	ids, err := categories.SubtreeIDs(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint{5, 12, 13}, ids)

	leaf, err := categories.SubtreeIDs(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, []uint{13}, leaf)

	_, err = categories.SubtreeIDs(ctx, 404)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_Tree(t *testing.T) {
	_, categories, _ := newTestServices(t)

	tree := categories.Tree(context.Background())
	require.Len(t, tree, 3)
	assert.Equal(t, "Women", tree[0].Name)
	require.Len(t, tree[0].Children, 2)
	assert.Len(t, tree[0].Children[0].Children, 2)
}

func TestCategoryService_ReadFailuresServeDefaults(t *testing.T) {
	// no tables migrated: every read fails
	db := sqlitetest.New(t)
	categories := NewCategoryService(db, NewTraversalResolver(db), logger.Discard())
	ctx := context.Background()

	assert.Len(t, categories.List(ctx), len(DefaultCategories()))
	assert.Equal(t, "Men", categories.Name(ctx, 2))
	assert.Len(t, categories.Children(ctx, 1), 2)
}

func TestCategoryService_CreateDerivesLevel(t *testing.T) {
	_, categories, _ := newTestServices(t)
	ctx := context.Background()

	top, err := categories.Create(ctx, &CategoryCreateRequest{Name: "Kids"})
	require.NoError(t, err)
	assert.Equal(t, LevelTop, top.Level)
	assert.Nil(t, top.ParentID)

	mid, err := categories.Create(ctx, &CategoryCreateRequest{Name: "Kids Tops", ParentID: &top.ID})
	require.NoError(t, err)
	assert.Equal(t, LevelMiddle, mid.Level)

	leaf, err := categories.Create(ctx, &CategoryCreateRequest{Name: "Kids Tees", ParentID: &mid.ID})
	require.NoError(t, err)
	assert.Equal(t, LevelLeaf, leaf.Level)

	_, err = categories.Create(ctx, &CategoryCreateRequest{Name: "Too Deep", ParentID: &leaf.ID})
	assert.ErrorIs(t, err, ErrCategoryTooDeep)

	_, err = categories.Create(ctx, &CategoryCreateRequest{Name: "Kids"})
	assert.Error(t, err)
}

func TestCategoryService_UpdateKeepsLevels(t *testing.T) {
	_, categories, _ := newTestServices(t)
	ctx := context.Background()

	// move women tops under men: same level, allowed
	menID := uint(2)
	moved, err := categories.Update(ctx, 4, &CategoryUpdateRequest{ParentID: &menID})
	require.NoError(t, err)
	assert.Equal(t, menID, *moved.ParentID)

	// a level-2 category cannot be placed under a level-2 parent
	bagsID := uint(8)
	_, err = categories.Update(ctx, 9, &CategoryUpdateRequest{ParentID: &bagsID})
	assert.Error(t, err)
}

func TestCategoryService_DeleteGuards(t *testing.T) {
	_, categories, db := newTestServices(t)
	seedProducts(t, db)
	ctx := context.Background()

	assert.Error(t, categories.Delete(ctx, 1), "has children")
	assert.Error(t, categories.Delete(ctx, 10), "has products")
	require.NoError(t, categories.Delete(ctx, 13))
	assert.ErrorIs(t, categories.Delete(ctx, 13), ErrCategoryNotFound)
}
