package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/sqlitetest"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

func TestMigration_SeedIsIdempotent(t *testing.T) {
	db := sqlitetest.New(t)
	m := NewMigration(db, logger.Discard())

	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.CreateIndexes())
	require.NoError(t, m.SeedInitialData())
	require.NoError(t, m.SeedInitialData())

	var categories, products, tenants, users int64
	db.Model(&product.Category{}).Count(&categories)
	db.Model(&product.Product{}).Count(&products)
	db.Model(&tenant.Tenant{}).Count(&tenants)
	db.Model(&user.User{}).Count(&users)

	assert.Equal(t, int64(len(product.DefaultCategories())), categories)
	assert.Equal(t, int64(6), products)
	assert.Equal(t, int64(2), tenants)
	assert.Equal(t, int64(3), users)

	require.NoError(t, m.GetTableInfo())
}

func TestMigration_SeededAccounts(t *testing.T) {
	db := sqlitetest.New(t)
	m := NewMigration(db, logger.Discard())
	require.NoError(t, m.RunAutoMigrations())
	require.NoError(t, m.SeedInitialData())

	var merchant user.User
	require.NoError(t, db.Where("email = ?", "merchant@example.com").First(&merchant).Error)
	assert.Equal(t, user.RoleMerchant, merchant.Role)
	require.NotNil(t, merchant.TenantID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(merchant.Password), []byte("Merchant1234")))

	var hq user.User
	require.NoError(t, db.Where("email = ?", "hq@example.com").First(&hq).Error)
	assert.Nil(t, hq.TenantID)

	var scarf product.Product
	require.NoError(t, db.Where("slug = ?", "wool-scarf").First(&scarf).Error)
	var leaf product.Category
	require.NoError(t, db.First(&leaf, scarf.CategoryID).Error)
	assert.True(t, leaf.IsLeaf())
}
