// internal/domain/wishlist/entity.go
package wishlist

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// WishlistItem represents a wishlist item
type WishlistItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product,priority:1" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product,priority:2;index" json:"product_id"`
	AddedAt   time.Time `gorm:"not null" json:"added_at"`
}

// TableName overrides the table name
func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// Entry is a wishlist item with its product
type Entry struct {
	product.ProductView
	AddedAt     time.Time `json:"added_at"`
	IsAvailable bool      `json:"is_available"`
}
