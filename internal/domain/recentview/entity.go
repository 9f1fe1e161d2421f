// internal/domain/recentview/entity.go
package recentview

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// RecentView records the last time a user opened a product page
type RecentView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_recent_views_user_product,priority:1;index:idx_recent_views_user_time,priority:1" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_recent_views_user_product,priority:2" json:"product_id"`
	ViewedAt  time.Time `gorm:"not null;index:idx_recent_views_user_time,priority:2" json:"viewed_at"`
}

// TableName overrides the table name
func (RecentView) TableName() string {
	return "recent_views"
}

// Entry is a viewed product
type Entry struct {
	product.ProductView
	ViewedAt time.Time `json:"viewed_at"`
}
