// internal/domain/recentview/service.go
package recentview

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductLookup resolves products for display
type ProductLookup interface {
	GetViews(ctx context.Context, ids []uint) (map[uint]product.ProductView, error)
}

// Service keeps the per-user list of recently viewed products
type Service struct {
	db       *gorm.DB
	products ProductLookup
	limit    int
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a recent view service keeping at most limit products per user
func NewService(db *gorm.DB, products ProductLookup, limit int, logger logrus.FieldLogger) *Service {
	return &Service{
		db:       db,
		products: products,
		limit:    limit,
		logger:   logger.WithField("component", "recent_views"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record notes that userID viewed productID now and drops the oldest views beyond the limit
func (s *Service) Record(ctx context.Context, userID, productID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view := RecentView{UserID: userID, ProductID: productID, ViewedAt: s.now()}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
		}).Create(&view).Error
		if err != nil {
			return fmt.Errorf("failed to record view: %w", err)
		}

		var keep []uint
		err = tx.Model(&RecentView{}).
			Where("user_id = ?", userID).
			Order("viewed_at DESC, id DESC").
			Limit(s.limit).
			Pluck("id", &keep).Error
		if err != nil {
			return fmt.Errorf("failed to trim recent views: %w", err)
		}

		if err := tx.Where("user_id = ? AND id NOT IN ?", userID, keep).Delete(&RecentView{}).Error; err != nil {
			return fmt.Errorf("failed to trim recent views: %w", err)
		}
		return nil
	})
}

// List returns viewed products newest first. Read failures are logged and an empty list
// is returned.
func (s *Service) List(ctx context.Context, userID uint) []Entry {
	entries := make([]Entry, 0)
	log := s.logger.WithField("user_id", userID)

	var views []RecentView
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("viewed_at DESC, id DESC").
		Limit(s.limit).
		Find(&views).Error
	if err != nil {
		log.WithError(err).Warn("failed to load recent views, serving empty list")
		return entries
	}
	if len(views) == 0 {
		return entries
	}

	ids := make([]uint, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ProductID)
	}
	products, err := s.products.GetViews(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("failed to load recently viewed products, serving empty list")
		return entries
	}

	for _, v := range views {
		if p, ok := products[v.ProductID]; ok && p.IsActive {
			entries = append(entries, Entry{ProductView: p, ViewedAt: v.ViewedAt})
		}
	}
	return entries
}

// Clear forgets every view of the user
func (s *Service) Clear(ctx context.Context, userID uint) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&RecentView{}).Error; err != nil {
		return fmt.Errorf("failed to clear recent views: %w", err)
	}
	return nil
}
