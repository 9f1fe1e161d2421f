// internal/domain/wishlist/service.go
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotInWishlist is returned when moving a product the user has not saved
var ErrNotInWishlist = errors.New("item not found in wishlist")

// ProductLookup resolves products for display
type ProductLookup interface {
	GetView(ctx context.Context, id uint) (*product.ProductView, error)
	GetViews(ctx context.Context, ids []uint) (map[uint]product.ProductView, error)
}

// CartAdder puts products in a member cart
type CartAdder interface {
	Add(ctx context.Context, owner cart.Owner, req *cart.AddToCartRequest) (*cart.Cart, error)
}

// Service handles wishlist business logic
type Service struct {
	db       *gorm.DB
	products ProductLookup
	carts    CartAdder
	logger   logrus.FieldLogger
}

// NewService creates a new wishlist service
func NewService(db *gorm.DB, products ProductLookup, carts CartAdder, logger logrus.FieldLogger) *Service {
	return &Service{
		db:       db,
		products: products,
		carts:    carts,
		logger:   logger.WithField("component", "wishlist"),
	}
}

// AddToWishlistRequest represents add to wishlist request
type AddToWishlistRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// MoveToCartRequest names the variant to put in the cart
type MoveToCartRequest struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity" binding:"omitempty,min=1"`
}

// List returns the user's wishlist, newest first. Products that no longer exist are
// skipped. Read failures are logged and an empty list is returned.
func (s *Service) List(ctx context.Context, userID uint) []Entry {
	entries := make([]Entry, 0)
	log := s.logger.WithField("user_id", userID)

	var items []WishlistItem
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("added_at DESC, id DESC").Find(&items).Error; err != nil {
		log.WithError(err).Warn("failed to load wishlist, serving empty list")
		return entries
	}
	if len(items) == 0 {
		return entries
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	views, err := s.products.GetViews(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("failed to load wishlist products, serving empty list")
		return entries
	}

	for _, it := range items {
		view, ok := views[it.ProductID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{ProductView: view, AddedAt: it.AddedAt, IsAvailable: view.IsActive})
	}
	return entries
}

// ProductIDs returns the ids of every saved product
func (s *Service) ProductIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	if err := s.db.WithContext(ctx).Model(&WishlistItem{}).Where("user_id = ?", userID).Pluck("product_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return ids, nil
}

// Add saves a product. Saving it again is a no-op.
func (s *Service) Add(ctx context.Context, userID, productID uint) error {
	if _, err := s.products.GetView(ctx, productID); err != nil {
		return err
	}

	item := WishlistItem{UserID: userID, ProductID: productID, AddedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return nil
}

// Remove deletes a saved product. Removing an unsaved product is a no-op.
func (s *Service) Remove(ctx context.Context, userID, productID uint) error {
	err := s.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&WishlistItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return nil
}

// Toggle saves the product if absent and removes it if present. It reports whether the
// product is saved afterwards.
func (s *Service) Toggle(ctx context.Context, userID, productID uint) (bool, error) {
	saved, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if saved {
		return false, s.Remove(ctx, userID, productID)
	}
	return true, s.Add(ctx, userID, productID)
}

// Contains reports whether the product is saved
func (s *Service) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&WishlistItem{}).Where("user_id = ? AND product_id = ?", userID, productID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of saved products, 0 when it cannot be read
func (s *Service) Count(ctx context.Context, userID uint) int64 {
	var count int64
	if err := s.db.WithContext(ctx).Model(&WishlistItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("failed to count wishlist")
		return 0
	}
	return count
}

// MoveToCart adds a saved product to the member cart and then drops it from the wishlist
func (s *Service) MoveToCart(ctx context.Context, userID, productID uint, req *MoveToCartRequest) (*cart.Cart, error) {
	saved, err := s.Contains(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, ErrNotInWishlist
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}

	c, err := s.carts.Add(ctx, cart.Owner{UserID: &userID}, &cart.AddToCartRequest{
		ProductID: productID,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}

	if err := s.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return c, nil
}
