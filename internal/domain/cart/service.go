// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
)

var (
	// ErrItemNotFound is returned when a key names no line of the cart
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrSessionRequired is returned for guest operations without a session id
	ErrSessionRequired = errors.New("session ID required for guest cart")
	// ErrInvalidQuantity is returned for non-positive add quantities or negative set quantities
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidOption is returned when a size or color would break the line key
	ErrInvalidOption = errors.New("size and color must not contain ':'")
	// ErrMergeInProgress is returned while another login is merging the same guest cart
	ErrMergeInProgress = errors.New("guest cart merge already in progress")
)

// MemberRepository stores member carts
type MemberRepository interface {
	List(ctx context.Context, userID uint) ([]Line, error)
	Upsert(ctx context.Context, userID uint, l Line) error
	SetQuantity(ctx context.Context, userID uint, key Key, quantity int) error
	Remove(ctx context.Context, userID uint, keys ...Key) error
	SetSelected(ctx context.Context, userID uint, key Key, selected bool) error
	SetAllSelected(ctx context.Context, userID uint, selected bool) error
	Clear(ctx context.Context, userID uint) error
	MergeBatch(ctx context.Context, userID uint, lines []Line) error
}

// GuestRepository stores guest carts
type GuestRepository interface {
	Load(ctx context.Context, sessionID string) ([]Line, error)
	Save(ctx context.Context, sessionID string, lines []Line) error
	Delete(ctx context.Context, sessionID string) error
	LockMerge(ctx context.Context, sessionID string) (bool, error)
	UnlockMerge(ctx context.Context, sessionID string) error
}

// ProductLookup resolves the product snapshot for a new line
type ProductLookup interface {
	GetView(ctx context.Context, id uint) (*product.ProductView, error)
}

// Service handles cart business logic
type Service struct {
	members  MemberRepository
	guests   GuestRepository
	products ProductLookup
	logger   logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(members MemberRepository, guests GuestRepository, products ProductLookup, logger logrus.FieldLogger) *Service {
	return &Service{
		members:  members,
		guests:   guests,
		products: products,
		logger:   logger.WithField("component", "cart"),
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// SelectRequest marks lines for checkout
type SelectRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

// RemoveItemsRequest names several lines by id
type RemoveItemsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// Get returns the cart. Read failures are logged and an empty cart is returned.
func (s *Service) Get(ctx context.Context, owner Owner) *Cart {
	lines, err := s.load(ctx, owner)
	if err != nil {
		s.logFor(owner).WithError(err).Warn("failed to load cart, serving empty cart")
		lines = nil
	}
	return newCart(owner, lines)
}

// Count returns the total quantity in the cart, 0 when it cannot be read
func (s *Service) Count(ctx context.Context, owner Owner) int {
	return s.Get(ctx, owner).Totals.TotalQuantity
}

// Add puts quantity units of a product variant in the cart. Adding an existing line
// increases its quantity. New and re-added lines are selected.
func (s *Service) Add(ctx context.Context, owner Owner, req *AddToCartRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if strings.Contains(req.Size, ":") || strings.Contains(req.Color, ":") {
		return nil, ErrInvalidOption
	}

	view, err := s.products.GetView(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !view.IsActive {
		return nil, product.ErrProductInactive
	}

	key := NewKey(req.ProductID, req.Size, req.Color)
	line := Line{
		Item: Item{
			ProductID: key.ProductID,
			Size:      key.Size,
			Color:     key.Color,
			Quantity:  req.Quantity,
			TenantID:  view.TenantID,
			Name:      view.Name,
			Brand:     view.Brand,
			Image:     view.ImageURL,
			Price:     view.Price,
			AddedAt:   time.Now().UTC(),
		},
		Selected: true,
	}

	if owner.IsMember() {
		if err := s.members.Upsert(ctx, *owner.UserID, line); err != nil {
			return nil, err
		}
		return s.reload(ctx, owner)
	}

	return s.mutateGuest(ctx, owner, func(lines []Line) ([]Line, error) {
		for i := range lines {
			if lines[i].Key() == key {
				lines[i].Quantity += line.Quantity
				lines[i].Name, lines[i].Brand, lines[i].Image, lines[i].Price = line.Name, line.Brand, line.Image, line.Price
				lines[i].Selected = true
				return lines, nil
			}
		}
		return append(lines, line), nil
	})
}

// SetQuantity overwrites a line's quantity. Zero removes the line.
func (s *Service) SetQuantity(ctx context.Context, owner Owner, key Key, quantity int) (*Cart, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveKeys(ctx, owner, []Key{key}, true)
	}

	if owner.IsMember() {
		if err := s.members.SetQuantity(ctx, *owner.UserID, key, quantity); err != nil {
			return nil, err
		}
		return s.reload(ctx, owner)
	}

	return s.mutateGuest(ctx, owner, func(lines []Line) ([]Line, error) {
		i := indexOf(lines, key)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		lines[i].Quantity = quantity
		return lines, nil
	})
}

// Increment adds one unit to a line
func (s *Service) Increment(ctx context.Context, owner Owner, key Key) (*Cart, error) {
	return s.step(ctx, owner, key, 1)
}

// Decrement takes one unit off a line; the last unit removes it
func (s *Service) Decrement(ctx context.Context, owner Owner, key Key) (*Cart, error) {
	return s.step(ctx, owner, key, -1)
}

func (s *Service) step(ctx context.Context, owner Owner, key Key, delta int) (*Cart, error) {
	lines, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	i := indexOf(lines, key)
	if i < 0 {
		return nil, ErrItemNotFound
	}
	return s.SetQuantity(ctx, owner, key, lines[i].Quantity+delta)
}

// Remove deletes one line
func (s *Service) Remove(ctx context.Context, owner Owner, key Key) (*Cart, error) {
	return s.RemoveKeys(ctx, owner, []Key{key}, true)
}

// RemoveKeys deletes several lines. With strict set, a key missing from the cart is an
// error; otherwise missing keys are skipped.
func (s *Service) RemoveKeys(ctx context.Context, owner Owner, keys []Key, strict bool) (*Cart, error) {
	if owner.IsMember() {
		if strict {
			lines, err := s.members.List(ctx, *owner.UserID)
			if err != nil {
				return nil, err
			}
			for _, k := range keys {
				if indexOf(lines, k) < 0 {
					return nil, ErrItemNotFound
				}
			}
		}
		if err := s.members.Remove(ctx, *owner.UserID, keys...); err != nil {
			return nil, err
		}
		return s.reload(ctx, owner)
	}

	return s.mutateGuest(ctx, owner, func(lines []Line) ([]Line, error) {
		drop := make(map[Key]bool, len(keys))
		for _, k := range keys {
			if strict && indexOf(lines, k) < 0 {
				return nil, ErrItemNotFound
			}
			drop[k] = true
		}
		kept := lines[:0]
		for _, l := range lines {
			if !drop[l.Key()] {
				kept = append(kept, l)
			}
		}
		return kept, nil
	})
}

// Select marks or unmarks one line for checkout
func (s *Service) Select(ctx context.Context, owner Owner, key Key, selected bool) (*Cart, error) {
	if owner.IsMember() {
		if err := s.members.SetSelected(ctx, *owner.UserID, key, selected); err != nil {
			return nil, err
		}
		return s.reload(ctx, owner)
	}

	return s.mutateGuest(ctx, owner, func(lines []Line) ([]Line, error) {
		i := indexOf(lines, key)
		if i < 0 {
			return nil, ErrItemNotFound
		}
		lines[i].Selected = selected
		return lines, nil
	})
}

// SelectAll marks or unmarks every line
func (s *Service) SelectAll(ctx context.Context, owner Owner, selected bool) (*Cart, error) {
	if owner.IsMember() {
		if err := s.members.SetAllSelected(ctx, *owner.UserID, selected); err != nil {
			return nil, err
		}
		return s.reload(ctx, owner)
	}

	return s.mutateGuest(ctx, owner, func(lines []Line) ([]Line, error) {
		for i := range lines {
			lines[i].Selected = selected
		}
		return lines, nil
	})
}

// Clear empties the cart
func (s *Service) Clear(ctx context.Context, owner Owner) error {
	if owner.IsMember() {
		return s.members.Clear(ctx, *owner.UserID)
	}
	return s.guests.Delete(ctx, owner.SessionID)
}

// SelectedItems returns the member lines marked for checkout
func (s *Service) SelectedItems(ctx context.Context, userID uint) ([]Item, error) {
	lines, err := s.members.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		if l.Selected {
			items = append(items, l.Item)
		}
	}
	return items, nil
}

// Merge moves the guest cart of sessionID into the member cart of userID. The whole
// guest cart is applied in one batch; only after it commits is the guest cart deleted.
// On any failure before that the guest cart is left exactly as it was. Only one merge
// per session runs at a time; a concurrent one gets ErrMergeInProgress.
func (s *Service) Merge(ctx context.Context, userID uint, sessionID string) (*Cart, error) {
	member := Owner{UserID: &userID}
	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "session_id": sessionID})

	if sessionID == "" {
		return s.reload(ctx, member)
	}

	locked, err := s.guests.LockMerge(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim guest cart for merge: %w", err)
	}
	if !locked {
		return nil, ErrMergeInProgress
	}
	defer func() {
		if err := s.guests.UnlockMerge(context.WithoutCancel(ctx), sessionID); err != nil {
			log.WithError(err).Warn("failed to release guest cart merge claim")
		}
	}()

	guestLines, err := s.guests.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart for merge: %w", err)
	}
	if len(guestLines) == 0 {
		return s.reload(ctx, member)
	}

	if err := s.members.MergeBatch(ctx, userID, guestLines); err != nil {
		log.WithError(err).Warn("guest cart merge failed, guest cart kept for retry")
		return nil, fmt.Errorf("failed to merge guest cart: %w", err)
	}

	if err := s.guests.Delete(ctx, sessionID); err != nil {
		// The items are already in the member cart. Callers rotate the session so the
		// stale guest cart is never merged again.
		log.WithError(err).Error("failed to delete merged guest cart")
	}

	log.WithField("lines", len(guestLines)).Info("guest cart merged")
	return s.reload(ctx, member)
}

func (s *Service) load(ctx context.Context, owner Owner) ([]Line, error) {
	if owner.IsMember() {
		return s.members.List(ctx, *owner.UserID)
	}
	return s.guests.Load(ctx, owner.SessionID)
}

// reload reads back the stored cart after a member write
func (s *Service) reload(ctx context.Context, owner Owner) (*Cart, error) {
	lines, err := s.members.List(ctx, *owner.UserID)
	if err != nil {
		return nil, err
	}
	return newCart(owner, lines), nil
}

// mutateGuest applies fn to the loaded guest cart and persists the result
func (s *Service) mutateGuest(ctx context.Context, owner Owner, fn func([]Line) ([]Line, error)) (*Cart, error) {
	lines, err := s.guests.Load(ctx, owner.SessionID)
	if err != nil {
		return nil, err
	}
	lines, err = fn(lines)
	if err != nil {
		return nil, err
	}
	if err := s.guests.Save(ctx, owner.SessionID, lines); err != nil {
		return nil, err
	}
	return newCart(owner, lines), nil
}

func (s *Service) logFor(owner Owner) logrus.FieldLogger {
	if owner.IsMember() {
		return s.logger.WithField("user_id", *owner.UserID)
	}
	return s.logger.WithField("session_id", owner.SessionID)
}

func indexOf(lines []Line, key Key) int {
	for i, l := range lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}
