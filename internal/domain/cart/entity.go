// internal/domain/cart/entity.go
package cart

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentinels standing in for a missing variant dimension
const (
	NoSize  = "no-size"
	NoColor = "no-color"
)

// Key identifies a cart line: the same product in another size or color is a different line
type Key struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// NewKey builds a normalised key
func NewKey(productID uint, size, color string) Key {
	size = strings.TrimSpace(size)
	if size == "" {
		size = NoSize
	}
	color = strings.TrimSpace(color)
	if color == "" {
		color = NoColor
	}
	return Key{ProductID: productID, Size: size, Color: color}
}

// String renders the key as the line id used by selection sets
func (k Key) String() string {
	return fmt.Sprintf("%d:%s:%s", k.ProductID, k.Size, k.Color)
}

// ParseKey is the inverse of Key.String
func ParseKey(id string) (Key, error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("invalid cart item id %q", id)
	}
	productID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || productID == 0 {
		return Key{}, fmt.Errorf("invalid cart item id %q", id)
	}
	return NewKey(uint(productID), parts[1], parts[2]), nil
}

// Item is a cart line with the product snapshot taken when it was added
type Item struct {
	ProductID uint      `json:"product_id"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Quantity  int       `json:"quantity"`
	TenantID  uint      `json:"tenant_id"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Image     string    `json:"image"`
	Price     int64     `json:"price"`
	AddedAt   time.Time `json:"added_at"`
}

// Key returns the line identity
func (i Item) Key() Key {
	return NewKey(i.ProductID, i.Size, i.Color)
}

// Line is an item together with its checkout selection flag
type Line struct {
	Item
	Selected bool `json:"selected"`
}

// CartItem is the stored row of a member cart
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_cart_items_owner_key,priority:1" json:"user_id"`
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_cart_items_owner_key,priority:2" json:"product_id"`
	Size       string    `gorm:"size:50;not null;uniqueIndex:idx_cart_items_owner_key,priority:3" json:"size"`
	Color      string    `gorm:"size:50;not null;uniqueIndex:idx_cart_items_owner_key,priority:4" json:"color"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	TenantID   uint      `gorm:"not null;index" json:"tenant_id"`
	Name       string    `gorm:"size:255" json:"name"`
	Brand      string    `gorm:"size:100" json:"brand"`
	Image      string    `gorm:"size:500" json:"image"`
	Price      int64     `gorm:"not null" json:"price"` // Price at time of adding
	IsSelected bool      `gorm:"not null" json:"is_selected"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (CartItem) TableName() string {
	return "cart_items"
}

func (c CartItem) line() Line {
	return Line{
		Item: Item{
			ProductID: c.ProductID,
			Size:      c.Size,
			Color:     c.Color,
			Quantity:  c.Quantity,
			TenantID:  c.TenantID,
			Name:      c.Name,
			Brand:     c.Brand,
			Image:     c.Image,
			Price:     c.Price,
			AddedAt:   c.CreatedAt,
		},
		Selected: c.IsSelected,
	}
}

func rowFromLine(userID uint, l Line) CartItem {
	k := l.Key()
	addedAt := l.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	return CartItem{
		UserID:     userID,
		ProductID:  k.ProductID,
		Size:       k.Size,
		Color:      k.Color,
		Quantity:   l.Quantity,
		TenantID:   l.TenantID,
		Name:       l.Name,
		Brand:      l.Brand,
		Image:      l.Image,
		Price:      l.Price,
		IsSelected: l.Selected,
		CreatedAt:  addedAt,
		UpdatedAt:  time.Now().UTC(),
	}
}

// CartLine is a line as returned to clients
type CartLine struct {
	ID string `json:"id"`
	Line
	LineTotal int64 `json:"line_total"`
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount        int   `json:"item_count"`     // Number of unique items
	TotalQuantity    int   `json:"total_quantity"` // Sum of all quantities
	SubTotal         int64 `json:"sub_total"`
	SelectedCount    int   `json:"selected_count"`
	SelectedQuantity int   `json:"selected_quantity"`
	SelectedAmount   int64 `json:"selected_amount"`
}

// Cart represents a shopping cart with items and summary
type Cart struct {
	SessionID string     `json:"session_id,omitempty"`
	UserID    *uint      `json:"user_id,omitempty"`
	Items     []CartLine `json:"items"`
	Totals    CartTotals `json:"totals"`
}

// Owner is whoever the cart belongs to: a member when UserID is set, otherwise the guest session
type Owner struct {
	UserID    *uint
	SessionID string
}

// IsMember reports whether the cart lives in the member store
func (o Owner) IsMember() bool {
	return o.UserID != nil
}

func newCart(owner Owner, lines []Line) *Cart {
	cart := &Cart{
		UserID: owner.UserID,
		Items:  make([]CartLine, 0, len(lines)),
	}
	if !owner.IsMember() {
		cart.SessionID = owner.SessionID
	}

	for _, l := range lines {
		total := l.Price * int64(l.Quantity)
		cart.Items = append(cart.Items, CartLine{ID: l.Key().String(), Line: l, LineTotal: total})

		cart.Totals.ItemCount++
		cart.Totals.TotalQuantity += l.Quantity
		cart.Totals.SubTotal += total
		if l.Selected {
			cart.Totals.SelectedCount++
			cart.Totals.SelectedQuantity += l.Quantity
			cart.Totals.SelectedAmount += total
		}
	}

	return cart
}
