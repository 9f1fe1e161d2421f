// internal/domain/cart/member_store.go
package cart

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ownerKeyColumns = []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size"}, {Name: "color"}}

// MemberStore keeps member carts in the cart_items table
type MemberStore struct {
	db *gorm.DB
}

// NewMemberStore creates a member cart store
func NewMemberStore(db *gorm.DB) *MemberStore {
	return &MemberStore{db: db}
}

// List returns a member's lines, oldest first
func (m *MemberStore) List(ctx context.Context, userID uint) ([]Line, error) {
	var rows []CartItem
	if err := m.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	lines := make([]Line, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, r.line())
	}
	return lines, nil
}

// Upsert adds l to the cart. An existing line with the same key has the quantity added
// and its snapshot refreshed; a new line is stored as given.
func (m *MemberStore) Upsert(ctx context.Context, userID uint, l Line) error {
	row := rowFromLine(userID, l)
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: ownerKeyColumns,
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":    gorm.Expr("cart_items.quantity + excluded.quantity"),
			"name":        gorm.Expr("excluded.name"),
			"brand":       gorm.Expr("excluded.brand"),
			"image":       gorm.Expr("excluded.image"),
			"price":       gorm.Expr("excluded.price"),
			"is_selected": gorm.Expr("excluded.is_selected"),
			"updated_at":  row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	return nil
}

// SetQuantity overwrites a line's quantity
func (m *MemberStore) SetQuantity(ctx context.Context, userID uint, key Key, quantity int) error {
	result := m.scoped(ctx, userID, key).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// Remove deletes the given lines. Unknown keys are ignored.
func (m *MemberStore) Remove(ctx context.Context, userID uint, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, k := range keys {
			err := tx.Where("user_id = ? AND product_id = ? AND size = ? AND color = ?", userID, k.ProductID, k.Size, k.Color).
				Delete(&CartItem{}).Error
			if err != nil {
				return fmt.Errorf("failed to remove cart item %s: %w", k, err)
			}
		}
		return nil
	})
}

// SetSelected marks one line for checkout or clears the mark
func (m *MemberStore) SetSelected(ctx context.Context, userID uint, key Key, selected bool) error {
	result := m.scoped(ctx, userID, key).Update("is_selected", selected)
	if result.Error != nil {
		return fmt.Errorf("failed to update selection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// SetAllSelected applies selected to every line of the cart
func (m *MemberStore) SetAllSelected(ctx context.Context, userID uint, selected bool) error {
	err := m.db.WithContext(ctx).Model(&CartItem{}).Where("user_id = ?", userID).Update("is_selected", selected).Error
	if err != nil {
		return fmt.Errorf("failed to update selection: %w", err)
	}
	return nil
}

// Clear empties the cart
func (m *MemberStore) Clear(ctx context.Context, userID uint) error {
	if err := m.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// MergeBatch folds lines into the member cart in one transaction. Quantities of colliding
// keys are summed and a line stays selected if either side had it selected. Either every
// line is applied or none is.
func (m *MemberStore) MergeBatch(ctx context.Context, userID uint, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, l := range lines {
			row := rowFromLine(userID, l)
			err := tx.Clauses(clause.OnConflict{
				Columns: ownerKeyColumns,
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity":    gorm.Expr("cart_items.quantity + excluded.quantity"),
					"is_selected": gorm.Expr("cart_items.is_selected OR excluded.is_selected"),
					"updated_at":  row.UpdatedAt,
				}),
			}).Create(&row).Error
			if err != nil {
				return fmt.Errorf("failed to merge cart item %s: %w", l.Key(), err)
			}
		}
		return nil
	})
}

func (m *MemberStore) scoped(ctx context.Context, userID uint, key Key) *gorm.DB {
	return m.db.WithContext(ctx).Model(&CartItem{}).
		Where("user_id = ? AND product_id = ? AND size = ? AND color = ?", userID, key.ProductID, key.Size, key.Color)
}
