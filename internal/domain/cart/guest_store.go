// internal/domain/cart/guest_store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// mergeLockTTL bounds how long a crashed merge can block the next one
const mergeLockTTL = 30 * time.Second

// KeyValueStore is string storage with get/set/remove by key. Set applies the store's TTL.
// SetIfAbsent writes only when the key does not exist and reports whether it did.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Remove(ctx context.Context, keys ...string) error
}

// GuestStore keeps guest carts in a key-value store under the session id.
// Items and the selection set live under separate keys.
type GuestStore struct {
	kv KeyValueStore
}

// NewGuestStore creates a guest cart store
func NewGuestStore(kv KeyValueStore) *GuestStore {
	return &GuestStore{kv: kv}
}

func itemsKey(sessionID string) string {
	return "cart:guest:" + sessionID
}

func selectionKey(sessionID string) string {
	return "cart:guest:" + sessionID + ":selected"
}

func mergeLockKey(sessionID string) string {
	return "cart:guest:" + sessionID + ":merging"
}

// Load reads the guest cart. A missing cart is empty.
func (g *GuestStore) Load(ctx context.Context, sessionID string) ([]Line, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	raw, found, err := g.kv.Get(ctx, itemsKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}
	if !found {
		return []Line{}, nil
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}

	selected := map[string]bool{}
	rawSel, found, err := g.kv.Get(ctx, selectionKey(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read guest selection: %w", err)
	}
	if found {
		var ids []string
		if err := json.Unmarshal([]byte(rawSel), &ids); err != nil {
			return nil, fmt.Errorf("failed to decode guest selection: %w", err)
		}
		for _, id := range ids {
			selected[id] = true
		}
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		k := it.Key()
		it.Size, it.Color = k.Size, k.Color
		lines = append(lines, Line{Item: it, Selected: selected[k.String()]})
	}
	return lines, nil
}

// Save writes the guest cart. The selection set is derived from lines, so it only ever
// names items that exist. An empty cart deletes both keys.
func (g *GuestStore) Save(ctx context.Context, sessionID string, lines []Line) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if len(lines) == 0 {
		return g.Delete(ctx, sessionID)
	}

	items := make([]Item, 0, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		items = append(items, l.Item)
		if l.Selected {
			ids = append(ids, l.Key().String())
		}
	}

	rawItems, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	rawSel, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode guest selection: %w", err)
	}

	if err := g.kv.Set(ctx, itemsKey(sessionID), string(rawItems)); err != nil {
		return fmt.Errorf("failed to save guest cart: %w", err)
	}
	if err := g.kv.Set(ctx, selectionKey(sessionID), string(rawSel)); err != nil {
		return fmt.Errorf("failed to save guest selection: %w", err)
	}
	return nil
}

// Delete removes the guest cart and its selection set
func (g *GuestStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	if err := g.kv.Remove(ctx, itemsKey(sessionID), selectionKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}

// LockMerge claims the guest cart for a merge. It reports false when another merge of the
// same session holds the claim.
func (g *GuestStore) LockMerge(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, ErrSessionRequired
	}
	ok, err := g.kv.SetIfAbsent(ctx, mergeLockKey(sessionID), "1", mergeLockTTL)
	if err != nil {
		return false, fmt.Errorf("failed to lock guest cart: %w", err)
	}
	return ok, nil
}

// UnlockMerge releases the merge claim
func (g *GuestStore) UnlockMerge(ctx context.Context, sessionID string) error {
	if err := g.kv.Remove(ctx, mergeLockKey(sessionID)); err != nil {
		return fmt.Errorf("failed to unlock guest cart: %w", err)
	}
	return nil
}
