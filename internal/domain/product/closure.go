// internal/domain/product/closure.go
package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/storefront-backend/internal/config"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Closure strategies accepted by NewDescendantResolver
const (
	StrategyAuto      = "auto"
	StrategyRecursive = "recursive"
	StrategyTraversal = "traversal"
)

// IDSet is an unordered set of category ids
type IDSet map[uint]struct{}

// NewIDSet builds a set from ids
func NewIDSet(ids ...uint) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Add inserts id into the set
func (s IDSet) Add(id uint) { s[id] = struct{}{} }

// Has reports membership
func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the ids in ascending order
func (s IDSet) Slice() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone copies the set
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// DescendantResolver computes the ids of every category below parentID. The parent itself
// is not included unless the tree loops back to it. A leaf yields an empty set.
type DescendantResolver interface {
	ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error)
}

// UNION (not UNION ALL) drops rows already produced, so the recursion stops on cycles.
const descendantsQuery = `WITH RECURSIVE descendants(id) AS (
	SELECT id FROM categories WHERE parent_id = ? AND deleted_at IS NULL
	UNION
	SELECT c.id FROM categories c JOIN descendants d ON c.parent_id = d.id WHERE c.deleted_at IS NULL
)
SELECT id FROM descendants`

// RecursiveResolver resolves the closure with a single recursive query
type RecursiveResolver struct {
	db *gorm.DB
}

// NewRecursiveResolver creates a resolver backed by WITH RECURSIVE
func NewRecursiveResolver(db *gorm.DB) *RecursiveResolver {
	return &RecursiveResolver{db: db}
}

// ResolveDescendantIDs implements DescendantResolver
func (r *RecursiveResolver) ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Raw(descendantsQuery, parentID).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve descendants of category %d: %w", parentID, err)
	}
	return NewIDSet(ids...), nil
}

// TraversalResolver expands the tree one level per query
type TraversalResolver struct {
	db *gorm.DB
}

// NewTraversalResolver creates a breadth-first resolver
func NewTraversalResolver(db *gorm.DB) *TraversalResolver {
	return &TraversalResolver{db: db}
}

// ResolveDescendantIDs implements DescendantResolver
func (r *TraversalResolver) ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error) {
	found := NewIDSet()
	frontier := []uint{parentID}

	for len(frontier) > 0 {
		var children []uint
		err := r.db.WithContext(ctx).
			Model(&Category{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, fmt.Errorf("failed to expand categories %v: %w", frontier, err)
		}

		next := make([]uint, 0, len(children))
		for _, id := range children {
			if found.Has(id) {
				continue
			}
			found.Add(id)
			next = append(next, id)
		}
		frontier = next
	}

	return found, nil
}

// fallbackResolver runs primary behind a circuit breaker and answers from fallback
// whenever primary fails or the breaker is open.
type fallbackResolver struct {
	primary  DescendantResolver
	fallback DescendantResolver
	breaker  *gobreaker.CircuitBreaker[IDSet]
	logger   logrus.FieldLogger
}

func newFallbackResolver(primary, fallback DescendantResolver, cfg config.CatalogConfig, logger logrus.FieldLogger) *fallbackResolver {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 1
	}

	breaker := gobreaker.NewCircuitBreaker[IDSet](gobreaker.Settings{
		Name:        "category-closure",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up says nothing about the database
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("category closure breaker changed state")
		},
	})

	return &fallbackResolver{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker,
		logger:   logger,
	}
}

func (f *fallbackResolver) ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error) {
	ids, err := f.breaker.Execute(func() (IDSet, error) {
		return f.primary.ResolveDescendantIDs(ctx, parentID)
	})
	if err == nil {
		return ids, nil
	}

	f.logger.WithError(err).WithField("category_id", parentID).Warn("recursive closure unavailable, using traversal")
	return f.fallback.ResolveDescendantIDs(ctx, parentID)
}

// sharedResolver collapses concurrent lookups of the same parent into one call
type sharedResolver struct {
	next  DescendantResolver
	group singleflight.Group
}

// ResolveDescendantIDs joins an in-flight lookup of the same parent or starts one. The
// shared lookup is detached from any single caller's cancellation; each caller stops
// waiting when its own context ends.
func (s *sharedResolver) ResolveDescendantIDs(ctx context.Context, parentID uint) (IDSet, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatUint(uint64(parentID), 10), func() (interface{}, error) {
		return s.next.ResolveDescendantIDs(shared, parentID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// callers share the result; hand each its own copy
		return res.Val.(IDSet).Clone(), nil
	}
}

// NewDescendantResolver picks the closure implementation for the configured strategy.
// With the auto strategy the recursive query is probed once; if the database rejects it
// the traversal resolver is used on its own.
func NewDescendantResolver(ctx context.Context, db *gorm.DB, cfg config.CatalogConfig, logger logrus.FieldLogger) DescendantResolver {
	recursive := NewRecursiveResolver(db)
	traversal := NewTraversalResolver(db)

	switch cfg.ClosureStrategy {
	case StrategyTraversal:
		logger.Info("category closure: traversal")
		return &sharedResolver{next: traversal}
	case StrategyRecursive:
		logger.Info("category closure: recursive with traversal fallback")
		return &sharedResolver{next: newFallbackResolver(recursive, traversal, cfg, logger)}
	}

	if _, err := recursive.ResolveDescendantIDs(ctx, 0); err != nil {
		logger.WithError(err).Warn("category closure: recursive query unsupported, using traversal")
		return &sharedResolver{next: traversal}
	}

	logger.Info("category closure: recursive with traversal fallback")
	return &sharedResolver{next: newFallbackResolver(recursive, traversal, cfg, logger)}
}
