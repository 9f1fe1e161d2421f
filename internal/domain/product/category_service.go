// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrCategoryNotFound is returned when a category id does not exist
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryTooDeep is returned when a category would sit below the leaf level
	ErrCategoryTooDeep = errors.New("categories are limited to three levels")
)

// CategoryService handles category business logic
type CategoryService struct {
	db       *gorm.DB
	resolver DescendantResolver
	logger   logrus.FieldLogger
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, resolver DescendantResolver, logger logrus.FieldLogger) *CategoryService {
	return &CategoryService{
		db:       db,
		resolver: resolver,
		logger:   logger.WithField("component", "category"),
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ParentID    *uint  `json:"parent_id"`
	SortOrder   int    `json:"sort_order"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *uint   `json:"parent_id"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryTree represents hierarchical category structure
type CategoryTree struct {
	Category
	Children []CategoryTree `json:"children"`
}

// CategoryDetail is a category with its immediate children
type CategoryDetail struct {
	Category
	Children []Category `json:"children"`
}

// List returns every active category. On failure the built-in defaults are returned.
func (s *CategoryService) List(ctx context.Context) []Category {
	var categories []Category
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("level ASC, sort_order ASC, name ASC").
		Find(&categories).Error
	if err != nil {
		s.logger.WithError(err).Warn("failed to load categories, serving defaults")
		return DefaultCategories()
	}
	return categories
}

// Tree returns active categories nested under their parents
func (s *CategoryService) Tree(ctx context.Context) []CategoryTree {
	return BuildTree(s.List(ctx))
}

// BuildTree nests a flat category list. Nodes whose parent is missing are dropped.
func BuildTree(categories []Category) []CategoryTree {
	byParent := make(map[uint][]Category)
	var roots []Category
	for _, c := range categories {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	visited := make(map[uint]bool)
	var build func(nodes []Category) []CategoryTree
	build = func(nodes []Category) []CategoryTree {
		out := make([]CategoryTree, 0, len(nodes))
		for _, n := range nodes {
			if visited[n.ID] {
				continue
			}
			visited[n.ID] = true
			out = append(out, CategoryTree{Category: n, Children: build(byParent[n.ID])})
		}
		return out
	}

	return build(roots)
}

// Get retrieves a single category by ID
func (s *CategoryService) Get(ctx context.Context, id uint) (*Category, error) {
	var category Category
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// Detail returns a category together with its immediate children
func (s *CategoryService) Detail(ctx context.Context, id uint) (*CategoryDetail, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CategoryDetail{Category: *category, Children: s.Children(ctx, id)}, nil
}

// Name resolves a category's display name, or "" when it cannot be found
func (s *CategoryService) Name(ctx context.Context, id uint) string {
	category, err := s.Get(ctx, id)
	if err == nil {
		return category.Name
	}
	if !errors.Is(err, ErrCategoryNotFound) {
		s.logger.WithError(err).WithField("category_id", id).Warn("failed to load category name")
		for _, c := range DefaultCategories() {
			if c.ID == id {
				return c.Name
			}
		}
	}
	return ""
}

// Children returns the active immediate children of a category
func (s *CategoryService) Children(ctx context.Context, id uint) []Category {
	children := make([]Category, 0)
	err := s.db.WithContext(ctx).
		Where("parent_id = ? AND is_active = ?", id, true).
		Order("sort_order ASC, name ASC").
		Find(&children).Error
	if err != nil {
		s.logger.WithError(err).WithField("category_id", id).Warn("failed to load child categories, serving defaults")
		children = children[:0]
		for _, c := range DefaultCategories() {
			if c.ParentID != nil && *c.ParentID == id {
				children = append(children, c)
			}
		}
	}
	return children
}

// SubtreeIDs returns the category itself plus every descendant. A leaf category
// is answered without touching the resolver.
func (s *CategoryService) SubtreeIDs(ctx context.Context, id uint) ([]uint, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.IsLeaf() {
		return []uint{id}, nil
	}

	ids, err := s.resolver.ResolveDescendantIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	ids.Add(id)
	return ids.Slice(), nil
}

// Create creates a category. The level is derived from the parent.
func (s *CategoryService) Create(ctx context.Context, req *CategoryCreateRequest) (*Category, error) {
	level := LevelTop
	if req.ParentID != nil {
		parent, err := s.Get(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, ErrCategoryNotFound) {
				return nil, fmt.Errorf("parent category not found")
			}
			return nil, err
		}
		level = parent.Level + 1
	}
	if level > LevelLeaf {
		return nil, ErrCategoryTooDeep
	}

	slug := generateSlug(req.Name)
	var existing int64
	s.db.WithContext(ctx).Model(&Category{}).Where("slug = ?", slug).Count(&existing)
	if existing > 0 {
		return nil, fmt.Errorf("category with similar name already exists")
	}

	category := Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		Description: req.Description,
		Level:       level,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return &category, nil
}

// Update updates an existing category. Moving a category must keep it on the same level.
func (s *CategoryService) Update(ctx context.Context, id uint, req *CategoryUpdateRequest) (*Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, fmt.Errorf("category cannot be its own parent")
		}
		parent, err := s.Get(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent category not found")
		}
		if parent.Level != category.Level-1 {
			return nil, fmt.Errorf("parent must be a level %d category", category.Level-1)
		}
		if s.isCircularReference(ctx, id, *req.ParentID) {
			return nil, fmt.Errorf("circular reference detected")
		}
		updates["parent_id"] = *req.ParentID
	}

	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
		updates["slug"] = generateSlug(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(category).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Delete soft deletes a category that has no products and no children
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)

	var productCount int64
	db.Model(&Product{}).Where("category_id = ?", id).Count(&productCount)
	if productCount > 0 {
		return fmt.Errorf("cannot delete category with existing products")
	}

	var childCount int64
	db.Model(&Category{}).Where("parent_id = ?", id).Count(&childCount)
	if childCount > 0 {
		return fmt.Errorf("cannot delete category with subcategories")
	}

	result := db.Where("id = ?", id).Delete(&Category{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// isCircularReference reports whether categoryID is an ancestor of parentID
func (s *CategoryService) isCircularReference(ctx context.Context, categoryID, parentID uint) bool {
	seen := map[uint]bool{}
	currentID := parentID

	for !seen[currentID] {
		seen[currentID] = true
		var category Category
		err := s.db.WithContext(ctx).Select("parent_id").Where("id = ?", currentID).First(&category).Error
		if err != nil || category.ParentID == nil {
			return false
		}
		if *category.ParentID == categoryID {
			return true
		}
		currentID = *category.ParentID
	}

	return true
}
