// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when a product does not exist or is outside the caller's tenant
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInactive is returned when an inactive product is put in a cart
	ErrProductInactive = errors.New("product is not available")
)

// Service handles product business logic
type Service struct {
	db         *gorm.DB
	config     *config.Config
	categories *CategoryService
	view       ViewOptions
	logger     logrus.FieldLogger
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config, categories *CategoryService, logger logrus.FieldLogger) *Service {
	return &Service{
		db:         db,
		config:     cfg,
		categories: categories,
		view:       ViewOptionsFromConfig(cfg),
		logger:     logger.WithField("component", "product"),
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=20"`
	CategoryID uint   `form:"category_id"`
	TenantID   uint   `form:"tenant_id"`
	Brand      string `form:"brand"`
	Search     string `form:"search"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
	MinPrice   int64  `form:"min_price"`
	MaxPrice   int64  `form:"max_price"`
	IsActive   *bool  `form:"is_active"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	TenantID    uint   `json:"tenant_id"`
	Name        string `json:"name" binding:"required"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"required,min=0"`
	Image       string `json:"image"`
	CategoryID  uint   `json:"category_id" binding:"required"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Brand       *string `json:"brand"`
	Description *string `json:"description"`
	Price       *int64  `json:"price" binding:"omitempty,min=0"`
	Image       *string `json:"image"`
	CategoryID  *uint   `json:"category_id"`
	IsActive    *bool   `json:"is_active"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []ProductView `json:"products"`
	Pagination Pagination    `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// NewPagination computes pagination info
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// ViewOptions returns the presentation settings used by ToView
func (s *Service) ViewOptions() ViewOptions {
	return s.view
}

// List retrieves products with filtering and pagination. A category filter covers the
// whole subtree below it.
func (s *Service) List(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	normalizePage(&req.Page, &req.Limit)

	query := s.db.WithContext(ctx).Model(&Product{})

	if req.CategoryID > 0 {
		ids, err := s.categories.SubtreeIDs(ctx, req.CategoryID)
		if err != nil {
			if errors.Is(err, ErrCategoryNotFound) {
				return emptyResponse(req), nil
			}
			return nil, fmt.Errorf("failed to resolve category: %w", err)
		}
		query = query.Where("category_id IN ?", ids)
	}

	if req.TenantID > 0 {
		query = query.Where("tenant_id = ?", req.TenantID)
	}

	if req.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(req.Brand))
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(description) LIKE ?", search, search, search)
	}

	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}

	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}

	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Category").
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductResponse{
		Products:   ToViews(products, s.view),
		Pagination: NewPagination(req.Page, req.Limit, total),
	}, nil
}

// Browse is List for storefront visitors: only active products, and read failures
// are logged and answered with an empty page.
func (s *Service) Browse(ctx context.Context, req *ProductListRequest) *ProductResponse {
	active := true
	req.IsActive = &active

	resp, err := s.List(ctx, req)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"category_id": req.CategoryID,
			"search":      req.Search,
		}).Warn("product listing failed, serving empty result")
		return emptyResponse(req)
	}
	return resp
}

// ListByCategory lists active products anywhere under a category
func (s *Service) ListByCategory(ctx context.Context, categoryID uint, req *ProductListRequest) *ProductResponse {
	req.CategoryID = categoryID
	return s.Browse(ctx, req)
}

// Search lists active products whose name, brand or description contains term
func (s *Service) Search(ctx context.Context, term string, req *ProductListRequest) *ProductResponse {
	req.Search = strings.TrimSpace(term)
	return s.Browse(ctx, req)
}

// Get retrieves a single product row by ID
func (s *Service) Get(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// GetView retrieves a single product mapped for display
func (s *Service) GetView(ctx context.Context, id uint) (*ProductView, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	view := ToView(*product, s.view)
	return &view, nil
}

// GetViews loads several products keyed by id. Missing ids are skipped.
func (s *Service) GetViews(ctx context.Context, ids []uint) (map[uint]ProductView, error) {
	out := make(map[uint]ProductView, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var products []Product
	if err := s.db.WithContext(ctx).Preload("Category").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	for _, p := range products {
		out[p.ID] = ToView(p, s.view)
	}
	return out, nil
}

// Create creates a product for tenantID
func (s *Service) Create(ctx context.Context, tenantID uint, req *ProductCreateRequest) (*ProductView, error) {
	if tenantID == 0 {
		return nil, fmt.Errorf("tenant is required")
	}
	if _, err := s.categories.Get(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product := Product{
		TenantID:    tenantID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        uniqueSlug(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		CategoryID:  req.CategoryID,
		IsActive:    true,
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return s.GetView(ctx, product.ID)
}

// Update updates a product. A non-nil tenantID restricts the update to that tenant's products.
func (s *Service) Update(ctx context.Context, tenantID *uint, id uint, req *ProductUpdateRequest) (*ProductView, error) {
	product, err := s.getScoped(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
		updates["slug"] = uniqueSlug(*req.Name)
	}
	if req.Brand != nil {
		updates["brand"] = strings.TrimSpace(*req.Brand)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}

	return s.GetView(ctx, id)
}

// Delete soft deletes a product. A non-nil tenantID restricts the delete to that tenant's products.
func (s *Service) Delete(ctx context.Context, tenantID *uint, id uint) error {
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if tenantID != nil {
		query = query.Where("tenant_id = ?", *tenantID)
	}

	result := query.Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *Service) getScoped(ctx context.Context, tenantID *uint, id uint) (*Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenantID != nil && product.TenantID != *tenantID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func emptyResponse(req *ProductListRequest) *ProductResponse {
	return &ProductResponse{
		Products:   []ProductView{},
		Pagination: NewPagination(req.Page, req.Limit, 0),
	}
}

func normalizePage(page, limit *int) {
	if *page < 1 {
		*page = 1
	}
	if *limit < 1 || *limit > 100 {
		*limit = 20
	}
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"brand":      true,
		"created_at": true,
		"updated_at": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id %s", sortBy, sortOrder, sortOrder)
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// generateSlug generates URL-friendly slug from name
func generateSlug(name string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(slug, "-")
}

// uniqueSlug is generateSlug with a short random suffix
func uniqueSlug(name string) string {
	return generateSlug(name) + "-" + uuid.NewString()[:8]
}
