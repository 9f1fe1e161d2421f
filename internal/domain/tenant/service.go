// internal/domain/tenant/service.go
package tenant

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrTenantNotFound is returned when a tenant id does not exist
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrDuplicateTenant is returned when the generated slug is taken
	ErrDuplicateTenant = errors.New("tenant with similar name already exists")
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Service handles tenant business logic
type Service struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewService creates a new tenant service
func NewService(db *gorm.DB, logger logrus.FieldLogger) *Service {
	return &Service{
		db:     db,
		logger: logger.WithField("component", "tenant"),
	}
}

// CreateRequest represents tenant creation data
type CreateRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// UpdateRequest represents tenant update data
type UpdateRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
}

// StatusRequest changes a tenant's status
type StatusRequest struct {
	Status Status `json:"status" binding:"required"`
}

// List returns tenants, optionally filtered by status
func (s *Service) List(ctx context.Context, status Status) ([]Tenant, error) {
	tenants := make([]Tenant, 0)
	query := s.db.WithContext(ctx).Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

// Get retrieves a tenant by ID
func (s *Service) Get(ctx context.Context, id uint) (*Tenant, error) {
	var t Tenant
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to retrieve tenant: %w", err)
	}
	return &t, nil
}

// Names maps tenant ids to names. Unknown ids are left out.
func (s *Service) Names(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var tenants []Tenant
	if err := s.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to load tenant names: %w", err)
	}
	for _, t := range tenants {
		names[t.ID] = t.Name
	}
	return names, nil
}

// Create registers a new tenant. The slug is derived from the name.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Tenant, error) {
	name := strings.TrimSpace(req.Name)
	slug := generateSlug(name)
	if slug == "" {
		return nil, fmt.Errorf("tenant name must contain letters or digits")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&Tenant{}).Where("slug = ?", slug).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check tenant slug: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateTenant
	}

	t := Tenant{
		Name:         name,
		Slug:         slug,
		ContactEmail: strings.ToLower(strings.TrimSpace(req.ContactEmail)),
		Status:       StatusActive,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"tenant_id": t.ID, "slug": t.Slug}).Info("tenant created")
	return &t, nil
}

// Update changes a tenant's name or contact email
func (s *Service) Update(ctx context.Context, id uint, req *UpdateRequest) (*Tenant, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		slug := generateSlug(name)
		if slug == "" {
			return nil, fmt.Errorf("tenant name must contain letters or digits")
		}
		if slug != t.Slug {
			var existing int64
			s.db.WithContext(ctx).Model(&Tenant{}).Where("slug = ? AND id <> ?", slug, id).Count(&existing)
			if existing > 0 {
				return nil, ErrDuplicateTenant
			}
		}
		updates["name"] = name
		updates["slug"] = slug
	}
	if req.ContactEmail != nil {
		updates["contact_email"] = strings.ToLower(strings.TrimSpace(*req.ContactEmail))
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(t).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update tenant: %w", err)
		}
	}
	return s.Get(ctx, id)
}

// SetStatus activates or suspends a tenant
func (s *Service) SetStatus(ctx context.Context, id uint, status Status) (*Tenant, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("invalid tenant status: %s", status)
	}

	result := s.db.WithContext(ctx).Model(&Tenant{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update tenant status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrTenantNotFound
	}

	s.logger.WithFields(logrus.Fields{"tenant_id": id, "status": status}).Info("tenant status changed")
	return s.Get(ctx, id)
}

func generateSlug(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
