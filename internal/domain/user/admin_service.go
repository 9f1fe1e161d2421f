// internal/domain/user/admin_service.go
package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/tenant"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// TenantLookup resolves a tenant id
type TenantLookup interface {
	Get(ctx context.Context, id uint) (*tenant.Tenant, error)
}

// AdminService handles HQ account management
type AdminService struct {
	db              *gorm.DB
	tenants         TenantLookup
	passwordManager *auth.PasswordManager
	logger          logrus.FieldLogger
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, cfg *config.Config, tenants TenantLookup, logger logrus.FieldLogger) *AdminService {
	return &AdminService{
		db:              db,
		tenants:         tenants,
		passwordManager: auth.NewPasswordManager(cfg),
		logger:          logger.WithField("component", "user_admin"),
	}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
	Search   string `form:"search"`
	Role     string `form:"role"`
	TenantID *uint  `form:"tenant_id"`
	IsActive *bool  `form:"is_active"`
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []User `json:"users"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}

// AccountCreateRequest creates a merchant or HQ account
type AccountCreateRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" binding:"required,oneof=merchant hq"`
	TenantID  *uint  `json:"tenant_id"`
}

// UserStatusUpdateRequest represents user status update data
type UserStatusUpdateRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// GetUsers retrieves users with filtering and pagination
func (s *AdminService) GetUsers(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.WithContext(ctx).Model(&User{})

	if req.Search != "" {
		term := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", term, term, term)
	}
	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.TenantID != nil {
		query = query.Where("tenant_id = ?", *req.TenantID)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users := make([]User, 0)
	err := query.Order("created_at DESC, id DESC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	return &UserListResponse{
		Users:      users,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: int((total + int64(req.Limit) - 1) / int64(req.Limit)),
	}, nil
}

// CreateAccount creates a staff account. Merchants must belong to an existing tenant and
// HQ accounts must not belong to any.
func (s *AdminService) CreateAccount(ctx context.Context, req *AccountCreateRequest) (*User, error) {
	switch req.Role {
	case RoleMerchant:
		if req.TenantID == nil {
			return nil, fmt.Errorf("%w: merchant accounts require a tenant", ErrInvalidAccount)
		}
		if _, err := s.tenants.Get(ctx, *req.TenantID); err != nil {
			return nil, err
		}
	case RoleHQ:
		if req.TenantID != nil {
			return nil, fmt.Errorf("%w: hq accounts cannot belong to a tenant", ErrInvalidAccount)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %s", ErrInvalidAccount, req.Role)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		TenantID:  req.TenantID,
		IsActive:  true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("staff account created")
	user.Password = ""
	return &user, nil
}

// SetActive activates or deactivates an account
func (s *AdminService) SetActive(ctx context.Context, userID uint, active bool) error {
	result := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update user status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "is_active": active}).Info("user status changed")
	return nil
}
