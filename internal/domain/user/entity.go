// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"gorm.io/gorm"
)

// Roles a user can hold
const (
	RoleCustomer = auth.RoleCustomer
	RoleMerchant = auth.RoleMerchant
	RoleHQ       = auth.RoleHQ
)

// User represents the user entity
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password    string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	FirstName   string         `gorm:"size:100" json:"first_name"`
	LastName    string         `gorm:"size:100" json:"last_name"`
	Role        string         `gorm:"size:20;not null;default:'customer';index" json:"role"`
	TenantID    *uint          `gorm:"index" json:"tenant_id,omitempty"` // Merchants only
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to handle business logic before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	// Email should be lowercase
	u.Email = strings.ToLower(u.Email)
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// GetFullName returns the user's full name
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// GetDisplayName returns display name (full name or email)
func (u *User) GetDisplayName() string {
	fullName := u.GetFullName()
	if fullName != "" {
		return fullName
	}
	return u.Email
}

// Identity is the token view of the user
func (u *User) Identity() auth.Identity {
	return auth.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     u.Role,
		TenantID: u.TenantID,
	}
}

// IsValidRole reports whether role is one of the known roles
func IsValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleMerchant, RoleHQ:
		return true
	}
	return false
}
