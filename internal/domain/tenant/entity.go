// internal/domain/tenant/entity.go
package tenant

import (
	"time"

	"gorm.io/gorm"
)

// Status of a tenant account
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusSuspended
}

// Tenant is a merchant selling through the storefront
type Tenant struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;size:255" json:"name"`
	Slug         string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	ContactEmail string         `gorm:"size:255" json:"contact_email"`
	Status       Status         `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for Tenant
func (Tenant) TableName() string {
	return "tenants"
}

// IsActive reports whether the tenant may sell
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}
