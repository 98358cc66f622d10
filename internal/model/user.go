package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a human actor administering one tenant
type User struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Email      string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password   string         `json:"-" gorm:"type:varchar(255);not null"`
	Name       string         `json:"name" gorm:"type:varchar(100)"`
	Role       string         `json:"role" gorm:"type:varchar(20);not null;default:'viewer'"`
	TenantID   uint           `json:"tenant_id" gorm:"index;not null"`
	TemplateID *uint          `json:"template_id,omitempty" gorm:"index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

// Roles within a tenant. The first user created for a tenant is the admin.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)
