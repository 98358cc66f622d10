package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant represents one customer organization. Every business record in the
// system hangs off a tenant through a mandatory TenantID foreign key.
type Tenant struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"type:varchar(100);not null"`
	// Subdomain routes the public site. Unique and never mutated after signup:
	// changing it would break bookmarked customer URLs.
	Subdomain string         `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Plan      string         `json:"plan" gorm:"type:varchar(20);default:'free'"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Plan tiers
const (
	PlanFree = "free"
	PlanPro  = "pro"
)
