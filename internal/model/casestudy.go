package model

import "time"

// CaseStudy is a published client engagement write-up (law office and agency
// verticals). Slug is unique within a tenant.
type CaseStudy struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(300);not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(300);index;not null"`
	Client    string    `json:"client" gorm:"type:varchar(200)"`
	Summary   string    `json:"summary" gorm:"type:text"`
	Content   string    `json:"content" gorm:"type:text"`
	Published bool      `json:"published" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
