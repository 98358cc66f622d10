package model

import "time"

// TeamMember is a person shown on the tenant's "team" or "attorneys" page
type TeamMember struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Title     string    `json:"title" gorm:"type:varchar(100)"`
	Bio       string    `json:"bio" gorm:"type:text"`
	PhotoURL  string    `json:"photo_url" gorm:"type:varchar(500)"`
	Position  int       `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
