package model

import "time"

// Service is a bookable offering (training session, consultation, ...)
type Service struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	TenantID        uint      `json:"tenant_id" gorm:"index;not null"`
	Name            string    `json:"name" gorm:"type:varchar(200);not null"`
	Description     string    `json:"description" gorm:"type:text"`
	Price           float64   `json:"price" gorm:"not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"default:60"`
	Position        int       `json:"position" gorm:"not null;default:0"`
	Active          bool      `json:"active" gorm:"default:true"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
