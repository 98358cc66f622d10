package model

import "time"

// Booking is an appointment for a service submitted from the public site
// (gym and law office verticals)
type Booking struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	ServiceID uint      `json:"service_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(100);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	Date      time.Time `json:"date" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Service Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
}
