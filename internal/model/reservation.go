package model

import "time"

// Reservation is a table reservation submitted from the public site
// (restaurant vertical)
type Reservation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(100);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	PartySize int       `json:"party_size" gorm:"not null"`
	Date      time.Time `json:"date" gorm:"not null"`
	Notes     string    `json:"notes" gorm:"type:text"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
