package model

import "time"

// Product represents a sellable item (store vertical) or a menu item
// (restaurant vertical). Position orders items within a tenant's category.
type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"index;not null"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Category    string    `json:"category" gorm:"type:varchar(100);index"`
	Price       float64   `json:"price" gorm:"not null"`
	Inventory   int       `json:"inventory" gorm:"default:0"`
	Position    int       `json:"position" gorm:"not null;default:0"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
