package model

import "time"

// Order is a confirmed purchase created from a cart at checkout.
// Number is a per-tenant sequence so customers see small, stable order numbers.
type Order struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	TenantID      uint        `json:"tenant_id" gorm:"index;not null"`
	Number        int         `json:"number" gorm:"not null"`
	CustomerName  string      `json:"customer_name" gorm:"type:varchar(100);not null"`
	CustomerEmail string      `json:"customer_email" gorm:"type:varchar(100);not null"`
	Total         float64     `json:"total" gorm:"not null"`
	Status        string      `json:"status" gorm:"type:varchar(20);not null;default:'PENDING'"`
	Notes         string      `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Items         []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`
}

// OrderItem snapshots the product name and price at purchase time so later
// product edits do not rewrite order history.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"index;not null"`
	ProductID uint    `json:"product_id" gorm:"index;not null"`
	Name      string  `json:"name" gorm:"type:varchar(200);not null"`
	Price     float64 `json:"price" gorm:"not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
}
