package model

import "time"

// Cart is an anonymous shopper's in-progress selection, scoped by tenant and
// browser session rather than by user. Created lazily on first add.
type Cart struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	TenantID  uint       `json:"tenant_id" gorm:"index;not null"`
	SessionID string     `json:"session_id" gorm:"type:varchar(64);index;not null"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `json:"items,omitempty" gorm:"foreignKey:CartID"`
}

// CartItem is one product line in a cart
type CartItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CartID    uint      `json:"cart_id" gorm:"index;not null"`
	ProductID uint      `json:"product_id" gorm:"index;not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
