package model

import "time"

// Template holds the tenant's selected site template and its customization
// payload. The payload is opaque to this service: it is stored as JSON and
// handed to the external page renderer as-is.
type Template struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TenantID      uint      `json:"tenant_id" gorm:"index;not null"`
	Name          string    `json:"name" gorm:"type:varchar(100);not null"`
	Vertical      string    `json:"vertical" gorm:"type:varchar(50);not null"`
	Customization string    `json:"customization" gorm:"type:jsonb;default:'{}'"`
	Active        bool      `json:"active" gorm:"default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Known template verticals
const (
	VerticalRestaurant = "restaurant"
	VerticalGym        = "gym"
	VerticalLawOffice  = "law-office"
	VerticalStore      = "store"
	VerticalAgency     = "agency"
)

// Settings holds the tenant-wide site settings shown on every page
type Settings struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"uniqueIndex;not null"`
	SiteTitle    string    `json:"site_title" gorm:"type:varchar(200)"`
	LogoURL      string    `json:"logo_url" gorm:"type:varchar(500)"`
	PrimaryColor string    `json:"primary_color" gorm:"type:varchar(20)"`
	ContactEmail string    `json:"contact_email" gorm:"type:varchar(100)"`
	ContactPhone string    `json:"contact_phone" gorm:"type:varchar(30)"`
	Address      string    `json:"address" gorm:"type:varchar(300)"`
	Social       string    `json:"social" gorm:"type:jsonb;default:'{}'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
