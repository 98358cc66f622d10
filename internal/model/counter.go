package model

import "time"

// SequenceCounter backs per-tenant monotonic sequences (order numbers,
// display positions). Incremented with a single atomic UPDATE instead of a
// read-max-then-write, so concurrent creates never collide on a value.
type SequenceCounter struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"uniqueIndex:idx_counter_tenant_scope;not null"`
	Scope     string    `json:"scope" gorm:"type:varchar(150);uniqueIndex:idx_counter_tenant_scope;not null"`
	Value     int       `json:"value" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
