package model

import "time"

// Post is a blog post. Slug is unique within a tenant, not globally.
type Post struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	TenantID    uint       `json:"tenant_id" gorm:"index;not null"`
	Title       string     `json:"title" gorm:"type:varchar(300);not null"`
	Slug        string     `json:"slug" gorm:"type:varchar(300);index;not null"`
	Excerpt     string     `json:"excerpt" gorm:"type:text"`
	Content     string     `json:"content" gorm:"type:text"`
	Author      string     `json:"author" gorm:"type:varchar(100)"`
	Published   bool       `json:"published" gorm:"default:false"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Comment statuses
const (
	CommentPending  = "pending"
	CommentApproved = "approved"
)

// Comment is a public reader comment under a post. Deleting a post removes
// its comments with it.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	PostID    uint      `json:"post_id" gorm:"index;not null"`
	Author    string    `json:"author" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(100)"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Status    string    `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
