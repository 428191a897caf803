// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post in the Techfeed application.
type Comment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CommentText string         `gorm:"type:text;not null" json:"comment_text"`
	UserID      uint           `gorm:"not null;index" json:"user_id"`
	PostID      uint           `gorm:"not null;index" json:"post_id"`
	User        User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
