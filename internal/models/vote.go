package models

import "time"

// Vote represents a user's upvote on a post.
// The combination of UserID and PostID must be unique; the store enforces
// this with a composite unique index so concurrent duplicate votes cannot
// both succeed.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"-"`
	Post Post `gorm:"foreignKey:PostID" json:"-"`
}
