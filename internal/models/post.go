// Package models contains data structures for the application's domain models.
package models

import "time"

// MaxMediaPerItem is the most media attachments a post or comment may own.
const MaxMediaPerItem = 3

// MaxContentLen bounds post and comment text.
const MaxContentLen = 280

// Media types accepted for post and comment attachments.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeGif   = "gif"
)

// Post represents a short message authored by a user.
type Post struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	UserID  uint    `gorm:"not null;index" json:"user_id"`
	User    User    `gorm:"foreignKey:UserID" json:"user"`
	Content string  `gorm:"type:text;not null" json:"content"`
	Media   []Media `gorm:"foreignKey:PostID" json:"media"`

	// Engagement aggregates resolved at read time; never persisted.
	LikesCount     int  `gorm:"-" json:"likes_count"`
	Liked          bool `gorm:"-" json:"liked"`
	CommentsCount  int  `gorm:"-" json:"comments_count"`
	BookmarksCount int  `gorm:"-" json:"bookmarks_count,omitempty"`
	Bookmarked     bool `gorm:"-" json:"bookmarked,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Media is a single attachment owned by exactly one post or comment.
// OrderIndex values are contiguous from 0 within the owning item.
type Media struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	PostID     *uint  `gorm:"index" json:"post_id,omitempty"`
	CommentID  *uint  `gorm:"index" json:"comment_id,omitempty"`
	URL        string `gorm:"not null" json:"url"`
	Type       string `gorm:"type:varchar(10);not null" json:"type"`
	OrderIndex int    `gorm:"not null;default:0" json:"order_index"`
}

// TableName specifies the table name for GORM
func (Media) TableName() string {
	return "media"
}
