// Package models contains data structures for the application's domain models.
package models

import "time"

// Comment represents a comment on a post. A comment with a nil
// ParentCommentID is top-level; otherwise it is a reply, and its parent
// is always itself top-level. Threads never nest deeper than one level.
type Comment struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	PostID          uint    `gorm:"not null;index" json:"post_id"`
	UserID          uint    `gorm:"not null;index" json:"user_id"`
	User            User    `gorm:"foreignKey:UserID" json:"user"`
	ParentCommentID *uint   `gorm:"index" json:"parent_comment_id,omitempty"`
	Content         string  `gorm:"type:text;not null" json:"content"`
	Media           []Media `gorm:"foreignKey:CommentID" json:"media"`

	// Engagement aggregates resolved at read time; never persisted.
	LikesCount   int  `gorm:"-" json:"likes_count"`
	Liked        bool `gorm:"-" json:"liked"`
	RepliesCount int  `gorm:"-" json:"replies_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTopLevel reports whether the comment anchors a thread directly under a post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentCommentID == nil
}
