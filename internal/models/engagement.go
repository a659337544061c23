// Package models contains data structures for the application's domain models.
package models

import "time"

// Like is a (user, post) engagement edge. A user may like a post at most once.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_pair" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_pair;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike is a (user, comment) engagement edge.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_like_pair" json:"user_id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_like_pair;index" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark is a (user, post) save edge.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_pair;index" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_pair" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
