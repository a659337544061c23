// Package models contains data structures for the application's domain models.
package models

import "time"

// List title and description bounds, enforced defensively in the service layer.
const (
	MaxListTitleLen       = 50
	MaxListDescriptionLen = 160
)

// List is a user-curated collection of posts. A private list's contents
// and membership are visible only to its owner and members.
type List struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OwnerID     uint    `gorm:"not null;index" json:"owner_id"`
	Owner       User    `gorm:"foreignKey:OwnerID" json:"owner"`
	Title       string  `gorm:"not null;size:50" json:"title"`
	Description *string `gorm:"size:160" json:"description,omitempty"`
	CoverURL    *string `json:"cover_url,omitempty"`
	IsPrivate   bool    `gorm:"default:false" json:"is_private"`

	MembersCount int `gorm:"-" json:"members_count,omitempty"`
	PostsCount   int `gorm:"-" json:"posts_count,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListMember links a user to a list. The owner is implicit and never a
// member row.
type ListMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListID    uint      `gorm:"not null;uniqueIndex:idx_list_member_pair" json:"list_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_list_member_pair;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"added_at"`
}

// ListPost attaches a post to a list.
type ListPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListID    uint      `gorm:"not null;uniqueIndex:idx_list_post_pair" json:"list_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_list_post_pair;index" json:"post_id"`
	AddedByID uint      `gorm:"not null" json:"added_by"`
	CreatedAt time.Time `json:"added_at"`
}
