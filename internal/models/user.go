// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account.
type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Username    string     `gorm:"uniqueIndex;not null;size:15" json:"username"`
	DisplayName string     `gorm:"not null" json:"name"`
	Password    string     `gorm:"not null" json:"-"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	Bio         *string    `gorm:"size:160" json:"bio,omitempty"`
	Location    *string    `gorm:"size:30" json:"location,omitempty"`
	Website     *string    `gorm:"size:100" json:"website,omitempty"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	IsVerified  bool       `gorm:"default:false" json:"is_verified"`

	// Aggregates resolved at read time; never persisted.
	FollowersCount int  `gorm:"-" json:"followers_count,omitempty"`
	FollowingCount int  `gorm:"-" json:"following_count,omitempty"`
	PostsCount     int  `gorm:"-" json:"posts_count,omitempty"`
	IsFollowing    bool `gorm:"-" json:"is_following,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
