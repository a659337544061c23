// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"ripple/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository owns the like, comment-like and bookmark edge
// tables. All count lookups are batched per page of content ids; no
// per-item queries.
type EngagementRepository interface {
	// Batched read side.
	PostLikeCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	PostBookmarkCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)
	BookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	TopLevelCommentCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)
	TotalCommentCount(ctx context.Context, postID uint) (int, error)
	CommentLikeCounts(ctx context.Context, commentIDs []uint) (map[uint]int, error)
	LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error)
	ReplyCounts(ctx context.Context, commentIDs []uint) (map[uint]int, error)

	// Edge toggles. Inserts absorb duplicate-edge races.
	IsPostLiked(ctx context.Context, userID, postID uint) (bool, error)
	LikePost(ctx context.Context, userID, postID uint) error
	UnlikePost(ctx context.Context, userID, postID uint) error
	IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error)
	LikeComment(ctx context.Context, userID, commentID uint) error
	UnlikeComment(ctx context.Context, userID, commentID uint) error
	IsBookmarked(ctx context.Context, userID, postID uint) (bool, error)
	AddBookmark(ctx context.Context, userID, postID uint) error
	RemoveBookmark(ctx context.Context, userID, postID uint) error
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) PostLikeCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	if len(postIDs) == 0 {
		return map[uint]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("post_id AS id, COUNT(*) AS cnt").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return countMap(rows), nil
}

func (r *engagementRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

func (r *engagementRepository) PostBookmarkCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	if len(postIDs) == 0 {
		return map[uint]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Select("post_id AS id, COUNT(*) AS cnt").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return countMap(rows), nil
}

func (r *engagementRepository) BookmarkedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if userID == 0 || len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

// TopLevelCommentCounts counts only thread anchors; replies are excluded.
func (r *engagementRepository) TopLevelCommentCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	if len(postIDs) == 0 {
		return map[uint]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id AS id, COUNT(*) AS cnt").
		Where("post_id IN ? AND parent_comment_id IS NULL", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return countMap(rows), nil
}

// TotalCommentCount includes replies; used by the single-post detail view.
func (r *engagementRepository) TotalCommentCount(ctx context.Context, postID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, wrapErr(err)
	}
	return int(count), nil
}

func (r *engagementRepository) CommentLikeCounts(ctx context.Context, commentIDs []uint) (map[uint]int, error) {
	if len(commentIDs) == 0 {
		return map[uint]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Select("comment_id AS id, COUNT(*) AS cnt").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return countMap(rows), nil
}

func (r *engagementRepository) LikedCommentIDs(ctx context.Context, userID uint, commentIDs []uint) ([]uint, error) {
	if userID == 0 || len(commentIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id IN ?", userID, commentIDs).
		Pluck("comment_id", &ids).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return ids, nil
}

// ReplyCounts counts direct replies only; the thread model is one level deep.
func (r *engagementRepository) ReplyCounts(ctx context.Context, commentIDs []uint) (map[uint]int, error) {
	if len(commentIDs) == 0 {
		return map[uint]int{}, nil
	}
	var rows []idCount
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("parent_comment_id AS id, COUNT(*) AS cnt").
		Where("parent_comment_id IN ?", commentIDs).
		Group("parent_comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return countMap(rows), nil
}

func (r *engagementRepository) IsPostLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(err)
	}
	return count > 0, nil
}

func (r *engagementRepository) LikePost(ctx context.Context, userID, postID uint) error {
	like := models.Like{UserID: userID, PostID: postID}
	return wrapErr(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error)
}

func (r *engagementRepository) UnlikePost(ctx context.Context, userID, postID uint) error {
	return wrapErr(r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{}).Error)
}

func (r *engagementRepository) IsCommentLiked(ctx context.Context, userID, commentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommentLike{}).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(err)
	}
	return count > 0, nil
}

func (r *engagementRepository) LikeComment(ctx context.Context, userID, commentID uint) error {
	like := models.CommentLike{UserID: userID, CommentID: commentID}
	return wrapErr(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error)
}

func (r *engagementRepository) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	return wrapErr(r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{}).Error)
}

func (r *engagementRepository) IsBookmarked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(err)
	}
	return count > 0, nil
}

func (r *engagementRepository) AddBookmark(ctx context.Context, userID, postID uint) error {
	bookmark := models.Bookmark{UserID: userID, PostID: postID}
	return wrapErr(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&bookmark).Error)
}

func (r *engagementRepository) RemoveBookmark(ctx context.Context, userID, postID uint) error {
	return wrapErr(r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Bookmark{}).Error)
}
