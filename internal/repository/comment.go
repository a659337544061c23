// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"ripple/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListTopLevel returns thread anchors, newest first.
	ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	// ListReplies returns direct replies oldest first, so the page reads
	// as a conversation.
	ListReplies(ctx context.Context, commentID uint, limit, offset int) ([]*models.Comment, error)
	// UpdateWithMedia replaces content and the entire media set in one
	// transaction and returns the replaced media URLs for cleanup.
	UpdateWithMedia(ctx context.Context, comment *models.Comment, media []models.Media) ([]string, error)
	// DeleteCascade removes the comment, its direct replies and all of
	// their likes and media in a single transaction, returning removed
	// media URLs for best-effort blob cleanup.
	DeleteCascade(ctx context.Context, commentID uint) ([]string, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return wrapErr(r.db.WithContext(ctx).Create(comment).Error)
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, wrapErr(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, commentID uint, limit, offset int) ([]*models.Comment, error) {
	var replies []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		Where("parent_comment_id = ?", commentID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&replies).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return replies, nil
}

func (r *commentRepository) UpdateWithMedia(ctx context.Context, comment *models.Comment, media []models.Media) ([]string, error) {
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Media{}).
			Where("comment_id = ?", comment.ID).
			Pluck("url", &removed).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		for i := range media {
			media[i].ID = 0
			media[i].CommentID = &comment.ID
			media[i].PostID = nil
			media[i].OrderIndex = i
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Comment{}).
			Where("id = ?", comment.ID).
			Updates(map[string]interface{}{"content": comment.Content, "updated_at": tx.NowFunc()}).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return removed, nil
}

func (r *commentRepository) DeleteCascade(ctx context.Context, commentID uint) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Replies are one level deep, so the descendant set is the
		// direct reply ids plus the comment itself.
		var replyIDs []uint
		if err := tx.Model(&models.Comment{}).
			Where("parent_comment_id = ?", commentID).
			Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		targets := append(replyIDs, commentID)

		if err := tx.Model(&models.Media{}).
			Where("comment_id IN ?", targets).
			Pluck("url", &urls).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", targets).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN ?", targets).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		if len(replyIDs) > 0 {
			if err := tx.Where("id IN ?", replyIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Comment{}, commentID).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return urls, nil
}
