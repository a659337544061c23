// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"ripple/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListGlobal(ctx context.Context, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListByList(ctx context.Context, listID uint, limit, offset int) ([]*models.Post, error)
	ListBookmarked(ctx context.Context, userID uint, query string, limit, offset int) ([]*models.Post, error)
	// UpdateWithMedia replaces content and the entire media set in one
	// transaction and returns the replaced media URLs for cleanup.
	UpdateWithMedia(ctx context.Context, post *models.Post, media []models.Media) ([]string, error)
	// DeleteCascade removes the post and all dependent rows (comment
	// likes, comment media, comments and replies, likes, bookmarks,
	// list attachments, own media) in a single transaction. It returns
	// every media URL that was removed so the caller can trigger
	// best-effort blob cleanup after commit.
	DeleteCascade(ctx context.Context, postID uint) ([]string, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// orderedMedia preloads attachments in their explicit order.
func orderedMedia(db *gorm.DB) *gorm.DB {
	return db.Order("media.order_index ASC")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return wrapErr(r.db.WithContext(ctx).Create(post).Error)
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, wrapErr(err)
	}
	return &post, nil
}

func (r *postRepository) ListGlobal(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		Where("user_id = ?", userID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return posts, nil
}

func (r *postRepository) ListByList(ctx context.Context, listID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		Joins("JOIN list_posts lp ON lp.post_id = posts.id").
		Where("lp.list_id = ?", listID).
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return posts, nil
}

// ListBookmarked joins through the viewer's bookmark edges rather than
// authorship. query, when non-empty, is matched case-insensitively
// against author name, username and post content.
func (r *postRepository) ListBookmarked(ctx context.Context, userID uint, query string, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	db := r.db.WithContext(ctx).
		Preload("User").
		Preload("Media", orderedMedia).
		Joins("JOIN bookmarks b ON b.post_id = posts.id").
		Joins("JOIN users u ON u.id = posts.user_id").
		Where("b.user_id = ?", userID)
	if query != "" {
		like := "%" + strings.ToLower(query) + "%"
		db = db.Where(
			"LOWER(u.display_name) LIKE ? OR LOWER(u.username) LIKE ? OR LOWER(posts.content) LIKE ?",
			like, like, like,
		)
	}
	err := db.
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateWithMedia(ctx context.Context, post *models.Post, media []models.Media) ([]string, error) {
	var removed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Media{}).
			Where("post_id = ?", post.ID).
			Pluck("url", &removed).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		for i := range media {
			media[i].ID = 0
			media[i].PostID = &post.ID
			media[i].CommentID = nil
			media[i].OrderIndex = i
		}
		if len(media) > 0 {
			if err := tx.Create(&media).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			Updates(map[string]interface{}{"content": post.Content, "updated_at": tx.NowFunc()}).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return removed, nil
}

func (r *postRepository) DeleteCascade(ctx context.Context, postID uint) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Collect descendant ids first, then delete leaves to root.
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).
			Where("post_id = ?", postID).
			Pluck("id", &commentIDs).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Media{}).
			Where("post_id = ?", postID).
			Pluck("url", &urls).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			var commentURLs []string
			if err := tx.Model(&models.Media{}).
				Where("comment_id IN ?", commentIDs).
				Pluck("url", &commentURLs).Error; err != nil {
				return err
			}
			urls = append(urls, commentURLs...)

			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
				return err
			}
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Media{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.ListPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Media{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	return urls, nil
}
