// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"ripple/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListRepository defines the interface for curated-list operations
type ListRepository interface {
	Create(ctx context.Context, list *models.List) error
	GetByID(ctx context.Context, id uint) (*models.List, error)
	Update(ctx context.Context, list *models.List) error
	// DeleteCascade removes the list with its member and post edges in
	// one transaction and returns the cover URL (if any) for cleanup.
	DeleteCascade(ctx context.Context, listID uint) (*string, error)
	// VisibleToUser returns ownerID's lists; private ones only when the
	// viewer is the owner.
	VisibleToUser(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]*models.List, error)
	IsMember(ctx context.Context, listID, userID uint) (bool, error)
	AddMember(ctx context.Context, listID, userID uint) (added bool, err error)
	RemoveMember(ctx context.Context, listID, userID uint) (removed bool, err error)
	Members(ctx context.Context, listID uint, limit, offset int) ([]*models.ListMember, error)
	AddPost(ctx context.Context, listID, postID, addedByID uint) (added bool, err error)
	RemovePost(ctx context.Context, listID, postID uint) (removed bool, err error)
	// Counts batch-resolves member and post counts for a page of lists.
	Counts(ctx context.Context, listIDs []uint) (members map[uint]int, posts map[uint]int, err error)
}

type listRepository struct {
	db *gorm.DB
}

// NewListRepository creates a new list repository
func NewListRepository(db *gorm.DB) ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(ctx context.Context, list *models.List) error {
	return wrapErr(r.db.WithContext(ctx).Create(list).Error)
}

func (r *listRepository) GetByID(ctx context.Context, id uint) (*models.List, error) {
	var list models.List
	err := r.db.WithContext(ctx).Preload("Owner").First(&list, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("List", id)
		}
		return nil, wrapErr(err)
	}
	return &list, nil
}

func (r *listRepository) Update(ctx context.Context, list *models.List) error {
	return wrapErr(r.db.WithContext(ctx).Save(list).Error)
}

func (r *listRepository) DeleteCascade(ctx context.Context, listID uint) (*string, error) {
	var cover *string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list models.List
		if err := tx.First(&list, listID).Error; err != nil {
			return err
		}
		cover = list.CoverURL
		if err := tx.Where("list_id = ?", listID).Delete(&models.ListMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", listID).Delete(&models.ListPost{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.List{}, listID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("List", listID)
		}
		return nil, wrapErr(err)
	}
	return cover, nil
}

func (r *listRepository) VisibleToUser(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]*models.List, error) {
	var lists []*models.List
	db := r.db.WithContext(ctx).Preload("Owner").Where("owner_id = ?", ownerID)
	if ownerID != viewerID {
		db = db.Where("is_private = ?", false)
	}
	err := db.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&lists).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return lists, nil
}

func (r *listRepository) IsMember(ctx context.Context, listID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ListMember{}).
		Where("list_id = ? AND user_id = ?", listID, userID).
		Count(&count).Error
	if err != nil {
		return false, wrapErr(err)
	}
	return count > 0, nil
}

func (r *listRepository) AddMember(ctx context.Context, listID, userID uint) (bool, error) {
	member := models.ListMember{ListID: listID, UserID: userID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&member)
	if result.Error != nil {
		return false, wrapErr(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *listRepository) RemoveMember(ctx context.Context, listID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("list_id = ? AND user_id = ?", listID, userID).
		Delete(&models.ListMember{})
	if result.Error != nil {
		return false, wrapErr(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *listRepository) Members(ctx context.Context, listID uint, limit, offset int) ([]*models.ListMember, error) {
	var members []*models.ListMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("list_id = ?", listID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&members).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return members, nil
}

func (r *listRepository) AddPost(ctx context.Context, listID, postID, addedByID uint) (bool, error) {
	edge := models.ListPost{ListID: listID, PostID: postID, AddedByID: addedByID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&edge)
	if result.Error != nil {
		return false, wrapErr(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *listRepository) RemovePost(ctx context.Context, listID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("list_id = ? AND post_id = ?", listID, postID).
		Delete(&models.ListPost{})
	if result.Error != nil {
		return false, wrapErr(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *listRepository) Counts(ctx context.Context, listIDs []uint) (map[uint]int, map[uint]int, error) {
	if len(listIDs) == 0 {
		return map[uint]int{}, map[uint]int{}, nil
	}
	var memberRows []idCount
	if err := r.db.WithContext(ctx).
		Model(&models.ListMember{}).
		Select("list_id AS id, COUNT(*) AS cnt").
		Where("list_id IN ?", listIDs).
		Group("list_id").
		Scan(&memberRows).Error; err != nil {
		return nil, nil, wrapErr(err)
	}
	var postRows []idCount
	if err := r.db.WithContext(ctx).
		Model(&models.ListPost{}).
		Select("list_id AS id, COUNT(*) AS cnt").
		Where("list_id IN ?", listIDs).
		Group("list_id").
		Scan(&postRows).Error; err != nil {
		return nil, nil, wrapErr(err)
	}
	return countMap(memberRows), countMap(postRows), nil
}
