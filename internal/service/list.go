package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/storage"
)

// ListService owns curated lists: lifecycle, membership and post
// attachment.
type ListService struct {
	listRepo repository.ListRepository
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	cleaner  storage.Cleaner
}

// NewListService creates a new list service
func NewListService(
	listRepo repository.ListRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	cleaner storage.Cleaner,
) *ListService {
	return &ListService{
		listRepo: listRepo,
		postRepo: postRepo,
		userRepo: userRepo,
		cleaner:  cleaner,
	}
}

type ListInput struct {
	Title       string
	Description *string
	CoverURL    *string
	IsPrivate   bool
}

func validateListInput(in ListInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(in.Title) > models.MaxListTitleLen {
		return models.NewValidationError("Title too long (max 50 characters)")
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > models.MaxListDescriptionLen {
		return models.NewValidationError("Description too long (max 160 characters)")
	}
	return nil
}

func (s *ListService) Create(ctx context.Context, ownerID uint, in ListInput) (*models.List, error) {
	if err := validateListInput(in); err != nil {
		return nil, err
	}
	list := &models.List{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		CoverURL:    in.CoverURL,
		IsPrivate:   in.IsPrivate,
	}
	if err := s.listRepo.Create(ctx, list); err != nil {
		return nil, err
	}
	return s.listRepo.GetByID(ctx, list.ID)
}

// Get returns a list with member/post counts. Private lists are
// readable only by owner and members.
func (s *ListService) Get(ctx context.Context, listID, viewerID uint) (*models.List, error) {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, list, viewerID); err != nil {
		return nil, err
	}
	if err := s.attachCounts(ctx, []*models.List{list}); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *ListService) authorizeRead(ctx context.Context, list *models.List, viewerID uint) error {
	if !list.IsPrivate || list.OwnerID == viewerID {
		return nil
	}
	member, err := s.listRepo.IsMember(ctx, list.ID, viewerID)
	if err != nil {
		return err
	}
	if !member {
		return models.NewForbiddenError("This list is private")
	}
	return nil
}

func (s *ListService) attachCounts(ctx context.Context, lists []*models.List) error {
	if len(lists) == 0 {
		return nil
	}
	ids := make([]uint, len(lists))
	for i, l := range lists {
		ids[i] = l.ID
	}
	members, posts, err := s.listRepo.Counts(ctx, ids)
	if err != nil {
		return err
	}
	for _, l := range lists {
		l.MembersCount = members[l.ID]
		l.PostsCount = posts[l.ID]
	}
	return nil
}

func (s *ListService) Update(ctx context.Context, userID, listID uint, in ListInput) (*models.List, error) {
	if err := validateListInput(in); err != nil {
		return nil, err
	}
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list.OwnerID != userID {
		return nil, models.NewForbiddenError("You can only update your own lists")
	}

	var replacedCover *string
	if list.CoverURL != nil && (in.CoverURL == nil || *in.CoverURL != *list.CoverURL) {
		replacedCover = list.CoverURL
	}
	list.Title = in.Title
	list.Description = in.Description
	list.CoverURL = in.CoverURL
	list.IsPrivate = in.IsPrivate
	if err := s.listRepo.Update(ctx, list); err != nil {
		return nil, err
	}
	if replacedCover != nil {
		s.cleaner.Remove(ctx, []string{*replacedCover})
	}
	return s.Get(ctx, listID, userID)
}

func (s *ListService) Delete(ctx context.Context, userID, listID uint) error {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID != userID {
		return models.NewForbiddenError("You can only delete your own lists")
	}
	cover, err := s.listRepo.DeleteCascade(ctx, listID)
	if err != nil {
		return err
	}
	if cover != nil {
		s.cleaner.Remove(ctx, []string{*cover})
	}
	return nil
}

// ByUser returns ownerID's lists; private ones only for the owner.
func (s *ListService) ByUser(ctx context.Context, ownerID, viewerID uint, page, limit int) ([]*models.List, bool, error) {
	lists, err := s.listRepo.VisibleToUser(ctx, ownerID, viewerID, limit, Offset(page, limit))
	if err != nil {
		return nil, false, err
	}
	if err := s.attachCounts(ctx, lists); err != nil {
		return nil, false, err
	}
	return lists, pageFull(len(lists), limit), nil
}

// Join adds the viewer as a member. The owner is implicit and may not
// hold a member row.
func (s *ListService) Join(ctx context.Context, userID, listID uint) error {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID == userID {
		return models.NewForbiddenError("Owners cannot join their own list")
	}
	if list.IsPrivate {
		return models.NewForbiddenError("This list is private")
	}
	// Duplicate joins are absorbed; membership is a set.
	if _, err := s.listRepo.AddMember(ctx, listID, userID); err != nil {
		return err
	}
	return nil
}

// Leave removes the viewer's membership.
func (s *ListService) Leave(ctx context.Context, userID, listID uint) error {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID == userID {
		return models.NewForbiddenError("Owners cannot leave their own list")
	}
	removed, err := s.listRepo.RemoveMember(ctx, listID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Membership", listID)
	}
	return nil
}

// Members lists a list's members; private lists only for owner/members.
func (s *ListService) Members(ctx context.Context, listID, viewerID uint, page, limit int) ([]*models.ListMember, bool, error) {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, false, err
	}
	if err := s.authorizeRead(ctx, list, viewerID); err != nil {
		return nil, false, err
	}
	members, err := s.listRepo.Members(ctx, listID, limit, Offset(page, limit))
	if err != nil {
		return nil, false, err
	}
	return members, pageFull(len(members), limit), nil
}

// AddPost attaches a post to a list. Owner and members may attach.
func (s *ListService) AddPost(ctx context.Context, userID, listID, postID uint) error {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID != userID {
		member, err := s.listRepo.IsMember(ctx, listID, userID)
		if err != nil {
			return err
		}
		if !member {
			return models.NewForbiddenError("Only the owner and members can add posts")
		}
	}
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return err
	}
	// Duplicate attachments are absorbed; attachment is a set.
	if _, err := s.listRepo.AddPost(ctx, listID, postID, userID); err != nil {
		return err
	}
	return nil
}

// RemovePost detaches a post from a list.
func (s *ListService) RemovePost(ctx context.Context, userID, listID, postID uint) error {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if list.OwnerID != userID {
		member, err := s.listRepo.IsMember(ctx, listID, userID)
		if err != nil {
			return err
		}
		if !member {
			return models.NewForbiddenError("Only the owner and members can remove posts")
		}
	}
	removed, err := s.listRepo.RemovePost(ctx, listID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}
