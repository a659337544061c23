package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/storage"
)

// PostService owns post mutations and the single-post detail view.
type PostService struct {
	postRepo repository.PostRepository
	engRepo  repository.EngagementRepository
	resolver *EngagementResolver
	cleaner  storage.Cleaner
}

// NewPostService creates a new post service
func NewPostService(
	postRepo repository.PostRepository,
	engRepo repository.EngagementRepository,
	resolver *EngagementResolver,
	cleaner storage.Cleaner,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		engRepo:  engRepo,
		resolver: resolver,
		cleaner:  cleaner,
	}
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Media   []models.Media
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:  in.UserID,
		Content: in.Content,
	}
	for i := range in.Media {
		in.Media[i].OrderIndex = i
		in.Media[i].CommentID = nil
	}
	post.Media = in.Media
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.Get(ctx, post.ID, in.UserID)
}

// Get returns the single-post detail view: full projection with the
// comment count including replies.
func (s *PostService) Get(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.resolver.ResolvePosts(ctx, []*models.Post{post}, viewerID, PostResolveOptions{
		Bookmarks:     true,
		TotalComments: true,
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

type UpdatePostInput struct {
	UserID  uint
	PostID  uint
	Content string
	Media   []models.Media
}

// Update replaces content and the entire media set in one step.
func (s *PostService) Update(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	post.Content = in.Content
	removed, err := s.postRepo.UpdateWithMedia(ctx, post, in.Media)
	if err != nil {
		return nil, err
	}
	s.cleaner.Remove(ctx, removed)
	return s.Get(ctx, in.PostID, in.UserID)
}

// Delete removes the post and everything hanging off it: media,
// comments and their replies, likes, bookmarks, list attachments. The
// cascade is all-or-nothing; blob cleanup runs only after the
// transaction commits and never fails the deletion.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	removed, err := s.postRepo.DeleteCascade(ctx, postID)
	if err != nil {
		return err
	}
	s.cleaner.Remove(ctx, removed)
	return nil
}

// ToggleLike flips the viewer's like edge. Check-then-act; a racing
// duplicate insert is absorbed by the unique constraint and resolves as
// liked rather than an error.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	liked, err := s.engRepo.IsPostLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if liked {
		err = s.engRepo.UnlikePost(ctx, userID, postID)
	} else {
		err = s.engRepo.LikePost(ctx, userID, postID)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, postID, userID)
}

// ToggleBookmark follows the same conflict discipline as ToggleLike.
func (s *PostService) ToggleBookmark(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	bookmarked, err := s.engRepo.IsBookmarked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if bookmarked {
		err = s.engRepo.RemoveBookmark(ctx, userID, postID)
	} else {
		err = s.engRepo.AddBookmark(ctx, userID, postID)
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, postID, userID)
}
