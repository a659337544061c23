package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
	"ripple/internal/storage"
)

// CommentService assembles the two-level comment thread view and owns
// comment mutations.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	engRepo     repository.EngagementRepository
	resolver    *EngagementResolver
	cleaner     storage.Cleaner
}

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	engRepo repository.EngagementRepository,
	resolver *EngagementResolver,
	cleaner storage.Cleaner,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		engRepo:     engRepo,
		resolver:    resolver,
		cleaner:     cleaner,
	}
}

// CommentPage is one page of a thread listing.
type CommentPage struct {
	Comments []*models.Comment
	HasMore  bool
}

// ListTopLevel returns thread anchors for a post, newest first.
func (s *CommentService) ListTopLevel(ctx context.Context, postID, viewerID uint, page, limit int) (*CommentPage, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListTopLevel(ctx, postID, limit, Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolveComments(ctx, comments, viewerID); err != nil {
		return nil, err
	}
	return &CommentPage{Comments: comments, HasMore: pageFull(len(comments), limit)}, nil
}

// ListReplies returns a comment's direct replies oldest first, the
// opposite order of top-level comments, so the page reads as a
// conversation.
func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID uint, page, limit int) (*CommentPage, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	replies, err := s.commentRepo.ListReplies(ctx, commentID, limit, Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolveComments(ctx, replies, viewerID); err != nil {
		return nil, err
	}
	return &CommentPage{Comments: replies, HasMore: pageFull(len(replies), limit)}, nil
}

type CreateCommentInput struct {
	UserID          uint
	PostID          uint
	ParentCommentID *uint
	Content         string
	Media           []models.Media
}

// Create adds a top-level comment or a reply. A reply targeting another
// reply is rejected: threads are one level deep, and silently storing a
// deeper parent would make the comment invisible to every listing.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}
	if in.ParentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
		if !parent.IsTopLevel() {
			return nil, models.NewValidationError("Replies can only target top-level comments")
		}
	}

	comment := &models.Comment{
		PostID:          in.PostID,
		UserID:          in.UserID,
		ParentCommentID: in.ParentCommentID,
		Content:         in.Content,
	}
	for i := range in.Media {
		in.Media[i].OrderIndex = i
		in.Media[i].PostID = nil
	}
	comment.Media = in.Media
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.getResolved(ctx, comment.ID, in.UserID)
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
	Media     []models.Media
}

// Update replaces content and the entire media set in one step. The
// media replacement is a full replace, not a merge.
func (s *CommentService) Update(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if err := validateContent(in.Content); err != nil {
		return nil, err
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}

	comment.Content = in.Content
	removed, err := s.commentRepo.UpdateWithMedia(ctx, comment, in.Media)
	if err != nil {
		return nil, err
	}
	s.cleaner.Remove(ctx, removed)
	return s.getResolved(ctx, comment.ID, in.UserID)
}

// Delete removes a comment. A top-level comment takes its replies with
// it in the same transaction; no orphaned replies survive.
func (s *CommentService) Delete(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	removed, err := s.commentRepo.DeleteCascade(ctx, commentID)
	if err != nil {
		return err
	}
	s.cleaner.Remove(ctx, removed)
	return nil
}

// ToggleLike flips the viewer's like edge on a comment. Check-then-act;
// a racing duplicate insert is absorbed by the unique constraint.
func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID uint) (*models.Comment, error) {
	if _, err := s.commentRepo.GetByID(ctx, commentID); err != nil {
		return nil, err
	}
	liked, err := s.engRepo.IsCommentLiked(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}
	if liked {
		err = s.engRepo.UnlikeComment(ctx, userID, commentID)
	} else {
		err = s.engRepo.LikeComment(ctx, userID, commentID)
	}
	if err != nil {
		return nil, err
	}
	return s.getResolved(ctx, commentID, userID)
}

func (s *CommentService) getResolved(ctx context.Context, commentID, viewerID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolveComments(ctx, []*models.Comment{comment}, viewerID); err != nil {
		return nil, err
	}
	return comment, nil
}
