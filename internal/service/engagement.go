// Package service implements the application's core business logic on
// top of the repository layer.
package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
)

// EngagementResolver batch-computes like/bookmark/comment aggregates
// for a page of posts or comments. Counts are exact at query time; a
// like recorded immediately before a read is always reflected. The
// resolver is a pure read and holds no state of its own.
type EngagementResolver struct {
	engRepo repository.EngagementRepository
}

// NewEngagementResolver creates a new engagement resolver
func NewEngagementResolver(engRepo repository.EngagementRepository) *EngagementResolver {
	return &EngagementResolver{engRepo: engRepo}
}

func idSet(ids []uint) map[uint]bool {
	m := make(map[uint]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// PostResolveOptions selects the projection attached to each post.
type PostResolveOptions struct {
	// Bookmarks attaches bookmark count and viewer-bookmarked. The
	// global feed omits these as a documented reduced projection.
	Bookmarks bool
	// TotalComments counts replies too; only the single-post detail
	// view asks for this. Everything else counts thread anchors only.
	TotalComments bool
}

// ResolvePosts annotates a page of posts in place. Every lookup is one
// batched query over the page's ids, so latency is linear in page size.
func (r *EngagementResolver) ResolvePosts(ctx context.Context, posts []*models.Post, viewerID uint, opts PostResolveOptions) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likeCounts, err := r.engRepo.PostLikeCounts(ctx, ids)
	if err != nil {
		return err
	}
	likedIDs, err := r.engRepo.LikedPostIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	commentCounts, err := r.engRepo.TopLevelCommentCounts(ctx, ids)
	if err != nil {
		return err
	}

	var bookmarkCounts map[uint]int
	var bookmarkedIDs []uint
	if opts.Bookmarks {
		if bookmarkCounts, err = r.engRepo.PostBookmarkCounts(ctx, ids); err != nil {
			return err
		}
		if bookmarkedIDs, err = r.engRepo.BookmarkedPostIDs(ctx, viewerID, ids); err != nil {
			return err
		}
	}

	liked := idSet(likedIDs)
	bookmarked := idSet(bookmarkedIDs)

	for _, p := range posts {
		p.LikesCount = likeCounts[p.ID]
		p.Liked = liked[p.ID]
		p.CommentsCount = commentCounts[p.ID]
		if opts.Bookmarks {
			p.BookmarksCount = bookmarkCounts[p.ID]
			p.Bookmarked = bookmarked[p.ID]
		}
	}

	if opts.TotalComments && len(posts) == 1 {
		total, err := r.engRepo.TotalCommentCount(ctx, posts[0].ID)
		if err != nil {
			return err
		}
		posts[0].CommentsCount = total
	}
	return nil
}

// ResolveComments annotates a page of comments in place with like
// aggregates and direct-reply counts.
func (r *EngagementResolver) ResolveComments(ctx context.Context, comments []*models.Comment, viewerID uint) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	likeCounts, err := r.engRepo.CommentLikeCounts(ctx, ids)
	if err != nil {
		return err
	}
	likedIDs, err := r.engRepo.LikedCommentIDs(ctx, viewerID, ids)
	if err != nil {
		return err
	}
	replyCounts, err := r.engRepo.ReplyCounts(ctx, ids)
	if err != nil {
		return err
	}

	liked := idSet(likedIDs)
	for _, c := range comments {
		c.LikesCount = likeCounts[c.ID]
		c.Liked = liked[c.ID]
		c.RepliesCount = replyCounts[c.ID]
	}
	return nil
}
