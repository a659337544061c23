package service

import (
	"context"
	"sort"

	"ripple/internal/models"
	"ripple/internal/repository"
)

// TrendingFetchFactor is the over-fetch multiplier for the trending
// candidate window. The ranker only scores the most recent
// TrendingFetchFactor*limit posts, so it approximates "trending across
// all posts" rather than guaranteeing a global top-k.
const TrendingFetchFactor = 3

// FeedService assembles the five feed variants. Every variant runs the
// same two phases: fetch a candidate page of posts with their authors
// and ordered media, then batch-enrich the page through the engagement
// resolver.
type FeedService struct {
	postRepo repository.PostRepository
	listRepo repository.ListRepository
	resolver *EngagementResolver
}

// NewFeedService creates a new feed service
func NewFeedService(postRepo repository.PostRepository, listRepo repository.ListRepository, resolver *EngagementResolver) *FeedService {
	return &FeedService{
		postRepo: postRepo,
		listRepo: listRepo,
		resolver: resolver,
	}
}

// FeedPage is one page of an assembled feed.
type FeedPage struct {
	Posts   []*models.Post
	HasMore bool
}

// Offset converts 1-based page numbers into row offsets.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// pageFull is the hasMore heuristic shared by every variant except
// trending: a full page is taken to mean more pages exist. It cannot
// distinguish "exactly one more full page, then nothing" from "more
// pages exist", so callers tolerate one extra empty fetch at the true
// end. Kept as-is because changing it changes observable API behavior.
func pageFull(returned, limit int) bool {
	return returned == limit
}

// Global returns all posts newest first. Bookmark fields are omitted
// from this variant's projection.
func (s *FeedService) Global(ctx context.Context, viewerID uint, page, limit int) (*FeedPage, error) {
	posts, err := s.postRepo.ListGlobal(ctx, limit, Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolvePosts(ctx, posts, viewerID, PostResolveOptions{}); err != nil {
		return nil, err
	}
	return &FeedPage{Posts: posts, HasMore: pageFull(len(posts), limit)}, nil
}

// ByUser returns posts authored by userID, newest first, including the
// bookmark fields the global variant omits.
func (s *FeedService) ByUser(ctx context.Context, userID, viewerID uint, page, limit int) (*FeedPage, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID, limit, Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolvePosts(ctx, posts, viewerID, PostResolveOptions{Bookmarks: true}); err != nil {
		return nil, err
	}
	return &FeedPage{Posts: posts, HasMore: pageFull(len(posts), limit)}, nil
}

// Trending scores the most recent TrendingFetchFactor*limit posts by
// unweighted engagement sum and returns the requested page of the
// scored ordering. Ties keep their incoming recency order.
func (s *FeedService) Trending(ctx context.Context, viewerID uint, page, limit int) (*FeedPage, error) {
	candidates, err := s.postRepo.ListGlobal(ctx, limit*TrendingFetchFactor, 0)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolvePosts(ctx, candidates, viewerID, PostResolveOptions{Bookmarks: true}); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return trendingScore(candidates[i]) > trendingScore(candidates[j])
	})

	offset := Offset(page, limit)
	totalScored := len(candidates)
	start := offset
	if start > totalScored {
		start = totalScored
	}
	end := start + limit
	if end > totalScored {
		end = totalScored
	}

	// Trending pages within the scored window, so hasMore is exact
	// here. Do not unify this with the page-full heuristic.
	return &FeedPage{
		Posts:   candidates[start:end],
		HasMore: totalScored > offset+limit,
	}, nil
}

func trendingScore(p *models.Post) int {
	return p.LikesCount + p.CommentsCount + p.BookmarksCount
}

// List returns posts attached to a list, newest first. A private list
// is readable only by its owner and members.
func (s *FeedService) List(ctx context.Context, listID, viewerID uint, page, limit int) (*FeedPage, error) {
	list, err := s.listRepo.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list.IsPrivate && list.OwnerID != viewerID {
		member, err := s.listRepo.IsMember(ctx, listID, viewerID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, models.NewForbiddenError("This list is private")
		}
	}

	posts, err := s.postRepo.ListByList(ctx, listID, limit, Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolvePosts(ctx, posts, viewerID, PostResolveOptions{Bookmarks: true}); err != nil {
		return nil, err
	}
	return &FeedPage{Posts: posts, HasMore: pageFull(len(posts), limit)}, nil
}

// Bookmarks returns the viewer's bookmarked posts, newest first,
// optionally filtered by a case-insensitive substring match on author
// name, username or post content.
func (s *FeedService) Bookmarks(ctx context.Context, viewerID uint, query string, page, limit int) (*FeedPage, error) {
	posts, err := s.postRepo.ListBookmarked(ctx, viewerID, query, limit, Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if err := s.resolver.ResolvePosts(ctx, posts, viewerID, PostResolveOptions{Bookmarks: true}); err != nil {
		return nil, err
	}
	return &FeedPage{Posts: posts, HasMore: pageFull(len(posts), limit)}, nil
}
