package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultFeedLimit = 10
)

// GetGlobalFeed handles GET /api/feed
func (s *Server) GetGlobalFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page := parsePagination(c, defaultFeedLimit)
	middleware.FeedRequests.WithLabelValues("global").Inc()

	feed, err := s.feedService.Global(ctx, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("posts", feed.Posts, page, feed.HasMore))
}

// GetTrendingFeed handles GET /api/feed/trending
func (s *Server) GetTrendingFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	page := parsePagination(c, defaultFeedLimit)
	middleware.FeedRequests.WithLabelValues("trending").Inc()

	feed, err := s.feedService.Trending(ctx, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("posts", feed.Posts, page, feed.HasMore))
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultFeedLimit)
	middleware.FeedRequests.WithLabelValues("user").Inc()

	feed, err := s.feedService.ByUser(ctx, userID, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("posts", feed.Posts, page, feed.HasMore))
}

// GetListFeed handles GET /api/lists/:id/posts
func (s *Server) GetListFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultFeedLimit)
	middleware.FeedRequests.WithLabelValues("list").Inc()

	feed, err := s.feedService.List(ctx, listID, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("posts", feed.Posts, page, feed.HasMore))
}

// GetBookmarksFeed handles GET /api/bookmarks?q=...
func (s *Server) GetBookmarksFeed(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, defaultFeedLimit)
	middleware.FeedRequests.WithLabelValues("bookmarks").Inc()

	feed, err := s.feedService.Bookmarks(ctx, userID, c.Query("q"), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("posts", feed.Posts, page, feed.HasMore))
}
