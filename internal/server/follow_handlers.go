package server

import (
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultFollowLimit = 20

// ToggleFollow handles POST /api/users/:id/follow
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.followService.Toggle(ctx, userID, targetID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(state)
}

// RemoveFollower handles DELETE /api/followers/:id
func (s *Server) RemoveFollower(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	followerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.RemoveFollower(ctx, followerID, userID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"message": "Follower removed"})
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultFollowLimit)

	users, hasMore, err := s.followService.Followers(ctx, userID, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("followers", users, page, hasMore))
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultFollowLimit)

	users, hasMore, err := s.followService.Following(ctx, userID, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("following", users, page, hasMore))
}
