package server

import (
	"ripple/internal/middleware"
	"ripple/internal/models"
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultListLimit       = 20
	defaultListMemberLimit = 20
)

type listRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	CoverURL    *string `json:"cover_url"`
	IsPrivate   bool    `json:"is_private"`
}

// CreateList handles POST /api/lists
func (s *Server) CreateList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	list, err := s.listService.Create(ctx, userID, service.ListInput{
		Title:       req.Title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(list)
}

// GetList handles GET /api/lists/:id
func (s *Server) GetList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	list, err := s.listService.Get(ctx, listID, s.viewerID(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(list)
}

// UpdateList handles PUT /api/lists/:id
func (s *Server) UpdateList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req listRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	list, err := s.listService.Update(ctx, userID, listID, service.ListInput{
		Title:       req.Title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(list)
}

// DeleteList handles DELETE /api/lists/:id
func (s *Server) DeleteList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listService.Delete(ctx, userID, listID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	middleware.CascadeDeletes.WithLabelValues("list").Inc()

	return c.JSON(fiber.Map{"message": "List deleted"})
}

// GetUserLists handles GET /api/users/:id/lists
func (s *Server) GetUserLists(c *fiber.Ctx) error {
	ctx := c.UserContext()
	ownerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultListLimit)

	lists, hasMore, err := s.listService.ByUser(ctx, ownerID, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("lists", lists, page, hasMore))
}

// JoinList handles POST /api/lists/:id/members
func (s *Server) JoinList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listService.Join(ctx, userID, listID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"message": "Joined list"})
}

// LeaveList handles DELETE /api/lists/:id/members
func (s *Server) LeaveList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listService.Leave(ctx, userID, listID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"message": "Left list"})
}

// GetListMembers handles GET /api/lists/:id/members
func (s *Server) GetListMembers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultListMemberLimit)

	members, hasMore, err := s.listService.Members(ctx, listID, s.viewerID(c), page.Page, page.Limit)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(listEnvelope("members", members, page, hasMore))
}

// AddPostToList handles POST /api/lists/:id/posts/:postId
func (s *Server) AddPostToList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.listService.AddPost(ctx, userID, listID, postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Post added to list"})
}

// RemovePostFromList handles DELETE /api/lists/:id/posts/:postId
func (s *Server) RemovePostFromList(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	listID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	if err := s.listService.RemovePost(ctx, userID, listID, postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{"message": "Post removed from list"})
}
