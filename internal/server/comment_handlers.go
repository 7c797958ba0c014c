package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// ListComments handles GET /api/v1/posts/:id/comments
// @Summary List a post's comments
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page[models.Comment]
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	req, err := parsePageRequest(c)
	if err != nil {
		return fail(c, err)
	}
	page, err := s.comments.ListComments(c.UserContext(), service.ListCommentsInput{
		PageRequest: req,
		PostID:      postID,
		ViewerID:    middleware.ViewerID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// CreateComment handles POST /api/v1/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("body", "Invalid request body"))
	}
	comment, err := s.comments.CreateComment(c.UserContext(), postID, middleware.ViewerID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/v1/comments/:id
// @Summary Edit your own comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param request body commentRequest true "Comment"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("body", "Invalid request body"))
	}
	comment, err := s.comments.UpdateComment(c.UserContext(), id, middleware.ViewerID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete your own comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} service.DeletedComment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	out, err := s.cascade.DeleteComment(c.UserContext(), id, middleware.ViewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}
