package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/v1/posts/:id/like
// @Summary Like a post
// @Tags likes
// @Produce json
// @Param id path int true "Post ID"
// @Success 201 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.like(c, models.PostTarget, true)
}

// UnlikePost handles DELETE /api/v1/posts/:id/like
// @Summary Remove your like from a post
// @Tags likes
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.like(c, models.PostTarget, false)
}

// LikeComment handles POST /api/v1/comments/:id/like
// @Summary Like a comment
// @Tags likes
// @Produce json
// @Param id path int true "Comment ID"
// @Success 201 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.like(c, models.CommentTarget, true)
}

// UnlikeComment handles DELETE /api/v1/comments/:id/like
// @Summary Remove your like from a comment
// @Tags likes
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} service.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id}/like [delete]
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	return s.like(c, models.CommentTarget, false)
}

func (s *Server) like(c *fiber.Ctx, target func(uint) models.LikeTarget, like bool) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	if like {
		state, err := s.likes.Like(c.UserContext(), middleware.ViewerID(c), target(id))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(state)
	}
	state, err := s.likes.Unlike(c.UserContext(), middleware.ViewerID(c), target(id))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(state)
}
