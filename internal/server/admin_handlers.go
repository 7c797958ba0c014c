package server

import (
	"github.com/gofiber/fiber/v2"
)

// Dashboard handles GET /api/v1/admin/dashboard
// @Summary Admin dashboard summary
// @Tags admin
// @Produce json
// @Success 200 {object} models.Dashboard
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/dashboard [get]
func (s *Server) Dashboard(c *fiber.Ctx) error {
	d, err := s.dashboard.Summary(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(d)
}

// ListAllComments handles GET /api/v1/admin/comments
// @Summary Every comment with its post title
// @Tags admin
// @Produce json
// @Success 200 {object} models.Page[models.Comment]
// @Security BearerAuth
// @Router /admin/comments [get]
func (s *Server) ListAllComments(c *fiber.Ctx) error {
	page, err := s.comments.ListAllComments(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// DeleteCommentAdmin handles DELETE /api/v1/admin/comments/:id
// @Summary Delete any comment
// @Tags admin
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} service.DeletedComment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/comments/{id} [delete]
func (s *Server) DeleteCommentAdmin(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	out, err := s.cascade.DeleteCommentAdmin(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// SweepOrphans handles POST /api/v1/admin/maintenance/sweep-likes
// @Summary Remove likes and comments whose parents are gone
// @Tags admin
// @Produce json
// @Success 200 {object} repository.SweepResult
// @Security BearerAuth
// @Router /admin/maintenance/sweep-likes [post]
func (s *Server) SweepOrphans(c *fiber.Ctx) error {
	res, err := s.cascade.SweepOrphans(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}
