package server

import (
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// updatePostRequest is the JSON body of PUT /posts/:id. Omitted fields
// are left unchanged.
type updatePostRequest struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Tags       *[]string `json:"tags"`
	TimeToRead *int      `json:"time_to_read"`
}

// ListPosts handles GET /api/v1/posts
// @Summary List posts
// @Description Newest first. pagination=false returns every post with a plain count.
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param pagination query bool false "Set to false for the full list"
// @Success 200 {object} models.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	req, err := parsePageRequest(c)
	if err != nil {
		return fail(c, err)
	}
	page, err := s.posts.ListPosts(c.UserContext(), service.ListPostsInput{
		PageRequest: req,
		All:         c.Query("pagination") == "false",
		ViewerID:    middleware.ViewerID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// SearchPosts handles GET /api/v1/posts/search
// @Summary Search posts
// @Description Case-insensitive match on title, slug or tags, optionally bounded by creation date.
// @Tags posts
// @Produce json
// @Param searchString query string false "Search term"
// @Param q query string false "Short alias of searchString"
// @Param startDate query string false "RFC3339 or YYYY-MM-DD"
// @Param endDate query string false "RFC3339 or YYYY-MM-DD, inclusive"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} models.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/search [get]
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	req, err := parsePageRequest(c)
	if err != nil {
		return fail(c, err)
	}
	page, err := s.posts.SearchPosts(c.UserContext(), service.SearchPostsInput{
		PageRequest: req,
		Query:       searchTerm(c),
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
		ViewerID:    middleware.ViewerID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(page)
}

// searchTerm reads searchString, falling back to its short alias q.
func searchTerm(c *fiber.Ctx) string {
	if term := c.Query("searchString"); term != "" {
		return term
	}
	return c.Query("q")
}

// GetPost handles GET /api/v1/posts/:slug
// @Summary Get a post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.posts.GetPost(c.UserContext(), c.Params("slug"), middleware.ViewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/v1/posts
// @Summary Create a post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string true "HTML content"
// @Param tags formData []string false "Tags, repeated or comma separated"
// @Param time_to_read formData int false "Minutes to read"
// @Param image formData file true "Featured image"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, models.NewValidationError("body", "Expected a multipart form"))
	}
	timeToRead, err := formInt(form, "time_to_read")
	if err != nil {
		return fail(c, err)
	}
	image, err := readUpload(c, "image")
	if err != nil {
		return fail(c, err)
	}

	post, err := s.posts.CreatePost(c.UserContext(), service.CreatePostInput{
		Title:      formValue(form, "title"),
		Content:    formValue(form, "content"),
		Tags:       formTags(form),
		TimeToRead: timeToRead,
		Image:      image,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/v1/posts/:id
// @Summary Update a post
// @Description Renaming a post re-allocates its slug; other edits keep it.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("body", "Invalid request body"))
	}

	post, err := s.posts.UpdatePost(c.UserContext(), id, service.UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
		TimeToRead: req.TimeToRead,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// UpdatePostImage handles PATCH /api/v1/posts/:id/image
// @Summary Replace a post's featured image
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Post ID"
// @Param image formData file true "Featured image"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/image [patch]
func (s *Server) UpdatePostImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	image, err := readUpload(c, "image")
	if err != nil {
		return fail(c, err)
	}
	if image == nil {
		return fail(c, models.NewValidationError("image", "Featured image is required"))
	}

	post, err := s.posts.UpdatePostImage(c.UserContext(), id, *image)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/v1/posts/:id
// @Summary Delete a post
// @Description Removes the post's likes, its comments and their likes, then the post.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} service.DeletedPost
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	out, err := s.cascade.DeletePost(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}
