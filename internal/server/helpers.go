package server

import (
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"
	"strings"

	"inkwell/internal/blob"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// fail writes err with the status its code maps to. Unclassified errors
// are logged since the client only sees a generic message.
func fail(c *fiber.Ctx, err error) error {
	status := models.StatusForError(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a route parameter by name as a positive uint.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError(param, "Invalid "+humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a readable label:
// "id" -> "ID", "commentId" -> "comment ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(prefix) + " ID"
	}
	return param
}

// parsePageRequest reads page and limit. Absent values fall back to the
// listing's defaults; present values must be positive integers.
func parsePageRequest(c *fiber.Ctx) (service.PageRequest, error) {
	var req service.PageRequest
	var err error
	if req.Page, err = positiveQueryInt(c, "page"); err != nil {
		return req, err
	}
	if req.Limit, err = positiveQueryInt(c, "limit"); err != nil {
		return req, err
	}
	return req, nil
}

func positiveQueryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, models.NewValidationError(key, key+" must be a positive integer")
	}
	return n, nil
}

// formTags accepts tags either as repeated form values or as one comma
// separated value.
func formTags(form *multipart.Form) []string {
	if form == nil {
		return nil
	}
	return service.NormalizeTags(form.Value["tags"])
}

func formValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}

// formInt parses an optional integer form field.
func formInt(form *multipart.Form, key string) (*int, error) {
	raw := strings.TrimSpace(formValue(form, key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, models.NewValidationError(key, key+" must be an integer")
	}
	return &n, nil
}

// readUpload loads the named multipart file. It returns nil when the
// field is absent.
func readUpload(c *fiber.Ctx, field string) (*blob.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError(field, "Unable to read uploaded file")
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewValidationError(field, "Unable to read uploaded file")
	}
	return &blob.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
