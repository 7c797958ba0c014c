package service

import (
	"math"

	"inkwell/internal/config"
	"inkwell/internal/models"
)

// maxRowOffset caps the row offset of a page far past any real table, so
// the offset of a huge page number cannot wrap negative.
const maxRowOffset = math.MaxInt / 2

// PageRequest is a caller's paging input. Zero values select the
// listing's defaults.
type PageRequest struct {
	Page  int
	Limit int
}

// PageDefaults are the per-listing default page sizes.
type PageDefaults struct {
	Posts    int
	Search   int
	Comments int
	Max      int
}

// NewPageDefaults reads the page sizes from cfg.
func NewPageDefaults(cfg *config.Config) PageDefaults {
	d := PageDefaults{Posts: 9, Search: 10, Comments: 2, Max: 100}
	if cfg == nil {
		return d
	}
	if cfg.PostsPageSize > 0 {
		d.Posts = cfg.PostsPageSize
	}
	if cfg.SearchPageSize > 0 {
		d.Search = cfg.SearchPageSize
	}
	if cfg.CommentsPageSize > 0 {
		d.Comments = cfg.CommentsPageSize
	}
	if cfg.MaxPageSize > 0 {
		d.Max = cfg.MaxPageSize
	}
	return d
}

// resolve applies defaults and bounds. It returns the page, the limit and
// the row offset.
func (r PageRequest) resolve(defaultLimit, maxLimit int) (page, limit, offset int, err error) {
	page, limit = r.Page, r.Limit
	if page < 0 {
		return 0, 0, 0, models.NewValidationError("page", "page must be at least 1")
	}
	if limit < 0 {
		return 0, 0, 0, models.NewValidationError("limit", "limit must be positive")
	}
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > maxRowOffset/limit {
		return page, limit, maxRowOffset, nil
	}
	return page, limit, (page - 1) * limit, nil
}
