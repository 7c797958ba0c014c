package models

// Page is the shared shape of every listing read. CurrentPage and
// TotalPages are zero when the listing was requested unpaginated.
type Page[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"current_page,omitempty"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
}

// NewPage assembles a page and derives TotalPages from total and limit.
// Items is never nil so an out-of-range page serializes as [].
func NewPage[T any](items []T, page, limit int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  TotalPages(total, limit),
		TotalItems:  total,
	}
}

// TotalPages is ceil(total/limit); zero for an empty set or a non-positive limit.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Dashboard is the admin summary read.
type Dashboard struct {
	TotalUsers     int64            `json:"total_users"`
	TotalComments  int64            `json:"total_comments"`
	TotalPosts     int64            `json:"total_posts"`
	RecentUsers    []UserSummary    `json:"recent_users"`
	RecentComments []CommentSummary `json:"recent_comments"`
	RecentPosts    []PostSummary    `json:"recent_posts"`
}
