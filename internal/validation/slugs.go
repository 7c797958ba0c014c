package validation

// Slugs that would shadow a fixed route under /posts, or that read as a
// system page when linked.
var reservedPostSlugs = map[string]struct{}{
	"search":   {},
	"new":      {},
	"admin":    {},
	"api":      {},
	"comments": {},
	"like":     {},
	"swagger":  {},
	"metrics":  {},
}

// IsReservedPostSlug reports whether slug may not be stored verbatim.
func IsReservedPostSlug(slug string) bool {
	_, ok := reservedPostSlugs[slug]
	return ok
}
