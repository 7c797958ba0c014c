package cache

import (
	"fmt"
	"time"
)

const (
	PostSlugKeyPrefix = "post:slug:%s"
	DashboardKey      = "dashboard:summary"
)

const (
	DashboardTTL = 30 * time.Second
)

// PostSlugKey caches the viewer-independent part of a post read.
func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}
