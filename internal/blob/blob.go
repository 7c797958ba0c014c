// Package blob is the binary-storage collaborator used for featured images.
package blob

import (
	"context"
	"net/url"
	"path"
	"strings"
)

// Upload is one file handed to the store.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Store uploads images and releases them by ref.
type Store interface {
	Upload(ctx context.Context, in Upload) (string, error)
	Delete(ctx context.Context, ref string) error
}

// RefFromURL derives a blob ref from a stored URL: the trailing path
// segment without its extension. It returns "" when there is none.
func RefFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(strings.TrimRight(p, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
