package content

import (
	"net/url"
	"strings"
)

// MediaResolver turns a content image key into a URL a device can fetch.
type MediaResolver interface {
	Resolve(key string) string
}

// BaseURLResolver joins keys onto a public base URL. Keys that are already
// absolute URLs pass through unchanged.
type BaseURLResolver struct {
	BaseURL string
}

// Resolve implements MediaResolver.
func (r BaseURLResolver) Resolve(key string) string {
	if key == "" {
		return ""
	}
	if u, err := url.Parse(key); err == nil && u.IsAbs() {
		return key
	}
	if r.BaseURL == "" {
		return key
	}
	return strings.TrimRight(r.BaseURL, "/") + "/" + strings.TrimLeft(key, "/")
}
