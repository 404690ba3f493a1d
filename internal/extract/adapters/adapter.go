// Package adapters holds the site-specific extraction strategies (tier 1).
// Each source registers an adapter tuned to its page shapes; the registry
// resolves the adapter for a URL, returning nil when no site matches so
// the engine falls through to generic heuristics.
package adapters

import (
	"net/url"
	"strings"

	"github.com/examwatch/examwatch/internal/extract"
)

// Registry resolves site adapters by URL
type Registry struct {
	adapters []extract.Adapter
}

// NewRegistry creates a registry with the built-in site adapters
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewUPSCAdapter())
	r.Register(NewSSCAdapter())
	return r
}

// Register adds an adapter. Registration order is trial order.
func (r *Registry) Register(a extract.Adapter) {
	r.adapters = append(r.adapters, a)
}

// Find returns the first adapter claiming the URL, or nil
func (r *Registry) Find(pageURL string) extract.Adapter {
	for _, a := range r.adapters {
		if a.CanHandle(pageURL) {
			return a
		}
	}
	return nil
}

// hostMatches reports whether the URL's host is the domain or one of its
// subdomains
func hostMatches(pageURL, domain string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
