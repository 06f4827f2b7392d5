// Package resolve turns arbitrary user input (a site URL, a YouTube channel
// page, a subreddit) into a concrete machine-readable feed URL.
package resolve

import (
	"context"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedshed/feedshed/pkg/domain"
)

// Resolver is one strategy for mapping user input to a feed URL. Supports
// filters candidates; Resolve produces the final outcome for inputs the
// resolver claims.
type Resolver interface {
	Name() string
	Supports(input string) bool
	Resolve(ctx context.Context, input string) domain.ResolverResult
}

// Chain tries resolvers in fixed priority order. A resolver that does not
// support the input is skipped; the first supporting resolver terminates the
// chain with its result, success or error. An error from a claiming resolver
// is final, not a try-the-next signal.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a chain over the given resolvers, in order
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// DefaultChain builds the standard resolver order: platform-specific
// resolvers first, generic feed discovery as the fallback.
func DefaultChain(client *http.Client, userAgent string) *Chain {
	return NewChain(
		NewYouTubeResolver(client, userAgent),
		NewRedditResolver(),
		NewDiscoveryResolver(client, userAgent),
	)
}

// Resolve runs the chain for the input
func (c *Chain) Resolve(ctx context.Context, input string) domain.ResolverResult {
	for _, r := range c.resolvers {
		if !r.Supports(input) {
			continue
		}
		res := r.Resolve(ctx, input)
		if res.OK() {
			lgr.Printf("[DEBUG] resolved %q to %s via %s", input, res.FeedURL, r.Name())
		} else {
			lgr.Printf("[DEBUG] resolver %s failed for %q: %s", r.Name(), input, res.Err)
		}
		return res
	}
	return domain.NewResolverError("chain", "could not resolve feed URL from input")
}

// newScrapeClient returns the http client used by page-scraping resolvers
func newScrapeClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: 15 * time.Second}
}
