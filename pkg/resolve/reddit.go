package resolve

import (
	"context"
	"regexp"

	"github.com/feedshed/feedshed/pkg/domain"
)

var subredditRe = regexp.MustCompile(`(?:^|reddit\.com/)r/([A-Za-z0-9_]{2,21})/?`)

// RedditResolver maps subreddit URLs, or bare "r/name" input, to the
// subreddit's RSS feed. Purely deterministic, no network access.
type RedditResolver struct{}

// NewRedditResolver creates a reddit resolver
func NewRedditResolver() *RedditResolver { return &RedditResolver{} }

// Name implements Resolver
func (r *RedditResolver) Name() string { return "reddit" }

// Supports reports whether the input names a subreddit
func (r *RedditResolver) Supports(input string) bool {
	return subredditRe.MatchString(input)
}

// Resolve synthesizes the subreddit feed URL
func (r *RedditResolver) Resolve(_ context.Context, input string) domain.ResolverResult {
	m := subredditRe.FindStringSubmatch(input)
	if m == nil {
		return domain.NewResolverError(r.Name(), "no subreddit in input")
	}
	return domain.NewResolverSuccess(r.Name(), "https://www.reddit.com/r/"+m[1]+"/.rss")
}
