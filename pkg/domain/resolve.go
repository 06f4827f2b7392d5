package domain

// ResolverResult is the tagged outcome of a feed URL resolution attempt.
// Exactly one of FeedURL or Err is set; Resolver names the strategy that
// produced the result, for diagnostics.
type ResolverResult struct {
	Resolver string
	FeedURL  string
	Err      string
}

// NewResolverSuccess returns a success result carrying the resolved feed URL.
func NewResolverSuccess(resolver, feedURL string) ResolverResult {
	return ResolverResult{Resolver: resolver, FeedURL: feedURL}
}

// NewResolverError returns a failure result carrying the error message.
func NewResolverError(resolver, msg string) ResolverResult {
	return ResolverResult{Resolver: resolver, Err: msg}
}

// OK reports whether the resolution succeeded.
func (r ResolverResult) OK() bool { return r.Err == "" }
