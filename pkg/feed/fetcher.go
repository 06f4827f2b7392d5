package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/feedshed/feedshed/pkg/domain"
)

// FailureKind classifies a fetch failure; each kind maps to a subscription
// lifecycle status.
type FailureKind string

// fetch failure kinds
const (
	FailTimeout     FailureKind = "timeout"
	FailUnreachable FailureKind = "unreachable"
	FailInvalid     FailureKind = "invalid"
)

// FetchError is a typed fetch failure, attributable to the owning
// subscription.
type FetchError struct {
	Kind FailureKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Status returns the subscription status matching the failure kind
func (e *FetchError) Status() domain.Status {
	switch e.Kind {
	case FailTimeout:
		return domain.StatusTimeout
	case FailInvalid:
		return domain.StatusInvalid
	default:
		return domain.StatusUnreachable
	}
}

// Fetcher retrieves and parses RSS/Atom feeds over HTTP
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewFetcher creates a feed fetcher with a bounded per-request timeout and
// a descriptive user agent. Feed sources are untrusted and slow, so the
// timeout is mandatory.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = "feedshed/1.0 (+https://github.com/feedshed/feedshed)"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fetch retrieves feedURL and parses it into normalized raw items. Failures
// come back as *FetchError so the caller can set the subscription status.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]domain.RawItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: FailInvalid, URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyTransportError(err), URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Kind: FailUnreachable, URL: feedURL,
			Err: fmt.Errorf("unexpected status code: %d", resp.StatusCode)}
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{Kind: FailTimeout, URL: feedURL, Err: ctx.Err()}
		}
		return nil, &FetchError{Kind: FailInvalid, URL: feedURL, Err: err}
	}

	source := parsed.Title
	items := make([]domain.RawItem, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		raw := domain.RawItem{
			Title:   entry.Title,
			Link:    entry.Link,
			Source:  source,
			Content: entry.Content,
		}
		if raw.Content == "" {
			raw.Content = entry.Description
		}

		// published falls back to updated; zero means "unknown", the
		// reconciler substitutes the fetch time downstream
		if entry.PublishedParsed != nil {
			raw.Published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			raw.Published = *entry.UpdatedParsed
		}

		items = append(items, raw)
	}

	return items, nil
}

// classifyTransportError maps a transport failure to a failure kind
func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailTimeout
	}
	return FailUnreachable
}
