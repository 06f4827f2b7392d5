package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/feedshed/feedshed/pkg/domain"
)

var feedMimeTypes = map[string]bool{
	"application/rss+xml":   true,
	"application/atom+xml":  true,
	"application/feed+json": true,
}

// DiscoveryResolver is the generic fallback: it fetches the input URL and
// auto-detects advertised feed links in the document head. If the URL
// already serves a feed it is returned unchanged.
type DiscoveryResolver struct {
	client    *http.Client
	userAgent string
}

// NewDiscoveryResolver creates a discovery resolver using the given http
// client.
func NewDiscoveryResolver(client *http.Client, userAgent string) *DiscoveryResolver {
	return &DiscoveryResolver{client: newScrapeClient(client), userAgent: userAgent}
}

// Name implements Resolver
func (r *DiscoveryResolver) Name() string { return "discovery" }

// Supports accepts anything that parses as an http(s) URL
func (r *DiscoveryResolver) Supports(input string) bool {
	input = strings.TrimSpace(input)
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Resolve fetches the page and picks the first advertised feed link
func (r *DiscoveryResolver) Resolve(ctx context.Context, input string) domain.ResolverResult {
	pageURL := strings.TrimSpace(input)
	if !strings.Contains(pageURL, "://") {
		pageURL = "https://" + pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return domain.NewResolverError(r.Name(), fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.NewResolverError(r.Name(), fmt.Sprintf("fetch page: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewResolverError(r.Name(), fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	// the input may already be a feed
	contentType := resp.Header.Get("Content-Type")
	if isFeedContentType(contentType) {
		return domain.NewResolverSuccess(r.Name(), pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return domain.NewResolverError(r.Name(), fmt.Sprintf("parse page: %v", err))
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return domain.NewResolverError(r.Name(), fmt.Sprintf("parse base url: %v", err))
	}

	var feedURL string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		typ, _ := sel.Attr("type")
		if !feedMimeTypes[strings.ToLower(strings.TrimSpace(typ))] {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		feedURL = base.ResolveReference(ref).String()
		return false
	})

	if feedURL == "" {
		return domain.NewResolverError(r.Name(), "no feed link found in page")
	}
	return domain.NewResolverSuccess(r.Name(), feedURL)
}

func isFeedContentType(contentType string) bool {
	ct := strings.ToLower(contentType)
	for mime := range feedMimeTypes {
		if strings.Contains(ct, mime) {
			return true
		}
	}
	return strings.Contains(ct, "application/xml") || strings.Contains(ct, "text/xml")
}
