package resolve

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/feedshed/feedshed/pkg/domain"
)

// channel id is always UC followed by 22 id characters
var (
	ytChannelIDRe  = regexp.MustCompile(`youtube\.com/channel/(UC[\w-]{22})`)
	ytHostRe       = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com|youtu\.be)/`)
	ytIDCandidates = regexp.MustCompile(`^UC[\w-]{22}$`)
)

// YouTubeResolver maps YouTube channel, user and handle pages to the
// channel's video feed. Channel URLs carry the id in the path and resolve
// without network access; user/handle pages are fetched and scraped.
type YouTubeResolver struct {
	client    *http.Client
	userAgent string
}

// NewYouTubeResolver creates a YouTube resolver using the given http
// client for page scraping.
func NewYouTubeResolver(client *http.Client, userAgent string) *YouTubeResolver {
	return &YouTubeResolver{client: newScrapeClient(client), userAgent: userAgent}
}

// Name implements Resolver
func (r *YouTubeResolver) Name() string { return "youtube" }

// Supports reports whether the input looks like a YouTube page
func (r *YouTubeResolver) Supports(input string) bool {
	return ytHostRe.MatchString(strings.TrimSpace(input))
}

// Resolve extracts or scrapes a channel id and synthesizes the feed URL
func (r *YouTubeResolver) Resolve(ctx context.Context, input string) domain.ResolverResult {
	input = strings.TrimSpace(input)

	// deterministic path extraction first
	if m := ytChannelIDRe.FindStringSubmatch(input); m != nil {
		return domain.NewResolverSuccess(r.Name(), feedURLForChannel(m[1]))
	}

	// user / handle / custom URLs need the page body
	id, err := r.scrapeChannelID(ctx, input)
	if err != nil {
		return domain.NewResolverError(r.Name(), fmt.Sprintf("extract channel id: %v", err))
	}
	return domain.NewResolverSuccess(r.Name(), feedURLForChannel(id))
}

// scrapeChannelID fetches the page and pulls the channel id from its
// metadata. Transport failures degrade to an error result at the caller.
func (r *YouTubeResolver) scrapeChannelID(ctx context.Context, pageURL string) (string, error) {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		pageURL = "https://" + pageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	if id, ok := doc.Find(`meta[itemprop="identifier"]`).Attr("content"); ok && ytIDCandidates.MatchString(id) {
		return id, nil
	}
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if m := ytChannelIDRe.FindStringSubmatch(href); m != nil {
			return m[1], nil
		}
	}

	return "", fmt.Errorf("no channel id found in page")
}

func feedURLForChannel(id string) string {
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + id
}
