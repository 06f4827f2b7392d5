package proc

import (
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/feedshed/feedshed/pkg/domain"
)

const (
	titleMaxLen      = 50
	placeholderTitle = "untitled"
)

// TitleProcessor synthesizes a title from the item content when the feed
// entry carries none. It runs after sanitization so the backfill source is
// already clean HTML.
type TitleProcessor struct{}

// NewTitleProcessor creates the title backfill processor
func NewTitleProcessor() *TitleProcessor { return &TitleProcessor{} }

// Name implements Processor
func (p *TitleProcessor) Name() string { return "title-backfill" }

// Priority implements Processor; after sanitize, before embed rewrite
func (p *TitleProcessor) Priority() int { return 200 }

// Supports applies only to items with a blank title
func (p *TitleProcessor) Supports(item domain.ProcessedItem) bool {
	return strings.TrimSpace(item.Title) == ""
}

// Process derives a title from the content: strip tags, decode entities,
// trim, cap at 50 runes with an ellipsis when truncated.
func (p *TitleProcessor) Process(item domain.ProcessedItem) domain.ProcessedItem {
	text := strings.TrimSpace(stripTags(item.Content))
	if text == "" {
		item.Title = placeholderTitle
		return item
	}

	runes := []rune(text)
	if len(runes) > titleMaxLen {
		text = string(runes[:titleMaxLen]) + "…"
	}
	item.Title = text
	return item
}

// stripTags removes all HTML markup, returning the concatenated text
// content with entities decoded.
func stripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	tokenizer := xhtml.NewTokenizer(strings.NewReader(s))
	for {
		switch tokenizer.Next() {
		case xhtml.ErrorToken:
			return b.String()
		case xhtml.TextToken:
			b.Write(tokenizer.Text())
		}
	}
}
