package proc

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/feedshed/feedshed/pkg/domain"
)

// SanitizeProcessor decodes HTML entities in item content and strips it to
// an allow-listed safe subset. It runs first so everything downstream sees
// sanitized content only.
type SanitizeProcessor struct {
	policy *bluemonday.Policy
}

// NewSanitizeProcessor creates the sanitizer with a UGC policy
func NewSanitizeProcessor() *SanitizeProcessor {
	return &SanitizeProcessor{policy: bluemonday.UGCPolicy()}
}

// Name implements Processor
func (p *SanitizeProcessor) Name() string { return "sanitize" }

// Priority implements Processor; lowest number, runs first
func (p *SanitizeProcessor) Priority() int { return 100 }

// Supports applies to any item with content
func (p *SanitizeProcessor) Supports(item domain.ProcessedItem) bool {
	return item.Content != ""
}

// Process decodes entities, sanitizes and trims the content
func (p *SanitizeProcessor) Process(item domain.ProcessedItem) domain.ProcessedItem {
	decoded := html.UnescapeString(item.Content)
	item.Content = strings.TrimSpace(p.policy.Sanitize(decoded))
	return item
}
