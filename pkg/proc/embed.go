package proc

import (
	"fmt"
	"regexp"

	"github.com/feedshed/feedshed/pkg/domain"
)

// video id extraction, scoped to the URL shapes we know how to embed
var ytWatchRe = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|live/)|youtu\.be/)([\w-]{11})`)

// EmbedProcessor replaces the content of items linking to a known video
// platform with a safe embed fragment. It runs last in the chain so the
// fragment is not stripped by the sanitizer.
type EmbedProcessor struct{}

// NewEmbedProcessor creates the embed rewrite processor
func NewEmbedProcessor() *EmbedProcessor { return &EmbedProcessor{} }

// Name implements Processor
func (p *EmbedProcessor) Name() string { return "embed-rewrite" }

// Priority implements Processor; highest number, runs last
func (p *EmbedProcessor) Priority() int { return 300 }

// Supports applies only to items whose link matches the embed whitelist
func (p *EmbedProcessor) Supports(item domain.ProcessedItem) bool {
	return ytWatchRe.MatchString(item.Link)
}

// Process swaps the content for an iframe embed of the linked video
func (p *EmbedProcessor) Process(item domain.ProcessedItem) domain.ProcessedItem {
	m := ytWatchRe.FindStringSubmatch(item.Link)
	if m == nil {
		return item
	}
	item.Content = fmt.Sprintf(
		`<iframe width="560" height="315" src="https://www.youtube-nocookie.com/embed/%s" frameborder="0" allowfullscreen></iframe>`,
		m[1])
	return item
}
