// Package proc implements the priority-ordered content processing pipeline
// applied to every fetched item before persistence.
package proc

import (
	"sort"

	"github.com/feedshed/feedshed/pkg/domain"
)

// Processor is one content transform. Supports gates application; Process
// returns the transformed item. A processor mutates only the fields its
// Supports check is predicated on.
type Processor interface {
	Name() string
	Priority() int
	Supports(item domain.ProcessedItem) bool
	Process(item domain.ProcessedItem) domain.ProcessedItem
}

// Chain applies registered processors to items in ascending priority order,
// lower number first. The order is fixed at construction.
type Chain struct {
	processors []Processor
}

// NewChain creates a chain; processors are sorted by priority once, with a
// stable sort so equal priorities keep registration order.
func NewChain(processors ...Processor) *Chain {
	sorted := make([]Processor, len(processors))
	copy(sorted, processors)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority() < sorted[j].Priority() })
	return &Chain{processors: sorted}
}

// DefaultChain builds the standard pipeline: sanitize, then title backfill
// from the sanitized content, then embed rewrite last so its fragment
// survives sanitization.
func DefaultChain() *Chain {
	return NewChain(
		NewSanitizeProcessor(),
		NewTitleProcessor(),
		NewEmbedProcessor(),
	)
}

// Apply threads one item through every supporting processor in order
func (c *Chain) Apply(item domain.ProcessedItem) domain.ProcessedItem {
	for _, p := range c.processors {
		if p.Supports(item) {
			item = p.Process(item)
		}
	}
	return item
}

// ApplyAll processes a batch, preserving order
func (c *Chain) ApplyAll(items []domain.ProcessedItem) []domain.ProcessedItem {
	result := make([]domain.ProcessedItem, len(items))
	for i, item := range items {
		result[i] = c.Apply(item)
	}
	return result
}
