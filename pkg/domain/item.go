package domain

import (
	"time"

	"github.com/google/uuid"
)

// itemNamespace is the fixed namespace for deterministic item GUIDs.
// Changing it would re-key every stored item, so it never changes.
var itemNamespace = uuid.MustParse("9f2c1b5e-7a43-4d6b-8f0e-3c5a9d1e2b4c")

// Item represents a stored feed item. GUID is derived deterministically from
// source, link and title so repeated fetches of the same logical entry map to
// the same row.
type Item struct {
	ID               int64
	GUID             string
	SubscriptionGUID string
	Title            string
	Link             string
	Source           string
	Content          string
	Published        time.Time
	Fetched          time.Time
}

// ProcessedItem is the mutable record flowing through the processor chain
// before it becomes a stored Item.
type ProcessedItem struct {
	GUID             string
	SubscriptionGUID string
	Title            string
	Link             string
	Source           string
	Content          string
	Published        time.Time
}

// RawItem is a single normalized entry as produced by the feed fetcher.
type RawItem struct {
	Title     string
	Link      string
	Source    string
	Content   string
	Published time.Time
}

// ItemGUID derives the stable dedup identity for an item. The same
// source/link/title always yields the same GUID across fetches.
func ItemGUID(source, link, title string) string {
	return uuid.NewSHA1(itemNamespace, []byte(source+"\n"+link+"\n"+title)).String()
}

// NewSubscriptionGUID returns a fresh random identity for a subscription.
func NewSubscriptionGUID() string {
	return uuid.New().String()
}
