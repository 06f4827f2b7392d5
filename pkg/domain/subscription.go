package domain

import "time"

// Status represents the lifecycle state of a subscription, updated after
// every fetch attempt. It is the only externally visible signal of fetch health.
type Status string

// subscription lifecycle states
const (
	StatusPending     Status = "pending"
	StatusSuccess     Status = "success"
	StatusUnreachable Status = "unreachable"
	StatusInvalid     Status = "invalid"
	StatusTimeout     Status = "timeout"
)

// Subscription represents a user's feed subscription. GUID is the stable
// external identity, distinct from the database primary key. (UserID, URL)
// is unique per user; re-adding the same URL returns the existing row.
type Subscription struct {
	ID              int64
	GUID            string
	UserID          int64
	URL             string // source URL as entered by the user
	FeedURL         string // resolved machine-readable feed URL
	Name            string
	Folder          string
	Status          Status
	UseArchiveProxy bool
	CreatedAt       time.Time
	RefreshedAt     *time.Time // last refresh attempt, nil before first fetch
	RefreshDuration time.Duration
}
