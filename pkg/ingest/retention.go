package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedshed/feedshed/pkg/domain"
)

// RetentionStore is the storage surface retention needs
type RetentionStore interface {
	GetSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	TrimSubscriptionItems(ctx context.Context, subGUID string, limit int) (int64, error)
	DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionManager enforces per-subscription storage caps and global
// age-based cleanup. Bookmarked items are exempt from the cap but not from
// the age purge.
type RetentionManager struct {
	store RetentionStore
}

// NewRetentionManager creates a retention manager over the given store
func NewRetentionManager(store RetentionStore) *RetentionManager {
	return &RetentionManager{store: store}
}

// TrimToLimitPerSubscription keeps the newest limit items of every
// subscription and deletes the rest, except bookmarked ones. The cap is
// per-subscription, so each subscription gets its own trim query.
func (m *RetentionManager) TrimToLimitPerSubscription(ctx context.Context, limit int) (int64, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("retention limit must be positive, got %d", limit)
	}

	subs, err := m.store.GetSubscriptions(ctx)
	if err != nil {
		return 0, fmt.Errorf("get subscriptions: %w", err)
	}

	var deleted int64
	for _, sub := range subs {
		n, err := m.store.TrimSubscriptionItems(ctx, sub.GUID, limit)
		if err != nil {
			return deleted, fmt.Errorf("trim subscription %s: %w", sub.GUID, err)
		}
		deleted += n
	}

	if deleted > 0 {
		lgr.Printf("[INFO] trimmed %d items over per-subscription limit %d", deleted, limit)
	}
	return deleted, nil
}

// DeleteOlderThan purges all items published before the cutoff, regardless
// of subscription. Bookmarks are not exempt here; the global purge is a
// hard cap.
func (m *RetentionManager) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := m.store.DeleteItemsOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete items older than %s: %w", cutoff.Format(time.RFC3339), err)
	}

	if deleted > 0 {
		lgr.Printf("[INFO] deleted %d items older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return deleted, nil
}
