// Package ingest ties fetching, processing and persistence together: the
// reconciler merges fetched batches into storage, the retention manager
// prunes stored content, and the orchestrator drives whole refresh runs.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"

	"github.com/feedshed/feedshed/pkg/domain"
)

// recencyWindow guards stored items against upstream republishing: rows
// whose published time is older than this are immutable once stored.
const recencyWindow = 48 * time.Hour

// ItemStore is the storage surface the reconciler needs
type ItemStore interface {
	GetItemsByGUIDs(ctx context.Context, guids []string) (map[string]domain.Item, error)
	InTransaction(ctx context.Context, fn func(*sqlx.Tx) error) error
	InsertItemTx(ctx context.Context, tx *sqlx.Tx, item *domain.Item) error
	UpdateItemTx(ctx context.Context, tx *sqlx.Tx, item *domain.Item) error
	WithRetry(ctx context.Context, op func() error) error
}

// Reconciler deduplicates incoming batches and upserts them into storage.
// Reconcile is idempotent and safe to call repeatedly with overlapping
// item sets.
type Reconciler struct {
	store ItemStore
	now   func() time.Time
}

// NewReconciler creates a reconciler over the given store
func NewReconciler(store ItemStore) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Reconcile merges a processed batch for one subscription into storage.
// Within the batch the last entry per GUID in traversal order wins. New
// items are inserted; existing items are overwritten only when their stored
// published time is inside the recency window.
func (r *Reconciler) Reconcile(ctx context.Context, subGUID string, items []domain.ProcessedItem) error {
	if len(items) == 0 {
		return nil
	}

	// dedup by GUID, last write in traversal order wins
	deduped := make(map[string]domain.ProcessedItem, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := deduped[item.GUID]; !seen {
			order = append(order, item.GUID)
		}
		deduped[item.GUID] = item
	}

	existing, err := r.store.GetItemsByGUIDs(ctx, order)
	if err != nil {
		return fmt.Errorf("load existing items: %w", err)
	}

	now := r.now()
	cutoff := now.Add(-recencyWindow)
	inserted, updated, skipped := 0, 0, 0

	err = r.store.WithRetry(ctx, func() error {
		return r.store.InTransaction(ctx, func(tx *sqlx.Tx) error {
			for _, guid := range order {
				incoming := deduped[guid]

				stored, found := existing[guid]
				if !found {
					item := &domain.Item{
						GUID:             guid,
						SubscriptionGUID: subGUID,
						Title:            incoming.Title,
						Link:             incoming.Link,
						Source:           incoming.Source,
						Content:          incoming.Content,
						Published:        incoming.Published,
						Fetched:          now,
					}
					if item.Published.IsZero() {
						item.Published = now
					}
					if err := r.store.InsertItemTx(ctx, tx, item); err != nil {
						return fmt.Errorf("insert %s: %w", guid, err)
					}
					inserted++
					continue
				}

				// recency guard: old rows stay as the user saw them
				if stored.Published.Before(cutoff) {
					skipped++
					continue
				}

				stored.Title = incoming.Title
				stored.Link = incoming.Link
				stored.Source = incoming.Source
				stored.Content = incoming.Content
				stored.Fetched = now
				if err := r.store.UpdateItemTx(ctx, tx, &stored); err != nil {
					return fmt.Errorf("update %s: %w", guid, err)
				}
				updated++
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("reconcile batch for %s: %w", subGUID, err)
	}

	lgr.Printf("[DEBUG] reconciled %d items for %s: %d new, %d updated, %d guarded",
		len(order), subGUID, inserted, updated, skipped)
	return nil
}
