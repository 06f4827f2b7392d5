package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/feedshed/feedshed/pkg/domain"
	"github.com/feedshed/feedshed/pkg/feed"
)

// SubscriptionStore is the storage surface the orchestrator needs
type SubscriptionStore interface {
	GetSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	UpdateSubscriptionFeedURL(ctx context.Context, guid, feedURL string) error
	UpdateSubscriptionRefresh(ctx context.Context, guid string, status domain.Status,
		refreshedAt time.Time, duration time.Duration) error
}

// Fetcher retrieves and parses a feed URL into raw items
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.RawItem, error)
}

// Resolver maps a source URL to a feed URL
type Resolver interface {
	Resolve(ctx context.Context, input string) domain.ResolverResult
}

// ProcessorChain transforms raw items before persistence
type ProcessorChain interface {
	ApplyAll(items []domain.ProcessedItem) []domain.ProcessedItem
}

// ItemReconciler merges a processed batch into storage
type ItemReconciler interface {
	Reconcile(ctx context.Context, subGUID string, items []domain.ProcessedItem) error
}

// Orchestrator runs one ingestion pass over all subscriptions. Failures are
// isolated per subscription: a broken feed sets that subscription's status
// and the run moves on.
type Orchestrator struct {
	store      SubscriptionStore
	fetcher    Fetcher
	resolver   Resolver
	chain      ProcessorChain
	reconciler ItemReconciler
	maxWorkers int
	now        func() time.Time
}

// OrchestratorConfig holds orchestrator dependencies
type OrchestratorConfig struct {
	Store      SubscriptionStore
	Fetcher    Fetcher
	Resolver   Resolver
	Chain      ProcessorChain
	Reconciler ItemReconciler
	MaxWorkers int
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}
	return &Orchestrator{
		store:      cfg.Store,
		fetcher:    cfg.Fetcher,
		resolver:   cfg.Resolver,
		chain:      cfg.Chain,
		reconciler: cfg.Reconciler,
		maxWorkers: cfg.MaxWorkers,
		now:        time.Now,
	}
}

// RefreshAll fetches, processes and reconciles every subscription. Each
// worker owns a disjoint subscription, so storage writes per subscription
// are never interleaved. The returned error aggregates storage failures
// only; fetch failures are recorded on the subscriptions themselves.
func (o *Orchestrator) RefreshAll(ctx context.Context) error {
	subs, err := o.store.GetSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	lgr.Printf("[INFO] refreshing %d subscriptions", len(subs))

	var mu sync.Mutex
	var storeErrs []error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxWorkers)

	for _, sub := range subs {
		g.Go(func() error {
			if err := o.refreshOne(ctx, sub); err != nil {
				mu.Lock()
				storeErrs = append(storeErrs, err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait() // workers never return errors, failures are collected above
	lgr.Printf("[INFO] refresh completed, %d storage failures", len(storeErrs))
	return errors.Join(storeErrs...)
}

// refreshOne runs the pipeline for a single subscription. The returned
// error covers storage failures only; fetch and resolution failures are
// converted to status updates.
func (o *Orchestrator) refreshOne(ctx context.Context, sub domain.Subscription) error {
	start := o.now()

	feedURL := sub.FeedURL
	if feedURL == "" {
		res := o.resolver.Resolve(ctx, sub.URL)
		if !res.OK() {
			lgr.Printf("[WARN] resolve failed for %s: %s (%s)", sub.URL, res.Err, res.Resolver)
			return o.finish(ctx, sub, domain.StatusInvalid, start)
		}
		feedURL = res.FeedURL
		if err := o.store.UpdateSubscriptionFeedURL(ctx, sub.GUID, feedURL); err != nil {
			return fmt.Errorf("store feed url for %s: %w", sub.GUID, err)
		}
	}

	raw, err := o.fetcher.Fetch(ctx, feedURL)
	if err != nil {
		status := domain.StatusUnreachable
		var fe *feed.FetchError
		if errors.As(err, &fe) {
			status = fe.Status()
		}
		lgr.Printf("[WARN] fetch failed for %s (%s): %v", sub.Name, feedURL, err)
		return o.finish(ctx, sub, status, start)
	}

	items := make([]domain.ProcessedItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, domain.ProcessedItem{
			// identity derives from the raw fields, before any transform,
			// so re-fetches map to the same row
			GUID:             domain.ItemGUID(r.Source, r.Link, r.Title),
			SubscriptionGUID: sub.GUID,
			Title:            r.Title,
			Link:             r.Link,
			Source:           r.Source,
			Content:          r.Content,
			Published:        r.Published,
		})
	}
	items = o.chain.ApplyAll(items)

	if err := o.reconciler.Reconcile(ctx, sub.GUID, items); err != nil {
		lgr.Printf("[ERROR] reconcile failed for %s: %v", sub.GUID, err)
		if ferr := o.finish(ctx, sub, domain.StatusUnreachable, start); ferr != nil {
			return errors.Join(err, ferr)
		}
		return err
	}

	return o.finish(ctx, sub, domain.StatusSuccess, start)
}

// finish records the refresh outcome on the subscription, success or not,
// so stale-feed detection works even for permanently broken feeds.
func (o *Orchestrator) finish(ctx context.Context, sub domain.Subscription, status domain.Status, start time.Time) error {
	now := o.now()
	if err := o.store.UpdateSubscriptionRefresh(ctx, sub.GUID, status, now, now.Sub(start)); err != nil {
		return fmt.Errorf("record refresh for %s: %w", sub.GUID, err)
	}
	return nil
}
