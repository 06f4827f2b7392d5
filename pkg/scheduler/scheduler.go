// Package scheduler drives the recurring triggers: heartbeat, feed refresh
// and content cleanup. Every trigger execution is recorded in the
// processed-messages ledger, which is how operators observe when ingestion
// last succeeded.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/feedshed/feedshed/pkg/domain"
)

// ledger retention per message type, most recent kept
const (
	refreshKeep   = 50
	heartbeatKeep = 10
	cleanupKeep   = 10
)

// Orchestrator runs one ingestion pass
type Orchestrator interface {
	RefreshAll(ctx context.Context) error
}

// Retention prunes stored content
type Retention interface {
	TrimToLimitPerSubscription(ctx context.Context, limit int) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Ledger records trigger executions
type Ledger interface {
	RecordMessage(ctx context.Context, msg *domain.ProcessedMessage, keep int) error
}

// Config holds scheduler configuration
type Config struct {
	HeartbeatInterval time.Duration
	RefreshInterval   time.Duration
	CleanupInterval   time.Duration
	MaxItemAge        time.Duration // age-based purge cutoff
	ItemLimit         int           // per-subscription cap
}

// Scheduler owns the periodic trigger loops
type Scheduler struct {
	orchestrator Orchestrator
	retention    Retention
	ledger       Ledger
	cfg          Config

	wg        sync.WaitGroup
	cancel    context.CancelFunc
	refreshMu sync.Mutex // at most one refresh run at a time
}

// New creates a scheduler with defaults filled in
func New(orchestrator Orchestrator, retention Retention, ledger Ledger, cfg Config) *Scheduler {
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 10 * time.Second
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 30 * time.Minute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 12 * time.Hour
	}
	if cfg.MaxItemAge == 0 {
		cfg.MaxItemAge = 30 * 24 * time.Hour
	}
	if cfg.ItemLimit == 0 {
		cfg.ItemLimit = 200
	}
	return &Scheduler{orchestrator: orchestrator, retention: retention, ledger: ledger, cfg: cfg}
}

// Start begins the trigger loops
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(3)
	go s.loop(ctx, s.cfg.HeartbeatInterval, func() { s.runHeartbeat(ctx) })
	go s.loop(ctx, s.cfg.RefreshInterval, func() { s.runRefresh(ctx, domain.OriginWorker) })
	go s.loop(ctx, s.cfg.CleanupInterval, func() { s.runCleanup(ctx) })

	lgr.Printf("[INFO] scheduler started: refresh %v, cleanup %v, heartbeat %v",
		s.cfg.RefreshInterval, s.cfg.CleanupInterval, s.cfg.HeartbeatInterval)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, fn func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// runHeartbeat records a liveness entry
func (s *Scheduler) runHeartbeat(ctx context.Context) {
	msg := &domain.ProcessedMessage{
		Type:   domain.MessageHeartbeat,
		Status: domain.MessageSuccess,
		Origin: domain.OriginWorker,
	}
	if err := s.ledger.RecordMessage(ctx, msg, heartbeatKeep); err != nil {
		lgr.Printf("[ERROR] heartbeat ledger write failed: %v", err)
	}
}

// runRefresh executes one guarded refresh run and records the outcome.
// A ledger write failure is the one error allowed out of the handler.
func (s *Scheduler) runRefresh(ctx context.Context, origin domain.MessageOrigin) {
	if err := s.RefreshNow(ctx, origin); err != nil {
		lgr.Printf("[ERROR] refresh run bookkeeping failed: %v", err)
	}
}

// RefreshNow triggers an immediate refresh run, used by the periodic worker
// and by webhook/manual triggers. Runs are exclusive: concurrent callers
// serialize, so two ingestion runs never interleave for the same
// subscription. The returned error reports ledger write failure only.
func (s *Scheduler) RefreshNow(ctx context.Context, origin domain.MessageOrigin) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	msg := &domain.ProcessedMessage{Type: domain.MessageRefresh, Status: domain.MessageSuccess, Origin: origin}
	if err := s.orchestrator.RefreshAll(ctx); err != nil {
		lgr.Printf("[ERROR] refresh run failed: %v", err)
		msg.Status = domain.MessageFailed
		msg.Error = err.Error()
	}

	if err := s.ledger.RecordMessage(ctx, msg, refreshKeep); err != nil {
		return fmt.Errorf("record refresh message: %w", err)
	}
	return nil
}

// runCleanup purges old items and enforces per-subscription caps
func (s *Scheduler) runCleanup(ctx context.Context) {
	if err := s.CleanupNow(ctx); err != nil {
		lgr.Printf("[ERROR] cleanup run bookkeeping failed: %v", err)
	}
}

// CleanupNow triggers an immediate retention pass. The returned error
// reports ledger write failure only; retention errors are recorded in the
// ledger and retried on the next scheduled cleanup.
func (s *Scheduler) CleanupNow(ctx context.Context) error {
	msg := &domain.ProcessedMessage{Type: domain.MessageCleanup, Status: domain.MessageSuccess, Origin: domain.OriginWorker}

	cutoff := time.Now().Add(-s.cfg.MaxItemAge)
	if _, err := s.retention.DeleteOlderThan(ctx, cutoff); err != nil {
		lgr.Printf("[ERROR] age cleanup failed: %v", err)
		msg.Status = domain.MessageFailed
		msg.Error = err.Error()
	} else if _, err := s.retention.TrimToLimitPerSubscription(ctx, s.cfg.ItemLimit); err != nil {
		lgr.Printf("[ERROR] cap cleanup failed: %v", err)
		msg.Status = domain.MessageFailed
		msg.Error = err.Error()
	}

	if err := s.ledger.RecordMessage(ctx, msg, cleanupKeep); err != nil {
		return fmt.Errorf("record cleanup message: %w", err)
	}
	return nil
}
