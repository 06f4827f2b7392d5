package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedshed/feedshed/pkg/domain"
)

// stubOrchestrator counts runs and optionally fails
type stubOrchestrator struct {
	mu    sync.Mutex
	runs  int
	err   error
	block chan struct{} // when set, RefreshAll waits until closed
}

func (o *stubOrchestrator) RefreshAll(context.Context) error {
	if o.block != nil {
		<-o.block
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
	return o.err
}

func (o *stubOrchestrator) runCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.runs
}

// stubRetention counts purge and trim calls
type stubRetention struct {
	purgeErr   error
	trimErr    error
	purged     int
	trimmed    int
	lastCutoff time.Time
	lastLimit  int
}

func (r *stubRetention) TrimToLimitPerSubscription(_ context.Context, limit int) (int64, error) {
	r.trimmed++
	r.lastLimit = limit
	return 0, r.trimErr
}

func (r *stubRetention) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.purged++
	r.lastCutoff = cutoff
	return 0, r.purgeErr
}

// stubLedger collects recorded messages
type stubLedger struct {
	mu       sync.Mutex
	err      error
	messages []domain.ProcessedMessage
	keeps    []int
}

func (l *stubLedger) RecordMessage(_ context.Context, msg *domain.ProcessedMessage, keep int) error {
	if l.err != nil {
		return l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, *msg)
	l.keeps = append(l.keeps, keep)
	return nil
}

func (l *stubLedger) last(t *testing.T) domain.ProcessedMessage {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.messages)
	return l.messages[len(l.messages)-1]
}

func TestScheduler_RefreshNow(t *testing.T) {
	t.Run("success recorded with origin", func(t *testing.T) {
		orch := &stubOrchestrator{}
		ledger := &stubLedger{}
		s := New(orch, &stubRetention{}, ledger, Config{})

		require.NoError(t, s.RefreshNow(context.Background(), domain.OriginWebhook))
		assert.Equal(t, 1, orch.runCount())

		msg := ledger.last(t)
		assert.Equal(t, domain.MessageRefresh, msg.Type)
		assert.Equal(t, domain.MessageSuccess, msg.Status)
		assert.Equal(t, domain.OriginWebhook, msg.Origin)
		assert.Equal(t, []int{refreshKeep}, ledger.keeps)
	})

	t.Run("run failure recorded, not returned", func(t *testing.T) {
		orch := &stubOrchestrator{err: errors.New("storage exploded")}
		ledger := &stubLedger{}
		s := New(orch, &stubRetention{}, ledger, Config{})

		require.NoError(t, s.RefreshNow(context.Background(), domain.OriginManual))

		msg := ledger.last(t)
		assert.Equal(t, domain.MessageFailed, msg.Status)
		assert.Equal(t, "storage exploded", msg.Error)
		assert.Equal(t, domain.OriginManual, msg.Origin)
	})

	t.Run("ledger failure is returned", func(t *testing.T) {
		s := New(&stubOrchestrator{}, &stubRetention{}, &stubLedger{err: errors.New("ledger gone")}, Config{})
		err := s.RefreshNow(context.Background(), domain.OriginWorker)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ledger gone")
	})

	t.Run("concurrent runs serialize", func(t *testing.T) {
		orch := &stubOrchestrator{block: make(chan struct{})}
		ledger := &stubLedger{}
		s := New(orch, &stubRetention{}, ledger, Config{})

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.RefreshNow(context.Background(), domain.OriginManual)
			}()
		}
		close(orch.block)
		wg.Wait()

		// both ran, one after the other
		assert.Equal(t, 2, orch.runCount())
		assert.Len(t, ledger.messages, 2)
	})
}

func TestScheduler_CleanupNow(t *testing.T) {
	t.Run("purges then trims", func(t *testing.T) {
		ret := &stubRetention{}
		ledger := &stubLedger{}
		s := New(&stubOrchestrator{}, ret, ledger, Config{MaxItemAge: 30 * 24 * time.Hour, ItemLimit: 200})

		require.NoError(t, s.CleanupNow(context.Background()))
		assert.Equal(t, 1, ret.purged)
		assert.Equal(t, 1, ret.trimmed)
		assert.Equal(t, 200, ret.lastLimit)
		assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), ret.lastCutoff, time.Minute)

		msg := ledger.last(t)
		assert.Equal(t, domain.MessageCleanup, msg.Type)
		assert.Equal(t, domain.MessageSuccess, msg.Status)
		assert.Equal(t, []int{cleanupKeep}, ledger.keeps)
	})

	t.Run("retention failure recorded, not returned", func(t *testing.T) {
		ret := &stubRetention{purgeErr: errors.New("purge failed")}
		ledger := &stubLedger{}
		s := New(&stubOrchestrator{}, ret, ledger, Config{})

		require.NoError(t, s.CleanupNow(context.Background()))
		msg := ledger.last(t)
		assert.Equal(t, domain.MessageFailed, msg.Status)
		assert.Equal(t, "purge failed", msg.Error)
		assert.Zero(t, ret.trimmed, "trim skipped after purge failure")
	})

	t.Run("ledger failure is returned", func(t *testing.T) {
		s := New(&stubOrchestrator{}, &stubRetention{}, &stubLedger{err: errors.New("ledger gone")}, Config{})
		require.Error(t, s.CleanupNow(context.Background()))
	})
}

func TestScheduler_Loops(t *testing.T) {
	orch := &stubOrchestrator{}
	ledger := &stubLedger{}
	s := New(orch, &stubRetention{}, ledger, Config{
		HeartbeatInterval: 20 * time.Millisecond,
		RefreshInterval:   30 * time.Millisecond,
		CleanupInterval:   time.Hour, // not expected to fire
	})

	s.Start(context.Background())
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, orch.runCount(), 1, "periodic refresh fired")

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	var beats, refreshes, cleanups int
	for _, msg := range ledger.messages {
		switch msg.Type {
		case domain.MessageHeartbeat:
			beats++
			assert.Equal(t, domain.OriginWorker, msg.Origin)
		case domain.MessageRefresh:
			refreshes++
			assert.Equal(t, domain.OriginWorker, msg.Origin)
		case domain.MessageCleanup:
			cleanups++
		}
	}
	assert.GreaterOrEqual(t, beats, 2)
	assert.GreaterOrEqual(t, refreshes, 1)
	assert.Zero(t, cleanups)
}

func TestScheduler_Defaults(t *testing.T) {
	s := New(&stubOrchestrator{}, &stubRetention{}, &stubLedger{}, Config{})
	assert.Equal(t, 10*time.Second, s.cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Minute, s.cfg.RefreshInterval)
	assert.Equal(t, 12*time.Hour, s.cfg.CleanupInterval)
	assert.Equal(t, 30*24*time.Hour, s.cfg.MaxItemAge)
	assert.Equal(t, 200, s.cfg.ItemLimit)
}
