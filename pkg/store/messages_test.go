package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedshed/feedshed/pkg/domain"
)

func TestStore_RecordMessage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	msg := &domain.ProcessedMessage{
		Type:   domain.MessageRefresh,
		Status: domain.MessageSuccess,
		Origin: domain.OriginWorker,
	}
	require.NoError(t, s.RecordMessage(ctx, msg, 50))
	assert.NotZero(t, msg.ID)
	assert.False(t, msg.ProcessedAt.IsZero(), "processed_at defaults to now")

	got, err := s.ListMessages(ctx, "", "", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.MessageRefresh, got[0].Type)
	assert.Equal(t, domain.MessageSuccess, got[0].Status)
	assert.Equal(t, domain.OriginWorker, got[0].Origin)
}

func TestStore_RecordMessage_Prunes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		msg := &domain.ProcessedMessage{
			Type:        domain.MessageHeartbeat,
			Status:      domain.MessageSuccess,
			Origin:      domain.OriginWorker,
			ProcessedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, s.RecordMessage(ctx, msg, 3))
	}
	// a different type is not touched by heartbeat pruning
	require.NoError(t, s.RecordMessage(ctx, &domain.ProcessedMessage{
		Type: domain.MessageCleanup, Status: domain.MessageSuccess, Origin: domain.OriginWorker,
	}, 10))

	beats, err := s.ListMessages(ctx, domain.MessageHeartbeat, "", 0)
	require.NoError(t, err)
	require.Len(t, beats, 3, "only the newest keep rows survive")
	assert.True(t, beats[0].ProcessedAt.After(beats[1].ProcessedAt), "newest first")

	cleanups, err := s.ListMessages(ctx, domain.MessageCleanup, "", 0)
	require.NoError(t, err)
	assert.Len(t, cleanups, 1)
}

func TestStore_ListMessages_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordMessage(ctx, &domain.ProcessedMessage{
		Type: domain.MessageRefresh, Status: domain.MessageSuccess, Origin: domain.OriginWorker,
	}, 0))
	require.NoError(t, s.RecordMessage(ctx, &domain.ProcessedMessage{
		Type: domain.MessageRefresh, Status: domain.MessageFailed, Error: "boom", Origin: domain.OriginWebhook,
	}, 0))
	require.NoError(t, s.RecordMessage(ctx, &domain.ProcessedMessage{
		Type: domain.MessageCleanup, Status: domain.MessageSuccess, Origin: domain.OriginWorker,
	}, 0))

	failed, err := s.ListMessages(ctx, domain.MessageRefresh, domain.MessageFailed, 0)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)
	assert.Equal(t, domain.OriginWebhook, failed[0].Origin)

	refreshes, err := s.ListMessages(ctx, domain.MessageRefresh, "", 0)
	require.NoError(t, err)
	assert.Len(t, refreshes, 2)

	limited, err := s.ListMessages(ctx, "", "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
