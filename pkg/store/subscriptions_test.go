package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedshed/feedshed/pkg/domain"
)

func TestStore_CreateSubscription(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	t.Run("creates with defaults", func(t *testing.T) {
		sub := &domain.Subscription{UserID: 1, URL: "https://blog.example.com", Name: "Example Blog"}
		created, err := s.CreateSubscription(ctx, sub)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEmpty(t, sub.GUID)
		assert.NotZero(t, sub.ID)
		assert.Equal(t, domain.StatusPending, sub.Status)
		assert.False(t, sub.CreatedAt.IsZero())
	})

	t.Run("duplicate url returns existing row", func(t *testing.T) {
		first := &domain.Subscription{UserID: 2, URL: "https://news.example.com", Name: "first"}
		created, err := s.CreateSubscription(ctx, first)
		require.NoError(t, err)
		require.True(t, created)

		dup := &domain.Subscription{UserID: 2, URL: "https://news.example.com", Name: "second"}
		created, err = s.CreateSubscription(ctx, dup)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.GUID, dup.GUID, "existing identity wins")
		assert.Equal(t, "first", dup.Name)
	})

	t.Run("same url for another user is a new subscription", func(t *testing.T) {
		other := &domain.Subscription{UserID: 3, URL: "https://news.example.com", Name: "mine"}
		created, err := s.CreateSubscription(ctx, other)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestStore_GetSubscription(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sub := makeSubscription(t, s, 1, "https://blog.example.com")

	got, err := s.GetSubscription(ctx, sub.GUID)
	require.NoError(t, err)
	assert.Equal(t, sub.GUID, got.GUID)
	assert.Equal(t, sub.URL, got.URL)

	_, err = s.GetSubscription(ctx, "no-such-guid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetUserSubscriptions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	makeSubscription(t, s, 1, "https://a.example.com")
	makeSubscription(t, s, 1, "https://b.example.com")
	makeSubscription(t, s, 2, "https://c.example.com")

	mine, err := s.GetUserSubscriptions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := s.GetSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStore_UpdateSubscriptionRefresh(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sub := makeSubscription(t, s, 1, "https://blog.example.com")
	refreshedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	err := s.UpdateSubscriptionRefresh(ctx, sub.GUID, domain.StatusTimeout, refreshedAt, 1500*time.Millisecond)
	require.NoError(t, err)

	got, err := s.GetSubscription(ctx, sub.GUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimeout, got.Status)
	require.NotNil(t, got.RefreshedAt)
	assert.True(t, refreshedAt.Equal(*got.RefreshedAt), "got %s", got.RefreshedAt)
	assert.Equal(t, 1500*time.Millisecond, got.RefreshDuration)
}

func TestStore_UpdateSubscriptionFeedURL(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sub := makeSubscription(t, s, 1, "https://blog.example.com")
	require.NoError(t, s.UpdateSubscriptionFeedURL(ctx, sub.GUID, "https://blog.example.com/feed.xml"))

	got, err := s.GetSubscription(ctx, sub.GUID)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.example.com/feed.xml", got.FeedURL)
}

func TestStore_DeleteSubscription(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	sub := makeSubscription(t, s, 1, "https://blog.example.com")
	item := makeItem(t, s, sub.GUID, "post-1", time.Now())

	require.NoError(t, s.DeleteSubscription(ctx, sub.GUID))

	_, err := s.GetSubscription(ctx, sub.GUID)
	assert.ErrorIs(t, err, ErrNotFound)

	// items go with the subscription
	_, err = s.GetItem(ctx, item.GUID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteSubscription(ctx, sub.GUID), ErrNotFound)
}
