package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/feedshed/feedshed/pkg/domain"
)

// CreateSubscription inserts a new subscription. If the user already
// subscribes to the URL, the existing row is returned unchanged and
// created reports false.
func (s *Store) CreateSubscription(ctx context.Context, sub *domain.Subscription) (created bool, err error) {
	existing, err := s.GetSubscriptionByURL(ctx, sub.UserID, sub.URL)
	if err == nil {
		*sub = *existing
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("check existing subscription: %w", err)
	}

	if sub.GUID == "" {
		sub.GUID = domain.NewSubscriptionGUID()
	}
	if sub.Status == "" {
		sub.Status = domain.StatusPending
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO subscriptions (guid, user_id, url, feed_url, name, folder, status, use_archive_proxy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, url) DO NOTHING
	`
	result, err := s.conn.ExecContext(ctx, query, sub.GUID, sub.UserID, sub.URL, sub.FeedURL,
		sub.Name, sub.Folder, string(sub.Status), sub.UseArchiveProxy, sub.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// lost a race with a concurrent insert, return the winner
		existing, err := s.GetSubscriptionByURL(ctx, sub.UserID, sub.URL)
		if err != nil {
			return false, fmt.Errorf("get subscription after conflict: %w", err)
		}
		*sub = *existing
		return false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("get last insert id: %w", err)
	}
	sub.ID = id
	return true, nil
}

// GetSubscription retrieves a subscription by GUID
func (s *Store) GetSubscription(ctx context.Context, guid string) (*domain.Subscription, error) {
	var row dbSubscription
	err := s.conn.GetContext(ctx, &row, `SELECT * FROM subscriptions WHERE guid = ?`, guid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return row.toDomain(), nil
}

// GetSubscriptionByURL retrieves a subscription by owner and source URL
func (s *Store) GetSubscriptionByURL(ctx context.Context, userID int64, url string) (*domain.Subscription, error) {
	var row dbSubscription
	err := s.conn.GetContext(ctx, &row, `SELECT * FROM subscriptions WHERE user_id = ? AND url = ?`, userID, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription by url: %w", err)
	}
	return row.toDomain(), nil
}

// GetSubscriptions retrieves all subscriptions across all users, for the
// ingestion run.
func (s *Store) GetSubscriptions(ctx context.Context) ([]domain.Subscription, error) {
	var rows []dbSubscription
	err := s.conn.SelectContext(ctx, &rows, `SELECT * FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("get subscriptions: %w", err)
	}

	subs := make([]domain.Subscription, len(rows))
	for i := range rows {
		subs[i] = *rows[i].toDomain()
	}
	return subs, nil
}

// GetUserSubscriptions retrieves all subscriptions owned by a user
func (s *Store) GetUserSubscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	var rows []dbSubscription
	err := s.conn.SelectContext(ctx, &rows,
		`SELECT * FROM subscriptions WHERE user_id = ? ORDER BY folder, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("get user subscriptions: %w", err)
	}

	subs := make([]domain.Subscription, len(rows))
	for i := range rows {
		subs[i] = *rows[i].toDomain()
	}
	return subs, nil
}

// UpdateSubscriptionFeedURL stores the resolved feed URL for a subscription
func (s *Store) UpdateSubscriptionFeedURL(ctx context.Context, guid, feedURL string) error {
	_, err := s.conn.ExecContext(ctx, `UPDATE subscriptions SET feed_url = ? WHERE guid = ?`, feedURL, guid)
	if err != nil {
		return fmt.Errorf("update subscription feed url: %w", err)
	}
	return nil
}

// UpdateSubscriptionRefresh records the outcome of a fetch attempt: status,
// refresh timestamp and duration. Called on every attempt, success or not,
// so stale-feed detection works for permanently broken feeds too.
func (s *Store) UpdateSubscriptionRefresh(ctx context.Context, guid string, status domain.Status,
	refreshedAt time.Time, duration time.Duration) error {
	query := `
		UPDATE subscriptions
		SET status = ?, refreshed_at = ?, refresh_duration_ms = ?
		WHERE guid = ?
	`
	_, err := s.conn.ExecContext(ctx, query, string(status), refreshedAt.UTC(), duration.Milliseconds(), guid)
	if err != nil {
		return fmt.Errorf("update subscription refresh: %w", err)
	}
	return nil
}

// DeleteSubscription deletes a subscription; its items go with it via cascade
func (s *Store) DeleteSubscription(ctx context.Context, guid string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM subscriptions WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
