package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/feedshed/feedshed/pkg/domain"
)

// GetItem retrieves an item by GUID
func (s *Store) GetItem(ctx context.Context, guid string) (*domain.Item, error) {
	var row dbItem
	err := s.conn.GetContext(ctx, &row, `SELECT * FROM items WHERE guid = ?`, guid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return row.toDomain(), nil
}

// GetItemsByGUIDs batch-loads items for a GUID set in a single query,
// keyed by GUID. Missing GUIDs are simply absent from the map.
func (s *Store) GetItemsByGUIDs(ctx context.Context, guids []string) (map[string]domain.Item, error) {
	result := make(map[string]domain.Item, len(guids))
	if len(guids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM items WHERE guid IN (?)`, guids)
	if err != nil {
		return nil, fmt.Errorf("build guid query: %w", err)
	}

	var rows []dbItem
	if err := s.conn.SelectContext(ctx, &rows, s.conn.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("get items by guids: %w", err)
	}

	for i := range rows {
		result[rows[i].GUID] = *rows[i].toDomain()
	}
	return result, nil
}

// GetItemsBySubscription retrieves items for a subscription, newest first
func (s *Store) GetItemsBySubscription(ctx context.Context, subGUID string, limit, offset int) ([]domain.Item, error) {
	var rows []dbItem
	query := `
		SELECT * FROM items
		WHERE subscription_guid = ?
		ORDER BY published DESC, id DESC
		LIMIT ? OFFSET ?
	`
	if err := s.conn.SelectContext(ctx, &rows, query, subGUID, limit, offset); err != nil {
		return nil, fmt.Errorf("get items by subscription: %w", err)
	}

	items := make([]domain.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].toDomain()
	}
	return items, nil
}

// InsertItemTx inserts a new item inside an open transaction
func (s *Store) InsertItemTx(ctx context.Context, tx *sqlx.Tx, item *domain.Item) error {
	query := `
		INSERT INTO items (guid, subscription_guid, title, link, source, content, published, fetched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, item.GUID, item.SubscriptionGUID, item.Title,
		item.Link, item.Source, item.Content, item.Published.UTC(), item.Fetched.UTC())
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// UpdateItemTx overwrites the mutable fields of an existing item and
// refreshes its fetched timestamp, inside an open transaction.
func (s *Store) UpdateItemTx(ctx context.Context, tx *sqlx.Tx, item *domain.Item) error {
	query := `
		UPDATE items
		SET title = ?, link = ?, source = ?, content = ?, fetched = ?
		WHERE guid = ?
	`
	_, err := tx.ExecContext(ctx, query, item.Title, item.Link, item.Source,
		item.Content, item.Fetched.UTC(), item.GUID)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// CountItemsBySubscription returns the number of stored items for a subscription
func (s *Store) CountItemsBySubscription(ctx context.Context, subGUID string) (int64, error) {
	var count int64
	err := s.conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM items WHERE subscription_guid = ?`, subGUID)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// TrimSubscriptionItems deletes items of one subscription beyond the
// newest limit rows, skipping bookmarked items. Returns deleted count.
func (s *Store) TrimSubscriptionItems(ctx context.Context, subGUID string, limit int) (int64, error) {
	query := `
		DELETE FROM items
		WHERE subscription_guid = ?
		  AND guid NOT IN (
			SELECT guid FROM items
			WHERE subscription_guid = ?
			ORDER BY published DESC, id DESC
			LIMIT ?
		  )
		  AND guid NOT IN (SELECT item_guid FROM bookmarks)
	`
	result, err := s.conn.ExecContext(ctx, query, subGUID, subGUID, limit)
	if err != nil {
		return 0, fmt.Errorf("trim subscription items: %w", err)
	}
	return result.RowsAffected()
}

// DeleteItemsOlderThan deletes items published before the cutoff across all
// subscriptions. Bookmarks do not exempt here, the age purge is a hard cap.
func (s *Store) DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM items WHERE published < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete old items: %w", err)
	}
	return result.RowsAffected()
}
