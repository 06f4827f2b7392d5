package store

import (
	"context"
	"fmt"
)

// AddBookmark marks an item as bookmarked by a user. Adding an existing
// bookmark is a no-op.
func (s *Store) AddBookmark(ctx context.Context, userID int64, itemGUID string) error {
	query := `
		INSERT INTO bookmarks (user_id, item_guid) VALUES (?, ?)
		ON CONFLICT(user_id, item_guid) DO NOTHING
	`
	if _, err := s.conn.ExecContext(ctx, query, userID, itemGUID); err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark removes a user's bookmark from an item
func (s *Store) RemoveBookmark(ctx context.Context, userID int64, itemGUID string) error {
	query := `DELETE FROM bookmarks WHERE user_id = ? AND item_guid = ?`
	if _, err := s.conn.ExecContext(ctx, query, userID, itemGUID); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

// IsBookmarked reports whether any user bookmarked the item
func (s *Store) IsBookmarked(ctx context.Context, itemGUID string) (bool, error) {
	var exists bool
	err := s.conn.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM bookmarks WHERE item_guid = ?)`, itemGUID)
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return exists, nil
}
