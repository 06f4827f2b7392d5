package store

import (
	"context"
	"fmt"
	"time"

	"github.com/feedshed/feedshed/pkg/domain"
)

// RecordMessage appends one execution record to the audit ledger and prunes
// the ledger for that message type, keeping the most recent keep rows.
func (s *Store) RecordMessage(ctx context.Context, msg *domain.ProcessedMessage, keep int) error {
	if msg.ProcessedAt.IsZero() {
		msg.ProcessedAt = time.Now()
	}

	query := `
		INSERT INTO processed_messages (type, status, error, origin, processed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.conn.ExecContext(ctx, query, msg.Type, string(msg.Status), msg.Error,
		string(msg.Origin), msg.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id

	if keep > 0 {
		prune := `
			DELETE FROM processed_messages
			WHERE type = ?
			  AND id NOT IN (
				SELECT id FROM processed_messages
				WHERE type = ?
				ORDER BY processed_at DESC, id DESC
				LIMIT ?
			  )
		`
		if _, err := s.conn.ExecContext(ctx, prune, msg.Type, msg.Type, keep); err != nil {
			return fmt.Errorf("prune messages: %w", err)
		}
	}

	return nil
}

// ListMessages returns ledger entries, newest first, optionally filtered by
// type and status. limit caps the result, zero means a default of 50.
func (s *Store) ListMessages(ctx context.Context, msgType string, status domain.MessageStatus, limit int) ([]domain.ProcessedMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT * FROM processed_messages WHERE 1=1`
	args := []any{}
	if msgType != "" {
		query += ` AND type = ?`
		args = append(args, msgType)
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY processed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var rows []dbMessage
	if err := s.conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	msgs := make([]domain.ProcessedMessage, len(rows))
	for i := range rows {
		msgs[i] = *rows[i].toDomain()
	}
	return msgs, nil
}
