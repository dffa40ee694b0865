package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pooled-savings-ledger/internal/domain/outbox"
	"github.com/pooled-savings-ledger/internal/domain/shared"
)

// OutboxRepository implements outbox.Repository for SQLite
type OutboxRepository struct {
	querier Querier
	logger  *slog.Logger
}

const outboxColumns = `id, event_id, event_type, group_id, payload, status, attempts, created_at, last_attempt_at`

func (r *OutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	res, err := r.querier.ExecContext(ctx,
		`INSERT INTO outbox (event_id, event_type, group_id, payload, status, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.EventID, message.EventType, nullInt(message.GroupID), string(message.Payload),
		message.Status, message.Attempts, formatTime(message.CreatedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create outbox message", "event_id", message.EventID, "error", err)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	if message.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read outbox message id: %w", err)
	}
	return nil
}

func scanMessage(row interface{ Scan(...any) error }) (*outbox.Message, error) {
	var (
		m                outbox.Message
		groupID          sql.NullInt64
		payload, created string
		lastAttempt      sql.NullString
	)
	if err := row.Scan(&m.ID, &m.EventID, &m.EventType, &groupID, &payload, &m.Status, &m.Attempts, &created, &lastAttempt); err != nil {
		return nil, err
	}
	var err error
	m.GroupID = intPtr(groupID)
	m.Payload = []byte(payload)
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if m.LastAttemptAt, err = parseNullTime(lastAttempt); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetPending returns pending messages oldest first
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM outbox WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?`,
		shared.OutboxStatusPending, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*outbox.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	res, err := r.querier.ExecContext(ctx,
		`UPDATE outbox SET status = ?, last_attempt_at = ? WHERE id = ?`, status, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update outbox message status: %w", err)
	}
	return requireRow(res, id)
}

func (r *OutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	res, err := r.querier.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_attempt_at = ? WHERE id = ?`, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to increment outbox message attempts: %w", err)
	}
	return requireRow(res, id)
}

func (r *OutboxRepository) GetByEventID(ctx context.Context, eventID string) (*outbox.Message, error) {
	m, err := scanMessage(r.querier.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM outbox WHERE event_id = ?`, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbox.ErrMessageNotFound{ID: 0}
		}
		return nil, fmt.Errorf("failed to get outbox message by event ID: %w", err)
	}
	return m, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}
