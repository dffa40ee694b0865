package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
)

type EventRepository struct {
	querier Querier
	logger  *slog.Logger
}

const eventColumns = `id, ts, event_type, ref, meta, group_id, created_by, idempotency_key`

func (r *EventRepository) Create(ctx context.Context, e *ledger.Event) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode event metadata: %w", err)
	}
	_, err = r.querier.ExecContext(ctx,
		`INSERT INTO ledger_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.Timestamp), e.Type, e.Ref, string(meta),
		nullInt(e.GroupID), nullInt(e.CreatedBy), nullString(e.IdempotencyKey),
	)
	if err != nil {
		r.logger.Error("Failed to insert ledger event", "event_id", e.ID, "error", err)
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepository) scan(row interface{ Scan(...any) error }) (*ledger.Event, error) {
	var (
		e                  ledger.Event
		ts, meta           string
		groupID, createdBy sql.NullInt64
		idempotencyKey     sql.NullString
	)
	if err := row.Scan(&e.ID, &ts, &e.Type, &e.Ref, &meta, &groupID, &createdBy, &idempotencyKey); err != nil {
		return nil, err
	}
	parsed, err := parseTime(ts)
	if err != nil {
		return nil, err
	}
	e.Timestamp = parsed
	if err := json.Unmarshal([]byte(meta), &e.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode event metadata: %w", err)
	}
	e.GroupID = intPtr(groupID)
	e.CreatedBy = intPtr(createdBy)
	e.IdempotencyKey = idempotencyKey.String
	return &e, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*ledger.Event, error) {
	e, err := r.scan(r.querier.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM ledger_events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrEventNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) GetByIdempotencyKey(ctx context.Context, key string) (*ledger.Event, error) {
	e, err := r.scan(r.querier.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM ledger_events WHERE idempotency_key = ?`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event by idempotency key: %w", err)
	}
	return e, nil
}

func (r *EventRepository) Count(ctx context.Context, groupID *int64) (int64, error) {
	query := `SELECT COUNT(*) FROM ledger_events`
	var args []any
	if groupID != nil {
		query = `SELECT COUNT(DISTINCT e.id) FROM ledger_events e
			LEFT JOIN ledger_postings p ON p.event_id = e.id
			WHERE e.group_id = ? OR p.group_id = ?`
		args = append(args, *groupID, *groupID)
	}
	var n int64
	if err := r.querier.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) CountForMember(ctx context.Context, memberID, groupID int64, from, to time.Time) (int64, error) {
	var n int64
	err := r.querier.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT e.id) FROM ledger_events e
		JOIN ledger_postings p ON p.event_id = e.id
		WHERE p.member_id = ? AND p.group_id = ? AND e.ts >= ? AND e.ts < ?`,
		memberID, groupID, formatTime(from), formatTime(to),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count member events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) ListGroupIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT DISTINCT group_id FROM ledger_postings WHERE group_id IS NOT NULL ORDER BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger groups: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
