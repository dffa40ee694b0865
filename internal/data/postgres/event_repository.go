package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// EventRepository appends to ledger_events. The table rejects UPDATE and DELETE.
type EventRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func nullableKey(key string) *string {
	if key == "" {
		return nil
	}
	return &key
}

func (r *EventRepository) Create(ctx context.Context, e *ledger.Event) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode event metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_events (id, ts, event_type, ref, meta, group_id, created_by, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.querier.Exec(ctx, query,
		e.ID, e.Timestamp, e.Type, e.Ref, meta, e.GroupID, e.CreatedBy, nullableKey(e.IdempotencyKey),
	)
	if err != nil {
		r.logger.Error("Failed to create ledger event", "event_id", e.ID, "error", err)
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func (r *EventRepository) get(ctx context.Context, where string, arg any) (*ledger.Event, error) {
	query := `
		SELECT id, ts, event_type, ref, meta, group_id, created_by, COALESCE(idempotency_key, '')
		FROM ledger_events
		WHERE ` + where

	var (
		e    ledger.Event
		meta []byte
	)
	err := r.querier.QueryRow(ctx, query, arg).Scan(
		&e.ID, &e.Timestamp, &e.Type, &e.Ref, &meta, &e.GroupID, &e.CreatedBy, &e.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(meta, &e.Meta); err != nil {
		return nil, fmt.Errorf("failed to decode event metadata: %w", err)
	}
	e.Timestamp = e.Timestamp.UTC()
	return &e, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*ledger.Event, error) {
	e, err := r.get(ctx, `id = $1`, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEventNotFound{ID: id}
		}
		r.logger.Error("Failed to get ledger event", "event_id", id, "error", err)
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) GetByIdempotencyKey(ctx context.Context, key string) (*ledger.Event, error) {
	e, err := r.get(ctx, `idempotency_key = $1`, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event by idempotency key: %w", err)
	}
	return e, nil
}

func (r *EventRepository) Count(ctx context.Context, groupID *int64) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT e.id)
		FROM ledger_events e
		LEFT JOIN ledger_postings p ON p.event_id = e.id
		WHERE $1::bigint IS NULL OR e.group_id = $1 OR p.group_id = $1
	`
	var n int64
	if err := r.querier.QueryRow(ctx, query, groupID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) CountForMember(ctx context.Context, memberID, groupID int64, from, to time.Time) (int64, error) {
	query := `
		SELECT COUNT(DISTINCT e.id)
		FROM ledger_events e
		JOIN ledger_postings p ON p.event_id = e.id
		WHERE p.member_id = $1 AND p.group_id = $2 AND e.ts >= $3 AND e.ts < $4
	`
	var n int64
	if err := r.querier.QueryRow(ctx, query, memberID, groupID, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count member events: %w", err)
	}
	return n, nil
}

func (r *EventRepository) ListGroupIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT group_id
		FROM ledger_postings
		WHERE group_id IS NOT NULL
		ORDER BY group_id
	`
	rows, err := r.querier.Query(ctx, query)
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
