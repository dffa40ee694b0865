package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pooled-savings-ledger/internal/domain/share"
)

type ShareRepository struct {
	querier Querier
	logger  *slog.Logger
}

const shareInsert = `INSERT INTO member_shares
	(id, snapshot_date, member_id, group_id, pool_principal, member_principal, member_share, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func shareArgs(s *share.MemberShare) []any {
	return []any{
		s.ID, formatDate(s.SnapshotDate), s.MemberID, s.GroupID,
		s.PoolPrincipal.String(), s.MemberPrincipal.String(), s.Share.String(), formatTime(s.CreatedAt),
	}
}

func (r *ShareRepository) Upsert(ctx context.Context, s *share.MemberShare) error {
	_, err := r.querier.ExecContext(ctx, shareInsert+`
		ON CONFLICT (snapshot_date, member_id, group_id) DO UPDATE SET
			pool_principal = excluded.pool_principal,
			member_principal = excluded.member_principal,
			member_share = excluded.member_share,
			created_at = excluded.created_at`,
		shareArgs(s)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member share: %w", err)
	}
	return nil
}

func (r *ShareRepository) InsertIfAbsent(ctx context.Context, s *share.MemberShare) (bool, error) {
	res, err := r.querier.ExecContext(ctx, shareInsert+` ON CONFLICT (snapshot_date, member_id, group_id) DO NOTHING`, shareArgs(s)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert member share: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *ShareRepository) ListByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]share.MemberShare, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT id, snapshot_date, member_id, group_id, pool_principal, member_principal, member_share, created_at
		FROM member_shares WHERE group_id = ? AND snapshot_date = ? ORDER BY member_id`,
		groupID, formatDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list member shares: %w", err)
	}
	defer rows.Close()

	var out []share.MemberShare
	for rows.Next() {
		var (
			s                                 share.MemberShare
			day, pool, member, ratio, created string
		)
		if err := rows.Scan(&s.ID, &day, &s.MemberID, &s.GroupID, &pool, &member, &ratio, &created); err != nil {
			return nil, fmt.Errorf("failed to scan member share: %w", err)
		}
		if s.SnapshotDate, err = parseDate(day); err != nil {
			return nil, err
		}
		if s.PoolPrincipal, err = parseAmount(pool); err != nil {
			return nil, err
		}
		if s.MemberPrincipal, err = parseAmount(member); err != nil {
			return nil, err
		}
		if s.Share, err = parseAmount(ratio); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
