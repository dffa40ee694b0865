package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

type ShareRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

const shareInsert = `
	INSERT INTO member_shares
		(id, snapshot_date, member_id, group_id, pool_principal, member_principal, member_share, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func shareArgs(s *share.MemberShare) []any {
	return []any{
		s.ID, share.DateOf(s.SnapshotDate), s.MemberID, s.GroupID,
		s.PoolPrincipal, s.MemberPrincipal, s.Share, s.CreatedAt,
	}
}

func (r *ShareRepository) Upsert(ctx context.Context, s *share.MemberShare) error {
	query := shareInsert + `
	ON CONFLICT (snapshot_date, member_id, group_id) DO UPDATE SET
		pool_principal = EXCLUDED.pool_principal,
		member_principal = EXCLUDED.member_principal,
		member_share = EXCLUDED.member_share,
		created_at = EXCLUDED.created_at`

	if _, err := r.querier.Exec(ctx, query, shareArgs(s)...); err != nil {
		r.logger.Error("Failed to upsert member share",
			"member_id", s.MemberID,
			"group_id", s.GroupID,
			"error", err,
		)
		return fmt.Errorf("failed to upsert member share: %w", err)
	}
	return nil
}

func (r *ShareRepository) InsertIfAbsent(ctx context.Context, s *share.MemberShare) (bool, error) {
	query := shareInsert + `
	ON CONFLICT (snapshot_date, member_id, group_id) DO NOTHING`

	tag, err := r.querier.Exec(ctx, query, shareArgs(s)...)
	if err != nil {
		return false, fmt.Errorf("failed to insert member share: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ShareRepository) ListByGroupAndDate(ctx context.Context, groupID int64, date time.Time) ([]share.MemberShare, error) {
	query := `
		SELECT id, snapshot_date, member_id, group_id, pool_principal::text, member_principal::text, member_share::text, created_at
		FROM member_shares
		WHERE group_id = $1 AND snapshot_date = $2
		ORDER BY member_id
	`
	rows, err := r.querier.Query(ctx, query, groupID, share.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list member shares: %w", err)
	}
	defer rows.Close()

	var out []share.MemberShare
	for rows.Next() {
		var (
			s                   share.MemberShare
			pool, member, ratio string
		)
		if err := rows.Scan(&s.ID, &s.SnapshotDate, &s.MemberID, &s.GroupID, &pool, &member, &ratio, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member share: %w", err)
		}
		if s.PoolPrincipal, err = decimal.NewFromString(pool); err != nil {
			return nil, fmt.Errorf("failed to parse pool principal: %w", err)
		}
		if s.MemberPrincipal, err = decimal.NewFromString(member); err != nil {
			return nil, fmt.Errorf("failed to parse member principal: %w", err)
		}
		if s.Share, err = decimal.NewFromString(ratio); err != nil {
			return nil, fmt.Errorf("failed to parse member share: %w", err)
		}
		s.SnapshotDate = share.DateOf(s.SnapshotDate)
		out = append(out, s)
	}
	return out, rows.Err()
}
