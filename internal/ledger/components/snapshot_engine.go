package components

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/domain/share"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/ledger/service"
)

type SnapshotEngineImpl struct {
	logger *slog.Logger
}

func NewSnapshotEngine(logger *slog.Logger) service.SnapshotEngine {
	return &SnapshotEngineImpl{logger: logger}
}

// RefreshGroup recomputes today's shares for the whole group. One member's principal
// change moves the pool total and with it every other member's share.
func (e *SnapshotEngineImpl) RefreshGroup(ctx context.Context, repos store.Repositories, groupID, memberID int64, now time.Time) error {
	principals, err := repos.Postings.BalancesByMember(ctx, ledger.AccountMemberPrincipal, groupID, nil)
	if err != nil {
		return fmt.Errorf("failed to load principals for group %d: %w", groupID, err)
	}
	members, err := shareholders(ctx, repos, groupID, principals, memberID)
	if err != nil {
		return err
	}

	pool := poolPrincipal(principals)
	date := share.DateOf(now)
	for _, m := range members {
		s := share.NewMemberShare(ledger.NewID("share_"), date, m, groupID, principals[m].Abs(), pool, now)
		if err := repos.Shares.Upsert(ctx, s); err != nil {
			return fmt.Errorf("failed to refresh share of member %d: %w", m, err)
		}
	}

	e.logger.Debug("Share snapshots refreshed",
		"group_id", groupID,
		"snapshot_date", date.Format(share.DateLayout),
		"members", len(members),
		"pool_principal", pool.String(),
	)
	return nil
}

// EnsureForDate backfills a missing day from the balances as they stood at the end of it.
// Existing rows are never overwritten.
func (e *SnapshotEngineImpl) EnsureForDate(ctx context.Context, repos store.Repositories, groupID int64, date, now time.Time) ([]share.MemberShare, error) {
	date = share.DateOf(date)
	existing, err := repos.Shares.ListByGroupAndDate(ctx, groupID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	endOfDay := date.AddDate(0, 0, 1)
	principals, err := repos.Postings.BalancesByMember(ctx, ledger.AccountMemberPrincipal, groupID, &endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to load principals for group %d: %w", groupID, err)
	}
	members, err := shareholders(ctx, repos, groupID, principals, 0)
	if err != nil {
		return nil, err
	}

	pool := poolPrincipal(principals)
	created := 0
	for _, m := range members {
		s := share.NewMemberShare(ledger.NewID("share_"), date, m, groupID, principals[m].Abs(), pool, now)
		inserted, err := repos.Shares.InsertIfAbsent(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("failed to create share of member %d: %w", m, err)
		}
		if inserted {
			created++
		}
	}

	e.logger.Info("Generated missing share snapshots",
		"group_id", groupID,
		"snapshot_date", date.Format(share.DateLayout),
		"created", created,
		"pool_principal", pool.String(),
	)
	return repos.Shares.ListByGroupAndDate(ctx, groupID, date)
}

// shareholders is every active member plus anyone still holding principal, sorted
func shareholders(ctx context.Context, repos store.Repositories, groupID int64, principals map[int64]decimal.Decimal, extra int64) ([]int64, error) {
	active, err := repos.Directory.ActiveMemberIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of group %d: %w", groupID, err)
	}
	seen := make(map[int64]struct{}, len(active)+len(principals)+1)
	for _, id := range active {
		seen[id] = struct{}{}
	}
	for id, p := range principals {
		if !p.IsZero() {
			seen[id] = struct{}{}
		}
	}
	if extra > 0 {
		seen[extra] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func poolPrincipal(principals map[int64]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range principals {
		total = total.Add(p)
	}
	return total.Abs()
}
