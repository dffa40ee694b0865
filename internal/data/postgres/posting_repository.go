package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// PostingRepository stores posting legs. Amounts travel as NUMERIC and come back as text.
type PostingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func (r *PostingRepository) CreateBatch(ctx context.Context, postings []ledger.Posting) error {
	query := `
		INSERT INTO ledger_postings (id, event_id, account_id, member_id, group_id, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, p := range postings {
		_, err := r.querier.Exec(ctx, query, p.ID, p.EventID, p.AccountID, p.MemberID, p.GroupID, p.Amount)
		if err != nil {
			r.logger.Error("Failed to insert posting",
				"event_id", p.EventID,
				"account_id", p.AccountID,
				"error", err,
			)
			return fmt.Errorf("failed to create posting: %w", err)
		}
	}
	return nil
}

func (r *PostingRepository) ListByEvent(ctx context.Context, eventID string) ([]ledger.Posting, error) {
	query := `
		SELECT id, event_id, account_id, member_id, group_id, amount::text
		FROM ledger_postings
		WHERE event_id = $1
		ORDER BY id
	`
	rows, err := r.querier.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	var postings []ledger.Posting
	for rows.Next() {
		var (
			p      ledger.Posting
			amount string
		)
		if err := rows.Scan(&p.ID, &p.EventID, &p.AccountID, &p.MemberID, &p.GroupID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("failed to parse posting amount: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func scanSum(row pgx.Row) (decimal.Decimal, error) {
	var total string
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(total)
}

func (r *PostingRepository) Balance(ctx context.Context, q ledger.BalanceQuery) (decimal.Decimal, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	query := `SELECT COALESCE(SUM(p.amount), 0)::text FROM ledger_postings p`
	if q.Before != nil {
		query += ` JOIN ledger_events e ON e.id = p.event_id`
		where = append(where, `e.ts < `+arg(*q.Before))
	}
	if len(q.AccountIDs) > 0 {
		ids := make([]string, len(q.AccountIDs))
		for i, id := range q.AccountIDs {
			ids[i] = string(id)
		}
		where = append(where, `p.account_id = ANY(`+arg(ids)+`)`)
	}
	if q.GroupID != nil {
		where = append(where, `p.group_id = `+arg(*q.GroupID))
	}
	if q.MemberID != nil {
		where = append(where, `p.member_id = `+arg(*q.MemberID))
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	total, err := scanSum(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance: %w", err)
	}
	return total, nil
}

func (r *PostingRepository) BalancesByMember(ctx context.Context, account ledger.AccountID, groupID int64, before *time.Time) (map[int64]decimal.Decimal, error) {
	query := `
		SELECT p.member_id, SUM(p.amount)::text
		FROM ledger_postings p
		JOIN ledger_events e ON e.id = p.event_id
		WHERE p.account_id = $1 AND p.group_id = $2 AND p.member_id IS NOT NULL
			AND ($3::timestamptz IS NULL OR e.ts < $3)
		GROUP BY p.member_id
	`
	rows, err := r.querier.Query(ctx, query, account, groupID, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query member balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			memberID int64
			amount   string
		)
		if err := rows.Scan(&memberID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan member balance: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse member balance: %w", err)
		}
		balances[memberID] = d
	}
	return balances, rows.Err()
}

func (r *PostingRepository) UnbalancedEvents(ctx context.Context) ([]ledger.EventImbalance, error) {
	query := `
		SELECT e.id, COALESCE(SUM(p.amount), 0)::text
		FROM ledger_events e
		LEFT JOIN ledger_postings p ON p.event_id = e.id
		GROUP BY e.id
		HAVING COALESCE(SUM(p.amount), 0) <> 0
		ORDER BY e.id
	`
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event balances: %w", err)
	}
	defer rows.Close()

	var out []ledger.EventImbalance
	for rows.Next() {
		var id, sum string
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan event balance: %w", err)
		}
		d, err := decimal.NewFromString(sum)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event balance: %w", err)
		}
		out = append(out, ledger.EventImbalance{EventID: id, Sum: d})
	}
	return out, rows.Err()
}
