package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
)

type PostingRepository struct {
	querier Querier
	logger  *slog.Logger
}

func (r *PostingRepository) CreateBatch(ctx context.Context, postings []ledger.Posting) error {
	for _, p := range postings {
		_, err := r.querier.ExecContext(ctx,
			`INSERT INTO ledger_postings (id, event_id, account_id, member_id, group_id, amount) VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.EventID, p.AccountID, nullInt(p.MemberID), nullInt(p.GroupID), p.Amount.String(),
		)
		if err != nil {
			r.logger.Error("Failed to insert posting", "event_id", p.EventID, "account_id", p.AccountID, "error", err)
			return fmt.Errorf("failed to create posting: %w", err)
		}
	}
	return nil
}

func (r *PostingRepository) ListByEvent(ctx context.Context, eventID string) ([]ledger.Posting, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT id, event_id, account_id, member_id, group_id, amount FROM ledger_postings WHERE event_id = ? ORDER BY rowid`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	defer rows.Close()

	var postings []ledger.Posting
	for rows.Next() {
		var (
			p                 ledger.Posting
			memberID, groupID sql.NullInt64
			amount            string
		)
		if err := rows.Scan(&p.ID, &p.EventID, &p.AccountID, &memberID, &groupID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		if p.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		p.MemberID = intPtr(memberID)
		p.GroupID = intPtr(groupID)
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

func (r *PostingRepository) Balance(ctx context.Context, q ledger.BalanceQuery) (decimal.Decimal, error) {
	var (
		where []string
		args  []any
	)
	query := `SELECT p.amount FROM ledger_postings p`
	if q.Before != nil {
		query += ` JOIN ledger_events e ON e.id = p.event_id`
		where = append(where, `e.ts < ?`)
		args = append(args, formatTime(*q.Before))
	}
	if len(q.AccountIDs) > 0 {
		where = append(where, `p.account_id IN (?`+strings.Repeat(`, ?`, len(q.AccountIDs)-1)+`)`)
		for _, id := range q.AccountIDs {
			args = append(args, id)
		}
	}
	if q.GroupID != nil {
		where = append(where, `p.group_id = ?`)
		args = append(args, *q.GroupID)
	}
	if q.MemberID != nil {
		where = append(where, `p.member_id = ?`)
		args = append(args, *q.MemberID)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}

	rows, err := r.querier.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query balance: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		d, err := parseAmount(amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (r *PostingRepository) BalancesByMember(ctx context.Context, account ledger.AccountID, groupID int64, before *time.Time) (map[int64]decimal.Decimal, error) {
	query := `SELECT p.member_id, p.amount FROM ledger_postings p`
	args := []any{}
	if before != nil {
		query += ` JOIN ledger_events e ON e.id = p.event_id`
	}
	query += ` WHERE p.account_id = ? AND p.group_id = ? AND p.member_id IS NOT NULL`
	args = append(args, account, groupID)
	if before != nil {
		query += ` AND e.ts < ?`
		args = append(args, formatTime(*before))
	}

	rows, err := r.querier.QueryContext(ctx, query, args...)
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
		d, err := parseAmount(amount)
		if err != nil {
			return nil, err
		}
		balances[memberID] = balances[memberID].Add(d)
	}
	return balances, rows.Err()
}

func (r *PostingRepository) UnbalancedEvents(ctx context.Context) ([]ledger.EventImbalance, error) {
	rows, err := r.querier.QueryContext(ctx,
		`SELECT e.id, p.amount FROM ledger_events e
		LEFT JOIN ledger_postings p ON p.event_id = e.id
		ORDER BY e.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event balances: %w", err)
	}
	defer rows.Close()

	var (
		out     []ledger.EventImbalance
		current string
		sum     decimal.Decimal
	)
	flush := func() {
		if current != "" && !sum.IsZero() {
			out = append(out, ledger.EventImbalance{EventID: current, Sum: sum})
		}
	}
	for rows.Next() {
		var (
			id     string
			amount sql.NullString
		)
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan posting amount: %w", err)
		}
		if id != current {
			flush()
			current, sum = id, decimal.Zero
		}
		if amount.Valid {
			d, err := parseAmount(amount.String)
			if err != nil {
				return nil, err
			}
			sum = sum.Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	flush()
	return out, nil
}
