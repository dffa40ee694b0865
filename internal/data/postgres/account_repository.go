package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// AccountRepository reads the seeded chart of accounts
type AccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func (r *AccountRepository) List(ctx context.Context) ([]ledger.Account, error) {
	query := `
		SELECT id, type, name, description, is_active
		FROM ledger_accounts
		ORDER BY CASE id
			WHEN 'pool_cash' THEN 1 WHEN 'member_principal' THEN 2 WHEN 'member_earnings' THEN 3
			WHEN 'interest_income' THEN 4 WHEN 'fee_income' THEN 5 WHEN 'rounding_reserve' THEN 6
			WHEN 'operating_expense' THEN 7 ELSE 8 END, id
	`
	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list accounts", "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.Type, &a.Name, &a.Description, &a.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over accounts: %w", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Get(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	query := `
		SELECT id, type, name, description, is_active
		FROM ledger_accounts
		WHERE id = $1
	`
	var a ledger.Account
	err := r.querier.QueryRow(ctx, query, id).Scan(&a.ID, &a.Type, &a.Name, &a.Description, &a.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrUnknownAccount{ID: id}
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}
