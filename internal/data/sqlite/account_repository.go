package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
)

type AccountRepository struct {
	querier Querier
	logger  *slog.Logger
}

func (r *AccountRepository) List(ctx context.Context) ([]ledger.Account, error) {
	rows, err := r.querier.QueryContext(ctx, `SELECT id, type, name, description, is_active FROM ledger_accounts ORDER BY rowid`)
	if err != nil {
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
	return accounts, rows.Err()
}

func (r *AccountRepository) Get(ctx context.Context, id ledger.AccountID) (*ledger.Account, error) {
	var a ledger.Account
	err := r.querier.QueryRowContext(ctx,
		`SELECT id, type, name, description, is_active FROM ledger_accounts WHERE id = ?`, id,
	).Scan(&a.ID, &a.Type, &a.Name, &a.Description, &a.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrUnknownAccount{ID: id}
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}
