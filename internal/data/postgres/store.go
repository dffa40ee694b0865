package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// txExecutor is the part of persistence.PostgresDB the store needs
type txExecutor interface {
	ExecuteTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error
}

var (
	// Writers serialize per group through an advisory lock, so read committed suffices.
	writeTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite}
	readTxOptions  = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// Store is the authoritative ledger store on PostgreSQL
type Store struct {
	db      txExecutor
	querier persistence.Querier
	logger  *slog.Logger
}

var _ store.Store = (*Store)(nil)

func NewStore(db *persistence.PostgresDB, logger *slog.Logger) *Store {
	return &Store{db: db, querier: db.Pool(), logger: logger.With("component", "postgres_store")}
}

func (s *Store) bind(q persistence.Querier) store.Repositories {
	return store.Repositories{
		Accounts:   &AccountRepository{querier: q, logger: s.logger},
		Events:     &EventRepository{querier: q, logger: s.logger},
		Postings:   &PostingRepository{querier: q, logger: s.logger},
		Shares:     &ShareRepository{querier: q, logger: s.logger},
		TaxBuckets: &TaxBucketRepository{querier: q, logger: s.logger},
		Reports:    &TaxReportRepository{querier: q, logger: s.logger},
		Outbox:     &OutboxRepository{querier: q, logger: s.logger},
		Directory:  &DirectoryRepository{querier: q, logger: s.logger},
		Locker:     &AdvisoryLocker{querier: q},
	}
}

func (s *Store) Repositories() store.Repositories {
	return s.bind(s.querier)
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return s.db.ExecuteTx(ctx, writeTxOptions, func(tx pgx.Tx) error {
		return fn(ctx, s.bind(tx))
	})
}

func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return s.db.ExecuteTx(ctx, readTxOptions, func(tx pgx.Tx) error {
		return fn(ctx, s.bind(tx))
	})
}

// AdvisoryLocker takes transaction-scoped advisory locks keyed by group
type AdvisoryLocker struct {
	querier persistence.Querier
}

func (l *AdvisoryLocker) LockGroup(ctx context.Context, groupID int64) error {
	key := fmt.Sprintf("ledger:group:%d", groupID)
	if _, err := l.querier.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock group %d: %w", groupID, err)
	}
	return nil
}
