package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/domain/store"
)

// Store runs ledger units of work on SQLite. The connection is opened with
// _txlock=immediate, so every transaction holds the database write lock from
// BEGIN and group-level locking is implicit.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger.With("component", "sqlite_store")}
}

func (s *Store) bind(q Querier) store.Repositories {
	return store.Repositories{
		Accounts:   &AccountRepository{querier: q, logger: s.logger},
		Events:     &EventRepository{querier: q, logger: s.logger},
		Postings:   &PostingRepository{querier: q, logger: s.logger},
		Shares:     &ShareRepository{querier: q, logger: s.logger},
		TaxBuckets: &TaxBucketRepository{querier: q, logger: s.logger},
		Reports:    &TaxReportRepository{querier: q, logger: s.logger},
		Outbox:     &OutboxRepository{querier: q, logger: s.logger},
		Directory:  &DirectoryRepository{querier: q, logger: s.logger},
		Locker:     noopLocker{},
	}
}

func (s *Store) Repositories() store.Repositories {
	return s.bind(s.db)
}

// Directory exposes the writable membership tables used by local mode
func (s *Store) Directory() *DirectoryRepository {
	return &DirectoryRepository{querier: s.db, logger: s.logger}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return s.execute(ctx, fn)
}

// ReadOnly shares the write path: the immediate lock already gives a consistent view.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return s.execute(ctx, fn)
}

func (s *Store) execute(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, s.bind(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type noopLocker struct{}

func (noopLocker) LockGroup(context.Context, int64) error { return nil }
