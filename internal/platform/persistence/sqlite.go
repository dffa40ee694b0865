package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/migrations"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// SQLiteDB is an embedded single-file ledger store
type SQLiteDB struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
}

// sqliteDSN enables foreign keys, waits on locks, and makes every
// transaction take the write lock at BEGIN so writers never interleave.
func sqliteDSN(path string, cfg *config.SQLiteConfig) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		fmt.Sprintf("_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()),
		"_txlock=immediate",
	}
	if path != MemoryPath {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	return "file:" + path + "?" + strings.Join(params, "&")
}

func NewSQLiteDB(ctx context.Context, logger *slog.Logger, cfg *config.SQLiteConfig) (*SQLiteDB, error) {
	path := cfg.Path
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", sqliteDSN(path, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	// Each connection to :memory: is its own database, and SQLite allows one writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	if err := RunSQLiteMigrations(db, migrations.SQLite, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Opened SQLite ledger store", "path", path)

	return &SQLiteDB{db: db, logger: logger, path: path}, nil
}

func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

func (s *SQLiteDB) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite: %w", err)
	}
	s.logger.Info("Closed SQLite ledger store", "path", s.path)
	return nil
}
