package persistence

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pooled-savings-ledger/internal/config"
)

func TestNewSQLiteDB(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	ctx := context.Background()

	t.Run("InMemorySeedsChart", func(t *testing.T) {
		db, err := NewSQLiteDB(ctx, logger, &config.SQLiteConfig{Path: MemoryPath, BusyTimeout: time.Second})
		require.NoError(t, err)
		defer db.Close()

		var n int
		require.NoError(t, db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM ledger_accounts`).Scan(&n))
		assert.Equal(t, 7, n)
	})

	t.Run("FileCreatesDirectoryAndIsReopenable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "ledger.db")
		cfg := &config.SQLiteConfig{Path: path, BusyTimeout: time.Second}

		db, err := NewSQLiteDB(ctx, logger, cfg)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		again, err := NewSQLiteDB(ctx, logger, cfg)
		require.NoError(t, err)
		defer again.Close()
		assert.FileExists(t, path)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := NewSQLiteDB(ctx, logger, &config.SQLiteConfig{})
		assert.EqualError(t, err, "sqlite path cannot be empty")
	})
}

func TestSQLiteDSN(t *testing.T) {
	cfg := &config.SQLiteConfig{BusyTimeout: 2 * time.Second}
	assert.Equal(t, "file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(2000)&_txlock=immediate", sqliteDSN(MemoryPath, cfg))
	assert.Contains(t, sqliteDSN("/tmp/l.db", cfg), "_pragma=journal_mode(WAL)")
}
