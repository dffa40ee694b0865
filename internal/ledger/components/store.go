package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/data/postgres"
	"github.com/pooled-savings-ledger/internal/data/sqlite"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

// OpenStore connects the ledger store selected by STORAGE_DRIVER and applies its
// migrations. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStore(db, logger), db.Close, nil
	case config.StorageDriverSQLite:
		db, err := persistence.NewSQLiteDB(ctx, logger, &cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewStore(db.DB(), logger), func() {
			if err := db.Close(); err != nil {
				logger.Error("Error closing SQLite", "error", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
