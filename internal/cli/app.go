package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/data/sqlite"
	"github.com/pooled-savings-ledger/internal/domain/membership"
	"github.com/pooled-savings-ledger/internal/domain/store"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/ledger/components"
	"github.com/pooled-savings-ledger/internal/ledger/service"
	"github.com/pooled-savings-ledger/internal/logger"
)

// ErrReadOnlyDirectory is returned by directory commands against a store whose
// membership tables belong to another system
var ErrReadOnlyDirectory = errors.New("membership directory is read-only for this storage driver")

// DirectoryWriter maintains groups and memberships in local mode
type DirectoryWriter interface {
	SaveGroup(ctx context.Context, g membership.Group) error
	SaveMember(ctx context.Context, m membership.Member) error
	SetMembership(ctx context.Context, groupID, memberID int64, active bool) error
}

// app holds the global flags and the services opened for one invocation
type app struct {
	configName string
	dbPath     string
	logLevel   string

	logger    *slog.Logger
	services  *service.Services
	directory DirectoryWriter
	closers   []func()
}

// open loads configuration and wires the ledger services over the configured store.
// --db forces local mode on the given SQLite file.
func (a *app) open(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.LoadConfig(a.configName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.dbPath != "" {
		cfg.Storage.Driver = config.StorageDriverSQLite
		cfg.SQLite.Path = a.dbPath
	}
	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = logger.New(stderr, level)

	st, err := a.openStore(ctx, cfg)
	if err != nil {
		return err
	}

	payer := tax.PayerInfo{
		Name:    cfg.Ledger.PayerName,
		TIN:     cfg.Ledger.PayerTIN,
		Address: cfg.Ledger.PayerAddress,
	}
	a.services = components.CreateServices(st, payer, a.logger)
	return nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, closeStore, err := components.OpenStore(ctx, cfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	// Only the embedded store owns its membership tables
	if local, ok := st.(*sqlite.Store); ok {
		a.directory = local.Directory()
	}
	return st, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) directoryWriter() (DirectoryWriter, error) {
	if a.directory == nil {
		return nil, ErrReadOnlyDirectory
	}
	return a.directory, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
