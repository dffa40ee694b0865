package components

import (
	"log/slog"

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/ledger_processor/service"
)

// CreateCommandService wires the command service behind a worker pool, falling back to the
// unpooled service when the pool cannot be created.
func CreateCommandService(
	ledger service.LedgerOperations,
	logger *slog.Logger,
	cfg *config.Config,
) service.CommandService {
	validator := NewCommandValidator(logger.With("component", "command_validator"))

	baseService := service.NewCommandService(
		validator,
		ledger,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolCommandService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool command service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
