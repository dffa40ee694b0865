package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/pooled-savings-ledger/internal/domain/shared"
	"github.com/pooled-savings-ledger/internal/logger"
)

// WorkerPoolCommandService bounds how many commands hit the ledger at once
type WorkerPoolCommandService struct {
	baseService CommandService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

type commandResult struct {
	outcome shared.CommandOutcome
	err     error
}

func NewWorkerPoolCommandService(
	baseService CommandService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolCommandService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolCommandService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessCommand runs the command on a pooled worker and waits for its outcome.
func (s *WorkerPoolCommandService) ProcessCommand(ctx context.Context, cmd *shared.LedgerCommand) (shared.CommandOutcome, error) {
	log := logger.FromContext(logger.ContextWithCorrelationID(ctx, cmd.CorrelationID), s.logger)
	log.Debug("Submitting command to worker pool", "command_id", cmd.CommandID.String())

	resultChan := make(chan commandResult, 1)

	// Copy so the consumer can reuse its buffer
	cmdCopy := *cmd

	err := s.pool.Submit(func() {
		outcome, err := s.baseService.ProcessCommand(ctx, &cmdCopy)
		resultChan <- commandResult{outcome: outcome, err: err}
	})
	if err != nil {
		log.Error("Failed to submit command to worker pool",
			"command_id", cmd.CommandID.String(),
			"error", err,
		)
		return shared.CommandOutcomeFailed, err
	}

	select {
	case res := <-resultChan:
		return res.outcome, res.err
	case <-ctx.Done():
		return shared.CommandOutcomeFailed, ctx.Err()
	}
}

// Shutdown releases the pool. Commands already running complete on their own goroutines.
func (s *WorkerPoolCommandService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolCommandService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolCommandService) Capacity() int {
	return s.pool.Cap()
}
