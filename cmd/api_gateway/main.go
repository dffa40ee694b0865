package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pooled-savings-ledger/internal/api_gateway"
	"github.com/pooled-savings-ledger/internal/api_gateway/service"
	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/data/mongo"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/ledger/components"
	"github.com/pooled-savings-ledger/internal/logger"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	ledgerStore, closeStore, err := components.OpenStore(appCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open ledger store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	archiveRepo := mongo.NewEventArchiveRepository(log, mongoDB.Database())

	payer := tax.PayerInfo{
		Name:    cfg.Ledger.PayerName,
		TIN:     cfg.Ledger.PayerTIN,
		Address: cfg.Ledger.PayerAddress,
	}
	ledgerServices := components.CreateServices(ledgerStore, payer, log)

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Ledger:         ledgerServices.Ledger,
		Reconciliation: ledgerServices.Reconciliation,
		Reports:        ledgerServices.Reports,
		History:        service.NewEventHistoryService(log.With("component", "event_history_service"), archiveRepo),
	})
	log.Info("REST server initialized", "storage_driver", cfg.Storage.Driver)

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// In-flight requests still need the store, so the server drains first
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	closeStore()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
