package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pooled-savings-ledger/internal/config"
	"github.com/pooled-savings-ledger/internal/data/mongo"
	"github.com/pooled-savings-ledger/internal/domain/tax"
	"github.com/pooled-savings-ledger/internal/ledger/components"
	processorcomponents "github.com/pooled-savings-ledger/internal/ledger_processor/components"
	"github.com/pooled-savings-ledger/internal/ledger_processor/consumer"
	"github.com/pooled-savings-ledger/internal/ledger_processor/outbox_poller"
	"github.com/pooled-savings-ledger/internal/ledger_processor/service"
	"github.com/pooled-savings-ledger/internal/logger"
	"github.com/pooled-savings-ledger/internal/platform/messaging/consumers"
	"github.com/pooled-savings-ledger/internal/platform/messaging/producers"
	"github.com/pooled-savings-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"storage_driver", cfg.Storage.Driver,
	)

	ledgerStore, closeStore, err := components.OpenStore(appCtx, cfg, log)
	if err != nil {
		log.Error("Failed to open ledger store", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	archiveRepo := mongo.NewEventArchiveRepository(log, mongoDB.Database())
	if err := archiveRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create event archive indexes", "error", err)
		os.Exit(1)
	}

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	eventProducer, err := producers.NewEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize event Kafka producer", "error", err)
		os.Exit(1)
	}

	payer := tax.PayerInfo{
		Name:    cfg.Ledger.PayerName,
		TIN:     cfg.Ledger.PayerTIN,
		Address: cfg.Ledger.PayerAddress,
	}
	ledgerServices := components.CreateServices(ledgerStore, payer, log)

	commandService := processorcomponents.CreateCommandService(ledgerServices.Ledger, log, cfg)

	// A nil *DLQProducer must not reach the handler as a non-nil interface
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}
	commandHandler := consumer.NewCommandHandler(
		log.With("component", "command_handler"),
		commandService,
		deadLetters,
	)

	// Outbox rows are claimed outside any ledger transaction
	outboxRepo := ledgerStore.Repositories().Outbox
	eventPublisher := outbox_poller.NewEventPublisher(
		outboxRepo,
		archiveRepo,
		eventProducer,
		log.With("component", "event_publisher"),
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		eventPublisher,
		log.With("component", "outbox_poller"),
	)

	errChan := make(chan error, 2)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.CommandTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.CommandTopic, cfg.Kafka.ConsumerGroup, commandHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Outbox Poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	if wpService, ok := commandService.(*service.WorkerPoolCommandService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if deadLetters != nil {
		if err = deadLetters.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing event Kafka producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	closeStore()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Ledger Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Ledger Processor shutdown completed with errors")
	} else {
		log.Info("Ledger Processor shutdown completed successfully")
	}
}
