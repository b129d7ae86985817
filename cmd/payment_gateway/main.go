package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"

	"github.com/iso20022-payment-hub/internal/config"
	"github.com/iso20022-payment-hub/internal/data/postgres"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/logger"
	"github.com/iso20022-payment-hub/internal/payment_gateway"
	"github.com/iso20022-payment-hub/internal/payment_gateway/outbox_poller"
	"github.com/iso20022-payment-hub/internal/payment_gateway/service"
	"github.com/iso20022-payment-hub/internal/platform/messaging/producers"
	"github.com/iso20022-payment-hub/internal/platform/persistence"
	"github.com/iso20022-payment-hub/internal/rules"
	"github.com/iso20022-payment-hub/internal/simulator"
	"github.com/iso20022-payment-hub/internal/statemachine"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("payment_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for lifecycle events (fed by the outbox poller)
	kafkaProducer, err := producers.NewPaymentEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize payment event Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB, outboxRepo)

	// Initialize worker pool for batch transitions
	pool, err := ants.NewPool(cfg.WorkerPool.Size)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize core components. The machine and the simulator each get
	// their own random source: they draw from different goroutines and a
	// *rand.Rand must not be shared across components.
	seed := time.Now().UnixNano()
	engine := rules.NewEngine()
	machine := statemachine.NewMachine(log, paymentRepo, pool, rand.New(rand.NewSource(seed)))

	sim, err := simulator.New(log, machine, paymentRepo, clockwork.NewRealClock(), rand.New(rand.NewSource(seed+1)), simulator.Config{
		Enabled:         cfg.Simulator.Enabled,
		SpeedMultiplier: cfg.Simulator.SpeedMultiplier,
		FailureRate:     cfg.Simulator.FailureRate,
		PauseAtStatus:   payment.Status(cfg.Simulator.PauseAtStatus),
		BaseDelays: simulator.Delays{
			ToPending:    cfg.Simulator.DelayToPending,
			ToProcessing: cfg.Simulator.DelayToProcessing,
			ToFinal:      cfg.Simulator.DelayToFinal,
		},
	})
	if err != nil {
		log.Error("Failed to initialize progression simulator", "error", err)
		os.Exit(1)
	}

	// Initialize services
	paymentService := service.NewPaymentService(log, paymentRepo, engine, machine, sim)
	simulatorService := service.NewSimulatorService(log, sim)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(outboxRepo, kafkaProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)

	// Initialize REST server
	server := payment_gateway.NewServer(log, cfg, paymentService, simulatorService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start outbox poller in a goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Let in-flight simulated progressions and the poller finish
	sim.Wait()
	wg.Wait()
	pool.Release()

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
