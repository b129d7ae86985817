package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/iso20022-payment-hub/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolArchivingService implements the ArchivingService interface by
// fanning archiving work out to a bounded worker pool
type WorkerPoolArchivingService struct {
	baseService ArchivingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolArchivingService(
	baseService ArchivingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolArchivingService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolArchivingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// ArchiveEvent submits an event to the worker pool for archiving.
func (s *WorkerPoolArchivingService) ArchiveEvent(ctx context.Context, event *shared.PaymentEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Submitting payment event to worker pool",
		"payment_id", event.Payment.ID.String(),
		"event_id", event.EventID,
	)

	// Create a channel to receive the result of the archiving
	resultChan := make(chan error, 1)

	// Store the result channel in the result map
	resultKey := event.Payment.ID.String() + ":" + strconv.FormatInt(event.EventID, 10)
	s.mu.Lock()
	s.results[resultKey] = resultChan
	s.mu.Unlock()

	// Create a copy of the event to avoid data races
	eventCopy := *event

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		// Archive the event using the base service
		err := s.baseService.ArchiveEvent(ctx, &eventCopy)

		// Send the result to the channel
		resultChan <- err

		// Remove the result channel from the map
		s.mu.Lock()
		delete(s.results, resultKey)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, resultKey)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit payment event to worker pool",
			"payment_id", event.Payment.ID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolArchivingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolArchivingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolArchivingService) Capacity() int {
	return s.pool.Cap()
}
