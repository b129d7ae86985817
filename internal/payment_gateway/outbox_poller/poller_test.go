package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iso20022-payment-hub/internal/config"
	"github.com/iso20022-payment-hub/internal/domain/outbox"
	"github.com/iso20022-payment-hub/internal/domain/shared"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*outbox.Message, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	m.Called(tx)
	return m
}

// MockEventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func pollerConfig() *config.OutboxConfig {
	return &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes every pending message", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		first := pendingMessage(t)
		second := pendingMessage(t)
		second.ID = 2

		mockRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{first, second}, nil)
		mockPublisher.On("PublishEvent", ctx, first).Return(nil)
		mockPublisher.On("PublishEvent", ctx, second).Return(nil)

		err := poller.processPendingMessages(ctx)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		mockRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{}, nil)

		err := poller.processPendingMessages(ctx)

		assert.NoError(t, err)
		mockPublisher.AssertNotCalled(t, "PublishEvent", mock.Anything, mock.Anything)
	})

	t.Run("GetPending failure is returned", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		mockRepo.On("GetPending", ctx, 10).Return(nil, errors.New("db down"))

		err := poller.processPendingMessages(ctx)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get pending outbox messages")
	})

	t.Run("publish failure increments attempts", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		msg := pendingMessage(t)
		msg.Attempts = 0

		mockRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil)
		mockPublisher.On("PublishEvent", ctx, msg).Return(errors.New("broker unreachable"))
		mockRepo.On("IncrementAttempts", ctx, msg.ID).Return(nil)

		err := poller.processPendingMessages(ctx)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("final attempt marks the message failed", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		msg := pendingMessage(t)
		msg.Attempts = 2

		mockRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil)
		mockPublisher.On("PublishEvent", ctx, msg).Return(errors.New("broker unreachable"))
		mockRepo.On("IncrementAttempts", ctx, msg.ID).Return(nil)
		mockRepo.On("UpdateStatus", ctx, msg.ID, shared.OutboxStatusFailedToPublish).Return(nil)

		err := poller.processPendingMessages(ctx)

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("increment failure skips the retry bookkeeping", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		msg := pendingMessage(t)
		msg.Attempts = 2

		mockRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{msg}, nil)
		mockPublisher.On("PublishEvent", ctx, msg).Return(errors.New("broker unreachable"))
		mockRepo.On("IncrementAttempts", ctx, msg.ID).Return(errors.New("db error"))

		err := poller.processPendingMessages(ctx)

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("one bad message does not block the rest", func(t *testing.T) {
		mockRepo := &MockOutboxRepo{}
		mockPublisher := &MockEventPublisher{}
		poller := NewPoller(pollerConfig(), mockRepo, mockPublisher, slog.Default())

		failing := pendingMessage(t)
		healthy := pendingMessage(t)
		healthy.ID = 2

		mockRepo.On("GetPending", ctx, 10).Return([]*outbox.Message{failing, healthy}, nil)
		mockPublisher.On("PublishEvent", ctx, failing).Return(errors.New("broker unreachable"))
		mockRepo.On("IncrementAttempts", ctx, failing.ID).Return(nil)
		mockPublisher.On("PublishEvent", ctx, healthy).Return(nil)

		err := poller.processPendingMessages(ctx)

		assert.NoError(t, err)
		mockPublisher.AssertExpectations(t)
	})
}

func TestPoller_Start_StopsOnContextCancel(t *testing.T) {
	mockRepo := &MockOutboxRepo{}
	mockPublisher := &MockEventPublisher{}
	cfg := &config.OutboxConfig{PollingInterval: 10 * time.Millisecond, BatchSize: 5, MaxRetryAttempts: 3}
	poller := NewPoller(cfg, mockRepo, mockPublisher, slog.Default())

	mockRepo.On("GetPending", mock.Anything, 5).Return([]*outbox.Message{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
