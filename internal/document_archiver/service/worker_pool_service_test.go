package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/domain/shared"
)

// MockArchivingService mocks the ArchivingService interface
type MockArchivingService struct {
	mock.Mock
}

func (m *MockArchivingService) ArchiveEvent(ctx context.Context, event *shared.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestWorkerPoolArchivingService_ArchiveEvent(t *testing.T) {
	logger := slog.Default()
	event := sampleEvent(payment.StatusPending)

	tests := []struct {
		name          string
		setupMocks    func(m *MockArchivingService)
		expectedError error
	}{
		{
			name: "successful archiving",
			setupMocks: func(m *MockArchivingService) {
				m.On("ArchiveEvent", mock.Anything, mock.Anything).Return(nil).Once()
			},
			expectedError: nil,
		},
		{
			name: "archiving error",
			setupMocks: func(m *MockArchivingService) {
				m.On("ArchiveEvent", mock.Anything, mock.Anything).Return(errors.New("archiving error")).Once()
			},
			expectedError: errors.New("archiving error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockBaseService := &MockArchivingService{}

			workerPoolService, err := NewWorkerPoolArchivingService(
				mockBaseService,
				WorkerPoolConfig{
					Size: 2,
				},
				logger,
			)
			assert.NoError(t, err)
			defer workerPoolService.Shutdown()

			tt.setupMocks(mockBaseService)
			ctx := context.Background()

			err = workerPoolService.ArchiveEvent(ctx, event)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}

			mockBaseService.AssertExpectations(t)
		})
	}
}

func TestWorkerPoolArchivingService_Concurrency(t *testing.T) {
	mockBaseService := &MockArchivingService{}
	logger := slog.Default()

	workerPoolService, err := NewWorkerPoolArchivingService(
		mockBaseService,
		WorkerPoolConfig{
			Size: 5,
		},
		logger,
	)
	assert.NoError(t, err)
	defer workerPoolService.Shutdown()

	var mu sync.Mutex
	counter := 0

	mockBaseService.On("ArchiveEvent", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		// Simulate some work
		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		counter++
		mu.Unlock()
	}).Return(nil)

	numEvents := 10
	var wg sync.WaitGroup
	wg.Add(numEvents)

	for i := 0; i < numEvents; i++ {
		go func(i int) {
			defer wg.Done()

			event := sampleEvent(payment.StatusPending)
			event.EventID = int64(i)

			ctx := context.Background()
			err := workerPoolService.ArchiveEvent(ctx, event)
			assert.NoError(t, err)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, numEvents, counter)

	assert.True(t, workerPoolService.Running() > 0)
	assert.Equal(t, 5, workerPoolService.Capacity())
}
