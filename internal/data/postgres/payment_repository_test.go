package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iso20022-payment-hub/internal/domain/outbox"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/domain/shared"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// MockOutboxRepository for testing
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*outbox.Message, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	m.Called(tx)
	return m
}

// mockTxRunner drives ExecuteTx through a pgxmock pool so transaction
// expectations (begin, statements, commit or rollback) can be asserted.
type mockTxRunner struct {
	pool pgxmock.PgxPoolIface
}

func (m *mockTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func newPaymentRepoUnderTest(t *testing.T) (*PaymentRepository, pgxmock.PgxPoolIface, *MockOutboxRepository) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	outboxRepo := &MockOutboxRepository{}
	repo := &PaymentRepository{
		db:         &mockTxRunner{pool: pool},
		querier:    pool,
		outboxRepo: outboxRepo,
		logger:     newTestLogger(),
	}
	return repo, pool, outboxRepo
}

func storedPayment() *payment.Payment {
	return payment.NewPayment(payment.RailRTP, decimal.RequireFromString("1500.25"), "USD",
		"Acme Corp", "ACC-001", "Globex Inc", "ACC-002", "SUPP", "Invoice 42")
}

func paymentRows(p *payment.Payment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "uetr", "rail", "amount", "currency", "debtor_name", "debtor_account",
		"creditor_name", "creditor_account", "purpose", "remittance", "status",
		"msg_id", "pmt_inf_id", "instr_id", "end_to_end_id", "created_at", "updated_at",
	}).AddRow(
		p.ID, p.UETR, p.Rail, p.Amount.String(), p.Currency, p.DebtorName, p.DebtorAccount,
		p.CreditorName, p.CreditorAccount, p.Purpose, p.Remittance, p.Status,
		p.Identifiers.MessageID, p.Identifiers.PaymentInfoID, p.Identifiers.InstructionID,
		p.Identifiers.EndToEndID, p.CreatedAt, p.UpdatedAt,
	)
}

func TestPaymentRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("commits payment, event and outbox row together", func(t *testing.T) {
		repo, pool, outboxRepo := newPaymentRepoUnderTest(t)
		p := storedPayment()
		initial := payment.NewEvent(p.ID, string(payment.StatusCreated), "Payment initiated", payment.EventMetadata{NewStatus: payment.StatusCreated})

		pool.ExpectBegin()
		pool.ExpectExec(`INSERT INTO payments`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(`INSERT INTO payment_events`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
		outboxRepo.On("WithTx", mock.Anything).Return(outboxRepo)
		outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		pool.ExpectCommit()

		err := repo.Create(ctx, p, initial)
		require.NoError(t, err)
		assert.Equal(t, int64(1), initial.ID)
		assert.NoError(t, pool.ExpectationsWereMet())

		// The outbox payload must carry the full payment snapshot
		msg := outboxRepo.Calls[1].Arguments.Get(1).(*outbox.Message)
		envelope, err := msg.GetPaymentEvent()
		require.NoError(t, err)
		assert.Equal(t, p.ID, envelope.Payment.ID)
		assert.Equal(t, string(payment.StatusCreated), envelope.EventType)
	})

	t.Run("rolls back when the event insert fails", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)
		p := storedPayment()
		initial := payment.NewEvent(p.ID, string(payment.StatusCreated), "Payment initiated", payment.EventMetadata{})

		pool.ExpectBegin()
		pool.ExpectExec(`INSERT INTO payments`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(`INSERT INTO payment_events`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("db error"))
		pool.ExpectRollback()

		err := repo.Create(ctx, p, initial)
		assert.Error(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestPaymentRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)
		p := storedPayment()

		pool.ExpectQuery(`SELECT (.+) FROM payments WHERE id`).
			WithArgs(p.ID).
			WillReturnRows(paymentRows(p))

		got, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
		assert.True(t, p.Amount.Equal(got.Amount))
		assert.Equal(t, p.Identifiers, got.Identifiers)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)
		id := uuid.New()

		pool.ExpectQuery(`SELECT (.+) FROM payments WHERE id`).
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, id)
		assert.Nil(t, got)
		var notFound payment.ErrPaymentNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, id, notFound.PaymentID)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestPaymentRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("no filter", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)
		p := storedPayment()

		pool.ExpectQuery(`SELECT (.+) FROM payments ORDER BY created_at DESC`).
			WillReturnRows(paymentRows(p))

		payments, err := repo.List(ctx, payment.Filter{})
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, p.ID, payments[0].ID)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("status and rail filters bind as parameters", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)
		p := storedPayment()

		pool.ExpectQuery(`SELECT (.+) FROM payments WHERE status = ANY(.+) AND rail =`).
			WithArgs([]string{"CREATED", "PENDING"}, "RTP").
			WillReturnRows(paymentRows(p))

		payments, err := repo.List(ctx, payment.Filter{
			Statuses: []payment.Status{payment.StatusCreated, payment.StatusPending},
			Rail:     payment.RailRTP,
		})
		require.NoError(t, err)
		assert.Len(t, payments, 1)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("exclude statuses", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)

		pool.ExpectQuery(`SELECT (.+) FROM payments WHERE NOT \(status = ANY(.+)\)`).
			WithArgs([]string{"COMPLETED", "FAILED"}).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "uetr", "rail", "amount", "currency", "debtor_name", "debtor_account",
				"creditor_name", "creditor_account", "purpose", "remittance", "status",
				"msg_id", "pmt_inf_id", "instr_id", "end_to_end_id", "created_at", "updated_at",
			}))

		payments, err := repo.List(ctx, payment.Filter{
			ExcludeStatuses: []payment.Status{payment.StatusCompleted, payment.StatusFailed},
		})
		require.NoError(t, err)
		assert.Empty(t, payments)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestPaymentRepository_UpdateStatusAndAppendEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("atomic status, event and outbox write", func(t *testing.T) {
		repo, pool, outboxRepo := newPaymentRepoUnderTest(t)
		p := storedPayment()
		p.Status = payment.StatusPending
		event := payment.NewEvent(p.ID, string(payment.StatusPending), "Payment validated", payment.EventMetadata{
			PreviousStatus: payment.StatusCreated,
			NewStatus:      payment.StatusPending,
		})

		pool.ExpectBegin()
		pool.ExpectQuery(`UPDATE payments`).
			WithArgs(payment.StatusPending, p.ID).
			WillReturnRows(paymentRows(p))
		pool.ExpectQuery(`INSERT INTO payment_events`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))
		outboxRepo.On("WithTx", mock.Anything).Return(outboxRepo)
		outboxRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		pool.ExpectCommit()

		err := repo.UpdateStatusAndAppendEvent(ctx, p.ID, payment.StatusPending, event)
		require.NoError(t, err)
		assert.Equal(t, int64(2), event.ID)
		assert.NoError(t, pool.ExpectationsWereMet())
		outboxRepo.AssertExpectations(t)
	})

	t.Run("payment not found rolls back", func(t *testing.T) {
		repo, pool, _ := newPaymentRepoUnderTest(t)
		id := uuid.New()
		event := payment.NewEvent(id, string(payment.StatusPending), "Payment validated", payment.EventMetadata{})

		pool.ExpectBegin()
		pool.ExpectQuery(`UPDATE payments`).
			WithArgs(payment.StatusPending, id).
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectRollback()

		err := repo.UpdateStatusAndAppendEvent(ctx, id, payment.StatusPending, event)
		assert.ErrorIs(t, err, payment.ErrPaymentNotFound{})
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("outbox failure aborts the transaction", func(t *testing.T) {
		repo, pool, outboxRepo := newPaymentRepoUnderTest(t)
		p := storedPayment()
		event := payment.NewEvent(p.ID, string(payment.StatusPending), "Payment validated", payment.EventMetadata{})

		pool.ExpectBegin()
		pool.ExpectQuery(`UPDATE payments`).
			WithArgs(payment.StatusPending, p.ID).
			WillReturnRows(paymentRows(p))
		pool.ExpectQuery(`INSERT INTO payment_events`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
		outboxRepo.On("WithTx", mock.Anything).Return(outboxRepo)
		outboxRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("outbox insert failed"))
		pool.ExpectRollback()

		err := repo.UpdateStatusAndAppendEvent(ctx, p.ID, payment.StatusPending, event)
		assert.Error(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}

func TestPaymentRepository_ListEvents(t *testing.T) {
	ctx := context.Background()
	repo, pool, _ := newPaymentRepoUnderTest(t)

	paymentID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "payment_id", "event_type", "description", "metadata", "created_at"}).
		AddRow(int64(1), paymentID, "CREATED", "Payment initiated", []byte(`{"new_status":"CREATED","timestamp":"2026-03-14T09:26:53Z"}`), now).
		AddRow(int64(2), paymentID, "PENDING", "Payment validated and submitted to processing network", []byte(`{"previous_status":"CREATED","new_status":"PENDING","action":"advance","timestamp":"2026-03-14T09:26:58Z"}`), now)

	pool.ExpectQuery(`SELECT (.+) FROM payment_events`).
		WithArgs(paymentID).
		WillReturnRows(rows)

	events, err := repo.ListEvents(ctx, paymentID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "CREATED", events[0].Type)
	assert.Equal(t, payment.StatusCreated, events[0].Metadata.NewStatus)
	assert.Equal(t, payment.StatusCreated, events[1].Metadata.PreviousStatus)
	assert.Equal(t, "advance", events[1].Metadata.Action)
	assert.NoError(t, pool.ExpectationsWereMet())
}
