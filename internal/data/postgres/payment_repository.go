// Package postgres provides PostgreSQL implementations of the domain repositories.
// It handles all database operations while maintaining transaction safety and
// proper error handling for the payment hub.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/outbox"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, uetr, rail, amount::text, currency, debtor_name, debtor_account,
		creditor_name, creditor_account, purpose, remittance, status,
		msg_id, pmt_inf_id, instr_id, end_to_end_id, created_at, updated_at`

// txRunner abstracts transactional execution so tests can drive the
// repository through a mocked connection.
type txRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PaymentRepository implements the payment.Repository interface for PostgreSQL.
// Status transitions, their audit events and the corresponding outbox rows are
// committed in a single transaction so no reader can observe one without the
// others.
type PaymentRepository struct {
	db         txRunner
	querier    persistence.Querier
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB, outboxRepo outbox.Repository) payment.Repository {
	return &PaymentRepository{
		db:         db,
		querier:    db.Pool(),
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Create stores a new payment together with its initial CREATED event and an
// outbox row announcing the creation, all in one transaction.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment, initial *payment.Event) error {
	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO payments (id, uetr, rail, amount, currency, debtor_name, debtor_account,
				creditor_name, creditor_account, purpose, remittance, status,
				msg_id, pmt_inf_id, instr_id, end_to_end_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		`
		_, err := tx.Exec(ctx, query,
			p.ID,
			p.UETR,
			p.Rail,
			p.Amount.String(),
			p.Currency,
			p.DebtorName,
			p.DebtorAccount,
			p.CreditorName,
			p.CreditorAccount,
			p.Purpose,
			p.Remittance,
			p.Status,
			p.Identifiers.MessageID,
			p.Identifiers.PaymentInfoID,
			p.Identifiers.InstructionID,
			p.Identifiers.EndToEndID,
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		if err := insertEvent(ctx, tx, initial); err != nil {
			return err
		}

		return r.createOutboxMessage(ctx, tx, p, initial)
	})
	if err != nil {
		r.logger.Error("Failed to create payment", "id", p.ID.String(), "error", err)
		return err
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get payment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// List retrieves payments matching the filter, newest first
func (r *PaymentRepository) List(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments`

	var clauses []string
	var args []interface{}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		clauses = append(clauses, "status = ANY($"+strconv.Itoa(len(args))+")")
	}
	if len(filter.ExcludeStatuses) > 0 {
		args = append(args, statusStrings(filter.ExcludeStatuses))
		clauses = append(clauses, "NOT (status = ANY($"+strconv.Itoa(len(args))+"))")
	}
	if filter.Rail != "" {
		args = append(args, string(filter.Rail))
		clauses = append(clauses, "rail = $"+strconv.Itoa(len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list payments", "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payments: %w", err)
	}

	return payments, nil
}

// UpdateStatusAndAppendEvent atomically sets the payment status and appends
// the causal audit event. An outbox row carrying the full payment snapshot is
// written in the same transaction for downstream publishing.
func (r *PaymentRepository) UpdateStatusAndAppendEvent(ctx context.Context, id uuid.UUID, newStatus payment.Status, event *payment.Event) error {
	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE payments
			SET status = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING ` + paymentColumns + `
		`
		p, err := scanPayment(tx.QueryRow(ctx, query, newStatus, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payment.ErrPaymentNotFound{PaymentID: id}
			}
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		if err := insertEvent(ctx, tx, event); err != nil {
			return err
		}

		return r.createOutboxMessage(ctx, tx, p, event)
	})
	if err != nil {
		if !errors.Is(err, payment.ErrPaymentNotFound{}) {
			r.logger.Error("Failed to update payment status",
				"id", id.String(),
				"new_status", string(newStatus),
				"error", err,
			)
		}
		return err
	}

	return nil
}

// ListEvents retrieves the full event log for a payment in chronological
// order, insertion order breaking ties.
func (r *PaymentRepository) ListEvents(ctx context.Context, paymentID uuid.UUID) ([]*payment.Event, error) {
	query := `
		SELECT id, payment_id, event_type, description, metadata, created_at
		FROM payment_events
		WHERE payment_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, paymentID)
	if err != nil {
		r.logger.Error("Failed to list payment events", "payment_id", paymentID.String(), "error", err)
		return nil, fmt.Errorf("failed to list payment events: %w", err)
	}
	defer rows.Close()

	var events []*payment.Event
	for rows.Next() {
		var event payment.Event
		var metadata []byte
		err := rows.Scan(
			&event.ID,
			&event.PaymentID,
			&event.Type,
			&event.Description,
			&metadata,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payment events: %w", err)
	}

	return events, nil
}

// insertEvent appends an audit event inside the caller's transaction and
// backfills its assigned ID.
func insertEvent(ctx context.Context, tx pgx.Tx, event *payment.Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	query := `
		INSERT INTO payment_events (payment_id, event_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		event.PaymentID,
		event.Type,
		event.Description,
		metadata,
		event.CreatedAt,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to insert payment event: %w", err)
	}

	return nil
}

func (r *PaymentRepository) createOutboxMessage(ctx context.Context, tx pgx.Tx, p *payment.Payment, event *payment.Event) error {
	message, err := outbox.NewMessage(p, event)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	return r.outboxRepo.WithTx(tx).Create(ctx, message)
}

func statusStrings(statuses []payment.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// scanPayment reads one payment row. The amount column is selected as text
// and parsed into a decimal to preserve exact values.
func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var p payment.Payment
	var amount string
	err := row.Scan(
		&p.ID,
		&p.UETR,
		&p.Rail,
		&amount,
		&p.Currency,
		&p.DebtorName,
		&p.DebtorAccount,
		&p.CreditorName,
		&p.CreditorAccount,
		&p.Purpose,
		&p.Remittance,
		&p.Status,
		&p.Identifiers.MessageID,
		&p.Identifiers.PaymentInfoID,
		&p.Identifiers.InstructionID,
		&p.Identifiers.EndToEndID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment amount %q: %w", amount, err)
	}

	return &p, nil
}
