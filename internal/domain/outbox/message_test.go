package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/domain/shared"
)

func testEnvelopeInput() (*payment.Payment, *payment.Event) {
	p := payment.NewPayment(payment.RailRTP, decimal.NewFromInt(250), "USD", "Acme Corp", "ACC-001", "Globex Inc", "ACC-002", "SUPP", "Invoice 42")
	event := payment.NewEvent(p.ID, string(payment.StatusCreated), payment.StatusDescription(payment.StatusCreated, ""), payment.EventMetadata{
		NewStatus: payment.StatusCreated,
		Rail:      p.Rail,
	})
	event.ID = 7
	return p, event
}

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		p, event := testEnvelopeInput()

		beforeCreation := time.Now()
		msg, err := NewMessage(p, event)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.Equal(t, p.ID, msg.PaymentID)
		assert.Equal(t, string(payment.StatusCreated), msg.EventType)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		// The payload must be the full envelope, payment snapshot included
		var envelope shared.PaymentEvent
		err = json.Unmarshal(msg.Payload, &envelope)
		require.NoError(t, err)
		assert.Equal(t, int64(7), envelope.EventID)
		assert.Equal(t, p.ID, envelope.Payment.ID)
		assert.Equal(t, p.Identifiers, envelope.Payment.Identifiers)
		assert.True(t, p.Amount.Equal(envelope.Payment.Amount))
	})
}

func TestMessage_IncrementAttempts(t *testing.T) {
	t.Run("SuccessfulIncrement", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Attempts:      1,
			LastAttemptAt: &initialTime,
		}
		initialAttempts := msg.Attempts

		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.IncrementAttempts()
		afterUpdate := time.Now()

		assert.Equal(t, initialAttempts+1, msg.Attempts)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_MarkAsProcessed(t *testing.T) {
	t.Run("SuccessfulMarkAsProcessed", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Status:        shared.OutboxStatusPending,
			LastAttemptAt: &initialTime,
		}
		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.MarkAsProcessed()
		afterUpdate := time.Now()

		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_MarkAsFailed(t *testing.T) {
	t.Run("SuccessfulMarkAsFailed", func(t *testing.T) {
		initialTime := time.Now().Add(-time.Hour)
		msg := &Message{
			Status:        shared.OutboxStatusPending,
			LastAttemptAt: &initialTime,
		}
		time.Sleep(10 * time.Millisecond) // Ensure time changes
		beforeUpdate := time.Now()
		msg.MarkAsFailed()
		afterUpdate := time.Now()

		assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
		assert.WithinDuration(t, beforeUpdate, *msg.LastAttemptAt, afterUpdate.Sub(beforeUpdate)+time.Millisecond)
	})
}

func TestMessage_GetPaymentEvent(t *testing.T) {
	t.Run("SuccessfulRoundTrip", func(t *testing.T) {
		p, event := testEnvelopeInput()
		msg, err := NewMessage(p, event)
		require.NoError(t, err)

		envelope, err := msg.GetPaymentEvent()

		require.NoError(t, err)
		require.NotNil(t, envelope)
		assert.Equal(t, event.ID, envelope.EventID)
		assert.Equal(t, event.Type, envelope.EventType)
		assert.Equal(t, event.Description, envelope.Description)
		assert.Equal(t, p.ID, envelope.Payment.ID)
		assert.Equal(t, p.Status, envelope.Payment.Status)
		assert.Equal(t, event.Metadata.NewStatus, envelope.Metadata.NewStatus)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		msg := &Message{Payload: []byte("{not json")}

		envelope, err := msg.GetPaymentEvent()

		assert.Error(t, err)
		assert.Nil(t, envelope)
	})
}
