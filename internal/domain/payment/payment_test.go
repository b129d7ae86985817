package payment

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	p := NewPayment(RailRTP, decimal.NewFromInt(250), "USD", "Acme Corp", "ACC-001", "Globex Inc", "ACC-002", "SUPP", "Invoice 42")

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, StatusCreated, p.Status)
	assert.Equal(t, RailRTP, p.Rail)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	_, err := uuid.Parse(p.UETR)
	assert.NoError(t, err, "UETR must be a valid UUID")

	assert.True(t, strings.HasPrefix(p.Identifiers.MessageID, "MSG-"))
	assert.True(t, strings.HasPrefix(p.Identifiers.PaymentInfoID, "PMT-"))
	assert.True(t, strings.HasPrefix(p.Identifiers.InstructionID, "INSTR-"))
	assert.True(t, strings.HasPrefix(p.Identifiers.EndToEndID, "E2E-"))
}

func TestNewMessageIdentifiers_Unique(t *testing.T) {
	a := NewMessageIdentifiers()
	b := NewMessageIdentifiers()

	assert.NotEqual(t, a.MessageID, b.MessageID)
	assert.NotEqual(t, a.EndToEndID, b.EndToEndID)
}

// The payments table stores identifiers in VARCHAR(64) columns; prefix plus
// uuid must stay within that.
func TestNewMessageIdentifiers_FitStorageColumns(t *testing.T) {
	ids := NewMessageIdentifiers()

	for name, id := range map[string]string{
		"message_id":    ids.MessageID,
		"pmt_inf_id":    ids.PaymentInfoID,
		"instr_id":      ids.InstructionID,
		"end_to_end_id": ids.EndToEndID,
	} {
		assert.LessOrEqual(t, len(id), 64, "%s exceeds the column width", name)
		assert.Greater(t, len(id), 36, "%s should carry a prefix on top of the uuid", name)
	}
}

func TestStatus_FlowNavigation(t *testing.T) {
	next, ok := StatusCreated.Next()
	require.True(t, ok)
	assert.Equal(t, StatusPending, next)

	next, ok = StatusProcessing.Next()
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, next)

	_, ok = StatusCompleted.Next()
	assert.False(t, ok)

	_, ok = StatusFailed.Next()
	assert.False(t, ok)

	prev, ok := StatusPending.Previous()
	require.True(t, ok)
	assert.Equal(t, StatusCreated, prev)

	_, ok = StatusCreated.Previous()
	assert.False(t, ok)

	_, ok = StatusFailed.Previous()
	assert.False(t, ok)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusCreated.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"CREATED", "PENDING", "PROCESSING", "COMPLETED", "FAILED"} {
		status, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), status)
	}

	_, err := ParseStatus("created")
	assert.Error(t, err)
	_, err = ParseStatus("ARCHIVED")
	assert.Error(t, err)
}

func TestParseRail(t *testing.T) {
	for _, r := range Rails {
		rail, err := ParseRail(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, rail)
	}

	_, err := ParseRail("SEPA")
	assert.Error(t, err)
}

func TestStatusDescription(t *testing.T) {
	assert.Equal(t, "Payment initiated", StatusDescription(StatusCreated, ""))
	assert.Equal(t, "Payment failed - Manual failure triggered", StatusDescription(StatusFailed, "fail"))
	assert.Equal(t, "Payment failed during processing", StatusDescription(StatusFailed, ""))
}

func TestNewEvent_DefaultsTimestamp(t *testing.T) {
	id := uuid.New()
	e := NewEvent(id, string(StatusPending), "Payment validated", EventMetadata{NewStatus: StatusPending})

	assert.Equal(t, id, e.PaymentID)
	assert.False(t, e.Metadata.Timestamp.IsZero())
	assert.False(t, e.CreatedAt.IsZero())
}

func TestErrPaymentNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := ErrPaymentNotFound{PaymentID: id}

	assert.ErrorIs(t, err, ErrPaymentNotFound{})
	assert.ErrorIs(t, err, ErrPaymentNotFound{PaymentID: id})
	assert.NotErrorIs(t, err, ErrPaymentNotFound{PaymentID: uuid.New()})
}
