// Package payment defines the core payment record, its lifecycle states and
// the append-only event log that audits every status transition.
package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rail identifies the payment network a payment is routed over
type Rail string

const (
	RailFedNow Rail = "FEDNOW"
	RailRTP    Rail = "RTP"
	RailSwift  Rail = "SWIFT"
)

// Rails lists every supported rail in a stable order
var Rails = []Rail{RailFedNow, RailRTP, RailSwift}

// ParseRail converts a string into a Rail, rejecting unknown values
func ParseRail(s string) (Rail, error) {
	switch Rail(s) {
	case RailFedNow, RailRTP, RailSwift:
		return Rail(s), nil
	}
	return "", fmt.Errorf("unsupported payment rail: %q", s)
}

// Status defines payment lifecycle states
type Status string

const (
	StatusCreated    Status = "CREATED"
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// statusFlow is the canonical forward order. FAILED sits outside the flow and
// is reachable only as a side branch from the non-terminal states.
var statusFlow = []Status{StatusCreated, StatusPending, StatusProcessing, StatusCompleted}

// ParseStatus converts a string into a Status, rejecting unknown values
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCreated, StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown payment status: %q", s)
}

// Rank returns the position of the status in the forward order, or -1 for
// FAILED which has no position in the flow.
func (s Status) Rank() int {
	for i, st := range statusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the following status in the forward order. The second return
// is false when the status has no successor (COMPLETED or FAILED).
func (s Status) Next() (Status, bool) {
	rank := s.Rank()
	if rank < 0 || rank >= len(statusFlow)-1 {
		return s, false
	}
	return statusFlow[rank+1], true
}

// Previous returns the preceding status in the forward order. The second
// return is false when the status has no predecessor (CREATED or FAILED).
func (s Status) Previous() (Status, bool) {
	rank := s.Rank()
	if rank <= 0 {
		return s, false
	}
	return statusFlow[rank-1], true
}

// Terminal reports whether the status ends the lifecycle
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MessageIdentifiers is the identifier set shared by every ISO 20022 message
// generated for one payment. It is assigned once at creation and persisted so
// that regenerating documents reuses the same identifiers and a status report
// can always reference the original instruction.
type MessageIdentifiers struct {
	MessageID     string `json:"message_id"`
	PaymentInfoID string `json:"payment_info_id"`
	InstructionID string `json:"instruction_id"`
	EndToEndID    string `json:"end_to_end_id"`
}

// NewMessageIdentifiers generates a fresh identifier set
func NewMessageIdentifiers() MessageIdentifiers {
	return MessageIdentifiers{
		MessageID:     "MSG-" + uuid.New().String(),
		PaymentInfoID: "PMT-" + uuid.New().String(),
		InstructionID: "INSTR-" + uuid.New().String(),
		EndToEndID:    "E2E-" + uuid.New().String(),
	}
}

// Payment represents a single payment record. It is created once in status
// CREATED, mutated only through state machine transitions and never deleted.
type Payment struct {
	ID              uuid.UUID          `json:"id"`
	UETR            string             `json:"uetr"`
	Rail            Rail               `json:"rail"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        string             `json:"currency"`
	DebtorName      string             `json:"debtor_name"`
	DebtorAccount   string             `json:"debtor_account"`
	CreditorName    string             `json:"creditor_name"`
	CreditorAccount string             `json:"creditor_account"`
	Purpose         string             `json:"purpose"`
	Remittance      string             `json:"remittance,omitempty"`
	Status          Status             `json:"status"`
	Identifiers     MessageIdentifiers `json:"identifiers"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewPayment creates a payment in status CREATED with a fresh UETR and
// message identifier set
func NewPayment(rail Rail, amount decimal.Decimal, currency, debtorName, debtorAccount, creditorName, creditorAccount, purpose, remittance string) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:              uuid.New(),
		UETR:            uuid.New().String(),
		Rail:            rail,
		Amount:          amount,
		Currency:        currency,
		DebtorName:      debtorName,
		DebtorAccount:   debtorAccount,
		CreditorName:    creditorName,
		CreditorAccount: creditorAccount,
		Purpose:         purpose,
		Remittance:      remittance,
		Status:          StatusCreated,
		Identifiers:     NewMessageIdentifiers(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
