package handler

import (
	"time"

	"github.com/iso20022-payment-hub/internal/domain/payment"
)

// CreatePaymentRequest represents a request to create a new payment.
// Rail and amount values are checked by the rail rule engine so rule
// violations are reported with structured codes rather than binding errors.
type CreatePaymentRequest struct {
	Rail            string `json:"rail" binding:"required"`
	Amount          string `json:"amount" binding:"required"`
	Currency        string `json:"currency" binding:"required"`
	DebtorName      string `json:"debtor_name" binding:"required"`
	DebtorAccount   string `json:"debtor_account" binding:"required"`
	CreditorName    string `json:"creditor_name" binding:"required"`
	CreditorAccount string `json:"creditor_account" binding:"required"`
	// Purpose is an ISO 20022 purpose code, four characters at most
	Purpose    string `json:"purpose,omitempty" binding:"omitempty,max=4"`
	Remittance string `json:"remittance,omitempty"`
}

// UpdateStatusRequest represents a manual state machine transition
type UpdateStatusRequest struct {
	Action      string `json:"action" binding:"required,oneof=advance reverse fail manualSet reset"`
	Target      string `json:"target,omitempty"`
	Override    bool   `json:"override,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID              string                     `json:"id"`
	UETR            string                     `json:"uetr"`
	Rail            string                     `json:"rail"`
	Amount          string                     `json:"amount"`
	Currency        string                     `json:"currency"`
	DebtorName      string                     `json:"debtor_name"`
	DebtorAccount   string                     `json:"debtor_account"`
	CreditorName    string                     `json:"creditor_name"`
	CreditorAccount string                     `json:"creditor_account"`
	Purpose         string                     `json:"purpose,omitempty"`
	Remittance      string                     `json:"remittance,omitempty"`
	Status          string                     `json:"status"`
	Identifiers     payment.MessageIdentifiers `json:"identifiers"`
	CreatedAt       string                     `json:"created_at"`
	UpdatedAt       string                     `json:"updated_at"`
}

// EventResponse represents an audit event in API responses
type EventResponse struct {
	ID          int64                 `json:"id"`
	PaymentID   string                `json:"payment_id"`
	Type        string                `json:"type"`
	Description string                `json:"description"`
	Metadata    payment.EventMetadata `json:"metadata"`
	CreatedAt   string                `json:"created_at"`
}

// SimulatorConfigPayload represents the simulator configuration in API
// requests and responses. Delays are expressed in milliseconds.
type SimulatorConfigPayload struct {
	Enabled             bool    `json:"enabled"`
	SpeedMultiplier     float64 `json:"speed_multiplier"`
	FailureRate         float64 `json:"failure_rate"`
	PauseAtStatus       string  `json:"pause_at_status,omitempty"`
	DelayToPendingMs    int64   `json:"delay_to_pending_ms"`
	DelayToProcessingMs int64   `json:"delay_to_processing_ms"`
	DelayToFinalMs      int64   `json:"delay_to_final_ms"`
}

// mapPaymentToResponse maps a payment to a response DTO
func mapPaymentToResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID.String(),
		UETR:            p.UETR,
		Rail:            string(p.Rail),
		Amount:          p.Amount.String(),
		Currency:        p.Currency,
		DebtorName:      p.DebtorName,
		DebtorAccount:   p.DebtorAccount,
		CreditorName:    p.CreditorName,
		CreditorAccount: p.CreditorAccount,
		Purpose:         p.Purpose,
		Remittance:      p.Remittance,
		Status:          string(p.Status),
		Identifiers:     p.Identifiers,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

// mapEventToResponse maps an audit event to a response DTO
func mapEventToResponse(event *payment.Event) EventResponse {
	return EventResponse{
		ID:          event.ID,
		PaymentID:   event.PaymentID.String(),
		Type:        event.Type,
		Description: event.Description,
		Metadata:    event.Metadata,
		CreatedAt:   event.CreatedAt.Format(time.RFC3339),
	}
}
