package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/iso20022"
	"github.com/iso20022-payment-hub/internal/payment_gateway/service"
	"github.com/iso20022-payment-hub/internal/rules"
	"github.com/iso20022-payment-hub/internal/statemachine"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Create validates and stores a new payment
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.logger.Error("Invalid payment amount", "amount", req.Amount, "error", err)
		RespondBadRequest(c, "Invalid payment amount")
		return
	}

	p, err := h.paymentService.CreatePayment(c.Request.Context(), service.CreatePaymentInput{
		Rail:            payment.Rail(req.Rail),
		Amount:          amount,
		Currency:        req.Currency,
		DebtorName:      req.DebtorName,
		DebtorAccount:   req.DebtorAccount,
		CreditorName:    req.CreditorName,
		CreditorAccount: req.CreditorAccount,
		Purpose:         req.Purpose,
		Remittance:      req.Remittance,
	})
	if err != nil {
		var validationErr rules.ValidationError
		if errors.As(err, &validationErr) {
			respondValidationFailed(c, validationErr)
			return
		}
		h.logger.Error("Failed to create payment", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapPaymentToResponse(p))
}

// GetByID retrieves payment details by ID, returns 404 if not found
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	p, err := h.paymentService.GetPaymentByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to get payment", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapPaymentToResponse(p))
}

// List retrieves payments, optionally filtered by status and rail
func (h *PaymentHandler) List(c *gin.Context) {
	filter := payment.Filter{}
	for _, s := range c.QueryArray("status") {
		status, err := payment.ParseStatus(s)
		if err != nil {
			RespondBadRequest(c, "Invalid status filter: "+s)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, s := range c.QueryArray("exclude_status") {
		status, err := payment.ParseStatus(s)
		if err != nil {
			RespondBadRequest(c, "Invalid status filter: "+s)
			return
		}
		filter.ExcludeStatuses = append(filter.ExcludeStatuses, status)
	}
	if rail := c.Query("rail"); rail != "" {
		parsed, err := payment.ParseRail(rail)
		if err != nil {
			RespondBadRequest(c, "Invalid rail filter: "+rail)
			return
		}
		filter.Rail = parsed
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list payments", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, mapPaymentToResponse(p))
	}

	RespondOK(c, gin.H{"payments": responses, "count": len(responses)})
}

// GetEvents retrieves a payment's full audit log in chronological order
func (h *PaymentHandler) GetEvents(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	events, err := h.paymentService.GetPaymentEvents(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to get payment events", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, mapEventToResponse(event))
	}

	RespondOK(c, gin.H{"events": responses, "count": len(responses)})
}

// GetMessages regenerates all four ISO 20022 documents for a payment
func (h *PaymentHandler) GetMessages(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	docs, err := h.paymentService.RenderMessages(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to render payment messages", "id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, docs)
}

// GetMessage regenerates one ISO 20022 document and returns the raw XML
func (h *PaymentHandler) GetMessage(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	typeParam := c.Param("type")
	messageType, ok := iso20022.ParseMessageType(typeParam)
	if !ok {
		RespondBadRequest(c, "Unknown message type: "+typeParam)
		return
	}

	xmlDoc, err := h.paymentService.RenderMessage(c.Request.Context(), id, messageType)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to render payment message",
			"id", id.String(), "message_type", string(messageType), "error", err)
		RespondInternalError(c)
		return
	}

	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(xmlDoc))
}

// UpdateStatus applies one manual state machine transition
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.paymentID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	intent, err := statemachine.ParseIntent(req.Action)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	var target payment.Status
	if intent == statemachine.IntentManualSet {
		target, err = payment.ParseStatus(req.Target)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
	}

	result, err := h.paymentService.Transition(c.Request.Context(), statemachine.Request{
		PaymentID:   id,
		Intent:      intent,
		Target:      target,
		Override:    req.Override,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound{}) {
			RespondNotFound(c, "Payment not found")
			return
		}
		h.logger.Error("Failed to apply transition", "id", id.String(), "action", req.Action, "error", err)
		RespondInternalError(c)
		return
	}

	if result.Rejected {
		RespondConflict(c, result.Message)
		return
	}

	RespondOK(c, result)
}

// AdvanceAll advances every non-terminal payment one step
func (h *PaymentHandler) AdvanceAll(c *gin.Context) {
	result, err := h.paymentService.AdvanceAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to advance payments", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, result)
}

// ResetAll resets every payment back to CREATED
func (h *PaymentHandler) ResetAll(c *gin.Context) {
	result, err := h.paymentService.ResetAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to reset payments", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, result)
}

// FailRandom fails one randomly chosen in-flight payment
func (h *PaymentHandler) FailRandom(c *gin.Context) {
	p, result, err := h.paymentService.FailRandom(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fail random payment", "error", err)
		RespondInternalError(c)
		return
	}
	if p == nil {
		RespondOK(c, gin.H{"failed": false, "message": "No in-flight payment to fail"})
		return
	}
	RespondOK(c, gin.H{"failed": true, "payment_id": p.ID.String(), "result": result})
}

// paymentID parses the :id path parameter, responding 400 on bad input
func (h *PaymentHandler) paymentID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid payment ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid payment ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondValidationFailed reports every rail rule violation in one response
func respondValidationFailed(c *gin.Context, err rules.ValidationError) {
	response := NewErrorResponse("VALIDATION_FAILED", err.Error())
	response.Error.Details = gin.H{"violations": err.Violations}
	respond(c, http.StatusUnprocessableEntity, response)
}
