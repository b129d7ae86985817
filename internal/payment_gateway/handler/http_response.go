package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iso20022-payment-hub/internal/payment_gateway/middleware"
)

// Response is the envelope every gateway endpoint returns. Data and Error
// are mutually exclusive; the correlation ID is echoed when present.
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details carries structured context for the error, such as the full
	// rule violation list on a validation failure
	Details interface{} `json:"details,omitempty"`
}

func NewResponse(data interface{}) *Response {
	return &Response{Data: data}
}

func NewErrorResponse(code, message string) *Response {
	return &Response{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// respond stamps the request's correlation ID onto the envelope and writes it.
func respond(c *gin.Context, statusCode int, response *Response) {
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithData sends data wrapped in the response envelope.
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	respond(c, statusCode, NewResponse(data))
}

// RespondWithError sends an error code and message in the response envelope.
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	respond(c, statusCode, NewErrorResponse(code, message))
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, "NOT_FOUND", message)
}

func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, "CONFLICT", message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
}
