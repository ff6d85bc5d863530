package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/satsarcade/sats-arcade/internal/arcade"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// writeJSONError writes JSON error response
func writeJSONError(w http.ResponseWriter, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]interface{}
	requestID string
	cause     error
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value interface{}) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause adds the underlying cause error
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	eb.cause = err
	if err != nil {
		if inner := errors.Unwrap(err); inner != nil {
			eb.context["cause"] = inner.Error()
		}
	}
	return eb
}

// Build creates the final APIError
func (eb *ErrorBuilder) Build() APIError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return APIError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *log.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *log.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// statusForKind maps wallet error kinds to HTTP statuses.
func statusForKind(k wallet.Kind) int {
	switch k {
	case wallet.KindInvalidAmount, wallet.KindInvalidAddress:
		return http.StatusBadRequest
	case wallet.KindConnectionRejected, wallet.KindSignatureRequired:
		return http.StatusForbidden
	case wallet.KindNotConnected, wallet.KindVerificationMismatch:
		return http.StatusConflict
	case wallet.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case wallet.KindProviderMissing:
		return http.StatusServiceUnavailable
	case wallet.KindUnsupported:
		return http.StatusNotImplemented
	case wallet.KindProviderCallFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError classifies err and writes the matching HTTP response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetReqID(r.Context())

	var apiErr APIError
	if errors.As(err, &apiErr) {
		eh.logError(r, apiErr, http.StatusInternalServerError)
		eh.writeErrorResponse(w, http.StatusInternalServerError, apiErr)
		return
	}

	status := http.StatusInternalServerError
	errType := ErrTypeInternal
	message := err.Error()

	if kind := wallet.KindOf(err); kind != "" {
		status = statusForKind(kind)
		errType = string(kind)
	} else {
		switch {
		case errors.Is(err, arcade.ErrUnknownShip):
			status, errType = http.StatusNotFound, ErrTypeShipNotFound
		case errors.Is(err, arcade.ErrPremiumLocked):
			status, errType = http.StatusForbidden, ErrTypeShipLocked
		case errors.Is(err, arcade.ErrInsufficientBalance):
			status, errType = http.StatusUnprocessableEntity, string(wallet.KindInsufficientFunds)
		case errors.Is(err, arcade.ErrInvalidScore):
			status, errType = http.StatusBadRequest, ErrTypeValidation
		case errors.Is(err, context.DeadlineExceeded):
			status, errType = http.StatusGatewayTimeout, ErrTypeTimeout
		}
	}

	built := NewError(errType, message).
		WithRequestID(requestID).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		WithCause(err).
		Build()

	eh.logError(r, built, status)
	eh.writeErrorResponse(w, status, built)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	requestID := middleware.GetReqID(r.Context())

	apiErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(requestID).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()

	eh.logError(r, apiErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, apiErr)
}

// HandleUnauthorized rejects a request without a valid API token
func (eh *ErrorHandler) HandleUnauthorized(w http.ResponseWriter, r *http.Request) {
	apiErr := NewError(ErrTypeUnauthorized, "missing or invalid API token").
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		Build()

	eh.logError(r, apiErr, http.StatusUnauthorized)
	eh.writeErrorResponse(w, http.StatusUnauthorized, apiErr)
}

// logError logs the error with appropriate level and context
func (eh *ErrorHandler) logError(r *http.Request, apiErr APIError, status int) {
	category := GetErrorCategory(apiErr.Type)

	logLevel := "ERROR"
	if category == CategoryValidation || status < 500 {
		logLevel = "WARN"
	}

	eh.logger.Printf(
		"error_occurred level=%s type=%s category=%s status=%d request_id=%s method=%s path=%s message=%q",
		logLevel, apiErr.Type, category, status, apiErr.RequestID, r.Method, r.URL.Path, apiErr.Message,
	)
}

// writeErrorResponse writes the error response as JSON
func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-App-Version", Version)
	w.Header().Set("X-Error-Type", apiErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(apiErr.Type)))
	w.WriteHeader(status)

	if err := writeJSONError(w, apiErr); err != nil {
		eh.logger.Printf("write error response: %v", err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				requestID := middleware.GetReqID(r.Context())

				eh.logger.Printf(
					"panic_recovered request_id=%s path=%s method=%s panic=%v",
					requestID, r.URL.Path, r.Method, rvr,
				)

				apiErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()

				eh.writeErrorResponse(w, http.StatusInternalServerError, apiErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
