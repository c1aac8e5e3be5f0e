package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/jokers-gambit/internal/joker"
	"github.com/MJE43/jokers-gambit/internal/run"
	"github.com/MJE43/jokers-gambit/internal/scan"
	"github.com/MJE43/jokers-gambit/internal/store"
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
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
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// classify maps a domain error to an HTTP status and error type.
func classify(err error) (int, string) {
	var fe *fieldError
	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, run.ErrEmptySelection),
		errors.Is(err, run.ErrTooManyCards),
		errors.Is(err, run.ErrCardNotInHand),
		errors.Is(err, run.ErrDuplicateCard):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, run.ErrNoHandsLeft),
		errors.Is(err, run.ErrNoDiscardsLeft),
		errors.Is(err, run.ErrGameOver),
		errors.Is(err, run.ErrWrongPhase),
		errors.Is(err, run.ErrInsufficientFunds),
		errors.Is(err, run.ErrJokerSlotsFull),
		errors.Is(err, run.ErrUnknownOffer):
		return http.StatusConflict, ErrTypeRunState
	case errors.Is(err, scan.ErrInvalidRange),
		errors.Is(err, scan.ErrInvalidTarget),
		errors.Is(err, scan.ErrInvalidPlayCount),
		errors.Is(err, scan.ErrInvalidCategory),
		errors.Is(err, scan.ErrUnknownJoker),
		errors.Is(err, joker.ErrInvalidJoker):
		return http.StatusBadRequest, ErrTypeInvalidScan
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, ErrTypeTimeout
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// HandleError maps err to a status and writes a structured response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		status, _ := classify(err)
		eh.write(w, r, status, engineErr)
		return
	}

	status, errType := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	b := NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method)
	var fe *fieldError
	if errors.As(err, &fe) {
		b.WithContext("field", fe.field)
	}
	if status == http.StatusInternalServerError {
		b.WithCause(err)
	}
	eh.write(w, r, status, b.Build())
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()
	eh.write(w, r, http.StatusBadRequest, engineErr)
}

func (eh *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	eh.logError(r, engineErr, status)
	writeErrorResponse(w, status, engineErr)
}

// logError logs client errors at warn and server errors at error
func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	eh.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("type", engineErr.Type),
		slog.String("category", string(GetErrorCategory(engineErr.Type))),
		slog.Int("status", status),
		slog.String("request_id", engineErr.RequestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("message", engineErr.Message),
		slog.Any("context", engineErr.Context),
	)
}

// writeErrorResponse writes the error response as JSON
func writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// RecoveryHandler turns panics into structured 500 responses
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Error("panic recovered",
					"request_id", requestID, "path", r.URL.Path, "method", r.Method, "panic", rvr)

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
