package coinoswap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coinoswap_admin/internal/infra"
)

// APIError is a request the server answered with a non-2xx status or success=false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Temporary reports whether the request is worth retrying.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// newAPIError decodes {message} from body, falling back to "HTTP <status>".
func newAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && strings.TrimSpace(envelope.Message) != "" {
		return &APIError{Status: status, Message: envelope.Message}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("HTTP %d", status)}
}

// MessageOf returns the server-provided message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, infra.ErrCircuitOpen) {
		return err.Error()
	}
	return fallback
}

// countsAsFailure decides which errors trip the circuit breaker: transport
// failures and 5xx answers, never validation rejections or caller cancellation.
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}

func retryable(err error) bool {
	if errors.Is(err, infra.ErrCircuitOpen) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return countsAsFailure(err)
}
