package errs

import (
	"errors"
	"net/http"
)

// APIError is the boundary tier of the taxonomy. It carries everything the
// HTTP layer needs to render the error envelope: status, machine code,
// sanitized message, optional suggestion, optional retry-after and a
// structured details payload.
type APIError struct {
	Status     int
	Code       string
	Message    string
	Suggestion string
	RetryAfter *int
	Details    map[string]any

	cause error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// WithDetails attaches a structured details payload.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	e.Details = details

	return e
}

// WithRetryAfter attaches a retry hint in seconds.
func (e *APIError) WithRetryAfter(seconds int) *APIError {
	e.RetryAfter = &seconds

	return e
}

// BadRequest builds a 400 boundary error for malformed input.
func BadRequest(message string) *APIError {
	return &APIError{
		Status:     http.StatusBadRequest,
		Code:       "BAD_REQUEST",
		Message:    Sanitize(message),
		Suggestion: "Please check your request parameters",
	}
}

// NotFound builds a 404 boundary error.
func NotFound(resource string) *APIError {
	return &APIError{
		Status:     http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    "Resource not found: " + Sanitize(resource),
		Suggestion: "Please verify the resource identifier",
	}
}

// Internal builds a 500 boundary error. The cause is retained for logging
// but its text is never exposed.
func Internal(cause error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		cause:   cause,
	}
}

// FromError lifts any error into the boundary tier, preserving the
// classification of service and RPC errors on the way through. Rate-limited
// failures pick up a default retry hint.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		out := &APIError{
			Status:     svcErr.HTTPStatus(),
			Code:       svcErr.Code(),
			Message:    svcErr.Message(),
			Suggestion: svcErr.Suggestion(),
			cause:      svcErr,
		}
		if svcErr.Code() == string(RPCRateLimited) {
			out.WithRetryAfter(1)
		}

		return out
	}

	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return FromError(WrapRPC(rpcErr))
	}

	return Internal(err)
}
