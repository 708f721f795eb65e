package errs

import (
	"fmt"
	"net/http"
)

// ServiceCode is the closed set of business-level failure classifications.
type ServiceCode string

const (
	ServiceSimulationFailed     ServiceCode = "SIMULATION_FAILED"
	ServiceTraceFailed          ServiceCode = "TRACE_FAILED"
	ServiceInvalidBlockContext  ServiceCode = "INVALID_BLOCK_CONTEXT"
	ServiceInvalidStateOverride ServiceCode = "INVALID_STATE_OVERRIDE"
	ServiceAccessListFailed     ServiceCode = "ACCESS_LIST_FAILED"
	ServiceBundleValidation     ServiceCode = "BUNDLE_VALIDATION_FAILED"
	ServiceGasEstimationFailed  ServiceCode = "GAS_ESTIMATION_FAILED"
	ServiceResourceExhausted    ServiceCode = "RESOURCE_EXHAUSTED"
	ServiceOperationTimeout     ServiceCode = "OPERATION_TIMEOUT"
)

// ServiceError is the middle tier of the taxonomy. It either owns a
// business classification with a reason, or wraps an RPCError and delegates
// code, suggestion and status to it.
type ServiceError struct {
	code   ServiceCode
	reason string
	rpc    *RPCError
	cause  error
}

// NewService builds a business-level error. The reason is sanitized before
// storage.
func NewService(code ServiceCode, reason string) *ServiceError {
	return &ServiceError{code: code, reason: Sanitize(reason)}
}

// NewServicef builds a business-level error with a formatted reason.
func NewServicef(code ServiceCode, format string, args ...any) *ServiceError {
	return NewService(code, fmt.Sprintf(format, args...))
}

// WrapService builds a business-level error retaining an inner cause.
func WrapService(code ServiceCode, reason string, cause error) *ServiceError {
	e := NewService(code, reason)
	e.cause = cause

	return e
}

// WrapRPC lifts a classified RPC error into the service tier.
func WrapRPC(rpc *RPCError) *ServiceError {
	return &ServiceError{rpc: rpc, cause: rpc}
}

func (e *ServiceError) Error() string {
	if e.rpc != nil {
		return e.rpc.Error()
	}

	return fmt.Sprintf("%s: %s", e.code, e.reason)
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

// Code returns the machine code, delegating to the wrapped RPC error when
// present.
func (e *ServiceError) Code() string {
	if e.rpc != nil {
		return string(e.rpc.Code)
	}

	return string(e.code)
}

// Message returns the sanitized human-readable message.
func (e *ServiceError) Message() string {
	if e.rpc != nil {
		return e.rpc.Message
	}

	return e.reason
}

// RPC returns the wrapped RPC error, or nil when this error owns a business
// classification.
func (e *ServiceError) RPC() *RPCError {
	return e.rpc
}

// Suggestion returns a remediation hint for the classification.
func (e *ServiceError) Suggestion() string {
	if e.rpc != nil {
		return e.rpc.Suggestion()
	}

	switch e.code {
	case ServiceSimulationFailed:
		return "Check transaction parameters and ensure the RPC node is accessible"
	case ServiceTraceFailed:
		return "Ensure the transaction exists and tracing is enabled on the node"
	case ServiceInvalidBlockContext:
		return "Use a valid block number or tag (latest, earliest, safe, finalized)"
	case ServiceInvalidStateOverride:
		return "Check state override format and values"
	case ServiceAccessListFailed:
		return "Verify transaction parameters for access list generation"
	case ServiceBundleValidation:
		return "Check bundle format and transaction dependencies"
	case ServiceGasEstimationFailed:
		return "Transaction may fail or gas limit is too low"
	case ServiceResourceExhausted:
		return "Try reducing the request size or wait before retrying"
	case ServiceOperationTimeout:
		return "The operation took too long, try with simpler parameters"
	default:
		return ""
	}
}

// HTTPStatus maps the classification to an outward HTTP status.
func (e *ServiceError) HTTPStatus() int {
	if e.rpc != nil {
		return e.rpc.HTTPStatus()
	}

	switch e.code {
	case ServiceSimulationFailed, ServiceGasEstimationFailed:
		return http.StatusOK
	case ServiceTraceFailed, ServiceAccessListFailed:
		return http.StatusInternalServerError
	case ServiceInvalidBlockContext, ServiceInvalidStateOverride, ServiceBundleValidation:
		return http.StatusBadRequest
	case ServiceResourceExhausted:
		return http.StatusServiceUnavailable
	case ServiceOperationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
