// Package errs defines the three-tier error taxonomy used across the
// simulator: RPCError for transport/remote failures, ServiceError for
// business-level failures, and APIError for the HTTP boundary. Each tier
// wraps the one below it and never discards the inner cause. All outward
// facing messages are sanitized before storage.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/0xsequence/ethkit/ethrpc/jsonrpc"
)

// RPCCode is the closed set of remote failure classifications.
type RPCCode string

const (
	RPCConnectionFailed RPCCode = "RPC_CONNECTION_FAILED"
	RPCTimeout          RPCCode = "RPC_TIMEOUT"
	RPCMethodNotFound   RPCCode = "RPC_METHOD_NOT_FOUND"
	RPCInvalidParams    RPCCode = "RPC_INVALID_PARAMS"
	RPCInternal         RPCCode = "RPC_INTERNAL_ERROR"
	RPCParse            RPCCode = "RPC_PARSE_ERROR"
	RPCNodeSyncing      RPCCode = "NODE_SYNCING"
	RPCNotFound         RPCCode = "NOT_FOUND"
	RPCReverted         RPCCode = "EXECUTION_REVERTED"
	RPCRateLimited      RPCCode = "RPC_RATE_LIMITED"
	RPCTransport        RPCCode = "RPC_TRANSPORT_ERROR"
)

// RPCError classifies a transport or remote node failure. The message is
// sanitized at construction; the original error is retained as the cause
// for logging but is never rendered outward.
type RPCError struct {
	Code    RPCCode
	Method  string
	Message string

	cause error
}

// NewRPCError builds a classified RPC error. The message is sanitized
// before storage.
func NewRPCError(code RPCCode, method, message string, cause error) *RPCError {
	return &RPCError{
		Code:    code,
		Method:  method,
		Message: Sanitize(message),
		cause:   cause,
	}
}

func (e *RPCError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Method, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error {
	return e.cause
}

// Suggestion returns a canned remediation hint for the classification, or
// an empty string when none applies.
func (e *RPCError) Suggestion() string {
	switch e.Code {
	case RPCConnectionFailed:
		return "Check your RPC endpoint URL and network connectivity"
	case RPCTimeout:
		return "RPC request timeout, check if RPC is running and accepting connections"
	case RPCMethodNotFound:
		return "The RPC method is not supported by this node"
	case RPCInvalidParams:
		return "Check the parameters format and types"
	case RPCNodeSyncing:
		return "Wait for the node to finish syncing"
	case RPCNotFound:
		return "The block or transaction may not exist yet or has been pruned"
	case RPCReverted:
		return "The transaction would revert, check contract conditions"
	case RPCRateLimited:
		return "Too many requests, please slow down"
	default:
		return ""
	}
}

// HTTPStatus maps the classification to an outward HTTP status. A revert is
// an expected business result, not an infrastructure failure, so it maps to
// 200.
func (e *RPCError) HTTPStatus() int {
	switch e.Code {
	case RPCConnectionFailed, RPCTransport:
		return http.StatusBadGateway
	case RPCTimeout:
		return http.StatusGatewayTimeout
	case RPCMethodNotFound:
		return http.StatusNotImplemented
	case RPCInvalidParams:
		return http.StatusBadRequest
	case RPCNodeSyncing:
		return http.StatusServiceUnavailable
	case RPCNotFound:
		return http.StatusNotFound
	case RPCReverted:
		return http.StatusOK
	case RPCRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ClassifyRPC turns an error returned by the RPC provider into a classified
// RPCError. Already-classified errors pass through unchanged.
func ClassifyRPC(method string, err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var nodeErr jsonrpc.Error
	if errors.As(err, &nodeErr) {
		return classifyNodeError(method, nodeErr, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewRPCError(RPCTimeout, method, "request deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewRPCError(RPCTimeout, method, "network timeout", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewRPCError(RPCConnectionFailed, method, opErr.Error(), err)
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "execution reverted"), strings.Contains(lower, "revert"):
		return NewRPCError(RPCReverted, method, revertReason(msg), err)
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return NewRPCError(RPCConnectionFailed, method, msg, err)
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "timed out"):
		return NewRPCError(RPCTimeout, method, msg, err)
	case strings.Contains(lower, "unmarshal"), strings.Contains(lower, "decode"):
		return NewRPCError(RPCParse, method, msg, err)
	case strings.Contains(lower, "429"), strings.Contains(lower, "too many requests"):
		return NewRPCError(RPCRateLimited, method, "rate limited by node", err)
	}

	return NewRPCError(RPCTransport, method, msg, err)
}

// classifyNodeError maps JSON-RPC error codes per the spec at
// https://www.jsonrpc.org/specification plus the de-facto Ethereum
// extensions.
func classifyNodeError(method string, nodeErr jsonrpc.Error, cause error) *RPCError {
	msg := nodeErr.Message
	lower := strings.ToLower(msg)

	if strings.Contains(lower, "execution reverted") || strings.Contains(lower, "revert") {
		return NewRPCError(RPCReverted, method, revertReason(msg), cause)
	}

	switch nodeErr.Code {
	case -32700:
		return NewRPCError(RPCParse, method, msg, cause)
	case -32601:
		return NewRPCError(RPCMethodNotFound, method, msg, cause)
	case -32602:
		return NewRPCError(RPCInvalidParams, method, msg, cause)
	case -32005:
		return NewRPCError(RPCRateLimited, method, msg, cause)
	}

	switch {
	case strings.Contains(lower, "syncing"):
		return NewRPCError(RPCNodeSyncing, method, msg, cause)
	case strings.Contains(lower, "not found"):
		return NewRPCError(RPCNotFound, method, msg, cause)
	}

	return NewRPCError(RPCInternal, method, msg, cause)
}

// revertReason extracts a human reason from a revert error message, falling
// back to a generic one.
func revertReason(msg string) string {
	if idx := strings.Index(msg, "execution reverted:"); idx >= 0 {
		reason := strings.TrimSpace(msg[idx+len("execution reverted:"):])
		if reason != "" {
			return reason
		}
	}

	return "Transaction execution reverted"
}
