package simulate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// Status is the top-level outcome of a simulation: success when every call
// succeeded, failed otherwise. There is no third state; per-call reverts are
// reported on the calls themselves.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// CallStatus is the per-call outcome.
type CallStatus string

const (
	CallStatusSuccess  CallStatus = "success"
	CallStatusReverted CallStatus = "reverted"
)

// Result is the normalized outcome of one simulation request.
type Result struct {
	SimulationID string       `json:"simulationId"`
	Status       Status       `json:"status"`
	BlockNumber  string       `json:"blockNumber,omitempty"`
	Calls        []CallResult `json:"calls"`
	GasUsed      string       `json:"gasUsed"`
	BlockGasUsed string       `json:"blockGasUsed"`
}

// CallResult is the outcome of a single call within a simulation.
type CallResult struct {
	CallIndex  int             `json:"callIndex"`
	Status     CallStatus      `json:"status"`
	ReturnData string          `json:"returnData"`
	GasUsed    string          `json:"gasUsed"`
	Logs       []execution.Log `json:"logs"`
	Error      *CallFailure    `json:"error,omitempty"`
}

// CallFailure describes why a call reverted.
type CallFailure struct {
	Reason    string  `json:"reason"`
	ErrorType string  `json:"errorType"`
	Message   *string `json:"message,omitempty"`
}

// parseHexGas parses a 0x-prefixed gas quantity; malformed input counts as
// zero so one bad field cannot sink the aggregate.
func parseHexGas(raw string) uint64 {
	trimmed := strings.TrimPrefix(raw, "0x")
	if trimmed == "" || trimmed == raw {
		return 0
	}

	value, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0
	}

	return value
}

func encodeHex(value uint64) string {
	return fmt.Sprintf("0x%x", value)
}

// extractRevertReason pulls a clean reason out of a node error message.
func extractRevertReason(message string) string {
	if idx := strings.Index(message, "execution reverted: "); idx >= 0 {
		return message[idx+len("execution reverted: "):]
	}

	if idx := strings.Index(message, "revert "); idx >= 0 {
		return message[idx+len("revert "):]
	}

	switch {
	case strings.Contains(message, "out of gas"):
		return "Out of gas"
	case strings.Contains(message, "insufficient funds"):
		return "Insufficient funds"
	default:
		return message
	}
}

// errorType maps node error codes to stable identifiers.
func errorType(code int) string {
	switch code {
	case -3200:
		return "execution-reverted"
	case -32015:
		return "vm-execution-error"
	default:
		return "unknown-error"
	}
}

// resultFromBlock maps a simulated block to a Result, preserving call order.
func resultFromBlock(id string, block execution.SimulatedBlock) Result {
	calls := make([]CallResult, 0, len(block.Calls))

	var totalGas uint64

	allSucceeded := true

	for i, call := range block.Calls {
		status := CallStatusSuccess
		if call.Status != "0x1" {
			status = CallStatusReverted
			allSucceeded = false
		}

		gas := parseHexGas(call.GasUsed)
		totalGas += gas

		logs := call.Logs
		if logs == nil {
			logs = []execution.Log{}
		}

		out := CallResult{
			CallIndex:  i,
			Status:     status,
			ReturnData: call.ReturnData,
			GasUsed:    encodeHex(gas),
			Logs:       logs,
		}

		if call.Error != nil {
			message := call.Error.Message
			out.Error = &CallFailure{
				Reason:    extractRevertReason(message),
				ErrorType: errorType(call.Error.Code),
				Message:   &message,
			}
		}

		calls = append(calls, out)
	}

	status := StatusSuccess
	if !allSucceeded {
		status = StatusFailed
	}

	return Result{
		SimulationID: id,
		Status:       status,
		BlockNumber:  block.Number,
		Calls:        calls,
		GasUsed:      encodeHex(totalGas),
		BlockGasUsed: block.GasUsed,
	}
}
