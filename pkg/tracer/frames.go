package tracer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FourByteTrace summarises the four-byte tracer output: which function
// selectors were called and how often.
type FourByteTrace struct {
	Identifiers      map[string]FourByteInfo `json:"identifiers"`
	TotalIdentifiers int                     `json:"totalIdentifiers"`
}

// FourByteInfo is one selector entry. The node keys its output as
// "0xselector-calldatasize", which we split back apart.
type FourByteInfo struct {
	Selector     string `json:"selector"`
	CallDataSize uint64 `json:"callDataSize"`
	Count        uint64 `json:"count"`
}

func parseFourByteTrace(raw json.RawMessage) (*FourByteTrace, error) {
	var wire map[string]uint64
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding four-byte frame: %w", err)
	}

	trace := &FourByteTrace{
		Identifiers: make(map[string]FourByteInfo, len(wire)),
	}

	for key, count := range wire {
		selector := key
		size := uint64(0)

		if idx := strings.LastIndex(key, "-"); idx > 0 {
			selector = key[:idx]

			parsed, err := strconv.ParseUint(key[idx+1:], 10, 64)
			if err == nil {
				size = parsed
			}
		}

		trace.Identifiers[key] = FourByteInfo{
			Selector:     selector,
			CallDataSize: size,
			Count:        count,
		}
	}

	trace.TotalIdentifiers = len(trace.Identifiers)

	return trace, nil
}

// CallTrace is the call tracer output with call graph statistics attached.
type CallTrace struct {
	RootCall   CallFrame `json:"rootCall"`
	TotalCalls uint64    `json:"totalCalls"`
	MaxDepth   uint32    `json:"maxDepth"`
}

// CallFrame is one node in the call graph. Depth is 0 at the root.
type CallFrame struct {
	CallType     string      `json:"callType"`
	From         string      `json:"from"`
	To           *string     `json:"to,omitempty"`
	Value        *string     `json:"value,omitempty"`
	Gas          string      `json:"gas"`
	GasUsed      string      `json:"gasUsed"`
	Input        string      `json:"input"`
	Output       *string     `json:"output,omitempty"`
	Error        *string     `json:"error,omitempty"`
	RevertReason *string     `json:"revertReason,omitempty"`
	Reverted     bool        `json:"reverted"`
	Depth        uint32      `json:"depth"`
	Calls        []CallFrame `json:"calls,omitempty"`
	Logs         []CallLog   `json:"logs,omitempty"`
}

// CallLog is a log emitted during a call, as reported by the call tracer
// with withLogs enabled.
type CallLog struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	Position *string  `json:"position,omitempty"`
}

// rawCallFrame mirrors the node's call tracer output.
type rawCallFrame struct {
	Type         string         `json:"type"`
	From         string         `json:"from"`
	To           *string        `json:"to"`
	Value        *string        `json:"value"`
	Gas          string         `json:"gas"`
	GasUsed      string         `json:"gasUsed"`
	Input        string         `json:"input"`
	Output       *string        `json:"output"`
	Error        *string        `json:"error"`
	RevertReason *string        `json:"revertReason"`
	Calls        []rawCallFrame `json:"calls"`
	Logs         []CallLog      `json:"logs"`
}

func parseCallTrace(raw json.RawMessage) (*CallTrace, error) {
	var wire rawCallFrame
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding call frame: %w", err)
	}

	if wire.Type == "" || wire.From == "" {
		return nil, fmt.Errorf("call frame missing type or from")
	}

	trace := &CallTrace{RootCall: convertCallFrame(wire, 0)}
	trace.TotalCalls, trace.MaxDepth = callStats(&trace.RootCall)

	return trace, nil
}

func convertCallFrame(wire rawCallFrame, depth uint32) CallFrame {
	frame := CallFrame{
		CallType:     wire.Type,
		From:         wire.From,
		To:           wire.To,
		Value:        wire.Value,
		Gas:          wire.Gas,
		GasUsed:      wire.GasUsed,
		Input:        wire.Input,
		Output:       wire.Output,
		Error:        wire.Error,
		RevertReason: wire.RevertReason,
		Reverted:     wire.Error != nil,
		Depth:        depth,
		Logs:         wire.Logs,
	}

	if len(wire.Calls) > 0 {
		frame.Calls = make([]CallFrame, 0, len(wire.Calls))
		for _, sub := range wire.Calls {
			frame.Calls = append(frame.Calls, convertCallFrame(sub, depth+1))
		}
	}

	return frame
}

// callStats walks the call graph pre-order, counting frames and tracking
// the deepest one.
func callStats(root *CallFrame) (total uint64, maxDepth uint32) {
	total = 1
	maxDepth = root.Depth

	for i := range root.Calls {
		subTotal, subDepth := callStats(&root.Calls[i])
		total += subTotal

		if subDepth > maxDepth {
			maxDepth = subDepth
		}
	}

	return total, maxDepth
}

// PrestateTrace is the prestate tracer output, in either default mode (the
// touched accounts before execution) or diff mode (pre and post states).
type PrestateTrace struct {
	DiffMode bool
	Accounts map[string]AccountState
	Pre      map[string]AccountState
	Post     map[string]AccountState
}

// AccountState is the observed state of one account.
type AccountState struct {
	Balance *string           `json:"balance,omitempty"`
	Nonce   *uint64           `json:"nonce,omitempty"`
	Code    *string           `json:"code,omitempty"`
	Storage map[string]string `json:"storage,omitempty"`
}

// MarshalJSON renders diff mode as {pre, post} and default mode as the
// plain account map, matching the node's own shapes.
func (p PrestateTrace) MarshalJSON() ([]byte, error) {
	if p.DiffMode {
		return json.Marshal(struct {
			Pre  map[string]AccountState `json:"pre"`
			Post map[string]AccountState `json:"post"`
		}{Pre: p.Pre, Post: p.Post})
	}

	return json.Marshal(p.Accounts)
}

func parsePrestateTrace(raw json.RawMessage) (*PrestateTrace, error) {
	var diff struct {
		Pre  map[string]AccountState `json:"pre"`
		Post map[string]AccountState `json:"post"`
	}

	if err := json.Unmarshal(raw, &diff); err == nil && diff.Pre != nil && diff.Post != nil {
		return &PrestateTrace{DiffMode: true, Pre: diff.Pre, Post: diff.Post}, nil
	}

	var accounts map[string]AccountState
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("decoding prestate frame: %w", err)
	}

	return &PrestateTrace{Accounts: accounts}, nil
}

// StructLogTrace is the struct logger output with per-trace aggregates.
// Clean drops the per-opcode log array but keeps the aggregates.
type StructLogTrace struct {
	StructLogs       []StructLog `json:"structLogs,omitempty"`
	TotalOpcodes     uint64      `json:"totalOpcodes"`
	TotalGas         uint64      `json:"totalGas"`
	TotalGasRefunded uint64      `json:"totalGasRefunded"`
	RefundCounter    *uint64     `json:"refundCounter,omitempty"`
	Failed           bool        `json:"failed"`
	Error            *string     `json:"error,omitempty"`
	Output           *string     `json:"output,omitempty"`
}

// Clean discards the opcode-level logs.
func (s *StructLogTrace) Clean() {
	s.StructLogs = nil
}

// StructLog is one opcode execution record.
type StructLog struct {
	PC         uint64            `json:"pc"`
	Op         string            `json:"op"`
	Gas        uint64            `json:"gas"`
	GasCost    uint64            `json:"gasCost"`
	Depth      uint64            `json:"depth"`
	Error      *string           `json:"error,omitempty"`
	Stack      []string          `json:"stack,omitempty"`
	ReturnData *string           `json:"returnData,omitempty"`
	Memory     []string          `json:"memory,omitempty"`
	MemSize    *uint64           `json:"memSize,omitempty"`
	Storage    map[string]string `json:"storage,omitempty"`
	Refund     *uint64           `json:"refund,omitempty"`
}

// rawDefaultFrame mirrors the node's struct logger output.
type rawDefaultFrame struct {
	Gas         uint64      `json:"gas"`
	Failed      bool        `json:"failed"`
	ReturnValue string      `json:"returnValue"`
	StructLogs  []StructLog `json:"structLogs"`
}

func parseStructLogTrace(raw json.RawMessage) (*StructLogTrace, error) {
	var wire rawDefaultFrame
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding struct logger frame: %w", err)
	}

	trace := &StructLogTrace{
		StructLogs:   wire.StructLogs,
		TotalOpcodes: uint64(len(wire.StructLogs)),
		TotalGas:     wire.Gas,
		Failed:       wire.Failed,
	}

	// The refund counter appears on a log the first time a refund is
	// recorded and updates in place until the call context changes. Each
	// absent-to-present transition is one refund event: sum the value at the
	// transition for the total refunded gas and count the transitions.
	var (
		prev   *uint64
		events uint64
	)

	for i := range wire.StructLogs {
		refund := wire.StructLogs[i].Refund
		if refund != nil && prev == nil {
			trace.TotalGasRefunded += *refund
			events++
		}

		prev = refund
	}

	trace.RefundCounter = &events

	// The node reports opcode-level errors per log. Surface the last one,
	// which corresponds to the frame that actually halted.
	for i := len(wire.StructLogs) - 1; i >= 0; i-- {
		if err := wire.StructLogs[i].Error; err != nil && *err != "" {
			trace.Error = err

			break
		}
	}

	if wire.ReturnValue != "" {
		output := "0x" + strings.TrimPrefix(wire.ReturnValue, "0x")
		trace.Output = &output
	}

	return trace, nil
}
