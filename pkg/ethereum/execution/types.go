package execution

import "encoding/json"

// TransactionCall is a call in eth_simulateV1 / debug_traceCall wire format.
// All quantities are 0x-prefixed hex strings.
type TransactionCall struct {
	From                 *string           `json:"from,omitempty"`
	To                   *string           `json:"to,omitempty"`
	Gas                  *string           `json:"gas,omitempty"`
	GasPrice             *string           `json:"gasPrice,omitempty"`
	MaxFeePerGas         *string           `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *string           `json:"maxPriorityFeePerGas,omitempty"`
	Value                *string           `json:"value,omitempty"`
	Data                 *string           `json:"data,omitempty"`
	Nonce                *string           `json:"nonce,omitempty"`
	AccessList           []AccessListEntry `json:"accessList,omitempty"`
}

type AccessListEntry struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

// AccountOverride modifies a single account's state before execution.
type AccountOverride struct {
	Balance                 *string           `json:"balance,omitempty"`
	Nonce                   *string           `json:"nonce,omitempty"`
	Code                    *string           `json:"code,omitempty"`
	State                   map[string]string `json:"state,omitempty"`
	StateDiff               map[string]string `json:"stateDiff,omitempty"`
	MovePrecompileToAddress *string           `json:"movePrecompileToAddress,omitempty"`
}

// StateOverride maps account addresses to their overrides, the shape the
// debug and simulate APIs expect on the wire.
type StateOverride map[string]AccountOverride

// BlockOverrides modifies the block environment for a simulated block.
type BlockOverrides struct {
	Number        *string `json:"number,omitempty"`
	Difficulty    *string `json:"difficulty,omitempty"`
	Time          *uint64 `json:"time,omitempty"`
	GasLimit      *uint64 `json:"gasLimit,omitempty"`
	Coinbase      *string `json:"feeRecipient,omitempty"`
	Random        *string `json:"prevRandao,omitempty"`
	BaseFeePerGas *string `json:"baseFeePerGas,omitempty"`
}

// SimBlock is one entry of blockStateCalls in an eth_simulateV1 payload.
type SimBlock struct {
	BlockOverrides *BlockOverrides   `json:"blockOverrides,omitempty"`
	StateOverrides StateOverride     `json:"stateOverrides,omitempty"`
	Calls          []TransactionCall `json:"calls"`
}

// SimulatePayload is the first parameter of eth_simulateV1.
type SimulatePayload struct {
	BlockStateCalls        []SimBlock `json:"blockStateCalls"`
	TraceTransfers         bool       `json:"traceTransfers,omitempty"`
	Validation             bool       `json:"validation,omitempty"`
	ReturnFullTransactions bool       `json:"returnFullTransactions,omitempty"`
}

// SimulatedBlock is one simulated block returned by eth_simulateV1.
type SimulatedBlock struct {
	Number        string          `json:"number"`
	Hash          string          `json:"hash"`
	Timestamp     string          `json:"timestamp"`
	GasLimit      string          `json:"gasLimit"`
	GasUsed       string          `json:"gasUsed"`
	BaseFeePerGas string          `json:"baseFeePerGas"`
	Calls         []SimulatedCall `json:"calls"`
}

// SimulatedCall is the per-call outcome inside a simulated block. Status is
// "0x1" on success and "0x0" on revert.
type SimulatedCall struct {
	ReturnData string     `json:"returnData"`
	Logs       []Log      `json:"logs"`
	GasUsed    string     `json:"gasUsed"`
	Status     string     `json:"status"`
	Error      *CallError `json:"error,omitempty"`
}

type CallError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

type Log struct {
	Address          string   `json:"address"`
	Topics           []string `json:"topics"`
	Data             string   `json:"data"`
	BlockNumber      *string  `json:"blockNumber,omitempty"`
	TransactionHash  *string  `json:"transactionHash,omitempty"`
	TransactionIndex *string  `json:"transactionIndex,omitempty"`
	BlockHash        *string  `json:"blockHash,omitempty"`
	LogIndex         *string  `json:"logIndex,omitempty"`
	Removed          bool     `json:"removed,omitempty"`
}

// Tracer selector strings understood by the geth debug API. An empty Tracer
// on TraceOptions selects the default struct logger.
const (
	TracerNameCall     = "callTracer"
	TracerNamePrestate = "prestateTracer"
	TracerNameFourByte = "4byteTracer"
	TracerNameMux      = "muxTracer"
)

// TraceOptions is the options object of debug_traceTransaction. When Tracer
// is nil the node runs the struct logger and the flag fields apply.
type TraceOptions struct {
	Tracer       *string         `json:"tracer,omitempty"`
	TracerConfig json.RawMessage `json:"tracerConfig,omitempty"`
	Timeout      *string         `json:"timeout,omitempty"`

	// Struct logger flags. Only meaningful when Tracer is nil.
	EnableMemory     bool `json:"enableMemory,omitempty"`
	DisableStack     bool `json:"disableStack,omitempty"`
	DisableStorage   bool `json:"disableStorage,omitempty"`
	EnableReturnData bool `json:"enableReturnData,omitempty"`
}

// Kind reports which tracer these options select, for frame tagging.
func (o TraceOptions) Kind() TracerKind {
	if o.Tracer == nil {
		return TracerStructLog
	}

	switch *o.Tracer {
	case TracerNameCall:
		return TracerCall
	case TracerNamePrestate:
		return TracerPrestate
	case TracerNameFourByte:
		return TracerFourByte
	case TracerNameMux:
		return TracerMux
	default:
		return TracerUntyped
	}
}

// TraceCallOptions extends TraceOptions with the per-call overrides accepted
// by debug_traceCall and debug_traceCallMany.
type TraceCallOptions struct {
	TraceOptions
	StateOverrides StateOverride   `json:"stateOverrides,omitempty"`
	BlockOverrides *BlockOverrides `json:"blockOverrides,omitempty"`
}

// Bundle groups transactions sharing a block override, the first parameter
// element of debug_traceCallMany.
type Bundle struct {
	Transactions  []TransactionCall `json:"transactions"`
	BlockOverride *BlockOverrides   `json:"blockOverride,omitempty"`
}

// StateContext pins the state debug_traceCallMany executes against.
type StateContext struct {
	BlockNumber      *string `json:"blockNumber,omitempty"`
	TransactionIndex *int    `json:"transactionIndex,omitempty"`
}

// TracerKind tags a trace frame with the tracer that produced it. Untyped
// frames carry no tag and must be disambiguated structurally.
type TracerKind string

const (
	TracerCall      TracerKind = "callTracer"
	TracerPrestate  TracerKind = "prestateTracer"
	TracerFourByte  TracerKind = "4byteTracer"
	TracerMux       TracerKind = "muxTracer"
	TracerStructLog TracerKind = "structLog"
	TracerUntyped   TracerKind = ""
)

// TraceFrame is a raw trace payload tagged with the tracer that was
// requested for it.
type TraceFrame struct {
	Tracer TracerKind
	Data   json.RawMessage
}

// AccessListResult is the response of eth_createAccessList.
type AccessListResult struct {
	AccessList []AccessListEntry `json:"accessList"`
	Error      *string           `json:"error,omitempty"`
	GasUsed    string            `json:"gasUsed"`
}

// Receipt is the wire shape of eth_getTransactionReceipt.
type Receipt struct {
	TransactionHash   string  `json:"transactionHash"`
	TransactionIndex  string  `json:"transactionIndex"`
	BlockHash         string  `json:"blockHash"`
	BlockNumber       string  `json:"blockNumber"`
	From              string  `json:"from"`
	To                *string `json:"to,omitempty"`
	GasUsed           string  `json:"gasUsed"`
	CumulativeGasUsed string  `json:"cumulativeGasUsed"`
	EffectiveGasPrice string  `json:"effectiveGasPrice"`
	ContractAddress   *string `json:"contractAddress,omitempty"`
	Logs              []Log   `json:"logs"`
	LogsBloom         string  `json:"logsBloom"`
	Status            string  `json:"status"`
	Type              string  `json:"type"`
}
