package execution

import "context"

// Client is the RPC surface the simulation and tracing services depend on.
// Node is the production implementation; tests inject fakes.
//
// All methods must be safe for concurrent use by multiple goroutines.
type Client interface {
	// Simulate executes eth_simulateV1 against the given block parameter.
	Simulate(ctx context.Context, payload SimulatePayload, block string) ([]SimulatedBlock, error)

	// DebugTraceTransaction traces a mined transaction. The returned frame
	// is tagged with the tracer the options select.
	DebugTraceTransaction(ctx context.Context, hash string, opts TraceOptions) (*TraceFrame, error)

	// DebugTraceCall traces a call against the given block parameter.
	DebugTraceCall(ctx context.Context, call TransactionCall, block string, opts TraceCallOptions) (*TraceFrame, error)

	// DebugTraceCallMany traces transaction bundles against a state context.
	// The node omits tracer tags in its response, so frames come back
	// untyped.
	DebugTraceCallMany(ctx context.Context, bundles []Bundle, stateContext StateContext, opts TraceCallOptions) ([]TraceFrame, error)

	// CreateAccessList generates an EIP-2930 access list for the call.
	CreateAccessList(ctx context.Context, call TransactionCall, block string) (*AccessListResult, error)

	// TransactionReceipt returns the receipt for a mined transaction, or
	// nil when the transaction is unknown.
	TransactionReceipt(ctx context.Context, hash string) (*Receipt, error)
}
