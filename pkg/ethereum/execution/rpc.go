package execution

import (
	"context"
	"encoding/json"
	"time"

	"github.com/0xsequence/ethkit/ethrpc"

	"github.com/ethpandaops/execution-simulator/pkg/common"
)

const (
	STATUS_ERROR   = "error"
	STATUS_SUCCESS = "success"
)

// withDeadline adds the configured timeout when the caller's context carries
// no deadline of its own.
func (n *Node) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	timeout := time.Duration(n.config.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return context.WithTimeout(ctx, timeout)
}

func (n *Node) observe(method string, start time.Time, err error) {
	status := STATUS_SUCCESS
	if err != nil {
		status = STATUS_ERROR
	}

	common.RPCCallDuration.WithLabelValues(n.config.Name, method, status).Observe(time.Since(start).Seconds())
	common.RPCCallsTotal.WithLabelValues(n.config.Name, method, status).Inc()
}

func (n *Node) Simulate(ctx context.Context, payload SimulatePayload, block string) ([]SimulatedBlock, error) {
	ctx, cancel := n.withDeadline(ctx)
	defer cancel()

	var blocks []SimulatedBlock

	call := ethrpc.NewCallBuilder[[]SimulatedBlock]("eth_simulateV1", nil, payload, block)

	start := time.Now()
	_, err := n.rpc.Do(ctx, call.Into(&blocks))
	n.observe("eth_simulateV1", start, err)

	if err != nil {
		return nil, err
	}

	return blocks, nil
}

func (n *Node) DebugTraceTransaction(ctx context.Context, hash string, opts TraceOptions) (*TraceFrame, error) {
	ctx, cancel := n.withDeadline(ctx)
	defer cancel()

	frame := &TraceFrame{Tracer: opts.Kind()}

	call := ethrpc.NewCallBuilder[json.RawMessage]("debug_traceTransaction", nil, hash, opts)

	start := time.Now()
	_, err := n.rpc.Do(ctx, call.Into(&frame.Data))
	n.observe("debug_traceTransaction", start, err)

	if err != nil {
		return nil, err
	}

	return frame, nil
}

func (n *Node) DebugTraceCall(ctx context.Context, txCall TransactionCall, block string, opts TraceCallOptions) (*TraceFrame, error) {
	ctx, cancel := n.withDeadline(ctx)
	defer cancel()

	frame := &TraceFrame{Tracer: opts.Kind()}

	call := ethrpc.NewCallBuilder[json.RawMessage]("debug_traceCall", nil, txCall, block, opts)

	start := time.Now()
	_, err := n.rpc.Do(ctx, call.Into(&frame.Data))
	n.observe("debug_traceCall", start, err)

	if err != nil {
		return nil, err
	}

	return frame, nil
}

func (n *Node) DebugTraceCallMany(ctx context.Context, bundles []Bundle, stateContext StateContext, opts TraceCallOptions) ([]TraceFrame, error) {
	ctx, cancel := n.withDeadline(ctx)
	defer cancel()

	var raw []json.RawMessage

	call := ethrpc.NewCallBuilder[[]json.RawMessage]("debug_traceCallMany", nil, bundles, stateContext, opts)

	start := time.Now()
	_, err := n.rpc.Do(ctx, call.Into(&raw))
	n.observe("debug_traceCallMany", start, err)

	if err != nil {
		return nil, err
	}

	// The node returns bare payloads; callers disambiguate structurally.
	frames := make([]TraceFrame, 0, len(raw))
	for _, payload := range raw {
		frames = append(frames, TraceFrame{Tracer: TracerUntyped, Data: payload})
	}

	return frames, nil
}

func (n *Node) CreateAccessList(ctx context.Context, txCall TransactionCall, block string) (*AccessListResult, error) {
	ctx, cancel := n.withDeadline(ctx)
	defer cancel()

	var result AccessListResult

	call := ethrpc.NewCallBuilder[AccessListResult]("eth_createAccessList", nil, txCall, block)

	start := time.Now()
	_, err := n.rpc.Do(ctx, call.Into(&result))
	n.observe("eth_createAccessList", start, err)

	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (n *Node) TransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	ctx, cancel := n.withDeadline(ctx)
	defer cancel()

	var receipt *Receipt

	call := ethrpc.NewCallBuilder[*Receipt]("eth_getTransactionReceipt", nil, hash)

	start := time.Now()
	_, err := n.rpc.Do(ctx, call.Into(&receipt))
	n.observe("eth_getTransactionReceipt", start, err)

	if err != nil {
		return nil, err
	}

	return receipt, nil
}
