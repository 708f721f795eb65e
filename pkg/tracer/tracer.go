package tracer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-simulator/pkg/common"
	"github.com/ethpandaops/execution-simulator/pkg/errs"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// TraceTransactionRequest traces a mined transaction by hash.
type TraceTransactionRequest struct {
	TransactionHash string `json:"transactionHash"`
	TracerConfig    Config `json:"tracerConfig"`
}

// TraceCallRequest traces a call without submitting it.
type TraceCallRequest struct {
	Call           execution.TransactionCall `json:"call"`
	Block          string                    `json:"block,omitempty"`
	TracerConfig   Config                    `json:"tracerConfig"`
	StateOverrides execution.StateOverride   `json:"stateOverrides,omitempty"`
	BlockOverrides *execution.BlockOverrides `json:"blockOverrides,omitempty"`
}

// TraceCallManyRequest traces transaction bundles against a state context.
type TraceCallManyRequest struct {
	Bundles      []execution.Bundle      `json:"bundles"`
	StateContext *execution.StateContext `json:"stateContext,omitempty"`
	TracerConfig Config                  `json:"tracerConfig"`
}

// Tracer orchestrates debug tracing calls and normalizes their frames.
type Tracer struct {
	log    logrus.FieldLogger
	client execution.Client
}

func NewTracer(log logrus.FieldLogger, client execution.Client) *Tracer {
	return &Tracer{
		log:    log.WithField("module", "tracer"),
		client: client,
	}
}

// TraceTransaction traces a mined transaction. The receipt is fetched
// concurrently with the trace; an unknown transaction is an error, unlike
// simulation there is no degraded result to fall back to.
func (t *Tracer) TraceTransaction(ctx context.Context, req TraceTransactionRequest) (*Response, error) {
	strategy := NewStrategy(req.TracerConfig)
	start := time.Now()

	log := t.log.WithFields(logrus.Fields{
		"tx_hash":  req.TransactionHash,
		"strategy": strategy.Kind(),
	})

	var (
		receipt *execution.Receipt
		outcome *Outcome
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := t.client.TransactionReceipt(gctx, req.TransactionHash)
		if err != nil {
			return errs.WrapRPC(errs.ClassifyRPC("eth_getTransactionReceipt", err))
		}

		receipt = r

		return nil
	})

	g.Go(func() error {
		o, err := strategy.Execute(gctx, func(ctx context.Context, opts execution.TraceOptions) (*execution.TraceFrame, error) {
			return t.client.DebugTraceTransaction(ctx, req.TransactionHash, opts)
		})
		if err != nil {
			return errs.WrapRPC(errs.ClassifyRPC("debug_traceTransaction", err))
		}

		outcome = o

		return nil
	})

	if err := g.Wait(); err != nil {
		t.observe("transaction", strategy, start, err)

		return nil, err
	}

	if receipt == nil {
		err := errs.WrapRPC(errs.NewRPCError(errs.RPCNotFound,
			"eth_getTransactionReceipt", "transaction not found", nil))

		t.observe("transaction", strategy, start, err)

		return nil, err
	}

	resp, err := t.finalize(req.TracerConfig, outcome)
	if err != nil {
		t.observe("transaction", strategy, start, err)

		return nil, err
	}

	resp.Receipt = receipt

	t.observe("transaction", strategy, start, nil)
	log.Debug("Transaction trace completed")

	return resp, nil
}

// TraceCall traces a call against a block without submitting it.
func (t *Tracer) TraceCall(ctx context.Context, req TraceCallRequest) (*Response, error) {
	strategy := NewStrategy(req.TracerConfig)
	start := time.Now()

	block := req.Block
	if block == "" {
		block = "latest"
	}

	outcome, err := strategy.Execute(ctx, func(ctx context.Context, opts execution.TraceOptions) (*execution.TraceFrame, error) {
		callOpts := execution.TraceCallOptions{
			TraceOptions:   opts,
			StateOverrides: req.StateOverrides,
			BlockOverrides: req.BlockOverrides,
		}

		return t.client.DebugTraceCall(ctx, req.Call, block, callOpts)
	})
	if err != nil {
		err = errs.WrapRPC(errs.ClassifyRPC("debug_traceCall", err))
		t.observe("call", strategy, start, err)

		return nil, err
	}

	resp, err := t.finalize(req.TracerConfig, outcome)

	t.observe("call", strategy, start, err)

	return resp, err
}

// TraceCallMany traces transaction bundles, returning one normalized
// response per frame the node reports.
func (t *Tracer) TraceCallMany(ctx context.Context, req TraceCallManyRequest) ([]*Response, error) {
	if len(req.Bundles) == 0 {
		return nil, errs.NewService(errs.ServiceBundleValidation, "at least one bundle is required")
	}

	for _, bundle := range req.Bundles {
		if len(bundle.Transactions) == 0 {
			return nil, errs.NewService(errs.ServiceBundleValidation,
				"every bundle requires at least one transaction")
		}
	}

	strategy := NewStrategy(req.TracerConfig)
	start := time.Now()

	stateContext := execution.StateContext{}
	if req.StateContext != nil {
		stateContext = *req.StateContext
	}

	outcomes, err := strategy.ExecuteCallMany(ctx, func(ctx context.Context, opts execution.TraceOptions) ([]execution.TraceFrame, error) {
		return t.client.DebugTraceCallMany(ctx, req.Bundles, stateContext,
			execution.TraceCallOptions{TraceOptions: opts})
	})
	if err != nil {
		err = errs.WrapRPC(errs.ClassifyRPC("debug_traceCallMany", err))
		t.observe("callMany", strategy, start, err)

		return nil, err
	}

	responses := make([]*Response, 0, len(outcomes))

	for i := range outcomes {
		resp, err := t.finalize(req.TracerConfig, &outcomes[i])
		if err != nil {
			t.observe("callMany", strategy, start, err)

			return nil, err
		}

		responses = append(responses, resp)
	}

	t.observe("callMany", strategy, start, nil)

	return responses, nil
}

// finalize normalizes the outcome and applies response-shaping options.
func (t *Tracer) finalize(cfg Config, outcome *Outcome) (*Response, error) {
	resp, err := Normalize(outcome)
	if err != nil {
		return nil, errs.WrapService(errs.ServiceTraceFailed, err.Error(), err)
	}

	if cfg.ShouldCleanStructLogs() {
		resp.CleanStructLogger()
	}

	return resp, nil
}

func (t *Tracer) observe(operation string, strategy Strategy, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	common.TracesTotal.WithLabelValues(operation, string(strategy.Kind()), status).Inc()
	common.TraceDuration.WithLabelValues(operation, string(strategy.Kind())).Observe(time.Since(start).Seconds())
}
