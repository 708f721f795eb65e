package simulate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-simulator/pkg/common"
	"github.com/ethpandaops/execution-simulator/pkg/errs"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

const defaultMaxConcurrency = 8

type Options struct {
	// MaxConcurrency bounds concurrent node calls during batch simulation
	MaxConcurrency int `yaml:"maxConcurrency" default:"8"`
}

// Simulator orchestrates eth_simulateV1 calls and normalizes their results.
type Simulator struct {
	log    logrus.FieldLogger
	client execution.Client
	opts   Options
}

func NewSimulator(log logrus.FieldLogger, client execution.Client, opts Options) *Simulator {
	return &Simulator{
		log:    log.WithField("module", "simulate"),
		client: client,
		opts:   opts,
	}
}

// SimulateOne runs a single simulation. RPC failures never propagate as
// errors: they degrade into a failed Result that preserves the requested
// call count.
func (s *Simulator) SimulateOne(ctx context.Context, req SimulationRequest) (*Result, error) {
	return s.simulate(ctx, req, uuid.New().String(), "single")
}

func (s *Simulator) simulate(ctx context.Context, req SimulationRequest, id, mode string) (*Result, error) {
	start := time.Now()

	callCount := req.CallCount()
	if callCount == 0 {
		return nil, errs.NewService(errs.ServiceSimulationFailed, "at least one call is required")
	}

	log := s.log.WithFields(logrus.Fields{
		"simulation_id": id,
		"calls":         callCount,
	})

	payload, err := buildPayload(req)
	if err != nil {
		return nil, err
	}

	blockCtx, err := ResolveBlockContext(req.Params.BlockNumber, req.Params.BlockTag)
	if err != nil {
		return nil, err
	}

	blocks, err := s.client.Simulate(ctx, payload, blockCtx.Param())

	common.SimulationCalls.WithLabelValues(mode).Observe(float64(callCount))
	common.SimulationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err != nil {
		rpcErr := errs.ClassifyRPC("eth_simulateV1", err)

		log.WithError(rpcErr).Debug("Simulation RPC call failed, degrading to failed result")
		common.SimulationsTotal.WithLabelValues(mode, "failed").Inc()

		result := failedResult(id, callCount, rpcErr.Message, rpcCodeToErrorType(rpcErr.Code))

		return &result, nil
	}

	if len(blocks) == 0 {
		log.Error("No simulation results returned from RPC")
		common.SimulationsTotal.WithLabelValues(mode, "failed").Inc()

		return nil, errs.NewService(errs.ServiceSimulationFailed, "no simulation results returned")
	}

	result := resultFromBlock(id, blocks[0])

	common.SimulationsTotal.WithLabelValues(mode, string(result.Status)).Inc()
	log.WithFields(logrus.Fields{
		"status":   result.Status,
		"gas_used": result.GasUsed,
	}).Debug("Simulation completed")

	return &result, nil
}

// SimulateBatch runs independent simulations concurrently. The returned
// slice mirrors the input order and every entry carries a fresh id; a
// failing entry only ever sinks itself.
func (s *Simulator) SimulateBatch(ctx context.Context, reqs []SimulationRequest) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, errs.NewService(errs.ServiceSimulationFailed,
			"batch simulation requires at least one request")
	}

	batchID := uuid.New().String()

	s.log.WithFields(logrus.Fields{
		"batch_id":   batchID,
		"batch_size": len(reqs),
	}).Debug("Starting batch simulation")

	limit := s.opts.MaxConcurrency
	if limit <= 0 {
		limit = defaultMaxConcurrency
	}

	results := make([]Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			id := uuid.New().String()

			result, err := s.simulate(gctx, req, id, "batch")
			if err != nil {
				s.log.WithError(err).WithField("batch_id", batchID).
					Warn("Batch entry failed outside the RPC path")

				results[i] = failedResult(id, 1, "Simulation service error occurred", "simulation-error")

				return nil
			}

			results[i] = *result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// CreateAccessList asks the node which accounts and storage slots the call
// would touch.
func (s *Simulator) CreateAccessList(ctx context.Context, req AccessListRequest) (*execution.AccessListResult, error) {
	block := req.Block
	if block == "" {
		block = string(BlockTagLatest)
	}

	result, err := s.client.CreateAccessList(ctx, req.Params, block)
	if err != nil {
		common.AccessListsTotal.WithLabelValues("error").Inc()

		return nil, errs.WrapRPC(errs.ClassifyRPC("eth_createAccessList", err))
	}

	if result.Error != nil {
		common.AccessListsTotal.WithLabelValues("failed").Inc()

		return nil, errs.NewServicef(errs.ServiceAccessListFailed,
			"access list generation failed: %s", *result.Error)
	}

	common.AccessListsTotal.WithLabelValues("success").Inc()

	return result, nil
}

// failedResult synthesizes a failed Result preserving the call count.
func failedResult(id string, callCount int, reason, errorType string) Result {
	message := reason

	failure := &CallFailure{
		Reason:    reason,
		ErrorType: errorType,
		Message:   &message,
	}

	calls := make([]CallResult, callCount)
	for i := range calls {
		calls[i] = CallResult{
			CallIndex:  i,
			Status:     CallStatusReverted,
			ReturnData: "0x",
			GasUsed:    "0x0",
			Logs:       []execution.Log{},
			Error:      failure,
		}
	}

	return Result{
		SimulationID: id,
		Status:       StatusFailed,
		BlockNumber:  "0x0",
		Calls:        calls,
		GasUsed:      "0x0",
		BlockGasUsed: "0x0",
	}
}

// rpcCodeToErrorType renders an RPC classification as a call error type,
// e.g. EXECUTION_REVERTED becomes execution-reverted.
func rpcCodeToErrorType(code errs.RPCCode) string {
	return strings.ReplaceAll(strings.ToLower(string(code)), "_", "-")
}
