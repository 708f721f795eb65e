package simulate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// fakeClient implements execution.Client for simulator tests.
type fakeClient struct {
	mu sync.Mutex

	simulateFn    func(payload execution.SimulatePayload, block string) ([]execution.SimulatedBlock, error)
	simulateCalls int
	lastBlock     string
	lastPayload   execution.SimulatePayload
}

func (f *fakeClient) Simulate(_ context.Context, payload execution.SimulatePayload, block string) ([]execution.SimulatedBlock, error) {
	f.mu.Lock()
	f.simulateCalls++
	f.lastBlock = block
	f.lastPayload = payload
	f.mu.Unlock()

	return f.simulateFn(payload, block)
}

func (f *fakeClient) DebugTraceTransaction(context.Context, string, execution.TraceOptions) (*execution.TraceFrame, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) DebugTraceCall(context.Context, execution.TransactionCall, string, execution.TraceCallOptions) (*execution.TraceFrame, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) DebugTraceCallMany(context.Context, []execution.Bundle, execution.StateContext, execution.TraceCallOptions) ([]execution.TraceFrame, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) CreateAccessList(context.Context, execution.TransactionCall, string) (*execution.AccessListResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeClient) TransactionReceipt(context.Context, string) (*execution.Receipt, error) {
	return nil, errors.New("not implemented")
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func twoCallRequest() SimulationRequest {
	to := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	data := "0xa9059cbb"

	return SimulationRequest{
		Params: SimulationParams{
			Calls: []execution.TransactionCall{
				{To: &to, Data: &data},
				{To: &to},
			},
		},
	}
}

func successBlock() []execution.SimulatedBlock {
	return []execution.SimulatedBlock{{
		Number:  "0x123abd",
		GasUsed: "0x5208",
		Calls: []execution.SimulatedCall{
			{ReturnData: "0x01", GasUsed: "0x5208", Status: "0x1"},
			{ReturnData: "0x", GasUsed: "0x0", Status: "0x1"},
		},
	}}
}

func TestSimulateOneSuccess(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return successBlock(), nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	result, err := s.SimulateOne(context.Background(), twoCallRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.NotEmpty(t, result.SimulationID)
	assert.Equal(t, 1, client.simulateCalls)
	assert.Equal(t, "latest", client.lastBlock)

	require.Len(t, result.Calls, 2)
	assert.Equal(t, 0, result.Calls[0].CallIndex)
	assert.Equal(t, 1, result.Calls[1].CallIndex)

	// 0x5208 + 0x0 = 0x5208
	assert.Equal(t, "0x5208", result.GasUsed)
}

func TestSimulateOneMalformedGasCountsZero(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return []execution.SimulatedBlock{{
				Number: "0x1",
				Calls: []execution.SimulatedCall{
					{ReturnData: "0x", GasUsed: "not-hex", Status: "0x1"},
					{ReturnData: "0x", GasUsed: "0x5208", Status: "0x1"},
				},
			}}, nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	result, err := s.SimulateOne(context.Background(), twoCallRequest())
	require.NoError(t, err)

	assert.Equal(t, "0x0", result.Calls[0].GasUsed)
	assert.Equal(t, "0x5208", result.GasUsed)
}

func TestSimulateOneRevertedCallFailsSimulation(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return []execution.SimulatedBlock{{
				Number: "0x1",
				Calls: []execution.SimulatedCall{
					{ReturnData: "0x", GasUsed: "0x5208", Status: "0x1"},
					{
						ReturnData: "0x",
						GasUsed:    "0x0",
						Status:     "0x0",
						Error: &execution.CallError{
							Code:    -3200,
							Message: "execution reverted: ERC20: transfer amount exceeds balance",
						},
					},
				},
			}}, nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	result, err := s.SimulateOne(context.Background(), twoCallRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, CallStatusSuccess, result.Calls[0].Status)
	assert.Equal(t, CallStatusReverted, result.Calls[1].Status)

	require.NotNil(t, result.Calls[1].Error)
	assert.Equal(t, "ERC20: transfer amount exceeds balance", result.Calls[1].Error.Reason)
	assert.Equal(t, "execution-reverted", result.Calls[1].Error.ErrorType)
}

func TestSimulateOneRPCFailureDegrades(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return nil, errors.New("dial tcp 10.0.0.5:8545: connect: connection refused")
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	result, err := s.SimulateOne(context.Background(), twoCallRequest())
	require.NoError(t, err, "RPC failures must degrade, not propagate")

	assert.Equal(t, StatusFailed, result.Status)
	require.Len(t, result.Calls, 2, "failed result preserves the call count")

	for _, call := range result.Calls {
		assert.Equal(t, CallStatusReverted, call.Status)
		require.NotNil(t, call.Error)
		assert.NotEmpty(t, call.Error.Reason)
		assert.NotContains(t, call.Error.Reason, "10.0.0.5")
	}
}

func TestSimulateOneNoCalls(t *testing.T) {
	s := NewSimulator(testLogger(), &fakeClient{}, Options{})

	_, err := s.SimulateOne(context.Background(), SimulationRequest{})
	require.Error(t, err)
}

func TestSimulateOneBlockContext(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return successBlock(), nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	req := twoCallRequest()
	req.Params.BlockNumber = strPtr("0x123abc")

	_, err := s.SimulateOne(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "0x123abc", client.lastBlock)

	req = twoCallRequest()
	req.Params.BlockNumber = strPtr("0x1")
	req.Params.BlockTag = tagPtr(BlockTagLatest)

	_, err = s.SimulateOne(context.Background(), req)
	require.Error(t, err)
}

func TestSimulateOnePayloadFlags(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return successBlock(), nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	req := twoCallRequest()
	req.Params.TraceTransfers = true

	_, err := s.SimulateOne(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, client.lastPayload.Validation, "validation defaults to enabled")
	assert.True(t, client.lastPayload.TraceTransfers)
	require.Len(t, client.lastPayload.BlockStateCalls, 1)
	assert.Len(t, client.lastPayload.BlockStateCalls[0].Calls, 2)
}

func TestSimulateBatchOrderAndIDs(t *testing.T) {
	client := &fakeClient{
		simulateFn: func(payload execution.SimulatePayload, _ string) ([]execution.SimulatedBlock, error) {
			// Echo the call count so each entry is distinguishable.
			calls := make([]execution.SimulatedCall, len(payload.BlockStateCalls[0].Calls))
			for i := range calls {
				calls[i] = execution.SimulatedCall{ReturnData: "0x", GasUsed: "0x1", Status: "0x1"}
			}

			return []execution.SimulatedBlock{{Number: "0x1", Calls: calls}}, nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{MaxConcurrency: 2})

	to := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	reqs := make([]SimulationRequest, 5)
	for i := range reqs {
		calls := make([]execution.TransactionCall, i+1)
		for j := range calls {
			calls[j] = execution.TransactionCall{To: &to}
		}

		reqs[i] = SimulationRequest{Params: SimulationParams{Calls: calls}}
	}

	results, err := s.SimulateBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 5)

	seen := map[string]bool{}
	for i, result := range results {
		assert.Len(t, result.Calls, i+1, "output order mirrors input order")
		assert.False(t, seen[result.SimulationID], "ids must be unique")
		seen[result.SimulationID] = true
	}
}

func TestSimulateBatchIsolatesFailures(t *testing.T) {
	to := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"

	client := &fakeClient{
		simulateFn: func(execution.SimulatePayload, string) ([]execution.SimulatedBlock, error) {
			return successBlock(), nil
		},
	}

	s := NewSimulator(testLogger(), client, Options{})

	good := twoCallRequest()

	bad := SimulationRequest{Params: SimulationParams{
		Calls:       []execution.TransactionCall{{To: &to}},
		BlockNumber: strPtr("0x1"),
		BlockTag:    tagPtr(BlockTagLatest),
	}}

	results, err := s.SimulateBatch(context.Background(), []SimulationRequest{good, bad, good})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, StatusSuccess, results[2].Status)
}

func TestBatchCommonOptions(t *testing.T) {
	balance := "0x10000000000000"
	common := &SimulationOptions{
		StateOverrides: []StateOverride{{
			Address: "0x742d35Cc6634C0532925a3b844Bc9e7595f06e8c",
			Balance: &balance,
		}},
	}

	own := &SimulationOptions{}

	batch := BatchSimulationRequest{
		Simulations: []SimulationRequest{
			{Options: own},
			{},
		},
		CommonOptions: common,
	}

	reqs := batch.Requests()
	assert.Same(t, own, reqs[0].Options, "explicit options win")
	assert.Same(t, common, reqs[1].Options, "missing options fall back to common")
}

func TestStateOverrideExclusivity(t *testing.T) {
	_, err := toWireOverrides([]StateOverride{{
		Address:   "0x742d35Cc6634C0532925a3b844Bc9e7595f06e8c",
		State:     []StorageSlot{{Slot: "0x01", Value: "0x02"}},
		StateDiff: map[string]string{"0x01": "0x02"},
	}})
	require.Error(t, err)

	wire, err := toWireOverrides([]StateOverride{{
		Address: "0x742d35Cc6634C0532925a3b844Bc9e7595f06e8c",
		State:   []StorageSlot{{Slot: "0x01", Value: "0x02"}},
	}})
	require.NoError(t, err)

	account := wire["0x742d35Cc6634C0532925a3b844Bc9e7595f06e8c"]
	assert.Equal(t, "0x02", account.State["0x01"])
}
