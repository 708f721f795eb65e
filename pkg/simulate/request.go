package simulate

import (
	"fmt"

	"github.com/ethpandaops/execution-simulator/pkg/errs"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// SimulationRequest is a single simulation job.
type SimulationRequest struct {
	Params  SimulationParams   `json:"params"`
	Options *SimulationOptions `json:"options,omitempty"`
}

// CallCount is the number of transaction calls in the request.
func (r SimulationRequest) CallCount() int {
	return len(r.Params.Calls)
}

// SimulationParams carries the calls and block context for a simulation.
type SimulationParams struct {
	Calls       []execution.TransactionCall `json:"calls"`
	Account     *string                     `json:"account,omitempty"`
	BlockNumber *string                     `json:"blockNumber,omitempty"`
	BlockTag    *BlockTag                   `json:"blockTag,omitempty"`
	// Validation toggles full EVM validation; nil means enabled. When
	// disabled the node behaves like eth_call with relaxed checks.
	Validation     *bool `json:"validation,omitempty"`
	TraceTransfers bool  `json:"traceTransfers,omitempty"`
}

// Validate reports whether validation is requested, defaulting to true.
func (p SimulationParams) Validate() bool {
	return p.Validation == nil || *p.Validation
}

// SimulationOptions carries optional state and block environment overrides.
type SimulationOptions struct {
	StateOverrides []StateOverride           `json:"stateOverrides,omitempty"`
	BlockOverrides *execution.BlockOverrides `json:"blockOverrides,omitempty"`
}

// StateOverride modifies one account's state before the simulation runs.
// State and StateDiff are mutually exclusive.
type StateOverride struct {
	Address   string            `json:"address"`
	Balance   *string           `json:"balance,omitempty"`
	Nonce     *uint64           `json:"nonce,omitempty"`
	Code      *string           `json:"code,omitempty"`
	State     []StorageSlot     `json:"state,omitempty"`
	StateDiff map[string]string `json:"stateDiff,omitempty"`
}

// StorageSlot is a single slot assignment within a state override.
type StorageSlot struct {
	Slot  string `json:"slot"`
	Value string `json:"value"`
}

// BatchSimulationRequest is a set of independent simulations executed
// concurrently.
type BatchSimulationRequest struct {
	Simulations   []SimulationRequest `json:"simulations"`
	CommonOptions *SimulationOptions  `json:"commonOptions,omitempty"`
}

// Requests returns the simulations with CommonOptions filled in for entries
// that carry no options of their own.
func (b BatchSimulationRequest) Requests() []SimulationRequest {
	if b.CommonOptions == nil {
		return b.Simulations
	}

	out := make([]SimulationRequest, len(b.Simulations))
	for i, sim := range b.Simulations {
		if sim.Options == nil {
			sim.Options = b.CommonOptions
		}

		out[i] = sim
	}

	return out
}

// AccessListRequest asks for the accounts and storage slots a call touches.
type AccessListRequest struct {
	Params execution.TransactionCall `json:"params"`
	Block  string                    `json:"block,omitempty"`
}

// toWireOverrides converts the override list to the address-keyed map the
// node expects, enforcing state/stateDiff exclusivity.
func toWireOverrides(overrides []StateOverride) (execution.StateOverride, error) {
	if len(overrides) == 0 {
		return nil, nil
	}

	wire := make(execution.StateOverride, len(overrides))

	for _, o := range overrides {
		if o.Address == "" {
			return nil, errs.NewService(errs.ServiceInvalidStateOverride,
				"state override is missing an address")
		}

		if len(o.State) > 0 && len(o.StateDiff) > 0 {
			return nil, errs.NewServicef(errs.ServiceInvalidStateOverride,
				"cannot specify both state and stateDiff for %s, they are mutually exclusive", o.Address)
		}

		account := execution.AccountOverride{
			Balance:   o.Balance,
			Code:      o.Code,
			StateDiff: o.StateDiff,
		}

		if o.Nonce != nil {
			nonce := fmt.Sprintf("0x%x", *o.Nonce)
			account.Nonce = &nonce
		}

		if len(o.State) > 0 {
			account.State = make(map[string]string, len(o.State))
			for _, slot := range o.State {
				account.State[slot.Slot] = slot.Value
			}
		}

		wire[o.Address] = account
	}

	return wire, nil
}

// buildPayload assembles the eth_simulateV1 payload for one request.
func buildPayload(req SimulationRequest) (execution.SimulatePayload, error) {
	block := execution.SimBlock{Calls: req.Params.Calls}

	if req.Options != nil {
		overrides, err := toWireOverrides(req.Options.StateOverrides)
		if err != nil {
			return execution.SimulatePayload{}, err
		}

		block.StateOverrides = overrides
		block.BlockOverrides = req.Options.BlockOverrides
	}

	return execution.SimulatePayload{
		BlockStateCalls: []execution.SimBlock{block},
		TraceTransfers:  req.Params.TraceTransfers,
		Validation:      req.Params.Validate(),
	}, nil
}
