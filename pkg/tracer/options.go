package tracer

import (
	"encoding/json"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// structLoggerOptions builds the wire options for the default struct logger.
// The geth API expresses memory and return data as enables, our config as
// disables.
func structLoggerOptions(cfg *StructLoggerConfig) execution.TraceOptions {
	return execution.TraceOptions{
		EnableMemory:     !cfg.DisableMemory,
		DisableStack:     cfg.DisableStack,
		DisableStorage:   cfg.DisableStorage,
		EnableReturnData: !cfg.DisableReturnData,
	}
}

// tracersOptions builds the wire options for the multiplexable tracers. A
// single active tracer is selected directly; two or more go through the mux
// tracer, which only supports the four-byte, call and prestate tracers.
func tracersOptions(t Tracers) execution.TraceOptions {
	if !t.IsMux() {
		switch {
		case t.CallTracer != nil:
			return singleTracerOptions(execution.TracerNameCall, t.CallTracer)
		case t.PrestateTracer != nil:
			return singleTracerOptions(execution.TracerNamePrestate, t.PrestateTracer)
		default:
			return singleTracerOptions(execution.TracerNameFourByte, nil)
		}
	}

	mux := map[string]any{}

	if t.FourByteTracer {
		mux[execution.TracerNameFourByte] = struct{}{}
	}

	if t.CallTracer != nil {
		mux[execution.TracerNameCall] = t.CallTracer
	}

	if t.PrestateTracer != nil {
		mux[execution.TracerNamePrestate] = t.PrestateTracer
	}

	return singleTracerOptions(execution.TracerNameMux, mux)
}

func singleTracerOptions(name string, config any) execution.TraceOptions {
	opts := execution.TraceOptions{Tracer: &name}

	if config != nil {
		// Marshalling our own config types cannot fail.
		raw, err := json.Marshal(config)
		if err == nil {
			opts.TracerConfig = raw
		}
	}

	return opts
}

func defaultCallTracerOptions() execution.TraceOptions {
	return singleTracerOptions(execution.TracerNameCall, &CallTracerConfig{})
}
