package tracer

// Config selects which tracers run for a trace request.
type Config struct {
	Tracers Tracers `json:"tracers"`
}

// ShouldCleanStructLogs reports whether the per-opcode log array should be
// dropped from the response, keeping only the aggregates.
func (c Config) ShouldCleanStructLogs() bool {
	return c.Tracers.StructLogger != nil && c.Tracers.StructLogger.CleanStructLogs
}

// Tracers is the set of requested tracers. The struct logger is handled
// separately from the other three because the node cannot multiplex it.
type Tracers struct {
	FourByteTracer bool                  `json:"4byteTracer"`
	CallTracer     *CallTracerConfig     `json:"callTracer,omitempty"`
	PrestateTracer *PrestateTracerConfig `json:"prestateTracer,omitempty"`
	StructLogger   *StructLoggerConfig   `json:"structLogger,omitempty"`
}

// ActiveCount counts the multiplexable tracers: four-byte, call and
// prestate. The struct logger is excluded.
func (t Tracers) ActiveCount() int {
	count := 0

	if t.FourByteTracer {
		count++
	}

	if t.CallTracer != nil {
		count++
	}

	if t.PrestateTracer != nil {
		count++
	}

	return count
}

// IsMux reports whether a mux tracer is needed to run the request in one
// call.
func (t Tracers) IsMux() bool {
	return t.ActiveCount() >= 2
}

type CallTracerConfig struct {
	OnlyTopCall bool `json:"onlyTopCall"`
	WithLogs    bool `json:"withLogs"`
}

type PrestateTracerConfig struct {
	DiffMode       bool `json:"diffMode"`
	DisableCode    bool `json:"disableCode"`
	DisableStorage bool `json:"disableStorage"`
}

type StructLoggerConfig struct {
	DisableMemory     bool `json:"disableMemory"`
	DisableStack      bool `json:"disableStack"`
	DisableStorage    bool `json:"disableStorage"`
	DisableReturnData bool `json:"disableReturnData"`
	CleanStructLogs   bool `json:"cleanStructLogs"`
}
