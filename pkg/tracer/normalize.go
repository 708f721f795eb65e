package tracer

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// Response is the normalized trace result: one optional section per tracer,
// regardless of whether the node ran them in one call, a mux call or two
// concurrent calls.
type Response struct {
	Receipt        *execution.Receipt `json:"receipt,omitempty"`
	CallTracer     *CallTrace         `json:"callTracer,omitempty"`
	PrestateTracer *PrestateTrace     `json:"prestateTracer,omitempty"`
	StructLogger   *StructLogTrace    `json:"structLogger,omitempty"`
	FourByteTracer *FourByteTrace     `json:"4byteTracer,omitempty"`
}

// CleanStructLogger drops the opcode-level logs from the struct logger
// section, if present.
func (r *Response) CleanStructLogger() {
	if r.StructLogger != nil {
		r.StructLogger.Clean()
	}
}

// Normalize folds the frames of one execution outcome into a Response. The
// struct logger frame is applied first so a mux frame in the primary slot
// can never shadow it.
func Normalize(outcome *Outcome) (*Response, error) {
	resp := &Response{}

	if outcome.StructLogger != nil {
		if err := resp.applyFrame(*outcome.StructLogger); err != nil {
			return nil, err
		}
	}

	if err := resp.applyFrame(outcome.Primary); err != nil {
		return nil, err
	}

	return resp, nil
}

func (r *Response) applyFrame(frame execution.TraceFrame) error {
	switch frame.Tracer {
	case execution.TracerCall:
		trace, err := parseCallTrace(frame.Data)
		if err != nil {
			return err
		}

		r.CallTracer = trace
	case execution.TracerPrestate:
		trace, err := parsePrestateTrace(frame.Data)
		if err != nil {
			return err
		}

		r.PrestateTracer = trace
	case execution.TracerFourByte:
		trace, err := parseFourByteTrace(frame.Data)
		if err != nil {
			return err
		}

		r.FourByteTracer = trace
	case execution.TracerStructLog:
		trace, err := parseStructLogTrace(frame.Data)
		if err != nil {
			return err
		}

		r.StructLogger = trace
	case execution.TracerMux:
		return r.applyMuxFrame(frame.Data)
	default:
		return r.applyUntypedFrame(frame.Data)
	}

	return nil
}

// applyMuxFrame splits a mux tracer result, which is keyed by tracer name,
// and routes each entry to its typed parser. Entries keyed by a tracer we do
// not recognize are skipped rather than failing the trace.
func (r *Response) applyMuxFrame(raw json.RawMessage) error {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("decoding mux frame: %w", err)
	}

	for name, data := range entries {
		kind, ok := tracerKindForName(name)
		if !ok {
			continue
		}

		if err := r.applyFrame(execution.TraceFrame{Tracer: kind, Data: data}); err != nil {
			return err
		}
	}

	return nil
}

func tracerKindForName(name string) (execution.TracerKind, bool) {
	switch name {
	case execution.TracerNameCall:
		return execution.TracerCall, true
	case execution.TracerNamePrestate:
		return execution.TracerPrestate, true
	case execution.TracerNameFourByte:
		return execution.TracerFourByte, true
	default:
		return "", false
	}
}

var (
	fourByteKeyPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{8}-\d+$`)
	addressPattern     = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

// applyUntypedFrame classifies a frame whose tracer is unknown, as returned
// by debug_traceCallMany. The shapes are disjoint enough to disambiguate
// structurally; the order matters and is fixed: four-byte, call, prestate,
// struct logger, then tracer-name-keyed maps.
func (r *Response) applyUntypedFrame(raw json.RawMessage) error {
	// A bundle of frames: classify each element.
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if err := r.applyUntypedFrame(item); err != nil {
				return err
			}
		}

		return nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return fmt.Errorf("decoding untyped frame: %w", err)
	}

	switch {
	case isFourByteShape(object):
		return r.applyFrame(execution.TraceFrame{Tracer: execution.TracerFourByte, Data: raw})
	case isCallShape(object):
		return r.applyFrame(execution.TraceFrame{Tracer: execution.TracerCall, Data: raw})
	case isPrestateShape(object):
		return r.applyFrame(execution.TraceFrame{Tracer: execution.TracerPrestate, Data: raw})
	case isStructLogShape(object):
		return r.applyFrame(execution.TraceFrame{Tracer: execution.TracerStructLog, Data: raw})
	case isTracerKeyedShape(object):
		return r.applyMuxFrame(raw)
	default:
		return fmt.Errorf("unrecognized trace frame shape")
	}
}

func isFourByteShape(object map[string]json.RawMessage) bool {
	if len(object) == 0 {
		return false
	}

	for key := range object {
		if !fourByteKeyPattern.MatchString(key) {
			return false
		}
	}

	return true
}

func isCallShape(object map[string]json.RawMessage) bool {
	for _, key := range []string{"type", "from", "gas", "gasUsed", "input"} {
		if _, ok := object[key]; !ok {
			return false
		}
	}

	return true
}

func isPrestateShape(object map[string]json.RawMessage) bool {
	if len(object) == 0 {
		return false
	}

	if _, pre := object["pre"]; pre {
		_, post := object["post"]

		return post
	}

	for key := range object {
		if !addressPattern.MatchString(key) {
			return false
		}
	}

	return true
}

func isStructLogShape(object map[string]json.RawMessage) bool {
	_, hasLogs := object["structLogs"]
	_, hasGas := object["gas"]

	return hasLogs && hasGas
}

func isTracerKeyedShape(object map[string]json.RawMessage) bool {
	if len(object) == 0 {
		return false
	}

	for key := range object {
		if _, ok := tracerKindForName(key); !ok {
			return false
		}
	}

	return true
}
