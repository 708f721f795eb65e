package tracer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

// Kind names the execution shape of a strategy.
type Kind string

const (
	KindStructLoggerOnly Kind = "structLoggerOnly"
	KindTracersOnly      Kind = "tracersOnly"
	KindHybrid           Kind = "hybrid"
)

// Strategy decides how many node calls a trace request needs and with which
// options. The struct logger cannot be multiplexed, so combining it with any
// other tracer forces two concurrent calls.
type Strategy struct {
	kind         Kind
	primary      execution.TraceOptions
	structLogger *execution.TraceOptions
}

// NewStrategy derives the strategy from the requested tracer set. It is a
// pure function of (active multiplexable tracers, struct logger present):
//
//	(0, yes)  struct logger only, one call
//	(>0, no)  tracers only, one call (mux when two or more)
//	(>0, yes) hybrid, two concurrent calls
//	(0, no)   defaults to the call tracer, one call
func NewStrategy(cfg Config) Strategy {
	tracers := cfg.Tracers
	activeCount := tracers.ActiveCount()
	hasStructLogger := tracers.StructLogger != nil

	switch {
	case activeCount == 0 && hasStructLogger:
		return Strategy{
			kind:    KindStructLoggerOnly,
			primary: structLoggerOptions(tracers.StructLogger),
		}
	case activeCount > 0 && !hasStructLogger:
		return Strategy{
			kind:    KindTracersOnly,
			primary: tracersOptions(tracers),
		}
	case activeCount > 0 && hasStructLogger:
		structOpts := structLoggerOptions(tracers.StructLogger)

		return Strategy{
			kind:         KindHybrid,
			primary:      tracersOptions(tracers),
			structLogger: &structOpts,
		}
	default:
		return Strategy{
			kind:    KindTracersOnly,
			primary: defaultCallTracerOptions(),
		}
	}
}

func (s Strategy) Kind() Kind {
	return s.kind
}

// Outcome is the result of executing a strategy for one target. The struct
// logger frame is only present for hybrid execution.
type Outcome struct {
	Primary      execution.TraceFrame
	StructLogger *execution.TraceFrame
}

// TraceFunc performs one node call with the given options.
type TraceFunc func(ctx context.Context, opts execution.TraceOptions) (*execution.TraceFrame, error)

// TraceManyFunc performs one node call returning a frame per bundle.
type TraceManyFunc func(ctx context.Context, opts execution.TraceOptions) ([]execution.TraceFrame, error)

// Execute runs the strategy against a single target. Hybrid execution
// issues both calls concurrently and fails if either fails.
func (s Strategy) Execute(ctx context.Context, fn TraceFunc) (*Outcome, error) {
	if s.kind != KindHybrid {
		frame, err := fn(ctx, s.primary)
		if err != nil {
			return nil, err
		}

		return &Outcome{Primary: *frame}, nil
	}

	var (
		primary     *execution.TraceFrame
		structFrame *execution.TraceFrame
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		frame, err := fn(gctx, s.primary)
		if err != nil {
			return err
		}

		primary = frame

		return nil
	})

	g.Go(func() error {
		frame, err := fn(gctx, *s.structLogger)
		if err != nil {
			return err
		}

		structFrame = frame

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Outcome{Primary: *primary, StructLogger: structFrame}, nil
}

// ExecuteCallMany runs the strategy against a list of bundles, producing one
// outcome per returned frame. Hybrid execution joins the two frame lists
// pairwise.
func (s Strategy) ExecuteCallMany(ctx context.Context, fn TraceManyFunc) ([]Outcome, error) {
	if s.kind != KindHybrid {
		frames, err := fn(ctx, s.primary)
		if err != nil {
			return nil, err
		}

		outcomes := make([]Outcome, len(frames))
		for i, frame := range frames {
			outcomes[i] = Outcome{Primary: frame}
		}

		return outcomes, nil
	}

	var primary, structFrames []execution.TraceFrame

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		frames, err := fn(gctx, s.primary)
		if err != nil {
			return err
		}

		primary = frames

		return nil
	})

	g.Go(func() error {
		frames, err := fn(gctx, *s.structLogger)
		if err != nil {
			return err
		}

		structFrames = frames

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(primary) != len(structFrames) {
		return nil, fmt.Errorf("trace count mismatch between tracer calls: %d != %d",
			len(primary), len(structFrames))
	}

	outcomes := make([]Outcome, len(primary))
	for i := range primary {
		outcomes[i] = Outcome{Primary: primary[i], StructLogger: &structFrames[i]}
	}

	return outcomes, nil
}
