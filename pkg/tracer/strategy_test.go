package tracer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
)

func TestNewStrategy(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		expectedKind   Kind
		expectedTracer *string
		hasStructOpts  bool
	}{
		{
			name:           "empty config defaults to the call tracer",
			expectedKind:   KindTracersOnly,
			expectedTracer: strPtr(execution.TracerNameCall),
		},
		{
			name: "struct logger only",
			config: Config{Tracers: Tracers{
				StructLogger: &StructLoggerConfig{},
			}},
			expectedKind: KindStructLoggerOnly,
		},
		{
			name: "single call tracer",
			config: Config{Tracers: Tracers{
				CallTracer: &CallTracerConfig{WithLogs: true},
			}},
			expectedKind:   KindTracersOnly,
			expectedTracer: strPtr(execution.TracerNameCall),
		},
		{
			name: "single prestate tracer",
			config: Config{Tracers: Tracers{
				PrestateTracer: &PrestateTracerConfig{DiffMode: true},
			}},
			expectedKind:   KindTracersOnly,
			expectedTracer: strPtr(execution.TracerNamePrestate),
		},
		{
			name: "single four-byte tracer",
			config: Config{Tracers: Tracers{
				FourByteTracer: true,
			}},
			expectedKind:   KindTracersOnly,
			expectedTracer: strPtr(execution.TracerNameFourByte),
		},
		{
			name: "two tracers go through the mux",
			config: Config{Tracers: Tracers{
				FourByteTracer: true,
				CallTracer:     &CallTracerConfig{},
			}},
			expectedKind:   KindTracersOnly,
			expectedTracer: strPtr(execution.TracerNameMux),
		},
		{
			name: "tracers plus struct logger is hybrid",
			config: Config{Tracers: Tracers{
				CallTracer:   &CallTracerConfig{},
				StructLogger: &StructLoggerConfig{},
			}},
			expectedKind:   KindHybrid,
			expectedTracer: strPtr(execution.TracerNameCall),
			hasStructOpts:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := NewStrategy(tt.config)

			assert.Equal(t, tt.expectedKind, strategy.Kind())

			if tt.expectedTracer == nil {
				assert.Nil(t, strategy.primary.Tracer)
			} else {
				require.NotNil(t, strategy.primary.Tracer)
				assert.Equal(t, *tt.expectedTracer, *strategy.primary.Tracer)
			}

			if tt.hasStructOpts {
				require.NotNil(t, strategy.structLogger)
				assert.Nil(t, strategy.structLogger.Tracer)
			} else {
				assert.Nil(t, strategy.structLogger)
			}
		})
	}
}

func TestStructLoggerOptionsFlagPolarity(t *testing.T) {
	opts := structLoggerOptions(&StructLoggerConfig{
		DisableMemory:     true,
		DisableStack:      true,
		DisableReturnData: true,
	})

	assert.False(t, opts.EnableMemory)
	assert.True(t, opts.DisableStack)
	assert.False(t, opts.DisableStorage)
	assert.False(t, opts.EnableReturnData)

	defaults := structLoggerOptions(&StructLoggerConfig{})
	assert.True(t, defaults.EnableMemory)
	assert.True(t, defaults.EnableReturnData)
}

func TestMuxOptionsCoverActiveTracers(t *testing.T) {
	opts := tracersOptions(Tracers{
		FourByteTracer: true,
		CallTracer:     &CallTracerConfig{WithLogs: true},
		PrestateTracer: &PrestateTracerConfig{DiffMode: true},
	})

	require.NotNil(t, opts.Tracer)
	assert.Equal(t, execution.TracerNameMux, *opts.Tracer)

	var mux map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(opts.TracerConfig, &mux))
	assert.Len(t, mux, 3)
	assert.Contains(t, mux, execution.TracerNameFourByte)
	assert.Contains(t, mux, execution.TracerNameCall)
	assert.Contains(t, mux, execution.TracerNamePrestate)
}

func TestStrategyExecuteSingleCall(t *testing.T) {
	strategy := NewStrategy(Config{Tracers: Tracers{
		CallTracer: &CallTracerConfig{},
	}})

	calls := 0

	outcome, err := strategy.Execute(context.Background(), func(_ context.Context, opts execution.TraceOptions) (*execution.TraceFrame, error) {
		calls++

		return &execution.TraceFrame{Tracer: opts.Kind(), Data: json.RawMessage(`{}`)}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, execution.TracerCall, outcome.Primary.Tracer)
	assert.Nil(t, outcome.StructLogger)
}

func TestStrategyExecuteHybrid(t *testing.T) {
	strategy := NewStrategy(Config{Tracers: Tracers{
		CallTracer:   &CallTracerConfig{},
		StructLogger: &StructLoggerConfig{},
	}})

	var (
		mu    sync.Mutex
		kinds []execution.TracerKind
	)

	outcome, err := strategy.Execute(context.Background(), func(_ context.Context, opts execution.TraceOptions) (*execution.TraceFrame, error) {
		mu.Lock()
		kinds = append(kinds, opts.Kind())
		mu.Unlock()

		return &execution.TraceFrame{Tracer: opts.Kind(), Data: json.RawMessage(`{}`)}, nil
	})

	require.NoError(t, err)
	assert.Len(t, kinds, 2)
	assert.Contains(t, kinds, execution.TracerCall)
	assert.Contains(t, kinds, execution.TracerStructLog)

	assert.Equal(t, execution.TracerCall, outcome.Primary.Tracer)
	require.NotNil(t, outcome.StructLogger)
	assert.Equal(t, execution.TracerStructLog, outcome.StructLogger.Tracer)
}

func TestStrategyExecuteHybridFailureCouples(t *testing.T) {
	strategy := NewStrategy(Config{Tracers: Tracers{
		CallTracer:   &CallTracerConfig{},
		StructLogger: &StructLoggerConfig{},
	}})

	boom := errors.New("struct logger unavailable")

	_, err := strategy.Execute(context.Background(), func(_ context.Context, opts execution.TraceOptions) (*execution.TraceFrame, error) {
		if opts.Kind() == execution.TracerStructLog {
			return nil, boom
		}

		return &execution.TraceFrame{Tracer: opts.Kind(), Data: json.RawMessage(`{}`)}, nil
	})

	require.ErrorIs(t, err, boom)
}

func TestStrategyExecuteCallManyHybridPairs(t *testing.T) {
	strategy := NewStrategy(Config{Tracers: Tracers{
		CallTracer:   &CallTracerConfig{},
		StructLogger: &StructLoggerConfig{},
	}})

	outcomes, err := strategy.ExecuteCallMany(context.Background(), func(_ context.Context, opts execution.TraceOptions) ([]execution.TraceFrame, error) {
		return []execution.TraceFrame{
			{Tracer: opts.Kind(), Data: json.RawMessage(`{"first":true}`)},
			{Tracer: opts.Kind(), Data: json.RawMessage(`{"second":true}`)},
		}, nil
	})

	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	for _, outcome := range outcomes {
		assert.Equal(t, execution.TracerCall, outcome.Primary.Tracer)
		require.NotNil(t, outcome.StructLogger)
		assert.Equal(t, execution.TracerStructLog, outcome.StructLogger.Tracer)
	}
}

func TestStrategyExecuteCallManyLengthMismatch(t *testing.T) {
	strategy := NewStrategy(Config{Tracers: Tracers{
		CallTracer:   &CallTracerConfig{},
		StructLogger: &StructLoggerConfig{},
	}})

	_, err := strategy.ExecuteCallMany(context.Background(), func(_ context.Context, opts execution.TraceOptions) ([]execution.TraceFrame, error) {
		if opts.Kind() == execution.TracerStructLog {
			return []execution.TraceFrame{{Tracer: opts.Kind()}}, nil
		}

		return []execution.TraceFrame{{Tracer: opts.Kind()}, {Tracer: opts.Kind()}}, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func strPtr(s string) *string { return &s }
