package common

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RPCCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_simulator_rpc_call_duration_seconds",
		Help:    "Duration of RPC calls to the execution node",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"node", "method", "status"})

	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_simulator_rpc_calls_total",
		Help: "Total RPC calls made to the execution node",
	}, []string{"node", "method", "status"})

	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_simulator_simulations_total",
		Help: "Total simulations executed",
	}, []string{"mode", "status"})

	SimulationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_simulator_simulation_duration_seconds",
		Help:    "End-to-end duration of a simulation request",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"mode"})

	SimulationCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_simulator_simulation_calls",
		Help:    "Number of calls per simulation request",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	}, []string{"mode"})

	TracesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_simulator_traces_total",
		Help: "Total trace operations executed",
	}, []string{"operation", "strategy", "status"})

	TraceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_simulator_trace_duration_seconds",
		Help:    "End-to-end duration of a trace request",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"operation", "strategy"})

	AccessListsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_simulator_access_lists_total",
		Help: "Total access list generations",
	}, []string{"status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "execution_simulator_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"route", "method", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_simulator_http_requests_total",
		Help: "Total HTTP requests served",
	}, []string{"route", "method", "status"})

	NodeHealthy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "execution_simulator_node_healthy",
		Help: "Whether the execution node is reachable (1) or not (0)",
	}, []string{"node"})

	NodeChainID = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "execution_simulator_node_chain_id",
		Help: "Chain ID reported by the execution node",
	}, []string{"node"})

	MemoryUsage = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "execution_simulator_memory_usage_bytes",
		Help: "Process memory usage by type",
	}, []string{"type"})

	GoroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "execution_simulator_goroutines",
		Help: "Number of running goroutines",
	})

	MemoryPressureEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_simulator_memory_pressure_events_total",
		Help: "Memory threshold crossings by severity",
	}, []string{"source", "severity"})
)
