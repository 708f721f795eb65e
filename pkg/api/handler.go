package api

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/execution-simulator/pkg/common"
	"github.com/ethpandaops/execution-simulator/pkg/errs"
	"github.com/ethpandaops/execution-simulator/pkg/ethereum/execution"
	"github.com/ethpandaops/execution-simulator/pkg/simulate"
	"github.com/ethpandaops/execution-simulator/pkg/tracer"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// SimulationService is the simulation surface the handler depends on.
type SimulationService interface {
	SimulateOne(ctx context.Context, req simulate.SimulationRequest) (*simulate.Result, error)
	SimulateBatch(ctx context.Context, reqs []simulate.SimulationRequest) ([]simulate.Result, error)
	CreateAccessList(ctx context.Context, req simulate.AccessListRequest) (*execution.AccessListResult, error)
}

// TraceService is the tracing surface the handler depends on.
type TraceService interface {
	TraceTransaction(ctx context.Context, req tracer.TraceTransactionRequest) (*tracer.Response, error)
	TraceCall(ctx context.Context, req tracer.TraceCallRequest) (*tracer.Response, error)
	TraceCallMany(ctx context.Context, req tracer.TraceCallManyRequest) ([]*tracer.Response, error)
}

type Handler struct {
	log       logrus.FieldLogger
	simulator SimulationService
	tracer    TraceService
	started   time.Time
}

func NewHandler(log logrus.FieldLogger, simulator SimulationService, traceService TraceService) *Handler {
	return &Handler{
		log:       log,
		simulator: simulator,
		tracer:    traceService,
		started:   time.Now(),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/simulate", h.instrument("/api/v1/simulate", h.simulateOne))
	mux.HandleFunc("POST /api/v1/simulate/batch", h.instrument("/api/v1/simulate/batch", h.simulateBatch))
	mux.HandleFunc("POST /api/v1/simulate/access-list", h.instrument("/api/v1/simulate/access-list", h.accessList))
	mux.HandleFunc("POST /api/v1/trace/transaction", h.instrument("/api/v1/trace/transaction", h.traceTransaction))
	mux.HandleFunc("POST /api/v1/trace/call", h.instrument("/api/v1/trace/call", h.traceCall))
	mux.HandleFunc("POST /api/v1/trace/call-many", h.instrument("/api/v1/trace/call-many", h.traceCallMany))
	mux.HandleFunc("GET /api/v1/health", h.instrument("/api/v1/health", h.health))
}

// Envelope is the uniform response wrapper. Exactly one of Data and Error is
// set.
type Envelope struct {
	Success         bool       `json:"success"`
	Data            any        `json:"data,omitempty"`
	Error           *ErrorBody `json:"error,omitempty"`
	RequestID       string     `json:"requestId"`
	ExecutionTimeMs int64      `json:"executionTimeMs"`
}

type ErrorBody struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	RetryAfter *int           `json:"retryAfter,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	StartedAt     string `json:"startedAt"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

// request carries the per-request envelope fields through a handler.
type request struct {
	id    string
	start time.Time
}

func (h *Handler) simulateOne(w http.ResponseWriter, r *http.Request, req request) {
	var body simulate.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, req, errs.BadRequest("invalid request body"))

		return
	}

	if body.CallCount() == 0 {
		h.writeError(w, req, errs.BadRequest("at least one call is required"))

		return
	}

	result, err := h.simulator.SimulateOne(r.Context(), body)
	if err != nil {
		h.writeError(w, req, err)

		return
	}

	// A failed simulation is still a successful API call.
	h.writeData(w, req, http.StatusOK, result)
}

func (h *Handler) simulateBatch(w http.ResponseWriter, r *http.Request, req request) {
	var body simulate.BatchSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, req, errs.BadRequest("invalid request body"))

		return
	}

	if len(body.Simulations) == 0 {
		h.writeError(w, req, errs.BadRequest("at least one simulation is required"))

		return
	}

	results, err := h.simulator.SimulateBatch(r.Context(), body.Requests())
	if err != nil {
		h.writeError(w, req, err)

		return
	}

	h.writeData(w, req, http.StatusOK, results)
}

func (h *Handler) accessList(w http.ResponseWriter, r *http.Request, req request) {
	var body simulate.AccessListRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, req, errs.BadRequest("invalid request body"))

		return
	}

	result, err := h.simulator.CreateAccessList(r.Context(), body)
	if err != nil {
		h.writeError(w, req, err)

		return
	}

	h.writeData(w, req, http.StatusOK, result)
}

func (h *Handler) traceTransaction(w http.ResponseWriter, r *http.Request, req request) {
	var body tracer.TraceTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, req, errs.BadRequest("invalid request body"))

		return
	}

	if !txHashPattern.MatchString(body.TransactionHash) {
		h.writeError(w, req, errs.BadRequest("transactionHash must be a 0x-prefixed 32-byte hash"))

		return
	}

	resp, err := h.tracer.TraceTransaction(r.Context(), body)
	if err != nil {
		h.writeError(w, req, err)

		return
	}

	h.writeData(w, req, http.StatusOK, resp)
}

func (h *Handler) traceCall(w http.ResponseWriter, r *http.Request, req request) {
	var body tracer.TraceCallRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, req, errs.BadRequest("invalid request body"))

		return
	}

	resp, err := h.tracer.TraceCall(r.Context(), body)
	if err != nil {
		h.writeError(w, req, err)

		return
	}

	h.writeData(w, req, http.StatusOK, resp)
}

func (h *Handler) traceCallMany(w http.ResponseWriter, r *http.Request, req request) {
	var body tracer.TraceCallManyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, req, errs.BadRequest("invalid request body"))

		return
	}

	responses, err := h.tracer.TraceCallMany(r.Context(), body)
	if err != nil {
		h.writeError(w, req, err)

		return
	}

	h.writeData(w, req, http.StatusOK, responses)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request, req request) {
	h.writeData(w, req, http.StatusOK, HealthResponse{
		Status:        "healthy",
		StartedAt:     h.started.UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// instrument assigns the request id, times the handler and records the HTTP
// metrics under the route pattern rather than the raw path.
func (h *Handler) instrument(route string, fn func(http.ResponseWriter, *http.Request, request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{
			id:    uuid.New().String(),
			start: time.Now(),
		}

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		fn(recorder, r, req)

		status := strconv.Itoa(recorder.status)
		common.HTTPRequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		common.HTTPRequestDuration.WithLabelValues(route, r.Method, status).
			Observe(time.Since(req.start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) writeData(w http.ResponseWriter, req request, status int, data any) {
	h.writeJSON(w, status, Envelope{
		Success:         true,
		Data:            data,
		RequestID:       req.id,
		ExecutionTimeMs: time.Since(req.start).Milliseconds(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, req request, err error) {
	apiErr := errs.FromError(err)

	if apiErr.Status >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("request_id", req.id).Error("Request failed")
	} else {
		h.log.WithError(err).WithField("request_id", req.id).Debug("Request rejected")
	}

	if apiErr.RetryAfter != nil {
		w.Header().Set("Retry-After", strconv.Itoa(*apiErr.RetryAfter))
	}

	h.writeJSON(w, apiErr.Status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			Suggestion: apiErr.Suggestion,
			RetryAfter: apiErr.RetryAfter,
			Details:    apiErr.Details,
		},
		RequestID:       req.id,
		ExecutionTimeMs: time.Since(req.start).Milliseconds(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.log.WithError(err).Error("failed to encode response")
	}
}
