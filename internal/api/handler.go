// Package api exposes simulations, sweeps and stored runs over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/observability"
	"token-demand-lab/internal/simulation"
	"token-demand-lab/internal/storage"
	"token-demand-lab/internal/sweep"
	"token-demand-lab/internal/verification"
)

// DefaultsFunc returns the base parameters a request overlays.
type DefaultsFunc func(tag domain.ModelTag) (domain.SimulationParameters, error)

// Handler serves the HTTP API.
type Handler struct {
	runner       *simulation.Runner
	orchestrator *sweep.Orchestrator
	runStore     storage.RunStore
	seriesStore  storage.SeriesStore
	verifier     verification.Verifier
	defaults     DefaultsFunc
	logger       logrus.FieldLogger
}

// Options contains dependencies for creating a Handler.
type Options struct {
	Runner       *simulation.Runner  // required
	Orchestrator *sweep.Orchestrator // required
	RunStore     storage.RunStore    // required
	SeriesStore  storage.SeriesStore // required
	Defaults     DefaultsFunc        // defaults to domain.DefaultParameters
	Logger       logrus.FieldLogger
}

// NewHandler creates a Handler.
func NewHandler(opts Options) *Handler {
	defaults := opts.Defaults
	if defaults == nil {
		defaults = domain.DefaultParameters
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		runner:       opts.Runner,
		orchestrator: opts.Orchestrator,
		runStore:     opts.RunStore,
		seriesStore:  opts.SeriesStore,
		verifier:     verification.NewReplayVerifier(opts.RunStore, opts.SeriesStore),
		defaults:     defaults,
		logger:       logger,
	}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/models", h.ListModels).Methods(http.MethodGet)
	v1.HandleFunc("/simulate", h.Simulate).Methods(http.MethodPost)
	v1.HandleFunc("/sweep", h.Sweep).Methods(http.MethodPost)
	v1.HandleFunc("/runs/{id}", h.GetRun).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{id}/series", h.GetSeries).Methods(http.MethodGet)
	v1.HandleFunc("/runs/{id}/verify", h.VerifyRun).Methods(http.MethodGet)
	v1.HandleFunc("/batches/{id}/verify", h.VerifyBatch).Methods(http.MethodGet)

	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ModelInfo describes one simulator.
type ModelInfo struct {
	ID   domain.ModelTag `json:"id"`
	Name string          `json:"name"`
}

// ListModels returns every model tag with its display name.
func (h *Handler) ListModels(w http.ResponseWriter, _ *http.Request) {
	models := make([]ModelInfo, 0, len(domain.AllModels()))
	for _, tag := range domain.AllModels() {
		models = append(models, ModelInfo{ID: tag, Name: tag.DisplayName()})
	}
	writeJSON(w, http.StatusOK, models)
}

// SimulateResponse is the body returned by POST /v1/simulate.
type SimulateResponse struct {
	RunID         string                   `json:"run_id"`
	AlreadyStored bool                     `json:"already_stored"`
	Summary       domain.Summary           `json:"summary"`
	Result        *domain.SimulationResult `json:"result"`
}

// Simulate runs one model and persists the run.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	tag, params, err := resolve(h.defaults, req.Model, req.Parameters)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.runner.Execute(r.Context(), simulation.RunRequest{
		Label:  req.Label,
		Model:  tag,
		Params: params,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SimulateResponse{
		RunID:         out.Run.RunID,
		AlreadyStored: out.AlreadyStored,
		Summary:       out.Run.Summary,
		Result:        out.Result,
	})
}

// SweepRun is one variation outcome in a sweep response.
type SweepRun struct {
	Label       string          `json:"label"`
	Model       domain.ModelTag `json:"model"`
	RunID       string          `json:"run_id,omitempty"`
	TotalDemand float64         `json:"total_demand"`
	Error       string          `json:"error,omitempty"`
}

// SweepResponse is the body returned by POST /v1/sweep.
type SweepResponse struct {
	BatchID   string                 `json:"batch_id"`
	Plan      string                 `json:"plan"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Runs      []SweepRun             `json:"runs"`
	Aggregate *domain.BatchAggregate `json:"aggregate,omitempty"`
}

// Sweep runs a batch of variations.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	plan, err := req.plan(h.defaults)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.orchestrator.Run(r.Context(), plan)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := SweepResponse{
		BatchID:   result.BatchID,
		Plan:      result.PlanName,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Runs:      make([]SweepRun, len(result.Results)),
		Aggregate: result.Aggregate,
	}
	for i, vr := range result.Results {
		run := SweepRun{Label: vr.Variation.Label, Model: vr.Variation.Model}
		if vr.Err != nil {
			run.Error = vr.Err.Error()
		} else {
			run.RunID = vr.Output.Run.RunID
			run.TotalDemand = vr.Output.Run.Summary.TotalDemand
		}
		resp.Runs[i] = run
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetRun returns a stored run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runStore.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetSeries returns the per-period series of a stored run.
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := h.runStore.GetByID(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	points, err := h.seriesStore.GetByRunID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if points == nil {
		points = []*domain.SeriesPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

// VerifyRun replays a stored run and reports divergences.
func (h *Handler) VerifyRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.verifier.VerifyRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// VerifyBatch replays every run of a sweep batch.
func (h *Handler) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	report, err := h.verifier.VerifyBatch(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// fail maps err to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
	}
	writeError(w, status, err.Error())
}

// statusFor maps domain and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownModel):
		return http.StatusBadRequest
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDomain),
		errors.Is(err, domain.ErrMissingParams),
		errors.Is(err, domain.ErrDivisionDegenerate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, verification.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
