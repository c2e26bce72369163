package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-demand-lab/internal/domain"
	"token-demand-lab/internal/simulation"
	"token-demand-lab/internal/storage/memory"
	"token-demand-lab/internal/sweep"
	"token-demand-lab/internal/verification"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	runStore := memory.NewRunStore()
	seriesStore := memory.NewSeriesStore()
	runner := simulation.NewRunner(simulation.RunnerOptions{
		RunStore:    runStore,
		SeriesStore: seriesStore,
		Logger:      logger,
	})
	h := NewHandler(Options{
		Runner: runner,
		Orchestrator: sweep.New(sweep.Options{
			Runner:  runner,
			Logger:  logger,
			BatchID: func() string { return "batch-api" },
		}),
		RunStore:    runStore,
		SeriesStore: seriesStore,
		Logger:      logger,
	})

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}

func TestListModels(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/v1/models")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var models []ModelInfo
	decode(t, resp, &models)
	require.Len(t, models, len(domain.AllModels()))
	assert.Equal(t, domain.ModelBuybackBurn, models[0].ID)
	assert.Equal(t, "Buyback + Burn Model", models[0].Name)
}

func TestSimulate_PersistsAndServesRun(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/v1/simulate", `{"model":"Exponential Decay","parameters":{"common":{"horizon":24}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sim SimulateResponse
	decode(t, resp, &sim)
	require.NotEmpty(t, sim.RunID)
	assert.False(t, sim.AlreadyStored)
	assert.Equal(t, 24, sim.Summary.Horizon)
	assert.Equal(t, domain.ModelExponentialDecay, sim.Summary.Model)
	require.NotNil(t, sim.Result)
	assert.Len(t, sim.Result.Records, 24)

	// Overlay keeps unspecified defaults
	runResp := get(t, srv, "/v1/runs/"+sim.RunID)
	require.Equal(t, http.StatusOK, runResp.StatusCode)
	var run domain.RunRecord
	decode(t, runResp, &run)
	assert.Equal(t, 24, run.Params.Common.Horizon)
	assert.Equal(t, float64(domain.DefaultInitialSupply), run.Params.Common.InitialSupply)
	require.NotNil(t, run.Params.Exponential)
	assert.Equal(t, 0.5, run.Params.Exponential.DecayRate)

	seriesResp := get(t, srv, "/v1/runs/"+sim.RunID+"/series")
	require.Equal(t, http.StatusOK, seriesResp.StatusCode)
	var points []domain.SeriesPoint
	decode(t, seriesResp, &points)
	require.Len(t, points, 24)
	assert.Equal(t, 1, points[0].Period)

	// Identical request is deduplicated
	again := post(t, srv, "/v1/simulate", `{"model":"exponential_decay","parameters":{"common":{"horizon":24}}}`)
	require.Equal(t, http.StatusOK, again.StatusCode)
	var dup SimulateResponse
	decode(t, again, &dup)
	assert.Equal(t, sim.RunID, dup.RunID)
	assert.True(t, dup.AlreadyStored)
}

func TestSimulate_ScheduleReplacesDefault(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/v1/simulate", `{"model":"schedule_burn","parameters":{"common":{"horizon":6},"schedule":{"burn_schedule":{"3":0.5}}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sim SimulateResponse
	decode(t, resp, &sim)

	runResp := get(t, srv, "/v1/runs/"+sim.RunID)
	var run domain.RunRecord
	decode(t, runResp, &run)
	require.NotNil(t, run.Params.Schedule)
	assert.Equal(t, map[int]float64{3: 0.5}, run.Params.Schedule.BurnSchedule)
}

func TestSimulate_ErrorStatus(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"invalid json", `{"model":`, http.StatusBadRequest},
		{"unknown model", `{"model":"spiral_burn"}`, http.StatusBadRequest},
		{"malformed parameters", `{"model":"exponential_decay","parameters":[1,2]}`, http.StatusBadRequest},
		{"domain violation", `{"model":"exponential_decay","parameters":{"common":{"horizon":0}}}`, http.StatusUnprocessableEntity},
		{"missing block", `{"model":"logarithmic_burn","parameters":{"logarithmic":null}}`, http.StatusUnprocessableEntity},
		{"degenerate division", `{"model":"fee_holiday","parameters":{"fee_holiday":{"conversion_factor":0}}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/v1/simulate", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body errorResponse
			decode(t, resp, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/runs/missing").StatusCode)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/runs/missing/series").StatusCode)
}

func TestSweep_AllModels(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/v1/sweep", `{"name":"everything"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result SweepResponse
	decode(t, resp, &result)
	assert.Equal(t, "batch-api", result.BatchID)
	assert.Equal(t, "everything", result.Plan)
	assert.Equal(t, len(domain.AllModels()), result.Succeeded)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Runs, len(domain.AllModels()))
	for _, run := range result.Runs {
		assert.NotEmpty(t, run.RunID)
		assert.Empty(t, run.Error)
	}
	require.NotNil(t, result.Aggregate)
	assert.Equal(t, len(domain.AllModels()), result.Aggregate.Runs)
}

func TestVerify_RunAndBatch(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/v1/simulate", `{"model":"fee_holiday","parameters":{"common":{"horizon":30}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sim SimulateResponse
	decode(t, resp, &sim)

	runResp := get(t, srv, "/v1/runs/"+sim.RunID+"/verify")
	require.Equal(t, http.StatusOK, runResp.StatusCode)
	var result verification.VerificationResult
	decode(t, runResp, &result)
	assert.True(t, result.Match, "divergences: %v", result.Divergences)
	assert.True(t, result.SeriesChecked)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/runs/missing/verify").StatusCode)

	require.Equal(t, http.StatusOK, post(t, srv, "/v1/sweep", `{"name":"everything"}`).StatusCode)
	batchResp := get(t, srv, "/v1/batches/batch-api/verify")
	require.Equal(t, http.StatusOK, batchResp.StatusCode)
	var report verification.VerificationReport
	decode(t, batchResp, &report)
	assert.Equal(t, len(domain.AllModels()), report.TotalRuns)
	assert.Equal(t, report.TotalRuns, report.MatchedRuns)
	assert.Zero(t, report.DivergentRuns)
}

func TestSweep_Scenarios(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/v1/sweep", `{"model":"buyback_burn","scenarios":["realistic","degraded"],"parameters":{"common":{"horizon":12}}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result SweepResponse
	decode(t, resp, &result)
	require.Len(t, result.Runs, 2)
	assert.Equal(t, domain.ScenarioRealistic, result.Runs[0].Label)
	assert.Equal(t, domain.ScenarioDegraded, result.Runs[1].Label)
	assert.NotEqual(t, result.Runs[0].RunID, result.Runs[1].RunID)
	assert.Zero(t, result.Failed)
}

func TestSweep_VariationsCollectErrors(t *testing.T) {
	srv := newTestServer(t)

	body := `{"name":"mixed","variations":[
		{"label":"ok","model":"logarithmic_burn"},
		{"label":"bad","model":"logarithmic_burn","parameters":{"common":{"discount_factor":2}}}
	]}`
	resp := post(t, srv, "/v1/sweep", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result SweepResponse
	decode(t, resp, &result)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, result.Runs[0].Error)
	assert.Contains(t, result.Runs[1].Error, "discount_factor")
}

func TestSweep_RequestErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown scenario", `{"model":"buyback_burn","scenarios":["apocalyptic"]}`, http.StatusUnprocessableEntity},
		{"scenarios without model", `{"scenarios":["realistic"]}`, http.StatusBadRequest},
		{"unknown variation model", `{"variations":[{"label":"x","model":"nope"}]}`, http.StatusBadRequest},
		{"duplicate labels", `{"variations":[{"label":"x","model":"exponential_decay"},{"label":"x","model":"logarithmic_burn"}]}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, post(t, srv, "/v1/sweep", tt.body).StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	get(t, srv, "/v1/models")
	resp := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `token_demand_lab_http_requests_total{code="200",route="/v1/models"}`)
}
