package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/sweepbench/internal/config"
	"github.com/audiolibrelab/sweepbench/internal/service"
	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

// stubService is a canned service.Service implementation
type stubService struct {
	busy      bool
	cancelErr error
	status    service.StatusInfo
	plan      sweep.Plan
}

func (s *stubService) Trigger(ctx context.Context) error { return nil }

func (s *stubService) TriggerAsync() (string, error) {
	if s.busy {
		return "", sweep.ErrBusy
	}
	return "run-123", nil
}

func (s *stubService) Cancel() error              { return s.cancelErr }
func (s *stubService) Status() service.StatusInfo { return s.status }
func (s *stubService) Plan() (sweep.Plan, error)  { return s.plan, nil }
func (s *stubService) GetConfig() *config.Config  { return config.Default() }
func (s *stubService) GetLastError() string       { return s.status.LastError }

func newTestServer(stub *stubService) *httptest.Server {
	return httptest.NewServer(New(stub, "0").Router())
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(&stubService{})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
}

func TestServer_Index(t *testing.T) {
	ts := newTestServer(&stubService{})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
}

func TestServer_TriggerAccepted(t *testing.T) {
	ts := newTestServer(&stubService{})
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/trigger", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusAccepted, res.StatusCode)

	var body TriggerResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "run-123", body.RunID)
}

func TestServer_TriggerConflictWhileBusy(t *testing.T) {
	ts := newTestServer(&stubService{busy: true})
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/trigger", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestServer_Status(t *testing.T) {
	stub := &stubService{
		status: service.StatusInfo{
			State:       sweep.StateRunning,
			RunID:       "run-123",
			StepIndex:   2,
			TotalSteps:  8,
			CurrentStep: "wavetable/square 20 Hz -> 10000 Hz over 5s",
			LastMessage: "Sweeping wavetable with square...",
		},
	}
	ts := newTestServer(stub)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer res.Body.Close()

	var body service.StatusInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, sweep.StateRunning, body.State)
	assert.Equal(t, 2, body.StepIndex)
	assert.Equal(t, 8, body.TotalSteps)
	assert.Contains(t, body.LastMessage, "Sweeping")
}

func TestServer_CancelConflictWithoutRun(t *testing.T) {
	ts := newTestServer(&stubService{cancelErr: fmt.Errorf("no sweep sequence in flight")})
	defer ts.Close()

	res, err := http.Post(ts.URL+"/api/cancel", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestServer_Plan(t *testing.T) {
	cfg := config.Default()
	sweepCfg, err := cfg.SweepConfig()
	require.NoError(t, err)
	plan, err := sweep.BuildPlan(sweepCfg)
	require.NoError(t, err)

	ts := newTestServer(&stubService{plan: plan})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/api/plan")
	require.NoError(t, err)
	defer res.Body.Close()

	var body PlanResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Len(t, body.Steps, 8)
	assert.True(t, strings.HasPrefix(body.Steps[0], "wavetable/sine"))

	wantTotal := 8*5*time.Second + 8*500*time.Millisecond
	assert.Equal(t, wantTotal.String(), body.EstimatedDuration)
}
