package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/sweepbench/internal/config"
	"github.com/audiolibrelab/sweepbench/internal/engine"
	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

// quickConfig returns a configuration small enough to run on the wall
// clock inside a test.
func quickConfig() *config.Config {
	cfg := config.Default()
	cfg.Sweep.Duration = 5 * time.Millisecond
	cfg.Sweep.PostSilence = time.Millisecond
	cfg.Sweep.FadeEpsilon = 0
	cfg.Sweep.Waveforms = []string{"sine"}
	return cfg
}

func TestService_TriggerRunsToCompletion(t *testing.T) {
	svc, err := New(quickConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, svc.Trigger(context.Background()))

	st := svc.Status()
	assert.Equal(t, sweep.StateCompleted, st.State)
	assert.NotEmpty(t, st.RunID)
	assert.Equal(t, "All sweeps completed!", st.LastMessage)
	assert.Empty(t, st.LastError)
	assert.Empty(t, svc.GetLastError())
}

func TestService_TriggerTracksFailure(t *testing.T) {
	svc, err := New(quickConfig(), nil, WithHandleFactory(func() engine.Handle {
		e := engine.NewSimEngine(nil)
		e.FailSweepAt = 2
		return e
	}))
	require.NoError(t, err)

	require.Error(t, svc.Trigger(context.Background()))

	st := svc.Status()
	assert.Equal(t, sweep.StateFailed, st.State)
	assert.Contains(t, svc.GetLastError(), "Sweep sequence failed")

	// The retained handle is past its injected fault, so a retry
	// succeeds and clears the tracked error
	require.NoError(t, svc.Trigger(context.Background()))
	assert.Empty(t, svc.GetLastError())
	assert.Equal(t, sweep.StateCompleted, svc.Status().State)
}

func TestService_TriggerAsyncAndStatus(t *testing.T) {
	svc, err := New(quickConfig(), nil)
	require.NoError(t, err)

	runID, err := svc.TriggerAsync()
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	require.Eventually(t, func() bool {
		return svc.Status().State == sweep.StateCompleted
	}, 5*time.Second, time.Millisecond)

	st := svc.Status()
	assert.Equal(t, runID, st.RunID)
	assert.Equal(t, 2, st.TotalSteps) // sine on both oscillator kinds
}

func TestService_TriggerAsyncRejectedWhileBusy(t *testing.T) {
	cfg := quickConfig()
	cfg.Sweep.Duration = 500 * time.Millisecond

	svc, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = svc.TriggerAsync()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s := svc.Status().State
		return s == sweep.StateRunning || s == sweep.StateInitializing
	}, 2*time.Second, time.Millisecond)

	_, err = svc.TriggerAsync()
	require.ErrorIs(t, err, sweep.ErrBusy)

	require.NoError(t, svc.Cancel())
	require.Eventually(t, func() bool {
		return svc.Status().State == sweep.StateFailed
	}, 2*time.Second, time.Millisecond)
}

func TestService_CancelWithoutRun(t *testing.T) {
	svc, err := New(quickConfig(), nil)
	require.NoError(t, err)

	assert.Error(t, svc.Cancel())
}

func TestService_Plan(t *testing.T) {
	svc, err := New(quickConfig(), nil)
	require.NoError(t, err)

	plan, err := svc.Plan()
	require.NoError(t, err)
	assert.Len(t, plan, 2)
	assert.Equal(t, engine.OscillatorWavetable, plan[0].Oscillator)
	assert.Equal(t, engine.OscillatorRegular, plan[1].Oscillator)
}

func TestService_RejectsInvalidConfig(t *testing.T) {
	cfg := quickConfig()
	cfg.Sweep.Mode = "manual"

	_, err := New(cfg, nil)
	require.ErrorIs(t, err, sweep.ErrInvalidMode)
}
