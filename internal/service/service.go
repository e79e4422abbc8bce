package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/audiolibrelab/sweepbench/internal/config"
	"github.com/audiolibrelab/sweepbench/internal/engine"
	"github.com/audiolibrelab/sweepbench/internal/sweep"
)

// Service represents the core sweepbench service interface
type Service interface {
	// Trigger runs the full sweep sequence, blocking until it finishes
	Trigger(ctx context.Context) error

	// TriggerAsync starts a sequence in the background and returns its
	// run ID; a second trigger while one is in flight is rejected
	TriggerAsync() (string, error)

	// Cancel aborts the in-flight sequence, if any
	Cancel() error

	// Status and information
	Status() StatusInfo
	Plan() (sweep.Plan, error)
	GetConfig() *config.Config
	GetLastError() string
}

// StatusInfo is the status view exposed to the CLI and the web panel
type StatusInfo struct {
	State       sweep.State `json:"state"`
	RunID       string      `json:"run_id,omitempty"`
	StepIndex   int         `json:"step_index"`
	TotalSteps  int         `json:"total_steps"`
	CurrentStep string      `json:"current_step,omitempty"`
	LastMessage string      `json:"last_message,omitempty"`
	LastError   string      `json:"last_error,omitempty"`
}

// Option configures the service
type Option func(*SweepService)

// WithHandleFactory overrides how engine handles are created
func WithHandleFactory(f sweep.HandleFactory) Option {
	return func(s *SweepService) { s.factory = f }
}

// WithReporter adds a status sink alongside the service's own tracking
func WithReporter(r sweep.StatusReporter) Option {
	return func(s *SweepService) { s.extraReporter = r }
}

// WithClock replaces the sequencer clock, mainly for tests
func WithClock(c clock.Clock) Option {
	return func(s *SweepService) { s.clock = c }
}

// SweepService is the main service implementation
type SweepService struct {
	cfg     *config.Config
	seq     *sweep.Sequencer
	factory sweep.HandleFactory
	clock   clock.Clock

	extraReporter sweep.StatusReporter

	mu          sync.RWMutex
	runID       string
	cancelRun   context.CancelFunc
	lastMessage string

	lastError      string
	lastErrorMutex sync.RWMutex
}

// New creates a new sweepbench service instance. logWriter receives
// engine operation traces; pass nil to discard them.
func New(cfg *config.Config, logWriter io.Writer, opts ...Option) (*SweepService, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	sweepCfg, err := cfg.SweepConfig()
	if err != nil {
		return nil, err
	}

	s := &SweepService{
		cfg:   cfg,
		clock: clock.New(),
	}
	s.factory = func() engine.Handle {
		return engine.NewHandle(cfg.Engine.Backend, logWriter)
	}
	for _, opt := range opts {
		opt(s)
	}

	reporters := []sweep.StatusReporter{statusRecorder{s}, sweep.SlogReporter{}}
	if s.extraReporter != nil {
		reporters = append(reporters, s.extraReporter)
	}

	s.seq = sweep.New(sweepCfg, s.factory,
		sweep.WithClock(s.clock),
		sweep.WithReporter(sweep.MultiReporter(reporters...)),
	)
	return s, nil
}

// statusRecorder tracks the most recent status line for Status()
type statusRecorder struct{ s *SweepService }

func (r statusRecorder) Report(msg string) {
	r.s.mu.Lock()
	r.s.lastMessage = msg
	r.s.mu.Unlock()
}

// Trigger runs the full sequence synchronously
func (s *SweepService) Trigger(ctx context.Context) error {
	runID := uuid.NewString()
	slog.Debug("Service.Trigger called", "run_id", runID)

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.runID = runID
	s.cancelRun = cancel
	s.mu.Unlock()

	s.clearLastError()
	err := s.seq.Run(ctx)

	s.mu.Lock()
	s.cancelRun = nil
	s.mu.Unlock()
	cancel()

	if err != nil {
		slog.Error("Service.Trigger failed", "run_id", runID, "error", err)
		s.setLastError(fmt.Sprintf("Sweep sequence failed: %v", err))
		return err
	}
	slog.Debug("Service.Trigger completed successfully", "run_id", runID)
	return nil
}

// TriggerAsync starts a sequence in the background. The re-entrancy
// check is the sequencer's; a rejected trigger never spawns a goroutine.
func (s *SweepService) TriggerAsync() (string, error) {
	switch s.seq.State() {
	case sweep.StateInitializing, sweep.StateRunning:
		return "", sweep.ErrBusy
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.runID = runID
	s.cancelRun = cancel
	s.mu.Unlock()

	s.clearLastError()
	go func() {
		defer cancel()
		err := s.seq.Run(ctx)

		s.mu.Lock()
		s.cancelRun = nil
		s.mu.Unlock()

		if err != nil {
			slog.Error("background sweep failed", "run_id", runID, "error", err)
			s.setLastError(fmt.Sprintf("Sweep sequence failed: %v", err))
		}
	}()

	return runID, nil
}

// Cancel aborts the in-flight sequence
func (s *SweepService) Cancel() error {
	s.mu.Lock()
	cancel := s.cancelRun
	s.mu.Unlock()

	if cancel == nil {
		return fmt.Errorf("no sweep sequence in flight")
	}
	cancel()
	return nil
}

// Status returns the current sequence status
func (s *SweepService) Status() StatusInfo {
	snap := s.seq.Snapshot()

	s.mu.RLock()
	runID := s.runID
	lastMessage := s.lastMessage
	s.mu.RUnlock()

	return StatusInfo{
		State:       snap.State,
		RunID:       runID,
		StepIndex:   snap.StepIndex,
		TotalSteps:  snap.TotalSteps,
		CurrentStep: snap.CurrentStep,
		LastMessage: lastMessage,
		LastError:   s.GetLastError(),
	}
}

// Plan returns the plan the next trigger will execute
func (s *SweepService) Plan() (sweep.Plan, error) {
	sweepCfg, err := s.cfg.SweepConfig()
	if err != nil {
		return nil, err
	}
	return sweep.BuildPlan(sweepCfg)
}

// GetConfig returns the resolved configuration
func (s *SweepService) GetConfig() *config.Config {
	return s.cfg
}

// GetLastError returns the last tracked error message
func (s *SweepService) GetLastError() string {
	s.lastErrorMutex.RLock()
	defer s.lastErrorMutex.RUnlock()
	return s.lastError
}

func (s *SweepService) setLastError(msg string) {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = msg
}

func (s *SweepService) clearLastError() {
	s.lastErrorMutex.Lock()
	defer s.lastErrorMutex.Unlock()
	s.lastError = ""
}
