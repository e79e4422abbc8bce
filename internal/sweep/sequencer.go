package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/audiolibrelab/sweepbench/internal/engine"
)

// State represents the current state of the sequencer
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// defaultFrameInterval is the host-driven push cadence, roughly one
// animation frame.
const defaultFrameInterval = 16 * time.Millisecond

// Snapshot is a point-in-time view of sequencer progress
type Snapshot struct {
	State       State  `json:"state"`
	StepIndex   int    `json:"step_index"`
	TotalSteps  int    `json:"total_steps"`
	CurrentStep string `json:"current_step,omitempty"`
	LastError   string `json:"last_error,omitempty"`
}

// HandleFactory creates a new, not-yet-started engine handle
type HandleFactory func() engine.Handle

// Option configures a Sequencer
type Option func(*Sequencer)

// WithClock replaces the wall clock, mainly for tests
func WithClock(c clock.Clock) Option {
	return func(s *Sequencer) { s.clock = c }
}

// WithReporter sets the status sink
func WithReporter(r StatusReporter) Option {
	return func(s *Sequencer) { s.reporter = r }
}

// Sequencer executes a sweep plan strictly sequentially against an
// engine handle. The handle is acquired lazily on the first run and
// reused across runs; only one run may be in flight at a time.
//
// A run aborts on the first engine error. The failing step's oscillator
// is still silenced, but the remaining plan does not execute. After an
// initialization failure the handle is discarded so the next run starts
// a fresh one; after a mid-plan operation failure the handle is kept.
type Sequencer struct {
	cfg        Config
	newHandle  HandleFactory
	clock      clock.Clock
	reporter   StatusReporter
	frameEvery time.Duration

	mu          sync.Mutex
	state       State
	handle      engine.Handle
	stepIndex   int
	totalSteps  int
	currentStep string
	lastErr     error
}

// New creates a sequencer for the given configuration. The factory is
// invoked at most once per engine session.
func New(cfg Config, factory HandleFactory, opts ...Option) *Sequencer {
	s := &Sequencer{
		cfg:        cfg,
		newHandle:  factory,
		clock:      clock.New(),
		reporter:   SlogReporter{},
		frameEvery: cfg.FrameInterval,
		state:      StateIdle,
	}
	if s.frameEvery <= 0 {
		s.frameEvery = defaultFrameInterval
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	return s
}

// Snapshot returns the current progress view
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:       s.state,
		StepIndex:   s.stepIndex,
		TotalSteps:  s.totalSteps,
		CurrentStep: s.currentStep,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	return snap
}

// State returns the current sequencer state
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run executes the full plan. It blocks until the plan completes, an
// engine operation fails, or ctx is cancelled. A second Run while one
// is in flight returns ErrBusy without touching the engine.
func (s *Sequencer) Run(ctx context.Context) error {
	plan, err := BuildPlan(s.cfg)
	if err != nil {
		return err
	}

	if err := s.begin(len(plan)); err != nil {
		return err
	}

	err = s.execute(ctx, plan)
	s.finish(err)
	return err
}

// begin is the re-entrancy guard: only one run at a time, tracked by an
// explicit state rather than handle presence.
func (s *Sequencer) begin(totalSteps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateInitializing, StateRunning:
		return ErrBusy
	}
	s.state = StateInitializing
	s.stepIndex = 0
	s.totalSteps = totalSteps
	s.currentStep = ""
	s.lastErr = nil
	return nil
}

func (s *Sequencer) finish(err error) {
	s.mu.Lock()
	if err == nil {
		s.state = StateCompleted
	} else {
		s.state = StateFailed
		s.lastErr = err
		var initErr *engine.InitError
		if errors.As(err, &initErr) {
			// A handle that failed to start is unusable; drop it so the
			// next run re-initializes
			s.handle = nil
		}
	}
	s.currentStep = ""
	s.mu.Unlock()

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.reporter.Report("Sweep cancelled.")
	default:
		s.reporter.Report(fmt.Sprintf("Error during sweep: %v", err))
	}
}

func (s *Sequencer) execute(ctx context.Context, plan Plan) error {
	handle, err := s.acquireHandle(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.state = StateRunning
	s.mu.Unlock()

	for i, step := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		s.stepIndex = i
		s.currentStep = step.String()
		s.mu.Unlock()

		if err := s.runStep(ctx, handle, step); err != nil {
			return err
		}

		if i == len(plan)-1 || plan[i+1].Waveform != step.Waveform {
			s.reporter.Report(s.waveformDoneMessage(step.Waveform))
		}
	}

	s.reporter.Report("All sweeps completed!")
	return nil
}

// acquireHandle returns the existing engine handle or starts a new one.
// Start happens at most once per handle; a handle from a previous run
// is reused, not recreated.
func (s *Sequencer) acquireHandle(ctx context.Context) (engine.Handle, error) {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()
	if handle != nil {
		return handle, nil
	}

	s.reporter.Report("Initializing audio engine...")
	handle = s.newHandle()
	if err := handle.Start(ctx); err != nil {
		var initErr *engine.InitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		return nil, &engine.InitError{Err: err}
	}

	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()
	return handle, nil
}

// runStep performs the per-step protocol: status, sweep, timed wait,
// silence, settle. The oscillator is silenced on every exit path,
// including error and cancellation.
func (s *Sequencer) runStep(ctx context.Context, handle engine.Handle, step Step) error {
	s.reporter.Report(fmt.Sprintf("Sweeping %s with %s...", step.Oscillator, step.Waveform))

	silenced := false
	silence := func() {
		if silenced {
			return
		}
		silenced = true
		switch step.Oscillator {
		case engine.OscillatorRegular:
			handle.SilenceRegular()
		default:
			handle.SilenceWavetable()
		}
	}
	defer silence()

	switch step.Params.Mode {
	case ModeHostDriven:
		if err := s.startSweep(handle, step, 0); err != nil {
			return err
		}
		if err := s.driveFrequency(ctx, handle, step); err != nil {
			return err
		}
	default:
		if err := s.startSweep(handle, step, step.Params.Duration.Seconds()); err != nil {
			return err
		}
		// Leave headroom for the engine's fade-out before forcing silence
		wait := step.Params.Duration - s.cfg.FadeEpsilon
		if wait < 0 {
			wait = 0
		}
		if err := s.wait(ctx, wait); err != nil {
			return err
		}
	}

	silence()
	return s.wait(ctx, step.PostSilence)
}

func (s *Sequencer) startSweep(handle engine.Handle, step Step, durationSecs float64) error {
	p := step.Params
	if step.Oscillator == engine.OscillatorRegular {
		return handle.SweepRegular(step.Waveform, p.StartFreq, p.EndFreq, durationSecs)
	}
	return handle.SweepWavetable(step.Waveform, p.StartFreq, p.EndFreq, durationSecs)
}

// driveFrequency pushes exponentially interpolated frequency samples at
// frame cadence until the sweep duration has elapsed:
//
//	f(t) = start * (end/start)^(t/duration)
func (s *Sequencer) driveFrequency(ctx context.Context, handle engine.Handle, step Step) error {
	p := step.Params
	started := s.clock.Now()
	ratio := p.EndFreq / p.StartFreq

	ticker := s.clock.Ticker(s.frameEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		elapsed := s.clock.Now().Sub(started)
		if elapsed >= p.Duration {
			return nil
		}

		freq := p.StartFreq * math.Pow(ratio, elapsed.Seconds()/p.Duration.Seconds())
		if step.Oscillator == engine.OscillatorRegular {
			handle.SetRegularFrequency(freq)
		} else {
			handle.SetWavetableFrequency(freq)
		}
	}
}

// wait suspends for d on the sequencer clock, honoring cancellation
func (s *Sequencer) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := s.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Sequencer) waveformDoneMessage(w engine.Waveform) string {
	if len(s.cfg.Oscillators) > 1 {
		return fmt.Sprintf("Finished sweeping %s for both oscillator kinds.", w)
	}
	return fmt.Sprintf("Finished sweeping %s.", w)
}
