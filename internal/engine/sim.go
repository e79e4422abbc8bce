package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SimBackend implements the Backend interface for the simulated engine
type SimBackend struct{}

// NewHandle creates a new simulated engine handle
func (b *SimBackend) NewHandle(logWriter io.Writer) Handle {
	return NewSimEngine(logWriter)
}

// GetType returns the backend type
func (b *SimBackend) GetType() BackendType {
	return BackendTypeSim
}

// voice holds the simulated state of one oscillator slot.
type voice struct {
	waveform  Waveform
	frequency float64
	gain      float64
}

// SimEngine is an in-process engine that tracks oscillator state without
// producing audio. It enforces the same session rules a real engine
// would: operations before Start fail, unknown waveforms fail, and
// Silence fades the oscillator gain to zero.
//
// FailStart and FailSweepAt inject failures for rehearsing error paths.
type SimEngine struct {
	mu      sync.Mutex
	started bool
	voices  map[Oscillator]*voice

	logWriter io.Writer

	// Fault injection: FailStart makes Start fail; FailSweepAt makes the
	// n-th sweep operation fail (1-based, 0 disables).
	FailStart   bool
	FailSweepAt int
	sweepCalls  int
}

// NewSimEngine creates a simulated engine. logWriter receives one line
// per operation for tracing; pass io.Discard to disable.
func NewSimEngine(logWriter io.Writer) *SimEngine {
	if logWriter == nil {
		logWriter = io.Discard
	}
	return &SimEngine{
		voices:    make(map[Oscillator]*voice),
		logWriter: logWriter,
	}
}

// Start brings the simulated session up. It fails if fault injection is
// armed or the context is already cancelled.
func (e *SimEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &InitError{Err: err}
	}
	if e.FailStart {
		return &InitError{Err: fmt.Errorf("simulated start failure")}
	}

	e.started = true
	e.trace("start")
	slog.Debug("sim engine started")
	return nil
}

// SweepWavetable begins a bandlimited-oscillator sweep
func (e *SimEngine) SweepWavetable(w Waveform, startFreq, endFreq, duration float64) error {
	return e.sweep(OscillatorWavetable, w, startFreq, endFreq, duration)
}

// SweepRegular begins a naive-oscillator sweep
func (e *SimEngine) SweepRegular(w Waveform, startFreq, endFreq, duration float64) error {
	return e.sweep(OscillatorRegular, w, startFreq, endFreq, duration)
}

func (e *SimEngine) sweep(osc Oscillator, w Waveform, startFreq, endFreq, duration float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	op := "sweep_" + string(osc)
	if !e.started {
		return &OpError{Op: op, Err: fmt.Errorf("engine not started")}
	}
	if _, err := ParseWaveform(string(w)); err != nil {
		return &OpError{Op: op, Err: err}
	}
	if startFreq <= 0 {
		return &OpError{Op: op, Err: fmt.Errorf("start frequency must be positive, got %g", startFreq)}
	}

	e.sweepCalls++
	if e.FailSweepAt > 0 && e.sweepCalls == e.FailSweepAt {
		return &OpError{Op: op, Err: fmt.Errorf("simulated failure on sweep call %d", e.sweepCalls)}
	}

	e.voices[osc] = &voice{waveform: w, frequency: startFreq, gain: 0.5}
	e.trace("%s waveform=%s start=%g end=%g duration=%g", op, w, startFreq, endFreq, duration)
	slog.Debug("sim engine sweep", "oscillator", osc, "waveform", w,
		"start_freq", startFreq, "end_freq", endFreq, "duration", duration)
	return nil
}

// SetWavetableFrequency pushes one frequency sample to the wavetable voice
func (e *SimEngine) SetWavetableFrequency(freq float64) {
	e.setFrequency(OscillatorWavetable, freq)
}

// SetRegularFrequency pushes one frequency sample to the regular voice
func (e *SimEngine) SetRegularFrequency(freq float64) {
	e.setFrequency(OscillatorRegular, freq)
}

func (e *SimEngine) setFrequency(osc Oscillator, freq float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, ok := e.voices[osc]
	if !ok || freq <= 0 {
		// Contract says non-blocking and infallible, so a push to a
		// missing voice is dropped rather than reported
		return
	}
	v.frequency = freq
}

// SilenceWavetable fades the wavetable voice out
func (e *SimEngine) SilenceWavetable() {
	e.silence(OscillatorWavetable)
}

// SilenceRegular fades the regular voice out
func (e *SimEngine) SilenceRegular() {
	e.silence(OscillatorRegular)
}

func (e *SimEngine) silence(osc Oscillator) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if v, ok := e.voices[osc]; ok {
		// 100ms fade-out in the real engine; the simulation just lands the gain
		v.gain = 0
	}
	e.trace("silence_%s", osc)
	slog.Debug("sim engine silence", "oscillator", osc)
}

// Started reports whether Start has completed successfully
func (e *SimEngine) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Voice returns the current state of an oscillator slot: its waveform,
// frequency and gain. ok is false if the oscillator never played.
func (e *SimEngine) Voice(osc Oscillator) (w Waveform, freq, gain float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, exists := e.voices[osc]
	if !exists {
		return "", 0, 0, false
	}
	return v.waveform, v.frequency, v.gain, true
}

func (e *SimEngine) trace(format string, args ...any) {
	fmt.Fprintln(e.logWriter, fmt.Sprintf(format, args...))
}
