package sweep

import (
	"errors"
	"fmt"
	"time"

	"github.com/audiolibrelab/sweepbench/internal/engine"
)

// Errors returned by plan construction and the sequencer.
var (
	ErrInvalidFrequency = errors.New("sweep: frequency must be positive")
	ErrFrequencyOrder   = errors.New("sweep: start frequency must be less than end frequency")
	ErrInvalidDuration  = errors.New("sweep: duration must be positive")
	ErrInvalidSettle    = errors.New("sweep: post-silence settle must not be negative")
	ErrInvalidEpsilon   = errors.New("sweep: fade epsilon must not be negative")
	ErrInvalidMode      = errors.New("sweep: mode must be engine-timed or host-driven")
	ErrNoWaveforms      = errors.New("sweep: at least one waveform is required")
	ErrNoOscillators    = errors.New("sweep: at least one oscillator kind is required")
	ErrBusy             = errors.New("sweep: a sequence is already running")
)

// Mode selects who advances the frequency during a sweep
type Mode string

const (
	// ModeEngineTimed hands the full ramp to the engine and waits it out
	ModeEngineTimed Mode = "engine-timed"
	// ModeHostDriven pushes interpolated frequency samples at frame cadence
	ModeHostDriven Mode = "host-driven"
)

// ParseMode converts a string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeEngineTimed, ModeHostDriven:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w, got %q", ErrInvalidMode, s)
}

// Parameters describes one frequency sweep: an ascending ramp from
// StartFreq to EndFreq over Duration.
type Parameters struct {
	StartFreq float64
	EndFreq   float64
	Duration  time.Duration
	Mode      Mode
}

// Validate checks that the sweep parameters are valid
func (p Parameters) Validate() error {
	if p.StartFreq <= 0 || p.EndFreq <= 0 {
		return ErrInvalidFrequency
	}
	if p.StartFreq >= p.EndFreq {
		return ErrFrequencyOrder
	}
	if p.Duration <= 0 {
		return ErrInvalidDuration
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}

// Step is one unit of work: run Waveform on Oscillator with Params, then
// silence it and settle for PostSilence. Immutable once constructed.
type Step struct {
	Oscillator  engine.Oscillator
	Waveform    engine.Waveform
	Params      Parameters
	PostSilence time.Duration
}

func (s Step) String() string {
	return fmt.Sprintf("%s/%s %g Hz -> %g Hz over %s",
		s.Oscillator, s.Waveform, s.Params.StartFreq, s.Params.EndFreq, s.Params.Duration)
}

// Config collects all recognized sweep sequence options
type Config struct {
	Waveforms   []engine.Waveform
	Oscillators []engine.Oscillator

	StartFreq float64
	EndFreq   float64
	Duration  time.Duration
	Mode      Mode

	// PostSilence is the settle delay after each step's silence call
	PostSilence time.Duration
	// FadeEpsilon is subtracted from the engine-timed wait so the fade-out
	// starts before the ramp ends
	FadeEpsilon time.Duration
	// FrameInterval is the host-driven push cadence; zero selects the default
	FrameInterval time.Duration
}

// Validate checks the full sequence configuration
func (c Config) Validate() error {
	if len(c.Waveforms) == 0 {
		return ErrNoWaveforms
	}
	for _, w := range c.Waveforms {
		if _, err := engine.ParseWaveform(string(w)); err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
	}
	if len(c.Oscillators) == 0 {
		return ErrNoOscillators
	}
	for _, o := range c.Oscillators {
		if _, err := engine.ParseOscillator(string(o)); err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
	}
	if c.PostSilence < 0 {
		return ErrInvalidSettle
	}
	if c.FadeEpsilon < 0 {
		return ErrInvalidEpsilon
	}
	return c.parameters().Validate()
}

func (c Config) parameters() Parameters {
	return Parameters{
		StartFreq: c.StartFreq,
		EndFreq:   c.EndFreq,
		Duration:  c.Duration,
		Mode:      c.Mode,
	}
}
