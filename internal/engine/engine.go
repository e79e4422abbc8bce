package engine

import (
	"context"
	"fmt"
)

// Waveform identifies an oscillator waveform shape
type Waveform string

const (
	WaveformSine     Waveform = "sine"
	WaveformSquare   Waveform = "square"
	WaveformSawtooth Waveform = "sawtooth"
	WaveformTriangle Waveform = "triangle"
)

// Waveforms returns all waveforms in their canonical sweep order
func Waveforms() []Waveform {
	return []Waveform{WaveformSine, WaveformSquare, WaveformSawtooth, WaveformTriangle}
}

// ParseWaveform converts a string (e.g. from configuration) into a Waveform
func ParseWaveform(s string) (Waveform, error) {
	switch Waveform(s) {
	case WaveformSine, WaveformSquare, WaveformSawtooth, WaveformTriangle:
		return Waveform(s), nil
	}
	return "", fmt.Errorf("invalid waveform %q (valid: sine, square, sawtooth, triangle)", s)
}

// Oscillator identifies which oscillator implementation a sweep targets
type Oscillator string

const (
	// OscillatorWavetable is the bandlimited wavetable implementation
	OscillatorWavetable Oscillator = "wavetable"
	// OscillatorRegular is the naive (non-bandlimited) implementation
	OscillatorRegular Oscillator = "regular"
)

// Oscillators returns both oscillator kinds in their canonical sweep order
func Oscillators() []Oscillator {
	return []Oscillator{OscillatorWavetable, OscillatorRegular}
}

// ParseOscillator converts a string into an Oscillator
func ParseOscillator(s string) (Oscillator, error) {
	switch Oscillator(s) {
	case OscillatorWavetable, OscillatorRegular:
		return Oscillator(s), nil
	}
	return "", fmt.Errorf("invalid oscillator %q (valid: wavetable, regular)", s)
}

// Handle is a stateful audio engine session. A handle is created once,
// started once, and then driven through its sweep/silence operations.
//
// Sweep operations with a positive duration ramp the oscillator frequency
// engine-side from startFreq to endFreq over duration seconds. A zero
// duration starts the oscillator at startFreq with no engine-side ramp;
// the caller then pushes frequency samples via the Set*Frequency methods.
//
// Silence operations trigger a short fade-out and are assumed infallible;
// the Set*Frequency methods are non-blocking and infallible as well.
type Handle interface {
	Start(ctx context.Context) error

	SweepWavetable(w Waveform, startFreq, endFreq, duration float64) error
	SweepRegular(w Waveform, startFreq, endFreq, duration float64) error

	SetWavetableFrequency(freq float64)
	SetRegularFrequency(freq float64)

	SilenceWavetable()
	SilenceRegular()
}

// InitError reports that the engine failed to start. The handle that
// produced it must be discarded; a retry needs a fresh handle.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("engine initialization failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// OpError reports a failed engine operation mid-session. The handle
// remains usable for subsequent operations.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("engine operation %s failed: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
