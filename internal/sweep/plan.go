package sweep

import "time"

// Plan is an ordered sequence of steps. Steps run strictly in order,
// one at a time.
type Plan []Step

// BuildPlan constructs the full sweep plan for a configuration: the
// cross-product of waveforms and oscillator kinds, outer loop over
// waveforms in the configured order, inner loop over oscillator kinds.
// Construction is deterministic and performs no I/O; an invalid
// configuration is rejected here, before any engine call.
func BuildPlan(cfg Config) (Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	params := cfg.parameters()
	plan := make(Plan, 0, len(cfg.Waveforms)*len(cfg.Oscillators))
	for _, w := range cfg.Waveforms {
		for _, osc := range cfg.Oscillators {
			plan = append(plan, Step{
				Oscillator:  osc,
				Waveform:    w,
				Params:      params,
				PostSilence: cfg.PostSilence,
			})
		}
	}
	return plan, nil
}

// Equal reports whether two plans compare equal element-by-element
func (p Plan) Equal(other Plan) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// EstimatedDuration returns the total suspended time of a full
// successful run: one sweep duration plus one settle delay per step.
func (p Plan) EstimatedDuration() time.Duration {
	var total time.Duration
	for _, step := range p {
		total += step.Params.Duration + step.PostSilence
	}
	return total
}
