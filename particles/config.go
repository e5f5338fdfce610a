package particles

import "github.com/pthm-cable/filament/quality"

// Overrides are user-tunable motion parameters. Zero values mean "use the
// default".
type Overrides struct {
	Speed        float32
	FlowScale    float32
	FlowStrength float32
	Damping      float32
}

// BuildDynamicConfig derives the per-frame motion parameters from the
// current quality settings and user overrides. Pure function: called once
// per relevant change, no hidden memoization, no captured state.
func BuildDynamicConfig(s quality.Settings, o Overrides) DynamicConfig {
	cfg := DefaultDynamicConfig()

	if o.Speed > 0 {
		cfg.Speed = o.Speed
	}
	if o.FlowScale > 0 {
		cfg.FlowScale = o.FlowScale
	}
	if o.FlowStrength > 0 {
		cfg.FlowStrength = o.FlowStrength
	}
	if o.Damping > 0 {
		cfg.Damping = o.Damping
	}

	// Richer effects tiers animate the flow harder; the off tier keeps the
	// field calm so degraded sessions also spend less on simulation.
	switch s.EffectsLevel {
	case quality.EffectsOff:
		cfg.FlowStrength *= 0.6
	case quality.EffectsFull:
		cfg.FlowStrength *= 1.25
	}

	return cfg
}
