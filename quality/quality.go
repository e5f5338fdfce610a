// Package quality adapts the visualization's quality levers (particle
// budget, effects tier, render scale) to keep the frame loop near its
// target fps.
package quality

import (
	"fmt"
	"time"
)

// Render scale bounds. Scale multiplies device pixel density; below 0.5 the
// output is too soft to be worth drawing.
const (
	MinRenderScale = 0.5
	MaxRenderScale = 1.0
)

// Effects tiers.
const (
	EffectsOff  = 0
	EffectsLow  = 1
	EffectsFull = 2
)

// Settings is the controller's output: the knobs the renderer applies when
// sizing particle buffers and picking draw resolution. Mutated only by the
// Controller.
type Settings struct {
	ParticleCount int
	EffectsLevel  int     // 0..2
	RenderScale   float64 // 0.5..1.0
}

// Limits is caller-supplied configuration for the feedback loop.
type Limits struct {
	TargetFPS    float64
	MinParticles int
	MaxParticles int
	ParticleStep int
}

// Validate reports malformed limits. Invalid bounds are a caller
// programming error and are never silently clamped.
func (l Limits) Validate() error {
	if l.TargetFPS <= 0 {
		return fmt.Errorf("quality: target fps must be positive, got %v", l.TargetFPS)
	}
	if l.MinParticles <= 0 {
		return fmt.Errorf("quality: min particles must be positive, got %d", l.MinParticles)
	}
	if l.MinParticles > l.MaxParticles {
		return fmt.Errorf("quality: min particles %d exceeds max %d", l.MinParticles, l.MaxParticles)
	}
	if l.ParticleStep <= 0 {
		return fmt.Errorf("quality: particle step must be positive, got %d", l.ParticleStep)
	}
	return nil
}

// Tuning holds the hysteresis constants. The defaults are carried over from
// the reference behavior; they are tuning choices, not derived values, so
// they stay overridable rather than hard-coded.
type Tuning struct {
	// StabilityBand is the fps deficit magnitude treated as on-target.
	StabilityBand float64
	// FastPathDeficit triggers an immediate degrade, bypassing the
	// sustained-reading gate. A session stuck far below target must
	// recover fast; minor jitter must not cause visible flicker.
	FastPathDeficit float64
	// SustainedRequired is how many consecutive out-of-band evaluations
	// are needed before an adjustment fires.
	SustainedRequired int
	// AdjustInterval is the evaluation cadence, measured against
	// caller-supplied timestamps.
	AdjustInterval time.Duration
	// HistoryLen bounds the fps history window.
	HistoryLen int
	// MinSamples is the minimum history length before any evaluation.
	MinSamples int
	// UpgradeDeficit and UpgradeHeadroom gate the upgrade path:
	// deficit < -UpgradeDeficit and avg > target + UpgradeHeadroom.
	UpgradeDeficit  float64
	UpgradeHeadroom float64
	// RenderScaleStep is the per-adjustment render scale increment.
	RenderScaleStep float64
}

// DefaultTuning returns the reference constants.
func DefaultTuning() Tuning {
	return Tuning{
		StabilityBand:     5,
		FastPathDeficit:   15,
		SustainedRequired: 3,
		AdjustInterval:    3 * time.Second,
		HistoryLen:        5,
		MinSamples:        3,
		UpgradeDeficit:    10,
		UpgradeHeadroom:   15,
		RenderScaleStep:   0.1,
	}
}

// State labels the controller's current regime for reporting. Labels are
// derived from the settings and never branched on.
type State int

const (
	StableHigh State = iota
	StableMedium
	StableLow
	Adjusting
)

// String returns the display label.
func (s State) String() string {
	switch s {
	case StableHigh:
		return "stable-high"
	case StableMedium:
		return "stable-medium"
	case StableLow:
		return "stable-low"
	case Adjusting:
		return "adjusting"
	default:
		return "unknown"
	}
}

// Level is an explicit quality preset.
type Level int

const (
	LevelMinimal Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

// String returns the preset name.
func (l Level) String() string {
	switch l {
	case LevelMinimal:
		return "minimal"
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// PresetForTier maps a capability tier (0=no acceleration, 1=low, 2=mid,
// 3=high) to a preset. Out-of-range tiers, including a failed probe, fall
// back to the most conservative preset.
func PresetForTier(tier int) Level {
	switch tier {
	case 1:
		return LevelLow
	case 2:
		return LevelMedium
	case 3:
		return LevelHigh
	default:
		return LevelMinimal
	}
}
