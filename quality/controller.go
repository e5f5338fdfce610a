package quality

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Controller runs the adaptive quality feedback loop. It consumes fps
// reports, applies a hysteresis policy on a fixed cadence, and emits
// updated Settings. Single writer: all methods are called from the frame
// loop, never concurrently.
type Controller struct {
	limits Limits
	tuning Tuning

	settings Settings
	state    State

	history   []float64 // fps reports, oldest first, len <= tuning.HistoryLen
	sustained int       // consecutive out-of-band evaluations
	lastEval  time.Time
}

// NewController creates a controller starting at the given preset.
// Malformed limits fail here, at construction.
func NewController(limits Limits, tuning Tuning, initial Level) (*Controller, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if err := validateTuning(tuning); err != nil {
		return nil, err
	}
	c := &Controller{
		limits:  limits,
		tuning:  tuning,
		history: make([]float64, 0, tuning.HistoryLen),
	}
	c.settings = c.Preset(initial)
	c.state = labelFor(c.settings, c.limits)
	return c, nil
}

func validateTuning(t Tuning) error {
	if t.AdjustInterval <= 0 {
		return fmt.Errorf("quality: adjust interval must be positive, got %v", t.AdjustInterval)
	}
	if t.HistoryLen <= 0 || t.MinSamples <= 0 || t.MinSamples > t.HistoryLen {
		return fmt.Errorf("quality: need 0 < min samples (%d) <= history length (%d)", t.MinSamples, t.HistoryLen)
	}
	if t.SustainedRequired <= 0 {
		return fmt.Errorf("quality: sustained readings required must be positive, got %d", t.SustainedRequired)
	}
	if t.RenderScaleStep <= 0 {
		return fmt.Errorf("quality: render scale step must be positive, got %v", t.RenderScaleStep)
	}
	return nil
}

// Settings returns the current quality settings snapshot.
func (c *Controller) Settings() Settings {
	return c.settings
}

// State returns the current quality label.
func (c *Controller) State() State {
	return c.state
}

// Limits returns the configured bounds.
func (c *Controller) Limits() Limits {
	return c.limits
}

// SetTargetFPS changes the feedback target and resets the hysteresis
// counters so stale history does not trigger an immediate adjustment.
func (c *Controller) SetTargetFPS(target float64) error {
	if target <= 0 {
		return fmt.Errorf("quality: target fps must be positive, got %v", target)
	}
	c.limits.TargetFPS = target
	c.resetHysteresis()
	return nil
}

// ObserveFPS appends an fps report to the bounded history.
func (c *Controller) ObserveFPS(fps float64) {
	if len(c.history) == c.tuning.HistoryLen {
		copy(c.history, c.history[1:])
		c.history = c.history[:len(c.history)-1]
	}
	c.history = append(c.history, fps)
}

// Preset returns the settings tuple for a preset level, clamped into the
// configured particle bounds.
func (c *Controller) Preset(level Level) Settings {
	var s Settings
	switch level {
	case LevelHigh:
		s = Settings{ParticleCount: c.limits.MaxParticles, EffectsLevel: EffectsFull, RenderScale: 1.0}
	case LevelMedium:
		s = Settings{ParticleCount: c.limits.MaxParticles * 3 / 4, EffectsLevel: EffectsLow, RenderScale: 0.9}
	case LevelLow:
		s = Settings{ParticleCount: c.limits.MaxParticles / 2, EffectsLevel: EffectsOff, RenderScale: 0.75}
	default: // LevelMinimal and anything unrecognized
		s = Settings{ParticleCount: c.limits.MinParticles, EffectsLevel: EffectsOff, RenderScale: MinRenderScale}
	}
	if s.ParticleCount < c.limits.MinParticles {
		s.ParticleCount = c.limits.MinParticles
	}
	if s.ParticleCount > c.limits.MaxParticles {
		s.ParticleCount = c.limits.MaxParticles
	}
	return s
}

// SetLevel overrides the feedback loop with a preset and resets the
// hysteresis counters.
func (c *Controller) SetLevel(level Level) {
	c.settings = c.Preset(level)
	c.state = labelFor(c.settings, c.limits)
	c.resetHysteresis()
}

func (c *Controller) resetHysteresis() {
	c.sustained = 0
	c.history = c.history[:0]
}

// Update evaluates the policy if the cadence has elapsed. Returns true when
// the settings changed and the caller should reapply them. Timestamps come
// from the frame loop, so arbitrarily long gaps between calls are fine.
func (c *Controller) Update(now time.Time) bool {
	if c.lastEval.IsZero() {
		c.lastEval = now
		return false
	}
	if now.Sub(c.lastEval) < c.tuning.AdjustInterval {
		return false
	}
	c.lastEval = now

	if len(c.history) < c.tuning.MinSamples {
		return false
	}

	avg := mean(c.history)
	deficit := c.limits.TargetFPS - avg

	if math.Abs(deficit) < c.tuning.StabilityBand {
		c.sustained = 0
		c.state = labelFor(c.settings, c.limits)
		return false
	}
	c.sustained++

	if c.sustained < c.tuning.SustainedRequired && deficit <= c.tuning.FastPathDeficit {
		return false
	}

	changed := false
	switch {
	case deficit > c.tuning.StabilityBand:
		changed = c.degrade()
	case deficit < -c.tuning.UpgradeDeficit && avg > c.limits.TargetFPS+c.tuning.UpgradeHeadroom:
		changed = c.upgrade()
	}

	if changed {
		c.sustained = 0
		c.state = Adjusting
		slog.Debug("quality adjusted",
			"avg_fps", avg,
			"deficit", deficit,
			"particles", c.settings.ParticleCount,
			"effects", c.settings.EffectsLevel,
			"render_scale", c.settings.RenderScale,
		)
	} else {
		c.state = labelFor(c.settings, c.limits)
	}
	return changed
}

// degrade reduces one lever. Particle count goes first: it is the cheapest
// lever to reverse and has the largest continuous range. Effects and
// resolution are coarser and more visible, so each is touched only once
// the previous lever sits at its floor.
func (c *Controller) degrade() bool {
	if c.settings.ParticleCount > c.limits.MinParticles {
		next := c.settings.ParticleCount - c.limits.ParticleStep
		if next < c.limits.MinParticles {
			next = c.limits.MinParticles
		}
		c.settings.ParticleCount = next
		return true
	}
	if c.settings.EffectsLevel > EffectsOff {
		c.settings.EffectsLevel--
		return true
	}
	if c.settings.RenderScale > MinRenderScale {
		c.settings.RenderScale = clampScale(roundScale(c.settings.RenderScale - c.tuning.RenderScaleStep))
		return true
	}
	return false
}

// upgrade raises one lever in the reverse order: render scale first (least
// visually disruptive to restore), then effects, then particle count. The
// scale lever hands off to effects once it reaches 0.95 and is topped off
// to 1.0 only after everything else is back at its ceiling.
func (c *Controller) upgrade() bool {
	if c.settings.RenderScale < 0.95 {
		c.settings.RenderScale = clampScale(roundScale(c.settings.RenderScale + c.tuning.RenderScaleStep))
		return true
	}
	if c.settings.EffectsLevel < EffectsFull {
		c.settings.EffectsLevel++
		return true
	}
	if c.settings.ParticleCount < c.limits.MaxParticles {
		next := c.settings.ParticleCount + c.limits.ParticleStep
		if next > c.limits.MaxParticles {
			next = c.limits.MaxParticles
		}
		c.settings.ParticleCount = next
		return true
	}
	if c.settings.RenderScale < MaxRenderScale {
		c.settings.RenderScale = clampScale(roundScale(c.settings.RenderScale + c.tuning.RenderScaleStep))
		return true
	}
	return false
}

// labelFor derives the reported label from the settings.
func labelFor(s Settings, l Limits) State {
	switch {
	case s.EffectsLevel == EffectsFull && s.RenderScale >= 0.9 && s.ParticleCount >= l.MaxParticles:
		return StableHigh
	case s.EffectsLevel >= EffectsLow || s.RenderScale >= 0.75:
		return StableMedium
	default:
		return StableLow
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// roundScale snaps accumulated 0.1 steps back to two decimals.
func roundScale(s float64) float64 {
	return math.Round(s*100) / 100
}

func clampScale(s float64) float64 {
	if s < MinRenderScale {
		return MinRenderScale
	}
	if s > MaxRenderScale {
		return MaxRenderScale
	}
	return s
}
