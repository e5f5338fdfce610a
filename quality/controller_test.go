package quality

import (
	"math/rand"
	"testing"
	"time"
)

var testLimits = Limits{
	TargetFPS:    60,
	MinParticles: 100,
	MaxParticles: 1000,
	ParticleStep: 100,
}

func newTestController(t *testing.T, initial Level) *Controller {
	t.Helper()
	c, err := NewController(testLimits, DefaultTuning(), initial)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// runCycle feeds one evaluation cycle: enough fps reports to satisfy the
// minimum sample requirement, then an Update past the cadence.
func runCycle(c *Controller, now *time.Time, fps float64) bool {
	for i := 0; i < 3; i++ {
		c.ObserveFPS(fps)
	}
	*now = now.Add(DefaultTuning().AdjustInterval)
	return c.Update(*now)
}

func TestNewController_RejectsBadLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Limits)
	}{
		{"zero target fps", func(l *Limits) { l.TargetFPS = 0 }},
		{"zero min particles", func(l *Limits) { l.MinParticles = 0 }},
		{"min above max", func(l *Limits) { l.MinParticles = 2000 }},
		{"negative step", func(l *Limits) { l.ParticleStep = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLimits
			tt.mutate(&l)
			if _, err := NewController(l, DefaultTuning(), LevelHigh); err == nil {
				t.Error("expected construction error, got nil")
			}
		})
	}
}

func TestController_HysteresisHoldsNearTarget(t *testing.T) {
	c := newTestController(t, LevelHigh)
	before := c.Settings()

	now := time.Unix(0, 0)
	c.Update(now) // establish baseline

	rng := rand.New(rand.NewSource(3))
	for cycle := 0; cycle < 10; cycle++ {
		// Oscillate narrowly around target: deficit magnitude < 5.
		fps := testLimits.TargetFPS + (rng.Float64()*8 - 4)
		if changed := runCycle(c, &now, fps); changed {
			t.Fatalf("cycle %d: settings changed under stable fps", cycle)
		}
	}
	if c.Settings() != before {
		t.Errorf("settings drifted: %+v -> %+v", before, c.Settings())
	}
}

func TestController_FastDegrade(t *testing.T) {
	c := newTestController(t, LevelHigh)
	before := c.Settings()

	now := time.Unix(0, 0)
	c.Update(now)

	// deficit = 40 > 15: the fast path bypasses the sustained gate.
	if changed := runCycle(c, &now, 20); !changed {
		t.Fatal("expected adjustment on first evaluation at fps 20")
	}
	got := c.Settings()
	if got.ParticleCount != before.ParticleCount-testLimits.ParticleStep {
		t.Errorf("particle count = %d, want %d", got.ParticleCount, before.ParticleCount-testLimits.ParticleStep)
	}
	if got.EffectsLevel != before.EffectsLevel || got.RenderScale != before.RenderScale {
		t.Errorf("fast degrade touched more than one lever: %+v", got)
	}
	if c.State() != Adjusting {
		t.Errorf("state = %v, want %v", c.State(), Adjusting)
	}
}

func TestController_DegradeLeverOrder(t *testing.T) {
	c := newTestController(t, LevelHigh)

	now := time.Unix(0, 0)
	c.Update(now)

	// Run the degrade path until every lever bottoms out.
	var history []Settings
	for cycle := 0; cycle < 50; cycle++ {
		prev := c.Settings()
		changed := runCycle(c, &now, 20)
		cur := c.Settings()
		if changed {
			history = append(history, cur)
			diffs := 0
			if cur.ParticleCount != prev.ParticleCount {
				diffs++
			}
			if cur.EffectsLevel != prev.EffectsLevel {
				diffs++
			}
			if cur.RenderScale != prev.RenderScale {
				diffs++
			}
			if diffs != 1 {
				t.Fatalf("cycle %d: %d levers changed at once", cycle, diffs)
			}
			// Strict order: effects only move once particles are at the
			// floor, scale only once effects are off.
			if cur.EffectsLevel != prev.EffectsLevel && prev.ParticleCount > testLimits.MinParticles {
				t.Fatalf("cycle %d: effects reduced before particle floor", cycle)
			}
			if cur.RenderScale != prev.RenderScale && prev.EffectsLevel > EffectsOff {
				t.Fatalf("cycle %d: render scale reduced before effects floor", cycle)
			}
		}
	}

	final := c.Settings()
	if final.ParticleCount != testLimits.MinParticles {
		t.Errorf("particle count did not reach floor: %d", final.ParticleCount)
	}
	if final.EffectsLevel != EffectsOff {
		t.Errorf("effects did not reach floor: %d", final.EffectsLevel)
	}
	if final.RenderScale != MinRenderScale {
		t.Errorf("render scale did not reach floor: %v", final.RenderScale)
	}
	if len(history) == 0 {
		t.Fatal("no adjustments recorded")
	}
}

func TestController_UpgradeOrdering(t *testing.T) {
	c := newTestController(t, LevelHigh)
	// Start from a degraded mid state: render scale 0.6, effects off.
	c.settings = Settings{ParticleCount: 500, EffectsLevel: EffectsOff, RenderScale: 0.6}

	now := time.Unix(0, 0)
	c.Update(now)

	fps := testLimits.TargetFPS + 20

	// Two cycles of sustained headroom: not yet enough.
	for cycle := 0; cycle < 2; cycle++ {
		if changed := runCycle(c, &now, fps); changed {
			t.Fatalf("cycle %d: adjusted before sustained gate", cycle)
		}
	}

	// Third sustained cycle: render scale rises first, nothing else moves.
	if changed := runCycle(c, &now, fps); !changed {
		t.Fatal("expected upgrade on third sustained cycle")
	}
	got := c.Settings()
	if got.RenderScale != 0.7 {
		t.Errorf("render scale = %v, want 0.7", got.RenderScale)
	}
	if got.EffectsLevel != EffectsOff || got.ParticleCount != 500 {
		t.Errorf("upgrade touched effects or particles early: %+v", got)
	}

	// Keep upgrading: effects must not rise until scale reaches 0.95.
	for cycle := 0; cycle < 40 && c.Settings().EffectsLevel == EffectsOff; cycle++ {
		prev := c.Settings()
		runCycle(c, &now, fps)
		cur := c.Settings()
		if cur.EffectsLevel > prev.EffectsLevel && prev.RenderScale < 0.95 {
			t.Fatalf("effects raised at render scale %v", prev.RenderScale)
		}
	}
}

// TestController_BoundsInvariant fuzzes random fps sequences and checks the
// settings never leave their documented ranges.
func TestController_BoundsInvariant(t *testing.T) {
	c := newTestController(t, LevelMedium)

	now := time.Unix(0, 0)
	c.Update(now)

	rng := rand.New(rand.NewSource(11))
	for cycle := 0; cycle < 300; cycle++ {
		fps := rng.Float64() * 150
		runCycle(c, &now, fps)

		s := c.Settings()
		if s.ParticleCount < testLimits.MinParticles || s.ParticleCount > testLimits.MaxParticles {
			t.Fatalf("cycle %d: particle count %d out of bounds", cycle, s.ParticleCount)
		}
		if s.RenderScale < MinRenderScale || s.RenderScale > MaxRenderScale {
			t.Fatalf("cycle %d: render scale %v out of bounds", cycle, s.RenderScale)
		}
		if s.EffectsLevel < EffectsOff || s.EffectsLevel > EffectsFull {
			t.Fatalf("cycle %d: effects level %d out of bounds", cycle, s.EffectsLevel)
		}
	}
}

func TestController_NoEvaluationBeforeMinSamples(t *testing.T) {
	c := newTestController(t, LevelHigh)

	now := time.Unix(0, 0)
	c.Update(now)

	c.ObserveFPS(10) // severe deficit, but only one sample
	now = now.Add(DefaultTuning().AdjustInterval)
	if changed := c.Update(now); changed {
		t.Error("adjusted with fewer than the minimum fps samples")
	}
}

func TestController_CadenceGate(t *testing.T) {
	c := newTestController(t, LevelHigh)

	now := time.Unix(0, 0)
	c.Update(now)
	for i := 0; i < 5; i++ {
		c.ObserveFPS(20)
	}

	// One second later: inside the 3 s cadence, nothing happens.
	if changed := c.Update(now.Add(time.Second)); changed {
		t.Error("adjusted before the evaluation cadence elapsed")
	}
	if changed := c.Update(now.Add(DefaultTuning().AdjustInterval)); !changed {
		t.Error("expected adjustment once the cadence elapsed")
	}
}

func TestController_SetLevelResetsHysteresis(t *testing.T) {
	c := newTestController(t, LevelHigh)

	now := time.Unix(0, 0)
	c.Update(now)

	// Build up sustained pressure without crossing the fast path.
	for i := 0; i < 2; i++ {
		runCycle(c, &now, testLimits.TargetFPS-10)
	}

	c.SetLevel(LevelLow)
	want := Settings{ParticleCount: 500, EffectsLevel: EffectsOff, RenderScale: 0.75}
	if c.Settings() != want {
		t.Errorf("SetLevel(low) = %+v, want %+v", c.Settings(), want)
	}

	// The next moderate-deficit cycle must start counting from zero.
	if changed := runCycle(c, &now, testLimits.TargetFPS-10); changed {
		t.Error("adjustment fired immediately after preset override")
	}
}

func TestPresetForTier(t *testing.T) {
	tests := []struct {
		tier int
		want Level
	}{
		{0, LevelMinimal},
		{1, LevelLow},
		{2, LevelMedium},
		{3, LevelHigh},
		{-1, LevelMinimal}, // failed probe
		{7, LevelMinimal},
	}
	for _, tt := range tests {
		if got := PresetForTier(tt.tier); got != tt.want {
			t.Errorf("PresetForTier(%d) = %v, want %v", tt.tier, got, tt.want)
		}
	}
}

func TestController_PresetClampsToLimits(t *testing.T) {
	limits := Limits{TargetFPS: 60, MinParticles: 600, MaxParticles: 1000, ParticleStep: 100}
	c, err := NewController(limits, DefaultTuning(), LevelLow)
	if err != nil {
		t.Fatal(err)
	}
	// LevelLow would be 500 particles; the floor is 600.
	if got := c.Settings().ParticleCount; got != 600 {
		t.Errorf("preset particle count = %d, want clamped 600", got)
	}
}
