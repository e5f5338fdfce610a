// Package particles owns the position and velocity buffers the grid and
// graph read each frame. The buffers have a single writer (the frame loop);
// the analysis passes never mutate them.
package particles

import (
	"fmt"
	"math/rand"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/filament/spatial"
)

// Noise sampling offsets so the three flow components decorrelate.
const (
	flowOffsetY = 31.7
	flowOffsetZ = 67.3
)

// StructuralConfig holds the cold parameters. Changing any of them requires
// reallocating the particle buffers, so it is applied through Resize /
// NewField, never mid-frame.
type StructuralConfig struct {
	Count  int
	Bounds float32 // half-extent of the cubic volume, centered on origin
	Seed   int64
}

// Validate reports malformed structural parameters.
func (c StructuralConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("particles: count must not be negative, got %d", c.Count)
	}
	if c.Bounds <= 0 {
		return fmt.Errorf("particles: bounds must be positive, got %v", c.Bounds)
	}
	return nil
}

// DynamicConfig holds the hot parameters, read directly every frame with no
// reallocation. It is passed explicitly into Step rather than captured.
type DynamicConfig struct {
	Speed        float32 // velocity multiplier
	FlowScale    float32 // noise frequency
	FlowStrength float32 // noise force applied per second
	Damping      float32 // velocity decay per second
}

// DefaultDynamicConfig returns the baseline motion parameters.
func DefaultDynamicConfig() DynamicConfig {
	return DynamicConfig{
		Speed:        1.0,
		FlowScale:    0.02,
		FlowStrength: 6.0,
		Damping:      0.4,
	}
}

// Field is the particle buffer owner plus the flow that drives it.
type Field struct {
	structural StructuralConfig

	positions  []spatial.Vec3
	velocities []spatial.Vec3

	noise opensimplex.Noise
	rng   *rand.Rand
	time  float64
}

// NewField allocates the buffers and scatters particles through the volume.
func NewField(sc StructuralConfig) (*Field, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	f := &Field{
		structural: sc,
		noise:      opensimplex.New(sc.Seed),
		rng:        rand.New(rand.NewSource(sc.Seed)),
	}
	f.positions = make([]spatial.Vec3, 0, sc.Count)
	f.velocities = make([]spatial.Vec3, 0, sc.Count)
	f.grow(sc.Count)
	return f, nil
}

// Count returns the live particle count.
func (f *Field) Count() int {
	return len(f.positions)
}

// Structural returns the current structural configuration.
func (f *Field) Structural() StructuralConfig {
	return f.structural
}

// Positions returns the position buffer. Read-only to callers; the slice is
// invalidated by Resize.
func (f *Field) Positions() []spatial.Vec3 {
	return f.positions
}

// Resize applies a structural particle-count change. Surviving particles
// keep their state; new ones are scattered randomly. No-op when the count
// is unchanged.
func (f *Field) Resize(count int) error {
	if count < 0 {
		return fmt.Errorf("particles: count must not be negative, got %d", count)
	}
	switch {
	case count < len(f.positions):
		f.positions = f.positions[:count]
		f.velocities = f.velocities[:count]
	case count > len(f.positions):
		f.grow(count - len(f.positions))
	}
	f.structural.Count = count
	return nil
}

func (f *Field) grow(n int) {
	b := f.structural.Bounds
	for i := 0; i < n; i++ {
		f.positions = append(f.positions, spatial.Vec3{
			X: (f.rng.Float32()*2 - 1) * b,
			Y: (f.rng.Float32()*2 - 1) * b,
			Z: (f.rng.Float32()*2 - 1) * b,
		})
		f.velocities = append(f.velocities, spatial.Vec3{})
	}
}

// Step advances the simulation by dt seconds under the given dynamic
// parameters. Particles drift along a simplex-noise flow field, decay
// toward rest, and wrap at the volume boundary.
func (f *Field) Step(dt float32, dyn DynamicConfig) {
	if dt <= 0 || len(f.positions) == 0 {
		return
	}
	f.time += float64(dt)

	scale := float64(dyn.FlowScale)
	force := dyn.FlowStrength * dt
	damp := 1 - dyn.Damping*dt
	if damp < 0 {
		damp = 0
	}
	bounds := f.structural.Bounds

	for i := range f.positions {
		p := &f.positions[i]
		v := &f.velocities[i]

		nx := float64(p.X) * scale
		ny := float64(p.Y) * scale
		nz := float64(p.Z) * scale

		v.X += float32(f.noise.Eval4(nx, ny, nz, f.time*0.1)) * force
		v.Y += float32(f.noise.Eval4(nx+flowOffsetY, ny, nz, f.time*0.1)) * force
		v.Z += float32(f.noise.Eval4(nx, ny+flowOffsetZ, nz, f.time*0.1)) * force

		v.X *= damp
		v.Y *= damp
		v.Z *= damp

		p.X = wrap(p.X+v.X*dyn.Speed*dt, bounds)
		p.Y = wrap(p.Y+v.Y*dyn.Speed*dt, bounds)
		p.Z = wrap(p.Z+v.Z*dyn.Speed*dt, bounds)
	}
}

// wrap folds v into [-bounds, bounds].
func wrap(v, bounds float32) float32 {
	span := 2 * bounds
	for v > bounds {
		v -= span
	}
	for v < -bounds {
		v += span
	}
	return v
}
