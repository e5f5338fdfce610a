// Package effects manages the transient visual garnish gated by the
// quality controller's effects tier: pulse sparks rising off particles and
// flashes along strong connection edges.
package effects

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/filament/graph"
	"github.com/pthm-cable/filament/quality"
	"github.com/pthm-cable/filament/spatial"
)

// Spark kinds.
const (
	KindPulse uint8 = iota
	KindFlash
)

// Position is a spark's world position.
type Position struct {
	X, Y, Z float32
}

// Velocity is a spark's drift per second.
type Velocity struct {
	X, Y, Z float32
}

// Spark holds lifetime state for one transient effect.
type Spark struct {
	Life    float32 // seconds remaining
	MaxLife float32
	Kind    uint8
}

// Live spark budget per effects tier.
const sparksPerTier = 96

// Spawn pacing.
const (
	pulseSpawnPerSecond = 40
	flashSpawnPerSecond = 12
	pulseLife           = 1.2
	flashLife           = 0.35
	flashMinStrength    = 0.7
)

// System owns the spark entities. Effects are pure decoration: the budget
// shrinks with the quality tier and the whole system idles at tier zero.
type System struct {
	world  *ecs.World
	mapper *ecs.Map3[Position, Velocity, Spark]
	filter ecs.Filter3[Position, Velocity, Spark]

	rng        *rand.Rand
	live       int
	spawnDebt  float32
	flashDebt  float32
	deadBuffer []ecs.Entity
}

// NewSystem creates an empty effects system.
func NewSystem(seed int64) *System {
	world := ecs.NewWorld()
	return &System{
		world:  world,
		mapper: ecs.NewMap3[Position, Velocity, Spark](world),
		filter: *ecs.NewFilter3[Position, Velocity, Spark](world),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Live returns the current spark count.
func (s *System) Live() int {
	return s.live
}

// Update ages and culls sparks, then spawns new ones within the tier
// budget. Positions and edges are read-only inputs owned by the caller.
func (s *System) Update(dt float32, level int, positions []spatial.Vec3, edges []graph.Edge) {
	s.age(dt)

	budget := level * sparksPerTier
	if budget <= 0 || len(positions) == 0 {
		return
	}

	// Fractional spawn accumulators keep rates frame-rate independent.
	s.spawnDebt += pulseSpawnPerSecond * dt * float32(level)
	for s.spawnDebt >= 1 && s.live < budget {
		s.spawnDebt--
		s.spawnPulse(positions)
	}
	if s.spawnDebt > 1 {
		s.spawnDebt = 1
	}

	// Edge flashes only at the full tier.
	if level >= quality.EffectsFull && len(edges) > 0 {
		s.flashDebt += flashSpawnPerSecond * dt
		for s.flashDebt >= 1 && s.live < budget {
			s.flashDebt--
			s.spawnFlash(positions, edges)
		}
		if s.flashDebt > 1 {
			s.flashDebt = 1
		}
	}
}

// age advances lifetimes and removes expired sparks.
func (s *System) age(dt float32) {
	s.deadBuffer = s.deadBuffer[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, vel, spark := query.Get()

		spark.Life -= dt
		if spark.Life <= 0 {
			s.deadBuffer = append(s.deadBuffer, query.Entity())
			continue
		}

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Z += vel.Z * dt
	}

	// Removal happens after iteration completes.
	for _, e := range s.deadBuffer {
		s.mapper.Remove(e)
		s.live--
	}
}

func (s *System) spawnPulse(positions []spatial.Vec3) {
	p := positions[s.rng.Intn(len(positions))]
	pos := Position{X: p.X, Y: p.Y, Z: p.Z}
	vel := Velocity{
		X: (s.rng.Float32() - 0.5) * 2,
		Y: s.rng.Float32() * 3, // drift upward
		Z: (s.rng.Float32() - 0.5) * 2,
	}
	spark := Spark{Life: pulseLife, MaxLife: pulseLife, Kind: KindPulse}
	s.mapper.NewEntity(&pos, &vel, &spark)
	s.live++
}

func (s *System) spawnFlash(positions []spatial.Vec3, edges []graph.Edge) {
	e := edges[s.rng.Intn(len(edges))]
	if e.Strength < flashMinStrength {
		return // only strong connections flash
	}
	a := positions[e.A]
	b := positions[e.B]
	pos := Position{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
	vel := Velocity{}
	spark := Spark{Life: flashLife, MaxLife: flashLife, Kind: KindFlash}
	s.mapper.NewEntity(&pos, &vel, &spark)
	s.live++
}

// View is a renderer-facing snapshot of one spark.
type View struct {
	X, Y, Z float32
	Fade    float32 // 1 fresh, 0 expired
	Kind    uint8
}

// CollectInto appends a view of every live spark to dst and returns the
// updated slice. Reuse dst across frames to avoid allocations.
func (s *System) CollectInto(dst []View) []View {
	query := s.filter.Query()
	for query.Next() {
		pos, _, spark := query.Get()
		dst = append(dst, View{
			X:    pos.X,
			Y:    pos.Y,
			Z:    pos.Z,
			Fade: spark.Life / spark.MaxLife,
			Kind: spark.Kind,
		})
	}
	return dst
}
