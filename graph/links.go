// Package graph builds the per-frame proximity graph: the set of particle
// pairs close enough to draw a connecting line between, bounded to a fixed
// worst-case cost regardless of particle density.
package graph

import (
	"fmt"
	"math"

	"github.com/pthm-cable/filament/spatial"
)

// Edge connects two particles by buffer index. Strength is 1.0 at zero
// distance and 0.0 at the connection boundary; the renderer uses it as an
// opacity blend input.
type Edge struct {
	A, B     int32
	Strength float32
}

// Params bounds the work done per frame.
type Params struct {
	// ConnectionDistance is the maximum edge length (inclusive). The
	// spatial grid feeding Build must use this as its cell size.
	ConnectionDistance float32
	// MaxPerParticle caps the degree of any single particle.
	MaxPerParticle int
	// ScanLimit caps neighbor candidates examined per particle. This is an
	// early-exit bound independent of how many candidates qualify, so dense
	// clusters cannot blow the frame budget.
	ScanLimit int
	// MaxSegments caps the total edge count per frame.
	MaxSegments int
}

// Validate reports the first invalid budget.
func (p Params) Validate() error {
	if p.ConnectionDistance <= 0 {
		return fmt.Errorf("graph: connection distance must be positive, got %v", p.ConnectionDistance)
	}
	if p.MaxPerParticle <= 0 {
		return fmt.Errorf("graph: max connections per particle must be positive, got %d", p.MaxPerParticle)
	}
	if p.ScanLimit <= 0 {
		return fmt.Errorf("graph: neighbour scan limit must be positive, got %d", p.ScanLimit)
	}
	if p.MaxSegments <= 0 {
		return fmt.Errorf("graph: max segments must be positive, got %d", p.MaxSegments)
	}
	return nil
}

// Builder produces a fresh edge list each frame. Scratch buffers (degree
// counts, neighbor candidates) are reused across frames.
type Builder struct {
	params  Params
	degrees []int32
	scratch []int32
}

// NewBuilder creates a builder with validated budgets.
func NewBuilder(params Params) (*Builder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Builder{
		params:  params,
		scratch: make([]int32, 0, 128),
	}, nil
}

// Params returns the builder's budgets.
func (b *Builder) Params() Params {
	return b.params
}

// Build appends edges to dst[:0] and returns the updated slice.
//
// Guarantees: both endpoints of every edge are within ConnectionDistance
// (inclusive); no particle appears in more than MaxPerParticle edges; at
// most ScanLimit candidates are examined per particle; the total never
// exceeds MaxSegments. Each unordered pair is evaluated once (only
// candidates with index j > i are considered). Edge ordering follows grid
// insertion order and is not stable across frames.
func (b *Builder) Build(dst []Edge, positions []spatial.Vec3, count int, grid *spatial.Grid) []Edge {
	dst = dst[:0]
	if count <= 0 {
		return dst
	}
	if count > len(positions) {
		count = len(positions)
	}

	if cap(b.degrees) < count {
		b.degrees = make([]int32, count)
	}
	b.degrees = b.degrees[:count]
	for i := range b.degrees {
		b.degrees[i] = 0
	}

	maxDist := b.params.ConnectionDistance
	maxDistSq := maxDist * maxDist
	maxPer := int32(b.params.MaxPerParticle)

	for i := 0; i < count; i++ {
		if len(dst) >= b.params.MaxSegments {
			break
		}
		if b.degrees[i] >= maxPer {
			continue
		}

		pi := positions[i]
		b.scratch = grid.NeighborsInto(b.scratch[:0], pi)

		scanned := 0
		for _, j := range b.scratch {
			if int(j) <= i {
				continue
			}
			if scanned >= b.params.ScanLimit {
				break
			}
			scanned++

			if b.degrees[j] >= maxPer {
				continue
			}

			pj := positions[j]
			dx := pj.X - pi.X
			dy := pj.Y - pi.Y
			dz := pj.Z - pi.Z
			distSq := dx*dx + dy*dy + dz*dz
			if distSq > maxDistSq {
				continue
			}

			dist := float32(math.Sqrt(float64(distSq)))
			dst = append(dst, Edge{
				A:        int32(i),
				B:        j,
				Strength: 1 - dist/maxDist,
			})
			b.degrees[i]++
			b.degrees[j]++

			if b.degrees[i] >= maxPer || len(dst) >= b.params.MaxSegments {
				break
			}
		}
	}

	return dst
}
