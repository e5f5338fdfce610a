// Package spatial provides a cell-hash index for per-frame neighbor queries
// over flat particle buffers.
//
// The grid stores particle indices (not pointers) and reuses bucket storage
// across frames to keep the rebuild path allocation-free after warm-up.
package spatial

import "fmt"

// Vec3 is a particle position in world units.
type Vec3 struct {
	X, Y, Z float32
}

// cellKey identifies a grid cell by its integer coordinates.
type cellKey struct {
	x, y, z int32
}

// Grid buckets particle indices into fixed-size 3D cells.
//
// Lifecycle is per-frame: Rebuild empties every bucket (keeping capacity)
// and repopulates from the position buffer. Nothing persists across frames
// except the backing storage.
type Grid struct {
	cellSize    float32
	invCellSize float32
	buckets     map[cellKey][]int32
}

// NewGrid creates a grid with the given cell size.
// Cell size must equal the proximity query radius: a one-cell stencil then
// covers the full interaction range.
func NewGrid(cellSize float32) (*Grid, error) {
	if cellSize <= 0 {
		return nil, fmt.Errorf("spatial: cell size must be positive, got %v", cellSize)
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		buckets:     make(map[cellKey][]int32, 256),
	}, nil
}

// CellSize returns the configured cell size.
func (g *Grid) CellSize() float32 {
	return g.cellSize
}

// Rebuild clears all buckets and re-inserts the first count particles from
// the position buffer. O(count) plus O(occupied cells) for the clear.
func (g *Grid) Rebuild(positions []Vec3, count int) {
	for k := range g.buckets {
		g.buckets[k] = g.buckets[k][:0]
	}
	if count > len(positions) {
		count = len(positions)
	}
	for i := 0; i < count; i++ {
		k := g.keyFor(positions[i])
		g.buckets[k] = append(g.buckets[k], int32(i))
	}
}

// NeighborsInto appends to dst the indices from the 27 cells surrounding p
// (the containing cell and its ±1 neighbors along each axis) and returns the
// updated slice. Order is bucket insertion order; buckets are disjoint so
// duplicates cannot occur. Reuse dst across calls to avoid allocations.
func (g *Grid) NeighborsInto(dst []int32, p Vec3) []int32 {
	center := g.keyFor(p)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				k := cellKey{center.x + dx, center.y + dy, center.z + dz}
				if bucket, ok := g.buckets[k]; ok {
					dst = append(dst, bucket...)
				}
			}
		}
	}
	return dst
}

// OccupiedCells returns the number of cells holding at least one particle.
func (g *Grid) OccupiedCells() int {
	n := 0
	for _, bucket := range g.buckets {
		if len(bucket) > 0 {
			n++
		}
	}
	return n
}

// keyFor computes the cell coordinates containing p.
func (g *Grid) keyFor(p Vec3) cellKey {
	return cellKey{
		x: floorDiv(p.X, g.invCellSize),
		y: floorDiv(p.Y, g.invCellSize),
		z: floorDiv(p.Z, g.invCellSize),
	}
}

// floorDiv returns floor(v/cellSize) using the precomputed reciprocal.
// int32 truncation rounds toward zero, so negative coordinates need the
// extra decrement to land in the right cell.
func floorDiv(v, inv float32) int32 {
	scaled := v * inv
	i := int32(scaled)
	if scaled < 0 && float32(i) != scaled {
		i--
	}
	return i
}
