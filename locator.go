package vedo

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// cellKey - coordinates of a cell in 3D space
type cellKey struct {
	X, Y, Z int
}

// cell - container of point indices falling into one grid cell
type cell struct {
	pointIndices []int
}

// PointLocator is a uniform spatial grid with hashing over a fixed point
// set, answering closest-point and radius queries. Geometric objects
// build one lazily and drop it whenever their points move; the index is
// only valid for the coordinates it was built from.
type PointLocator struct {
	points   []mgl64.Vec3
	bounds   AABB
	cellSize float64
	cells    []cell
	cellMask int
}

// NewPointLocator builds a locator over points with the given cell size.
// A non-positive cell size is replaced by a heuristic derived from the
// point bounds. The point slice is not copied; the caller must not move
// the points while the locator is alive.
func NewPointLocator(points []mgl64.Vec3, cellSize float64) *PointLocator {
	bounds := BoundsOf(points)
	if cellSize <= 0 {
		cellSize = defaultCellSize(bounds, len(points))
	}

	numCells := nextPowerOfTwo(len(points))
	cells := make([]cell, numCells)

	pl := &PointLocator{
		points:   points,
		bounds:   bounds,
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}

	for i, p := range points {
		idx := pl.hashCell(pl.worldToCell(p))
		pl.cells[idx].pointIndices = append(pl.cells[idx].pointIndices, i)
	}
	return pl
}

// defaultCellSize aims for roughly one point per cell along the longest
// edge of the bounds.
func defaultCellSize(bounds AABB, n int) float64 {
	size := bounds.Size()
	longest := max(size.X(), size.Y(), size.Z())
	if longest <= 0 || n == 0 {
		return 1
	}
	return longest / math.Cbrt(float64(n))
}

// nextPowerOfTwo rounds n up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// NumPoints returns the number of indexed points.
func (pl *PointLocator) NumPoints() int {
	return len(pl.points)
}

// Bounds returns the bounding box of the indexed points.
func (pl *PointLocator) Bounds() AABB {
	return pl.bounds
}

// Closest returns the index of the point nearest to p, or -1 when the
// locator is empty. Cells are scanned in expanding Chebyshev rings around
// p's cell; the search stops once no unscanned ring can hold a closer
// point.
func (pl *PointLocator) Closest(p mgl64.Vec3) int {
	if len(pl.points) == 0 {
		return -1
	}

	center := pl.worldToCell(p)
	minCell := pl.worldToCell(pl.bounds.Min)
	maxCell := pl.worldToCell(pl.bounds.Max)

	maxRing := 0
	for _, d := range []int{
		center.X - minCell.X, maxCell.X - center.X,
		center.Y - minCell.Y, maxCell.Y - center.Y,
		center.Z - minCell.Z, maxCell.Z - center.Z,
	} {
		maxRing = max(maxRing, d)
	}

	best := -1
	bestDist := math.Inf(1)
	visited := make([]bool, len(pl.cells))

	for ring := 0; ring <= maxRing; ring++ {
		// Points in a cell at Chebyshev ring r are at least
		// (r-1)*cellSize away from p.
		if best >= 0 && float64(ring-1)*pl.cellSize > bestDist {
			break
		}

		for x := center.X - ring; x <= center.X+ring; x++ {
			for y := center.Y - ring; y <= center.Y+ring; y++ {
				for z := center.Z - ring; z <= center.Z+ring; z++ {
					if max(abs(x-center.X), abs(y-center.Y), abs(z-center.Z)) != ring {
						continue
					}

					idx := pl.hashCell(cellKey{x, y, z})
					if visited[idx] {
						continue
					}
					visited[idx] = true

					for _, pi := range pl.cells[idx].pointIndices {
						d := pl.points[pi].Sub(p).Len()
						if d < bestDist {
							bestDist = d
							best = pi
						}
					}
				}
			}
		}
	}

	return best
}

// Within returns the indices of all points within radius of p, sorted
// ascending for deterministic output.
func (pl *PointLocator) Within(p mgl64.Vec3, radius float64) []int {
	if len(pl.points) == 0 || radius < 0 {
		return nil
	}

	r := mgl64.Vec3{radius, radius, radius}
	minCell := pl.worldToCell(p.Sub(r))
	maxCell := pl.worldToCell(p.Add(r))

	var found []int
	visited := make([]bool, len(pl.cells))

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				idx := pl.hashCell(cellKey{x, y, z})
				if visited[idx] {
					continue
				}
				visited[idx] = true

				for _, pi := range pl.cells[idx].pointIndices {
					if pl.points[pi].Sub(p).Len() <= radius {
						found = append(found, pi)
					}
				}
			}
		}
	}

	sort.Ints(found)
	return found
}

// worldToCell converts a world position to cell coordinates
func (pl *PointLocator) worldToCell(pos mgl64.Vec3) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X() / pl.cellSize)),
		Y: int(math.Floor(pos.Y() / pl.cellSize)),
		Z: int(math.Floor(pos.Z() / pl.cellSize)),
	}
}

// hashCell hashes a cell to an index in the cell array
func (pl *PointLocator) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & pl.cellMask
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
