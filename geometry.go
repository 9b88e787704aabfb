package vedo

import "github.com/go-gl/mathgl/mgl64"

const DEFAULT_WORKERS = 1

// Geometry is the contract a geometric object must satisfy to have a
// LinearTransform applied to it. The object owns its points; ApplyTo
// mutates them in place and never replaces the object itself.
type Geometry interface {
	// RecordTransform stores the transform that was last applied to the
	// object, for later introspection.
	RecordTransform(t *LinearTransform)
	// MapPoints replaces every point coordinate with fn(point), in place.
	MapPoints(fn func(p mgl64.Vec3) mgl64.Vec3)
	// InvalidateLocators drops any cached spatial-lookup structures,
	// which are keyed to the pre-mutation coordinates.
	InvalidateLocators()
}

// PointCloud is a minimal Geometry: a set of points with a lazily built
// point-locator cache. It assumes single-owner access; the caller must
// serialize reads and mutations.
type PointCloud struct {
	points  []mgl64.Vec3
	Workers int

	lastTransform *LinearTransform
	pointLocator  *PointLocator
}

// NewPointCloud copies points into a new cloud.
func NewPointCloud(points []mgl64.Vec3) *PointCloud {
	pts := make([]mgl64.Vec3, len(points))
	copy(pts, points)
	return &PointCloud{points: pts}
}

func (pc *PointCloud) NumPoints() int {
	return len(pc.points)
}

// Point returns the i-th point.
func (pc *PointCloud) Point(i int) mgl64.Vec3 {
	return pc.points[i]
}

// Points returns a copy of the point coordinates.
func (pc *PointCloud) Points() []mgl64.Vec3 {
	pts := make([]mgl64.Vec3, len(pc.points))
	copy(pts, pc.points)
	return pts
}

// Bounds returns the bounding box of the current coordinates.
func (pc *PointCloud) Bounds() AABB {
	return BoundsOf(pc.points)
}

// LastTransform returns the transform most recently applied to the
// cloud, or nil.
func (pc *PointCloud) LastTransform() *LinearTransform {
	return pc.lastTransform
}

func (pc *PointCloud) RecordTransform(t *LinearTransform) {
	pc.lastTransform = t
}

// MapPoints runs every point through fn in place, chunked over Workers
// goroutines. Each index is written by exactly one worker.
func (pc *PointCloud) MapPoints(fn func(p mgl64.Vec3) mgl64.Vec3) {
	task(max(DEFAULT_WORKERS, pc.Workers), len(pc.points), func(i int) {
		pc.points[i] = fn(pc.points[i])
	})
}

// InvalidateLocators drops the locator cache.
func (pc *PointCloud) InvalidateLocators() {
	pc.pointLocator = nil
}

// Locator returns the point locator for the current coordinates,
// building it on first use.
func (pc *PointCloud) Locator() *PointLocator {
	if pc.pointLocator == nil {
		pc.pointLocator = NewPointLocator(pc.points, 0)
	}
	return pc.pointLocator
}
