// Package vedo provides a composable 3D affine transformation built on a
// concatenation stack of 4x4 homogeneous matrices.
//
// A LinearTransform accumulates translations, rotations and scalings in
// post-multiply order (each new operation is applied in the world frame,
// after everything already composed) and can be applied to single points
// or to whole geometric objects. Rotations and scalings can pivot around
// arbitrary points, not just the coordinate-system origin.
//
// All vectors and matrices are go-gl/mathgl mgl64 values.
package vedo

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// identityTolerance is the element-wise threshold under which a matrix is
// treated as the identity when applying a transform to geometry.
const identityTolerance = 1e-12

// InvalidTransformError reports input that cannot form a valid affine
// transform, such as a zero-length rotation axis or an ill-shaped matrix.
type InvalidTransformError struct {
	Reason string
}

func (e *InvalidTransformError) Error() string {
	return "vedo: invalid transform: " + e.Reason
}

// LinearTransform wraps a 4x4 homogeneous matrix plus the concatenation
// stack maintained by its Engine. All operations mutate the transform in
// place and return it for chaining; applying it to geometry mutates the
// geometry, never the transform.
//
// A LinearTransform is not safe for concurrent use.
type LinearTransform struct {
	engine      Engine
	inverseFlag bool
}

// New returns the identity transform, in post-multiply mode.
func New() *LinearTransform {
	return &LinearTransform{engine: NewMatrixStack()}
}

// NewFromMatrix returns a transform initialized from a 4x4 matrix. The
// matrix is not validated; a degenerate matrix propagates into later
// ill-defined geometric results.
func NewFromMatrix(m mgl64.Mat4) *LinearTransform {
	t := New()
	t.engine.SetMatrix(m)
	return t
}

// NewFromRows returns a transform initialized from a nested 3x3 or 4x4
// numeric array in row-major order. A 3x3 array occupies the upper-left
// block with the missing row and column identity-homogeneous. Any other
// shape yields an InvalidTransformError.
func NewFromRows(rows [][]float64) (*LinearTransform, error) {
	m, err := matrixFromRows(rows)
	if err != nil {
		return nil, err
	}
	return NewFromMatrix(m), nil
}

// NewFromLandmarks returns a transform initialized from a fitted
// point-correspondence transform.
func NewFromLandmarks(lt *LandmarkTransform) *LinearTransform {
	return NewFromMatrix(lt.Matrix())
}

func matrixFromRows(rows [][]float64) (mgl64.Mat4, error) {
	n := len(rows)
	if n != 3 && n != 4 {
		return mgl64.Mat4{}, &InvalidTransformError{Reason: fmt.Sprintf("matrix must be 3x3 or 4x4, got %d rows", n)}
	}
	m := mgl64.Ident4()
	for i := 0; i < n; i++ {
		if len(rows[i]) != n {
			return mgl64.Mat4{}, &InvalidTransformError{Reason: fmt.Sprintf("matrix row %d has %d elements, want %d", i, len(rows[i]), n)}
		}
		for j := 0; j < n; j++ {
			m.Set(i, j, rows[i][j])
		}
	}
	return m, nil
}

func (t *LinearTransform) String() string {
	m := t.Matrix()
	var b strings.Builder
	b.WriteString("Transformation Matrix 4x4:\n")
	for i := 0; i < 4; i++ {
		fmt.Fprintf(&b, "[%12.6f %12.6f %12.6f %12.6f]\n",
			m.At(i, 0), m.At(i, 1), m.At(i, 2), m.At(i, 3))
	}
	return b.String()
}

// ApplyToPoint maps a single point through the transform. Pure function,
// no side effect on the transform or its stack.
func (t *LinearTransform) ApplyToPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.engine.TransformPoint(p)
}

// ApplyTo transforms every point of obj in place and drops its locator
// caches, since they are keyed to the stale coordinates. The transform is
// recorded on the object for later introspection. When the current matrix
// is numerically the identity the geometry and its caches are left
// untouched. Object identity is preserved throughout.
//
// The caller must serialize access to obj while the mutation is underway.
func (t *LinearTransform) ApplyTo(obj Geometry) {
	obj.RecordTransform(t)

	if t.isIdentity() {
		return
	}

	obj.MapPoints(t.ApplyToPoint)
	obj.InvalidateLocators()
}

func (t *LinearTransform) isIdentity() bool {
	m := t.Matrix()
	id := mgl64.Ident4()
	for i := range m {
		if math.Abs(m[i]-id[i]) >= identityTolerance {
			return false
		}
	}
	return true
}

// Reset sets the matrix back to the identity and clears the accumulated
// stack entries.
func (t *LinearTransform) Reset() *LinearTransform {
	t.engine.Identity()
	return t
}

// Pop removes the most recently concatenated transform from the stack,
// exposing the composition of the remaining ones as current.
func (t *LinearTransform) Pop() *LinearTransform {
	t.engine.Pop()
	return t
}

// Invert replaces the transform with its algebraic inverse. The inverse
// flag tracks whether the transform is currently logically inverted; it
// is not resynchronized if the matrix is later mutated by other means.
func (t *LinearTransform) Invert() *LinearTransform {
	t.engine.Invert()
	t.inverseFlag = t.engine.InverseFlag()
	return t
}

// InverseFlag reports whether the transform currently represents its own
// inverse.
func (t *LinearTransform) InverseFlag() bool {
	return t.inverseFlag
}

// ComputeInverse returns a new transform holding the inverse matrix,
// without mutating the receiver.
func (t *LinearTransform) ComputeInverse() *LinearTransform {
	return NewFromMatrix(t.Matrix().Inv())
}

// Clone returns an independent transform with a deep copy of the matrix
// and the concatenation stack.
func (t *LinearTransform) Clone() *LinearTransform {
	return &LinearTransform{
		engine:      t.engine.Clone(),
		inverseFlag: t.inverseFlag,
	}
}

// Concatenate composes other's matrix into the transform and records it
// on the stack. With preMultiply the multiplication order is reversed for
// this single call only; the mode reverts to post-multiply afterwards.
func (t *LinearTransform) Concatenate(other *LinearTransform, preMultiply bool) *LinearTransform {
	if preMultiply {
		t.engine.PreMultiply()
	}
	t.engine.Concatenate(other.Matrix())
	t.engine.PostMultiply()
	return t
}

// ConcatenatedTransform returns the i-th transform in the composition
// history as an independent transform, in insertion order. Returns nil
// when i is out of range.
func (t *LinearTransform) ConcatenatedTransform(i int) *LinearTransform {
	if i < 0 || i >= t.engine.NumTransforms() {
		return nil
	}
	return NewFromMatrix(t.engine.TransformAt(i))
}

// NumConcatenatedTransforms returns the number of entries on the stack.
func (t *LinearTransform) NumConcatenatedTransforms() int {
	return t.engine.NumTransforms()
}

// Translate offsets the transform by p.
func (t *LinearTransform) Translate(p mgl64.Vec3) *LinearTransform {
	t.engine.Concatenate(mgl64.Translate3D(p.X(), p.Y(), p.Z()))
	return t
}

// Scale scales per axis around the transform's current position: the
// position is moved to the origin, scaled, and moved back. When the
// position is exactly zero the scale is applied directly, which is
// equivalent and avoids two no-op translations.
func (t *LinearTransform) Scale(s mgl64.Vec3) *LinearTransform {
	p := t.Position()
	if p.Len() > 0 {
		t.Translate(p.Mul(-1))
		t.scaleRaw(s)
		t.Translate(p)
	} else {
		t.scaleRaw(s)
	}
	return t
}

// ScaleUniform broadcasts f to all three axes and scales around the
// current position like Scale.
func (t *LinearTransform) ScaleUniform(f float64) *LinearTransform {
	return t.Scale(mgl64.Vec3{f, f, f})
}

// ScaleAround scales per axis around an explicit pivot point.
func (t *LinearTransform) ScaleAround(s, pivot mgl64.Vec3) *LinearTransform {
	t.Translate(pivot.Mul(-1))
	t.scaleRaw(s)
	t.Translate(pivot)
	return t
}

// ScaleAboutOrigin scales per axis about the world origin, with no pivot
// compensation.
func (t *LinearTransform) ScaleAboutOrigin(s mgl64.Vec3) *LinearTransform {
	t.scaleRaw(s)
	return t
}

func (t *LinearTransform) scaleRaw(s mgl64.Vec3) {
	t.engine.Concatenate(mgl64.Scale3D(s.X(), s.Y(), s.Z()))
}

// Rotate rotates by angle around an arbitrary axis passing through an
// arbitrary point. The angle is in degrees unless rad is true; the axis
// is normalized internally, and a zero-length axis yields an
// InvalidTransformError.
//
// The native rotation primitive only rotates about the transform's own
// origin, so the pivot is honored in two steps: the rotation quaternion
// is built from the half-angle and the normalized axis, the equivalent
// 3x3 rotation matrix tells where the current position must land after
// rotating around point, then the native axis-angle rotation is applied
// followed by a corrective translation onto that target position.
func (t *LinearTransform) Rotate(angle float64, axis, point mgl64.Vec3, rad bool) error {
	if axis.Len() == 0 {
		return &InvalidTransformError{Reason: "rotation axis has zero length"}
	}

	anglerad := angle
	if !rad {
		anglerad = mgl64.DegToRad(angle)
	}
	u := axis.Normalize()

	a := math.Cos(anglerad / 2)
	sn := math.Sin(anglerad / 2)
	b, c, d := -u.X()*sn, -u.Y()*sn, -u.Z()*sn
	aa, bb, cc, dd := a*a, b*b, c*c, d*d
	bc, ad, ac, ab, bd, cd := b*c, a*d, a*c, a*b, b*d, c*d

	v := t.Position().Sub(point)
	rv := mgl64.Vec3{
		(aa+bb-cc-dd)*v.X() + 2*(bc+ad)*v.Y() + 2*(bd-ac)*v.Z(),
		2*(bc-ad)*v.X() + (aa+cc-bb-dd)*v.Y() + 2*(cd+ab)*v.Z(),
		2*(bd+ac)*v.X() + 2*(cd-ab)*v.Y() + (aa+dd-bb-cc)*v.Z(),
	}.Add(point)

	t.engine.Concatenate(mgl64.HomogRotate3D(anglerad, u))
	t.Translate(rv.Sub(t.Position()))
	return nil
}

// RotateX rotates around the x-axis. The angle is in degrees unless rad
// is true. An optional pivot point brings the rotation around that point
// instead of the origin.
func (t *LinearTransform) RotateX(angle float64, rad bool, around ...mgl64.Vec3) *LinearTransform {
	return t.rotateAxis(mgl64.HomogRotate3DX, angle, rad, around)
}

// RotateY rotates around the y-axis. See RotateX.
func (t *LinearTransform) RotateY(angle float64, rad bool, around ...mgl64.Vec3) *LinearTransform {
	return t.rotateAxis(mgl64.HomogRotate3DY, angle, rad, around)
}

// RotateZ rotates around the z-axis. See RotateX.
func (t *LinearTransform) RotateZ(angle float64, rad bool, around ...mgl64.Vec3) *LinearTransform {
	return t.rotateAxis(mgl64.HomogRotate3DZ, angle, rad, around)
}

func (t *LinearTransform) rotateAxis(build func(float64) mgl64.Mat4, angle float64, rad bool, around []mgl64.Vec3) *LinearTransform {
	if !rad {
		angle = mgl64.DegToRad(angle)
	}

	if len(around) == 0 {
		t.engine.Concatenate(build(angle))
		return t
	}

	// Displacement needed to bring the pivot back to the origin.
	p := around[0]
	t.Translate(p.Mul(-1))
	t.engine.Concatenate(build(angle))
	t.Translate(p)
	return t
}

// SetPosition moves the transform to p with a pure translation by the
// delta from the current position; the rest of the matrix is untouched.
func (t *LinearTransform) SetPosition(p mgl64.Vec3) *LinearTransform {
	return t.Translate(p.Sub(t.Position()))
}

// SetPosition2D moves the transform to (x, y, 0). See SetPosition.
func (t *LinearTransform) SetPosition2D(x, y float64) *LinearTransform {
	return t.SetPosition(mgl64.Vec3{x, y, 0})
}

// SetScale sets the absolute per-axis scale by applying the corrective
// factor desired/current on each axis. An axis whose current scale is
// zero is left untouched. The correction is applied about the native
// origin with no pivot compensation, so after prior off-origin scaling
// the resulting matrix may differ from the naive expectation.
func (t *LinearTransform) SetScale(s mgl64.Vec3) *LinearTransform {
	cur := t.GetScale()
	f := mgl64.Vec3{1, 1, 1}
	for i := 0; i < 3; i++ {
		if cur[i] != 0 {
			f[i] = s[i] / cur[i]
		}
	}
	t.scaleRaw(f)
	return t
}

// SetScaleUniform sets the same absolute scale on all three axes. See
// SetScale.
func (t *LinearTransform) SetScaleUniform(f float64) *LinearTransform {
	return t.SetScale(mgl64.Vec3{f, f, f})
}

// GetScale returns the per-axis scale magnitudes decomposed from the
// current matrix.
func (t *LinearTransform) GetScale() mgl64.Vec3 {
	return t.engine.ScaleFactors()
}

// Orientation returns the Euler-angle decomposition of the current
// matrix, in degrees, in the engine's convention.
func (t *LinearTransform) Orientation() mgl64.Vec3 {
	return t.engine.Orientation()
}

// Position returns the translation component of the current matrix.
func (t *LinearTransform) Position() mgl64.Vec3 {
	return t.engine.Position()
}

// Matrix returns the full 4x4 matrix.
func (t *LinearTransform) Matrix() mgl64.Mat4 {
	return t.engine.Matrix()
}

// Matrix3x3 returns the upper-left 3x3 submatrix.
func (t *LinearTransform) Matrix3x3() mgl64.Mat3 {
	return t.engine.Matrix().Mat3()
}

// SetMatrix replaces the entire composition with m.
func (t *LinearTransform) SetMatrix(m mgl64.Mat4) *LinearTransform {
	t.engine.SetMatrix(m)
	return t
}

// SetMatrixRows replaces the entire composition element-by-element from a
// nested 3x3 or 4x4 row-major array. Any other shape yields an
// InvalidTransformError.
func (t *LinearTransform) SetMatrixRows(rows [][]float64) error {
	m, err := matrixFromRows(rows)
	if err != nil {
		return err
	}
	t.engine.SetMatrix(m)
	return nil
}
