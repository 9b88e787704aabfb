package vedo

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Engine is the matrix backend behind LinearTransform. It maintains the
// composed 4x4 matrix together with the ordered list of concatenated
// transforms, so individual operations remain retrievable and undoable.
//
// The interface isolates the composition logic from a particular math
// library; MatrixStack is the mgl64-backed implementation.
type Engine interface {
	// Identity resets the composition to the identity matrix.
	Identity()
	// SetMatrix replaces the whole composition with a single matrix.
	SetMatrix(m mgl64.Mat4)
	// Matrix returns the composed 4x4 matrix.
	Matrix() mgl64.Mat4

	// PreMultiply switches composition to the local frame: the next
	// concatenated matrix becomes the innermost factor.
	PreMultiply()
	// PostMultiply switches composition to the world frame: the next
	// concatenated matrix becomes the outermost factor. This is the
	// default mode.
	PostMultiply()
	// Concatenate composes m into the current matrix according to the
	// active multiplication mode and records it on the stack.
	Concatenate(m mgl64.Mat4)

	// Invert flips the engine between the composition and its inverse.
	Invert()
	// InverseFlag reports whether the engine currently reads out the
	// inverse of its composition.
	InverseFlag() bool

	// Pop removes the most recently concatenated transform.
	Pop()
	// NumTransforms returns the number of stacked transforms.
	NumTransforms() int
	// TransformAt returns the i-th stacked matrix in insertion order.
	// i must be in [0, NumTransforms()).
	TransformAt(i int) mgl64.Mat4

	// Position returns the translation component of the composed matrix.
	Position() mgl64.Vec3
	// Orientation returns the Euler angles of the composed matrix in
	// degrees, for the Ry*Rx*Rz factorization with scale divided out.
	Orientation() mgl64.Vec3
	// ScaleFactors returns the per-axis scale magnitudes of the
	// composed matrix.
	ScaleFactors() mgl64.Vec3

	// TransformPoint maps a point through the composed matrix.
	TransformPoint(p mgl64.Vec3) mgl64.Vec3

	// Clone returns an independent deep copy of the engine state.
	Clone() Engine
}

// stackEntry stores one concatenated transform. Both directions are kept
// so that an inverted stack can keep accepting concatenations without
// re-deriving matrices. seq preserves insertion order across pre-multiply
// prepends and pops.
type stackEntry struct {
	forward mgl64.Mat4
	inverse mgl64.Mat4
	seq     int
}

// MatrixStack implements Engine on mgl64 matrices.
//
// entries[0] is the innermost factor, the first applied to a point; the
// composed matrix is entries[n-1].forward * ... * entries[0].forward.
// With the inverse flag set the read-out is the algebraic inverse,
// entries[0].inverse * ... * entries[n-1].inverse.
type MatrixStack struct {
	entries     []stackEntry
	preMultiply bool
	inverted    bool
	nextSeq     int
}

func NewMatrixStack() *MatrixStack {
	return &MatrixStack{}
}

func (ms *MatrixStack) Identity() {
	// The sequence counter survives a reset, so insertion order stays
	// monotonic across the life of the engine.
	ms.entries = ms.entries[:0]
	ms.preMultiply = false
	ms.inverted = false
}

func (ms *MatrixStack) SetMatrix(m mgl64.Mat4) {
	ms.Identity()
	ms.Concatenate(m)
}

func (ms *MatrixStack) Matrix() mgl64.Mat4 {
	m := mgl64.Ident4()
	if ms.inverted {
		for i := 0; i < len(ms.entries); i++ {
			m = m.Mul4(ms.entries[i].inverse)
		}
		return m
	}
	for i := len(ms.entries) - 1; i >= 0; i-- {
		m = m.Mul4(ms.entries[i].forward)
	}
	return m
}

func (ms *MatrixStack) PreMultiply() {
	ms.preMultiply = true
}

func (ms *MatrixStack) PostMultiply() {
	ms.preMultiply = false
}

func (ms *MatrixStack) Concatenate(m mgl64.Mat4) {
	e := stackEntry{forward: m, inverse: m.Inv(), seq: ms.nextSeq}
	ms.nextSeq++

	// An inverted stack reads entries in the opposite direction with the
	// opposite matrices, so a new transform is stored swapped and at the
	// opposite end to land on the intended side of the composition.
	outermost := !ms.preMultiply
	if ms.inverted {
		e.forward, e.inverse = e.inverse, e.forward
		outermost = !outermost
	}

	if outermost {
		ms.entries = append(ms.entries, e)
	} else {
		ms.entries = append([]stackEntry{e}, ms.entries...)
	}
}

func (ms *MatrixStack) Invert() {
	ms.inverted = !ms.inverted
}

func (ms *MatrixStack) InverseFlag() bool {
	return ms.inverted
}

func (ms *MatrixStack) Pop() {
	if len(ms.entries) == 0 {
		return
	}
	k := 0
	for i := range ms.entries {
		if ms.entries[i].seq > ms.entries[k].seq {
			k = i
		}
	}
	ms.entries = append(ms.entries[:k], ms.entries[k+1:]...)
}

func (ms *MatrixStack) NumTransforms() int {
	return len(ms.entries)
}

func (ms *MatrixStack) TransformAt(i int) mgl64.Mat4 {
	order := make([]int, len(ms.entries))
	for k := range order {
		order[k] = k
	}
	sort.Slice(order, func(a, b int) bool {
		return ms.entries[order[a]].seq < ms.entries[order[b]].seq
	})
	e := ms.entries[order[i]]
	if ms.inverted {
		return e.inverse
	}
	return e.forward
}

func (ms *MatrixStack) Position() mgl64.Vec3 {
	m := ms.Matrix()
	return mgl64.Vec3{m.At(0, 3), m.At(1, 3), m.At(2, 3)}
}

func (ms *MatrixStack) ScaleFactors() mgl64.Vec3 {
	m := ms.Matrix()
	var s mgl64.Vec3
	for col := 0; col < 3; col++ {
		s[col] = mgl64.Vec3{m.At(0, col), m.At(1, col), m.At(2, col)}.Len()
	}
	return s
}

// Orientation decomposes the rotation part as R = Ry(y) * Rx(x) * Rz(z)
// and returns (x, y, z) in degrees. Scale is divided out per column
// first; a zero-scale axis is left unscaled rather than divided by zero.
func (ms *MatrixStack) Orientation() mgl64.Vec3 {
	m := ms.Matrix()
	s := ms.ScaleFactors()

	var r [3][3]float64
	for col := 0; col < 3; col++ {
		d := s[col]
		if d == 0 {
			d = 1
		}
		for row := 0; row < 3; row++ {
			r[row][col] = m.At(row, col) / d
		}
	}

	// For R = Ry*Rx*Rz: r[1][2] = -sin(x), r[0][2]/r[2][2] = tan(y),
	// r[1][0]/r[1][1] = tan(z).
	x := math.Asin(clamp(-r[1][2], -1, 1))
	y := math.Atan2(r[0][2], r[2][2])
	z := math.Atan2(r[1][0], r[1][1])

	return mgl64.Vec3{mgl64.RadToDeg(x), mgl64.RadToDeg(y), mgl64.RadToDeg(z)}
}

func (ms *MatrixStack) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return ms.Matrix().Mul4x1(p.Vec4(1)).Vec3()
}

func (ms *MatrixStack) Clone() Engine {
	entries := make([]stackEntry, len(ms.entries))
	copy(entries, ms.entries)
	return &MatrixStack{
		entries:     entries,
		preMultiply: ms.preMultiply,
		inverted:    ms.inverted,
		nextSeq:     ms.nextSeq,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
