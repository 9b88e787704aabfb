package vedo

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestMatrixStackModes(t *testing.T) {
	a := mgl64.Translate3D(1, 0, 0)
	b := mgl64.Scale3D(2, 2, 2)

	t.Run("post-multiply composes outermost", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.Concatenate(a)
		ms.Concatenate(b)

		if !mat4Near(ms.Matrix(), b.Mul4(a), testEpsilon) {
			t.Errorf("matrix = %v, want b*a", ms.Matrix())
		}
	})

	t.Run("pre-multiply composes innermost", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.Concatenate(a)
		ms.PreMultiply()
		ms.Concatenate(b)

		if !mat4Near(ms.Matrix(), a.Mul4(b), testEpsilon) {
			t.Errorf("matrix = %v, want a*b", ms.Matrix())
		}
	})

	t.Run("mode is sticky until switched back", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.Concatenate(a)
		ms.PreMultiply()
		ms.Concatenate(b)
		ms.Concatenate(b)
		ms.PostMultiply()
		ms.Concatenate(a)

		want := a.Mul4(a.Mul4(b).Mul4(b))
		if !mat4Near(ms.Matrix(), want, testEpsilon) {
			t.Errorf("matrix = %v, want %v", ms.Matrix(), want)
		}
	})
}

func TestMatrixStackSetMatrix(t *testing.T) {
	ms := NewMatrixStack()
	ms.Concatenate(mgl64.Translate3D(1, 1, 1))
	ms.Concatenate(mgl64.Scale3D(3, 3, 3))

	m := mgl64.Translate3D(0, 9, 0)
	ms.SetMatrix(m)

	if !mat4Near(ms.Matrix(), m, 0) {
		t.Errorf("matrix = %v, want %v", ms.Matrix(), m)
	}
	if ms.NumTransforms() != 1 {
		t.Errorf("stack depth = %d, want 1", ms.NumTransforms())
	}
}

func TestMatrixStackInvert(t *testing.T) {
	m := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.HomogRotate3DZ(0.5))

	t.Run("reads out the inverse", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.SetMatrix(m)
		ms.Invert()

		if !ms.InverseFlag() {
			t.Errorf("inverse flag not reported")
		}
		if !mat4Near(ms.Matrix(), m.Inv(), testEpsilon) {
			t.Errorf("matrix = %v, want inverse of %v", ms.Matrix(), m)
		}
	})

	t.Run("concatenation while inverted composes on the read-out", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.SetMatrix(m)
		ms.Invert()

		tr := mgl64.Translate3D(0, 0, 5)
		ms.Concatenate(tr)

		want := tr.Mul4(m.Inv())
		if !mat4Near(ms.Matrix(), want, testEpsilon) {
			t.Errorf("matrix = %v, want %v", ms.Matrix(), want)
		}

		// Popping removes the concatenation, not the inverted base.
		ms.Pop()
		if !mat4Near(ms.Matrix(), m.Inv(), testEpsilon) {
			t.Errorf("matrix after pop = %v, want bare inverse", ms.Matrix())
		}
	})
}

func TestMatrixStackPop(t *testing.T) {
	a := mgl64.Translate3D(1, 0, 0)
	b := mgl64.Scale3D(2, 2, 2)

	t.Run("removes the newest entry even when pre-multiplied", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.Concatenate(a)
		ms.PreMultiply()
		ms.Concatenate(b) // stored innermost, but newest
		ms.PostMultiply()

		ms.Pop()

		if !mat4Near(ms.Matrix(), a, 0) {
			t.Errorf("matrix = %v, want only the first entry", ms.Matrix())
		}
	})

	t.Run("empty stack is a no-op", func(t *testing.T) {
		ms := NewMatrixStack()
		ms.Pop()
		if !mat4Near(ms.Matrix(), mgl64.Ident4(), 0) {
			t.Errorf("matrix = %v, want identity", ms.Matrix())
		}
	})
}

func TestMatrixStackTransformAt(t *testing.T) {
	a := mgl64.Translate3D(1, 0, 0)
	b := mgl64.Scale3D(2, 2, 2)
	c := mgl64.Translate3D(0, 0, 3)

	ms := NewMatrixStack()
	ms.Concatenate(a)
	ms.PreMultiply()
	ms.Concatenate(b)
	ms.PostMultiply()
	ms.Concatenate(c)

	if ms.NumTransforms() != 3 {
		t.Fatalf("stack depth = %d, want 3", ms.NumTransforms())
	}
	for i, want := range []mgl64.Mat4{a, b, c} {
		if got := ms.TransformAt(i); !mat4Near(got, want, 0) {
			t.Errorf("TransformAt(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestMatrixStackIdentity(t *testing.T) {
	ms := NewMatrixStack()
	ms.Concatenate(mgl64.Translate3D(1, 2, 3))
	ms.PreMultiply()
	ms.Invert()

	ms.Identity()

	if !mat4Near(ms.Matrix(), mgl64.Ident4(), 0) {
		t.Errorf("matrix = %v, want identity", ms.Matrix())
	}
	if ms.NumTransforms() != 0 {
		t.Errorf("stack depth = %d, want 0", ms.NumTransforms())
	}
	if ms.InverseFlag() {
		t.Errorf("inverse flag should be cleared")
	}

	// Post-multiply mode is restored as well.
	a := mgl64.Translate3D(1, 0, 0)
	b := mgl64.Scale3D(2, 2, 2)
	ms.Concatenate(a)
	ms.Concatenate(b)
	if !mat4Near(ms.Matrix(), b.Mul4(a), testEpsilon) {
		t.Errorf("mode not reset to post-multiply")
	}
}

func TestMatrixStackDecompose(t *testing.T) {
	// T * Ry * Rx * Rz * S built from primitives.
	ms := NewMatrixStack()
	ms.Concatenate(mgl64.Scale3D(2, 3, 4))
	ms.Concatenate(mgl64.HomogRotate3DZ(mgl64.DegToRad(50)))
	ms.Concatenate(mgl64.HomogRotate3DX(mgl64.DegToRad(30)))
	ms.Concatenate(mgl64.HomogRotate3DY(mgl64.DegToRad(40)))
	ms.Concatenate(mgl64.Translate3D(5, 6, 7))

	if got := ms.Position(); !vec3Near(got, mgl64.Vec3{5, 6, 7}, testEpsilon) {
		t.Errorf("position = %v, want (5,6,7)", got)
	}
	if got := ms.ScaleFactors(); !vec3Near(got, mgl64.Vec3{2, 3, 4}, testEpsilon) {
		t.Errorf("scale = %v, want (2,3,4)", got)
	}
	if got := ms.Orientation(); !vec3Near(got, mgl64.Vec3{30, 40, 50}, testEpsilon) {
		t.Errorf("orientation = %v, want (30,40,50)", got)
	}
}

func TestMatrixStackTransformPoint(t *testing.T) {
	ms := NewMatrixStack()
	ms.Concatenate(mgl64.Scale3D(2, 2, 2))
	ms.Concatenate(mgl64.Translate3D(1, 0, 0))

	got := ms.TransformPoint(mgl64.Vec3{1, 1, 1})
	if !vec3Near(got, mgl64.Vec3{3, 2, 2}, testEpsilon) {
		t.Errorf("point = %v, want (3,2,2)", got)
	}
}

func TestMatrixStackClone(t *testing.T) {
	ms := NewMatrixStack()
	ms.Concatenate(mgl64.Translate3D(1, 2, 3))
	ms.Invert()

	clone := ms.Clone()
	clone.Concatenate(mgl64.Scale3D(9, 9, 9))
	clone.Invert()

	if !mat4Near(ms.Matrix(), mgl64.Translate3D(1, 2, 3).Inv(), testEpsilon) {
		t.Errorf("mutating the clone changed the source: %v", ms.Matrix())
	}
	if !ms.InverseFlag() {
		t.Errorf("source inverse flag changed")
	}
}
