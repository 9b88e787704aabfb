package vedo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LandmarkMode selects how many degrees of freedom a landmark fit uses.
type LandmarkMode int

const (
	// ModeRigidBody fits rotation and translation only.
	ModeRigidBody LandmarkMode = iota
	// ModeSimilarity fits rotation, translation and one uniform scale.
	ModeSimilarity
	// ModeAffine fits a general 12-parameter affine mapping.
	ModeAffine
)

// LandmarkTransform holds the best-fit transform mapping a set of source
// points onto paired target points, in the least-squares sense. Its
// matrix can seed a LinearTransform via NewFromLandmarks.
//
// Rigid-body and similarity fits use Horn's closed-form quaternion
// solution: the unit quaternion maximizing the alignment is the
// eigenvector of a 4x4 symmetric matrix built from the point
// cross-covariance, computed here with cyclic Jacobi sweeps.
type LandmarkTransform struct {
	mode   LandmarkMode
	matrix mgl64.Mat4
}

// NewLandmarkTransform fits source onto target. The two sets must be
// paired index-by-index; a length mismatch, fewer than 3 points, or a
// degenerate affine configuration yields an InvalidTransformError.
func NewLandmarkTransform(source, target []mgl64.Vec3, mode LandmarkMode) (*LandmarkTransform, error) {
	if len(source) != len(target) {
		return nil, &InvalidTransformError{Reason: "landmark point sets differ in length"}
	}
	if len(source) < 3 {
		return nil, &InvalidTransformError{Reason: "landmark fit needs at least 3 point pairs"}
	}

	lt := &LandmarkTransform{mode: mode}
	var err error
	switch mode {
	case ModeAffine:
		lt.matrix, err = fitAffine(source, target)
	default:
		lt.matrix, err = fitRigid(source, target, mode == ModeSimilarity)
	}
	if err != nil {
		return nil, err
	}
	return lt, nil
}

// Mode returns the fit mode.
func (lt *LandmarkTransform) Mode() LandmarkMode {
	return lt.mode
}

// Matrix returns the fitted 4x4 matrix.
func (lt *LandmarkTransform) Matrix() mgl64.Mat4 {
	return lt.matrix
}

func centroid(points []mgl64.Vec3) mgl64.Vec3 {
	var c mgl64.Vec3
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(points)))
}

func fitRigid(source, target []mgl64.Vec3, withScale bool) (mgl64.Mat4, error) {
	cs := centroid(source)
	ct := centroid(target)

	// Cross-covariance of the centered point sets.
	var s [3][3]float64
	var srcNorm2 float64
	for i := range source {
		a := source[i].Sub(cs)
		b := target[i].Sub(ct)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				s[r][c] += a[r] * b[c]
			}
		}
		srcNorm2 += a.Dot(a)
	}

	// Horn's 4x4 symmetric matrix; its largest-eigenvalue eigenvector is
	// the optimal unit quaternion.
	n := [4][4]float64{
		{s[0][0] + s[1][1] + s[2][2], s[1][2] - s[2][1], s[2][0] - s[0][2], s[0][1] - s[1][0]},
		{s[1][2] - s[2][1], s[0][0] - s[1][1] - s[2][2], s[0][1] + s[1][0], s[2][0] + s[0][2]},
		{s[2][0] - s[0][2], s[0][1] + s[1][0], -s[0][0] + s[1][1] - s[2][2], s[1][2] + s[2][1]},
		{s[0][1] - s[1][0], s[2][0] + s[0][2], s[1][2] + s[2][1], -s[0][0] - s[1][1] + s[2][2]},
	}

	ev := largestEigenvector4(n)
	q := mgl64.Quat{W: ev[0], V: mgl64.Vec3{ev[1], ev[2], ev[3]}}.Normalize()
	rot := q.Mat4()

	scale := 1.0
	if withScale && srcNorm2 > 0 {
		var dot float64
		for i := range source {
			a := q.Rotate(source[i].Sub(cs))
			dot += target[i].Sub(ct).Dot(a)
		}
		scale = dot / srcNorm2
	}

	m := mgl64.Translate3D(ct.X(), ct.Y(), ct.Z()).
		Mul4(mgl64.Scale3D(scale, scale, scale)).
		Mul4(rot).
		Mul4(mgl64.Translate3D(-cs.X(), -cs.Y(), -cs.Z()))
	return m, nil
}

func fitAffine(source, target []mgl64.Vec3) (mgl64.Mat4, error) {
	if len(source) < 4 {
		return mgl64.Mat4{}, &InvalidTransformError{Reason: "affine landmark fit needs at least 4 point pairs"}
	}

	// Normal equations on homogeneous coordinates:
	// A = (sum of t~ x~^T) * (sum of x~ x~^T)^-1.
	var bm, cm mgl64.Mat4
	for i := range source {
		x := source[i].Vec4(1)
		t := target[i].Vec4(1)
		for r := 0; r < 4; r++ {
			for c := 0; c < 4; c++ {
				bm.Set(r, c, bm.At(r, c)+t[r]*x[c])
				cm.Set(r, c, cm.At(r, c)+x[r]*x[c])
			}
		}
	}

	if math.Abs(cm.Det()) < 1e-12 {
		return mgl64.Mat4{}, &InvalidTransformError{Reason: "degenerate landmark configuration for affine fit"}
	}
	return bm.Mul4(cm.Inv()), nil
}

// largestEigenvector4 returns the eigenvector of the largest eigenvalue
// of a symmetric 4x4 matrix, via cyclic Jacobi rotations.
func largestEigenvector4(a [4][4]float64) [4]float64 {
	var v [4][4]float64
	for i := 0; i < 4; i++ {
		v[i][i] = 1
	}

	for sweep := 0; sweep < 64; sweep++ {
		var off float64
		for p := 0; p < 3; p++ {
			for q := p + 1; q < 4; q++ {
				off += a[p][q] * a[p][q]
			}
		}
		if off < 1e-24 {
			break
		}

		for p := 0; p < 3; p++ {
			for q := p + 1; q < 4; q++ {
				if a[p][q] == 0 {
					continue
				}

				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				app := a[p][p] - t*a[p][q]
				aqq := a[q][q] + t*a[p][q]
				a[p][p], a[q][q] = app, aqq
				a[p][q], a[q][p] = 0, 0
				for k := 0; k < 4; k++ {
					if k == p || k == q {
						continue
					}
					akp := c*a[k][p] - s*a[k][q]
					akq := s*a[k][p] + c*a[k][q]
					a[k][p], a[p][k] = akp, akp
					a[k][q], a[q][k] = akq, akq
				}
				for k := 0; k < 4; k++ {
					vkp := c*v[k][p] - s*v[k][q]
					vkq := s*v[k][p] + c*v[k][q]
					v[k][p], v[k][q] = vkp, vkq
				}
			}
		}
	}

	best := 0
	for i := 1; i < 4; i++ {
		if a[i][i] > a[best][best] {
			best = i
		}
	}

	var ev [4]float64
	for k := 0; k < 4; k++ {
		ev[k] = v[k][best]
	}
	return ev
}
