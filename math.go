package nyx

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	deg2rad = math.Pi / 180
)

// norm returns the norm of a given vector which is supposed to be 3x1.
func norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// unit returns the unit vector of a given vector.
func unit(a []float64) (b []float64) {
	n := norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return []float64{0, 0, 0}
	}
	b = make([]float64, len(a))
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// sign returns the sign of a given number.
func sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// dot performs the inner product.
func dot(a, b []float64) float64 {
	return mat64.Dot(mat64.NewVector(len(a), a), mat64.NewVector(len(b), b))
}

// cross performs the cross product.
func cross(a, b []float64) []float64 {
	return []float64{a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0]} // Cross product R x V.
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	if a < 0 {
		a += 360
	}
	return math.Mod(a*deg2rad, 2*math.Pi)
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	if a < 0 {
		a += 2 * math.Pi
	}
	return math.Mod(a/deg2rad, 360)
}

// PseudoInverse returns the Moore-Penrose pseudo-inverse of the provided matrix.
// For a wide matrix it computes Mᵀ(MMᵀ)⁻¹ and for a square or tall one (MᵀM)⁻¹Mᵀ,
// which minimizes the least-squares residual for non-square systems. A numerically
// singular product surfaces as a SingularJacobian error.
func PseudoInverse(m *mat64.Dense) (*mat64.Dense, error) {
	rows, cols := m.Dims()
	if rows == 0 || cols == 0 {
		return nil, newTargetingError(SingularJacobian, "cannot invert a %dx%d matrix", rows, cols)
	}
	var pinv mat64.Dense
	if rows < cols {
		var mmt, inv mat64.Dense
		mmt.Mul(m, m.T())
		if err := inv.Inverse(&mmt); err != nil {
			return nil, newTargetingError(SingularJacobian, "%s", err)
		}
		pinv.Mul(m.T(), &inv)
	} else {
		var mtm, inv mat64.Dense
		mtm.Mul(m.T(), m)
		if err := inv.Inverse(&mtm); err != nil {
			return nil, newTargetingError(SingularJacobian, "%s", err)
		}
		pinv.Mul(&inv, m.T())
	}
	return &pinv, nil
}
