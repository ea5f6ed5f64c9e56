package nyx

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func TestBasicMath(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}
	if !vectorsEqual(cross(a, b), []float64{0, 0, 1}) {
		t.Fatal("cross product incorrect")
	}
	if dot(a, b) != 0 {
		t.Fatal("dot product incorrect")
	}
	if !floats.EqualWithinAbs(norm([]float64{3, 4, 0}), 5, 1e-12) {
		t.Fatal("norm incorrect")
	}
	if sign(-3) != -1 || sign(3) != 1 {
		t.Fatal("sign incorrect")
	}
	if !floats.EqualWithinAbs(Deg2rad(180), math.Pi, 1e-12) {
		t.Fatal("Deg2rad incorrect")
	}
	if !floats.EqualWithinAbs(Rad2deg(math.Pi/2), 90, 1e-12) {
		t.Fatal("Rad2deg incorrect")
	}
}

func TestPseudoInverseSquare(t *testing.T) {
	m := mat64.NewDense(2, 2, []float64{4, 7, 2, 6})
	inv, err := PseudoInverse(m)
	if err != nil {
		t.Fatalf("square inverse failed: %s", err)
	}
	var id mat64.Dense
	id.Mul(inv, m)
	if !mat64.EqualApprox(&id, DenseIdentity(2), 1e-10) {
		t.Fatalf("M^-1 * M is not identity:\n%+v", id)
	}
}

func TestPseudoInverseWide(t *testing.T) {
	// More variables than objectives: M * M^+ must be identity.
	m := mat64.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	inv, err := PseudoInverse(m)
	if err != nil {
		t.Fatalf("wide pseudo inverse failed: %s", err)
	}
	r, c := inv.Dims()
	if r != 3 || c != 2 {
		t.Fatalf("expected a 3x2 pseudo inverse, got %dx%d", r, c)
	}
	var id mat64.Dense
	id.Mul(m, inv)
	if !mat64.EqualApprox(&id, DenseIdentity(2), 1e-10) {
		t.Fatalf("M * M^+ is not identity:\n%+v", id)
	}
}

func TestPseudoInverseTall(t *testing.T) {
	// More objectives than variables: M^+ * M must be identity.
	m := mat64.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 7})
	inv, err := PseudoInverse(m)
	if err != nil {
		t.Fatalf("tall pseudo inverse failed: %s", err)
	}
	var id mat64.Dense
	id.Mul(inv, m)
	if !mat64.EqualApprox(&id, DenseIdentity(2), 1e-10) {
		t.Fatalf("M^+ * M is not identity:\n%+v", id)
	}
}

func TestPseudoInverseSingular(t *testing.T) {
	m := mat64.NewDense(2, 2, []float64{1, 2, 2, 4})
	if _, err := PseudoInverse(m); !IsKind(err, SingularJacobian) {
		t.Fatalf("expected a singular Jacobian error, got %v", err)
	}
}
