package nyx

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestDualArithmetic(t *testing.T) {
	x := newDualComponent(2, 0)
	y := newDualComponent(3, 1)
	sum := x.Add(y)
	if sum.Real != 5 || sum.Partials[0] != 1 || sum.Partials[1] != 1 {
		t.Fatalf("incorrect sum %+v", sum)
	}
	prod := x.Mul(y)
	if prod.Real != 6 || prod.Partials[0] != 3 || prod.Partials[1] != 2 {
		t.Fatalf("incorrect product %+v", prod)
	}
	sq := x.Pow(2)
	if sq.Real != 4 || !floats.EqualWithinAbs(sq.Partials[0], 4, 1e-12) {
		t.Fatalf("incorrect square %+v", sq)
	}
	sqrt := x.Sqrt()
	if !floats.EqualWithinAbs(sqrt.Real, math.Sqrt2, 1e-12) || !floats.EqualWithinAbs(sqrt.Partials[0], 1/(2*math.Sqrt2), 1e-12) {
		t.Fatalf("incorrect sqrt %+v", sqrt)
	}
	quot := x.Div(y)
	if !floats.EqualWithinAbs(quot.Real, 2/3., 1e-12) || !floats.EqualWithinAbs(quot.Partials[0], 1/3., 1e-12) {
		t.Fatalf("incorrect quotient %+v", quot)
	}
	s := x.Sin()
	if !floats.EqualWithinAbs(s.Partials[0], math.Cos(2), 1e-12) {
		t.Fatalf("incorrect sine derivative %+v", s)
	}
}

// perturbComponent returns the orbit with component j of the Cartesian state
// perturbed by h.
func perturbComponent(o Orbit, j int, h float64) Orbit {
	R, V := o.RV()
	nR := []float64{R[0], R[1], R[2]}
	nV := []float64{V[0], V[1], V[2]}
	if j < 3 {
		nR[j] += h
	} else {
		nV[j-3] += h
	}
	return *NewOrbitFromRV(nR, nV, o.Origin)
}

func TestOrbitDualPartials(t *testing.T) {
	o := *NewOrbitFromOE(8200, 0.18, 36, 140, 70, 250, Earth)
	od := NewOrbitDual(o)
	for _, p := range []StateParameter{Rmag, Vmag, Energy, SMA, Eccentricity, Inclination, RAAN, ArgPeri, TrueAnomaly, ApoapsisRadius, PeriapsisRadius} {
		dual, err := od.PartialFor(p)
		if err != nil {
			t.Fatalf("%s: %s", p, err)
		}
		val, err := o.Value(p)
		if err != nil {
			t.Fatalf("%s: %s", p, err)
		}
		if !floats.EqualWithinRel(dual.Real, val, 1e-9) {
			t.Fatalf("%s real part %f does not match value %f", p, dual.Real, val)
		}
		// Central finite differences on each Cartesian component.
		for j := 0; j < 6; j++ {
			h := 1e-5
			plus, err := perturbComponent(o, j, h).Value(p)
			if err != nil {
				t.Fatal(err)
			}
			minus, err := perturbComponent(o, j, -h).Value(p)
			if err != nil {
				t.Fatal(err)
			}
			fd := (plus - minus) / (2 * h)
			scale := math.Max(math.Abs(fd), math.Abs(dual.Partials[j]))
			if scale < 1e-8 {
				continue
			}
			if math.Abs(fd-dual.Partials[j])/scale > 1e-4 {
				t.Fatalf("%s partial wrt component %d: dual %e vs finite diff %e", p, j, dual.Partials[j], fd)
			}
		}
	}
}

func TestOrbitDualRealMatchesOrbit(t *testing.T) {
	o := *NewOrbitFromOE(26600, 0.72, 63.4, 90, 270, 10, Earth)
	od := NewOrbitDual(o)
	back := od.Orbit()
	if !vectorsEqual(o.R(), back.R()) || !vectorsEqual(o.V(), back.V()) {
		t.Fatal("dual orbit does not embed the original state")
	}
}
