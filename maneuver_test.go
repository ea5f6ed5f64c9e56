package nyx

import (
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestQuadraticPolynomial(t *testing.T) {
	p := QuadraticPolynomial{[3]float64{1, 2, 3}}
	if !floats.EqualWithinAbs(p.Eval(2), 1+4+12, 1e-12) {
		t.Fatalf("incorrect evaluation %f", p.Eval(2))
	}
	if !floats.EqualWithinAbs(p.Deriv(2), 2+12, 1e-12) {
		t.Fatalf("incorrect derivative %f", p.Deriv(2))
	}
	p.AddInOrder(0.5, 1)
	if p.Coeffs[1] != 2.5 {
		t.Fatalf("incorrect coefficient after AddInOrder: %f", p.Coeffs[1])
	}
	assertPanic(t, func() {
		p.AddInOrder(1, 3)
	})
}

func TestUnitVectorAngles(t *testing.T) {
	for _, angles := range [][2]float64{
		{0, 0},
		{0.3, -0.2},
		{-1.2, 0.8},
		{math.Pi / 2, 0},
	} {
		u := unitΔvFromAngles(angles[0], angles[1])
		if !floats.EqualWithinAbs(norm(u), 1, 1e-12) {
			t.Fatalf("thrust vector is not unit: %+v", u)
		}
		α, β := planeAnglesFromUnitVector(u)
		if !floats.EqualWithinAbs(α, angles[0], 1e-12) || !floats.EqualWithinAbs(β, angles[1], 1e-12) {
			t.Fatalf("angle round trip failed: got (%f, %f), want (%f, %f)", α, β, angles[0], angles[1])
		}
	}
}

func TestMnvrVector(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMnvr(start, start.Add(10*time.Minute))
	if m.ThrustLevel != 1 || m.Frame != RCN {
		t.Fatalf("incorrect defaults: %s", m)
	}
	if m.Duration() != 10*time.Minute {
		t.Fatalf("incorrect duration %s", m.Duration())
	}
	// Zeroed profiles point along the second axis.
	u := m.Vector(start.Add(3 * time.Minute))
	if !vectorsEqual(u, []float64{0, 1, 0}) {
		t.Fatalf("incorrect zero profile vector %+v", u)
	}
	m.AlphaInPlane = QuadraticPolynomial{[3]float64{math.Pi / 2, 0, 0}}
	u = m.Vector(start)
	if !floats.EqualWithinAbs(u[0], 1, 1e-12) {
		t.Fatalf("incorrect α=π/2 vector %+v", u)
	}
	// The profile is evaluated in seconds since the burn start.
	m.AlphaInPlane = QuadraticPolynomial{[3]float64{0, 0.01, 0}}
	u = m.Vector(start.Add(10 * time.Second))
	wantα := 0.1
	if !floats.EqualWithinAbs(u[0], math.Sin(wantα), 1e-12) {
		t.Fatalf("incorrect ramped vector %+v", u)
	}
}
