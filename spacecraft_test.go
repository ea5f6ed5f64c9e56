package nyx

import (
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestSpacecraftMassAndClone(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orbit := NewOrbitFromOE(8000, 0.1, 30, 45, 10, 5, Earth)
	sc := NewSpacecraft("cloner", 400, 60, orbit, epoch, NewGenericEP(5, 3000))
	if sc.Mass() != 460 {
		t.Fatalf("incorrect mass %f", sc.Mass())
	}
	if sc.Mode != Coast {
		t.Fatal("a new spacecraft must coast")
	}
	clone := sc.Clone()
	clone.Orbit.ApplyΔv([]float64{1, 0, 0})
	if vectorsEqual(sc.Orbit.V(), clone.Orbit.V()) {
		t.Fatal("clone shares the orbit with the original")
	}
	thrusting := sc.WithGuidanceMode(Thrust)
	if thrusting.Mode != Thrust || sc.Mode != Coast {
		t.Fatal("WithGuidanceMode must not mutate the receiver")
	}
}

func TestSpacecraftWithΔv(t *testing.T) {
	epoch := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	orbit := NewOrbitFromRV([]float64{8000, 0, 0}, []float64{0, 7, 0}, Earth)
	sc := NewEmptySC("dv", 400, orbit, epoch)
	kicked := sc.WithΔv([]float64{0, 0.2, 0})
	if !floats.EqualWithinAbs(kicked.Orbit.V()[1], 7.2, 1e-12) {
		t.Fatalf("Δv not applied: %+v", kicked.Orbit.V())
	}
	if sc.Orbit.V()[1] != 7 {
		t.Fatal("WithΔv must not mutate the receiver")
	}
}

func TestExhaustVelocity(t *testing.T) {
	thruster := NewGenericEP(10, 3000)
	if !floats.EqualWithinAbs(ExhaustVelocity(thruster), 3000*g0, 1e-9) {
		t.Fatalf("incorrect exhaust velocity %f", ExhaustVelocity(thruster))
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := nyxConfig()
	if cfg.maxIterations <= 0 {
		t.Fatalf("incorrect iteration budget %d", cfg.maxIterations)
	}
}
