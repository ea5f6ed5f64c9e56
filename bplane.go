package nyx

import (
	"fmt"
	"math"
)

// BPlane stores the B-plane parameters of a hyperbolic orbit. Each parameter is
// a dual: it carries its exact partials with respect to the six Cartesian
// components of the state it was computed from.
type BPlane struct {
	Orbit        Orbit
	BR, BT, LTOF Dual
}

func (b BPlane) String() string {
	return fmt.Sprintf("BR=%.8f\tBT=%.8f", b.BR.Real, b.BT.Real)
}

// NewBPlaneFromDual returns the B-plane of the provided dual orbit.
// Errors if the orbit is not hyperbolic.
func NewBPlaneFromDual(od OrbitDual) (BPlane, error) {
	e := od.Ecc()
	if e.Real <= 1 {
		return BPlane{}, fmt.Errorf("B-plane is only defined for hyperbolic orbits (e=%.4f)", e.Real)
	}
	// Some of this is quite similar to RV2COE.
	hHat := dualUnit(od.HVec())
	eVec := od.EVec()
	r := od.Rmag()
	a := od.SMA()
	c := a.Mul(e)
	b := c.Mul(c).Sub(a.Mul(a)).Sqrt()

	// Compute the B plane frame.
	heVec := dualUnit(dualCross(hHat, eVec))
	β := newDual(1).Div(e).Acos()
	sinβ := β.Sin()
	cosβ := β.Cos()
	var sHat [3]Dual
	for i := 0; i < 3; i++ {
		sHat[i] = cosβ.Mul(eVec[i]).Div(e).Add(sinβ.Mul(heVec[i]))
	}
	k := [3]Dual{newDual(0), newDual(0), newDual(1)}
	tHat := dualUnit(dualCross(sHat, k))
	rHat := dualUnit(dualCross(sHat, tHat))
	bVec := dualCross(sHat, hHat)
	for i := 0; i < 3; i++ {
		bVec[i] = bVec[i].Mul(b)
	}
	bT := dualDot(bVec, tHat)
	bR := dualDot(bVec, rHat)

	// Linearized time of flight from the current radius to the B-plane crossing.
	e21 := e.Mul(e).AddReal(-1)
	νB := β.flipAround(math.Pi / 2)
	νR := a.Scale(-1).Mul(e21).Div(r.Mul(e)).Sub(newDual(1).Div(e)).Acos()
	fB := νB.Sin().Mul(e21.Sqrt()).Div(e.Mul(νB.Cos()).AddReal(1)).Asinh()
	fR := νR.Sin().Mul(e21.Sqrt()).Div(e.Mul(νR.Cos()).AddReal(1)).Asinh()
	n := newDual(od.Origin.μ).Div(a.Scale(-1).Pow(3)).Sqrt()
	ltof := e.Mul(fB.Sinh()).Sub(fB).Sub(e.Mul(fR.Sinh()).Sub(fR)).Div(n)

	return BPlane{Orbit: od.Orbit(), BR: bR, BT: bT, LTOF: ltof}, nil
}

// NewBPlane returns the B-plane of the provided orbit.
func NewBPlane(o Orbit) (BPlane, error) {
	return NewBPlaneFromDual(NewOrbitDual(o))
}
