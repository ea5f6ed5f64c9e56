package nyx

import (
	"errors"
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 km
	velocityε     = 1e-6                         // in km/s
)

// ReferenceFrame defines an enum of trajectory-local reference frames.
type ReferenceFrame uint8

const (
	// Inertial is the frame of the orbit vectors themselves.
	Inertial ReferenceFrame = iota
	// RIC is the radial / in-track / cross-track frame.
	RIC
	// VNC is the velocity / normal / co-normal frame.
	VNC
	// RCN is the radial / cross / normal frame.
	RCN
)

func (f ReferenceFrame) String() string {
	switch f {
	case Inertial:
		return "inertial"
	case RIC:
		return "RIC"
	case VNC:
		return "VNC"
	case RCN:
		return "RCN"
	}
	panic("cannot stringify unknown reference frame")
}

// Orbit defines an orbit via its radius and velocity vectors.
// The Keplerian elements are computed on demand from those vectors.
type Orbit struct {
	rVec, vVec []float64
	Origin     CelestialObject // Orbit origin
}

// R returns the radius vector.
func (o Orbit) R() []float64 {
	return o.rVec
}

// V returns the velocity vector.
func (o Orbit) V() []float64 {
	return o.vVec
}

// RV returns both the radius and the velocity vectors.
func (o Orbit) RV() ([]float64, []float64) {
	return o.rVec, o.vVec
}

// RNorm returns the norm of the radius vector.
func (o Orbit) RNorm() float64 {
	return norm(o.rVec)
}

// VNorm returns the norm of the velocity vector.
func (o Orbit) VNorm() float64 {
	return norm(o.vVec)
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	return math.Pow(o.VNorm(), 2)/2 - o.Origin.μ/o.RNorm()
}

// H returns the orbital angular momentum vector.
func (o Orbit) H() []float64 {
	return cross(o.rVec, o.vVec)
}

// HNorm returns the norm of the orbital angular momentum.
func (o Orbit) HNorm() float64 {
	return norm(o.H())
}

// Elements returns the Keplerian orbital elements a, e, i, Ω, ω, ν (angles in radians).
// From Vallado's RV2COE, page 113.
func (o Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	hVec := o.H()
	n := cross([]float64{0, 0, 1}, hVec)
	v := o.VNorm()
	r := o.RNorm()
	ξ := (v*v)/2 - o.Origin.μ/r
	a = -o.Origin.μ / (2 * ξ)
	eVec := make([]float64, 3)
	for j := 0; j < 3; j++ {
		eVec[j] = ((v*v-o.Origin.μ/r)*o.rVec[j] - dot(o.rVec, o.vVec)*o.vVec[j]) / o.Origin.μ
	}
	e = norm(eVec)
	i = math.Acos(hVec[2] / norm(hVec))
	Ω = math.Acos(n[0] / norm(n))
	if n[1] < 0 { // Quadrant check
		Ω = 2*math.Pi - Ω
	}
	ω = math.Acos(dot(n, eVec) / (norm(n) * e))
	if eVec[2] < 0 { // Quadrant check
		ω = 2*math.Pi - ω
	}
	ν = math.Acos(dot(eVec, o.rVec) / (e * r))
	if dot(o.rVec, o.vVec) < 0 { // Quadrant check
		ν = 2*math.Pi - ν
	}
	return
}

// SemiParameter returns the semi-parameter p.
func (o Orbit) SemiParameter() float64 {
	a, e, _, _, _, _ := o.Elements()
	return a * (1 - e*e)
}

// MeanMotion returns the mean motion n in rad/s, valid for elliptical and hyperbolic orbits.
func (o Orbit) MeanMotion() float64 {
	a, _, _, _, _, _ := o.Elements()
	return math.Sqrt(o.Origin.μ / math.Pow(math.Abs(a), 3))
}

// Period returns the period of this orbit.
func (o Orbit) Period() float64 {
	return 2 * math.Pi / o.MeanMotion()
}

// ApplyΔv applies the provided velocity change, in km/s.
func (o *Orbit) ApplyΔv(Δv []float64) {
	for i := 0; i < 3; i++ {
		o.vVec[i] += Δv[i]
	}
}

// Clone returns an independent deep copy of this orbit.
func (o Orbit) Clone() *Orbit {
	R := make([]float64, 3)
	V := make([]float64, 3)
	copy(R, o.rVec)
	copy(V, o.vVec)
	return &Orbit{R, V, o.Origin}
}

// DCMFromFrame returns the direction cosine matrix from the provided trajectory-local
// frame to the inertial frame: v_inertial = DCM * v_local. The columns are the local
// frame axes expressed in inertial coordinates.
func (o Orbit) DCMFromFrame(frame ReferenceFrame) (*mat64.Dense, error) {
	if frame == Inertial {
		return DenseIdentity(3), nil
	}
	rHat := unit(o.rVec)
	vHat := unit(o.vVec)
	hHat := unit(o.H())
	if norm(rHat) == 0 || norm(vHat) == 0 || norm(hHat) == 0 {
		return nil, newTargetingError(FrameError, "degenerate orbit for %s frame", frame)
	}
	var x, y, z []float64
	switch frame {
	case RIC:
		x, z = rHat, hHat
		y = cross(z, x)
	case VNC:
		x, y = vHat, hHat
		z = cross(x, y)
	case RCN:
		x, z = rHat, hHat
		y = cross(z, x)
	default:
		return nil, newTargetingError(FrameError, "unknown frame %d", frame)
	}
	return mat64.NewDense(3, 3, []float64{
		x[0], y[0], z[0],
		x[1], y[1], z[1],
		x[2], y[2], z[2]}), nil
}

// Value returns the value of the provided state parameter, including the derived ones.
// B-plane parameters are only defined on hyperbolic orbits.
func (o Orbit) Value(p StateParameter) (float64, error) {
	switch p {
	case X:
		return o.rVec[0], nil
	case Y:
		return o.rVec[1], nil
	case Z:
		return o.rVec[2], nil
	case VX:
		return o.vVec[0], nil
	case VY:
		return o.vVec[1], nil
	case VZ:
		return o.vVec[2], nil
	case Rmag:
		return o.RNorm(), nil
	case Vmag:
		return o.VNorm(), nil
	case Energy:
		return o.Energyξ(), nil
	}
	a, e, i, Ω, ω, ν := o.Elements()
	switch p {
	case SMA:
		return a, nil
	case Eccentricity:
		return e, nil
	case Inclination:
		return Rad2deg(i), nil
	case RAAN:
		return Rad2deg(Ω), nil
	case ArgPeri:
		return Rad2deg(ω), nil
	case TrueAnomaly:
		return Rad2deg(ν), nil
	case ApoapsisRadius:
		return a * (1 + e), nil
	case PeriapsisRadius:
		return a * (1 - e), nil
	case BdotR, BdotT, BLTOF:
		b, err := NewBPlane(o)
		if err != nil {
			return math.NaN(), err
		}
		switch p {
		case BdotR:
			return b.BR.Real, nil
		case BdotT:
			return b.BT.Real, nil
		default:
			return b.LTOF.Real, nil
		}
	}
	return math.NaN(), fmt.Errorf("cannot read %s from an orbit", p)
}

// SetValue sets the provided Cartesian component of this orbit.
// Only the six Cartesian components may be set.
func (o *Orbit) SetValue(p StateParameter, val float64) error {
	switch p {
	case X:
		o.rVec[0] = val
	case Y:
		o.rVec[1] = val
	case Z:
		o.rVec[2] = val
	case VX:
		o.vVec[0] = val
	case VY:
		o.vVec[1] = val
	case VZ:
		o.vVec[2] = val
	default:
		return fmt.Errorf("cannot set %s on an orbit", p)
	}
	return nil
}

// String implements the stringer interface (hence the value receiver)
func (o Orbit) String() string {
	a, e, i, Ω, ω, ν := o.Elements()
	return fmt.Sprintf("a=%.1f e=%.4f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", a, e, Rad2deg(i), Rad2deg(Ω), Rad2deg(ω), Rad2deg(ν))
}

// Equals returns whether two orbits are identical within the propagation tolerances.
func (o Orbit) Equals(o1 Orbit) (bool, error) {
	if !o.Origin.Equals(o1.Origin) {
		return false, errors.New("different origin")
	}
	a, e, i, Ω, _, _ := o.Elements()
	a1, e1, i1, Ω1, _, _ := o1.Elements()
	if !floats.EqualWithinAbs(a, a1, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !floats.EqualWithinAbs(e, e1, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !floats.EqualWithinAbs(i, i1, angleε) {
		return false, errors.New("inclination invalid")
	}
	if !floats.EqualWithinAbs(Ω, Ω1, angleε) {
		return false, errors.New("RAAN invalid")
	}
	return true, nil
}

// NewOrbitFromOE creates an orbit from the orbital elements.
// WARNING: Angles must be in degrees not radians.
func NewOrbitFromOE(a, e, i, Ω, ω, ν float64, c CelestialObject) *Orbit {
	// Making an approximation for circular and equatorial orbits.
	if e < eccentricityε {
		e = eccentricityε
	}
	if i < angleε/deg2rad {
		i = angleε / deg2rad
	}
	iR := Deg2rad(i)
	ΩR := Deg2rad(Ω)
	ωR := Deg2rad(ω)
	νR := Deg2rad(ν)
	p := a * (1 - e*e)
	sinν, cosν := math.Sincos(νR)
	rNorm := p / (1 + e*cosν)
	rPQW := []float64{rNorm * cosν, rNorm * sinν, 0}
	vFact := math.Sqrt(c.μ / p)
	vPQW := []float64{-vFact * sinν, vFact * (e + cosν), 0}
	R := Rot313Vec(-ωR, -iR, -ΩR, rPQW)
	V := Rot313Vec(-ωR, -iR, -ΩR, vPQW)
	return &Orbit{R, V, c}
}

// NewOrbitFromRV returns an orbit from the provided radius and velocity vectors.
func NewOrbitFromRV(R, V []float64, c CelestialObject) *Orbit {
	return &Orbit{R, V, c}
}
