package nyx

import (
	"fmt"
	"math"
)

// Dual is a forward-mode differentiable scalar: a value and its exact partial
// derivatives with respect to the six Cartesian components of an orbit state,
// in the order x, y, z, vx, vy, vz.
type Dual struct {
	Real     float64
	Partials [6]float64
}

func newDual(v float64) Dual {
	return Dual{Real: v}
}

// newDualComponent seeds the idx-th identity partial, turning this scalar into
// the idx-th independent variable.
func newDualComponent(v float64, idx int) Dual {
	d := Dual{Real: v}
	d.Partials[idx] = 1
	return d
}

// Add returns d + o.
func (d Dual) Add(o Dual) Dual {
	r := Dual{Real: d.Real + o.Real}
	for i := 0; i < 6; i++ {
		r.Partials[i] = d.Partials[i] + o.Partials[i]
	}
	return r
}

// Sub returns d - o.
func (d Dual) Sub(o Dual) Dual {
	r := Dual{Real: d.Real - o.Real}
	for i := 0; i < 6; i++ {
		r.Partials[i] = d.Partials[i] - o.Partials[i]
	}
	return r
}

// Mul returns d * o.
func (d Dual) Mul(o Dual) Dual {
	r := Dual{Real: d.Real * o.Real}
	for i := 0; i < 6; i++ {
		r.Partials[i] = d.Real*o.Partials[i] + o.Real*d.Partials[i]
	}
	return r
}

// Div returns d / o.
func (d Dual) Div(o Dual) Dual {
	r := Dual{Real: d.Real / o.Real}
	ooReal := o.Real * o.Real
	for i := 0; i < 6; i++ {
		r.Partials[i] = (d.Partials[i]*o.Real - d.Real*o.Partials[i]) / ooReal
	}
	return r
}

// Scale returns f * d for a constant f.
func (d Dual) Scale(f float64) Dual {
	r := Dual{Real: f * d.Real}
	for i := 0; i < 6; i++ {
		r.Partials[i] = f * d.Partials[i]
	}
	return r
}

// AddReal returns d + f for a constant f.
func (d Dual) AddReal(f float64) Dual {
	d.Real += f
	return d
}

// chain applies the scalar function of value v and derivative dv to this dual.
func (d Dual) chain(v, dv float64) Dual {
	r := Dual{Real: v}
	for i := 0; i < 6; i++ {
		r.Partials[i] = dv * d.Partials[i]
	}
	return r
}

// Sqrt returns the square root of this dual.
func (d Dual) Sqrt() Dual {
	v := math.Sqrt(d.Real)
	return d.chain(v, 1/(2*v))
}

// Pow returns this dual raised to the constant power p.
func (d Dual) Pow(p float64) Dual {
	return d.chain(math.Pow(d.Real, p), p*math.Pow(d.Real, p-1))
}

// Sin returns the sine of this dual.
func (d Dual) Sin() Dual {
	s, c := math.Sincos(d.Real)
	return d.chain(s, c)
}

// Cos returns the cosine of this dual.
func (d Dual) Cos() Dual {
	s, c := math.Sincos(d.Real)
	return d.chain(c, -s)
}

// Acos returns the arccosine of this dual.
func (d Dual) Acos() Dual {
	return d.chain(math.Acos(d.Real), -1/math.Sqrt(1-d.Real*d.Real))
}

// Asin returns the arcsine of this dual.
func (d Dual) Asin() Dual {
	return d.chain(math.Asin(d.Real), 1/math.Sqrt(1-d.Real*d.Real))
}

// Sinh returns the hyperbolic sine of this dual.
func (d Dual) Sinh() Dual {
	return d.chain(math.Sinh(d.Real), math.Cosh(d.Real))
}

// Asinh returns the inverse hyperbolic sine of this dual.
func (d Dual) Asinh() Dual {
	return d.chain(math.Asinh(d.Real), 1/math.Sqrt(d.Real*d.Real+1))
}

// Atan2 returns atan2(d, x).
func (d Dual) Atan2(x Dual) Dual {
	r := Dual{Real: math.Atan2(d.Real, x.Real)}
	den := x.Real*x.Real + d.Real*d.Real
	for i := 0; i < 6; i++ {
		r.Partials[i] = (x.Real*d.Partials[i] - d.Real*x.Partials[i]) / den
	}
	return r
}

// flipAround returns c - d for a constant c (used for angle quadrant checks).
func (d Dual) flipAround(c float64) Dual {
	r := Dual{Real: c - d.Real}
	for i := 0; i < 6; i++ {
		r.Partials[i] = -d.Partials[i]
	}
	return r
}

/* Dual 3-vector helpers */

func dualDot(a, b [3]Dual) Dual {
	return a[0].Mul(b[0]).Add(a[1].Mul(b[1])).Add(a[2].Mul(b[2]))
}

func dualCross(a, b [3]Dual) [3]Dual {
	return [3]Dual{
		a[1].Mul(b[2]).Sub(a[2].Mul(b[1])),
		a[2].Mul(b[0]).Sub(a[0].Mul(b[2])),
		a[0].Mul(b[1]).Sub(a[1].Mul(b[0]))}
}

func dualNorm(a [3]Dual) Dual {
	return dualDot(a, a).Sqrt()
}

func dualUnit(a [3]Dual) [3]Dual {
	n := dualNorm(a)
	return [3]Dual{a[0].Div(n), a[1].Div(n), a[2].Div(n)}
}

// OrbitDual is a forward-mode differentiable orbit: every derived parameter
// carries its exact partials with respect to the six Cartesian components.
type OrbitDual struct {
	X, Y, Z, VX, VY, VZ Dual
	Origin              CelestialObject
}

// NewOrbitDual seeds a dual orbit from the provided orbit.
func NewOrbitDual(o Orbit) OrbitDual {
	R, V := o.RV()
	return OrbitDual{
		X:      newDualComponent(R[0], 0),
		Y:      newDualComponent(R[1], 1),
		Z:      newDualComponent(R[2], 2),
		VX:     newDualComponent(V[0], 3),
		VY:     newDualComponent(V[1], 4),
		VZ:     newDualComponent(V[2], 5),
		Origin: o.Origin,
	}
}

// Orbit returns the real part of this dual orbit.
func (od OrbitDual) Orbit() Orbit {
	return Orbit{
		[]float64{od.X.Real, od.Y.Real, od.Z.Real},
		[]float64{od.VX.Real, od.VY.Real, od.VZ.Real},
		od.Origin}
}

func (od OrbitDual) rVec() [3]Dual {
	return [3]Dual{od.X, od.Y, od.Z}
}

func (od OrbitDual) vVec() [3]Dual {
	return [3]Dual{od.VX, od.VY, od.VZ}
}

// Rmag returns the radius magnitude.
func (od OrbitDual) Rmag() Dual {
	return dualNorm(od.rVec())
}

// Vmag returns the velocity magnitude.
func (od OrbitDual) Vmag() Dual {
	return dualNorm(od.vVec())
}

// HVec returns the angular momentum vector.
func (od OrbitDual) HVec() [3]Dual {
	return dualCross(od.rVec(), od.vVec())
}

// Energyξ returns the specific mechanical energy ξ.
func (od OrbitDual) Energyξ() Dual {
	v := od.Vmag()
	return v.Mul(v).Scale(0.5).Sub(newDual(od.Origin.μ).Div(od.Rmag()))
}

// SMA returns the semi-major axis.
func (od OrbitDual) SMA() Dual {
	return newDual(-od.Origin.μ / 2).Div(od.Energyξ())
}

// EVec returns the eccentricity vector.
func (od OrbitDual) EVec() [3]Dual {
	r := od.rVec()
	v := od.vVec()
	vv := dualDot(v, v)
	rv := dualDot(r, v)
	rm := od.Rmag()
	var e [3]Dual
	for i := 0; i < 3; i++ {
		e[i] = vv.Sub(newDual(od.Origin.μ).Div(rm)).Mul(r[i]).Sub(rv.Mul(v[i])).Scale(1 / od.Origin.μ)
	}
	return e
}

// Ecc returns the eccentricity.
func (od OrbitDual) Ecc() Dual {
	return dualNorm(od.EVec())
}

// Inc returns the inclination in degrees.
func (od OrbitDual) Inc() Dual {
	h := od.HVec()
	return h[2].Div(dualNorm(h)).Acos().Scale(1 / deg2rad)
}

// nodeVec returns the line of nodes vector.
func (od OrbitDual) nodeVec() [3]Dual {
	h := od.HVec()
	return [3]Dual{h[1].Scale(-1), h[0], newDual(0)}
}

// RAANΩ returns the right ascension of the ascending node in degrees.
func (od OrbitDual) RAANΩ() Dual {
	n := od.nodeVec()
	Ω := n[0].Div(dualNorm(n)).Acos()
	if n[1].Real < 0 { // Quadrant check
		Ω = Ω.flipAround(2 * math.Pi)
	}
	return Ω.Scale(1 / deg2rad)
}

// ArgPeriω returns the argument of periapsis in degrees.
func (od OrbitDual) ArgPeriω() Dual {
	n := od.nodeVec()
	e := od.EVec()
	ω := dualDot(n, e).Div(dualNorm(n).Mul(dualNorm(e))).Acos()
	if e[2].Real < 0 { // Quadrant check
		ω = ω.flipAround(2 * math.Pi)
	}
	return ω.Scale(1 / deg2rad)
}

// TrueAnomalyν returns the true anomaly in degrees.
func (od OrbitDual) TrueAnomalyν() Dual {
	e := od.EVec()
	r := od.rVec()
	ν := dualDot(e, r).Div(dualNorm(e).Mul(od.Rmag())).Acos()
	if dualDot(r, od.vVec()).Real < 0 { // Quadrant check
		ν = ν.flipAround(2 * math.Pi)
	}
	return ν.Scale(1 / deg2rad)
}

// PartialFor returns the dual of the provided state parameter: its achieved value
// and the exact partials with respect to the terminal Cartesian state.
// B-plane parameters must be read through NewBPlaneFromDual instead.
func (od OrbitDual) PartialFor(p StateParameter) (Dual, error) {
	switch p {
	case X:
		return od.X, nil
	case Y:
		return od.Y, nil
	case Z:
		return od.Z, nil
	case VX:
		return od.VX, nil
	case VY:
		return od.VY, nil
	case VZ:
		return od.VZ, nil
	case Rmag:
		return od.Rmag(), nil
	case Vmag:
		return od.Vmag(), nil
	case Energy:
		return od.Energyξ(), nil
	case SMA:
		return od.SMA(), nil
	case Eccentricity:
		return od.Ecc(), nil
	case Inclination:
		return od.Inc(), nil
	case RAAN:
		return od.RAANΩ(), nil
	case ArgPeri:
		return od.ArgPeriω(), nil
	case TrueAnomaly:
		return od.TrueAnomalyν(), nil
	case ApoapsisRadius:
		a := od.SMA()
		return a.Mul(od.Ecc().AddReal(1)), nil
	case PeriapsisRadius:
		a := od.SMA()
		return a.Mul(od.Ecc().Scale(-1).AddReal(1)), nil
	}
	return Dual{}, fmt.Errorf("no partial defined for %s", p)
}
