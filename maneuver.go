package nyx

import (
	"fmt"
	"math"
	"time"
)

// QuadraticPolynomial defines a quadratic steering profile a(t) = c₀ + c₁·t + c₂·t².
// Coefficient index 0 is the value, 1 the rate and 2 the curvature at t=0.
type QuadraticPolynomial struct {
	Coeffs [3]float64
}

// Eval returns the value of this polynomial at t seconds.
func (p QuadraticPolynomial) Eval(t float64) float64 {
	return p.Coeffs[0] + p.Coeffs[1]*t + p.Coeffs[2]*t*t
}

// Deriv returns the derivative of this polynomial at t seconds.
func (p QuadraticPolynomial) Deriv(t float64) float64 {
	return p.Coeffs[1] + 2*p.Coeffs[2]*t
}

// AddInOrder adds the provided value to the coefficient of the given order.
func (p *QuadraticPolynomial) AddInOrder(val float64, order int) {
	if order < 0 || order > 2 {
		panic(fmt.Errorf("order must be 0, 1 or 2, not %d", order))
	}
	p.Coeffs[order] += val
}

func (p QuadraticPolynomial) String() string {
	return fmt.Sprintf("%.6f + %.6f·t + %.6f·t²", p.Coeffs[0], p.Coeffs[1], p.Coeffs[2])
}

// unitΔvFromAngles returns the unit thrust vector from the in-plane angle α and
// the out-of-plane angle β, both in radians.
func unitΔvFromAngles(α, β float64) []float64 {
	sinα, cosα := math.Sincos(α)
	sinβ, cosβ := math.Sincos(β)
	return []float64{sinα * cosβ, cosα * cosβ, sinβ}
}

// planeAnglesFromUnitVector is the inverse of unitΔvFromAngles.
func planeAnglesFromUnitVector(u []float64) (α, β float64) {
	return math.Atan2(u[0], u[1]), math.Asin(u[2])
}

// Mnvr defines a finite burn: a time window, a thrust level and two quadratic
// steering profiles evaluated in the declared trajectory-local frame.
// It is mutated in place by the Targeter between iterations and read-only by
// the propagator during the burn window.
type Mnvr struct {
	Start, End     time.Time
	ThrustLevel    float64             // in [0, 1]
	AlphaInPlane   QuadraticPolynomial // in radians
	BetaOutOfPlane QuadraticPolynomial // in radians
	Frame          ReferenceFrame
}

// NewMnvr returns a maneuver with full thrust, zeroed profiles and the RCN frame.
func NewMnvr(start, end time.Time) Mnvr {
	return Mnvr{Start: start.UTC(), End: end.UTC(), ThrustLevel: 1.0, Frame: RCN}
}

// Duration returns the duration of the burn window.
func (m Mnvr) Duration() time.Duration {
	return m.End.Sub(m.Start)
}

// Vector returns the unit thrust vector in the maneuver frame at the provided epoch.
func (m Mnvr) Vector(dt time.Time) []float64 {
	t := dt.Sub(m.Start).Seconds()
	return unitΔvFromAngles(m.AlphaInPlane.Eval(t), m.BetaOutOfPlane.Eval(t))
}

func (m Mnvr) String() string {
	return fmt.Sprintf("burn@%.0f%% [JD %.6f - JD %.6f] (%s) α(t)=%s β(t)=%s in %s",
		m.ThrustLevel*100, JulianDate(m.Start), JulianDate(m.End), m.Duration(), m.AlphaInPlane, m.BetaOutOfPlane, m.Frame)
}
