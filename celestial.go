package nyx

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8
)

// CelestialObject defines a celestial object.
// Only the values needed by propagation and targeting are stored: ephemerides
// and frame changes belong to an external collaborator.
type CelestialObject struct {
	Name   string
	Radius float64
	a      float64
	μ      float64
	SOI    float64 // With respect to the Sun
	J2     float64
	J3     float64
	J4     float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// J returns the perturbing J_n factor for the provided n.
// Currently only J2 through J4 are supported.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	case 4:
		return c.J4
	default:
		return 0.0
	}
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c *CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.a == b.a && c.μ == b.μ && c.SOI == b.SOI && c.J2 == b.J2 && c.J3 == b.J3 && c.J4 == b.J4
}

// JulianDate returns the Julian date of the provided time.
func JulianDate(dt time.Time) float64 {
	return julian.TimeToJD(dt.UTC())
}

// JulianCenturies returns the number of Julian centuries since J2000 at the provided time.
func JulianCenturies(dt time.Time) float64 {
	return (JulianDate(dt) - 2451545.0) / 36525
}

/* Celestial bodies */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700, -1, 1.32712440017987e11, -1, 0, 0, 0}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378.1363, 149598023, 3.98600433e5, 924645.0, 1082.6269e-6, -2.5324e-6, -1.6204e-6}

// Luna is Earth's moon.
var Luna = CelestialObject{"Luna", 1737.4, 384400, 4902.799, 66167.16, 202.7e-6, 0, 0}

// Mars is the vacation place.
var Mars = CelestialObject{"Mars", 3396.19, 227939282.5616, 4.28283100e4, 576000, 1964e-6, 36e-6, -18e-6}
