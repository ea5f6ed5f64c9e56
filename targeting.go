package nyx

import (
	"fmt"
	"math"
)

// StateParameter denotes an orbit state parameter, either a raw Cartesian
// component or a derived quantity.
type StateParameter uint8

const (
	// X is the Cartesian position X component (km).
	X StateParameter = iota + 1
	// Y is the Cartesian position Y component (km).
	Y
	// Z is the Cartesian position Z component (km).
	Z
	// VX is the Cartesian velocity X component (km/s).
	VX
	// VY is the Cartesian velocity Y component (km/s).
	VY
	// VZ is the Cartesian velocity Z component (km/s).
	VZ
	// Rmag is the radius magnitude (km).
	Rmag
	// Vmag is the velocity magnitude (km/s).
	Vmag
	// Energy is the orbit specific mechanical energy (km^2/s^2).
	Energy
	// SMA is the semi major axis (km).
	SMA
	// Eccentricity is the orbit eccentricity (no unit).
	Eccentricity
	// Inclination is the orbit inclination (degrees).
	Inclination
	// RAAN is the right ascension of the ascending node (degrees).
	RAAN
	// ArgPeri is the argument of periapsis (degrees).
	ArgPeri
	// TrueAnomaly is the true anomaly (degrees).
	TrueAnomaly
	// ApoapsisRadius is the apoapsis radius (km).
	ApoapsisRadius
	// PeriapsisRadius is the periapsis radius (km).
	PeriapsisRadius
	// BdotR is the B-plane B dot R component (km). Hyperbolic orbits only.
	BdotR
	// BdotT is the B-plane B dot T component (km). Hyperbolic orbits only.
	BdotT
	// BLTOF is the B-plane linearized time of flight (s). Hyperbolic orbits only.
	BLTOF
)

// IsBPlane returns whether this parameter lives on the B-plane.
func (p StateParameter) IsBPlane() bool {
	return p == BdotR || p == BdotT || p == BLTOF
}

func (p StateParameter) String() string {
	switch p {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	case VX:
		return "VX"
	case VY:
		return "VY"
	case VZ:
		return "VZ"
	case Rmag:
		return "Rmag"
	case Vmag:
		return "Vmag"
	case Energy:
		return "energy"
	case SMA:
		return "SMA"
	case Eccentricity:
		return "eccentricity"
	case Inclination:
		return "inclination"
	case RAAN:
		return "RAAN"
	case ArgPeri:
		return "argument of periapsis"
	case TrueAnomaly:
		return "true anomaly"
	case ApoapsisRadius:
		return "apoapsis radius"
	case PeriapsisRadius:
		return "periapsis radius"
	case BdotR:
		return "B dot R"
	case BdotT:
		return "B dot T"
	case BLTOF:
		return "B LTOF"
	default:
		panic("unknown state parameter")
	}
}

// Vary denotes a component which may be varied by the differential corrector.
type Vary uint8

const (
	// PositionX varies the Cartesian X position (km).
	PositionX Vary = iota + 1
	// PositionY varies the Cartesian Y position (km).
	PositionY
	// PositionZ varies the Cartesian Z position (km).
	PositionZ
	// VelocityX varies the Cartesian X velocity (km/s).
	VelocityX
	// VelocityY varies the Cartesian Y velocity (km/s).
	VelocityY
	// VelocityZ varies the Cartesian Z velocity (km/s).
	VelocityZ
	// StartEpoch varies the maneuver start epoch (s).
	StartEpoch
	// EndEpoch varies the maneuver end epoch (s).
	EndEpoch
	// Duration varies the maneuver duration, keeping the start epoch fixed (s).
	Duration
	// MnvrAlpha varies the constant term of the in-plane angle polynomial (rad).
	MnvrAlpha
	// MnvrAlphaDot varies the rate term of the in-plane angle polynomial (rad/s).
	MnvrAlphaDot
	// MnvrAlphaDDot varies the acceleration term of the in-plane angle polynomial (rad/s^2).
	MnvrAlphaDDot
	// MnvrBeta varies the constant term of the out-of-plane angle polynomial (rad).
	MnvrBeta
	// MnvrBetaDot varies the rate term of the out-of-plane angle polynomial (rad/s).
	MnvrBetaDot
	// MnvrBetaDDot varies the acceleration term of the out-of-plane angle polynomial (rad/s^2).
	MnvrBetaDDot
)

func (v Vary) String() string {
	switch v {
	case PositionX:
		return "X"
	case PositionY:
		return "Y"
	case PositionZ:
		return "Z"
	case VelocityX:
		return "VX"
	case VelocityY:
		return "VY"
	case VelocityZ:
		return "VZ"
	case StartEpoch:
		return "start epoch"
	case EndEpoch:
		return "end epoch"
	case Duration:
		return "duration"
	case MnvrAlpha:
		return "α0"
	case MnvrAlphaDot:
		return "α1"
	case MnvrAlphaDDot:
		return "α2"
	case MnvrBeta:
		return "β0"
	case MnvrBetaDot:
		return "β1"
	case MnvrBetaDDot:
		return "β2"
	default:
		panic("unknown vary component")
	}
}

// vecIndex returns the index of this component in the Cartesian state vector,
// or -1 for maneuver components.
func (v Vary) vecIndex() int {
	switch v {
	case PositionX:
		return 0
	case PositionY:
		return 1
	case PositionZ:
		return 2
	case VelocityX:
		return 3
	case VelocityY:
		return 4
	case VelocityZ:
		return 5
	default:
		return -1
	}
}

// isPosition returns whether this component varies the position vector.
func (v Vary) isPosition() bool {
	return v == PositionX || v == PositionY || v == PositionZ
}

// isFiniteBurn returns whether this component varies a finite burn maneuver.
func (v Vary) isFiniteBurn() bool {
	return v >= StartEpoch && v <= MnvrBetaDDot
}

// stateParam returns the state parameter matching this Cartesian component.
func (v Vary) stateParam() StateParameter {
	switch v {
	case PositionX:
		return X
	case PositionY:
		return Y
	case PositionZ:
		return Z
	case VelocityX:
		return VX
	case VelocityY:
		return VY
	default:
		return VZ
	}
}

// Variable is a component varied by the differential corrector, with its
// initial guess, perturbation step and bounds.
type Variable struct {
	Component    Vary
	InitGuess    float64
	Perturbation float64 // Finite differencing step, must not be zero.
	MaxStep      float64 // Largest per-iteration change, absolute value.
	MinValue     float64
	MaxValue     float64
}

// NewVariable returns an unbounded variable on the provided component, with a
// zero initial guess and the default perturbation of 1e-4.
func NewVariable(component Vary) Variable {
	return Variable{
		Component:    component,
		Perturbation: 1e-4,
		MaxStep:      math.Inf(1),
		MinValue:     math.Inf(-1),
		MaxValue:     math.Inf(1),
	}
}

// Valid returns why this variable is invalid, or nil.
func (v Variable) Valid() error {
	if v.Perturbation == 0 {
		return newTargetingError(InvalidVariable, "variable %s has a zero perturbation", v.Component)
	}
	if v.MaxStep <= 0 {
		return newTargetingError(InvalidVariable, "variable %s has a non positive max step", v.Component)
	}
	if v.MinValue > v.MaxValue {
		return newTargetingError(InvalidVariable, "variable %s has min %f > max %f", v.Component, v.MinValue, v.MaxValue)
	}
	return nil
}

// clamp bounds the provided correction by the max step, then bounds the
// resulting value by the min and max values of this variable.
func (v Variable) clamp(current, correction float64) float64 {
	if correction > v.MaxStep {
		correction = v.MaxStep
	} else if correction < -v.MaxStep {
		correction = -v.MaxStep
	}
	next := current + correction
	if next > v.MaxValue {
		next = v.MaxValue
	} else if next < v.MinValue {
		next = v.MinValue
	}
	return next - current
}

func (v Variable) String() string {
	return fmt.Sprintf("Variable{%s, guess=%g, pert=%g}", v.Component, v.InitGuess, v.Perturbation)
}

// Objective is a state parameter value to be achieved within a tolerance.
type Objective struct {
	Parameter StateParameter
	Desired   float64
	Tolerance float64
}

// NewObjective returns an objective on the provided parameter with the default
// tolerance of 1e-3 in the parameter's own unit.
func NewObjective(param StateParameter, desired float64) Objective {
	return Objective{param, desired, 1e-3}
}

// AssessRaw returns whether the provided achieved value meets this objective,
// and the error desired minus achieved.
func (o Objective) AssessRaw(achieved float64) (ok bool, err float64) {
	err = o.Desired - achieved
	ok = math.Abs(err) <= o.Tolerance
	return
}

func (o Objective) String() string {
	return fmt.Sprintf("%s = %g ± %g", o.Parameter, o.Desired, o.Tolerance)
}
