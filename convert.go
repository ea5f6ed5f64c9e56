package nyx

import (
	"math"
	"time"

	"github.com/gonum/matrix/mat64"
)

// ConvertImpulsiveMnvr converts an impulsive Δv (in km/s, inertial frame) at
// the state epoch into an equivalent finite burn executed by the spacecraft
// thruster. The burn window is initially centered on the impulse epoch with
// the duration given by the rocket equation, then refined by differential
// correction such that the post-burn state matches the post-impulse
// trajectory.
func ConvertImpulsiveMnvr(sc Spacecraft, Δv []float64, prop Propagator) (Mnvr, error) {
	if sc.Thruster == nil {
		return Mnvr{}, newTargetingError(NoThrusterAvailable, "cannot convert impulsive maneuver for %s", sc.Name)
	}
	ΔvMag := norm(Δv)
	if ΔvMag == 0 {
		m := NewMnvr(sc.DT, sc.DT)
		m.Frame = Inertial
		return m, nil
	}
	thrustN, _ := sc.Thruster.Thrust(sc.Thruster.Max())
	ve := ExhaustVelocity(sc.Thruster) // in m/s
	// Rocket equation burn duration for this Δv at full thrust.
	ΔtFB := ve * sc.Mass() / thrustN * (1 - math.Exp(-ΔvMag*1e3/ve))

	// Initial steering: the thrust direction at the impulse epoch, and its
	// curvature from the two body rotation of the local vertical.
	u := unit(Δv)
	r := sc.Orbit.R()
	ru := dot(r, u)
	fact := 3 * sc.Orbit.Origin.μ / math.Pow(sc.Orbit.RNorm(), 5)
	uDDot := make([]float64, 3)
	for i := 0; i < 3; i++ {
		uDDot[i] = fact * (ru*r[i] - ru*ru*u[i])
	}
	α, β := planeAnglesFromUnitVector(u)
	αDDot, βDDot := planeAnglesFromUnitVector(uDDot)

	burnDur := time.Duration(ΔtFB * float64(time.Second))
	mnvr := Mnvr{
		Start:          sc.DT.Add(-burnDur / 2),
		ThrustLevel:    1.0,
		AlphaInPlane:   QuadraticPolynomial{[3]float64{α, 0, αDDot}},
		BetaOutOfPlane: QuadraticPolynomial{[3]float64{β, 0, βDDot}},
		Frame:          Inertial,
	}
	mnvr.End = mnvr.Start.Add(burnDur)
	post := sc.WithΔv(Δv)

	variables := make([]Variable, 8)
	for i, component := range []Vary{StartEpoch, Duration,
		MnvrAlpha, MnvrAlphaDot, MnvrAlphaDDot,
		MnvrBeta, MnvrBetaDot, MnvrBetaDDot} {
		v := NewVariable(component)
		if isEpochVary(component) {
			v.Perturbation = 0.1
			v.MaxStep = ΔtFB / 4
		}
		variables[i] = v
	}

	iterations := nyxConfig().maxIterations
	for it := 1; it <= iterations; it++ {
		achieved, errVec, converged, err := assessBurn(sc, post, &mnvr, prop)
		if err != nil {
			return Mnvr{}, err
		}
		if converged {
			return mnvr, nil
		}
		// Finite differencing over the eight burn components.
		jac := mat64.NewDense(6, len(variables), nil)
		for j, v := range variables {
			trialMnvr := mnvr
			applied, err := applyMnvrDelta(v, v.Perturbation, &trialMnvr)
			if err != nil {
				return Mnvr{}, err
			}
			if applied == 0 {
				return Mnvr{}, newTargetingError(InvalidVariable, "perturbation of %s was dropped", v.Component)
			}
			perturbed, _, _, err := assessBurn(sc, post, &trialMnvr, prop)
			if err != nil {
				return Mnvr{}, err
			}
			for i := 0; i < 6; i++ {
				jac.Set(i, j, (perturbed[i]-achieved[i])/v.Perturbation)
			}
		}
		jacInv, err := PseudoInverse(jac)
		if err != nil {
			return Mnvr{}, err
		}
		ΔX := mat64.NewVector(len(variables), nil)
		ΔX.MulVec(jacInv, errVec)
		for j, v := range variables {
			if _, err := applyMnvrDelta(v, v.clamp(0, ΔX.At(j, 0)), &mnvr); err != nil {
				return Mnvr{}, err
			}
		}
	}
	tErr := newTargetingError(MaxIterationsReached, "%d iterations converting impulsive maneuver", iterations)
	return Mnvr{}, tErr
}

// assessBurn coasts the state backward to the burn start, propagates it
// through the burn window, and compares the terminal Cartesian state to the
// post-impulse state at the burn end. The objectives follow the window as it
// shifts.
func assessBurn(sc, post Spacecraft, mnvr *Mnvr, prop Propagator) (achieved []float64, errVec *mat64.Vector, converged bool, err error) {
	xi, err := prop.Clone().Until(sc, mnvr.Start)
	if err != nil {
		return nil, nil, false, err
	}
	xi.Mode = Thrust
	burnProp := prop.Clone().WithControl(mnvr)
	saved := burnProp.MaxStep()
	defer burnProp.SetMaxStep(saved)
	if d := mnvr.Duration(); d > 0 && d < saved {
		burnProp.SetMaxStep(d)
	}
	xf, err := burnProp.Until(xi, mnvr.End)
	if err != nil {
		return nil, nil, false, err
	}
	target, err := prop.Clone().Until(post, mnvr.End)
	if err != nil {
		return nil, nil, false, err
	}
	achieved = make([]float64, 6)
	errVec = mat64.NewVector(6, nil)
	converged = true
	for i, p := range []StateParameter{X, Y, Z, VX, VY, VZ} {
		achieved[i], _ = xf.Orbit.Value(p)
		desired, _ := target.Orbit.Value(p)
		tol := 1e-3 // 1 m on position
		if i >= 3 {
			tol = 1e-6 // 1 mm/s on velocity
		}
		objErr := desired - achieved[i]
		if math.Abs(objErr) > tol {
			converged = false
		}
		errVec.SetVec(i, objErr)
	}
	return achieved, errVec, converged, nil
}
