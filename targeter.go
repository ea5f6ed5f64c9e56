package nyx

import (
	"fmt"
	"math"
	"os"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
)

const (
	// epochε is the smallest epoch change worth applying. Corrections and
	// perturbations below it are dropped.
	epochε = time.Millisecond
	// stagnationε bounds the error norm change under which the correction is
	// declared ineffective.
	stagnationε = 1e-10
)

// Targeter solves a boundary value problem: it varies components of a state,
// or of a finite burn, at the correction epoch such that the objectives are
// met at the achievement epoch. The zero CorrectionFrame means the Cartesian
// variables are corrected in the inertial frame.
type Targeter struct {
	Prop            Propagator
	Variables       []Variable
	Objectives      []Objective
	CorrectionFrame ReferenceFrame // zero value means inertial
	Mnvr            *Mnvr          // maneuver to correct, a default window is built when nil
	Iterations      int
	Estimator       JacobianEstimator
	logger          kitlog.Logger
}

// NewTargeter returns a targeter with the configured iteration budget and a
// finite differencing Jacobian estimator.
func NewTargeter(prop Propagator, variables []Variable, objectives []Objective) *Targeter {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "targeter")
	cfg := nyxConfig()
	return &Targeter{
		Prop:       prop,
		Variables:  variables,
		Objectives: objectives,
		Iterations: cfg.maxIterations,
		Estimator:  &FiniteDiff{Workers: cfg.workers},
		logger:     klog,
	}
}

// TargeterSolution stores a converged targeting run.
type TargeterSolution struct {
	// CorrectedState is the input state at the correction epoch with all
	// corrections applied.
	CorrectedState Spacecraft
	// AchievedState is the propagated state at the achievement epoch.
	AchievedState Spacecraft
	// Correction is the total correction applied to each variable, initial
	// guesses included, in iteration order of the variables.
	Correction []float64
	// AchievedErrors is desired minus achieved for each objective, all within
	// their tolerances.
	AchievedErrors []float64
	// Maneuver is the corrected finite burn, nil when no burn was corrected.
	Maneuver *Mnvr
	// Iterations is the number of Newton corrections applied. A linear
	// problem takes exactly one, a state converging on its initial guess
	// takes none.
	Iterations int
	Runtime    time.Duration
	Variables  []Variable
	Objectives []Objective
}

func (sol TargeterSolution) String() string {
	s := fmt.Sprintf("converged in %d iterations (%s)\n", sol.Iterations, sol.Runtime)
	for i, v := range sol.Variables {
		s += fmt.Sprintf("\t%s: correction %g\n", v.Component, sol.Correction[i])
	}
	for i, o := range sol.Objectives {
		s += fmt.Sprintf("\t%s: error %g\n", o.Parameter, sol.AchievedErrors[i])
	}
	if sol.Maneuver != nil {
		s += fmt.Sprintf("\t%s\n", *sol.Maneuver)
	}
	return s
}

// TryAchieve corrects the provided state at its own epoch.
func (tgt *Targeter) TryAchieve(sc Spacecraft, achievementEpoch time.Time) (*TargeterSolution, error) {
	return tgt.TryAchieveFrom(sc, sc.DT, achievementEpoch)
}

// TryAchieveInFrame is TryAchieveFrom with the corrections expressed in the
// provided local frame.
func (tgt *Targeter) TryAchieveInFrame(sc Spacecraft, correctionEpoch, achievementEpoch time.Time, frame ReferenceFrame) (*TargeterSolution, error) {
	tgt.CorrectionFrame = frame
	return tgt.TryAchieveFrom(sc, correctionEpoch, achievementEpoch)
}

// TryAchieveFrom corrects the provided state at the correction epoch such that
// the objectives are met at the achievement epoch. All returned errors are
// TargetingError values: the run is validated in full before any propagation.
func (tgt *Targeter) TryAchieveFrom(sc Spacecraft, correctionEpoch, achievementEpoch time.Time) (*TargeterSolution, error) {
	if len(tgt.Objectives) == 0 {
		return nil, newTargetingError(UnderdeterminedProblem, "no objective provided")
	}
	for _, obj := range tgt.Objectives {
		if obj.Tolerance <= 0 {
			return nil, newTargetingError(UnderdeterminedProblem, "objective %s has a non positive tolerance", obj.Parameter)
		}
	}
	finiteBurn := false
	for _, v := range tgt.Variables {
		if err := v.Valid(); err != nil {
			return nil, err
		}
		if v.Component.isFiniteBurn() {
			finiteBurn = true
		}
		if tgt.CorrectionFrame != Inertial && v.Component.isPosition() {
			return nil, newTargetingError(FrameError, "cannot correct %s in the %s frame", v.Component, tgt.CorrectionFrame)
		}
		if isEpochVary(v.Component) && math.Abs(v.Perturbation) < epochε.Seconds() {
			return nil, newTargetingError(InvalidVariable, "variable %s perturbation below %s", v.Component, epochε)
		}
	}
	if finiteBurn && sc.Thruster == nil {
		return nil, newTargetingError(NoThrusterAvailable, "finite burn variables on %s", sc.Name)
	}

	startTime := time.Now()
	xi := sc.Clone()
	if !xi.DT.Equal(correctionEpoch) {
		var err error
		xi, err = tgt.Prop.Clone().Until(xi, correctionEpoch)
		if err != nil {
			return nil, err
		}
	}
	var mnvr *Mnvr
	if finiteBurn {
		var m Mnvr
		if tgt.Mnvr != nil {
			m = *tgt.Mnvr
		} else {
			// Default burn window at the correction epoch, corrected like any
			// other maneuver.
			m = NewMnvr(correctionEpoch, correctionEpoch.Add(5*time.Second))
		}
		mnvr = &m
		xi.Mode = Thrust
	}

	// Apply the initial guesses.
	vals := make([]float64, len(tgt.Variables))
	totalCorr := make([]float64, len(tgt.Variables))
	for i, v := range tgt.Variables {
		if v.Component.vecIndex() >= 0 && tgt.CorrectionFrame == Inertial {
			vals[i], _ = xi.Orbit.Value(v.Component.stateParam())
		}
		applied, err := tgt.applyDelta(v, v.InitGuess, &xi, mnvr)
		if err != nil {
			return nil, err
		}
		vals[i] += applied
		totalCorr[i] += applied
	}

	prevNorm := math.NaN()
	for it := 1; it <= tgt.Iterations; it++ {
		xf, err := tgt.propagateTrial(tgt.Prop.Clone(), xi, mnvr, achievementEpoch)
		if err != nil {
			return nil, err
		}
		achieved, err := evalObjectives(tgt.Objectives, xf)
		if err != nil {
			return nil, err
		}
		errVec := mat64.NewVector(len(tgt.Objectives), nil)
		converged := true
		for i, obj := range tgt.Objectives {
			ok, objErr := obj.AssessRaw(achieved[i])
			if !ok {
				converged = false
			}
			errVec.SetVec(i, objErr)
		}
		errNorm := mat64.Norm(errVec, 2)
		tgt.logger.Log("level", "info", "iteration", it, "norm", errNorm)
		if converged {
			errs := make([]float64, len(tgt.Objectives))
			for i := range tgt.Objectives {
				errs[i] = errVec.At(i, 0)
			}
			return &TargeterSolution{
				CorrectedState: xi,
				AchievedState:  xf,
				Correction:     totalCorr,
				AchievedErrors: errs,
				Maneuver:       mnvr,
				Iterations:     it - 1,
				Runtime:        time.Since(startTime),
				Variables:      tgt.Variables,
				Objectives:     tgt.Objectives,
			}, nil
		}
		if !math.IsNaN(prevNorm) && math.Abs(errNorm-prevNorm) < stagnationε {
			return nil, newTargetingError(CorrectionIneffective, "error norm stagnated at %e after %d iterations", errNorm, it)
		}
		prevNorm = errNorm

		jac, err := tgt.Estimator.Estimate(tgt, xi, mnvr, achievementEpoch, achieved)
		if err != nil {
			return nil, err
		}
		jacInv, err := PseudoInverse(jac)
		if err != nil {
			return nil, err
		}
		ΔX := mat64.NewVector(len(tgt.Variables), nil)
		ΔX.MulVec(jacInv, errVec)
		for i, v := range tgt.Variables {
			corr := v.clamp(vals[i], ΔX.At(i, 0))
			applied, err := tgt.applyDelta(v, corr, &xi, mnvr)
			if err != nil {
				return nil, err
			}
			vals[i] += applied
			totalCorr[i] += applied
		}
	}
	tErr := newTargetingError(MaxIterationsReached, "%d iterations, error norm %e", tgt.Iterations, prevNorm)
	tErr.ErrNorm = prevNorm
	return nil, tErr
}

// propagateTrial propagates the trial state to the achievement epoch. With a
// maneuver, the propagation coasts to the burn start, thrusts through the
// window with the step clamped to the burn duration, and coasts again. The
// original step size is restored on every exit path.
func (tgt *Targeter) propagateTrial(prop Propagator, xi Spacecraft, mnvr *Mnvr, achievementEpoch time.Time) (Spacecraft, error) {
	if mnvr == nil {
		return prop.Until(xi, achievementEpoch)
	}
	sc, err := prop.Until(xi, mnvr.Start)
	if err != nil {
		return sc, err
	}
	sc.Mode = Thrust
	burnProp := prop.WithControl(mnvr)
	saved := burnProp.MaxStep()
	defer burnProp.SetMaxStep(saved)
	if d := mnvr.Duration(); d > 0 && d < saved {
		burnProp.SetMaxStep(d)
	}
	sc, err = burnProp.Until(sc, mnvr.End)
	if err != nil {
		return sc, err
	}
	sc.Mode = Coast
	return prop.Until(sc, achievementEpoch)
}

// applyDelta applies the provided correction of a single variable to the trial
// state or maneuver. It returns the correction actually applied: epoch changes
// below one millisecond are dropped.
func (tgt *Targeter) applyDelta(v Variable, delta float64, xi *Spacecraft, mnvr *Mnvr) (float64, error) {
	if delta == 0 {
		return 0, nil
	}
	if idx := v.Component.vecIndex(); idx >= 0 {
		if tgt.CorrectionFrame == Inertial {
			cur, _ := xi.Orbit.Value(v.Component.stateParam())
			return delta, xi.Orbit.SetValue(v.Component.stateParam(), cur+delta)
		}
		// The correction is expressed in the local frame at the correction
		// epoch and rotated to inertial before application.
		dcm, err := xi.Orbit.DCMFromFrame(tgt.CorrectionFrame)
		if err != nil {
			return 0, err
		}
		local := make([]float64, 3)
		local[idx%3] = delta
		inertial := MxV33(dcm, local)
		for j := 0; j < 3; j++ {
			if idx < 3 {
				xi.Orbit.rVec[j] += inertial[j]
			} else {
				xi.Orbit.vVec[j] += inertial[j]
			}
		}
		return delta, nil
	}
	return applyMnvrDelta(v, delta, mnvr)
}

// applyMnvrDelta applies a correction to a finite burn component. Epoch
// changes below one millisecond are dropped and the window never inverts.
func applyMnvrDelta(v Variable, delta float64, mnvr *Mnvr) (float64, error) {
	if isEpochVary(v.Component) {
		if math.Abs(delta) < epochε.Seconds() {
			return 0, nil
		}
		shift := time.Duration(delta * float64(time.Second))
		switch v.Component {
		case StartEpoch:
			mnvr.Start = mnvr.Start.Add(shift)
		case EndEpoch:
			mnvr.End = mnvr.End.Add(shift)
		case Duration:
			mnvr.End = mnvr.Start.Add(mnvr.Duration() + shift)
		}
		if mnvr.End.Before(mnvr.Start) {
			mnvr.End = mnvr.Start
		}
		return delta, nil
	}
	switch v.Component {
	case MnvrAlpha:
		mnvr.AlphaInPlane.AddInOrder(delta, 0)
	case MnvrAlphaDot:
		mnvr.AlphaInPlane.AddInOrder(delta, 1)
	case MnvrAlphaDDot:
		mnvr.AlphaInPlane.AddInOrder(delta, 2)
	case MnvrBeta:
		mnvr.BetaOutOfPlane.AddInOrder(delta, 0)
	case MnvrBetaDot:
		mnvr.BetaOutOfPlane.AddInOrder(delta, 1)
	case MnvrBetaDDot:
		mnvr.BetaOutOfPlane.AddInOrder(delta, 2)
	default:
		return 0, newTargetingError(InvalidVariable, "cannot apply correction to %s", v.Component)
	}
	return delta, nil
}

func isEpochVary(v Vary) bool {
	return v == StartEpoch || v == EndEpoch || v == Duration
}

// evalObjectives reads the achieved value of each objective from the final state.
func evalObjectives(objs []Objective, xf Spacecraft) ([]float64, error) {
	achieved := make([]float64, len(objs))
	for i, obj := range objs {
		val, err := xf.Orbit.Value(obj.Parameter)
		if err != nil {
			return nil, err
		}
		achieved[i] = val
	}
	return achieved, nil
}
