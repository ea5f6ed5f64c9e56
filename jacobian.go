package nyx

import (
	"time"

	"github.com/gonum/matrix/mat64"
	"github.com/sourcegraph/conc/pool"
)

// JacobianEstimator estimates the sensitivity of the objectives to the
// variables around the current trial state. The returned matrix has one row
// per objective and one column per variable.
type JacobianEstimator interface {
	Estimate(tgt *Targeter, xi Spacecraft, mnvr *Mnvr, achievementEpoch time.Time, achieved []float64) (*mat64.Dense, error)
}

// FiniteDiff estimates the Jacobian by forward finite differencing: each
// variable is perturbed independently and the trial is re-propagated. Trials
// run concurrently, each on its own clone of the state, maneuver and
// propagator.
type FiniteDiff struct {
	Workers int // zero means one goroutine per variable
}

// Estimate implements the JacobianEstimator interface.
func (fd *FiniteDiff) Estimate(tgt *Targeter, xi Spacecraft, mnvr *Mnvr, achievementEpoch time.Time, achieved []float64) (*mat64.Dense, error) {
	nObj := len(tgt.Objectives)
	nVar := len(tgt.Variables)
	cols := make([][]float64, nVar)
	errs := make([]error, nVar)
	p := pool.New()
	if fd.Workers > 0 {
		p = p.WithMaxGoroutines(fd.Workers)
	}
	for j := range tgt.Variables {
		j := j
		p.Go(func() {
			v := tgt.Variables[j]
			trial := xi.Clone()
			var trialMnvr *Mnvr
			if mnvr != nil {
				m := *mnvr
				trialMnvr = &m
			}
			applied, err := tgt.applyDelta(v, v.Perturbation, &trial, trialMnvr)
			if err != nil {
				errs[j] = err
				return
			}
			if applied == 0 {
				errs[j] = newTargetingError(InvalidVariable, "perturbation of %s was dropped", v.Component)
				return
			}
			xf, err := tgt.propagateTrial(tgt.Prop.Clone(), trial, trialMnvr, achievementEpoch)
			if err != nil {
				errs[j] = err
				return
			}
			perturbed, err := evalObjectives(tgt.Objectives, xf)
			if err != nil {
				errs[j] = err
				return
			}
			col := make([]float64, nObj)
			for i := range col {
				col[i] = (perturbed[i] - achieved[i]) / v.Perturbation
			}
			cols[j] = col
		})
	}
	p.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	jac := mat64.NewDense(nObj, nVar, nil)
	for j, col := range cols {
		for i, val := range col {
			jac.Set(i, j, val)
		}
	}
	return jac, nil
}

// HyperdualSTM estimates the Jacobian from a single propagation of the state
// transition matrix, chained with the exact partials of each objective with
// respect to the final state. It only supports inertial Cartesian variables
// and coasting dynamics.
type HyperdualSTM struct {
	Perts Perturbations
	Step  time.Duration // zero means StepSize
}

// Estimate implements the JacobianEstimator interface.
func (s *HyperdualSTM) Estimate(tgt *Targeter, xi Spacecraft, mnvr *Mnvr, achievementEpoch time.Time, achieved []float64) (*mat64.Dense, error) {
	if mnvr != nil {
		return nil, newTargetingError(InvalidVariable, "STM estimation does not support finite burn variables")
	}
	if tgt.CorrectionFrame != Inertial {
		return nil, newTargetingError(FrameError, "STM estimation requires inertial corrections")
	}
	for _, v := range tgt.Variables {
		if v.Component.vecIndex() < 0 {
			return nil, newTargetingError(InvalidVariable, "STM estimation cannot vary %s", v.Component)
		}
	}
	step := s.Step
	if step == 0 {
		step = StepSize
	}
	est := NewOrbitEstimate("jacobian", *xi.Orbit, s.Perts, xi.DT, step)
	est.PropagateUntil(achievementEpoch)
	od := NewOrbitDual(est.Orbit)
	jac := mat64.NewDense(len(tgt.Objectives), len(tgt.Variables), nil)
	for i, obj := range tgt.Objectives {
		var partial Dual
		if obj.Parameter.IsBPlane() {
			b, err := NewBPlaneFromDual(od)
			if err != nil {
				return nil, err
			}
			switch obj.Parameter {
			case BdotR:
				partial = b.BR
			case BdotT:
				partial = b.BT
			default:
				partial = b.LTOF
			}
		} else {
			var err error
			partial, err = od.PartialFor(obj.Parameter)
			if err != nil {
				return nil, err
			}
		}
		// Chain rule: the partials are with respect to the final state, the
		// STM maps them back to the correction epoch.
		for j, v := range tgt.Variables {
			col := v.Component.vecIndex()
			var sum float64
			for k := 0; k < 6; k++ {
				sum += partial.Partials[k] * est.Φ.At(k, col)
			}
			jac.Set(i, j, sum)
		}
	}
	return jac, nil
}
