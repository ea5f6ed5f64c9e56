package nyx

import (
	"fmt"
	"math"
	"time"

	"github.com/ChristopherRabotin/ode"
)

const (
	// StepSize is the default propagation step size.
	StepSize = 10 * time.Second
)

// Propagator is the trajectory propagation collaborator consumed by the Targeter.
// Clones are cheap and independent: the force model configuration is shared
// read-only, only the per-run options are copied.
type Propagator interface {
	// Until propagates the spacecraft until the provided epoch, which may precede
	// the state epoch (backward propagation).
	Until(sc Spacecraft, epoch time.Time) (Spacecraft, error)
	// UntilWithTraj is Until, also recording the intermediate states.
	UntilWithTraj(sc Spacecraft, epoch time.Time) (Spacecraft, *Trajectory, error)
	// WithControl returns a copy of this propagator whose dynamics reference the
	// provided maneuver. The maneuver is shared by reference: several trials may
	// read it concurrently, none may mutate it while a propagation runs.
	WithControl(m *Mnvr) Propagator
	// Clone returns an independent copy of this propagator.
	Clone() Propagator
	// MaxStep returns the maximum step size of this propagator.
	MaxStep() time.Duration
	// SetMaxStep sets the maximum step size. Callers clamping the step around a
	// burn window must restore the previous value on every exit path.
	SetMaxStep(step time.Duration)
}

// State stores a propagated state.
type State struct {
	DT    time.Time
	SC    Spacecraft
	Orbit Orbit
}

// Trajectory stores the states of a propagation and interpolates between them.
type Trajectory struct {
	states []State
}

// At returns the state at the provided epoch by linear interpolation between
// the two bracketing propagated states.
func (tj *Trajectory) At(dt time.Time) (Spacecraft, error) {
	if len(tj.states) == 0 {
		return Spacecraft{}, fmt.Errorf("empty trajectory")
	}
	first := tj.states[0].DT
	last := tj.states[len(tj.states)-1].DT
	if dt.Before(first.Add(-time.Millisecond)) || dt.After(last.Add(time.Millisecond)) {
		return Spacecraft{}, fmt.Errorf("epoch %s outside of trajectory [%s - %s]", dt, first, last)
	}
	for i := 0; i < len(tj.states)-1; i++ {
		s0 := tj.states[i]
		s1 := tj.states[i+1]
		if dt.Before(s0.DT) || dt.After(s1.DT) {
			continue
		}
		span := s1.DT.Sub(s0.DT).Seconds()
		λ := 0.0
		if span > 0 {
			λ = dt.Sub(s0.DT).Seconds() / span
		}
		R := make([]float64, 3)
		V := make([]float64, 3)
		R0, V0 := s0.Orbit.RV()
		R1, V1 := s1.Orbit.RV()
		for j := 0; j < 3; j++ {
			R[j] = R0[j] + λ*(R1[j]-R0[j])
			V[j] = V0[j] + λ*(V1[j]-V0[j])
		}
		sc := s0.SC.Clone()
		sc.Orbit = NewOrbitFromRV(R, V, s0.Orbit.Origin)
		sc.FuelMass = s0.SC.FuelMass + λ*(s1.SC.FuelMass-s0.SC.FuelMass)
		sc.DT = dt
		return sc, nil
	}
	// Within the millisecond slack of an edge.
	edge := tj.states[len(tj.states)-1]
	if dt.Before(first) {
		edge = tj.states[0]
	}
	sc := edge.SC.Clone()
	sc.DT = dt
	return sc, nil
}

// TwoBody propagates a spacecraft in a two-body + Jn gravity field with fixed
// step RK4, optionally applying a finite burn. It handles the propagation the
// way Mission does: the integrator state is [R V fuel].
type TwoBody struct {
	Perts Perturbations
	step  time.Duration
	mnvr  *Mnvr
	// Working state of the current run.
	sc        *Spacecraft
	orbit     *Orbit
	currentDT time.Time
	stepDur   time.Duration
	stepsLeft int
	backward  bool
	hist      *Trajectory
	err       error
}

// NewTwoBody returns a two-body propagator about the provided body.
func NewTwoBody(perts Perturbations) *TwoBody {
	return &TwoBody{Perts: perts, step: StepSize}
}

// Clone implements the Propagator interface. The perturbation configuration is
// shared (it is read-only); run options are copied.
func (p *TwoBody) Clone() Propagator {
	return &TwoBody{Perts: p.Perts, step: p.step, mnvr: p.mnvr}
}

// WithControl implements the Propagator interface.
func (p *TwoBody) WithControl(m *Mnvr) Propagator {
	c := p.Clone().(*TwoBody)
	c.mnvr = m
	return c
}

// MaxStep implements the Propagator interface.
func (p *TwoBody) MaxStep() time.Duration {
	return p.step
}

// SetMaxStep implements the Propagator interface.
func (p *TwoBody) SetMaxStep(step time.Duration) {
	if step > 0 {
		p.step = step
	}
}

// Until implements the Propagator interface.
func (p *TwoBody) Until(sc Spacecraft, epoch time.Time) (Spacecraft, error) {
	return p.until(sc, epoch.UTC(), nil)
}

// UntilWithTraj implements the Propagator interface.
func (p *TwoBody) UntilWithTraj(sc Spacecraft, epoch time.Time) (Spacecraft, *Trajectory, error) {
	hist := &Trajectory{}
	out, err := p.until(sc, epoch.UTC(), hist)
	return out, hist, err
}

func (p *TwoBody) until(sc Spacecraft, epoch time.Time, hist *Trajectory) (Spacecraft, error) {
	work := sc.Clone()
	dur := epoch.Sub(work.DT)
	if hist != nil {
		hist.states = append(hist.states, State{work.DT, work.Clone(), *work.Orbit.Clone()})
	}
	if dur == 0 {
		return work, nil
	}
	p.backward = dur < 0
	if p.backward {
		dur = -dur
	}
	// Shrink the step so an integer number of steps lands exactly on the epoch.
	n := int(math.Ceil(dur.Seconds() / p.step.Seconds()))
	if n < 1 {
		n = 1
	}
	stepSec := dur.Seconds() / float64(n)
	p.sc = &work
	p.orbit = work.Orbit
	p.currentDT = work.DT
	p.stepDur = time.Duration(stepSec * float64(time.Second))
	if p.backward {
		p.stepDur = -p.stepDur
	}
	p.stepsLeft = n
	p.hist = hist
	p.err = nil
	ode.NewRK4(0, stepSec, p).Solve() // Blocking.
	if p.err != nil {
		return work, p.err
	}
	work.DT = epoch
	if p.backward && hist != nil {
		for i, j := 0, len(hist.states)-1; i < j; i, j = i+1, j-1 {
			hist.states[i], hist.states[j] = hist.states[j], hist.states[i]
		}
	}
	return work, nil
}

// GetState implements the ode.Integrable interface.
func (p *TwoBody) GetState() (s []float64) {
	s = make([]float64, 7)
	R, V := p.orbit.RV()
	for i := 0; i < 3; i++ {
		s[i] = R[i]
		s[i+3] = V[i]
	}
	s[6] = p.sc.FuelMass
	return
}

// SetState implements the ode.Integrable interface.
func (p *TwoBody) SetState(t float64, s []float64) {
	R := []float64{s[0], s[1], s[2]}
	V := []float64{s[3], s[4], s[5]}
	*p.orbit = *NewOrbitFromRV(R, V, p.orbit.Origin)
	if p.sc.FuelMass > 0 && s[6] <= 0 {
		p.sc.logger.Log("level", "critical", "subsys", "prop", "fuel(kg)", s[6])
	}
	p.sc.FuelMass = s[6]
	p.currentDT = p.currentDT.Add(p.stepDur)
	p.stepsLeft--
	if p.hist != nil {
		p.hist.states = append(p.hist.states, State{p.currentDT, p.sc.Clone(), *p.orbit.Clone()})
	}
}

// Stop implements the ode.Integrable interface.
func (p *TwoBody) Stop(t float64) bool {
	return p.err != nil || p.stepsLeft <= 0
}

// Func implements the ode.Integrable interface for Cartesian propagation.
func (p *TwoBody) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, 7) // init return vector
	if p.err != nil {
		return
	}
	R := []float64{f[0], f[1], f[2]}
	V := []float64{f[3], f[4], f[5]}
	tmpOrbit := NewOrbitFromRV(R, V, p.orbit.Origin)
	bodyAcc := -tmpOrbit.Origin.μ / math.Pow(tmpOrbit.RNorm(), 3)
	// d\vec{R}/dt
	fDot[0] = f[3]
	fDot[1] = f[4]
	fDot[2] = f[5]
	// d\vec{V}/dt
	fDot[3] = bodyAcc * f[0]
	fDot[4] = bodyAcc * f[1]
	fDot[5] = bodyAcc * f[2]
	// Finite burn thrust, only within the maneuver window.
	if p.mnvr != nil && p.sc.Mode == Thrust && p.sc.Thruster != nil &&
		!p.currentDT.Before(p.mnvr.Start) && !p.currentDT.After(p.mnvr.End) {
		thrustN, isp := p.sc.Thruster.Thrust(p.sc.Thruster.Max())
		thrustN *= p.mnvr.ThrustLevel
		dcm, err := tmpOrbit.DCMFromFrame(p.mnvr.Frame)
		if err != nil {
			p.err = err
			return
		}
		u := MxV33(dcm, p.mnvr.Vector(p.currentDT))
		accel := thrustN / (p.sc.DryMass + f[6]) / 1e3 // in km/s^2
		for i := 0; i < 3; i++ {
			fDot[3+i] += accel * u[i]
		}
		// d(fuel)/dt
		fDot[6] = -thrustN / (isp * g0)
	}
	pert := p.Perts.Perturb(*tmpOrbit, p.currentDT)
	for i := 0; i < 7; i++ {
		fDot[i] += pert[i]
		if math.IsNaN(fDot[i]) {
			p.err = fmt.Errorf("fDot[%d]=NaN @ dt=%s\ncur:%s", i, p.currentDT, p.orbit)
			return make([]float64, 7)
		}
	}
	if p.backward {
		for i := 0; i < 7; i++ {
			fDot[i] = -fDot[i]
		}
	}
	return
}
