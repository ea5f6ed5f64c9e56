package nyx

import (
	"testing"
	"time"

	"github.com/gonum/matrix/mat64"
)

func TestFiniteDiffIdentity(t *testing.T) {
	epoch := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	prop := newIdentityProp()
	tgt := NewTargeter(prop,
		[]Variable{NewVariable(PositionX), NewVariable(PositionY), NewVariable(VelocityZ)},
		[]Objective{NewObjective(X, 0), NewObjective(Y, 0), NewObjective(VZ, 0)})
	xi := testState(epoch)
	achieved, err := evalObjectives(tgt.Objectives, xi)
	if err != nil {
		t.Fatal(err)
	}
	jac, err := tgt.Estimator.Estimate(tgt, xi, nil, epoch.Add(time.Hour), achieved)
	if err != nil {
		t.Fatal(err)
	}
	if !mat64.EqualApprox(jac, DenseIdentity(3), 1e-9) {
		t.Fatalf("identity dynamics must yield an identity Jacobian:\n%+v", jac)
	}
}

func TestFiniteDiffWorkersBounded(t *testing.T) {
	epoch := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	prop := newIdentityProp()
	tgt := NewTargeter(prop,
		[]Variable{NewVariable(VelocityX), NewVariable(VelocityY)},
		[]Objective{NewObjective(VX, 0), NewObjective(VY, 0)})
	tgt.Estimator = &FiniteDiff{Workers: 1}
	xi := testState(epoch)
	achieved, err := evalObjectives(tgt.Objectives, xi)
	if err != nil {
		t.Fatal(err)
	}
	jac, err := tgt.Estimator.Estimate(tgt, xi, nil, epoch.Add(time.Hour), achieved)
	if err != nil {
		t.Fatal(err)
	}
	if !mat64.EqualApprox(jac, DenseIdentity(2), 1e-9) {
		t.Fatalf("bounded workers changed the estimate:\n%+v", jac)
	}
}

func TestHyperdualSTMRejections(t *testing.T) {
	epoch := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	prop := newIdentityProp()
	xi := testState(epoch)
	mnvr := NewMnvr(epoch, epoch.Add(time.Minute))

	tgt := NewTargeter(prop, []Variable{NewVariable(VelocityX)}, []Objective{NewObjective(VX, 0)})
	est := &HyperdualSTM{}
	if _, err := est.Estimate(tgt, xi, &mnvr, epoch.Add(time.Hour), nil); !IsKind(err, InvalidVariable) {
		t.Fatalf("expected a rejection of finite burn variables, got %v", err)
	}
	tgt.CorrectionFrame = RIC
	if _, err := est.Estimate(tgt, xi, nil, epoch.Add(time.Hour), nil); !IsKind(err, FrameError) {
		t.Fatalf("expected a rejection of local frames, got %v", err)
	}
	tgt.CorrectionFrame = Inertial
	tgt.Variables = []Variable{NewVariable(MnvrAlpha)}
	if _, err := est.Estimate(tgt, xi, nil, epoch.Add(time.Hour), nil); !IsKind(err, InvalidVariable) {
		t.Fatalf("expected a rejection of maneuver variables, got %v", err)
	}
}

func TestHyperdualSTMZeroSpan(t *testing.T) {
	// Over a zero propagation span the STM is identity, so Cartesian
	// objectives against Cartesian variables yield the identity.
	epoch := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	prop := newIdentityProp()
	tgt := NewTargeter(prop,
		[]Variable{NewVariable(PositionX), NewVariable(PositionY), NewVariable(PositionZ)},
		[]Objective{NewObjective(X, 0), NewObjective(Y, 0), NewObjective(Z, 0)})
	tgt.Estimator = &HyperdualSTM{}
	xi := testState(epoch)
	jac, err := tgt.Estimator.Estimate(tgt, xi, nil, epoch, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !mat64.EqualApprox(jac, DenseIdentity(3), 1e-12) {
		t.Fatalf("zero span STM Jacobian is not identity:\n%+v", jac)
	}
}

func TestSTMAgreesWithFiniteDiff(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	epoch := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	orbit := NewOrbitFromOE(8000, 0.05, 28.5, 30, 45, 0, Earth)
	sc := NewEmptySC("stmcmp", 700, orbit, epoch)
	prop := NewTwoBody(Perturbations{})
	end := epoch.Add(10 * time.Minute)
	tgt := NewTargeter(prop,
		[]Variable{NewVariable(VelocityX), NewVariable(VelocityY), NewVariable(VelocityZ)},
		[]Objective{NewObjective(Rmag, 0), NewObjective(Energy, 0)})
	xf, err := prop.Clone().Until(*sc, end)
	if err != nil {
		t.Fatal(err)
	}
	achieved, err := evalObjectives(tgt.Objectives, xf)
	if err != nil {
		t.Fatal(err)
	}
	fd, err := (&FiniteDiff{}).Estimate(tgt, *sc, nil, end, achieved)
	if err != nil {
		t.Fatal(err)
	}
	stm, err := (&HyperdualSTM{Step: time.Second}).Estimate(tgt, *sc, nil, end, achieved)
	if err != nil {
		t.Fatal(err)
	}
	if !mat64.EqualApprox(fd, stm, 1e-1) {
		t.Fatalf("estimators disagree:\nFD: %+v\nSTM: %+v", fd, stm)
	}
}
