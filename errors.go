package nyx

import "fmt"

// TargetingErrorKind defines an enum of targeting failures.
type TargetingErrorKind uint8

const (
	// UnderdeterminedProblem means no objective was provided.
	UnderdeterminedProblem TargetingErrorKind = iota + 1
	// InvalidVariable means a variable has inconsistent bounds or a nil perturbation.
	InvalidVariable
	// NoThrusterAvailable means a finite burn was requested on a spacecraft without a thruster.
	NoThrusterAvailable
	// FrameError means the requested correction frame cannot be used for this component.
	FrameError
	// SingularJacobian means the pseudo-inverse of the sensitivity matrix could not be computed.
	SingularJacobian
	// CorrectionIneffective means the error norm stagnated between two iterations.
	CorrectionIneffective
	// MaxIterationsReached means the iteration budget was exhausted before convergence.
	MaxIterationsReached
)

func (k TargetingErrorKind) String() string {
	switch k {
	case UnderdeterminedProblem:
		return "underdetermined problem"
	case InvalidVariable:
		return "invalid variable"
	case NoThrusterAvailable:
		return "no thruster available"
	case FrameError:
		return "frame error"
	case SingularJacobian:
		return "singular Jacobian"
	case CorrectionIneffective:
		return "correction ineffective"
	case MaxIterationsReached:
		return "max iterations reached"
	}
	panic("cannot stringify unknown targeting error kind")
}

// TargetingError is the error returned on any failed targeting run.
// All kinds are terminal for the run: the caller decides whether to retry
// with different variables, tolerances or initial guesses.
type TargetingError struct {
	kind TargetingErrorKind
	msg  string
	// ErrNorm is the last error vector norm, only set for MaxIterationsReached.
	ErrNorm float64
}

// Error implements the error interface.
func (e TargetingError) Error() string {
	if e.msg == "" {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Kind returns the kind of this targeting error.
func (e TargetingError) Kind() TargetingErrorKind {
	return e.kind
}

func newTargetingError(kind TargetingErrorKind, format string, args ...interface{}) TargetingError {
	return TargetingError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// IsKind returns whether the provided error is a TargetingError of the given kind.
func IsKind(err error, kind TargetingErrorKind) bool {
	tErr, ok := err.(TargetingError)
	return ok && tErr.kind == kind
}
