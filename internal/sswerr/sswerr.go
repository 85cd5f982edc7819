// Package sswerr defines the error taxonomy from spec.md §7 and wraps
// them with github.com/pkg/errors the way the teacher wraps every
// recoverable/fatal condition across its subsystems.
package sswerr

import "github.com/pkg/errors"

// Kind classifies an error the way spec.md §7 enumerates them.
type Kind string

const (
	KindSolverTimeout       Kind = "solver_timeout"
	KindSolverContradiction Kind = "solver_contradiction"
	KindConstraintsUnsat    Kind = "constraints_unsat"
	KindTimeBudgetExhausted Kind = "time_budget_exhausted"
	KindTrivialMiter        Kind = "trivial_miter"
	KindEmptyAig            Kind = "empty_aig"
	KindInvalidCex          Kind = "invalid_cex"
	KindUnsupportedCombo    Kind = "unsupported_combo"
)

// Error is a classified, wrapped error. Kind drives the controller's
// propagation policy (spec.md §7): Fatal() reports whether the
// controller must unwind instead of continuing.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }

// Fatal reports whether this Kind unwinds the whole run rather than
// staying local to the component that raised it.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindSolverContradiction, KindConstraintsUnsat, KindUnsupportedCombo:
		return true
	default:
		return false
	}
}

// New wraps msg as a classified error with a stack trace attached.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, err: errors.New(msg)}
}

// Wrap attaches kind and a stack trace to an existing error.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, err: errors.Wrap(err, msg)}
}

// As reports whether err (or something it wraps) is a *Error of kind.
func As(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
