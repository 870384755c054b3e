// Package errors provides structured error types for the Kryon runtime.
//
// Every error carries a Phase (where in processing it occurred) and a
// Kind (what went wrong), so callers can match on categories with
// errors.Is without string comparison:
//
//	if errors.Is(err, &kerrors.Error{Phase: kerrors.PhaseDecode, Kind: kerrors.KindChecksum}) {
//	    // corrupt bundle
//	}
//
// Convenience constructors cover the common cases; the Builder covers
// the rest:
//
//	err := errors.New(errors.PhaseState, errors.KindNotFound).
//	    Path("user", "name").
//	    Detail("missing segment").
//	    Build()
package errors
