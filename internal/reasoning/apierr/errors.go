// Package apierr carries the reasoning engine's error taxonomy: plain
// sentinel errors that call sites wrap with fmt.Errorf("%w", ...) context,
// so errors.Is keeps working end to end.
package apierr

import "errors"

var (
	// ErrNotFound is raised by the store adapter when a concept, predicate,
	// or code is absent.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable is raised by the store adapter when the underlying
	// store is in an aborted ("must roll back") state.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidArgument marks a bad caller argument; httpapi maps it to
	// 400. No function in internal/reasoning returns it: negative depths and
	// empty seed lists are not rejected, and an unsupported predicate
	// reference panics in PredicateRef.ResolvedID.
	ErrInvalidArgument = errors.New("invalid argument")
)

// LimitExceeded is informational only — it surfaces via a trace's
// terminated_reason, never as a raised error. It is defined here so callers
// that want to treat "max_nodes" traces specially have a named constant to
// compare against instead of a bare string literal.
const LimitExceeded = "max_nodes"
