package graph

import (
	"fmt"
	"time"
)

// Edge is an immutable relationship instance between two concepts.
type Edge struct {
	SubjectID     int64
	PredicateID   string
	ObjectID      int64
	ValidStart    *time.Time
	ValidEnd      *time.Time
	InvalidReason *string
}

// IsActiveOn reports whether the edge is active on date `on`. When `on` is
// nil the rule collapses to "no invalid_reason".
func (e Edge) IsActiveOn(on *time.Time) bool {
	if on == nil {
		return e.InvalidReason == nil
	}
	if e.ValidStart != nil && on.Before(*e.ValidStart) {
		return false
	}
	if e.ValidEnd != nil && on.After(*e.ValidEnd) {
		return false
	}
	return e.InvalidReason == nil
}

// PredicateRef is a dynamic predicate reference: a caller may
// pass nothing, a predicate id string, or a fully loaded Predicate. iter_edges
// resolves it to a predicate id exactly once.
type PredicateRef struct {
	kind refKind
	id   string
	full Predicate
}

type refKind int

const (
	refNone refKind = iota
	refByID
	refFull
)

// NoPredicate is the absent PredicateRef — no predicate filter applied.
var NoPredicate = PredicateRef{kind: refNone}

// PredicateByID builds a PredicateRef from a bare relationship id.
func PredicateByID(id string) PredicateRef {
	return PredicateRef{kind: refByID, id: id}
}

// PredicateFull builds a PredicateRef from an already-loaded Predicate.
func PredicateFull(p Predicate) PredicateRef {
	return PredicateRef{kind: refFull, full: p}
}

// ResolvedID returns the relationship id this reference denotes, and whether
// any predicate filter is in effect at all.
func (r PredicateRef) ResolvedID() (id string, ok bool) {
	switch r.kind {
	case refNone:
		return "", false
	case refByID:
		return r.id, true
	case refFull:
		return r.full.RelationshipID, true
	default:
		panic(fmt.Sprintf("graph: unsupported PredicateRef kind %d", r.kind))
	}
}
