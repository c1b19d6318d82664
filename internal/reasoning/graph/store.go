package graph

import (
	"context"
	"time"
)

// Direction selects which side of an edge to fetch from.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// IterEdgesOptions configures the filtered edge generator. Predicate is a
// dynamic reference that may be absent, a literal id, or a full Predicate.
type IterEdgesOptions struct {
	Direction      Direction
	Predicate      PredicateRef
	PredicateKinds map[PredicateKind]struct{} // nil means "no kind filter"
	ActiveOnly     bool
	On             *time.Time
	WithinDomain   bool
}

// DomainVocabFilter narrows roots/leaves/singletons queries. Either field may
// be empty to mean "no filter on that axis".
type DomainVocabFilter struct {
	DomainID     string
	VocabularyID string
}

// ConceptStore is the sole dependency boundary for the reasoning engine.
// Implementations must be read-only from the core's perspective and must
// return deterministic iteration order within a session.
type ConceptStore interface {
	ConceptView(ctx context.Context, conceptID int64) (Concept, error)
	ConceptIDByCode(ctx context.Context, vocabularyID, conceptCode string) (int64, error)

	Predicate(ctx context.Context, relationshipID string) (Predicate, error)
	PredicateKind(ctx context.Context, relationshipID string) (PredicateKind, error)

	OutgoingEdges(ctx context.Context, conceptID int64, predicate PredicateRef) ([]Edge, error)
	IncomingEdges(ctx context.Context, conceptID int64, predicate PredicateRef) ([]Edge, error)

	Parents(ctx context.Context, conceptID int64) ([]int64, error)
	Roots(ctx context.Context, filter DomainVocabFilter) ([]int64, error)
	Leaves(ctx context.Context, filter DomainVocabFilter) ([]int64, error)
	Singletons(ctx context.Context, filter DomainVocabFilter) ([]int64, error)

	LabelLookup(ctx context.Context, text string, fuzzy bool) ([]LabelMatch, error)
	SynonymLookup(ctx context.Context, text string, fuzzy bool) ([]LabelMatch, error)
	SynonymsForConcept(ctx context.Context, conceptID int64) ([]string, error)

	// ClearCaches invalidates all memoized reads.
	ClearCaches()
}
