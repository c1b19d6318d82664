package storetest

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
)

// Conformance names known-good fixture data in whatever store is under
// test, so the same assertions run against the in-memory Fixture and
// against real omopdb/graphmirror backends pointed at a seeded vocabulary
// snapshot (omopdb's test seeds an in-memory SQLite database; graphmirror's
// needs a live Neo4j and is skipped unless an environment variable opts in).
type Conformance struct {
	Store graph.ConceptStore

	// KnownConceptID is any valid, active concept id present in the store.
	KnownConceptID int64
	// KnownConceptName is that concept's exact (case-sensitive) name.
	KnownConceptName string

	// LinkedSubjectID --Predicate--> LinkedObjectID must be a live edge.
	LinkedSubjectID int64
	LinkedObjectID  int64
	Predicate       string
}

// RunConformanceSuite runs the store-level testable properties. It is
// meant to be called from TestXxx(t *testing.T) in both the in-fixture test
// and backend-specific integration tests.
func RunConformanceSuite(t *testing.T, c Conformance) {
	t.Helper()
	ctx := context.Background()

	t.Run("ConceptViewRoundTrip", func(t *testing.T) {
		got, err := c.Store.ConceptView(ctx, c.KnownConceptID)
		if err != nil {
			t.Fatalf("ConceptView(%d): %v", c.KnownConceptID, err)
		}
		if got.ConceptID != c.KnownConceptID {
			t.Fatalf("ConceptView returned id %d, want %d", got.ConceptID, c.KnownConceptID)
		}
		if got.ConceptName != c.KnownConceptName {
			t.Fatalf("ConceptView returned name %q, want %q", got.ConceptName, c.KnownConceptName)
		}
	})

	t.Run("ConceptViewUnknownIsNotFound", func(t *testing.T) {
		_, err := c.Store.ConceptView(ctx, -1)
		if err == nil {
			t.Fatalf("expected error for unknown concept id")
		}
	})

	t.Run("OutgoingEdgeHasMatchingIncoming", func(t *testing.T) {
		out, err := c.Store.OutgoingEdges(ctx, c.LinkedSubjectID, graph.PredicateByID(c.Predicate))
		if err != nil {
			t.Fatalf("OutgoingEdges: %v", err)
		}
		if !containsEdgeTo(out, c.LinkedObjectID) {
			t.Fatalf("expected outgoing edge %d -> %d via %s", c.LinkedSubjectID, c.LinkedObjectID, c.Predicate)
		}

		in, err := c.Store.IncomingEdges(ctx, c.LinkedObjectID, graph.PredicateByID(c.Predicate))
		if err != nil {
			t.Fatalf("IncomingEdges: %v", err)
		}
		if !containsEdgeFrom(in, c.LinkedSubjectID) {
			t.Fatalf("expected incoming edge %d -> %d via %s", c.LinkedSubjectID, c.LinkedObjectID, c.Predicate)
		}
	})

	t.Run("PredicateKindIsStable", func(t *testing.T) {
		first, err := c.Store.PredicateKind(ctx, c.Predicate)
		if err != nil {
			t.Fatalf("PredicateKind: %v", err)
		}
		second, err := c.Store.PredicateKind(ctx, c.Predicate)
		if err != nil {
			t.Fatalf("PredicateKind (second call): %v", err)
		}
		if first != second {
			t.Fatalf("PredicateKind not stable across calls: %v then %v", first, second)
		}
	})

	t.Run("LabelLookupFindsKnownConcept", func(t *testing.T) {
		matches, err := c.Store.LabelLookup(ctx, c.KnownConceptName, false)
		if err != nil {
			t.Fatalf("LabelLookup: %v", err)
		}
		if !containsConceptID(matches, c.KnownConceptID) {
			t.Fatalf("LabelLookup(%q) did not return concept %d", c.KnownConceptName, c.KnownConceptID)
		}
	})

	t.Run("ClearCachesThenRereadIsConsistent", func(t *testing.T) {
		before, err := c.Store.ConceptView(ctx, c.KnownConceptID)
		if err != nil {
			t.Fatalf("ConceptView before clear: %v", err)
		}
		c.Store.ClearCaches()
		after, err := c.Store.ConceptView(ctx, c.KnownConceptID)
		if err != nil {
			t.Fatalf("ConceptView after clear: %v", err)
		}
		if before.ConceptID != after.ConceptID || before.ConceptName != after.ConceptName {
			t.Fatalf("ConceptView inconsistent across ClearCaches: %+v vs %+v", before, after)
		}
	})
}

func containsEdgeTo(edges []graph.Edge, objectID int64) bool {
	for _, e := range edges {
		if e.ObjectID == objectID {
			return true
		}
	}
	return false
}

func containsEdgeFrom(edges []graph.Edge, subjectID int64) bool {
	for _, e := range edges {
		if e.SubjectID == subjectID {
			return true
		}
	}
	return false
}

func containsConceptID(matches []graph.LabelMatch, conceptID int64) bool {
	for _, m := range matches {
		if m.ConceptID == conceptID {
			return true
		}
	}
	return false
}
