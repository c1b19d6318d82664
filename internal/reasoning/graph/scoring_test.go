package graph_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
)

func buildScoringFixture() *storetest.Fixture {
	f := storetest.New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddPredicate("Subsumes", "Subsumes", "Is a", true, true)
	f.AddPredicate("Maps to", "Maps to", "Mapped from", false, false)
	f.AddPredicate("Mapped from", "Mapped from", "Maps to", false, false)

	f.AddConcept(1, "source", "c1", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(2, "standard target", "c2", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(3, "nonstandard target", "c3", "ICD10CM", "Condition", "Clinical Finding", "")

	// Path A: 1 -Is a-> 2, one ontological hop, all standard, same vocab.
	f.AddEdge(1, "Is a", 2)
	f.AddEdge(2, "Subsumes", 1)

	// Path B: 1 -Maps to-> 3, crosses vocab into a non-standard concept.
	f.AddEdge(1, "Maps to", 3)
	f.AddEdge(3, "Mapped from", 1)

	return f
}

func TestPathProfileOf_CountsInvalidityStandardnessAndVocabSwitches(t *testing.T) {
	f := buildScoringFixture()
	ctx := context.Background()

	pathA := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Is a", Object: 2}}}
	profA, err := graph.PathProfileOf(ctx, f, pathA)
	if err != nil {
		t.Fatalf("PathProfileOf(A): %v", err)
	}
	if profA.InvalidConcepts != 0 || profA.NonStandardConcepts != 0 || profA.VocabSwitches != 0 || profA.OntologicalEdges != 1 {
		t.Fatalf("unexpected profile for path A: %+v", profA)
	}

	pathB := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Maps to", Object: 3}}}
	profB, err := graph.PathProfileOf(ctx, f, pathB)
	if err != nil {
		t.Fatalf("PathProfileOf(B): %v", err)
	}
	if profB.NonStandardConcepts != 1 || profB.VocabSwitches != 1 || profB.MappingEdges != 1 {
		t.Fatalf("unexpected profile for path B: %+v", profB)
	}
}

func TestRankPaths_PrefersOntologicalOverMapping(t *testing.T) {
	f := buildScoringFixture()
	ctx := context.Background()

	pathA := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Is a", Object: 2}}}
	pathB := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Maps to", Object: 3}}}

	ranked, err := graph.RankPaths(ctx, f, []graph.GraphPath{pathB, pathA})
	if err != nil {
		t.Fatalf("RankPaths: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked paths, got %d", len(ranked))
	}
	if ranked[0].Steps[0].Predicate != "Is a" {
		t.Fatalf("expected the ontological path to rank first, got %+v", ranked[0])
	}
}

func TestRankPaths_StableOnTies(t *testing.T) {
	f := buildScoringFixture()
	ctx := context.Background()

	pathA := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Is a", Object: 2}}}
	pathACopy := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Is a", Object: 2}}}

	ranked, err := graph.RankPaths(ctx, f, []graph.GraphPath{pathA, pathACopy})
	if err != nil {
		t.Fatalf("RankPaths: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 paths preserved, got %d", len(ranked))
	}
	if &ranked[0].Steps[0] != &pathA.Steps[0] || &ranked[1].Steps[0] != &pathACopy.Steps[0] {
		t.Fatalf("expected tied paths to keep their input order")
	}
}

func TestExplainPath_AnnotatesPredicateKindAndReason(t *testing.T) {
	f := buildScoringFixture()
	ctx := context.Background()

	path := graph.GraphPath{Steps: []graph.PathStep{{Subject: 1, Predicate: "Is a", Object: 2}}}
	exp, err := graph.ExplainPath(ctx, f, path, nil)
	if err != nil {
		t.Fatalf("ExplainPath: %v", err)
	}
	if len(exp.Steps) != 1 {
		t.Fatalf("expected 1 explained step, got %d", len(exp.Steps))
	}
	if exp.Steps[0].PredicateKind != graph.Ontological {
		t.Fatalf("expected ontological classification, got %v", exp.Steps[0].PredicateKind)
	}
	if exp.Steps[0].Reason == "" {
		t.Fatalf("expected a non-empty reason")
	}
}
