package graph_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
)

// buildLinearFixture builds 1 -Is a-> 2 -Is a-> 3 -Is a-> 4, a single chain,
// plus the reverse "Subsumes" edges concept_relationship stores alongside them
// (the backward search side reads incoming "Is a" edges, not these).
func buildLinearFixture() *storetest.Fixture {
	f := storetest.New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddPredicate("Subsumes", "Subsumes", "Is a", true, true)

	for i := int64(1); i <= 4; i++ {
		f.AddConcept(i, "concept", "code", "SNOMED", "Condition", "Clinical Finding", "S")
	}
	f.AddEdge(1, "Is a", 2)
	f.AddEdge(2, "Subsumes", 1)
	f.AddEdge(2, "Is a", 3)
	f.AddEdge(3, "Subsumes", 2)
	f.AddEdge(3, "Is a", 4)
	f.AddEdge(4, "Subsumes", 3)
	return f
}

func TestFindShortestPaths_SourceEqualsTarget(t *testing.T) {
	f := buildLinearFixture()
	paths, trace, err := graph.FindShortestPaths(context.Background(), f, 2, 2, graph.PathsOptions{MaxDepth: 5, Traced: true})
	if err != nil {
		t.Fatalf("FindShortestPaths: %v", err)
	}
	if len(paths) != 1 || paths[0].Hops() != 0 {
		t.Fatalf("expected one zero-hop path, got %+v", paths)
	}
	if trace.TerminatedReason != "source_equals_target" {
		t.Fatalf("expected source_equals_target, got %q", trace.TerminatedReason)
	}
}

func TestFindShortestPaths_FindsMinimalHopChain(t *testing.T) {
	f := buildLinearFixture()
	paths, _, err := graph.FindShortestPaths(context.Background(), f, 1, 4, graph.PathsOptions{MaxDepth: 10})
	if err != nil {
		t.Fatalf("FindShortestPaths: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("expected at least one path")
	}
	for _, p := range paths {
		if p.Hops() != 3 {
			t.Fatalf("expected shortest path of 3 hops, got %d", p.Hops())
		}
		nodes := p.Nodes()
		if nodes[0] != 1 || nodes[len(nodes)-1] != 4 {
			t.Fatalf("path endpoints wrong: %v", nodes)
		}
	}
}

func TestFindShortestPaths_NoPathReturnsEmpty(t *testing.T) {
	f := buildLinearFixture()
	f.AddConcept(99, "isolated", "c99", "SNOMED", "Condition", "Clinical Finding", "S")

	paths, trace, err := graph.FindShortestPaths(context.Background(), f, 1, 99, graph.PathsOptions{MaxDepth: 10, Traced: true})
	if err != nil {
		t.Fatalf("FindShortestPaths: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("expected no paths, got %d", len(paths))
	}
	if trace.TerminatedReason != "no_path" {
		t.Fatalf("expected no_path, got %q", trace.TerminatedReason)
	}
}

func TestFindShortestPaths_RespectsMaxPaths(t *testing.T) {
	// Diamond: 1 -> {2,3} -> 4, two equal-shortest paths.
	f := storetest.New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddPredicate("Subsumes", "Subsumes", "Is a", true, true)
	for i := int64(1); i <= 4; i++ {
		f.AddConcept(i, "concept", "code", "SNOMED", "Condition", "Clinical Finding", "S")
	}
	f.AddEdge(1, "Is a", 2)
	f.AddEdge(2, "Subsumes", 1)
	f.AddEdge(1, "Is a", 3)
	f.AddEdge(3, "Subsumes", 1)
	f.AddEdge(2, "Is a", 4)
	f.AddEdge(4, "Subsumes", 2)
	f.AddEdge(3, "Is a", 4)
	f.AddEdge(4, "Subsumes", 3)

	paths, _, err := graph.FindShortestPaths(context.Background(), f, 1, 4, graph.PathsOptions{MaxDepth: 10, MaxPaths: 1})
	if err != nil {
		t.Fatalf("FindShortestPaths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected MaxPaths to cap results at 1, got %d", len(paths))
	}

	all, _, err := graph.FindShortestPaths(context.Background(), f, 1, 4, graph.PathsOptions{MaxDepth: 10, MaxPaths: 10})
	if err != nil {
		t.Fatalf("FindShortestPaths: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected both equal-shortest paths with a large cap, got %d", len(all))
	}
}
