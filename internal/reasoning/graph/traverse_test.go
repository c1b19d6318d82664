package graph_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
)

func TestTraverse_StopsAtMaxDepth(t *testing.T) {
	f := buildLinearFixture()
	sg, _, err := graph.Traverse(context.Background(), f, []int64{1}, graph.TraverseOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if _, ok := sg.Nodes[3]; ok {
		t.Fatalf("expected depth-1 traversal not to reach node 3")
	}
	if _, ok := sg.Nodes[2]; !ok {
		t.Fatalf("expected depth-1 traversal to reach node 2")
	}
}

func TestTraverse_DedupesSeedsAndVisitsOnce(t *testing.T) {
	f := buildLinearFixture()
	sg, trace, err := graph.Traverse(context.Background(), f, []int64{1, 1, 2}, graph.TraverseOptions{MaxDepth: 3, Trace: true})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if len(trace.Seeds) != 2 {
		t.Fatalf("expected deduplicated seeds, got %v", trace.Seeds)
	}
	seen := make(map[int64]int)
	for _, s := range trace.Steps {
		seen[s.Node]++
	}
	for node, count := range seen {
		if count != 1 {
			t.Fatalf("expected node %d expanded exactly once, got %d", node, count)
		}
	}
	if _, ok := sg.Nodes[4]; !ok {
		t.Fatalf("expected node 4 to be reached within depth 3")
	}
}

func TestTraverse_StopsAtMaxNodes(t *testing.T) {
	f := buildLinearFixture()
	sg, trace, err := graph.Traverse(context.Background(), f, []int64{1}, graph.TraverseOptions{MaxDepth: 10, MaxNodes: 2, Trace: true})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if len(sg.Nodes) > 2 {
		t.Fatalf("expected at most 2 nodes visited, got %d", len(sg.Nodes))
	}
	if trace.TerminatedReason != "max_nodes" {
		t.Fatalf("expected max_nodes termination, got %q", trace.TerminatedReason)
	}
}

func TestTraverse_DedupesParallelEdges(t *testing.T) {
	f := storetest.New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddConcept(1, "a", "c1", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(2, "b", "c2", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddEdge(1, "Is a", 2)
	f.AddEdge(1, "Is a", 2)

	sg, _, err := graph.Traverse(context.Background(), f, []int64{1}, graph.TraverseOptions{MaxDepth: 1})
	if err != nil {
		t.Fatalf("Traverse: %v", err)
	}
	if len(sg.Edges) != 1 {
		t.Fatalf("expected duplicate edges deduplicated, got %d", len(sg.Edges))
	}
}
