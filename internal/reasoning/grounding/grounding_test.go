package grounding_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
	"github.com/conceptgraph/reasoner/internal/reasoning/grounding"
	"github.com/conceptgraph/reasoner/internal/reasoning/resolve"
)

func buildGroundingFixture() *storetest.Fixture {
	f := storetest.New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddPredicate("Subsumes", "Subsumes", "Is a", true, true)

	f.AddConcept(1, "Type 2 diabetes mellitus", "44054006", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(2, "Diabetes mellitus", "73211009", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(3, "Metformin", "6809", "RxNorm", "Drug", "Ingredient", "S")

	f.AddEdge(1, "Is a", 2)
	f.AddEdge(2, "Subsumes", 1)

	return f
}

func TestGroundTerm_AcceptsCandidateWithHierarchyPath(t *testing.T) {
	f := buildGroundingFixture()
	pipeline := resolve.ResolverPipeline{Resolvers: []resolve.CandidateResolver{resolve.ExactLabelResolver{}}}

	results, err := grounding.GroundTerm(context.Background(), f, "Type 2 diabetes mellitus", grounding.Constraints{
		ParentIDs:       []int64{2},
		AllowedDomains:  []string{"Condition"},
		RequireStandard: true,
		MaxDepth:        5,
	}, pipeline)
	if err != nil {
		t.Fatalf("GroundTerm: %v", err)
	}
	if len(results) != 1 || results[0].ConceptID != 1 {
		t.Fatalf("expected concept 1 to ground, got %+v", results)
	}
}

func TestGroundTerm_RejectsDisallowedDomain(t *testing.T) {
	f := buildGroundingFixture()
	pipeline := resolve.ResolverPipeline{Resolvers: []resolve.CandidateResolver{resolve.ExactLabelResolver{}}}

	results, err := grounding.GroundTerm(context.Background(), f, "Metformin", grounding.Constraints{
		ParentIDs:      []int64{2},
		AllowedDomains: []string{"Condition"},
		MaxDepth:       5,
	}, pipeline)
	if err != nil {
		t.Fatalf("GroundTerm: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected drug concept rejected by domain constraint, got %+v", results)
	}
}

func TestGroundTerm_RejectsMissingHierarchyPath(t *testing.T) {
	f := buildGroundingFixture()
	pipeline := resolve.ResolverPipeline{Resolvers: []resolve.CandidateResolver{resolve.ExactLabelResolver{}}}

	results, err := grounding.GroundTerm(context.Background(), f, "Type 2 diabetes mellitus", grounding.Constraints{
		ParentIDs: []int64{3}, // unrelated concept, no ontological path
		MaxDepth:  5,
	}, pipeline)
	if err != nil {
		t.Fatalf("GroundTerm: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no candidates without a hierarchy path, got %+v", results)
	}
}
