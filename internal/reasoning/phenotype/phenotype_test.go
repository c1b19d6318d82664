package phenotype_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
	"github.com/conceptgraph/reasoner/internal/reasoning/phenotype"
)

// buildDiabetesFixture mirrors a worked phenotype example: two diabetes
// subtypes sharing a common "diabetes mellitus" parent.
func buildDiabetesFixture() *storetest.Fixture {
	f := storetest.New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddPredicate("Subsumes", "Subsumes", "Is a", true, true)
	f.AddPredicate("Maps to", "Maps to", "Mapped from", false, false)

	f.AddConcept(1, "Type 1 diabetes mellitus", "46635009", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(2, "Type 2 diabetes mellitus", "44054006", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(3, "Diabetes mellitus", "73211009", "SNOMED", "Condition", "Clinical Finding", "S")

	f.AddEdge(1, "Is a", 3)
	f.AddEdge(3, "Subsumes", 1)
	f.AddEdge(2, "Is a", 3)
	f.AddEdge(3, "Subsumes", 2)

	return f
}

func TestFindCommonParents_DiscoversSharedParentWithFullCoverage(t *testing.T) {
	f := buildDiabetesFixture()
	seeds := []int64{1, 2}

	candidates, err := phenotype.FindCommonParents(context.Background(), f, seeds, 2, 0)
	if err != nil {
		t.Fatalf("FindCommonParents: %v", err)
	}

	stats, ok := candidates[3]
	if !ok {
		t.Fatalf("expected diabetes mellitus (3) as a candidate, got %+v", candidates)
	}
	if stats.Coverage != 2 {
		t.Fatalf("expected coverage=2, got %d", stats.Coverage)
	}
	if stats.Completeness != 1.0 {
		t.Fatalf("expected completeness=1.0, got %f", stats.Completeness)
	}
}

func TestFindCommonParents_RespectsMinCoverage(t *testing.T) {
	f := buildDiabetesFixture()
	seeds := []int64{1, 2}

	candidates, err := phenotype.FindCommonParents(context.Background(), f, seeds, 3, 0)
	if err != nil {
		t.Fatalf("FindCommonParents: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates to meet minCoverage=3, got %+v", candidates)
	}
}

func TestGreedyParentCover_SelectsSingleSharedAncestor(t *testing.T) {
	f := buildDiabetesFixture()
	seeds := []int64{1, 2}

	candidates, err := phenotype.FindCommonParents(context.Background(), f, seeds, 2, 0)
	if err != nil {
		t.Fatalf("FindCommonParents: %v", err)
	}

	selected := phenotype.GreedyParentCover(seeds, candidates, phenotype.GreedyCoverOptions{})
	if len(selected) != 1 || selected[0] != 3 {
		t.Fatalf("expected the single shared ancestor 3 to be selected, got %v", selected)
	}
}

func TestGreedyParentCover_StopsWhenNoCandidateCanProgress(t *testing.T) {
	f := buildDiabetesFixture()
	// Seed 99 has no discoverable ancestors in this fixture.
	f.AddConcept(99, "unrelated", "c99", "SNOMED", "Condition", "Clinical Finding", "S")
	seeds := []int64{1, 2, 99}

	candidates, err := phenotype.FindCommonParents(context.Background(), f, seeds, 1, 0)
	if err != nil {
		t.Fatalf("FindCommonParents: %v", err)
	}

	selected := phenotype.GreedyParentCover(seeds, candidates, phenotype.GreedyCoverOptions{TargetCoverageRatio: 1.0})
	for _, id := range selected {
		if id == 99 {
			t.Fatalf("did not expect seed 99 itself to be selected as a parent")
		}
	}
}

func TestRelateGroups_DetectsSubsumption(t *testing.T) {
	groups := map[int64]*phenotype.ParentStatistics{
		10: {Found: map[int64]struct{}{1: {}}},
		20: {Found: map[int64]struct{}{1: {}, 2: {}}},
	}

	relations := phenotype.RelateGroups(groups)
	found := false
	for _, r := range relations {
		if r.From == 10 && r.To == 20 && r.Type == "subsumed_by" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected group 10 to be subsumed_by group 20, got %+v", relations)
	}
}
