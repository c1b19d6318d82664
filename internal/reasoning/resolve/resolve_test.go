package resolve_test

import (
	"context"
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
	"github.com/conceptgraph/reasoner/internal/reasoning/resolve"
)

func buildResolveFixture() *storetest.Fixture {
	f := storetest.New()
	f.AddConcept(1, "Essential hypertension", "38341003", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(2, "Hypertension", "59621000", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddSynonym(1, "High blood pressure")
	return f
}

func TestExactLabelResolver_FindsExactMatch(t *testing.T) {
	f := buildResolveFixture()
	r := resolve.ExactLabelResolver{}
	hits, err := r.Resolve(context.Background(), f, "Essential hypertension", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 1 || hits[0].ConceptID != 1 {
		t.Fatalf("expected exactly concept 1, got %+v", hits)
	}
}

func TestExactSynonymResolver_FindsSynonym(t *testing.T) {
	f := buildResolveFixture()
	r := resolve.ExactSynonymResolver{}
	hits, err := r.Resolve(context.Background(), f, "High blood pressure", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 1 || hits[0].ConceptID != 1 {
		t.Fatalf("expected concept 1 via synonym, got %+v", hits)
	}
}

func TestPartialLabelResolver_RanksPrefixMatchFirst(t *testing.T) {
	f := buildResolveFixture()
	r := resolve.PartialLabelResolver{}
	hits, err := r.Resolve(context.Background(), f, "hypertension", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 2 || hits[0].ConceptID != 2 || hits[1].ConceptID != 1 {
		t.Fatalf("expected both fuzzy matches with prefix match concept 2 ranked first, got %+v", hits)
	}
}

func TestCodeResolver_ParsesVocabColonCode(t *testing.T) {
	f := buildResolveFixture()
	r := resolve.CodeResolver{}
	hits, err := r.Resolve(context.Background(), f, "SNOMED:38341003", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 1 || hits[0].ConceptID != 1 {
		t.Fatalf("expected concept 1 via code lookup, got %+v", hits)
	}
}

func TestCodeResolver_NoColonReturnsNoHits(t *testing.T) {
	f := buildResolveFixture()
	r := resolve.CodeResolver{}
	hits, err := r.Resolve(context.Background(), f, "not a code", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits without a colon, got %+v", hits)
	}
}

func TestResolverPipeline_DedupesAcrossResolvers(t *testing.T) {
	f := buildResolveFixture()
	pipeline := resolve.ResolverPipeline{
		Resolvers: []resolve.CandidateResolver{
			resolve.ExactLabelResolver{},
			resolve.ExactSynonymResolver{},
		},
	}

	hits, err := pipeline.Resolve(context.Background(), f, "Essential hypertension", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected a single deduplicated hit, got %+v", hits)
	}
}

func TestResolverPipeline_StopsAfterConfidenceTier(t *testing.T) {
	f := buildResolveFixture()
	stopAt := resolve.ConfidenceExact
	pipeline := resolve.ResolverPipeline{
		Resolvers: []resolve.CandidateResolver{
			resolve.ExactLabelResolver{},
			resolve.PartialLabelResolver{},
		},
		StopAfterConfidence: &stopAt,
	}

	hits, err := pipeline.Resolve(context.Background(), f, "Essential hypertension", 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(hits) != 1 || hits[0].Resolver != "exact_label" {
		t.Fatalf("expected pipeline to stop after exact tier, got %+v", hits)
	}
}
