package graph_test

import (
	"testing"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
)

func TestPredicateClassify_AncestryAndHierarchicalAreOntological(t *testing.T) {
	p := graph.Predicate{RelationshipID: "Is a", Name: "Is a", DefinesAncestry: true}
	if got := p.Classify(nil); got != graph.Ontological {
		t.Fatalf("expected Ontological, got %v", got)
	}
}

func TestPredicateClassify_MapsToIsMapping(t *testing.T) {
	p := graph.Predicate{RelationshipID: "Maps to", Name: "Maps to"}
	if got := p.Classify(nil); got != graph.Mapping {
		t.Fatalf("expected Mapping, got %v", got)
	}
}

func TestPredicateClassify_ReplacedByIsVersioning(t *testing.T) {
	p := graph.Predicate{RelationshipID: "Concept replaced by", Name: "Concept replaced by"}
	if got := p.Classify(nil); got != graph.Versioning {
		t.Fatalf("expected Versioning, got %v", got)
	}
}

func TestPredicateClassify_HasPrefixIsAttribute(t *testing.T) {
	p := graph.Predicate{RelationshipID: "Has finding site", Name: "Has finding site"}
	if got := p.Classify(nil); got != graph.Attribute {
		t.Fatalf("expected Attribute, got %v", got)
	}
}

func TestPredicateClassify_FallsThroughToMetadata(t *testing.T) {
	p := graph.Predicate{RelationshipID: "Temporally related to", Name: "Temporally related to"}
	if got := p.Classify(nil); got != graph.Metadata {
		t.Fatalf("expected Metadata fallthrough, got %v", got)
	}
}

func TestPredicateClassify_ReverseHasPrefixIsMetadata(t *testing.T) {
	reverseID := "Finding site of"
	p := graph.Predicate{RelationshipID: "Finding site of", Name: "Finding site of", ReverseID: &reverseID}
	lookup := func(id string) (graph.Predicate, error) {
		return graph.Predicate{RelationshipID: id, Name: "Has finding site"}, nil
	}
	if got := p.Classify(lookup); got != graph.Metadata {
		t.Fatalf("expected Metadata via reverse-has lookup, got %v", got)
	}
}

func TestNormalizeLabel_Idempotent(t *testing.T) {
	input := "  Essential   HYPERTENSION \t"
	once := graph.NormalizeLabel(input)
	twice := graph.NormalizeLabel(once)
	if once != twice {
		t.Fatalf("NormalizeLabel not idempotent: %q then %q", once, twice)
	}
	if once != "essential hypertension" {
		t.Fatalf("unexpected normalized label: %q", once)
	}
}
