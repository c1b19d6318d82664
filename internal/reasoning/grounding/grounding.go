// Package grounding resolves free text to concept candidates and filters
// them against domain, vocabulary, standardness, and ancestry constraints —
// the step that turns a recall-oriented resolver hit into a usable grounded
// term.
package grounding

import (
	"context"
	"fmt"
	"sort"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/resolve"
)

// Constraints narrows which resolved concepts are acceptable groundings.
type Constraints struct {
	ParentIDs           []int64
	AllowedDomains      []string
	AllowedVocabularies []string // nil means "no vocabulary filter"
	RequireStandard     bool
	MaxDepth            int
}

// Candidate is a grounded concept: a resolver hit that passed every
// constraint, carrying the best-ranked path back to one of the required
// parent concepts as evidence.
type Candidate struct {
	ConceptID       int64
	Label           string
	BestPathProfile graph.PathProfile
	Reasons         []string
	Paths           []graph.GraphPath
}

// passesConstraints reports whether conceptID satisfies every non-hierarchy
// constraint, returning the first failing reason if not.
func passesConstraints(ctx context.Context, store graph.ConceptStore, conceptID int64, c Constraints) (bool, []string, error) {
	concept, err := store.ConceptView(ctx, conceptID)
	if err != nil {
		return false, nil, err
	}

	if len(c.AllowedDomains) > 0 && !containsString(c.AllowedDomains, concept.DomainID) {
		return false, []string{fmt.Sprintf("domain %s not in %v", concept.DomainID, c.AllowedDomains)}, nil
	}

	if len(c.AllowedVocabularies) > 0 && !containsString(c.AllowedVocabularies, concept.VocabularyID) {
		return false, []string{fmt.Sprintf("vocabulary %s not allowed", concept.VocabularyID)}, nil
	}

	if c.RequireStandard && !concept.IsStandard() {
		return false, []string{"concept is non-standard"}, nil
	}

	return true, nil, nil
}

// findHierarchyPaths looks for a short ontological path from conceptID up to
// each required parent, capping reconstruction at 3 paths per parent to keep
// grounding cheap when a concept has many plausible ancestors.
func findHierarchyPaths(ctx context.Context, store graph.ConceptStore, conceptID int64, parentIDs []int64, maxDepth int) ([]graph.GraphPath, error) {
	var out []graph.GraphPath
	ontologicalOnly := map[graph.PredicateKind]struct{}{graph.Ontological: {}}

	for _, parent := range parentIDs {
		found, _, err := graph.FindShortestPaths(ctx, store, conceptID, parent, graph.PathsOptions{
			PredicateKinds: ontologicalOnly,
			MaxDepth:       maxDepth,
			MaxPaths:       3,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}

	return out, nil
}

// bestProfile returns the best (lowest-ranked) profile among paths.
func bestProfile(ctx context.Context, store graph.ConceptStore, paths []graph.GraphPath) (graph.PathProfile, error) {
	var best graph.PathProfile
	for i, p := range paths {
		profile, err := graph.PathProfileOf(ctx, store, p)
		if err != nil {
			return graph.PathProfile{}, err
		}
		if i == 0 || profile.Less(best) {
			best = profile
		}
	}
	return best, nil
}

// GroundTerm resolves text through pipeline, filters hits against
// constraints, and requires each surviving candidate to have at least one
// ontological path to a required parent concept. Results are sorted by best
// path profile, best first.
func GroundTerm(ctx context.Context, store graph.ConceptStore, text string, constraints Constraints, pipeline resolve.ResolverPipeline) ([]Candidate, error) {
	hits, err := pipeline.Resolve(ctx, store, text, 0)
	if err != nil {
		return nil, err
	}

	var results []Candidate
	for _, hit := range hits {
		ok, reasons, err := passesConstraints(ctx, store, hit.ConceptID, constraints)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		paths, err := findHierarchyPaths(ctx, store, hit.ConceptID, constraints.ParentIDs, constraints.MaxDepth)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			continue // fails hierarchy constraint
		}

		profile, err := bestProfile(ctx, store, paths)
		if err != nil {
			return nil, err
		}

		concept, err := store.ConceptView(ctx, hit.ConceptID)
		if err != nil {
			return nil, err
		}

		results = append(results, Candidate{
			ConceptID:       hit.ConceptID,
			Label:           concept.ConceptName,
			BestPathProfile: profile,
			Reasons:         reasons,
			Paths:           paths,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].BestPathProfile.Less(results[j].BestPathProfile)
	})
	return results, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
