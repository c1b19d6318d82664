// Package resolve turns free-text input into ranked OMOP concept_id
// candidates. This stage is recall-oriented and constraint-agnostic: it is
// the pipeline's fan-out, not its filter — constraint checking happens
// downstream in internal/reasoning/grounding.
package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
)

// ResolverConfidence orders resolver tiers from most to least trustworthy.
type ResolverConfidence int

const (
	ConfidenceExact ResolverConfidence = iota
	ConfidencePartial
	ConfidenceEmbedding
	ConfidenceExternal
)

// CandidateHit is one resolver's proposed concept for a piece of text.
type CandidateHit struct {
	ConceptID int64
	Resolver  string
}

// CandidateResolver resolves free text to candidate concept ids.
type CandidateResolver interface {
	Name() string
	Confidence() ResolverConfidence
	Resolve(ctx context.Context, store graph.ConceptStore, text string, limit int) ([]CandidateHit, error)
}

// ExactLabelResolver matches text against preferred concept labels.
type ExactLabelResolver struct{}

func (ExactLabelResolver) Name() string                      { return "exact_label" }
func (ExactLabelResolver) Confidence() ResolverConfidence     { return ConfidenceExact }

func (r ExactLabelResolver) Resolve(ctx context.Context, store graph.ConceptStore, text string, limit int) ([]CandidateHit, error) {
	matches, err := store.LabelLookup(ctx, text, false)
	if err != nil {
		return nil, err
	}
	return hitsFromMatches(matches, r.Name(), limit), nil
}

// ExactSynonymResolver matches text against concept synonyms instead of the
// preferred label.
type ExactSynonymResolver struct{}

func (ExactSynonymResolver) Name() string                  { return "exact_synonym" }
func (ExactSynonymResolver) Confidence() ResolverConfidence { return ConfidenceExact }

func (r ExactSynonymResolver) Resolve(ctx context.Context, store graph.ConceptStore, text string, limit int) ([]CandidateHit, error) {
	matches, err := store.SynonymLookup(ctx, text, false)
	if err != nil {
		return nil, err
	}
	return hitsFromMatches(matches, r.Name(), limit), nil
}

// PartialLabelResolver performs fuzzy label matching, ranking hits by how
// closely the matched label resembles the query: prefix matches first,
// fewer words next, then closest length.
type PartialLabelResolver struct{}

func (PartialLabelResolver) Name() string                  { return "partial_label" }
func (PartialLabelResolver) Confidence() ResolverConfidence { return ConfidencePartial }

func (r PartialLabelResolver) Resolve(ctx context.Context, store graph.ConceptStore, text string, limit int) ([]CandidateHit, error) {
	matches, err := store.LabelLookup(ctx, text, true)
	if err != nil {
		return nil, err
	}

	ranked := make([]graph.LabelMatch, len(matches))
	copy(ranked, matches)
	sort.SliceStable(ranked, func(i, j int) bool {
		return lessKey(similarityScore(text, ranked[i].MatchedLabel), similarityScore(text, ranked[j].MatchedLabel))
	})

	return hitsFromMatches(ranked, r.Name(), limit), nil
}

// SynonymPartialResolver is the fuzzy counterpart of ExactSynonymResolver,
// ranked the same way as PartialLabelResolver.
//
// [EXPANSION] the original pipeline only fuzzy-matched preferred labels;
// this resolver extends the same ranking to synonyms so a misspelled
// synonym still resolves without requiring an exact hit.
type SynonymPartialResolver struct{}

func (SynonymPartialResolver) Name() string                  { return "synonym_partial" }
func (SynonymPartialResolver) Confidence() ResolverConfidence { return ConfidencePartial }

func (r SynonymPartialResolver) Resolve(ctx context.Context, store graph.ConceptStore, text string, limit int) ([]CandidateHit, error) {
	matches, err := store.SynonymLookup(ctx, text, true)
	if err != nil {
		return nil, err
	}

	ranked := make([]graph.LabelMatch, len(matches))
	copy(ranked, matches)
	sort.SliceStable(ranked, func(i, j int) bool {
		return lessKey(similarityScore(text, ranked[i].MatchedLabel), similarityScore(text, ranked[j].MatchedLabel))
	})

	return hitsFromMatches(ranked, r.Name(), limit), nil
}

// CodeResolver resolves text as a literal vocabulary concept code, in the
// form "VOCAB:CODE" (e.g. "ICD10CM:E11.9").
//
// [EXPANSION] the original pipeline had no code-lookup resolver; ICD/SNOMED
// codes are a common external-system handoff format, so we add one grounded
// on ConceptStore.ConceptIDByCode rather than free-text search.
type CodeResolver struct{}

func (CodeResolver) Name() string                      { return "code" }
func (CodeResolver) Confidence() ResolverConfidence     { return ConfidenceExact }

func (r CodeResolver) Resolve(ctx context.Context, store graph.ConceptStore, text string, limit int) ([]CandidateHit, error) {
	vocab, code, ok := strings.Cut(text, ":")
	if !ok {
		return nil, nil
	}
	id, err := store.ConceptIDByCode(ctx, strings.TrimSpace(vocab), strings.TrimSpace(code))
	if err != nil {
		return nil, nil
	}
	hits := []CandidateHit{{ConceptID: id, Resolver: r.Name()}}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ResolverPipeline fans text out across an ordered sequence of resolvers,
// deduplicating by concept id and optionally stopping once a confidence tier
// has produced results.
type ResolverPipeline struct {
	Resolvers            []CandidateResolver
	StopAfterConfidence   *ResolverConfidence
}

// Resolve runs every resolver in order, short-circuiting once
// StopAfterConfidence is set and a resolver past that tier is reached while
// results already exist.
func (p ResolverPipeline) Resolve(ctx context.Context, store graph.ConceptStore, text string, limitPerResolver int) ([]CandidateHit, error) {
	seen := make(map[int64]struct{})
	var results []CandidateHit

	for _, resolver := range p.Resolvers {
		if len(results) > 0 && p.StopAfterConfidence != nil && resolver.Confidence() > *p.StopAfterConfidence {
			break
		}

		hits, err := resolver.Resolve(ctx, store, text, limitPerResolver)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if _, ok := seen[h.ConceptID]; ok {
				continue
			}
			seen[h.ConceptID] = struct{}{}
			results = append(results, h)
		}
	}

	return results, nil
}

func hitsFromMatches(matches []graph.LabelMatch, resolver string, limit int) []CandidateHit {
	hits := make([]CandidateHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, CandidateHit{ConceptID: m.ConceptID, Resolver: resolver})
	}
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// similarityScore ranks a matched label against the query: prefix matches
// rank first, then fewer words, then closest length.
func similarityScore(query, label string) [3]int {
	q := strings.ToLower(query)
	l := strings.ToLower(label)

	startsWith := 0
	if !strings.HasPrefix(l, q) {
		startsWith = 1
	}

	lengthDiff := len(l) - len(q)
	if lengthDiff < 0 {
		lengthDiff = -lengthDiff
	}

	return [3]int{startsWith, strings.Count(l, " "), lengthDiff}
}

// lessKey compares two similarityScore tuples lexicographically. Go does not
// define ordering operators on array types, so sort callbacks must walk the
// elements themselves rather than compare the arrays directly.
func lessKey(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
