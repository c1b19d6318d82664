// Package storetest provides an in-memory ConceptStore fixture and a
// conformance suite shared by the reasoning package's own tests and by
// both concrete store backends (omopdb, graphmirror). A single fixture
// graph, built once in Go, exercises the same algorithms regardless of
// which backend eventually serves it in production.
package storetest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conceptgraph/reasoner/internal/reasoning/apierr"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
)

// Fixture is a fully in-memory graph.ConceptStore. It has no caching layer:
// every read goes straight to its maps, and ClearCaches is a no-op.
type Fixture struct {
	concepts   map[int64]graph.Concept
	byCode     map[string]int64
	predicates map[string]graph.Predicate
	outgoing   map[int64][]graph.Edge
	incoming   map[int64][]graph.Edge
	parents    map[int64][]int64
	synonyms   map[int64][]string
}

func New() *Fixture {
	return &Fixture{
		concepts:   make(map[int64]graph.Concept),
		byCode:     make(map[string]int64),
		predicates: make(map[string]graph.Predicate),
		outgoing:   make(map[int64][]graph.Edge),
		incoming:   make(map[int64][]graph.Edge),
		parents:    make(map[int64][]int64),
		synonyms:   make(map[int64][]string),
	}
}

// AddConcept registers a concept. standard is "S", "C", or "" for neither.
func (f *Fixture) AddConcept(id int64, name, code, vocab, domain, class, standard string) {
	var std *string
	if standard != "" {
		s := standard
		std = &s
	}
	f.concepts[id] = graph.Concept{
		ConceptID:       id,
		ConceptName:     name,
		ConceptCode:     code,
		VocabularyID:    vocab,
		DomainID:        domain,
		ConceptClassID:  class,
		StandardConcept: std,
		ValidStartDate:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidEndDate:    time.Date(2099, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	f.byCode[vocab+"/"+code] = id
}

// AddInvalidConcept registers a concept already marked invalid
// ("D"/"U" invalid_reason).
func (f *Fixture) AddInvalidConcept(id int64, name, code, vocab, domain, class, reason string) {
	f.AddConcept(id, name, code, vocab, domain, class, "")
	c := f.concepts[id]
	r := reason
	c.InvalidReason = &r
	f.concepts[id] = c
}

// AddSynonym registers an alternate label for a concept.
func (f *Fixture) AddSynonym(conceptID int64, name string) {
	f.synonyms[conceptID] = append(f.synonyms[conceptID], name)
}

// AddPredicate registers a relationship-type row. reverseID may be "".
func (f *Fixture) AddPredicate(id, name, reverseID string, hierarchical, ancestry bool) {
	var rev *string
	if reverseID != "" {
		r := reverseID
		rev = &r
	}
	f.predicates[id] = graph.Predicate{
		RelationshipID:  id,
		Name:            name,
		ReverseID:       rev,
		IsHierarchical:  hierarchical,
		DefinesAncestry: ancestry,
	}
}

// AddEdge registers a directed edge and its reverse bookkeeping. It does
// NOT create the mirror relationship — callers add both directions
// explicitly, matching how concept_relationship stores each direction as
// its own row with its own relationship_id.
func (f *Fixture) AddEdge(subject int64, predicateID string, object int64) {
	e := graph.Edge{SubjectID: subject, PredicateID: predicateID, ObjectID: object}
	f.outgoing[subject] = append(f.outgoing[subject], e)
	f.incoming[object] = append(f.incoming[object], e)
}

// AddInvalidEdge registers an edge already marked invalid.
func (f *Fixture) AddInvalidEdge(subject int64, predicateID string, object int64, reason string) {
	r := reason
	e := graph.Edge{SubjectID: subject, PredicateID: predicateID, ObjectID: object, InvalidReason: &r}
	f.outgoing[subject] = append(f.outgoing[subject], e)
	f.incoming[object] = append(f.incoming[object], e)
}

// SetParents directly wires the materialized-ancestor one-hop parent list
// for a concept, mirroring concept_ancestor's min_levels_of_separation=1 rows.
func (f *Fixture) SetParents(conceptID int64, parents ...int64) {
	f.parents[conceptID] = parents
}

func (f *Fixture) ConceptView(_ context.Context, conceptID int64) (graph.Concept, error) {
	c, ok := f.concepts[conceptID]
	if !ok {
		return graph.Concept{}, fmt.Errorf("%w: concept %d", apierr.ErrNotFound, conceptID)
	}
	return c, nil
}

func (f *Fixture) ConceptIDByCode(_ context.Context, vocabularyID, conceptCode string) (int64, error) {
	id, ok := f.byCode[vocabularyID+"/"+conceptCode]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", apierr.ErrNotFound, vocabularyID, conceptCode)
	}
	return id, nil
}

func (f *Fixture) Predicate(_ context.Context, relationshipID string) (graph.Predicate, error) {
	p, ok := f.predicates[relationshipID]
	if !ok {
		return graph.Predicate{}, fmt.Errorf("%w: predicate %s", apierr.ErrNotFound, relationshipID)
	}
	return p, nil
}

func (f *Fixture) PredicateKind(ctx context.Context, relationshipID string) (graph.PredicateKind, error) {
	p, err := f.Predicate(ctx, relationshipID)
	if err != nil {
		return 0, err
	}
	return p.Classify(func(id string) (graph.Predicate, error) {
		return f.Predicate(ctx, id)
	}), nil
}

func (f *Fixture) OutgoingEdges(_ context.Context, conceptID int64, predicate graph.PredicateRef) ([]graph.Edge, error) {
	return filterByPredicate(f.outgoing[conceptID], predicate), nil
}

func (f *Fixture) IncomingEdges(_ context.Context, conceptID int64, predicate graph.PredicateRef) ([]graph.Edge, error) {
	return filterByPredicate(f.incoming[conceptID], predicate), nil
}

func filterByPredicate(edges []graph.Edge, predicate graph.PredicateRef) []graph.Edge {
	id, ok := predicate.ResolvedID()
	if !ok {
		out := make([]graph.Edge, len(edges))
		copy(out, edges)
		return out
	}
	out := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if e.PredicateID == id {
			out = append(out, e)
		}
	}
	return out
}

func (f *Fixture) Parents(_ context.Context, conceptID int64) ([]int64, error) {
	return f.parents[conceptID], nil
}

func (f *Fixture) Roots(_ context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	var out []int64
	for id, c := range f.concepts {
		if !matchesFilter(c, filter) {
			continue
		}
		if len(f.parents[id]) == 0 {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *Fixture) Leaves(_ context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	hasChild := make(map[int64]struct{})
	for childID, parents := range f.parents {
		for _, p := range parents {
			_ = childID
			hasChild[p] = struct{}{}
		}
	}
	var out []int64
	for id, c := range f.concepts {
		if !matchesFilter(c, filter) {
			continue
		}
		if _, ok := hasChild[id]; !ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *Fixture) Singletons(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	roots, err := f.Roots(ctx, filter)
	if err != nil {
		return nil, err
	}
	leaves, err := f.Leaves(ctx, filter)
	if err != nil {
		return nil, err
	}
	leafSet := make(map[int64]struct{}, len(leaves))
	for _, l := range leaves {
		leafSet[l] = struct{}{}
	}
	var out []int64
	for _, r := range roots {
		if _, ok := leafSet[r]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchesFilter(c graph.Concept, filter graph.DomainVocabFilter) bool {
	if filter.DomainID != "" && c.DomainID != filter.DomainID {
		return false
	}
	if filter.VocabularyID != "" && c.VocabularyID != filter.VocabularyID {
		return false
	}
	return true
}

func (f *Fixture) LabelLookup(_ context.Context, text string, fuzzy bool) ([]graph.LabelMatch, error) {
	input := graph.NormalizeLabel(text)
	var out []graph.LabelMatch
	for id, c := range f.concepts {
		label := graph.NormalizeLabel(c.ConceptName)
		if matches(label, input, fuzzy) {
			out = append(out, graph.LabelMatch{
				InputLabel:   input,
				MatchedLabel: c.ConceptName,
				ConceptID:    id,
				MatchKind:    graph.Direct,
				IsStandard:   c.IsStandard(),
				IsActive:     !c.IsInvalid(),
			})
		}
	}
	return out, nil
}

func (f *Fixture) SynonymLookup(_ context.Context, text string, fuzzy bool) ([]graph.LabelMatch, error) {
	input := graph.NormalizeLabel(text)
	var out []graph.LabelMatch
	for id, names := range f.synonyms {
		c := f.concepts[id]
		for _, name := range names {
			label := graph.NormalizeLabel(name)
			if matches(label, input, fuzzy) {
				out = append(out, graph.LabelMatch{
					InputLabel:   input,
					MatchedLabel: name,
					ConceptID:    id,
					MatchKind:    graph.Synonym,
					IsStandard:   c.IsStandard(),
					IsActive:     !c.IsInvalid(),
				})
			}
		}
	}
	return out, nil
}

func matches(label, input string, fuzzy bool) bool {
	if fuzzy {
		return strings.Contains(label, input)
	}
	return label == input
}

func (f *Fixture) SynonymsForConcept(_ context.Context, conceptID int64) ([]string, error) {
	return f.synonyms[conceptID], nil
}

func (f *Fixture) ClearCaches() {}

var _ graph.ConceptStore = (*Fixture)(nil)
