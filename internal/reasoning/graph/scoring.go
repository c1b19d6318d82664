package graph

import (
	"context"
	"sort"
)

// PathProfile summarizes a path along the criteria ranking is based on. Lower
// is better on every field except OntologicalEdges, which Rank() negates so
// that more structural edges still sorts first among otherwise-tied paths.
type PathProfile struct {
	Hops                 int
	InvalidConcepts      int
	NonStandardConcepts  int
	VocabSwitches        int
	OntologicalEdges     int
	MappingEdges         int
	MetadataEdges        int
}

// Rank returns the lexicographic tuple path_rank() compares on: invalid
// concepts first (never acceptable), then non-standard concepts, metadata
// edges, mapping edges, vocabulary continuity, hop count, and finally a
// preference for more ontological structure among ties.
func (p PathProfile) Rank() [7]int {
	return [7]int{
		p.InvalidConcepts,
		p.NonStandardConcepts,
		p.MetadataEdges,
		p.MappingEdges,
		p.VocabSwitches,
		p.Hops,
		-p.OntologicalEdges,
	}
}

// Less reports whether p ranks strictly better than other.
func (p PathProfile) Less(other PathProfile) bool {
	a, b := p.Rank(), other.Rank()
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// PathProfileOf computes the PathProfile for a path by inspecting every node
// it visits (invalidity, standardness, vocabulary continuity) and every edge
// it crosses (predicate kind).
func PathProfileOf(ctx context.Context, store ConceptStore, path GraphPath) (PathProfile, error) {
	var invalid, nonStandard, vocabSwitches int
	var prevVocab string
	var havePrevVocab bool

	for _, nodeID := range path.Nodes() {
		c, err := store.ConceptView(ctx, nodeID)
		if err != nil {
			return PathProfile{}, err
		}
		if c.IsInvalid() {
			invalid++
		}
		if !c.IsStandard() {
			nonStandard++
		}
		if havePrevVocab && c.VocabularyID != prevVocab {
			vocabSwitches++
		}
		prevVocab = c.VocabularyID
		havePrevVocab = true
	}

	var ont, mapp, meta int
	for _, step := range path.Steps {
		kind, err := store.PredicateKind(ctx, step.Predicate)
		if err != nil {
			return PathProfile{}, err
		}
		switch kind {
		case Ontological:
			ont++
		case Mapping:
			mapp++
		default:
			meta++
		}
	}

	return PathProfile{
		Hops:                len(path.Steps),
		InvalidConcepts:     invalid,
		NonStandardConcepts: nonStandard,
		VocabSwitches:       vocabSwitches,
		OntologicalEdges:    ont,
		MappingEdges:        mapp,
		MetadataEdges:       meta,
	}, nil
}

// PathExplanationStep annotates a single step of a path with the traversal
// depth it was first discovered at (if the trace recorded it) and why its
// predicate was classified the way it was.
type PathExplanationStep struct {
	Step            PathStep
	TraversalDepth  *int
	PredicateKind   PredicateKind
	Reason          string
}

// PathExplanation is a fully annotated, scored path suitable for display.
type PathExplanation struct {
	Path    GraphPath
	Profile PathProfile
	Steps   []PathExplanationStep
}

// traceContainsStep finds the trace step that expanded the given path step,
// matching on (subject, object, predicate), and returns it or nil.
func traceContainsStep(trace *GraphTrace, step PathStep) *TraceStep {
	if trace == nil {
		return nil
	}
	for i := range trace.Steps {
		ts := &trace.Steps[i]
		if ts.Node != step.Subject {
			continue
		}
		for _, e := range ts.ExpandedEdges {
			if e.ObjectID == step.Object && e.PredicateID == step.Predicate {
				return ts
			}
		}
	}
	return nil
}

// ExplainPath annotates every step of path with its predicate classification
// and, when present in trace, the depth at which it was first discovered.
func ExplainPath(ctx context.Context, store ConceptStore, path GraphPath, trace *GraphTrace) (PathExplanation, error) {
	profile, err := PathProfileOf(ctx, store, path)
	if err != nil {
		return PathExplanation{}, err
	}

	steps := make([]PathExplanationStep, 0, len(path.Steps))
	for _, step := range path.Steps {
		kind, err := store.PredicateKind(ctx, step.Predicate)
		if err != nil {
			return PathExplanation{}, err
		}

		var depth *int
		if ts := traceContainsStep(trace, step); ts != nil {
			d := ts.Depth
			depth = &d
		}

		steps = append(steps, PathExplanationStep{
			Step:           step,
			TraversalDepth: depth,
			PredicateKind:  kind,
			Reason:         kind.Label(),
		})
	}

	return PathExplanation{Path: path, Profile: profile, Steps: steps}, nil
}

// RankPaths sorts paths by PathProfile.Rank(), lowest (best) first. The sort
// is stable so paths with identical profiles preserve the discovery order
// FindShortestPaths produced them in.
func RankPaths(ctx context.Context, store ConceptStore, paths []GraphPath) ([]GraphPath, error) {
	type scored struct {
		path    GraphPath
		profile PathProfile
	}

	withProfiles := make([]scored, len(paths))
	for i, p := range paths {
		profile, err := PathProfileOf(ctx, store, p)
		if err != nil {
			return nil, err
		}
		withProfiles[i] = scored{path: p, profile: profile}
	}

	sort.SliceStable(withProfiles, func(i, j int) bool {
		return withProfiles[i].profile.Less(withProfiles[j].profile)
	})

	ranked := make([]GraphPath, len(withProfiles))
	for i, s := range withProfiles {
		ranked[i] = s.path
	}
	return ranked, nil
}

// FindRankedPathsWithExplanations runs FindShortestPaths with tracing
// enabled, ranks the results, and returns a fully explained path list —
// the composed operation exposed as the primary scoring entry
// point.
func FindRankedPathsWithExplanations(ctx context.Context, store ConceptStore, source, target int64, opts PathsOptions) ([]PathExplanation, error) {
	opts.Traced = true
	paths, trace, err := FindShortestPaths(ctx, store, source, target, opts)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	ranked, err := RankPaths(ctx, store, paths)
	if err != nil {
		return nil, err
	}

	out := make([]PathExplanation, 0, len(ranked))
	for _, p := range ranked {
		exp, err := ExplainPath(ctx, store, p, trace)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, nil
}
