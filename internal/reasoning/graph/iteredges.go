package graph

import (
	"context"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeLabel trims, lower-cases, and collapses internal whitespace runs
// to a single space. Idempotent: normalizing a normalized label yields
// itself.
func NormalizeLabel(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// IterEdges is the filtered edge generator every algorithm in this package
// consumes. It fetches edges by direction from the store, then
// filters in order: (a) active_only using on, (b) within_domain, (c)
// predicate_kinds. The predicate reference, if set, is resolved once and
// passed to the store's fetch so filtering by a specific predicate id
// happens at the source rather than as a post-filter.
func IterEdges(ctx context.Context, store ConceptStore, conceptID int64, opts IterEdgesOptions) ([]Edge, error) {
	predRef := opts.Predicate

	var (
		edges []Edge
		err   error
	)
	switch opts.Direction {
	case Incoming:
		edges, err = store.IncomingEdges(ctx, conceptID, predRef)
	default:
		edges, err = store.OutgoingEdges(ctx, conceptID, predRef)
	}
	if err != nil {
		return nil, err
	}

	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if opts.ActiveOnly && !e.IsActiveOn(opts.On) {
			continue
		}

		if opts.WithinDomain {
			sameDomain, err := sameDomain(ctx, store, e)
			if err != nil {
				return nil, err
			}
			if !sameDomain {
				continue
			}
		}

		if len(opts.PredicateKinds) > 0 {
			kind, err := store.PredicateKind(ctx, e.PredicateID)
			if err != nil {
				return nil, err
			}
			if _, ok := opts.PredicateKinds[kind]; !ok {
				continue
			}
		}

		out = append(out, e)
	}
	return out, nil
}

func sameDomain(ctx context.Context, store ConceptStore, e Edge) (bool, error) {
	subj, err := store.ConceptView(ctx, e.SubjectID)
	if err != nil {
		return false, err
	}
	obj, err := store.ConceptView(ctx, e.ObjectID)
	if err != nil {
		return false, err
	}
	return subj.DomainID == obj.DomainID, nil
}
