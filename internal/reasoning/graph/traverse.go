package graph

import (
	"context"
	"time"
)

// Subgraph is a deduplicated set of nodes and edges discovered by a search.
type Subgraph struct {
	Nodes map[int64]struct{}
	Edges []Edge
}

// NodeIDs returns the subgraph's node ids in no particular order.
func (s Subgraph) NodeIDs() []int64 {
	out := make([]int64, 0, len(s.Nodes))
	for id := range s.Nodes {
		out = append(out, id)
	}
	return out
}

// TraceStep records one expanded node during a search.
type TraceStep struct {
	Depth         int
	Node          int64
	ExpandedEdges []Edge
}

// GraphTrace is the audit record of a search: which nodes were expanded, in
// what order, and why the search stopped.
type GraphTrace struct {
	Seeds             []int64
	Steps             []TraceStep
	TerminatedReason  string // "", "max_nodes", "no_path", "source_equals_target", "shortest_paths_found"
}

// TraverseOptions configures a breadth-first exploration.
type TraverseOptions struct {
	PredicateKinds map[PredicateKind]struct{}
	MaxDepth       int
	On             *time.Time
	MaxNodes       int // 0 means unbounded
	Trace          bool
}

type queueItem struct {
	node  int64
	depth int
}

// Traverse performs a breadth-first exploration from the given seeds,
// expanding outgoing edges up to MaxDepth and MaxNodes, exactly as described
// seeds are deduplicated preserving order, a node is expanded
// at most once, expansion stops outward at MaxDepth, and the returned
// subgraph deduplicates edges by (subject, predicate, object).
func Traverse(ctx context.Context, store ConceptStore, seeds []int64, opts TraverseOptions) (Subgraph, *GraphTrace, error) {
	dedupSeeds := dedupePreserveOrder(seeds)

	visited := make(map[int64]struct{})
	edgeDedup := make(map[edgeKey]Edge)
	var steps []TraceStep

	queue := make([]queueItem, 0, len(dedupSeeds))
	for _, s := range dedupSeeds {
		queue = append(queue, queueItem{node: s, depth: 0})
	}

	terminated := ""

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if _, seen := visited[cur.node]; seen {
			continue
		}
		visited[cur.node] = struct{}{}

		if opts.MaxNodes > 0 && len(visited) >= opts.MaxNodes {
			terminated = "max_nodes"
			break
		}

		if cur.depth >= opts.MaxDepth {
			continue
		}

		expanded, err := IterEdges(ctx, store, cur.node, IterEdgesOptions{
			Direction:      Outgoing,
			PredicateKinds: opts.PredicateKinds,
			ActiveOnly:     true,
			On:             opts.On,
			WithinDomain:   true,
		})
		if err != nil {
			return Subgraph{}, nil, err
		}

		for _, e := range expanded {
			edgeDedup[edgeKey{e.SubjectID, e.PredicateID, e.ObjectID}] = e
			if _, seen := visited[e.ObjectID]; !seen {
				queue = append(queue, queueItem{node: e.ObjectID, depth: cur.depth + 1})
			}
		}

		if opts.Trace {
			steps = append(steps, TraceStep{Depth: cur.depth, Node: cur.node, ExpandedEdges: expanded})
		}
	}

	edges := make([]Edge, 0, len(edgeDedup))
	for _, e := range edgeDedup {
		edges = append(edges, e)
	}

	sg := Subgraph{Nodes: visited, Edges: edges}

	var trace *GraphTrace
	if opts.Trace {
		trace = &GraphTrace{Seeds: dedupSeeds, Steps: steps, TerminatedReason: terminated}
	}

	return sg, trace, nil
}

type edgeKey struct {
	subject   int64
	predicate string
	object    int64
}

func dedupePreserveOrder(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
