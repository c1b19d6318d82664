package graph

import (
	"context"
	"time"
)

// PathStep is one edge traversed along a path.
type PathStep struct {
	Subject   int64
	Predicate string
	Object    int64
}

// GraphPath is an ordered sequence of steps. An empty path represents
// source == target.
type GraphPath struct {
	Steps []PathStep
}

// Nodes returns the path's node sequence: the first step's subject followed
// by every step's object. For a non-empty path the length is Hops()+1; an
// empty path returns no nodes (there are simply zero steps to reference).
func (p GraphPath) Nodes() []int64 {
	if len(p.Steps) == 0 {
		return nil
	}
	nodes := make([]int64, 0, len(p.Steps)+1)
	nodes = append(nodes, p.Steps[0].Subject)
	for _, s := range p.Steps {
		nodes = append(nodes, s.Object)
	}
	return nodes
}

// Hops returns the step count.
func (p GraphPath) Hops() int {
	return len(p.Steps)
}

// PathsOptions configures a bidirectional shortest-path search.
type PathsOptions struct {
	PredicateKinds map[PredicateKind]struct{}
	MaxDepth       int
	On             *time.Time
	MaxPaths       int
	Traced         bool
}

type predEdge struct {
	node      int64
	predicate string
}

// orderedSet tracks meeting-node candidates in discovery order so that equal
// shortest-length path lists are reproducible across runs
// instead of depending on Go's randomized map iteration.
type orderedSet struct {
	members map[int64]struct{}
	order   []int64
}

func newOrderedSet() *orderedSet {
	return &orderedSet{members: make(map[int64]struct{})}
}

func (s *orderedSet) reset(node int64) {
	s.members = map[int64]struct{}{node: {}}
	s.order = []int64{node}
}

func (s *orderedSet) add(node int64) {
	if _, ok := s.members[node]; ok {
		return
	}
	s.members[node] = struct{}{}
	s.order = append(s.order, node)
}

func (s *orderedSet) len() int {
	return len(s.order)
}

// FindShortestPaths performs bidirectional BFS between source and target,
// expanding the smaller frontier each iteration, and reconstructs every
// equal-shortest path up to MaxPaths.
func FindShortestPaths(ctx context.Context, store ConceptStore, source, target int64, opts PathsOptions) ([]GraphPath, *GraphTrace, error) {
	if source == target {
		path := GraphPath{Steps: nil}
		var trace *GraphTrace
		if opts.Traced {
			trace = &GraphTrace{Seeds: []int64{source}, Steps: nil, TerminatedReason: "source_equals_target"}
		}
		return []GraphPath{path}, trace, nil
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 6
	}

	qFwd := []int64{source}
	qBwd := []int64{target}

	depthFwd := map[int64]int{source: 0}
	depthBwd := map[int64]int{target: 0}

	parentsFwd := make(map[int64][]predEdge)
	parentsBwd := make(map[int64][]predEdge)

	var bestTotalDepth *int
	meeting := newOrderedSet()
	var traceSteps []TraceStep

	for len(qFwd) > 0 && len(qBwd) > 0 {
		expandForward := len(qFwd) <= len(qBwd)

		var expanded []Edge
		var curDepth int
		var curNode int64

		if expandForward {
			cur := qFwd[0]
			qFwd = qFwd[1:]
			d := depthFwd[cur]
			curDepth, curNode = d, cur

			if d < opts.MaxDepth {
				edges, err := IterEdges(ctx, store, cur, IterEdgesOptions{
					Direction:      Outgoing,
					PredicateKinds: opts.PredicateKinds,
					ActiveOnly:     true,
					On:             opts.On,
					WithinDomain:   true,
				})
				if err != nil {
					return nil, nil, err
				}

				for _, e := range edges {
					nxt := e.ObjectID
					nd := d + 1
					if nd > opts.MaxDepth {
						continue
					}
					expanded = append(expanded, e)

					if _, ok := depthFwd[nxt]; !ok {
						depthFwd[nxt] = nd
						qFwd = append(qFwd, nxt)
					}
					if depthFwd[nxt] == nd {
						parentsFwd[nxt] = append(parentsFwd[nxt], predEdge{node: cur, predicate: e.PredicateID})
					}

					if bd, ok := depthBwd[nxt]; ok {
						total := nd + bd
						bestTotalDepth = updateMeeting(meeting, bestTotalDepth, nxt, total)
					}
				}
			}
		} else {
			cur := qBwd[0]
			qBwd = qBwd[1:]
			d := depthBwd[cur]
			curDepth, curNode = d, cur

			if d < opts.MaxDepth {
				edges, err := IterEdges(ctx, store, cur, IterEdgesOptions{
					Direction:      Incoming,
					PredicateKinds: opts.PredicateKinds,
					ActiveOnly:     true,
					On:             opts.On,
					WithinDomain:   true,
				})
				if err != nil {
					return nil, nil, err
				}

				for _, e := range edges {
					expanded = append(expanded, e)
					prev := e.SubjectID
					nd := d + 1
					if nd > opts.MaxDepth {
						continue
					}

					if _, ok := depthBwd[prev]; !ok {
						depthBwd[prev] = nd
						qBwd = append(qBwd, prev)
					}
					if depthBwd[prev] == nd {
						parentsBwd[prev] = append(parentsBwd[prev], predEdge{node: cur, predicate: e.PredicateID})
					}

					if fd, ok := depthFwd[prev]; ok {
						total := fd + nd
						bestTotalDepth = updateMeeting(meeting, bestTotalDepth, prev, total)
					}
				}
			}
		}

		if opts.Traced {
			traceSteps = append(traceSteps, TraceStep{Depth: curDepth, Node: curNode, ExpandedEdges: expanded})
		}

		if bestTotalDepth != nil {
			minFwd := minDepth(qFwd, depthFwd, depthFwd[source])
			minBwd := minDepth(qBwd, depthBwd, depthBwd[target])
			if minFwd+minBwd >= *bestTotalDepth {
				break
			}
		}
	}

	if meeting.len() == 0 {
		var trace *GraphTrace
		if opts.Traced {
			trace = &GraphTrace{Seeds: []int64{source}, Steps: traceSteps, TerminatedReason: "no_path"}
		}
		return nil, trace, nil
	}

	maxPaths := opts.MaxPaths
	if maxPaths <= 0 {
		maxPaths = 20
	}

	var paths []GraphPath
	for _, meet := range meeting.order {
		remaining := maxPaths - len(paths)
		if remaining <= 0 {
			break
		}
		paths = append(paths, reconstructPaths(source, target, meet, parentsFwd, parentsBwd, remaining)...)
	}
	if len(paths) > maxPaths {
		paths = paths[:maxPaths]
	}

	var trace *GraphTrace
	if opts.Traced {
		trace = &GraphTrace{Seeds: []int64{source}, Steps: traceSteps, TerminatedReason: "shortest_paths_found"}
	}

	return paths, trace, nil
}

// updateMeeting records a candidate meeting node for the current best total
// shortest-path depth, resetting the set in discovery order whenever a
// strictly shorter total is found and appending to it on ties.
func updateMeeting(meeting *orderedSet, best *int, node int64, total int) *int {
	switch {
	case best == nil || total < *best:
		b := total
		meeting.reset(node)
		return &b
	case total == *best:
		meeting.add(node)
		return best
	default:
		return best
	}
}

func minDepth(queue []int64, depth map[int64]int, fallback int) int {
	if len(queue) == 0 {
		return fallback
	}
	min := depth[queue[0]]
	for _, n := range queue[1:] {
		if d := depth[n]; d < min {
			min = d
		}
	}
	return min
}

// reconstructPaths enumerates every equal-shortest path through a meeting
// node, concatenating forward prefixes (source -> meet) with backward
// suffixes (meet -> target). It stops generating as soon as `limit` paths
// have been produced, applying the max_paths cutoff during enumeration
// rather than only after.
func reconstructPaths(source, target, meet int64, parentsFwd, parentsBwd map[int64][]predEdge, limit int) []GraphPath {
	if limit <= 0 {
		return nil
	}

	lefts := enumeratePrefixes(meet, source, parentsFwd, limit)
	rights := enumerateSuffixes(meet, target, parentsBwd, limit)

	var out []GraphPath
	for _, l := range lefts {
		for _, r := range rights {
			steps := make([]PathStep, 0, len(l)+len(r))
			steps = append(steps, l...)
			steps = append(steps, r...)
			out = append(out, GraphPath{Steps: steps})
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}

// enumeratePrefixes walks parentsFwd backward from n to source using an
// explicit stack, producing every forward prefix ending at n. Each stack
// frame carries the partial (reversed) step list built so far.
func enumeratePrefixes(n, source int64, parentsFwd map[int64][]predEdge, limit int) [][]PathStep {
	type frame struct {
		node  int64
		steps []PathStep // steps collected so far, in source->node order, stored reversed during the walk
	}

	var results [][]PathStep
	stack := []frame{{node: n, steps: nil}}

	for len(stack) > 0 && len(results) < limit {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node == source {
			rev := make([]PathStep, len(top.steps))
			for i, s := range top.steps {
				rev[len(top.steps)-1-i] = s
			}
			results = append(results, rev)
			continue
		}

		parents := parentsFwd[top.node]
		for i := len(parents) - 1; i >= 0; i-- {
			pe := parents[i]
			nextSteps := append(append([]PathStep(nil), top.steps...), PathStep{Subject: pe.node, Predicate: pe.predicate, Object: top.node})
			stack = append(stack, frame{node: pe.node, steps: nextSteps})
			if len(stack) > limit*64 {
				// Extremely wide fan-out; the limit cutoff below still
				// bounds total results, but bound stack growth too.
				break
			}
		}
	}
	return results
}

// enumerateSuffixes walks parentsBwd from n to target, producing every
// backward suffix starting at n, in n->target order.
func enumerateSuffixes(n, target int64, parentsBwd map[int64][]predEdge, limit int) [][]PathStep {
	type frame struct {
		node  int64
		steps []PathStep
	}

	var results [][]PathStep
	stack := []frame{{node: n, steps: nil}}

	for len(stack) > 0 && len(results) < limit {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.node == target {
			results = append(results, top.steps)
			continue
		}

		parents := parentsBwd[top.node]
		for i := len(parents) - 1; i >= 0; i-- {
			pe := parents[i]
			nextSteps := append(append([]PathStep(nil), top.steps...), PathStep{Subject: top.node, Predicate: pe.predicate, Object: pe.node})
			stack = append(stack, frame{node: pe.node, steps: nextSteps})
			if len(stack) > limit*64 {
				break
			}
		}
	}
	return results
}
