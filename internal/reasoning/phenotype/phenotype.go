package phenotype

import (
	"context"
	"math"
	"sort"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
)

// ParentStatistics accumulates evidence for one candidate parent concept
// across a phenotype seed set.
type ParentStatistics struct {
	Descendants  map[int64]struct{} // seeds reached under this parent, plus its "Subsumes" closure once FindCommonParents merges it in
	Found        map[int64]struct{} // seeds whose "Is a" walk passed through this parent
	Coverage     int
	Pollution    int
	Completeness float64
	Purity       float64
	MaxDepth     int
}

func newParentStatistics() *ParentStatistics {
	return &ParentStatistics{
		Descendants: make(map[int64]struct{}),
		Found:       make(map[int64]struct{}),
	}
}

var isAEdge = graph.PredicateByID("Is a")
var subsumesEdge = graph.PredicateByID("Subsumes")
var mapsToEdge = graph.PredicateByID("Maps to")

// ParentSearch returns conceptID's one-hop parents along "Is a" edges only.
func ParentSearch(ctx context.Context, store graph.ConceptStore, conceptID int64) (map[int64]struct{}, error) {
	edges, err := graph.IterEdges(ctx, store, conceptID, graph.IterEdgesOptions{
		Direction:    graph.Outgoing,
		Predicate:    isAEdge,
		ActiveOnly:   true,
		WithinDomain: true,
	})
	if err != nil {
		return nil, err
	}

	parents := make(map[int64]struct{}, len(edges))
	for _, e := range edges {
		if e.ObjectID == conceptID {
			continue
		}
		parents[e.ObjectID] = struct{}{}
	}
	return parents, nil
}

// DescendantsExhaustiveSubsumes returns the full descendant closure of
// rootID along "Subsumes" edges only. Traversal does not expand past a node
// in excludeRoots, though that node itself is still included in the result.
func DescendantsExhaustiveSubsumes(ctx context.Context, store graph.ConceptStore, rootID int64, excludeRoots map[int64]struct{}) (map[int64]struct{}, error) {
	descendants := make(map[int64]struct{})
	frontier := []int64{rootID}

	for len(frontier) > 0 {
		current := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		edges, err := graph.IterEdges(ctx, store, current, graph.IterEdgesOptions{
			Direction:    graph.Outgoing,
			Predicate:    subsumesEdge,
			ActiveOnly:   true,
			WithinDomain: true,
		})
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			child := e.ObjectID
			if child == current {
				continue
			}
			if _, seen := descendants[child]; seen {
				continue
			}
			descendants[child] = struct{}{}
			if _, excluded := excludeRoots[child]; excluded {
				continue
			}
			frontier = append(frontier, child)
		}
	}

	return descendants, nil
}

// standardiseIDs maps each id to its standard concept via the first "Maps
// to" edge found, falling back to the id itself when no mapping exists.
func standardiseIDs(ctx context.Context, store graph.ConceptStore, ids map[int64]struct{}) (map[int64]int64, error) {
	mapping := make(map[int64]int64, len(ids))
	for id := range ids {
		edges, err := graph.IterEdges(ctx, store, id, graph.IterEdgesOptions{
			Direction:    graph.Outgoing,
			Predicate:    mapsToEdge,
			ActiveOnly:   true,
			WithinDomain: true,
		})
		if err != nil {
			return nil, err
		}
		if len(edges) > 0 {
			mapping[id] = edges[0].ObjectID
		} else {
			mapping[id] = id
		}
	}
	return mapping, nil
}

type frontierItem struct {
	current int64
	origin  int64
	depth   int
}

type visitKey struct {
	current int64
	origin  int64
}

// FindCommonParents walks upward from every seed along "Is a" edges,
// recording at each ancestor which seeds it could explain, then folds each
// candidate to its standard concept and computes coverage, pollution,
// purity, and completeness. Only candidates explaining at least minCoverage
// seeds are returned. maxUpDepth, if positive, bounds how far upward the
// walk goes.
func FindCommonParents(ctx context.Context, store graph.ConceptStore, seeds []int64, minCoverage int, maxUpDepth int) (map[int64]*ParentStatistics, error) {
	seedSet := make(map[int64]struct{}, len(seeds))
	for _, s := range seeds {
		seedSet[s] = struct{}{}
	}

	standardSeedMap, err := standardiseIDs(ctx, store, seedSet)
	if err != nil {
		return nil, err
	}
	standardSeeds := make(map[int64]struct{}, len(standardSeedMap))
	for _, std := range standardSeedMap {
		standardSeeds[std] = struct{}{}
	}

	exclude := make(map[int64]struct{}, len(seedSet)+len(standardSeeds))
	for id := range seedSet {
		exclude[id] = struct{}{}
	}
	for id := range standardSeeds {
		exclude[id] = struct{}{}
	}

	candidates := make(map[int64]*ParentStatistics)
	visited := make(map[visitKey]struct{})

	frontier := make([]frontierItem, 0, len(seeds))
	for _, s := range seeds {
		frontier = append(frontier, frontierItem{current: s, origin: s, depth: 0})
	}

	for len(frontier) > 0 {
		item := frontier[0]
		frontier = frontier[1:]

		key := visitKey{current: item.current, origin: item.origin}
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}

		if maxUpDepth > 0 && item.depth >= maxUpDepth {
			continue
		}

		parents, err := ParentSearch(ctx, store, item.current)
		if err != nil {
			return nil, err
		}

		for parent := range parents {
			stats, ok := candidates[parent]
			if !ok {
				stats = newParentStatistics()
				candidates[parent] = stats
			}
			stats.Found[item.origin] = struct{}{}
			stats.Descendants[item.origin] = struct{}{}
			if item.depth+1 > stats.MaxDepth {
				stats.MaxDepth = item.depth + 1
			}

			frontier = append(frontier, frontierItem{current: parent, origin: item.origin, depth: item.depth + 1})
		}
	}

	candidateIDs := make(map[int64]struct{}, len(candidates))
	for id := range candidates {
		candidateIDs[id] = struct{}{}
	}
	standardMap, err := standardiseIDs(ctx, store, candidateIDs)
	if err != nil {
		return nil, err
	}

	final := make(map[int64]*ParentStatistics)
	for parent, stats := range candidates {
		stdParent := standardMap[parent]
		fstats, ok := final[stdParent]
		if !ok {
			fstats = newParentStatistics()
			final[stdParent] = fstats
		}
		for d := range stats.Descendants {
			fstats.Descendants[d] = struct{}{}
		}
		for f := range stats.Found {
			fstats.Found[f] = struct{}{}
		}
		if stats.MaxDepth > fstats.MaxDepth {
			fstats.MaxDepth = stats.MaxDepth
		}
	}

	for _, stats := range final {
		stats.Coverage = len(stats.Descendants)
	}

	for parent, stats := range final {
		allDesc, err := DescendantsExhaustiveSubsumes(ctx, store, parent, exclude)
		if err != nil {
			return nil, err
		}

		pollution := 0
		for d := range allDesc {
			if _, inStdSeed := standardSeeds[d]; inStdSeed {
				continue
			}
			if _, inSeed := seedSet[d]; inSeed {
				continue
			}
			pollution++
		}
		stats.Pollution = pollution

		for d := range allDesc {
			stats.Descendants[d] = struct{}{}
		}

		denom := stats.Coverage + stats.Pollution
		if denom > 0 {
			stats.Purity = float64(stats.Coverage) / float64(denom)
		}
		if len(seeds) > 0 {
			stats.Completeness = float64(stats.Coverage) / float64(len(seeds))
		}

		_ = parent
	}

	out := make(map[int64]*ParentStatistics)
	for parent, stats := range final {
		if stats.Coverage >= minCoverage {
			out[parent] = stats
		}
	}
	return out, nil
}

// GreedyCoverOptions tunes the greedy parent-cover scoring function.
type GreedyCoverOptions struct {
	TargetCoverageRatio float64 // default 1.0
	Alpha               float64 // gain exponent, default 1.0
	Beta                float64 // purity exponent, default 1.0
	Gamma               float64 // pollution penalty exponent, default 0.3
	Delta               float64 // depth penalty exponent, default 0.7
	MinGain             int     // default 1
}

func (o GreedyCoverOptions) withDefaults() GreedyCoverOptions {
	if o.TargetCoverageRatio == 0 {
		o.TargetCoverageRatio = 1.0
	}
	if o.Alpha == 0 {
		o.Alpha = 1.0
	}
	if o.Beta == 0 {
		o.Beta = 1.0
	}
	if o.Gamma == 0 {
		o.Gamma = 0.3
	}
	if o.Delta == 0 {
		o.Delta = 0.7
	}
	if o.MinGain == 0 {
		o.MinGain = 1
	}
	return o
}

// GreedyParentCover greedily selects candidate parents that cover seeds,
// preferring high-gain, high-purity, shallow, low-pollution candidates each
// round, until the coverage ratio target is hit or no candidate can make
// further progress.
//
// Open question: alpha/beta/gamma/delta are exposed as tuning
// knobs with the original's defaults; no optimality proof is claimed for any
// particular setting.
func GreedyParentCover(seeds []int64, candidates map[int64]*ParentStatistics, opts GreedyCoverOptions) []int64 {
	opts = opts.withDefaults()

	remaining := make(map[int64]struct{}, len(seeds))
	for _, s := range seeds {
		remaining[s] = struct{}{}
	}

	var selected []int64

	candidateIDs := make([]int64, 0, len(candidates))
	for cid := range candidates {
		candidateIDs = append(candidateIDs, cid)
	}
	sort.Slice(candidateIDs, func(i, j int) bool { return candidateIDs[i] < candidateIDs[j] })

	score := func(c *ParentStatistics, gain int) float64 {
		if gain <= 0 {
			return -1.0
		}
		num := math.Pow(float64(gain), opts.Alpha) * math.Pow(c.Purity, opts.Beta)
		den := math.Pow(1+float64(c.Pollution), opts.Gamma) * math.Pow(1+float64(c.MaxDepth), opts.Delta)
		return num / den
	}

	for len(remaining) > 0 {
		covered := len(seeds) - len(remaining)
		total := len(seeds)
		if total < 1 {
			total = 1
		}
		if float64(covered)/float64(total) >= opts.TargetCoverageRatio {
			break
		}

		var bestID int64
		haveBest := false
		bestScore := -1.0
		var bestGainSet map[int64]struct{}

		for _, cid := range candidateIDs {
			c := candidates[cid]
			gainSet := make(map[int64]struct{})
			for f := range c.Found {
				if _, ok := remaining[f]; ok {
					gainSet[f] = struct{}{}
				}
			}
			gain := len(gainSet)
			if gain < opts.MinGain {
				continue
			}

			s := score(c, gain)
			if s > bestScore {
				bestScore = s
				bestID = cid
				haveBest = true
				bestGainSet = gainSet
			}
		}

		if !haveBest {
			break
		}

		selected = append(selected, bestID)
		for g := range bestGainSet {
			delete(remaining, g)
		}
	}

	return selected
}

// GroupRelation records that group `From`'s covered seeds are a subset of
// group `To`'s, i.e. From is subsumed by To for this phenotype.
type GroupRelation struct {
	Type    string
	From    int64
	To      int64
	Overlap int
}

// RelateGroups reports subsumption relations between candidate parent
// groups: From is subsumed_by To when every seed From explains, To also
// explains.
func RelateGroups(groups map[int64]*ParentStatistics) []GroupRelation {
	var relations []GroupRelation

	for c1, g1 := range groups {
		for c2, g2 := range groups {
			if c1 == c2 {
				continue
			}
			if isSubsetOf(g1.Found, g2.Found) {
				relations = append(relations, GroupRelation{
					Type:    "subsumed_by",
					From:    c1,
					To:      c2,
					Overlap: len(g1.Found),
				})
			}
		}
	}

	return relations
}

func isSubsetOf(a, b map[int64]struct{}) bool {
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
