package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/grounding"
	"github.com/conceptgraph/reasoner/internal/reasoning/phenotype"
	"github.com/conceptgraph/reasoner/internal/reasoning/resolve"
)

// Handlers is a thin decode-call-encode layer over the public reasoning
// operations. It performs no reasoning of its own.
type Handlers struct {
	Store    graph.ConceptStore
	Pipeline resolve.ResolverPipeline
}

func NewHandlers(store graph.ConceptStore) *Handlers {
	return &Handlers{
		Store: store,
		Pipeline: resolve.ResolverPipeline{
			Resolvers: []resolve.CandidateResolver{
				resolve.ExactLabelResolver{},
				resolve.ExactSynonymResolver{},
				resolve.CodeResolver{},
				resolve.PartialLabelResolver{},
				resolve.SynonymPartialResolver{},
			},
		},
	}
}

type traverseRequest struct {
	Seeds          []int64  `json:"seeds" binding:"required"`
	PredicateKinds []string `json:"predicateKinds"`
	MaxDepth       int      `json:"maxDepth"`
	MaxNodes       int      `json:"maxNodes"`
	On             *string  `json:"on"`
	Trace          bool     `json:"trace"`
}

func (h *Handlers) Traverse(c *gin.Context) {
	var req traverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	kinds, err := parsePredicateKinds(req.PredicateKinds)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	on, err := parseOn(req.On)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	sg, trace, err := graph.Traverse(c.Request.Context(), h.Store, req.Seeds, graph.TraverseOptions{
		PredicateKinds: kinds,
		MaxDepth:       req.MaxDepth,
		MaxNodes:       req.MaxNodes,
		On:             on,
		Trace:          req.Trace,
	})
	if err != nil {
		handleErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nodeIds": sg.NodeIDs(), "edges": sg.Edges, "trace": trace})
}

type pathsRequest struct {
	Source         int64    `json:"source" binding:"required"`
	Target         int64    `json:"target" binding:"required"`
	PredicateKinds []string `json:"predicateKinds"`
	MaxDepth       int      `json:"maxDepth"`
	MaxPaths       int      `json:"maxPaths"`
	On             *string  `json:"on"`
	Rank           bool     `json:"rank"`
}

func (h *Handlers) Paths(c *gin.Context) {
	var req pathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	kinds, err := parsePredicateKinds(req.PredicateKinds)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	on, err := parseOn(req.On)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	opts := graph.PathsOptions{
		PredicateKinds: kinds,
		MaxDepth:       req.MaxDepth,
		MaxPaths:       req.MaxPaths,
		On:             on,
	}

	if req.Rank {
		explanations, err := graph.FindRankedPathsWithExplanations(c.Request.Context(), h.Store, req.Source, req.Target, opts)
		if err != nil {
			handleErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"paths": explanations})
		return
	}

	paths, trace, err := graph.FindShortestPaths(c.Request.Context(), h.Store, req.Source, req.Target, opts)
	if err != nil {
		handleErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paths": paths, "trace": trace})
}

type groundRequest struct {
	Text                string   `json:"text" binding:"required"`
	ParentIDs           []int64  `json:"parentIds"`
	AllowedDomains      []string `json:"allowedDomains"`
	AllowedVocabularies []string `json:"allowedVocabularies"`
	RequireStandard     bool     `json:"requireStandard"`
	MaxDepth            int      `json:"maxDepth"`
}

func (h *Handlers) Ground(c *gin.Context) {
	var req groundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	candidates, err := grounding.GroundTerm(c.Request.Context(), h.Store, req.Text, grounding.Constraints{
		ParentIDs:           req.ParentIDs,
		AllowedDomains:      req.AllowedDomains,
		AllowedVocabularies: req.AllowedVocabularies,
		RequireStandard:     req.RequireStandard,
		MaxDepth:            req.MaxDepth,
	}, h.Pipeline)
	if err != nil {
		handleErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

type parentCoverRequest struct {
	Seeds               []int64 `json:"seeds" binding:"required"`
	MinCoverage         int     `json:"minCoverage"`
	MaxUpDepth          int     `json:"maxUpDepth"`
	TargetCoverageRatio float64 `json:"targetCoverageRatio"`
	Alpha               float64 `json:"alpha"`
	Beta                float64 `json:"beta"`
	Gamma               float64 `json:"gamma"`
	Delta               float64 `json:"delta"`
	MinGain             int     `json:"minGain"`
}

func (h *Handlers) ParentCover(c *gin.Context) {
	var req parentCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	minCoverage := req.MinCoverage
	if minCoverage <= 0 {
		minCoverage = 2
	}

	candidates, err := phenotype.FindCommonParents(c.Request.Context(), h.Store, req.Seeds, minCoverage, req.MaxUpDepth)
	if err != nil {
		handleErr(c, err)
		return
	}

	selected := phenotype.GreedyParentCover(req.Seeds, candidates, phenotype.GreedyCoverOptions{
		TargetCoverageRatio: req.TargetCoverageRatio,
		Alpha:               req.Alpha,
		Beta:                req.Beta,
		Gamma:               req.Gamma,
		Delta:               req.Delta,
		MinGain:             req.MinGain,
	})

	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "selected": selected})
}

func parsePredicateKinds(names []string) (map[graph.PredicateKind]struct{}, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make(map[graph.PredicateKind]struct{}, len(names))
	for _, name := range names {
		kind, err := parsePredicateKind(name)
		if err != nil {
			return nil, err
		}
		out[kind] = struct{}{}
	}
	return out, nil
}

func parsePredicateKind(name string) (graph.PredicateKind, error) {
	switch name {
	case "Ontological":
		return graph.Ontological, nil
	case "Mapping":
		return graph.Mapping, nil
	case "Versioning":
		return graph.Versioning, nil
	case "Attribute":
		return graph.Attribute, nil
	case "Metadata":
		return graph.Metadata, nil
	default:
		return 0, errInvalidPredicateKind(name)
	}
}

type invalidPredicateKindError struct{ name string }

func (e invalidPredicateKindError) Error() string {
	return "unknown predicate kind: " + e.name
}

func errInvalidPredicateKind(name string) error {
	return invalidPredicateKindError{name: name}
}

func parseOn(on *string) (*time.Time, error) {
	if on == nil || *on == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *on)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
