// Package graphmirror is a Neo4j-backed ConceptStore. It reads from a
// materialized mirror of the OMOP vocabulary (kept in sync by
// internal/materialize) rather than Postgres directly, trading write
// freshness for cheaper multi-hop traversal — the access pattern
// FindShortestPaths and Traverse exercise heavily.
package graphmirror

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/conceptgraph/reasoner/internal/platform/neo4jdb"
	"github.com/conceptgraph/reasoner/internal/reasoning/apierr"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/lrucache"
)

// Store implements graph.ConceptStore against the Neo4j mirror. It caches
// only concept views, predicates, predicate kinds and parents (with the same
// capacities omopdb.Store gives those reads); edges, code and label/synonym
// lookups, synonyms and roots/leaves/singletons are read from Neo4j on every
// call.
type Store struct {
	client *neo4jdb.Client

	conceptViews  *lrucache.Cache[int64, graph.Concept]
	predicates    *lrucache.Cache[string, graph.Predicate]
	predicateKind *lrucache.Cache[string, graph.PredicateKind]
	parents       *lrucache.Cache[int64, []int64]
}

func New(client *neo4jdb.Client) *Store {
	return &Store{
		client:        client,
		conceptViews:  lrucache.New[int64, graph.Concept](200_000),
		predicates:    lrucache.New[string, graph.Predicate](10_000),
		predicateKind: lrucache.New[string, graph.PredicateKind](10_000),
		parents:       lrucache.New[int64, []int64](500_000),
	}
}

func (s *Store) read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

func (s *Store) ConceptView(ctx context.Context, conceptID int64) (graph.Concept, error) {
	if v, ok := s.conceptViews.Get(conceptID); ok {
		return v, nil
	}

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (c:Concept {id: $id})
RETURN c.id, c.name, c.code, c.vocabulary_id, c.domain_id, c.concept_class_id,
       c.standard_concept, c.valid_start, c.valid_end, c.invalid_reason
`, map[string]any{"id": conceptID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: concept %d", apierr.ErrNotFound, conceptID)
		}
		return record, nil
	})
	if err != nil {
		return graph.Concept{}, err
	}

	record := res.(*neo4j.Record)
	c, err := conceptFromRecord(record)
	if err != nil {
		return graph.Concept{}, err
	}

	s.conceptViews.Put(conceptID, c)
	return c, nil
}

func conceptFromRecord(r *neo4j.Record) (graph.Concept, error) {
	vals := r.Values
	c := graph.Concept{
		ConceptID:      toInt64(vals[0]),
		ConceptName:    toString(vals[1]),
		ConceptCode:    toString(vals[2]),
		VocabularyID:   toString(vals[3]),
		DomainID:       toString(vals[4]),
		ConceptClassID: toString(vals[5]),
	}
	if s, ok := vals[6].(string); ok && s != "" {
		c.StandardConcept = &s
	}
	if t := toTime(vals[7]); t != nil {
		c.ValidStartDate = *t
	}
	if t := toTime(vals[8]); t != nil {
		c.ValidEndDate = *t
	}
	if s, ok := vals[9].(string); ok && s != "" {
		c.InvalidReason = &s
	}
	return c, nil
}

func (s *Store) ConceptIDByCode(ctx context.Context, vocabularyID, conceptCode string) (int64, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (c:Concept {vocabulary_id: $vocab, code: $code})
RETURN c.id
`, map[string]any{"vocab": vocabularyID, "code": conceptCode})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s", apierr.ErrNotFound, vocabularyID, conceptCode)
		}
		return toInt64(record.Values[0]), nil
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (s *Store) Predicate(ctx context.Context, relationshipID string) (graph.Predicate, error) {
	if v, ok := s.predicates.Get(relationshipID); ok {
		return v, nil
	}

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (p:Predicate {id: $id})
RETURN p.id, p.name, p.reverse_id, p.is_hierarchical, p.defines_ancestry
`, map[string]any{"id": relationshipID})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: predicate %s", apierr.ErrNotFound, relationshipID)
		}
		return record, nil
	})
	if err != nil {
		return graph.Predicate{}, err
	}

	record := res.(*neo4j.Record)
	vals := record.Values
	p := graph.Predicate{
		RelationshipID:  toString(vals[0]),
		Name:            toString(vals[1]),
		IsHierarchical:  toBool(vals[3]),
		DefinesAncestry: toBool(vals[4]),
	}
	if s, ok := vals[2].(string); ok && s != "" {
		p.ReverseID = &s
	}

	s.predicates.Put(relationshipID, p)
	return p, nil
}

func (s *Store) PredicateKind(ctx context.Context, relationshipID string) (graph.PredicateKind, error) {
	if v, ok := s.predicateKind.Get(relationshipID); ok {
		return v, nil
	}

	p, err := s.Predicate(ctx, relationshipID)
	if err != nil {
		return 0, err
	}

	kind := p.Classify(func(id string) (graph.Predicate, error) {
		return s.Predicate(ctx, id)
	})
	s.predicateKind.Put(relationshipID, kind)
	return kind, nil
}

func (s *Store) OutgoingEdges(ctx context.Context, conceptID int64, predicate graph.PredicateRef) ([]graph.Edge, error) {
	return s.edgesOneDirection(ctx, conceptID, predicate, true)
}

func (s *Store) IncomingEdges(ctx context.Context, conceptID int64, predicate graph.PredicateRef) ([]graph.Edge, error) {
	return s.edgesOneDirection(ctx, conceptID, predicate, false)
}

func (s *Store) edgesOneDirection(ctx context.Context, conceptID int64, predicate graph.PredicateRef, outgoing bool) ([]graph.Edge, error) {
	relID, hasRel := predicate.ResolvedID()

	cypher := `MATCH (c:Concept {id: $id})-[r:RELATES]->(o:Concept)`
	if !outgoing {
		cypher = `MATCH (c:Concept {id: $id})<-[r:RELATES]-(o:Concept)`
	}
	if hasRel {
		cypher += ` WHERE r.predicate_id = $predicate`
	}
	cypher += ` RETURN c.id, o.id, r.predicate_id, r.valid_start, r.valid_end, r.invalid_reason`

	params := map[string]any{"id": conceptID}
	if hasRel {
		params["predicate"] = relID
	}

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records := res.([]*neo4j.Record)
	edges := make([]graph.Edge, 0, len(records))
	for _, r := range records {
		vals := r.Values
		var subj, obj int64
		if outgoing {
			subj, obj = toInt64(vals[0]), toInt64(vals[1])
		} else {
			obj, subj = toInt64(vals[0]), toInt64(vals[1])
		}
		e := graph.Edge{
			SubjectID:   subj,
			PredicateID: toString(vals[2]),
			ObjectID:    obj,
		}
		if t := toTime(vals[3]); t != nil {
			e.ValidStart = t
		}
		if t := toTime(vals[4]); t != nil {
			e.ValidEnd = t
		}
		if s, ok := vals[5].(string); ok && s != "" {
			e.InvalidReason = &s
		}
		edges = append(edges, e)
	}
	return edges, nil
}

func (s *Store) Parents(ctx context.Context, conceptID int64) ([]int64, error) {
	if v, ok := s.parents.Get(conceptID); ok {
		return v, nil
	}

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (p:Concept)-[:ANCESTOR_OF {levels: 1}]->(c:Concept {id: $id})
RETURN p.id
`, map[string]any{"id": conceptID})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records := res.([]*neo4j.Record)
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, toInt64(r.Values[0]))
	}

	s.parents.Put(conceptID, ids)
	return ids, nil
}

func (s *Store) structuralQuery(ctx context.Context, cypher string, filter graph.DomainVocabFilter) ([]int64, error) {
	params := map[string]any{"domain": filter.DomainID, "vocab": filter.VocabularyID}

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records := res.([]*neo4j.Record)
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		ids = append(ids, toInt64(r.Values[0]))
	}
	return ids, nil
}

func (s *Store) Roots(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	return s.structuralQuery(ctx, `
MATCH (c:Concept)
WHERE ($domain = '' OR c.domain_id = $domain)
  AND ($vocab = '' OR c.vocabulary_id = $vocab)
  AND NOT (:Concept)-[:ANCESTOR_OF {levels: 1}]->(c)
RETURN c.id
`, filter)
}

func (s *Store) Leaves(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	return s.structuralQuery(ctx, `
MATCH (c:Concept)
WHERE ($domain = '' OR c.domain_id = $domain)
  AND ($vocab = '' OR c.vocabulary_id = $vocab)
  AND NOT (c)-[:ANCESTOR_OF {levels: 1}]->(:Concept)
RETURN c.id
`, filter)
}

func (s *Store) Singletons(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	return s.structuralQuery(ctx, `
MATCH (c:Concept)
WHERE ($domain = '' OR c.domain_id = $domain)
  AND ($vocab = '' OR c.vocabulary_id = $vocab)
  AND NOT (:Concept)-[:ANCESTOR_OF {levels: 1}]->(c)
  AND NOT (c)-[:ANCESTOR_OF {levels: 1}]->(:Concept)
RETURN c.id
`, filter)
}

func (s *Store) LabelLookup(ctx context.Context, text string, fuzzy bool) ([]graph.LabelMatch, error) {
	return s.textLookup(ctx, text, fuzzy, false)
}

func (s *Store) SynonymLookup(ctx context.Context, text string, fuzzy bool) ([]graph.LabelMatch, error) {
	return s.textLookup(ctx, text, fuzzy, true)
}

func (s *Store) textLookup(ctx context.Context, text string, fuzzy, synonym bool) ([]graph.LabelMatch, error) {
	input := graph.NormalizeLabel(text)
	if input == "" {
		return nil, nil
	}

	var cypher string
	matchKind := graph.Direct
	if synonym {
		matchKind = graph.Synonym
		if fuzzy {
			cypher = `MATCH (c:Concept)-[:HAS_SYNONYM]->(s:Synonym) WHERE toLower(s.name) CONTAINS $q RETURN c.id, s.name, c.standard_concept, c.invalid_reason`
		} else {
			cypher = `MATCH (c:Concept)-[:HAS_SYNONYM]->(s:Synonym) WHERE toLower(s.name) = $q RETURN c.id, s.name, c.standard_concept, c.invalid_reason`
		}
	} else {
		if fuzzy {
			cypher = `MATCH (c:Concept) WHERE toLower(c.name) CONTAINS $q RETURN c.id, c.name, c.standard_concept, c.invalid_reason`
		} else {
			cypher = `MATCH (c:Concept) WHERE toLower(c.name) = $q RETURN c.id, c.name, c.standard_concept, c.invalid_reason`
		}
	}

	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{"q": input})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records := res.([]*neo4j.Record)
	matches := make([]graph.LabelMatch, 0, len(records))
	for _, r := range records {
		vals := r.Values
		invalid, _ := vals[3].(string)
		isInvalid := invalid != ""
		standard, _ := vals[2].(string)
		matches = append(matches, graph.LabelMatch{
			InputLabel:   input,
			MatchedLabel: toString(vals[1]),
			ConceptID:    toInt64(vals[0]),
			MatchKind:    matchKind,
			IsStandard:   standard != "",
			IsActive:     !isInvalid,
		})
	}
	return matches, nil
}

func (s *Store) SynonymsForConcept(ctx context.Context, conceptID int64) ([]string, error) {
	res, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (c:Concept {id: $id})-[:HAS_SYNONYM]->(s:Synonym)
RETURN s.name
`, map[string]any{"id": conceptID})
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return records, nil
	})
	if err != nil {
		return nil, err
	}

	records := res.([]*neo4j.Record)
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, toString(r.Values[0]))
	}
	return names, nil
}

// ClearCaches invalidates the local LRU memoization layer. It does not
// touch Neo4j itself.
func (s *Store) ClearCaches() {
	s.conceptViews.Clear()
	s.predicates.Clear()
	s.predicateKind.Clear()
	s.parents.Clear()
}

func toInt64(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	default:
		return 0
	}
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toTime(v any) *time.Time {
	switch x := v.(type) {
	case time.Time:
		return &x
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return &t
		}
	}
	return nil
}

var _ graph.ConceptStore = (*Store)(nil)
