package omopdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/conceptgraph/reasoner/internal/platform/logger"
	"github.com/conceptgraph/reasoner/internal/reasoning/apierr"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/lrucache"
)

// inFailedTransactionSQLState is Postgres' "current transaction is aborted"
// code, raised by pgx when a prior statement on the same connection failed
// and the session must roll back before it can run anything else.
const inFailedTransactionSQLState = "25P02"

// Store is the Postgres-backed ConceptStore. It memoizes every read behind
// a bounded LRU: edge and parent queries get the largest caches (500k),
// concept views, code and label/synonym lookups 200k, synonym lists 50k,
// structural queries (roots, leaves, singletons) 20k, and predicates 10k.
type Store struct {
	db  *gorm.DB
	log *logger.Logger

	conceptViews  *lrucache.Cache[int64, graph.Concept]
	conceptByCode *lrucache.Cache[codeKey, int64]
	predicates    *lrucache.Cache[string, graph.Predicate]
	predicateKind *lrucache.Cache[string, graph.PredicateKind]
	outgoing      *lrucache.Cache[edgeQueryKey, []graph.Edge]
	incoming      *lrucache.Cache[edgeQueryKey, []graph.Edge]
	parents       *lrucache.Cache[int64, []int64]
	labelLookup   *lrucache.Cache[lookupKey, []graph.LabelMatch]
	synonymLookup *lrucache.Cache[lookupKey, []graph.LabelMatch]
	synonymsFor   *lrucache.Cache[int64, []string]
	roots         *lrucache.Cache[graph.DomainVocabFilter, []int64]
	leaves        *lrucache.Cache[graph.DomainVocabFilter, []int64]
	singletons    *lrucache.Cache[graph.DomainVocabFilter, []int64]
}

type codeKey struct {
	vocabularyID string
	conceptCode  string
}

type edgeQueryKey struct {
	conceptID      int64
	relationshipID string
	hasRelationship bool
}

type lookupKey struct {
	text  string
	fuzzy bool
}

// DB exposes the underlying GORM handle for callers outside the
// ConceptStore contract that need bulk read access, e.g. internal/materialize
// paging the vocabulary tables for the Neo4j mirror rebuild.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// New builds a Store over an already-connected GORM handle.
func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With("store", "omopdb"),

		conceptViews:  lrucache.New[int64, graph.Concept](200_000),
		conceptByCode: lrucache.New[codeKey, int64](200_000),
		predicates:    lrucache.New[string, graph.Predicate](10_000),
		predicateKind: lrucache.New[string, graph.PredicateKind](10_000),
		outgoing:      lrucache.New[edgeQueryKey, []graph.Edge](500_000),
		incoming:      lrucache.New[edgeQueryKey, []graph.Edge](500_000),
		parents:       lrucache.New[int64, []int64](500_000),
		labelLookup:   lrucache.New[lookupKey, []graph.LabelMatch](200_000),
		synonymLookup: lrucache.New[lookupKey, []graph.LabelMatch](200_000),
		synonymsFor:   lrucache.New[int64, []string](50_000),
		roots:         lrucache.New[graph.DomainVocabFilter, []int64](20_000),
		leaves:        lrucache.New[graph.DomainVocabFilter, []int64](20_000),
		singletons:    lrucache.New[graph.DomainVocabFilter, []int64](20_000),
	}
}

// safeExec runs fn against the store's *gorm.DB, rolling back the session
// when the underlying connection is left in Postgres' aborted-transaction
// state so the next call on the same pooled connection doesn't inherit it.
func (s *Store) safeExec(ctx context.Context, fn func(*gorm.DB) error) error {
	err := fn(s.db.WithContext(ctx))
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", apierr.ErrNotFound, err)
	}
	if isAbortedTransaction(err) {
		s.db.WithContext(ctx).Exec("ROLLBACK")
		return fmt.Errorf("%w: %v", apierr.ErrStoreUnavailable, err)
	}
	return err
}

func isAbortedTransaction(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == inFailedTransactionSQLState
	}
	return strings.Contains(err.Error(), inFailedTransactionSQLState)
}

func (s *Store) ConceptView(ctx context.Context, conceptID int64) (graph.Concept, error) {
	if v, ok := s.conceptViews.Get(conceptID); ok {
		return v, nil
	}

	var row Concept
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		return db.Where("concept_id = ?", conceptID).First(&row).Error
	})
	if err != nil {
		return graph.Concept{}, err
	}

	c := graph.Concept{
		ConceptID:       row.ConceptID,
		ConceptName:     row.ConceptName,
		ConceptCode:     row.ConceptCode,
		VocabularyID:    row.VocabularyID,
		DomainID:        row.DomainID,
		ConceptClassID:  row.ConceptClassID,
		StandardConcept: row.StandardConcept,
		ValidStartDate:  row.ValidStartDate,
		ValidEndDate:    row.ValidEndDate,
		InvalidReason:   row.InvalidReason,
	}
	s.conceptViews.Put(conceptID, c)
	return c, nil
}

func (s *Store) ConceptIDByCode(ctx context.Context, vocabularyID, conceptCode string) (int64, error) {
	key := codeKey{vocabularyID: vocabularyID, conceptCode: conceptCode}
	if v, ok := s.conceptByCode.Get(key); ok {
		return v, nil
	}

	var row Concept
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		return db.Select("concept_id").
			Where("vocabulary_id = ? AND concept_code = ?", vocabularyID, conceptCode).
			First(&row).Error
	})
	if err != nil {
		return 0, err
	}

	s.conceptByCode.Put(key, row.ConceptID)
	return row.ConceptID, nil
}

func (s *Store) Predicate(ctx context.Context, relationshipID string) (graph.Predicate, error) {
	if v, ok := s.predicates.Get(relationshipID); ok {
		return v, nil
	}

	var row Relationship
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		return db.Where("relationship_id = ?", relationshipID).First(&row).Error
	})
	if err != nil {
		return graph.Predicate{}, err
	}

	p := graph.Predicate{
		RelationshipID:  row.RelationshipID,
		Name:            row.RelationshipName,
		ReverseID:       row.ReverseRelationshipID,
		IsHierarchical:  row.IsHierarchical,
		DefinesAncestry: row.DefinesAncestry,
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
	relID, hasRel := predicate.ResolvedID()
	key := edgeQueryKey{conceptID: conceptID, relationshipID: relID, hasRelationship: hasRel}
	if v, ok := s.outgoing.Get(key); ok {
		return v, nil
	}

	var rows []ConceptRelationship
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		q := db.Where("concept_id_1 = ?", conceptID)
		if hasRel {
			q = q.Where("relationship_id = ?", relID)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	edges := edgesFromOutgoingRows(rows)
	s.outgoing.Put(key, edges)
	return edges, nil
}

func (s *Store) IncomingEdges(ctx context.Context, conceptID int64, predicate graph.PredicateRef) ([]graph.Edge, error) {
	relID, hasRel := predicate.ResolvedID()
	key := edgeQueryKey{conceptID: conceptID, relationshipID: relID, hasRelationship: hasRel}
	if v, ok := s.incoming.Get(key); ok {
		return v, nil
	}

	var rows []ConceptRelationship
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		q := db.Where("concept_id_2 = ?", conceptID)
		if hasRel {
			q = q.Where("relationship_id = ?", relID)
		}
		return q.Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	edges := edgesFromOutgoingRows(rows)
	s.incoming.Put(key, edges)
	return edges, nil
}

func edgesFromOutgoingRows(rows []ConceptRelationship) []graph.Edge {
	edges := make([]graph.Edge, 0, len(rows))
	for _, r := range rows {
		start, end := r.ValidStartDate, r.ValidEndDate
		edges = append(edges, graph.Edge{
			SubjectID:     r.ConceptID1,
			PredicateID:   r.RelationshipID,
			ObjectID:      r.ConceptID2,
			ValidStart:    &start,
			ValidEnd:      &end,
			InvalidReason: r.InvalidReason,
		})
	}
	return edges
}

func (s *Store) Parents(ctx context.Context, conceptID int64) ([]int64, error) {
	if v, ok := s.parents.Get(conceptID); ok {
		return v, nil
	}

	var ids []int64
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		return db.Model(&ConceptAncestor{}).
			Where("descendant_concept_id = ? AND min_levels_of_separation = 1", conceptID).
			Pluck("ancestor_concept_id", &ids).Error
	})
	if err != nil {
		return nil, err
	}

	s.parents.Put(conceptID, ids)
	return ids, nil
}

// structuralQuery runs a domain/vocabulary-filtered concept_id query against
// the concept table, used by Roots, Leaves, and Singletons to bound the
// candidate set before the has-parent/has-child subquery.
func (s *Store) structuralQuery(ctx context.Context, filter graph.DomainVocabFilter, extra func(*gorm.DB) *gorm.DB) ([]int64, error) {
	var ids []int64
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		q := db.Model(&Concept{})
		if filter.DomainID != "" {
			q = q.Where("domain_id = ?", filter.DomainID)
		}
		if filter.VocabularyID != "" {
			q = q.Where("vocabulary_id = ?", filter.VocabularyID)
		}
		q = extra(q)
		return q.Pluck("concept_id", &ids).Error
	})
	return ids, err
}

// Roots returns concepts with no "Is a" parent in concept_ancestor (i.e. the
// top of the hierarchy within the filter).
func (s *Store) Roots(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	if v, ok := s.roots.Get(filter); ok {
		return v, nil
	}

	ids, err := s.structuralQuery(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("concept_id NOT IN (?)",
			s.db.Model(&ConceptAncestor{}).Select("descendant_concept_id").Where("min_levels_of_separation = 1"))
	})
	if err != nil {
		return nil, err
	}

	s.roots.Put(filter, ids)
	return ids, nil
}

// Leaves returns concepts with no descendants one level down (the bottom of
// the hierarchy within the filter).
func (s *Store) Leaves(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	if v, ok := s.leaves.Get(filter); ok {
		return v, nil
	}

	ids, err := s.structuralQuery(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("concept_id NOT IN (?)",
			s.db.Model(&ConceptAncestor{}).Select("ancestor_concept_id").Where("min_levels_of_separation = 1"))
	})
	if err != nil {
		return nil, err
	}

	s.leaves.Put(filter, ids)
	return ids, nil
}

// Singletons returns concepts that are both roots and leaves: no parent and
// no child within the filter.
func (s *Store) Singletons(ctx context.Context, filter graph.DomainVocabFilter) ([]int64, error) {
	if v, ok := s.singletons.Get(filter); ok {
		return v, nil
	}

	roots, err := s.Roots(ctx, filter)
	if err != nil {
		return nil, err
	}
	leaves, err := s.Leaves(ctx, filter)
	if err != nil {
		return nil, err
	}

	leafSet := make(map[int64]struct{}, len(leaves))
	for _, id := range leaves {
		leafSet[id] = struct{}{}
	}

	var ids []int64
	for _, id := range roots {
		if _, ok := leafSet[id]; ok {
			ids = append(ids, id)
		}
	}

	s.singletons.Put(filter, ids)
	return ids, nil
}

type labelRow struct {
	ConceptID   int64
	Name        string
	IsStandard  bool
	IsActive    bool
}

func (s *Store) LabelLookup(ctx context.Context, text string, fuzzy bool) ([]graph.LabelMatch, error) {
	input := graph.NormalizeLabel(text)
	key := lookupKey{text: input, fuzzy: fuzzy}
	if v, ok := s.labelLookup.Get(key); ok {
		return v, nil
	}
	if input == "" {
		return nil, nil
	}

	var rows []labelRow
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		q := db.Table("concept").
			Select(`concept_id as concept_id,
				concept_name as name,
				(standard_concept IN ('S','C')) as is_standard,
				(invalid_reason IS NULL) as is_active`)
		if fuzzy {
			q = q.Where("concept_name ILIKE ?", "%"+input+"%")
		} else {
			q = q.Where("LOWER(concept_name) = LOWER(?)", input)
		}
		return q.Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	matches := make([]graph.LabelMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, graph.LabelMatch{
			InputLabel:   input,
			MatchedLabel: r.Name,
			ConceptID:    r.ConceptID,
			MatchKind:    graph.Direct,
			IsStandard:   r.IsStandard,
			IsActive:     r.IsActive,
		})
	}

	s.labelLookup.Put(key, matches)
	return matches, nil
}

func (s *Store) SynonymLookup(ctx context.Context, text string, fuzzy bool) ([]graph.LabelMatch, error) {
	input := graph.NormalizeLabel(text)
	key := lookupKey{text: input, fuzzy: fuzzy}
	if v, ok := s.synonymLookup.Get(key); ok {
		return v, nil
	}
	if input == "" {
		return nil, nil
	}

	var rows []labelRow
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		q := db.Table("concept_synonym").
			Select(`concept_synonym.concept_id as concept_id,
				concept_synonym.concept_synonym_name as name,
				(concept.standard_concept IN ('S','C')) as is_standard,
				(concept.invalid_reason IS NULL) as is_active`).
			Joins("JOIN concept ON concept.concept_id = concept_synonym.concept_id")
		if fuzzy {
			q = q.Where("concept_synonym.concept_synonym_name ILIKE ?", "%"+input+"%")
		} else {
			q = q.Where("LOWER(concept_synonym.concept_synonym_name) = LOWER(?)", input)
		}
		return q.Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	matches := make([]graph.LabelMatch, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, graph.LabelMatch{
			InputLabel:   input,
			MatchedLabel: r.Name,
			ConceptID:    r.ConceptID,
			MatchKind:    graph.Synonym,
			IsStandard:   r.IsStandard,
			IsActive:     r.IsActive,
		})
	}

	s.synonymLookup.Put(key, matches)
	return matches, nil
}

func (s *Store) SynonymsForConcept(ctx context.Context, conceptID int64) ([]string, error) {
	if v, ok := s.synonymsFor.Get(conceptID); ok {
		return v, nil
	}

	var names []string
	err := s.safeExec(ctx, func(db *gorm.DB) error {
		return db.Model(&ConceptSynonym{}).
			Where("concept_id = ?", conceptID).
			Pluck("concept_synonym_name", &names).Error
	})
	if err != nil {
		return nil, err
	}

	s.synonymsFor.Put(conceptID, names)
	return names, nil
}

// ClearCaches invalidates every memoized read, mirroring the reference
// KnowledgeGraph's clear_caches.
func (s *Store) ClearCaches() {
	s.conceptViews.Clear()
	s.conceptByCode.Clear()
	s.predicates.Clear()
	s.predicateKind.Clear()
	s.outgoing.Clear()
	s.incoming.Clear()
	s.parents.Clear()
	s.labelLookup.Clear()
	s.synonymLookup.Clear()
	s.synonymsFor.Clear()
	s.roots.Clear()
	s.leaves.Clear()
	s.singletons.Clear()
}

var _ graph.ConceptStore = (*Store)(nil)
