package materialize

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"gorm.io/gorm"

	"github.com/conceptgraph/reasoner/internal/platform/logger"
	"github.com/conceptgraph/reasoner/internal/platform/neo4jdb"
	"github.com/conceptgraph/reasoner/internal/store/omopdb"
)

// Sync copies the five OMOP vocabulary tables omopdb.Store reads
// (concept, relationship, concept_relationship, concept_ancestor,
// concept_synonym) into the node/relationship shape graphmirror.Store
// expects (from concept_ancestor, only the one-level rows). It pages through
// the large tables in batches and reads the small relationship table in one
// query, with Postgres as the source of truth; Neo4j is a disposable,
// rebuildable projection.
type Sync struct {
	source *gorm.DB
	target *neo4jdb.Client
	log    *logger.Logger
	batch  int
}

func NewSync(source *omopdb.Store, target *neo4jdb.Client, log *logger.Logger, batchSize int) *Sync {
	if batchSize <= 0 {
		batchSize = 5000
	}
	l := log
	if l != nil {
		l = l.With("component", "MaterializeSync")
	}
	return &Sync{source: source.DB(), target: target, log: l, batch: batchSize}
}

// Result summarizes one full sync pass, returned to the Temporal activity
// caller for logging and as workflow history.
type Result struct {
	Predicates    int
	Concepts      int
	Relationships int
	AncestorEdges int
	Synonyms      int
}

// RunFull rebuilds the entire mirror. It is idempotent: every write is a
// Cypher MERGE, so re-running after a partial failure only overwrites rows,
// it never duplicates nodes or relationships.
func (s *Sync) RunFull(ctx context.Context) (Result, error) {
	var res Result
	var err error

	if res.Predicates, err = s.syncPredicates(ctx); err != nil {
		return res, fmt.Errorf("materialize: predicates: %w", err)
	}
	if res.Concepts, err = s.syncConcepts(ctx); err != nil {
		return res, fmt.Errorf("materialize: concepts: %w", err)
	}
	if res.Relationships, err = s.syncRelationships(ctx); err != nil {
		return res, fmt.Errorf("materialize: relationships: %w", err)
	}
	if res.AncestorEdges, err = s.syncAncestry(ctx); err != nil {
		return res, fmt.Errorf("materialize: ancestry: %w", err)
	}
	if res.Synonyms, err = s.syncSynonyms(ctx); err != nil {
		return res, fmt.Errorf("materialize: synonyms: %w", err)
	}

	if s.log != nil {
		s.log.Info("materialize: full sync complete",
			"predicates", res.Predicates, "concepts", res.Concepts,
			"relationships", res.Relationships, "ancestor_edges", res.AncestorEdges,
			"synonyms", res.Synonyms)
	}
	return res, nil
}

func (s *Sync) write(ctx context.Context, cypher string, params map[string]any) error {
	session := s.target.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.target.Database,
	})
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, params)
	})
	return err
}

func (s *Sync) syncPredicates(ctx context.Context) (int, error) {
	var rows []omopdb.Relationship
	if err := s.source.WithContext(ctx).Find(&rows).Error; err != nil {
		return 0, err
	}

	count := 0
	for _, r := range rows {
		reverse := ""
		if r.ReverseRelationshipID != nil {
			reverse = *r.ReverseRelationshipID
		}
		err := s.write(ctx, `
MERGE (p:Predicate {id: $id})
SET p.name = $name, p.reverse_id = $reverse,
    p.is_hierarchical = $hierarchical, p.defines_ancestry = $ancestry
`, map[string]any{
			"id": r.RelationshipID, "name": r.RelationshipName, "reverse": reverse,
			"hierarchical": r.IsHierarchical, "ancestry": r.DefinesAncestry,
		})
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (s *Sync) syncConcepts(ctx context.Context) (int, error) {
	count := 0
	var rows []omopdb.Concept
	err := s.source.WithContext(ctx).FindInBatches(&rows, s.batch, func(tx *gorm.DB, batch int) error {
		for _, c := range rows {
			standard := ""
			if c.StandardConcept != nil {
				standard = *c.StandardConcept
			}
			invalid := ""
			if c.InvalidReason != nil {
				invalid = *c.InvalidReason
			}
			err := s.write(ctx, `
MERGE (c:Concept {id: $id})
SET c.name = $name, c.code = $code, c.vocabulary_id = $vocab,
    c.domain_id = $domain, c.concept_class_id = $class,
    c.standard_concept = $standard, c.valid_start = $start,
    c.valid_end = $end, c.invalid_reason = $invalid
`, map[string]any{
				"id": c.ConceptID, "name": c.ConceptName, "code": c.ConceptCode,
				"vocab": c.VocabularyID, "domain": c.DomainID, "class": c.ConceptClassID,
				"standard": standard, "start": c.ValidStartDate, "end": c.ValidEndDate,
				"invalid": invalid,
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	}).Error
	return count, err
}

func (s *Sync) syncRelationships(ctx context.Context) (int, error) {
	count := 0
	var rows []omopdb.ConceptRelationship
	err := s.source.WithContext(ctx).FindInBatches(&rows, s.batch, func(tx *gorm.DB, batch int) error {
		for _, r := range rows {
			invalid := ""
			if r.InvalidReason != nil {
				invalid = *r.InvalidReason
			}
			err := s.write(ctx, `
MATCH (a:Concept {id: $subj}), (b:Concept {id: $obj})
MERGE (a)-[r:RELATES {predicate_id: $pred}]->(b)
SET r.valid_start = $start, r.valid_end = $end, r.invalid_reason = $invalid
`, map[string]any{
				"subj": r.ConceptID1, "obj": r.ConceptID2, "pred": r.RelationshipID,
				"start": r.ValidStartDate, "end": r.ValidEndDate, "invalid": invalid,
			})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	}).Error
	return count, err
}

func (s *Sync) syncAncestry(ctx context.Context) (int, error) {
	count := 0
	var rows []omopdb.ConceptAncestor
	err := s.source.WithContext(ctx).Where("min_levels_of_separation = ?", 1).FindInBatches(&rows, s.batch, func(tx *gorm.DB, batch int) error {
		for _, a := range rows {
			err := s.write(ctx, `
MATCH (p:Concept {id: $ancestor}), (c:Concept {id: $descendant})
MERGE (p)-[r:ANCESTOR_OF {levels: 1}]->(c)
`, map[string]any{"ancestor": a.AncestorConceptID, "descendant": a.DescendantConceptID})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	}).Error
	return count, err
}

func (s *Sync) syncSynonyms(ctx context.Context) (int, error) {
	count := 0
	var rows []omopdb.ConceptSynonym
	err := s.source.WithContext(ctx).FindInBatches(&rows, s.batch, func(tx *gorm.DB, batch int) error {
		for _, syn := range rows {
			err := s.write(ctx, `
MATCH (c:Concept {id: $id})
MERGE (s:Synonym {name: $name, concept_id: $id})
MERGE (c)-[:HAS_SYNONYM]->(s)
`, map[string]any{"id": syn.ConceptID, "name": syn.ConceptSynonymName})
			if err != nil {
				return err
			}
			count++
		}
		return nil
	}).Error
	return count, err
}
