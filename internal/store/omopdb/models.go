// Package omopdb is the Postgres-backed ConceptStore implementation,
// reading directly from OMOP CDM vocabulary tables via GORM. It is the
// primary store: the Neo4j mirror in internal/store/graphmirror exists for
// traversal-heavy read paths, but every fact in this system originates here.
package omopdb

import "time"

// Concept mirrors the OMOP CDM `concept` table. Every field carries an
// explicit gorm column tag naming its CDM column.
type Concept struct {
	ConceptID       int64     `gorm:"column:concept_id;primaryKey"`
	ConceptName     string    `gorm:"column:concept_name"`
	DomainID        string    `gorm:"column:domain_id"`
	VocabularyID    string    `gorm:"column:vocabulary_id"`
	ConceptClassID  string    `gorm:"column:concept_class_id"`
	StandardConcept *string   `gorm:"column:standard_concept"`
	ConceptCode     string    `gorm:"column:concept_code"`
	ValidStartDate  time.Time `gorm:"column:valid_start_date"`
	ValidEndDate    time.Time `gorm:"column:valid_end_date"`
	InvalidReason   *string   `gorm:"column:invalid_reason"`
}

func (Concept) TableName() string { return "concept" }

// ConceptRelationship mirrors `concept_relationship`: a directed, predicate
// typed edge between two concepts.
type ConceptRelationship struct {
	ConceptID1     int64     `gorm:"column:concept_id_1"`
	ConceptID2     int64     `gorm:"column:concept_id_2"`
	RelationshipID string    `gorm:"column:relationship_id"`
	ValidStartDate time.Time `gorm:"column:valid_start_date"`
	ValidEndDate   time.Time `gorm:"column:valid_end_date"`
	InvalidReason  *string   `gorm:"column:invalid_reason"`
}

func (ConceptRelationship) TableName() string { return "concept_relationship" }

// ConceptAncestor mirrors `concept_ancestor`: the materialized transitive
// closure OMOP ETL builds over "Is a" edges.
type ConceptAncestor struct {
	AncestorConceptID      int64 `gorm:"column:ancestor_concept_id"`
	DescendantConceptID    int64 `gorm:"column:descendant_concept_id"`
	MinLevelsOfSeparation  int   `gorm:"column:min_levels_of_separation"`
	MaxLevelsOfSeparation  int   `gorm:"column:max_levels_of_separation"`
}

func (ConceptAncestor) TableName() string { return "concept_ancestor" }

// ConceptSynonym mirrors `concept_synonym`: alternate labels for a concept.
type ConceptSynonym struct {
	ConceptID          int64  `gorm:"column:concept_id"`
	ConceptSynonymName string `gorm:"column:concept_synonym_name"`
	LanguageConceptID   int64  `gorm:"column:language_concept_id"`
}

func (ConceptSynonym) TableName() string { return "concept_synonym" }

// Relationship mirrors `relationship`: the predicate-type dictionary.
type Relationship struct {
	RelationshipID         string `gorm:"column:relationship_id;primaryKey"`
	RelationshipName       string `gorm:"column:relationship_name"`
	IsHierarchical         bool   `gorm:"column:is_hierarchical"`
	DefinesAncestry        bool   `gorm:"column:defines_ancestry"`
	ReverseRelationshipID  *string `gorm:"column:reverse_relationship_id"`
}

func (Relationship) TableName() string { return "relationship" }
