// Package graph implements the core graph-reasoning engine: the predicate-typed
// edge model, bidirectional shortest-path search, traversal with tracing, and
// multi-criteria path scoring. Everything here depends only on the ConceptStore
// interface — no package in this tree talks to Postgres, Neo4j, or any other
// concrete store directly.
package graph

import "time"

// Concept is an immutable vocabulary node. Fields mirror the OMOP CDM
// `concept` table columns that the reasoning engine actually consumes.
type Concept struct {
	ConceptID       int64  `json:"conceptId"`
	ConceptName     string `json:"conceptName"`
	ConceptCode     string `json:"conceptCode"`
	VocabularyID    string `json:"vocabularyId"`
	DomainID        string `json:"domainId"`
	ConceptClassID  string `json:"conceptClassId"`

	// StandardConcept is nil when the concept is neither standard ("S") nor
	// classification ("C"). A non-nil value is always "S" or "C".
	StandardConcept *string `json:"standardConcept,omitempty"`

	ValidStartDate time.Time `json:"validStartDate"`
	ValidEndDate   time.Time `json:"validEndDate"`

	// InvalidReason is "D" (deleted), "U" (updated/superseded), or nil.
	InvalidReason *string `json:"invalidReason,omitempty"`
}

// IsStandard reports whether the concept is flagged as the canonical
// representative of its class ("S" or "C").
func (c Concept) IsStandard() bool {
	return c.StandardConcept != nil
}

// IsInvalid reports whether the concept carries an invalid_reason.
func (c Concept) IsInvalid() bool {
	return c.InvalidReason != nil
}
