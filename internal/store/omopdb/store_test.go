package omopdb_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/conceptgraph/reasoner/internal/platform/logger"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
	"github.com/conceptgraph/reasoner/internal/store/omopdb"
)

// openFixtureDB stands in for Postgres with an in-memory SQLite database,
// migrated from the same GORM models the Postgres store uses.
func openFixtureDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&omopdb.Concept{}, &omopdb.ConceptRelationship{}, &omopdb.ConceptAncestor{}, &omopdb.ConceptSynonym{}, &omopdb.Relationship{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedFixture(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	concepts := []omopdb.Concept{
		{ConceptID: 1, ConceptName: "Essential hypertension", DomainID: "Condition", VocabularyID: "SNOMED", ConceptClassID: "Clinical Finding", ConceptCode: "38341003", ValidStartDate: now, ValidEndDate: future},
		{ConceptID: 2, ConceptName: "Hypertensive disorder", DomainID: "Condition", VocabularyID: "SNOMED", ConceptClassID: "Clinical Finding", ConceptCode: "38341003", ValidStartDate: now, ValidEndDate: future},
	}
	if err := db.Create(&concepts).Error; err != nil {
		t.Fatalf("seed concepts: %v", err)
	}

	rels := []omopdb.Relationship{
		{RelationshipID: "Is a", RelationshipName: "Is a", IsHierarchical: true, DefinesAncestry: true},
	}
	if err := db.Create(&rels).Error; err != nil {
		t.Fatalf("seed relationships: %v", err)
	}

	edges := []omopdb.ConceptRelationship{
		{ConceptID1: 1, ConceptID2: 2, RelationshipID: "Is a", ValidStartDate: now, ValidEndDate: future},
	}
	if err := db.Create(&edges).Error; err != nil {
		t.Fatalf("seed edges: %v", err)
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestStore_OutgoingEdgesFilteredByPredicate(t *testing.T) {
	db := openFixtureDB(t)
	seedFixture(t, db)
	store := omopdb.New(db, newTestLogger(t))

	edges, err := store.OutgoingEdges(context.Background(), 1, graph.PredicateByID("Is a"))
	if err != nil {
		t.Fatalf("OutgoingEdges: %v", err)
	}
	if len(edges) != 1 || edges[0].ObjectID != 2 {
		t.Fatalf("expected a single edge to concept 2, got %+v", edges)
	}
}

func TestStore_IterEdgesAppliesActiveOnlyAndWithinDomain(t *testing.T) {
	db := openFixtureDB(t)
	seedFixture(t, db)
	store := omopdb.New(db, newTestLogger(t))

	edges, err := graph.IterEdges(context.Background(), store, 1, graph.IterEdgesOptions{
		Direction:    graph.Outgoing,
		ActiveOnly:   true,
		WithinDomain: true,
	})
	if err != nil {
		t.Fatalf("IterEdges: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 active within-domain edge, got %d", len(edges))
	}
}

func TestStore_PredicateKindClassifiesHierarchicalAsOntological(t *testing.T) {
	db := openFixtureDB(t)
	seedFixture(t, db)
	store := omopdb.New(db, newTestLogger(t))

	kind, err := store.PredicateKind(context.Background(), "Is a")
	if err != nil {
		t.Fatalf("PredicateKind: %v", err)
	}
	if kind != graph.Ontological {
		t.Fatalf("expected Ontological, got %v", kind)
	}
}

func TestStore_ConformanceSuite(t *testing.T) {
	db := openFixtureDB(t)
	seedFixture(t, db)
	store := omopdb.New(db, newTestLogger(t))

	storetest.RunConformanceSuite(t, storetest.Conformance{
		Store:            store,
		KnownConceptID:   1,
		KnownConceptName: "Essential hypertension",
		LinkedSubjectID:  1,
		LinkedObjectID:   2,
		Predicate:        "Is a",
	})
}

func TestStore_ConceptViewUnknownIDIsNotFound(t *testing.T) {
	db := openFixtureDB(t)
	seedFixture(t, db)
	store := omopdb.New(db, newTestLogger(t))

	_, err := store.ConceptView(context.Background(), 999)
	if err == nil {
		t.Fatalf("expected error for unknown concept id")
	}
}
