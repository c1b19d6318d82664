package graphmirror_test

import (
	"context"
	"os"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/conceptgraph/reasoner/internal/platform/logger"
	"github.com/conceptgraph/reasoner/internal/platform/neo4jdb"
	"github.com/conceptgraph/reasoner/internal/reasoning/graph/storetest"
	"github.com/conceptgraph/reasoner/internal/store/graphmirror"
)

// TestStoreConformance runs the same property suite the in-memory fixture
// runs (internal/reasoning/graph/storetest), against a real Neo4j instance
// seeded with the mirror schema internal/materialize writes. Skipped unless
// NB_RUN_NEO4J_INTEGRATION=true and NEO4J_URI point at a disposable database —
// the test deletes its seeded Concept nodes on completion (the Predicate
// nodes it merges are left in place) and is not safe to run
// against a shared instance.
func TestStoreConformance(t *testing.T) {
	if os.Getenv("NB_RUN_NEO4J_INTEGRATION") != "true" {
		t.Skip("set NB_RUN_NEO4J_INTEGRATION=true and NEO4J_URI to run against a live Neo4j")
	}
	uri := os.Getenv("NEO4J_URI")
	if uri == "" {
		t.Skip("NEO4J_URI not set")
	}

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	client, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		t.Fatalf("neo4jdb.NewFromEnv: %v", err)
	}
	if client == nil {
		t.Skip("neo4jdb.NewFromEnv returned no client")
	}
	defer client.Close(context.Background())

	ctx := context.Background()
	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: client.Database})
	defer session.Close(ctx)

	t.Cleanup(func() {
		cleanupCtx := context.Background()
		cleanupSession := client.Driver.NewSession(cleanupCtx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: client.Database})
		defer cleanupSession.Close(cleanupCtx)
		_, _ = cleanupSession.ExecuteWrite(cleanupCtx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(cleanupCtx, `
MATCH (c:Concept) WHERE c.id IN [1, 2]
DETACH DELETE c
`, nil)
		})
	})

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, `
MERGE (p:Predicate {id: 'Is a'}) SET p.name = 'Is a', p.reverse_id = 'Subsumes', p.is_hierarchical = true, p.defines_ancestry = true
MERGE (r:Predicate {id: 'Subsumes'}) SET r.name = 'Subsumes', r.reverse_id = 'Is a', r.is_hierarchical = true, r.defines_ancestry = true

MERGE (c1:Concept {id: 1}) SET c1.name = 'Essential hypertension', c1.code = '38341003', c1.vocabulary_id = 'SNOMED', c1.domain_id = 'Condition', c1.concept_class_id = 'Clinical Finding'
MERGE (c2:Concept {id: 2}) SET c2.name = 'Hypertensive disorder', c2.code = '38341003', c2.vocabulary_id = 'SNOMED', c2.domain_id = 'Condition', c2.concept_class_id = 'Clinical Finding'
MERGE (c1)-[:RELATES {predicate_id: 'Is a'}]->(c2)
MERGE (c2)-[:RELATES {predicate_id: 'Subsumes'}]->(c1)
MERGE (c2)-[:ANCESTOR_OF {levels: 1}]->(c1)
`, nil); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("seed mirror: %v", err)
	}

	store := graphmirror.New(client)
	storetest.RunConformanceSuite(t, storetest.Conformance{
		Store:            store,
		KnownConceptID:   1,
		KnownConceptName: "Essential hypertension",
		LinkedSubjectID:  1,
		LinkedObjectID:   2,
		Predicate:        "Is a",
	})
}
