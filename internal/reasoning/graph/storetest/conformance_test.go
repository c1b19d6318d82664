package storetest

import "testing"

func buildSampleFixture() *Fixture {
	f := New()
	f.AddPredicate("Is a", "Is a", "Subsumes", true, true)
	f.AddPredicate("Subsumes", "Subsumes", "Is a", true, true)
	f.AddPredicate("Maps to", "Maps to", "Mapped from", false, false)
	f.AddPredicate("Mapped from", "Mapped from", "Maps to", false, false)

	f.AddConcept(1, "Essential hypertension", "38341003", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddConcept(2, "Hypertensive disorder", "38341003", "SNOMED", "Condition", "Clinical Finding", "S")
	f.AddSynonym(1, "High blood pressure")

	f.AddEdge(1, "Is a", 2)
	f.AddEdge(2, "Subsumes", 1)
	f.SetParents(1, 2)

	return f
}

func TestFixtureConformance(t *testing.T) {
	f := buildSampleFixture()
	RunConformanceSuite(t, Conformance{
		Store:            f,
		KnownConceptID:   1,
		KnownConceptName: "Essential hypertension",
		LinkedSubjectID:  1,
		LinkedObjectID:   2,
		Predicate:        "Is a",
	})
}
