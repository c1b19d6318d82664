package graph

import "strings"

// PredicateKind is the classification tag assigned to every predicate.
type PredicateKind int

const (
	Ontological PredicateKind = iota
	Mapping
	Versioning
	Attribute
	Metadata
)

// Label returns the human-readable description used in path explanations.
func (k PredicateKind) Label() string {
	switch k {
	case Ontological:
		return "ontological relationship (preferred structure)"
	case Mapping:
		return "mapping relationship (cross-vocabulary)"
	case Versioning:
		return "versioning relationship"
	case Attribute:
		return "attribute enrichment"
	case Metadata:
		return "metadata relationship (low semantic value)"
	default:
		return "unknown relationship"
	}
}

func (k PredicateKind) String() string {
	switch k {
	case Ontological:
		return "Ontological"
	case Mapping:
		return "Mapping"
	case Versioning:
		return "Versioning"
	case Attribute:
		return "Attribute"
	case Metadata:
		return "Metadata"
	default:
		return "Unknown"
	}
}

// Predicate is an immutable relationship-type record.
type Predicate struct {
	RelationshipID  string
	Name            string
	ReverseID       *string
	IsHierarchical  bool
	DefinesAncestry bool
}

// Classify applies the predicate-kind classification rule, memoized once per
// predicate by the ConceptStore that owns it. reverseLookup resolves the
// reverse predicate's name, if any; callers pass the store's Predicate method.
//
// Open question: when a predicate has no reverse and no name
// pattern matches, observed behavior falls through to Metadata. We keep that
// fallthrough rather than introducing a new kind.
func (p Predicate) Classify(reverseLookup func(id string) (Predicate, error)) PredicateKind {
	if p.DefinesAncestry || p.IsHierarchical {
		return Ontological
	}

	name := strings.ToLower(p.Name)

	switch {
	case strings.Contains(name, "maps to"), strings.Contains(name, "mapped from"), strings.Contains(name, "equivalent"):
		return Mapping
	case strings.Contains(name, "replaced"), strings.Contains(name, "replaces"):
		return Versioning
	case strings.HasPrefix(name, "has "):
		return Attribute
	}

	if p.ReverseID != nil && reverseLookup != nil {
		if rev, err := reverseLookup(*p.ReverseID); err == nil {
			if strings.HasPrefix(strings.ToLower(rev.Name), "has ") {
				return Metadata
			}
		}
	}

	return Metadata
}
