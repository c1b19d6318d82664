// Package phenotype identifies concept sets that are optimally situated in
// the semantic hierarchy for phenotype development.
//
// A phenotype definition typically starts from a seed set S of concept ids
// (e.g. ICD-O-3 morphology hits, regex matches, NLP output) that is too
// granular and too large to curate by hand. This package finds a parent set
// P such that:
//
//   - every s in S is a descendant of at least one p in P
//   - P is small (materially smaller than S)
//   - P is pure (most of each p's descendants are in S)
//
// It supports multi-inheritance, parents at different depths, and tolerates
// some contamination (descendants of a chosen parent that are not in S) when
// that parent's purity is still acceptable. FindCommonParents walks upward
// from each seed along "Is a" edges to build per-candidate-parent coverage
// statistics, then GreedyParentCover selects a small covering set using a
// purity- and depth-aware score, conceptually a greedy approximation to a
// Pareto-frontier search over coverage, purity, and compactness.
package phenotype
