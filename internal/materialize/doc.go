// Package materialize copies the OMOP CDM vocabulary from Postgres
// (internal/store/omopdb) into the Neo4j mirror (internal/store/graphmirror).
// A Temporal workflow ticks the sync on an interval; a Redis lock keeps
// concurrent workers from rebuilding the mirror at the same time.
//
// The mirror is a read optimization only — omopdb remains the source of
// truth, and graphmirror.Store never writes. Nothing in internal/reasoning
// depends on this package.
package materialize
