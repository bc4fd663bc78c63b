// Package cypher renders the parameterized graph statements behind toolset
// indexing and retrieval.
//
// Every builder returns a [Statement]: a query template plus a bound
// parameter map, ready for execution through the graph package. Builders
// are pure with respect to the store, which keeps them testable by direct
// assertion on the rendered text and parameters, with no database in the
// loop.
//
// # Persisted Shape
//
// One ToolSet snapshot persists as:
//
//	(ToolSet {hash, updatedAt, toolCount})
//	  -[:HAS_TOOL]-> (Tool {id, name, description, embedding, updatedAt})
//	    -[:HAS_PARAM]-> (Parameter {name, type, description, required, embedding})
//	    -[:RETURNS]->   (ReturnType {type, description, embedding})
//
// plus one named cosine vector index over Tool.embedding shared by all
// snapshots. Because the index spans history, retrieval over it naturally
// sees every snapshot unless the caller filters.
//
// # Injection Safety
//
// Caller-controlled strings are always bound parameters, never interpolated
// into query text. String composition is reserved for structural fragments:
// per-tool variable prefixes in [Migrate] and the configuration-owned index
// name in [CreateVectorIndex] (index DDL cannot bind its name).
//
// # Snapshot Immutability
//
// [Migrate] deliberately uses CREATE, not MERGE, for Tool, Parameter, and
// ReturnType nodes: snapshots are immutable, and a changed registry produces
// a new ToolSet under a new fingerprint rather than an update in place. The
// flip side is that re-migrating an existing fingerprint duplicates nodes
// under the merged ToolSet. Lifecycle callers avoid that path by checking
// fingerprint existence first; see the toolset package.
package cypher
