// Package toolset coordinates the lifecycle of a tool registry against the
// graph+vector store.
//
// A [Toolset] owns an in-memory registry of tool definitions and tracks a
// three-state machine: unsynced, syncing, synced. Adding or removing a tool
// recomputes the fingerprint immediately and drops back to unsynced, so
// [Toolset.Fingerprint] always reflects pending state.
//
// # Sync Pipeline
//
// [Toolset.EnsureSynced] is the gate in front of the create-only migration:
// it asks the store whether the current fingerprint already exists and only
// embeds and writes on a miss. [Toolset.Sync] forces the recomputation and
// re-check, then optionally polls the vector index until it is online and
// fully populated — a search issued straight after a migration may otherwise
// run against a partially built index and come back empty. The poll failure
// is a distinct [IndexNotReadyError] so callers can tell "not ready yet"
// from a broken store.
//
// # Retrieval
//
// [Toolset.SelectActiveTools] embeds a prompt and returns the most relevant
// tool names from a low-depth vector search. [Toolset.Search] exposes the
// deeper variants that attach parameter and return-type context to each hit.
// [Toolset.ToolsetByHash] and [Toolset.DeleteToolsetByHash] accept any
// fingerprint, current or historical, which is what lets an application
// detect and garbage-collect drifted snapshots.
//
// # Concurrency Caveats
//
// One logical flow per instance. The registry is mutated without locking
// and is expected to be owned by a single context. The existence check
// before migration is check-then-act: two processes syncing the same new
// fingerprint simultaneously can both miss and both write, duplicating tool
// nodes under the merged ToolSet. The store's own atomicity for one
// migration statement is inherited as-is; partial failures are surfaced,
// not rolled back.
package toolset
