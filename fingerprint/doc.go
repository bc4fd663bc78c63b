// Package fingerprint computes stable content hashes over tool registries.
//
// A fingerprint identifies one immutable snapshot of a toolset's observable
// contract: tool names, descriptions, and input schemas. Executable behavior
// is excluded. The hash is a pure function of the canonicalized registry, so
// identical registries produce identical fingerprints regardless of
// registration order or JSON key order, and any contract change (a
// description edit, an added parameter, a removed tool) produces a new one.
//
// Fingerprints are the primary key for ToolSet snapshots in the graph store:
// lifecycle code compares the current registry's fingerprint against what is
// persisted to decide whether a re-sync is needed, and historical snapshots
// are fetched and deleted by fingerprint.
//
// The default hash is a fast non-cryptographic xxhash64 with a "toolset-"
// prefix. Supply a custom [HashFunc] to [Compute] for environments that
// need a cryptographic digest.
package fingerprint
