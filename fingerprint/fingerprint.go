package fingerprint

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/jonwraymond/toolgraph/schema"
)

// Prefix tags every default fingerprint so toolset hashes are recognizable
// in logs and in the store.
const Prefix = "toolset-"

// HashFunc maps a canonical toolset serialization to a fingerprint string.
// Implementations receive the exact canonical string and their result is
// used verbatim.
type HashFunc func(canonical string) string

// Default is the default hash: xxhash64 of the canonical string, hex
// encoded, with the toolset prefix. Change detection and partitioning are
// the goal here, not security; callers needing a cryptographic digest can
// supply their own HashFunc.
func Default(canonical string) string {
	return Prefix + strconv.FormatUint(xxhash.Sum64String(canonical), 16)
}

// Compute derives the fingerprint for a tool registry.
//
// Each tool is reduced to {description, inputSchema}; the executable field
// is not part of the tool's observable contract and is excluded. Tools are
// sorted by name with an ordinal comparison and every nested object's keys
// are serialized in sorted order, so neither registration order nor source
// key order affects the result. Array element order is preserved.
//
// A nil fn uses [Default].
func Compute(tools map[string]schema.Definition, fn HashFunc) (string, error) {
	if fn == nil {
		fn = Default
	}

	canonical, err := Canonical(tools)
	if err != nil {
		return "", err
	}

	return fn(canonical), nil
}

// Canonical builds the canonical serialization that fingerprints are
// computed over: a JSON array of [name, {description, inputSchema}] pairs
// in ordinal name order. Two registries are fingerprint-equal iff their
// canonical serializations are byte-identical.
func Canonical(tools map[string]schema.Definition) (string, error) {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]any, 0, len(names))
	for _, name := range names {
		def := tools[name]
		entries = append(entries, []any{name, map[string]any{
			"description": def.Description,
			"inputSchema": def.InputSchema,
		}})
	}

	// encoding/json serializes map keys in sorted order at every nesting
	// level, which is exactly the recursive key ordering required here.
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("canonicalize toolset: %w", err)
	}

	return string(raw), nil
}
