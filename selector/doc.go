// Package selector provides pluggable strategies for picking the active
// tool subset handed to a model.
//
// The default selection path embeds the prompt and queries the vector index
// (see the toolset package). This package covers the cases that path cannot:
//
//   - [Lexical]: BM25 full-text matching over tool names, descriptions, and
//     parameter text, backed by an in-memory bleve index. No embedding
//     provider, no store round-trip.
//   - [Hybrid]: reciprocal-rank fusion of two selectors with a configurable
//     weight, typically semantic primary + lexical secondary.
//
// Implement [Selector] (or wrap a function in [Func]) to plug in a custom
// strategy.
package selector
