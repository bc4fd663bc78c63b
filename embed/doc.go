// Package embed turns decomposed tool components into vectors.
//
// The [Embedder] interface is the external embedding capability: one text
// in, one fixed-dimension vector out. [OllamaEmbedder] and [OpenAIEmbedder]
// are thin HTTP adapters; any provider can be plugged in instead.
//
// [Orchestrator] drives embedding for a whole toolset: one call per tool
// text, one per parameter text, and a single shared call for the constant
// return-type description. Calls fan out with bounded concurrency and
// fail fast. A vector whose length differs from the configured index
// dimensionality is a fatal configuration error ([ErrDimensionMismatch]),
// never silently truncated or padded.
package embed
