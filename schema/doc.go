// Package schema defines the tool definition model and the schema
// decomposer that flattens a tool into embeddable sub-components.
//
// A [Definition] is one callable tool: a description, a JSON-Schema-shaped
// input schema, and an opaque executable. The [Decomposer] splits a
// definition into the pieces the index embeds independently:
//
//   - one tool text ("<name>: <description>")
//   - one [Parameter] per declared schema property
//   - one synthesized [ReturnType] (always a generic object, since tool
//     execution results are not statically typed)
//
// # Schema Tolerance
//
// Input schemas arrive in multiple provider-specific shapes. The decomposer
// unwraps a nested "jsonSchema" indirection transparently and falls back to
// the raw schema otherwise. Malformed input is recovered by defaulting,
// never by failing:
//
//   - a property without a "type" is recorded as "unknown"
//   - a non-object property map is wrapped as a synthetic value property
//   - an absent "required" list marks every parameter optional
//
// Recoveries are reported at warning level through the optional zap logger
// passed to [NewDecomposer].
package schema
