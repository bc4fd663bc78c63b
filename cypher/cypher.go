package cypher

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Statement is one executable unit: a query template plus its bound
// parameters. Builders in this package only ever construct statements; they
// never execute anything, so statement text and parameter maps can be
// asserted directly in tests.
//
// Every value that originates from caller-controlled strings (tool names,
// parameter names, descriptions, hashes, query vectors) is passed as a bound
// parameter. Only structural fragments such as variable names and static
// clauses are built by string composition.
type Statement struct {
	Query  string
	Params map[string]any
}

// Depth selects how much graph context a vector search joins onto its
// results. Depth never changes which tools are eligible, only how much
// descriptive metadata is returned alongside them.
type Depth string

const (
	// DepthLow queries the vector index directly with no traversal.
	DepthLow Depth = "low"
	// DepthMid joins each hit to its parameters.
	DepthMid Depth = "mid"
	// DepthFull joins parameters and the return type.
	DepthFull Depth = "full"
)

// DefaultLimit caps vector search results when the caller does not pass an
// explicit limit.
const DefaultLimit = 5

// Over-fetch multipliers for the traversing depths. Joining to child nodes
// can only narrow or reorder within the candidate set pulled from the index,
// so deeper searches pull a larger candidate set before truncating.
const (
	midOverfetch  = 3
	fullOverfetch = 5
)

// MigrationParameter carries one decomposed parameter and its embedding
// into a migration statement.
type MigrationParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Embedding   []float32
}

// MigrationReturn carries the synthesized return type and its embedding.
type MigrationReturn struct {
	Type        string
	Description string
	Embedding   []float32
}

// MigrationTool is one fully decomposed, embedded tool ready for upsert.
type MigrationTool struct {
	Name        string
	Description string
	Embedding   []float32
	Parameters  []MigrationParameter
	Return      MigrationReturn
}

// CreateVectorIndex renders the idempotent creation of the cosine vector
// index over Tool.embedding. The index name is structural (it cannot be a
// bound parameter in index DDL) and is owned by configuration, not by
// callers of the public surface.
func CreateVectorIndex(indexName string, dimensions int) Statement {
	query := fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (t:Tool) ON (t.embedding)
OPTIONS {indexConfig: {
  `+"`vector.dimensions`"+`: $dimensions,
  `+"`vector.similarity_function`"+`: 'cosine'
}}`, escapeName(indexName))

	return Statement{
		Query:  query,
		Params: map[string]any{"dimensions": dimensions},
	}
}

// CheckVectorIndexStatus renders the status probe used while polling for
// index population.
func CheckVectorIndexStatus(indexName string) Statement {
	return Statement{
		Query: `SHOW INDEXES YIELD name, state, populationPercent
WHERE name = $indexName
RETURN name, state, populationPercent`,
		Params: map[string]any{"indexName": indexName},
	}
}

// Migrate renders the full upsert of one ToolSet snapshot.
//
// The ToolSet node is merged by hash, so re-running a migration for the same
// fingerprint touches a single ToolSet. Tool, Parameter, and ReturnType
// nodes are created unconditionally with fresh ids: a snapshot is immutable
// once written, and a genuinely new fingerprint is the only path expected to
// reach this statement. Re-migrating an existing fingerprint without the
// existence check duplicates tool nodes under the merged ToolSet; lifecycle
// callers gate on the existence check for exactly this reason.
//
// Per-tool variables and parameter names carry a t<i>_ prefix so the
// concatenated sub-statements cannot collide; ToolSet-level parameters are
// shared. The ToolSet variable is threaded through the WITH chain so tool
// creation cannot execute without the ToolSet row.
//
// A migration with zero tools still creates the ToolSet node.
func Migrate(toolsetHash string, tools []MigrationTool) Statement {
	var b strings.Builder
	params := map[string]any{
		"toolsetHash": toolsetHash,
		"toolCount":   len(tools),
	}

	b.WriteString(`MERGE (ts:ToolSet {hash: $toolsetHash})
SET ts.updatedAt = datetime(), ts.toolCount = $toolCount`)

	for i, tool := range tools {
		tv := fmt.Sprintf("t%d", i)

		fmt.Fprintf(&b, "\nWITH ts\nCREATE (%s:Tool {id: $%s_id, name: $%s_name, description: $%s_description, embedding: $%s_embedding, updatedAt: datetime()})",
			tv, tv, tv, tv, tv)
		fmt.Fprintf(&b, "\nCREATE (ts)-[:HAS_TOOL]->(%s)", tv)

		params[tv+"_id"] = uuid.NewString()
		params[tv+"_name"] = tool.Name
		params[tv+"_description"] = tool.Description
		params[tv+"_embedding"] = vectorParam(tool.Embedding)

		for j, p := range tool.Parameters {
			pv := fmt.Sprintf("%s_p%d", tv, j)

			fmt.Fprintf(&b, "\nCREATE (%s:Parameter {name: $%s_name, type: $%s_type, description: $%s_description, required: $%s_required, embedding: $%s_embedding})",
				pv, pv, pv, pv, pv, pv)
			fmt.Fprintf(&b, "\nCREATE (%s)-[:HAS_PARAM]->(%s)", tv, pv)

			params[pv+"_name"] = p.Name
			params[pv+"_type"] = p.Type
			params[pv+"_description"] = p.Description
			params[pv+"_required"] = p.Required
			params[pv+"_embedding"] = vectorParam(p.Embedding)
		}

		rv := tv + "_ret"
		fmt.Fprintf(&b, "\nCREATE (%s:ReturnType {type: $%s_type, description: $%s_description, embedding: $%s_embedding})",
			rv, rv, rv, rv)
		fmt.Fprintf(&b, "\nCREATE (%s)-[:RETURNS]->(%s)", tv, rv)

		params[rv+"_type"] = tool.Return.Type
		params[rv+"_description"] = tool.Return.Description
		params[rv+"_embedding"] = vectorParam(tool.Return.Embedding)
	}

	return Statement{Query: b.String(), Params: params}
}

// SearchQuery configures one vector search statement.
type SearchQuery struct {
	// Vector is the embedded query text.
	Vector []float32
	// Limit caps the returned rows. Zero or negative uses DefaultLimit.
	Limit int
	// IndexName is the vector index to query.
	IndexName string
	// MinScore filters out hits below this cosine similarity. Zero means
	// no filtering.
	MinScore float64
	// Depth selects how much graph context is joined onto results.
	// Empty defaults to DepthLow.
	Depth Depth
}

// paramLines aggregates parameter metadata into a schema-shaped line per
// parameter, dropping the NULL produced by an OPTIONAL MATCH miss.
const paramLines = `collect(CASE WHEN p IS NULL THEN NULL ELSE p.name + ' (' + p.type + CASE WHEN p.required THEN ', required' ELSE '' END + '): ' + coalesce(p.description, '') END) AS rawLines
WITH %s, [line IN rawLines WHERE line IS NOT NULL] AS paramLines`

// joinLines folds the aggregated lines into one schema string.
const joinLines = `reduce(s = '', line IN paramLines | s + CASE WHEN s = '' THEN '' ELSE '; ' END + line)`

// VectorSearch renders a similarity query at the requested depth. Rows come
// back ordered by descending similarity and capped at the limit; the
// traversing depths over-fetch from the index before truncating.
func VectorSearch(q SearchQuery) Statement {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	depth := q.Depth
	if depth == "" {
		depth = DepthLow
	}

	var query string
	k := limit

	switch depth {
	case DepthMid:
		k = limit * midOverfetch
		query = `CALL db.index.vector.queryNodes($indexName, $k, $embedding)
YIELD node, score
WHERE score >= $minScore
OPTIONAL MATCH (node)-[:HAS_PARAM]->(p:Parameter)
WITH node, score, ` + fmt.Sprintf(paramLines, "node, score") + `
RETURN node.name AS name,
       node.description AS description,
       ` + joinLines + ` AS schema,
       score AS relevance,
       size(paramLines) AS matches
ORDER BY relevance DESC
LIMIT $limit`

	case DepthFull:
		k = limit * fullOverfetch
		query = `CALL db.index.vector.queryNodes($indexName, $k, $embedding)
YIELD node, score
WHERE score >= $minScore
OPTIONAL MATCH (node)-[:HAS_PARAM]->(p:Parameter)
OPTIONAL MATCH (node)-[:RETURNS]->(r:ReturnType)
WITH node, score, r, ` + fmt.Sprintf(paramLines, "node, score, r") + `
RETURN node.name AS name,
       node.description AS description,
       ` + joinLines + ` + CASE WHEN r IS NULL THEN '' ELSE ' -> returns ' + r.type + ': ' + coalesce(r.description, '') END AS schema,
       score AS relevance,
       size(paramLines) AS matches
ORDER BY relevance DESC
LIMIT $limit`

	default:
		query = `CALL db.index.vector.queryNodes($indexName, $k, $embedding)
YIELD node, score
WHERE score >= $minScore
RETURN node.name AS name,
       node.description AS description,
       score AS relevance
ORDER BY relevance DESC
LIMIT $limit`
	}

	return Statement{
		Query: query,
		Params: map[string]any{
			"indexName": q.IndexName,
			"k":         k,
			"limit":     limit,
			"minScore":  q.MinScore,
			"embedding": vectorParam(q.Vector),
		},
	}
}

// ToolsetByHash renders the fetch of one ToolSet snapshot with its tools
// fully reconstructed. Traversal is optional at every hop, so a ToolSet
// with zero tools yields a row with an empty tools list rather than no row.
func ToolsetByHash(hash string) Statement {
	return Statement{
		Query: `MATCH (ts:ToolSet {hash: $hash})
OPTIONAL MATCH (ts)-[:HAS_TOOL]->(t:Tool)
OPTIONAL MATCH (t)-[:HAS_PARAM]->(p:Parameter)
OPTIONAL MATCH (t)-[:RETURNS]->(r:ReturnType)
WITH ts, t, r,
     collect(CASE WHEN p IS NULL THEN NULL ELSE {name: p.name, type: p.type, description: p.description, required: p.required} END) AS params
WITH ts,
     collect(CASE WHEN t IS NULL THEN NULL ELSE {name: t.name, description: t.description, parameters: [param IN params WHERE param IS NOT NULL], returnType: CASE WHEN r IS NULL THEN NULL ELSE {type: r.type, description: r.description} END} END) AS rawTools
RETURN ts.hash AS hash,
       toString(ts.updatedAt) AS updatedAt,
       ts.toolCount AS toolCount,
       [tool IN rawTools WHERE tool IS NOT NULL] AS tools`,
		Params: map[string]any{"hash": hash},
	}
}

// DeleteToolsetByHash renders the cascading delete of one snapshot. Owned
// Tool, Parameter, and ReturnType nodes are collected and counted before
// deletion so the statement can report what it removed. A hash that matches
// nothing produces no rows; callers map that to all-zero counts.
func DeleteToolsetByHash(hash string) Statement {
	return Statement{
		Query: `MATCH (ts:ToolSet {hash: $hash})
OPTIONAL MATCH (ts)-[:HAS_TOOL]->(t:Tool)
OPTIONAL MATCH (t)-[:HAS_PARAM]->(p:Parameter)
OPTIONAL MATCH (t)-[:RETURNS]->(r:ReturnType)
WITH ts, collect(DISTINCT t) AS tools, collect(DISTINCT p) AS params, collect(DISTINCT r) AS rets
WITH ts, tools, params, rets, size(tools) AS toolCount, size(params) AS paramCount, size(rets) AS returnCount
FOREACH (x IN params | DETACH DELETE x)
FOREACH (x IN rets | DETACH DELETE x)
FOREACH (x IN tools | DETACH DELETE x)
DETACH DELETE ts
RETURN 1 AS deletedToolsets,
       toolCount AS deletedTools,
       paramCount AS deletedParams,
       returnCount AS deletedReturnTypes`,
		Params: map[string]any{"hash": hash},
	}
}

// vectorParam converts an embedding to the list type drivers bind natively.
func vectorParam(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// escapeName backtick-quotes a structural identifier. Identifiers come from
// configuration, not from the caller-controlled tool surface, but quoting
// keeps odd index names from breaking statement syntax.
func escapeName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
