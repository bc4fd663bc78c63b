// Package graph abstracts the graph+vector store behind a minimal
// run-a-statement interface.
//
// The rest of the module never talks to a database driver directly: it
// renders parameterized statements (see the cypher package) and executes
// them through [Store] and [Session]. One session is opened per logical
// operation and closed deterministically, so the caller keeps full ownership
// of connection pooling and credentials.
//
// [NewNeo4jStore] adapts a neo4j-go-driver DriverWithContext:
//
//	driver, _ := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
//	store := graph.NewNeo4jStore(driver, "")
//
// Any backend that can run Cypher-shaped statements with bound parameters
// and return named-column rows can implement Store instead; tests use an
// in-memory fake.
package graph
