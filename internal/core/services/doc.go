// Package services implements the application use cases: incremental
// sync, hybrid search, the feature graph, mapping management, and the
// generation ledger. Services depend only on the ports packages and
// receive every collaborator through their constructor.
package services
