// Package sqlite implements the driven storage ports on a single
// SQLite database file. One Store owns the connection; per-port
// wrapper types share it. Full-text search uses FTS5 shadow tables
// maintained inside the same transactions that mutate their source
// rows, and embeddings are stored as little-endian float32 blobs.
package sqlite
