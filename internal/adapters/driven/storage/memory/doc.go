// Package memory provides in-memory implementations of the driven
// storage ports. Used for tests and for ephemeral runs where no cache
// file is wanted.
package memory
