// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Interfaces are defined here, on the
// consumer side; adapters implement them.
package driven
