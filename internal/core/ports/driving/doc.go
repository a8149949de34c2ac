// Package driving provides interfaces for use-case entry points
// (primary/inbound ports). The CLI, MCP, and TUI adapters depend on
// these rather than on concrete services.
package driving
