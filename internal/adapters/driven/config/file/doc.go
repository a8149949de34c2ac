// Package file provides the TOML-backed configuration store. Values
// are addressed with dot-notation keys and the backing file can be
// watched for hot reload by long-lived processes.
package file
