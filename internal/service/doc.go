// Package service orchestrates the guard and the stores into the operations
// the HTTP and MCP adapters expose: state transitions, dependency edges,
// automation event ingestion, and candidate promotion. Services own logging,
// metrics, and activity entries; the core packages stay silent.
package service
