// Package server provides the MCP server context and HTTP transport for
// the clinicsched application.
//
// # Key Components
//
// ServerContext manages Google Calendar clients and booking engines with
// lazy initialization and caching. It supports multiple accounts and can
// use different token providers:
//   - FileTokenProvider: For STDIO transport, reads tokens from disk
//   - OAuth TokenProvider: For HTTP transport, tokens come from the OAuth store
//
// HTTPServer serves the MCP server over SSE or streamable HTTP with per-IP
// rate limiting and health endpoints for Kubernetes probes.
//
// MetricsServer exposes Prometheus metrics on a dedicated port, keeping
// operational metrics away from patient-facing traffic.
package server
