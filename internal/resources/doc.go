// Package resources provides MCP resources for exposing clinic data.
// Resources are read-only data sources that MCP clients can fetch, such as
// the treatment catalog and the booking policy.
package resources
