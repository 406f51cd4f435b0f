// Package booking_tools provides MCP tools for clinic appointment booking.
//
// The tools wrap the schedule engine and map its outcomes to JSON payloads
// with a status of "approved", "pending", or "rejected". Pending results
// carry a signed confirmation token offering the next free slot; the caller
// resolves the offer by repeating the call with the token and the user's
// decision.
//
// Caller mistakes (missing fields, closed slots, unknown identities,
// unparseable dates, expired tokens) are reported as rejected payloads so
// the AI assistant can relay them to the user; calendar backend failures
// are reported as tool errors.
package booking_tools
