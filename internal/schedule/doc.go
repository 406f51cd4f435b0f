// Package schedule implements the clinic booking engine: date and time
// normalization, the business-hours policy, conflict detection against a
// remote calendar, forward slot search, identity matching, and the
// insert/cancel/move operations with their confirmation flow.
//
// The engine is stateless across calls. Pending offers (alternative time
// suggestions awaiting user approval) travel as signed tokens issued to the
// caller, never as server-side state. The remote calendar, abstracted as
// EventStore, is the sole source of truth for bookings.
package schedule
