package schedule

import (
	"context"
	"time"
)

// Event is a booking as seen in the remote calendar. All-day entries carry
// zero Start/End times and never conflict with appointment slots.
type Event struct {
	ID             string
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	AllDay         bool
	Link           string
	AttendeeEmails []string

	// Metadata holds the private extended properties, including the
	// normalized identifiers written at insert time.
	Metadata map[string]string
}

// EventInput describes a booking to be written to the remote calendar.
type EventInput struct {
	Summary        string
	Description    string
	Start          time.Time
	End            time.Time
	TimeZone       string
	AttendeeEmails []string
	Metadata       map[string]string
}

// EventStore is the remote calendar the engine books against. The Google
// Calendar client implements it; engine tests use an in-memory fake.
type EventStore interface {
	// ListEvents returns events overlapping [timeMin, timeMax), expanded
	// to single instances and ordered by start time.
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]Event, error)

	// ListUpcomingEvents returns up to maxResults events starting from the
	// given instant.
	ListUpcomingEvents(ctx context.Context, calendarID string, from time.Time, maxResults int64) ([]Event, error)

	// CreateEvent inserts a new booking and returns it with its assigned ID.
	CreateEvent(ctx context.Context, calendarID string, input EventInput) (*Event, error)

	// UpdateEventTime moves an existing booking, leaving all other fields
	// untouched.
	UpdateEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time, timeZone string) (*Event, error)

	// DeleteEvent removes a booking.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
