package calendar

import (
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/clinicdesk/clinicsched/internal/schedule"
)

// toAPIEvent converts a store-level event input to a Google Calendar event
// body. Identity metadata travels as private extended properties so it never
// shows up in the patient-facing invite.
func toAPIEvent(input schedule.EventInput) *calendar.Event {
	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}

	for _, email := range input.AttendeeEmails {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	if len(input.Metadata) > 0 {
		event.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: input.Metadata,
		}
	}

	return event
}

// toEvent converts a Google Calendar event to the store-level representation.
func toEvent(event *calendar.Event) (schedule.Event, error) {
	ev := schedule.Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Link:        event.HtmlLink,
	}

	start, allDay, err := parseEventTime(event.Start)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("event %s: %w", event.Id, err)
	}
	end, _, err := parseEventTime(event.End)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("event %s: %w", event.Id, err)
	}
	ev.Start = start
	ev.End = end
	ev.AllDay = allDay

	for _, att := range event.Attendees {
		if att.Email != "" {
			ev.AttendeeEmails = append(ev.AttendeeEmails, att.Email)
		}
	}

	if event.ExtendedProperties != nil && len(event.ExtendedProperties.Private) > 0 {
		ev.Metadata = event.ExtendedProperties.Private
	}

	return ev, nil
}

func toEvents(items []*calendar.Event) ([]schedule.Event, error) {
	events := make([]schedule.Event, 0, len(items))
	for _, item := range items {
		ev, err := toEvent(item)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// parseEventTime handles both timed events (DateTime) and all-day events
// (Date only). All-day events are reported so the booking engine can skip
// them when checking for conflicts.
func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool, error) {
	if edt == nil {
		return time.Time{}, false, nil
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid event time %q: %w", edt.DateTime, err)
		}
		return t, false, nil
	}
	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid event date %q: %w", edt.Date, err)
		}
		return t, true, nil
	}
	return time.Time{}, false, nil
}
