package schedule

import (
	"net/url"
	"strings"
	"time"
)

const inviteTimeLayout = "20060102T150405Z"

// BuildInviteLink builds the shareable "Add to Google Calendar" template
// URL for a booking. Unlike the owner's htmlLink it requires no access to
// the clinic calendar, so it is safe to hand to the patient.
func BuildInviteLink(summary string, details []string, start, end time.Time) string {
	dates := start.UTC().Format(inviteTimeLayout) + "/" + end.UTC().Format(inviteTimeLayout)

	return "https://calendar.google.com/calendar/render?action=TEMPLATE" +
		"&text=" + url.QueryEscape(summary) +
		"&dates=" + dates +
		"&details=" + url.QueryEscape(strings.Join(details, "\n"))
}
