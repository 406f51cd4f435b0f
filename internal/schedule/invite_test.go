package schedule

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInviteLink(t *testing.T) {
	loc := testLoc(t)
	start := time.Date(2025, 12, 5, 14, 0, 0, 0, loc)
	end := start.Add(time.Hour)

	link := BuildInviteLink("Nail Polish - Ada Lovelace", []string{
		"Treatment: Nail Polish",
		"Name: Ada Lovelace",
	}, start, end)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "calendar.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "TEMPLATE", q.Get("action"))
	assert.Equal(t, "Nail Polish - Ada Lovelace", q.Get("text"))
	// Rome is UTC+1 in December: 14:00 local is 13:00Z.
	assert.Equal(t, "20251205T130000Z/20251205T140000Z", q.Get("dates"))
	assert.Contains(t, q.Get("details"), "Treatment: Nail Polish")
}
