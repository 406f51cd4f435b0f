package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM  "))
	assert.Equal(t, "", NormalizeEmail(""))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+39 333 123 4567", "+393331234567"},
		{"(555) 123-4567", "5551234567"},
		{"333.123.4567", "3331234567"},
		{"+1 (555) 123-4567", "+15551234567"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestMatchIdentityStoredMetadata(t *testing.T) {
	ev := Event{Metadata: map[string]string{
		MetaEmailNorm: "ada@example.com",
		MetaPhoneNorm: "+393331234567",
	}}

	via := MatchIdentity(ev, "ada@example.com", "")
	assert.True(t, via.Email)
	assert.False(t, via.Phone)
	assert.Equal(t, "verified via email", via.String())

	via = MatchIdentity(ev, "", "+393331234567")
	assert.True(t, via.Phone)
	assert.Equal(t, "verified via phone", via.String())

	via = MatchIdentity(ev, "ada@example.com", "+393331234567")
	assert.True(t, via.Email)
	assert.True(t, via.Phone)
	assert.Equal(t, "verified via email & phone", via.String())
}

func TestMatchIdentityOrSemantics(t *testing.T) {
	ev := Event{Metadata: map[string]string{MetaPhoneNorm: "+393331234567"}}

	// Wrong email but right phone still matches.
	via := MatchIdentity(ev, "other@example.com", "+393331234567")
	assert.True(t, via.Matched())
	assert.False(t, via.Email)
	assert.True(t, via.Phone)
}

func TestMatchIdentityLegacyFallbacks(t *testing.T) {
	// No normalized metadata: attendee emails and description digits.
	ev := Event{
		Description:    "Treatment: Nail Polish\nPhone: 333 123 4567",
		AttendeeEmails: []string{"Ada@Example.com"},
	}

	via := MatchIdentity(ev, "ada@example.com", "")
	assert.True(t, via.Email)

	via = MatchIdentity(ev, "", "3331234567")
	assert.True(t, via.Phone)

	// Leading + on the query must still match digits in the description.
	via = MatchIdentity(ev, "", "+3331234567")
	assert.True(t, via.Phone)
}

func TestMatchIdentityNoIdentifiers(t *testing.T) {
	ev := Event{Metadata: map[string]string{MetaEmailNorm: "ada@example.com"}}
	via := MatchIdentity(ev, "", "")
	assert.False(t, via.Matched())
	assert.Equal(t, "identifier", via.String())
}
