package schedule

import "strings"

// Metadata keys for normalized identifiers stored on calendar events.
const (
	MetaEmailNorm = "email_norm"
	MetaPhoneNorm = "phone_norm"
)

// MatchVia records which identifiers verified an event match.
type MatchVia struct {
	Email bool
	Phone bool
}

// Matched reports whether any identifier matched.
func (v MatchVia) Matched() bool { return v.Email || v.Phone }

// String renders the disclosure used in operation messages, e.g.
// "verified via email & phone".
func (v MatchVia) String() string {
	var parts []string
	if v.Email {
		parts = append(parts, "email")
	}
	if v.Phone {
		parts = append(parts, "phone")
	}
	if len(parts) == 0 {
		return "identifier"
	}
	return "verified via " + strings.Join(parts, " & ")
}

// NormalizeEmail canonicalizes an email address: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone reduces a phone number to its digits, preserving a single
// leading "+" when present.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	leadingPlus := strings.HasPrefix(phone, "+")
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if leadingPlus {
		return "+" + b.String()
	}
	return b.String()
}

// MatchIdentity reports whether an event belongs to the person identified by
// the given normalized email and/or phone. Identifiers combine with OR
// semantics: any match is enough, and the returned MatchVia discloses which
// ones agreed.
//
// Normalized metadata written at insert time is consulted first. Events
// created before normalization fall back to attendee emails and to digits
// extracted from the free-text description.
func MatchIdentity(ev Event, emailNorm, phoneNorm string) MatchVia {
	var via MatchVia
	if emailNorm == "" && phoneNorm == "" {
		return via
	}

	if emailNorm != "" {
		if stored := ev.Metadata[MetaEmailNorm]; stored != "" && stored == emailNorm {
			via.Email = true
		} else {
			for _, attendee := range ev.AttendeeEmails {
				if NormalizeEmail(attendee) == emailNorm {
					via.Email = true
					break
				}
			}
		}
	}

	if phoneNorm != "" {
		if stored := ev.Metadata[MetaPhoneNorm]; stored != "" && stored == phoneNorm {
			via.Phone = true
		} else if digits := strings.TrimPrefix(NormalizePhone(ev.Description), "+"); digits != "" {
			via.Phone = strings.Contains(digits, strings.TrimPrefix(phoneNorm, "+"))
		}
	}

	return via
}
