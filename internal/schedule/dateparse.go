package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date layouts accepted for absolute dates, tried in order. Day-first
// numeric forms take priority over month-first and year-first ones; the
// resolution order is documented behavior, not locale detection.
var dateLayouts = []string{
	"2006-1-2",        // 2025-11-28 (ISO)
	"2.1.2006",        // 28.11.2025
	"2/1/2006",        // 28/11/2025
	"2-1-2006",        // 28-11-2025
	"2006/1/2",        // 2025/11/28
	"2006.1.2",        // 2025.11.28
	"2 1 2006",        // 28 11 2025
	"January 2, 2006", // November 28, 2025
	"Jan 2, 2006",     // Nov 28, 2025
	"2 January 2006",  // 28 November 2025
	"2 Jan 2006",      // 28 Nov 2025
}

// ParseDate parses an absolute date in any supported layout. The result is
// midnight with no zone attached; callers place it in the engine's zone.
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &UnparseableError{Expression: dateStr}
}

// NormalizeTime canonicalizes a clock time expression to 24-hour HH:MM.
// Accepted forms: "14:00", "14", "2pm", "2 PM", "2:30pm". An empty input
// returns an empty string so the caller can substitute the default time.
func NormalizeTime(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", nil
	}

	meridiem := ""
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(s, suffix) {
			meridiem = suffix
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	hourPart, minutePart := s, "0"
	if i := strings.IndexAny(s, ":."); i >= 0 {
		hourPart, minutePart = s[:i], s[i+1:]
	}

	hour, err := strconv.Atoi(hourPart)
	if err != nil {
		return "", &UnparseableError{Expression: raw}
	}
	minute, err := strconv.Atoi(minutePart)
	if err != nil {
		return "", &UnparseableError{Expression: raw}
	}

	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour != 12 {
			hour += 12
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", &UnparseableError{Expression: raw}
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

// CombineDateTime resolves a date string (any supported layout) and a
// normalized HH:MM time into an instant in the given zone.
func CombineDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	day, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, &UnparseableError{Expression: timeStr}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// ParsedDate is the result of resolving a natural-language date expression.
type ParsedDate struct {
	Date    string // YYYY-MM-DD
	DayName string // weekday name
	Message string // human-readable description
}

var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday}, {"mon", time.Monday},
	{"tuesday", time.Tuesday}, {"tue", time.Tuesday},
	{"wednesday", time.Wednesday}, {"wed", time.Wednesday},
	{"thursday", time.Thursday}, {"thu", time.Thursday},
	{"friday", time.Friday}, {"fri", time.Friday},
	{"saturday", time.Saturday}, {"sat", time.Saturday},
	{"sunday", time.Sunday}, {"sun", time.Sunday},
}

// Numeric layouts for expressions, day-first before US month-first.
var numericExpressionLayouts = []string{
	"2 1 2006",
	"2/1/2006",
	"2-1-2006",
	"1/2/2006",
	"1-2-2006",
	"2006 1 2",
	"2006/1/2",
}

var monthNameLayouts = []string{
	"January 2",
	"Jan 2",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2 January",
	"2 Jan",
}

// ParseDateExpression resolves a natural-language date expression relative
// to now: "today", "tomorrow", "day after tomorrow", "next week", "in N
// days", weekday names (with "next" always landing in the following week),
// ISO dates, numeric dates, and month-name dates with year rollover.
//
// A trailing time indicator (" at 10:00", " @3pm", ", 14:00") is stripped
// before resolution; only the date part is interpreted.
func ParseDateExpression(expression string, now time.Time) (ParsedDate, error) {
	expr := strings.ToLower(strings.TrimSpace(expression))

	for _, sep := range []string{" at ", " @"} {
		if i := strings.Index(expr, sep); i >= 0 {
			expr = strings.TrimSpace(expr[:i])
			break
		}
	}
	// A comma can introduce either a time ("tomorrow, 14:00") or a year
	// ("December 5, 2025"); only a tail that reads as a clock time is
	// stripped.
	if i := strings.Index(expr, ","); i >= 0 {
		if tail, err := NormalizeTime(expr[i+1:]); err == nil && tail != "" {
			expr = strings.TrimSpace(expr[:i])
		}
	}

	describe := func(t time.Time, prefix string) ParsedDate {
		msg := t.Format("Monday, January 02, 2006")
		if prefix != "" {
			msg = prefix + " is " + msg
		}
		return ParsedDate{
			Date:    t.Format("2006-01-02"),
			DayName: t.Format("Monday"),
			Message: msg,
		}
	}

	switch expr {
	case "today":
		return describe(now, "Today"), nil
	case "tomorrow":
		return describe(now.AddDate(0, 0, 1), "Tomorrow"), nil
	case "day after tomorrow", "overmorrow":
		return describe(now.AddDate(0, 0, 2), "Day after tomorrow"), nil
	case "next week":
		return describe(now.AddDate(0, 0, 7), "Next week (same day)"), nil
	}

	if strings.HasPrefix(expr, "in ") && strings.Contains(expr, "day") {
		if days, ok := parseRelativeDays(expr); ok {
			target := now.AddDate(0, 0, days)
			return describe(target, fmt.Sprintf("In %d days", days)), nil
		}
	}

	if day, ok := parseOrdinalDay(expr); ok {
		target := nextOccurrenceOfDay(now, day)
		return describe(target, ""), nil
	}

	for _, wd := range weekdayNames {
		if !strings.Contains(expr, wd.name) {
			continue
		}
		daysAhead := int(wd.day-now.Weekday()+7) % 7
		if strings.Contains(expr, "next") {
			// "next Tuesday" is always in the following week.
			if daysAhead == 0 {
				daysAhead = 7
			}
			if daysAhead < 7 {
				daysAhead += 7
			}
		}
		target := now.AddDate(0, 0, daysAhead)
		prefix := target.Format("Monday")
		if strings.Contains(expr, "next") {
			prefix = "Next " + prefix
		}
		pd := describe(target, "")
		pd.Message = prefix + " is " + target.Format("January 02, 2006")
		return pd, nil
	}

	if len(expr) == 10 && strings.Count(expr, "-") == 2 {
		if t, err := time.Parse("2006-01-02", expr); err == nil {
			return describe(t, ""), nil
		}
	}

	for _, layout := range numericExpressionLayouts {
		if t, err := time.Parse(layout, expr); err == nil {
			return describe(t, ""), nil
		}
	}

	for _, layout := range monthNameLayouts {
		t, err := time.Parse(layout, expr)
		if err != nil {
			continue
		}
		if t.Year() == 0 {
			// Year omitted: this year, or next year once the date has passed.
			t = t.AddDate(now.Year(), 0, 0)
			if t.Before(now) {
				t = t.AddDate(1, 0, 0)
			}
		}
		return describe(t, ""), nil
	}

	return ParsedDate{}, &UnparseableError{Expression: expression}
}

// parseOrdinalDay recognizes day-only expressions like "the 24th" or "5th".
func parseOrdinalDay(expr string) (int, bool) {
	s := strings.TrimPrefix(expr, "the ")
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSuffix(s, suffix)
			break
		}
	}
	day, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || day < 1 || day > 31 {
		return 0, false
	}
	return day, true
}

// nextOccurrenceOfDay resolves a bare day-of-month to its nearest future
// occurrence: this month if the day has not yet passed, otherwise next
// month, rolling the year at the December boundary.
func nextOccurrenceOfDay(now time.Time, day int) time.Time {
	year, month := now.Year(), now.Month()
	if day < now.Day() {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}

// parseRelativeDays extracts N from "in N days" style expressions.
func parseRelativeDays(expr string) (int, bool) {
	parts := strings.Fields(expr)
	for i, word := range parts {
		if !strings.Contains(word, "day") || i == 0 {
			continue
		}
		if n, err := strconv.Atoi(parts[i-1]); err == nil {
			return n, true
		}
	}
	return 0, false
}
