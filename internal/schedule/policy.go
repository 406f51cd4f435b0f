package schedule

import "time"

// Holiday is a recurring clinic closure day (month/day, any year).
type Holiday struct {
	Month time.Month
	Day   int
}

// DefaultHolidays returns the clinic's fixed closure days: Immaculate
// Conception, Christmas Eve through St. Stephen's Day, and New Year's Day.
func DefaultHolidays() []Holiday {
	return []Holiday{
		{Month: time.December, Day: 8},
		{Month: time.December, Day: 24},
		{Month: time.December, Day: 25},
		{Month: time.December, Day: 26},
		{Month: time.January, Day: 1},
	}
}

// IsHoliday reports whether the day is a weekend or a configured closure day.
func (c Config) IsHoliday(day time.Time) bool {
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}
	for _, h := range c.Holidays {
		if day.Month() == h.Month && day.Day() == h.Day {
			return true
		}
	}
	return false
}

// IsBookable reports whether an appointment may start at the given instant:
// a working day, starting no earlier than opening and ending no later than
// closing.
func (c Config) IsBookable(start time.Time) bool {
	if c.IsHoliday(start) {
		return false
	}
	if start.Hour() < c.OpenHour || start.Hour() >= c.CloseHour {
		return false
	}
	return !start.Add(c.SlotDuration).After(c.dayClose(start))
}

func (c Config) dayClose(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.CloseHour, 0, 0, 0, day.Location())
}
