package schedule

import (
	"fmt"
	"time"
)

// Default policy values. They mirror the clinic's booking rules: 1-hour
// visits, weekdays 09:00-17:00, Italian clinic zone.
const (
	DefaultTimeZone        = "Europe/Rome"
	DefaultCalendarID      = "primary"
	DefaultSlotDuration    = time.Hour
	DefaultOpenHour        = 9
	DefaultCloseHour       = 17
	DefaultAppointmentTime = "09:00"
	DefaultMaxSlotAttempts = 10
	DefaultOfferTTL        = 30 * time.Minute
	DefaultTreatment       = "General Consultation"
	DefaultProbesPerSecond = 5
)

// Config holds the booking policy knobs shared by all engine operations.
type Config struct {
	// CalendarID is the target calendar, "primary" unless a public-facing
	// calendar is configured.
	CalendarID string

	// TimeZone is the IANA zone name all slots are interpreted in.
	TimeZone string

	// SlotDuration is the fixed appointment length.
	SlotDuration time.Duration

	// OpenHour/CloseHour bound bookable start times: a slot may start at
	// OpenHour and must end by CloseHour.
	OpenHour  int
	CloseHour int

	// DefaultTime is used when a caller supplies a date without a time.
	DefaultTime string

	// DefaultTreatment is used when no treatment is given at insert.
	DefaultTreatment string

	// MaxSearchAttempts bounds the forward slot search.
	MaxSearchAttempts int

	// Holidays are clinic closure days in addition to weekends.
	Holidays []Holiday

	// SigningKey signs confirmation offer tokens. When empty a random
	// per-process key is generated and offers do not survive a restart.
	SigningKey []byte

	// OfferTTL bounds how long a pending offer token stays redeemable.
	OfferTTL time.Duration

	// ProbesPerSecond paces remote conflict probes during slot search.
	ProbesPerSecond float64
}

// DefaultConfig returns the clinic's standard booking policy.
func DefaultConfig() Config {
	return Config{
		CalendarID:        DefaultCalendarID,
		TimeZone:          DefaultTimeZone,
		SlotDuration:      DefaultSlotDuration,
		OpenHour:          DefaultOpenHour,
		CloseHour:         DefaultCloseHour,
		DefaultTime:       DefaultAppointmentTime,
		DefaultTreatment:  DefaultTreatment,
		MaxSearchAttempts: DefaultMaxSlotAttempts,
		Holidays:          DefaultHolidays(),
		OfferTTL:          DefaultOfferTTL,
		ProbesPerSecond:   DefaultProbesPerSecond,
	}
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	if c.CalendarID == "" {
		return fmt.Errorf("calendar ID must not be empty")
	}
	if c.SlotDuration <= 0 {
		return fmt.Errorf("slot duration must be positive, got %s", c.SlotDuration)
	}
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		return fmt.Errorf("invalid business hours %d-%d", c.OpenHour, c.CloseHour)
	}
	if c.MaxSearchAttempts < 1 {
		return fmt.Errorf("max search attempts must be at least 1, got %d", c.MaxSearchAttempts)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid time zone %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location resolves the configured zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.TimeZone)
}
