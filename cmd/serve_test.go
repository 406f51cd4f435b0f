package cmd

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicsched/internal/schedule"
)

func TestEngineConfigFromOptionsDefaults(t *testing.T) {
	cfg, err := engineConfigFromOptions(serveOptions{})
	require.NoError(t, err)

	assert.Equal(t, schedule.DefaultCalendarID, cfg.CalendarID)
	assert.Equal(t, schedule.DefaultTimeZone, cfg.TimeZone)
	assert.Equal(t, schedule.DefaultOfferTTL, cfg.OfferTTL)
	assert.Equal(t, schedule.DefaultMaxSlotAttempts, cfg.MaxSearchAttempts)
	assert.Empty(t, cfg.SigningKey)
}

func TestEngineConfigFromOptionsFlags(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

	cfg, err := engineConfigFromOptions(serveOptions{
		calendarID:  "clinic@example.com",
		timezone:    "Europe/Berlin",
		signingKey:  key,
		offerTTL:    15 * time.Minute,
		maxAttempts: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "clinic@example.com", cfg.CalendarID)
	assert.Equal(t, "Europe/Berlin", cfg.TimeZone)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), cfg.SigningKey)
	assert.Equal(t, 15*time.Minute, cfg.OfferTTL)
	assert.Equal(t, 5, cfg.MaxSearchAttempts)
}

func TestEngineConfigFromOptionsEnvFallback(t *testing.T) {
	t.Setenv("CLINIC_CALENDAR_ID", "env-calendar@example.com")
	t.Setenv("CLINIC_TIMEZONE", "Europe/Madrid")
	t.Setenv("CLINIC_OFFER_TTL", "45m")

	cfg, err := engineConfigFromOptions(serveOptions{})
	require.NoError(t, err)

	assert.Equal(t, "env-calendar@example.com", cfg.CalendarID)
	assert.Equal(t, "Europe/Madrid", cfg.TimeZone)
	assert.Equal(t, 45*time.Minute, cfg.OfferTTL)
}

func TestEngineConfigFromOptionsFlagBeatsEnv(t *testing.T) {
	t.Setenv("CLINIC_CALENDAR_ID", "env-calendar@example.com")

	cfg, err := engineConfigFromOptions(serveOptions{calendarID: "flag-calendar@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "flag-calendar@example.com", cfg.CalendarID)
}

func TestEngineConfigFromOptionsInvalidSigningKey(t *testing.T) {
	_, err := engineConfigFromOptions(serveOptions{signingKey: "not-base64!!"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64")

	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	_, err = engineConfigFromOptions(serveOptions{signingKey: short})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestEngineConfigFromOptionsInvalidTimezone(t *testing.T) {
	_, err := engineConfigFromOptions(serveOptions{timezone: "Mars/Olympus_Mons"})
	require.Error(t, err)
}

func TestEngineConfigFromOptionsInvalidOfferTTLEnv(t *testing.T) {
	t.Setenv("CLINIC_OFFER_TTL", "not-a-duration")

	_, err := engineConfigFromOptions(serveOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLINIC_OFFER_TTL")
}
