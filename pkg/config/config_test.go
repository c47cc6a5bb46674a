package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLINIC_TIMEZONE", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("CLINIC_UPLOAD_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Seoul", cfg.Clinic.TimeZone)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, time.Hour, cfg.Clinic.UploadTTL)
	assert.Equal(t, 30*time.Minute, cfg.Clinic.EventDuration)
	assert.Equal(t, "primary", cfg.Google.CalendarID)
	assert.Equal(t, int64(20<<20), cfg.Server.MaxUploadSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SMTP_USERNAME", "clinic@example.com")
	t.Setenv("SMTP_PASSWORD", "app-password")
	t.Setenv("CLINIC_UPLOAD_TTL", "15m")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.SMTP.MailConfigured())
	assert.Equal(t, 15*time.Minute, cfg.Clinic.UploadTTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_InvalidTimeZone(t *testing.T) {
	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidBoundary(t *testing.T) {
	t.Setenv("CLINIC_AFTERNOON_BOUNDARY", "noon")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "ocs", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ocs sslmode=disable", c.DatabaseDSN())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://admin.example.com, ,https://ops.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://admin.example.com", "https://ops.example.com"}, cfg.Server.AllowedOrigins)
}
