package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	OTEL     OTELConfig
	SMTP     SMTPConfig
	Google   GoogleConfig
	Clinic   ClinicConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	MaxUploadSize  int64
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// SMTPConfig holds the mail transport settings. Username doubles as the
// sender identity and Password as the sender secret.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	Timeout  time.Duration
}

// GoogleConfig holds the OAuth client used for calendar access
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	CalendarID   string
}

// ClinicConfig holds clinic-specific scheduling settings
type ClinicConfig struct {
	TimeZone          string
	UploadTTL         time.Duration
	EventDuration     time.Duration
	AfternoonBoundary string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			MaxUploadSize:  int64(getEnvAsInt("SERVER_MAX_UPLOAD_MB", 20)) << 20,
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "ocs_patient_alert"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ocs-patient-alert"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			FromName: getEnv("SMTP_FROM_NAME", "OCS 알림"),
			Timeout:  getEnvAsDuration("SMTP_TIMEOUT", 30*time.Second),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
			CalendarID:   getEnv("GOOGLE_CALENDAR_ID", "primary"),
		},
		Clinic: ClinicConfig{
			TimeZone:          getEnv("CLINIC_TIMEZONE", "Asia/Seoul"),
			UploadTTL:         getEnvAsDuration("CLINIC_UPLOAD_TTL", time.Hour),
			EventDuration:     getEnvAsDuration("CLINIC_EVENT_DURATION", 30*time.Minute),
			AfternoonBoundary: getEnv("CLINIC_AFTERNOON_BOUNDARY", "12:00"),
		},
	}

	if _, err := time.LoadLocation(cfg.Clinic.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid CLINIC_TIMEZONE %q: %w", cfg.Clinic.TimeZone, err)
	}
	if _, err := time.Parse("15:04", cfg.Clinic.AfternoonBoundary); err != nil {
		return nil, fmt.Errorf("invalid CLINIC_AFTERNOON_BOUNDARY %q: %w", cfg.Clinic.AfternoonBoundary, err)
	}

	return cfg, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location returns the clinic time zone. Load has already validated it.
func (c *ClinicConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MailConfigured reports whether SMTP credentials are present
func (c *SMTPConfig) MailConfigured() bool {
	return c.Username != "" && c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
