package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Engine
	LocalCachePath string
	RemoteSync     bool
	SyncTimeout    time.Duration
	SessionTimeout time.Duration
	RetryDelay     time.Duration
	TimeZone       string

	// Reminders
	CronSecret          string
	AppURL              string
	ReminderConcurrency int
	ReminderPageSize    int

	// Twilio
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	TwilioBaseURL     string
	RequestTimeout    time.Duration

	// AMQP
	AMQPURL          string
	AMQPExchangeName string
	AMQPQueueName    string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "saveit"),
		DBPassword: getEnv("DB_PASSWORD", "saveit"),
		DBName:     getEnv("DB_NAME", "saveit"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		LocalCachePath: getEnv("LOCAL_CACHE_PATH", "saveit-cache.db"),
		RemoteSync:     getEnv("REMOTE_SYNC", "false") == "true",
		TimeZone:       getEnv("TZ_NAME", "Local"),

		CronSecret: os.Getenv("CRON_SECRET"),
		AppURL:     getEnv("APP_URL", "https://saveit.app"),

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),
		TwilioBaseURL:     getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),

		AMQPURL:          os.Getenv("AMQP_URL"),
		AMQPExchangeName: getEnv("AMQP_EXCHANGE_NAME", "saveit"),
		AMQPQueueName:    getEnv("AMQP_QUEUE_NAME", "sms_reminders"),
	}

	var errs []error
	durations := []struct {
		key  string
		def  time.Duration
		dest *time.Duration
	}{
		{"JWT_EXPIRES_IN", 24 * time.Hour, &config.JWTExpirationDur},
		{"SYNC_TIMEOUT", 10 * time.Second, &config.SyncTimeout},
		{"SESSION_TIMEOUT", 8 * time.Second, &config.SessionTimeout},
		{"SYNC_RETRY_DELAY", 2 * time.Second, &config.RetryDelay},
		{"REQUEST_TIMEOUT", 15 * time.Second, &config.RequestTimeout},
	}
	for _, d := range durations {
		v, err := parseDuration(d.key, os.Getenv(d.key), d.def)
		if err != nil {
			errs = append(errs, err)
		}
		*d.dest = v
	}

	var err error
	if config.ReminderConcurrency, err = parseInt("REMINDER_CONCURRENCY", os.Getenv("REMINDER_CONCURRENCY"), 5); err != nil {
		errs = append(errs, err)
	}
	if config.ReminderPageSize, err = parseInt("REMINDER_PAGE_SIZE", os.Getenv("REMINDER_PAGE_SIZE"), 100); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Tests use it to inject
// secrets without touching the environment.
func Set(cfg *Config) {
	appConfig = cfg
}

// Location resolves TimeZone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// DatabaseDSN returns the postgres connection URL used by migrate.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// ValidateReminders checks the settings needed to run the reminder job.
func (c *Config) ValidateReminders() error {
	var errs []error
	if c.AppURL == "" {
		errs = append(errs, errors.New("APP_URL is required"))
	}
	if c.ReminderConcurrency < 1 {
		errs = append(errs, errors.New("REMINDER_CONCURRENCY must be at least 1"))
	}
	if c.ReminderPageSize < 1 {
		errs = append(errs, errors.New("REMINDER_PAGE_SIZE must be at least 1"))
	}
	if c.AMQPURL == "" {
		errs = append(errs, c.ValidateTwilio())
	}
	return errors.Join(errs...)
}

// ValidateTwilio checks the settings needed to deliver SMS directly.
func (c *Config) ValidateTwilio() error {
	var errs []error
	if c.TwilioAccountSID == "" {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID is required"))
	}
	if c.TwilioAuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required"))
	}
	if c.TwilioPhoneNumber == "" {
		errs = append(errs, errors.New("TWILIO_PHONE_NUMBER is required"))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(key, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return def, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseInt(key, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}
