package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SYNC_TIMEOUT", "SESSION_TIMEOUT", "SYNC_RETRY_DELAY", "REMINDER_CONCURRENCY", "REMINDER_PAGE_SIZE", "REMOTE_SYNC", "AMQP_URL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncTimeout != 10*time.Second || cfg.SessionTimeout != 8*time.Second || cfg.RetryDelay != 2*time.Second {
		t.Errorf("unexpected timeouts %v %v %v", cfg.SyncTimeout, cfg.SessionTimeout, cfg.RetryDelay)
	}
	if cfg.ReminderConcurrency != 5 || cfg.ReminderPageSize != 100 {
		t.Errorf("unexpected reminder settings %d %d", cfg.ReminderConcurrency, cfg.ReminderPageSize)
	}
	if cfg.RemoteSync {
		t.Error("remote sync should be off by default")
	}
	if Get() != cfg {
		t.Error("Get should return the loaded config")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SYNC_TIMEOUT", "3s")
	t.Setenv("REMINDER_CONCURRENCY", "12")
	t.Setenv("REMOTE_SYNC", "true")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "budget")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncTimeout != 3*time.Second || cfg.ReminderConcurrency != 12 || !cfg.RemoteSync {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if got, want := cfg.DatabaseDSN(), "postgres://u:p@db:5433/budget?sslmode=require"; got != want {
		t.Errorf("DatabaseDSN = %q, want %q", got, want)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("SYNC_TIMEOUT", "soon")
	t.Setenv("SESSION_TIMEOUT", "-1s")
	t.Setenv("REMINDER_PAGE_SIZE", "many")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"SYNC_TIMEOUT", "SESSION_TIMEOUT", "REMINDER_PAGE_SIZE"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q should mention %s", err, key)
		}
	}
}

func TestLocation(t *testing.T) {
	if (&Config{}).Location() != time.Local {
		t.Error("empty zone should be local")
	}
	if (&Config{TimeZone: "Not/AZone"}).Location() != time.Local {
		t.Error("unknown zone should fall back to local")
	}
	if loc := (&Config{TimeZone: "UTC"}).Location(); loc.String() != "UTC" {
		t.Errorf("Location = %v", loc)
	}
}

func TestValidateReminders(t *testing.T) {
	valid := &Config{
		AppURL:              "https://saveit.app",
		ReminderConcurrency: 5,
		ReminderPageSize:    100,
		TwilioAccountSID:    "AC123",
		TwilioAuthToken:     "token",
		TwilioPhoneNumber:   "+15550001111",
	}
	if err := valid.ValidateReminders(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	queued := &Config{AppURL: "https://saveit.app", ReminderConcurrency: 1, ReminderPageSize: 1, AMQPURL: "amqp://localhost"}
	if err := queued.ValidateReminders(); err != nil {
		t.Errorf("twilio settings are not needed when queueing: %v", err)
	}

	err := (&Config{}).ValidateReminders()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"APP_URL", "REMINDER_CONCURRENCY", "REMINDER_PAGE_SIZE", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_NUMBER"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}
