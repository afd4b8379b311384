package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without DB_DSN")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/interviewd")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/interviewd")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENV", "")
	t.Setenv("REMINDER_LEAD", "")
	t.Setenv("SIGNAL_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development, got %s", cfg.Environment)
	}
	if cfg.ReminderLead != 24*time.Hour {
		t.Fatalf("expected 24h lead, got %s", cfg.ReminderLead)
	}
	if cfg.SignalLimit != 10 {
		t.Fatalf("expected signal limit 10, got %d", cfg.SignalLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/interviewd")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNAL_WINDOW", "30s")
	t.Setenv("SIGNAL_LIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SignalWindow != 30*time.Second {
		t.Fatalf("expected 30s window, got %s", cfg.SignalWindow)
	}
	if cfg.SignalLimit != 25 {
		t.Fatalf("expected limit 25, got %d", cfg.SignalLimit)
	}
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/interviewd")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNAL_WINDOW", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SignalWindow != 60*time.Second {
		t.Fatalf("expected default window, got %s", cfg.SignalWindow)
	}
}
