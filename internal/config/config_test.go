package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ADDR", "DATABASE_URL", "SESSION_SECRET", "SESSION_TTL",
		"LOGIN_RATE_PER_MINUTE", "LOGIN_RATE_BURST", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.LoginRatePerMinute != 10 || cfg.LoginRateBurst != 5 {
		t.Fatalf("login limits = %d/%d", cfg.LoginRatePerMinute, cfg.LoginRateBurst)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("LogFormat = %q", cfg.LogFormat)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "60")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.LoginRatePerMinute != 60 {
		t.Fatalf("LoginRatePerMinute = %d", cfg.LoginRatePerMinute)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Addr:               ":8080",
		SessionSecret:      strings.Repeat("a", 32),
		SessionTTL:         time.Hour,
		LoginRatePerMinute: 10,
		LoginRateBurst:     5,
		LogFormat:          "json",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.SessionSecret = "short"
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	// every problem is reported at once
	if !strings.Contains(err.Error(), "SESSION_SECRET") || !strings.Contains(err.Error(), "LOG_FORMAT") {
		t.Fatalf("error missing problems: %v", err)
	}
}
