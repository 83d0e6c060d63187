package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.JWTExpirationDur != 24*time.Hour {
		t.Errorf("expected 24h JWT expiry, got %v", cfg.JWTExpirationDur)
	}
	if cfg.LedgerAllowOverrun {
		t.Error("expected overrun to be disabled by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_NAME", "ledger_test")
	t.Setenv("LEDGER_ALLOW_OVERRUN", "true")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://portal.uni.edu,https://admin.uni.edu")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if !cfg.LedgerAllowOverrun {
		t.Error("expected overrun to be enabled")
	}
	if cfg.IdempotencyTTL != time.Hour {
		t.Errorf("expected 1h idempotency TTL, got %v", cfg.IdempotencyTTL)
	}
	if cfg.DBName != "ledger_test" {
		t.Errorf("expected db name ledger_test, got %q", cfg.DBName)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.uni.edu" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if !cfg.IsProduction() {
		t.Error("expected production mode")
	}
	if Get() != cfg {
		t.Error("expected Get to return the loaded configuration")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
