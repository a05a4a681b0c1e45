package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RememberTTL != 365*24*time.Hour {
		t.Fatalf("remember ttl: got %v", cfg.RememberTTL)
	}
	if cfg.ConsentTTL != 30*24*time.Hour {
		t.Fatalf("consent ttl: got %v", cfg.ConsentTTL)
	}
	if cfg.RateLimitRegister != 10 || cfg.RateLimitLogin != 20 {
		t.Fatalf("rate limits: %d/%d", cfg.RateLimitRegister, cfg.RateLimitLogin)
	}
	if cfg.MaxUploadMB != 50 {
		t.Fatalf("max upload: %d", cfg.MaxUploadMB)
	}
	if cfg.JWTSecret == "" {
		t.Fatalf("dev secret fallback not applied")
	}
}

func TestLoadRejectsMissingSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("splitList: %v", got)
	}
}
