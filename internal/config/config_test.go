package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "ratesync" {
		t.Fatalf("unexpected app name %q", cfg.App.Name)
	}
	if cfg.RateAcuity.BaseURL == "" {
		t.Fatal("provider base url must default")
	}
	if !cfg.Sync.IncludeSchedules || !cfg.Sync.IncludeDetails {
		t.Fatal("full sync should be the default")
	}
	if cfg.Sync.FailFast {
		t.Fatal("accumulate is the default failure policy")
	}
}

func TestCredentialsFromEnvironment(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")
	t.Setenv("RATEACUITY_USERNAME", "user")
	t.Setenv("RATEACUITY_PASSWORD", "pass")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Supabase.URL != "https://example.supabase.co" || cfg.Supabase.Key != "service-key" {
		t.Fatal("supabase credentials not picked up from environment")
	}
	if cfg.RateAcuity.Username != "user" || cfg.RateAcuity.Password != "pass" {
		t.Fatal("provider credentials not picked up from environment")
	}
	if err := cfg.ValidateSync(); err != nil {
		t.Fatalf("all credentials present, got %v", err)
	}
}

func TestValidateSyncReportsAllMissing(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateSync()
	if err == nil {
		t.Fatal("empty config must fail validation")
	}

	for _, name := range []string{"SUPABASE_URL", "SUPABASE_KEY", "RATEACUITY_USERNAME", "RATEACUITY_PASSWORD"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error should name %s: %v", name, err)
		}
	}
}

func TestValidateSyncAcceptsDSNInsteadOfREST(t *testing.T) {
	cfg := &Config{}
	cfg.RateAcuity.Username = "user"
	cfg.RateAcuity.Password = "pass"
	cfg.Database.DSN = "postgres://localhost/rates"

	if err := cfg.ValidateSync(); err != nil {
		t.Fatalf("a direct DSN should satisfy the backend requirement: %v", err)
	}
}

func TestValidateTelegramRequiresToken(t *testing.T) {
	cfg := &Config{}
	cfg.Export.MaxSchedules = 10
	cfg.Notify.Telegram.Enabled = true

	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled telegram without a token must fail")
	}
}
