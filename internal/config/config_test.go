package config

import (
	"os"
	"testing"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/apptrecon_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if !cfg.IsDev() {
		t.Errorf("Env = %q, want development default", cfg.Env)
	}
	if !cfg.RequireAuthorization {
		t.Error("RequireAuthorization should default to true")
	}
	if cfg.AllowZeroFee {
		t.Error("AllowZeroFee should default to false")
	}
	if cfg.CompanionFormEnabled {
		t.Error("CompanionFormEnabled should default to false")
	}
	if cfg.CurrencySymbol != "$" {
		t.Errorf("CurrencySymbol = %q, want $", cfg.CurrencySymbol)
	}
}

func TestLoadRuleToggles(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/apptrecon_test")
	t.Setenv("REQUIRE_AUTHORIZATION", "false")
	t.Setenv("ALLOW_ZERO_FEE", "true")
	t.Setenv("COMPANION_FORM_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RequireAuthorization {
		t.Error("RequireAuthorization should be false")
	}
	if !cfg.AllowZeroFee {
		t.Error("AllowZeroFee should be true")
	}
	if !cfg.CompanionFormEnabled {
		t.Error("CompanionFormEnabled should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{DBMaxConns: 10, DBMinConns: 2, DateFormat: "2006-01-02"}, false},
		{"pool inverted", Config{DBMaxConns: 1, DBMinConns: 5, DateFormat: "2006-01-02"}, true},
		{"blank date format", Config{DBMaxConns: 10, DBMinConns: 2, DateFormat: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
