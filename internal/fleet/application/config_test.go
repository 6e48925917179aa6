package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	fleet "solarfleet/internal/fleet/domain"
)

func TestLoadConfig_EnvAccount(t *testing.T) {
	t.Setenv("FLEET_ACCOUNT_NAME", "env-user")
	t.Setenv("FLEET_ACCOUNT_PASSWORD", "env-pass")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected default addr: %s", cfg.HTTPAddr)
	}
	if cfg.CacheTTL() != 5*time.Minute {
		t.Fatalf("unexpected default ttl: %s", cfg.CacheTTL())
	}
	if cfg.CriticalAfter() != 8*time.Hour {
		t.Fatalf("unexpected default threshold: %s", cfg.CriticalAfter())
	}
	if cfg.HarvestWorkers != 5 {
		t.Fatalf("unexpected default workers: %d", cfg.HarvestWorkers)
	}
	creds := cfg.Credentials()
	if len(creds) != 1 || creds[0].Name != "env-user" || creds[0].Subdomain == "" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestLoadConfig_NoAccounts(t *testing.T) {
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error with no accounts")
	}
}

func TestLoadConfig_YAMLFile(t *testing.T) {
	raw := `
http_addr: ":9090"
cache_ttl_seconds: 60
disconnect_critical_after_hours: 4
harvest_workers: 2
alarm_check: false
maintenance_plants:
  - Plant X
state_messages:
  no_production: "Sem Producao"
accounts:
  - name: user-a
    password: pass-a
    subdomain: region7
`
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FLEET_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.HTTPAddr)
	}
	if cfg.CacheTTL() != time.Minute || cfg.CriticalAfter() != 4*time.Hour {
		t.Fatalf("unexpected durations: %s / %s", cfg.CacheTTL(), cfg.CriticalAfter())
	}
	if cfg.AlarmCheck {
		t.Fatalf("alarm_check should be disabled")
	}
	if !cfg.MaintenanceSet()["Plant X"] {
		t.Fatalf("maintenance plant not loaded")
	}
	msgs := cfg.Messages()
	if msgs[fleet.StateNoProduction] != "Sem Producao" {
		t.Fatalf("message override not applied: %q", msgs[fleet.StateNoProduction])
	}
	if msgs[fleet.StateDisconnected] != "Plant Disconnected" {
		t.Fatalf("default message lost: %q", msgs[fleet.StateDisconnected])
	}
	creds := cfg.Credentials()
	if len(creds) != 1 || creds[0].Subdomain != "region7" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	raw := `
http_addr: ":9090"
accounts:
  - name: user-a
    password: pass-a
    subdomain: region7
`
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("FLEET_CONFIG", path)
	t.Setenv("FLEET_HTTP_ADDR", ":7070")
	t.Setenv("FLEET_CACHE_TTL_SECONDS", "120")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("env should override file: %s", cfg.HTTPAddr)
	}
	if cfg.CacheTTL() != 2*time.Minute {
		t.Fatalf("env ttl override not applied: %s", cfg.CacheTTL())
	}
}

func TestLoadConfig_RejectsBadTTL(t *testing.T) {
	t.Setenv("FLEET_ACCOUNT_NAME", "env-user")
	t.Setenv("FLEET_ACCOUNT_PASSWORD", "env-pass")
	t.Setenv("FLEET_CACHE_TTL_SECONDS", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for negative ttl")
	}
}
