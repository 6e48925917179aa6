package application

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	fleet "solarfleet/internal/fleet/domain"
)

// AccountConfig is one vendor account as declared in configuration.
type AccountConfig struct {
	Name      string `yaml:"name"`
	Password  string `yaml:"password"`
	Subdomain string `yaml:"subdomain"`
}

// Config carries everything the service needs at startup. Values come from
// defaults, then the YAML file named by FLEET_CONFIG, then environment
// overrides, in that order.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	Accounts          []AccountConfig `yaml:"accounts"`
	MaintenancePlants []string        `yaml:"maintenance_plants"`

	DisconnectCriticalAfterHours int `yaml:"disconnect_critical_after_hours"`
	CacheTTLSeconds              int `yaml:"cache_ttl_seconds"`
	HarvestWorkers               int `yaml:"harvest_workers"`
	VendorTimeoutSeconds         int `yaml:"vendor_timeout_seconds"`

	// StateMessages overrides the default alert text per plant state.
	// Keys: disconnected, no_consumption, no_production, comm_error.
	StateMessages map[string]string `yaml:"state_messages"`

	AlarmCheck bool `yaml:"alarm_check"`

	JWTSecret   string `yaml:"jwt_secret"`
	DatabaseURL string `yaml:"database_url"`
}

// LoadConfig builds the runtime configuration.
func LoadConfig() (Config, error) {
	cfg := Config{
		HTTPAddr:                     ":8080",
		DisconnectCriticalAfterHours: 8,
		CacheTTLSeconds:              300,
		HarvestWorkers:               5,
		VendorTimeoutSeconds:         20,
		AlarmCheck:                   true,
	}

	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = getenvDefault("FLEET_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DisconnectCriticalAfterHours = getenvIntDefault("FLEET_DISCONNECT_CRITICAL_AFTER_HOURS", cfg.DisconnectCriticalAfterHours)
	cfg.CacheTTLSeconds = getenvIntDefault("FLEET_CACHE_TTL_SECONDS", cfg.CacheTTLSeconds)
	cfg.HarvestWorkers = getenvIntDefault("FLEET_HARVEST_WORKERS", cfg.HarvestWorkers)
	cfg.VendorTimeoutSeconds = getenvIntDefault("FLEET_VENDOR_TIMEOUT_SECONDS", cfg.VendorTimeoutSeconds)
	cfg.AlarmCheck = getenvBoolDefault("FLEET_ALARM_CHECK", cfg.AlarmCheck)
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", cfg.JWTSecret)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)

	// A single account can also come straight from the environment, which
	// keeps one-account deployments free of a config file.
	if name := os.Getenv("FLEET_ACCOUNT_NAME"); name != "" {
		cfg.Accounts = append(cfg.Accounts, AccountConfig{
			Name:      name,
			Password:  os.Getenv("FLEET_ACCOUNT_PASSWORD"),
			Subdomain: getenvDefault("FLEET_ACCOUNT_SUBDOMAIN", "uni001eu5"),
		})
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Accounts) == 0 {
		return errors.New("config: no accounts configured")
	}
	for i, acct := range c.Accounts {
		if acct.Name == "" || acct.Password == "" {
			return fmt.Errorf("config: account %d missing name or password", i)
		}
	}
	if c.CacheTTLSeconds <= 0 {
		return errors.New("config: cache_ttl_seconds must be positive")
	}
	if c.HarvestWorkers <= 0 {
		return errors.New("config: harvest_workers must be positive")
	}
	return nil
}

// Credentials converts configured accounts to domain credentials.
func (c Config) Credentials() []fleet.Credential {
	creds := make([]fleet.Credential, 0, len(c.Accounts))
	for _, acct := range c.Accounts {
		creds = append(creds, fleet.Credential{
			Name:      acct.Name,
			Password:  acct.Password,
			Subdomain: acct.Subdomain,
		})
	}
	return creds
}

// MaintenanceSet returns the plants flagged as under maintenance.
func (c Config) MaintenanceSet() map[string]bool {
	if len(c.MaintenancePlants) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.MaintenancePlants))
	for _, name := range c.MaintenancePlants {
		set[name] = true
	}
	return set
}

// Messages resolves per-state alert text, falling back to the defaults.
func (c Config) Messages() map[fleet.PlantState]string {
	msgs := map[fleet.PlantState]string{
		fleet.StateDisconnected:  "Plant Disconnected",
		fleet.StateNoConsumption: "No Consumption",
		fleet.StateNoProduction:  "No Production",
		fleet.StateCommError:     "Communication Error",
	}
	keys := map[string]fleet.PlantState{
		"disconnected":   fleet.StateDisconnected,
		"no_consumption": fleet.StateNoConsumption,
		"no_production":  fleet.StateNoProduction,
		"comm_error":     fleet.StateCommError,
	}
	for key, state := range keys {
		if text, ok := c.StateMessages[key]; ok && text != "" {
			msgs[state] = text
		}
	}
	return msgs
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) CriticalAfter() time.Duration {
	return time.Duration(c.DisconnectCriticalAfterHours) * time.Hour
}

func (c Config) VendorTimeout() time.Duration {
	return time.Duration(c.VendorTimeoutSeconds) * time.Second
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBoolDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
