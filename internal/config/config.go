// Package config loads and saves the costcmp TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/costcmp/internal/fiscal"
	"github.com/theirongolddev/costcmp/internal/model"
)

// Record source kinds.
const (
	SourceStore    = "store"
	SourceAPI      = "api"
	SourcePostgres = "postgres"
)

// Sources lists the accepted source kinds.
var Sources = []string{SourceStore, SourceAPI, SourcePostgres}

// Config holds all costcmp configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Source     SourceConfig     `toml:"source"`
	Filters    FilterConfig     `toml:"filters"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds calendar and display preferences.
type GeneralConfig struct {
	Calendar         string `toml:"calendar"`
	FiscalStartMonth int    `toml:"fiscal_start_month"`
	Timezone         string `toml:"timezone,omitempty"`
	DefaultMode      string `toml:"default_mode"`
	Currency         string `toml:"currency,omitempty"`
}

// SourceConfig selects where records come from.
type SourceConfig struct {
	Kind        string `toml:"kind"`
	APIURL      string `toml:"api_url,omitempty"`
	APIToken    string `toml:"api_token,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
	SyncDays    int    `toml:"sync_days"`
}

// FilterConfig holds the default record filters. Empty means all.
type FilterConfig struct {
	Garage   string `toml:"garage,omitempty"`
	Workshop string `toml:"workshop,omitempty"`
	Category string `toml:"category,omitempty"`
	CostType string `toml:"cost_type,omitempty"`
}

// DaemonConfig holds settings for the background service.
type DaemonConfig struct {
	Addr           string `toml:"addr"`
	Interval       string `toml:"interval"`
	AMQPURL        string `toml:"amqp_url,omitempty"`
	AMQPExchange   string `toml:"amqp_exchange,omitempty"`
	AMQPRoutingKey string `toml:"amqp_routing_key,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Calendar:         fiscal.CalendarGregorian,
			FiscalStartMonth: 1,
			DefaultMode:      string(model.ModeMonth),
			Currency:         "ETB",
		},
		Source: SourceConfig{
			Kind:     SourceStore,
			SyncDays: 400,
		},
		Daemon: DaemonConfig{
			Addr:           "127.0.0.1:8643",
			Interval:       "1m",
			AMQPExchange:   "costcmp.events",
			AMQPRoutingKey: "costcmp.comparison",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "costcmp")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "costcmp")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetAPIToken returns the backend API token from env var or config, in that order.
func GetAPIToken(cfg Config) string {
	if key := os.Getenv("COSTCMP_API_TOKEN"); key != "" {
		return key
	}
	return cfg.Source.APIToken
}

// GetPostgresDSN returns the Postgres DSN from env var or config, in that order.
func GetPostgresDSN(cfg Config) string {
	if dsn := os.Getenv("COSTCMP_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	return cfg.Source.PostgresDSN
}

// GetAMQPURL returns the broker URL from env var or config, in that order.
func GetAMQPURL(cfg Config) string {
	if u := os.Getenv("COSTCMP_AMQP_URL"); u != "" {
		return u
	}
	return cfg.Daemon.AMQPURL
}

// Location returns the configured timezone, or the local zone when unset.
func (c Config) Location() (*time.Location, error) {
	if c.General.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.General.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.General.Timezone, err)
	}
	return loc, nil
}

// Resolver builds the fiscal calendar resolver described by the config.
func (c Config) Resolver() (fiscal.Resolver, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return fiscal.New(c.General.Calendar, time.Month(c.General.FiscalStartMonth), loc)
}

// DefaultFilters returns the configured filters.
func (c Config) DefaultFilters() (model.Filters, error) {
	ct, err := model.ParseCostType(c.Filters.CostType)
	if err != nil {
		return model.Filters{}, err
	}
	return model.Filters{
		GarageID:            c.Filters.Garage,
		WorkshopID:          c.Filters.Workshop,
		EquipmentCategoryID: c.Filters.Category,
		CostType:            ct,
	}, nil
}

// PollInterval parses the daemon interval, falling back to one minute.
func (c Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Daemon.Interval))
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
