// Package config provides persistent configuration for the salah CLI.
//
// Configuration is stored as JSON at ~/.config/salah/config.json
// (XDG-compliant). Every key can also be supplied as a SALAH_<KEY>
// environment variable. The merge priority is:
// CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/smokyabdulrahman/salah/internal/method"
	"github.com/smokyabdulrahman/salah/internal/prayer"
	"github.com/smokyabdulrahman/salah/internal/tahajjud"
)

const (
	configDirName  = "salah"
	configFileName = "config.json"

	// EnvPrefix prefixes environment overrides, e.g. SALAH_METHOD.
	EnvPrefix = "SALAH"
)

// Provider names.
const (
	ProviderLocal   = "local"
	ProviderAlAdhan = "aladhan"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"timezone",
	"method",
	"provider",
	"locale",
	"time_format",
	"prayers",
	"lead_minutes",
	"notify", "notify_sound", "notify_icon",
	"mqtt_broker", "mqtt_topic",
	"store_driver", "store_dsn",
	"tahajjud_enabled", "tahajjud_strategy", "tahajjud_time",
	"tahajjud_method", "tahajjud_fallback", "tahajjud_lead_minutes",
	"server_addr",
	"cache_dir",
	"log_level",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City       string  `json:"city,omitempty" mapstructure:"city"`
	Country    string  `json:"country,omitempty" mapstructure:"country"`
	Latitude   float64 `json:"latitude,omitempty" mapstructure:"latitude"`
	Longitude  float64 `json:"longitude,omitempty" mapstructure:"longitude"`
	Timezone   string  `json:"timezone,omitempty" mapstructure:"timezone"` // IANA name
	Method     string  `json:"method,omitempty" mapstructure:"method"`     // preset name, e.g. "isna"
	Provider   string  `json:"provider,omitempty" mapstructure:"provider"` // "local" or "aladhan"
	Locale     string  `json:"locale,omitempty" mapstructure:"locale"`     // Hijri date locale, "en" or "ar"
	TimeFormat string  `json:"time_format,omitempty" mapstructure:"time_format"`
	Prayers    string  `json:"prayers,omitempty" mapstructure:"prayers"` // comma-separated list

	LeadMinutes int    `json:"lead_minutes,omitempty" mapstructure:"lead_minutes"`
	Notify      string `json:"notify,omitempty" mapstructure:"notify"` // comma-separated: desktop, log, mqtt
	NotifySound bool   `json:"notify_sound,omitempty" mapstructure:"notify_sound"`
	NotifyIcon  string `json:"notify_icon,omitempty" mapstructure:"notify_icon"`
	MQTTBroker  string `json:"mqtt_broker,omitempty" mapstructure:"mqtt_broker"`
	MQTTTopic   string `json:"mqtt_topic,omitempty" mapstructure:"mqtt_topic"`
	StoreDriver string `json:"store_driver,omitempty" mapstructure:"store_driver"`
	StoreDSN    string `json:"store_dsn,omitempty" mapstructure:"store_dsn"`

	TahajjudEnabled     bool   `json:"tahajjud_enabled,omitempty" mapstructure:"tahajjud_enabled"`
	TahajjudStrategy    string `json:"tahajjud_strategy,omitempty" mapstructure:"tahajjud_strategy"`
	TahajjudTime        string `json:"tahajjud_time,omitempty" mapstructure:"tahajjud_time"`
	TahajjudMethod      string `json:"tahajjud_method,omitempty" mapstructure:"tahajjud_method"`
	TahajjudFallback    string `json:"tahajjud_fallback,omitempty" mapstructure:"tahajjud_fallback"`
	TahajjudLeadMinutes int    `json:"tahajjud_lead_minutes,omitempty" mapstructure:"tahajjud_lead_minutes"`

	ServerAddr string `json:"server_addr,omitempty" mapstructure:"server_addr"`
	CacheDir   string `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
	LogLevel   string `json:"log_level,omitempty" mapstructure:"log_level"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		Method:           method.DefaultKey,
		Provider:         ProviderLocal,
		Locale:           "en",
		TimeFormat:       "24h",
		Notify:           "desktop",
		MQTTTopic:        "salah/reminders",
		StoreDriver:      "sqlite",
		TahajjudStrategy: string(tahajjud.LastThird),
		TahajjudFallback: tahajjud.DefaultClock,
		ServerAddr:       ":8080",
		LogLevel:         "warn",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load returns the effective configuration: defaults, overlaid by the
// config file, overlaid by SALAH_* environment variables.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadWithEnv(path)
}

// LoadWithEnv is Load for a specific file path.
func LoadWithEnv(path string) (*Config, error) {
	def := Defaults()

	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	for _, key := range ValidKeys {
		val, _ := def.Get(key)
		v.SetDefault(key, val)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("invalid config file %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return &cfg, nil
}

// LoadFrom reads only the config file at path, without defaults or
// environment. `config set` edits this view so nothing else gets persisted.
// A missing file is an empty Config, not an error.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := parseRange(key, value, -90, 90)
		if err != nil {
			return err
		}
		c.Latitude = v
	case "longitude":
		v, err := parseRange(key, value, -180, 180)
		if err != nil {
			return err
		}
		c.Longitude = v
	case "timezone":
		if _, err := time.LoadLocation(value); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", value, err)
		}
		c.Timezone = value
	case "method", "tahajjud_method":
		p, ok := method.Lookup(value)
		if !ok {
			return fmt.Errorf("unknown method %q; run `salah methods` for the list", value)
		}
		if key == "method" {
			c.Method = p.Key
		} else {
			c.TahajjudMethod = p.Key
		}
	case "provider":
		if value != ProviderLocal && value != ProviderAlAdhan {
			return fmt.Errorf("invalid provider %q: must be %q or %q", value, ProviderLocal, ProviderAlAdhan)
		}
		c.Provider = value
	case "locale":
		c.Locale = value
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		if _, err := prayer.ParseNames(value); err != nil {
			return fmt.Errorf("invalid prayers list: %w", err)
		}
		c.Prayers = value
	case "lead_minutes", "tahajjud_lead_minutes":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 || v > tahajjud.MaxLeadMinutes {
			return fmt.Errorf("invalid %s %q: must be an integer between 0 and %d", key, value, tahajjud.MaxLeadMinutes)
		}
		if key == "lead_minutes" {
			c.LeadMinutes = v
		} else {
			c.TahajjudLeadMinutes = v
		}
	case "notify":
		for _, n := range splitList(value) {
			if n != "desktop" && n != "log" && n != "mqtt" {
				return fmt.Errorf("invalid notifier %q: must be desktop, log or mqtt", n)
			}
		}
		c.Notify = value
	case "notify_sound":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid notify_sound %q: must be true or false", value)
		}
		c.NotifySound = v
	case "notify_icon":
		c.NotifyIcon = value
	case "mqtt_broker":
		c.MQTTBroker = value
	case "mqtt_topic":
		c.MQTTTopic = value
	case "store_driver":
		if value != "sqlite" && value != "redis" && value != "memory" {
			return fmt.Errorf("invalid store_driver %q: must be sqlite, redis or memory", value)
		}
		c.StoreDriver = value
	case "store_dsn":
		c.StoreDSN = value
	case "tahajjud_enabled":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid tahajjud_enabled %q: must be true or false", value)
		}
		c.TahajjudEnabled = v
	case "tahajjud_strategy":
		s, ok := tahajjud.ParseStrategy(value)
		if !ok {
			return fmt.Errorf("invalid tahajjud_strategy %q: must be custom, lastThird or middle", value)
		}
		c.TahajjudStrategy = string(s)
	case "tahajjud_time", "tahajjud_fallback":
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("invalid %s %q: must be HH:MM", key, value)
		}
		if key == "tahajjud_time" {
			c.TahajjudTime = value
		} else {
			c.TahajjudFallback = value
		}
	case "server_addr":
		c.ServerAddr = value
	case "cache_dir":
		c.CacheDir = value
	case "log_level":
		if _, err := zerolog.ParseLevel(value); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", value, err)
		}
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		return formatFloat(c.Latitude), nil
	case "longitude":
		return formatFloat(c.Longitude), nil
	case "timezone":
		return c.Timezone, nil
	case "method":
		return c.Method, nil
	case "provider":
		return c.Provider, nil
	case "locale":
		return c.Locale, nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "lead_minutes":
		return formatInt(c.LeadMinutes), nil
	case "notify":
		return c.Notify, nil
	case "notify_sound":
		return formatBool(c.NotifySound), nil
	case "notify_icon":
		return c.NotifyIcon, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "mqtt_topic":
		return c.MQTTTopic, nil
	case "store_driver":
		return c.StoreDriver, nil
	case "store_dsn":
		return c.StoreDSN, nil
	case "tahajjud_enabled":
		return formatBool(c.TahajjudEnabled), nil
	case "tahajjud_strategy":
		return c.TahajjudStrategy, nil
	case "tahajjud_time":
		return c.TahajjudTime, nil
	case "tahajjud_method":
		return c.TahajjudMethod, nil
	case "tahajjud_fallback":
		return c.TahajjudFallback, nil
	case "tahajjud_lead_minutes":
		return formatInt(c.TahajjudLeadMinutes), nil
	case "server_addr":
		return c.ServerAddr, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Notifiers returns the configured notifier names.
func (c *Config) Notifiers() []string {
	return splitList(c.Notify)
}

// TahajjudOptions returns the reminder options. The method falls back to
// the main schedule's method when unset.
func (c *Config) TahajjudOptions() tahajjud.Options {
	m := c.TahajjudMethod
	if m == "" {
		m = c.Method
	}
	s, _ := tahajjud.ParseStrategy(c.TahajjudStrategy)
	return tahajjud.Options{
		Method:      m,
		Strategy:    s,
		CustomTime:  c.TahajjudTime,
		Fallback:    c.TahajjudFallback,
		LeadMinutes: c.TahajjudLeadMinutes,
	}
}

func parseRange(key, value string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a number", key, value)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s %q: must be between %g and %g", key, value, lo, hi)
	}
	return v, nil
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	if !v {
		return ""
	}
	return "true"
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
