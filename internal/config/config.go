// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the application configuration.
type Config struct {
	Schedule  ScheduleConfig  `toml:"schedule"`
	Conflicts ConflictsConfig `toml:"conflicts"`
	LLM       LLMConfig       `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
	UI        UIConfig        `toml:"ui"`
	Log       LogConfig       `toml:"log"`
	Watch     WatchConfig     `toml:"watch"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// ScheduleConfig holds day scheduling settings.
type ScheduleConfig struct {
	Workdays       []string `toml:"workdays"`         // e.g., ["monday", "tuesday", ...]
	DayStart       string   `toml:"day_start"`        // e.g., "09:00"
	DayEnd         string   `toml:"day_end"`          // e.g., "17:00"
	PeakHoursStart string   `toml:"peak_hours_start"` // e.g., "09:00" (optional)
	PeakHoursEnd   string   `toml:"peak_hours_end"`   // e.g., "12:00" (optional)
	Timezone       string   `toml:"timezone"`         // IANA name, empty means local
}

// ConflictsConfig controls how overlapping todos are handled on write.
type ConflictsConfig struct {
	Policy string `toml:"policy"` // "reject" or "warn"
}

// LLMConfig holds LLM provider settings.
type LLMConfig struct {
	Provider string `toml:"provider"` // "ollama", "lmstudio", "openai"
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key,omitempty"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "text" or "json"
}

// WatchConfig holds the refresh schedule for the watch command.
type WatchConfig struct {
	Spec string `toml:"spec"` // cron spec, e.g. "@every 1m"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Schedule: ScheduleConfig{
			Workdays:       []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			DayStart:       "09:00",
			DayEnd:         "17:00",
			PeakHoursStart: "", // Empty means no peak hours configured
			PeakHoursEnd:   "",
		},
		Conflicts: ConflictsConfig{
			Policy: "reject",
		},
		LLM: LLMConfig{
			Provider: "ollama",
			Model:    "llama3.2",
			BaseURL:  "http://localhost:11434",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		UI: UIConfig{
			Theme: "frappe",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Watch: WatchConfig{
			Spec: "@every 1m",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "grindflow.db"
	}
	return filepath.Join(home, ".local", "share", "grindflow", "grindflow.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "grindflow", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// envOverrides maps GRINDFLOW_* variables onto config fields.
var envOverrides = map[string]func(c *Config, v string){
	"GRINDFLOW_DAY_START":        func(c *Config, v string) { c.Schedule.DayStart = v },
	"GRINDFLOW_DAY_END":          func(c *Config, v string) { c.Schedule.DayEnd = v },
	"GRINDFLOW_WORKDAYS":         func(c *Config, v string) { c.Schedule.Workdays = strings.Split(v, ",") },
	"GRINDFLOW_PEAK_HOURS_START": func(c *Config, v string) { c.Schedule.PeakHoursStart = v },
	"GRINDFLOW_PEAK_HOURS_END":   func(c *Config, v string) { c.Schedule.PeakHoursEnd = v },
	"GRINDFLOW_TIMEZONE":         func(c *Config, v string) { c.Schedule.Timezone = v },
	"GRINDFLOW_CONFLICT_POLICY":  func(c *Config, v string) { c.Conflicts.Policy = v },
	"GRINDFLOW_LLM_PROVIDER":     func(c *Config, v string) { c.LLM.Provider = v },
	"GRINDFLOW_LLM_MODEL":        func(c *Config, v string) { c.LLM.Model = v },
	"GRINDFLOW_LLM_BASE_URL":     func(c *Config, v string) { c.LLM.BaseURL = v },
	"GRINDFLOW_LLM_API_KEY":      func(c *Config, v string) { c.LLM.APIKey = v },
	"GRINDFLOW_DB_PATH":          func(c *Config, v string) { c.Storage.DBPath = v },
	"GRINDFLOW_UI_THEME":         func(c *Config, v string) { c.UI.Theme = v },
	"GRINDFLOW_LOG_LEVEL":        func(c *Config, v string) { c.Log.Level = v },
	"GRINDFLOW_LOG_FORMAT":       func(c *Config, v string) { c.Log.Format = v },
	"GRINDFLOW_WATCH_SPEC":       func(c *Config, v string) { c.Watch.Spec = v },
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) {
	for name, apply := range envOverrides {
		if v := os.Getenv(name); v != "" {
			apply(cfg, v)
		}
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateTime(c.Schedule.DayStart, "day_start"); err != nil {
		return err
	}
	if err := validateTime(c.Schedule.DayEnd, "day_end"); err != nil {
		return err
	}
	if c.Schedule.DayStart >= c.Schedule.DayEnd {
		return errors.New("day_start must be before day_end")
	}

	// Both peak hours must be set or neither
	hasStart := c.Schedule.PeakHoursStart != ""
	hasEnd := c.Schedule.PeakHoursEnd != ""
	if hasStart != hasEnd {
		return errors.New("both peak_hours_start and peak_hours_end must be set, or neither")
	}
	if hasStart && hasEnd {
		if err := validateTime(c.Schedule.PeakHoursStart, "peak_hours_start"); err != nil {
			return err
		}
		if err := validateTime(c.Schedule.PeakHoursEnd, "peak_hours_end"); err != nil {
			return err
		}
		if c.Schedule.PeakHoursStart >= c.Schedule.PeakHoursEnd {
			return errors.New("peak_hours_start must be before peak_hours_end")
		}
	}

	if len(c.Schedule.Workdays) == 0 {
		return errors.New("at least one workday must be configured")
	}
	for _, day := range c.Schedule.Workdays {
		if !isValidWeekday(day) {
			return fmt.Errorf("invalid workday: %s", day)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Conflicts.Policy {
	case "reject", "warn":
	default:
		return fmt.Errorf("conflicts.policy must be 'reject' or 'warn', got %q", c.Conflicts.Policy)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got %q", c.Log.Format)
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}
	if c.Watch.Spec == "" {
		return errors.New("watch.spec must be set")
	}
	return nil
}

// Location returns the configured time zone, or time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// validateTime checks if a time string is in HH:MM format.
func validateTime(t, field string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	hour := t[0:2]
	min := t[3:5]
	if !isDigits(hour) || !isDigits(min) || hour > "23" || min > "59" {
		return fmt.Errorf("%s must be in HH:MM format, got %q", field, t)
	}
	return nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

var validWeekdays = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

func isValidWeekday(day string) bool {
	return validWeekdays[strings.ToLower(day)]
}

// IsWorkday returns true if the given weekday name is a configured workday.
func (c *Config) IsWorkday(weekday string) bool {
	weekday = strings.ToLower(weekday)
	for _, d := range c.Schedule.Workdays {
		if strings.ToLower(d) == weekday {
			return true
		}
	}
	return false
}

// HasPeakHours returns true if peak hours are configured.
func (c *Config) HasPeakHours() bool {
	return c.Schedule.PeakHoursStart != "" && c.Schedule.PeakHoursEnd != ""
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
