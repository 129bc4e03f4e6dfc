package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Schedule.DayStart != "09:00" || cfg.Schedule.DayEnd != "17:00" {
		t.Errorf("expected 09:00-17:00, got %s-%s", cfg.Schedule.DayStart, cfg.Schedule.DayEnd)
	}
	if len(cfg.Schedule.Workdays) != 5 {
		t.Errorf("expected 5 workdays, got %d", len(cfg.Schedule.Workdays))
	}
	if cfg.Conflicts.Policy != "reject" {
		t.Errorf("expected policy reject, got %s", cfg.Conflicts.Policy)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("expected provider ollama, got %s", cfg.LLM.Provider)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "text" {
		t.Errorf("expected warn/text logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.Watch.Spec != "@every 1m" {
		t.Errorf("expected watch spec @every 1m, got %s", cfg.Watch.Spec)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "09:00" {
		t.Errorf("expected default day_start, got %s", cfg.Schedule.DayStart)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoadFrom_ValidFile(t *testing.T) {
	configPath := writeConfig(t, `
[schedule]
workdays = ["monday", "tuesday", "wednesday"]
day_start = "08:00"
day_end = "16:00"
timezone = "UTC"

[conflicts]
policy = "warn"

[llm]
provider = "lmstudio"
model = "qwen2.5"
base_url = "http://localhost:1234/v1"

[storage]
db_path = "/tmp/test.db"

[log]
level = "debug"
format = "json"

[watch]
spec = "*/5 * * * *"
`)

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Schedule.DayStart != "08:00" || cfg.Schedule.DayEnd != "16:00" {
		t.Errorf("got day %s-%s", cfg.Schedule.DayStart, cfg.Schedule.DayEnd)
	}
	if len(cfg.Schedule.Workdays) != 3 {
		t.Errorf("expected 3 workdays, got %d", len(cfg.Schedule.Workdays))
	}
	if cfg.Conflicts.Policy != "warn" {
		t.Errorf("expected policy warn, got %s", cfg.Conflicts.Policy)
	}
	if cfg.LLM.Provider != "lmstudio" || cfg.LLM.Model != "qwen2.5" || cfg.LLM.BaseURL != "http://localhost:1234/v1" {
		t.Errorf("got llm %+v", cfg.LLM)
	}
	if cfg.Storage.DBPath != "/tmp/test.db" {
		t.Errorf("expected db_path /tmp/test.db, got %s", cfg.Storage.DBPath)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("got log %+v", cfg.Log)
	}
	if cfg.Watch.Spec != "*/5 * * * *" {
		t.Errorf("got watch spec %q", cfg.Watch.Spec)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("got location %v, %v", loc, err)
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	configPath := writeConfig(t, `
[schedule]
day_start = "08:00"
day_end = "16:00"

[storage]
db_path = "/tmp/test.db"
`)

	t.Setenv("GRINDFLOW_DAY_START", "10:00")
	t.Setenv("GRINDFLOW_CONFLICT_POLICY", "warn")
	t.Setenv("GRINDFLOW_LLM_MODEL", "mistral")
	t.Setenv("GRINDFLOW_LOG_LEVEL", "info")
	t.Setenv("GRINDFLOW_WORKDAYS", "saturday,sunday")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Env overrides file
	if cfg.Schedule.DayStart != "10:00" {
		t.Errorf("expected day_start 10:00 from env, got %s", cfg.Schedule.DayStart)
	}
	// File value kept when no env override
	if cfg.Schedule.DayEnd != "16:00" {
		t.Errorf("expected day_end 16:00 from file, got %s", cfg.Schedule.DayEnd)
	}
	if cfg.Conflicts.Policy != "warn" {
		t.Errorf("expected policy warn from env, got %s", cfg.Conflicts.Policy)
	}
	if cfg.LLM.Model != "mistral" {
		t.Errorf("expected model mistral from env, got %s", cfg.LLM.Model)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info from env, got %s", cfg.Log.Level)
	}
	if !cfg.IsWorkday("sunday") || cfg.IsWorkday("monday") {
		t.Errorf("got workdays %v", cfg.Schedule.Workdays)
	}
}

func TestLoadFrom_InvalidFile(t *testing.T) {
	configPath := writeConfig(t, `
[conflicts]
policy = "ignore"
`)
	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected error for invalid policy")
	}

	configPath = writeConfig(t, `[schedule`)
	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "day start missing leading zero", modify: func(c *Config) { c.Schedule.DayStart = "9:00" }},
		{name: "day start out of range", modify: func(c *Config) { c.Schedule.DayStart = "25:00" }},
		{name: "day start after day end", modify: func(c *Config) { c.Schedule.DayStart, c.Schedule.DayEnd = "18:00", "09:00" }},
		{name: "invalid workday", modify: func(c *Config) { c.Schedule.Workdays = []string{"monday", "funday"} }},
		{name: "empty workdays", modify: func(c *Config) { c.Schedule.Workdays = []string{} }},
		{name: "only peak start", modify: func(c *Config) { c.Schedule.PeakHoursStart = "09:00" }},
		{name: "only peak end", modify: func(c *Config) { c.Schedule.PeakHoursEnd = "12:00" }},
		{name: "peak start after end", modify: func(c *Config) { c.Schedule.PeakHoursStart, c.Schedule.PeakHoursEnd = "14:00", "09:00" }},
		{name: "peak invalid format", modify: func(c *Config) { c.Schedule.PeakHoursStart, c.Schedule.PeakHoursEnd = "9:00", "12:00" }},
		{name: "unknown timezone", modify: func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{name: "unknown policy", modify: func(c *Config) { c.Conflicts.Policy = "ignore" }},
		{name: "unknown log level", modify: func(c *Config) { c.Log.Level = "verbose" }},
		{name: "unknown log format", modify: func(c *Config) { c.Log.Format = "xml" }},
		{name: "empty db path", modify: func(c *Config) { c.Storage.DBPath = "" }},
		{name: "empty watch spec", modify: func(c *Config) { c.Watch.Spec = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestIsWorkday(t *testing.T) {
	cfg := Default()

	tests := []struct {
		day  string
		want bool
	}{
		{"monday", true},
		{"Monday", true},
		{"FRIDAY", true},
		{"saturday", false},
		{"sunday", false},
	}

	for _, tc := range tests {
		t.Run(tc.day, func(t *testing.T) {
			if got := cfg.IsWorkday(tc.day); got != tc.want {
				t.Errorf("IsWorkday(%q) = %v, want %v", tc.day, got, tc.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/grindflow.db", filepath.Join(home, "grindflow.db")},
		{"/absolute/path.db", "/absolute/path.db"},
		{"relative/path.db", "relative/path.db"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			if got := expandPath(tc.input); got != tc.want {
				t.Errorf("expandPath(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Schedule.DayStart = "07:30"
	cfg.Schedule.DayEnd = "15:30"
	cfg.Schedule.PeakHoursStart = "08:00"
	cfg.Schedule.PeakHoursEnd = "11:00"
	cfg.Conflicts.Policy = "warn"
	cfg.UI.Theme = "latte"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.Schedule.DayStart != "07:30" || loaded.Schedule.DayEnd != "15:30" {
		t.Errorf("got day %s-%s", loaded.Schedule.DayStart, loaded.Schedule.DayEnd)
	}
	if !loaded.HasPeakHours() {
		t.Error("expected peak hours after reload")
	}
	if loaded.Conflicts.Policy != "warn" || loaded.UI.Theme != "latte" {
		t.Errorf("got policy %s theme %s", loaded.Conflicts.Policy, loaded.UI.Theme)
	}
}

func TestHasPeakHours(t *testing.T) {
	cfg := Default()

	if cfg.HasPeakHours() {
		t.Error("expected HasPeakHours() = false for default config")
	}

	cfg.Schedule.PeakHoursStart = "09:00"
	cfg.Schedule.PeakHoursEnd = "12:00"

	if !cfg.HasPeakHours() {
		t.Error("expected HasPeakHours() = true when peak hours configured")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid peak hours, got: %v", err)
	}
}
