package ui

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/db"
)

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t, db.PolicyReject)
	path := filepath.Join(t.TempDir(), "grindflow", "config.toml")

	out := env.mustRun("config", "init", "--file="+path)
	if !strings.Contains(out, "Created "+path) {
		t.Errorf("got %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out = env.mustRun("config", "init", "--file="+path)
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init: %q", out)
	}

	out = env.mustRun("config", "show", "--file="+path)
	for _, want := range []string{"day_start        = 09:00", "policy           = reject", "spec             = @every 1m"} {
		if !strings.Contains(out, want) {
			t.Errorf("show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInteractive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	input := strings.Join([]string{
		"y",          // edit
		"08:00",      // day start
		"",           // day end
		"",           // workdays
		"09:00",      // peak start
		"11:00",      // peak end
		"UTC",        // timezone
		"sometimes",  // policy, re-asked
		"warn",       // policy
		"",           // llm provider
		"",           // llm model
		"",           // llm base url
		"",           // db path
		"mocha",      // theme
		"",           // log level
		"@every 30s", // watch
	}, "\n") + "\n"

	var out strings.Builder
	if err := runConfigInteractive(path, strings.NewReader(input), &out); err != nil {
		t.Fatalf("interactive: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "Created "+path) || !strings.Contains(out.String(), "Configuration saved!") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), `Invalid value "sometimes"`) {
		t.Error("invalid policy should be re-asked")
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if cfg.Schedule.DayStart != "08:00" || cfg.Schedule.DayEnd != "17:00" {
		t.Errorf("day = %s-%s", cfg.Schedule.DayStart, cfg.Schedule.DayEnd)
	}
	if cfg.Schedule.PeakHoursStart != "09:00" || cfg.Schedule.Timezone != "UTC" {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}
	if cfg.Conflicts.Policy != "warn" || cfg.UI.Theme != "mocha" || cfg.Watch.Spec != "@every 30s" {
		t.Errorf("policy %q theme %q watch %q", cfg.Conflicts.Policy, cfg.UI.Theme, cfg.Watch.Spec)
	}
	if len(cfg.Schedule.Workdays) != 5 {
		t.Errorf("workdays = %v", cfg.Schedule.Workdays)
	}
}

func TestConfigInteractive_Decline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	var out strings.Builder
	if err := runConfigInteractive(path, strings.NewReader("n\n"), &out); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "Configuration saved!") {
		t.Error("declining should not save edits")
	}
}

func TestConfigInteractive_InvalidResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	// Day start after day end fails validation.
	input := "y\n18:00\n\n"
	var out strings.Builder
	if err := runConfigInteractive(path, strings.NewReader(input), &out); err == nil {
		t.Error("expected validation error")
	}
}

func TestPrompterChoice_EOFKeepsCurrent(t *testing.T) {
	var out strings.Builder
	p := prompter{r: bufio.NewReader(strings.NewReader("bogus")), w: &out}
	if got := p.choice("Policy", "reject", []string{"reject", "warn"}); got != "reject" {
		t.Errorf("got %q", got)
	}
}
