package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  grindflow config
  grindflow config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(path, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.PersistentFlags().StringVar(&path, "file", config.DefaultConfigPath(), "Config file path")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", path)
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := initConfig(path)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	})

	return cmd
}

// initConfig saves defaults (plus environment overrides) unless the file
// already exists.
func initConfig(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking config: %w", err)
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return false, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return false, fmt.Errorf("saving config: %w", err)
	}
	return true, nil
}

func runConfigInteractive(path string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Config file: %s\n\n", path)

	created, err := initConfig(path)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "No config file found. Created %s with default values.\n\n", path)
	}

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	p := prompter{r: reader, w: out}
	cfg.Schedule.DayStart = p.value("Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = p.value("Day end", cfg.Schedule.DayEnd)
	cfg.Schedule.Workdays = p.slice("Workdays (comma-separated)", cfg.Schedule.Workdays)
	cfg.Schedule.PeakHoursStart = p.value("Peak hours start (empty to disable)", cfg.Schedule.PeakHoursStart)
	cfg.Schedule.PeakHoursEnd = p.value("Peak hours end (empty to disable)", cfg.Schedule.PeakHoursEnd)
	cfg.Schedule.Timezone = p.value("Timezone (IANA name, empty for local)", cfg.Schedule.Timezone)
	cfg.Conflicts.Policy = p.choice("Conflict policy", cfg.Conflicts.Policy, []string{"reject", "warn"})
	cfg.LLM.Provider = p.value("LLM provider", cfg.LLM.Provider)
	cfg.LLM.Model = p.value("LLM model", cfg.LLM.Model)
	cfg.LLM.BaseURL = p.value("LLM base URL (Ollama/LM Studio)", cfg.LLM.BaseURL)
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.UI.Theme = p.choice("UI theme", cfg.UI.Theme, theme.Available())
	cfg.Log.Level = p.choice("Log level", cfg.Log.Level, []string{"debug", "info", "warn", "error"})
	cfg.Watch.Spec = p.value("Watch refresh (cron spec)", cfg.Watch.Spec)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[schedule]")
	fmt.Fprintf(w, "  day_start        = %s\n", cfg.Schedule.DayStart)
	fmt.Fprintf(w, "  day_end          = %s\n", cfg.Schedule.DayEnd)
	fmt.Fprintf(w, "  workdays         = %s\n", strings.Join(cfg.Schedule.Workdays, ", "))
	if cfg.HasPeakHours() {
		fmt.Fprintf(w, "  peak_hours_start = %s\n", cfg.Schedule.PeakHoursStart)
		fmt.Fprintf(w, "  peak_hours_end   = %s\n", cfg.Schedule.PeakHoursEnd)
	}
	if cfg.Schedule.Timezone != "" {
		fmt.Fprintf(w, "  timezone         = %s\n", cfg.Schedule.Timezone)
	}
	fmt.Fprintln(w, "\n[conflicts]")
	fmt.Fprintf(w, "  policy           = %s\n", cfg.Conflicts.Policy)
	fmt.Fprintln(w, "\n[llm]")
	fmt.Fprintf(w, "  provider         = %s\n", cfg.LLM.Provider)
	fmt.Fprintf(w, "  model            = %s\n", cfg.LLM.Model)
	fmt.Fprintf(w, "  base_url         = %s\n", cfg.LLM.BaseURL)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path          = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme            = %s\n", cfg.UI.Theme)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level            = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  format           = %s\n", cfg.Log.Format)
	fmt.Fprintln(w, "\n[watch]")
	fmt.Fprintf(w, "  spec             = %s\n", cfg.Watch.Spec)
}

func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

// prompter asks for values, keeping the current one on empty input.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p prompter) value(label, current string) string {
	if current == "" {
		fmt.Fprintf(p.w, "  %s: ", label)
	} else {
		fmt.Fprintf(p.w, "  %s [%s]: ", label, current)
	}
	input, _ := p.r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (p prompter) slice(label string, current []string) []string {
	input := p.value(label, strings.Join(current, ", "))
	var result []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// choice re-asks until the answer is one of options. Running out of input
// keeps the current value.
func (p prompter) choice(label, current string, options []string) string {
	label = fmt.Sprintf("%s (%s)", label, strings.Join(options, ", "))
	for {
		value := strings.ToLower(p.value(label, current))
		for _, o := range options {
			if value == o {
				return value
			}
		}
		if _, err := p.r.Peek(1); err != nil {
			return current
		}
		fmt.Fprintf(p.w, "  Invalid value %q. Available: %s\n", value, strings.Join(options, ", "))
	}
}
