package ui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/db"
	"github.com/grindflow/grindflow/internal/llm"
	"github.com/grindflow/grindflow/internal/logging"
	"github.com/grindflow/grindflow/internal/schedule"
	"github.com/grindflow/grindflow/internal/todo"
	"github.com/grindflow/grindflow/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	repo      todo.Repository
	ownsRepo  bool
	config    *config.Config
	clock     schedule.Clock
	logger    *slog.Logger
	newClient func(config.LLMConfig) (llm.Client, error)
	root      *cobra.Command
	debug     bool // Enable debug logging
	debugFile *os.File
}

// Option configures an App.
type Option func(*App)

// WithClock sets the clock used for "today" and relative dates.
func WithClock(c schedule.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithLogger sets the logger passed to storage and the scheduling core.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithLLMClient replaces the configured LLM provider.
func WithLLMClient(c llm.Client) Option {
	return func(a *App) {
		a.newClient = func(config.LLMConfig) (llm.Client, error) { return c, nil }
	}
}

// NewApp creates a new CLI application. A nil repo is opened lazily from
// the configured database path.
func NewApp(repo todo.Repository, cfg *config.Config, opts ...Option) *App {
	a := &App{
		repo:      repo,
		config:    cfg,
		clock:     schedule.SystemClock{},
		logger:    slog.Default(),
		newClient: llm.NewClient,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.root = &cobra.Command{
		Use:   "grindflow",
		Short: "A terminal planner for time-blocked todos",
		Long: `GrindFlow schedules todos into time blocks on a calendar.

It rejects (or warns about) overlapping blocks, groups your day into an
agenda and shows the month as a calendar grid.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if a.debug {
				return a.enableDebugLog()
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}

	// Add global flags
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to temp file)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.editCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.deleteCmd())
	a.root.AddCommand(a.toggleCmd())
	a.root.AddCommand(a.listCmd())
	a.root.AddCommand(a.checkCmd())
	a.root.AddCommand(a.calendarCmd())
	a.root.AddCommand(a.todayCmd())
	a.root.AddCommand(a.watchCmd())
	a.root.AddCommand(a.freeCmd())
	a.root.AddCommand(a.planCmd())
	a.root.AddCommand(a.reviewCmd())
	a.root.AddCommand(a.habitCmd())
	a.root.AddCommand(a.goalCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.importCmd())
	a.root.AddCommand(a.tuiCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "grindflow %s (commit: %s)\n", Version, Commit)
		},
	}
}

func (a *App) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the month calendar",
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}
}

func (a *App) runTUI() error {
	if err := a.ensureRepo(); err != nil {
		return err
	}
	loc, err := a.location()
	if err != nil {
		return err
	}
	return tui.Run(a.repo, a.config,
		tui.WithClock(a.clock),
		tui.WithLocation(loc),
		tui.WithLogger(a.logger),
	)
}

// enableDebugLog sends debug output to a file so it does not fight with
// the terminal UI.
func (a *App) enableDebugLog() error {
	path := filepath.Join(os.TempDir(), "grindflow-debug.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	logger, err := logging.New(config.LogConfig{Level: "debug", Format: a.config.Log.Format}, f)
	if err != nil {
		_ = f.Close()
		return err
	}
	a.debugFile = f
	a.logger = logger
	a.logger.Debug("debug logging enabled", "path", path)
	return nil
}

// ensureRepo opens the configured database unless a repository was injected.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}
	loc, err := a.location()
	if err != nil {
		return err
	}

	path := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := db.New(path,
		db.WithConflictPolicy(db.ConflictPolicy(a.config.Conflicts.Policy)),
		db.WithLocation(loc),
		db.WithClock(a.clock),
		db.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.repo = repo
	a.ownsRepo = true
	return nil
}

func (a *App) location() (*time.Location, error) {
	loc, err := a.config.Location()
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	return loc, nil
}

// now returns the clock's time in the configured zone.
func (a *App) now() time.Time {
	loc, err := a.location()
	if err != nil {
		return a.clock.Now()
	}
	return a.clock.Now().In(loc)
}

func (a *App) grouper() *schedule.Grouper {
	loc, _ := a.location()
	return schedule.NewGrouper(a.clock, loc, a.logger)
}

func (a *App) detector() *schedule.Detector {
	loc, _ := a.location()
	return schedule.NewDetector(loc, a.logger)
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the database and debug log opened by the app.
func (a *App) Close() error {
	var err error
	if a.ownsRepo && a.repo != nil {
		err = a.repo.Close()
		a.repo = nil
	}
	if a.debugFile != nil {
		_ = a.debugFile.Close()
		a.debugFile = nil
	}
	return err
}
