package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/grindflow/grindflow/internal/config"
	"github.com/grindflow/grindflow/internal/logging"
	"github.com/grindflow/grindflow/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	app := ui.NewApp(nil, cfg, ui.WithLogger(logger))
	defer func() { _ = app.Close() }()
	return app.Execute()
}
