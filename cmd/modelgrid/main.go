package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/modelgrid/modelgrid/internal/cli"
	"github.com/modelgrid/modelgrid/internal/config"
	"github.com/modelgrid/modelgrid/internal/ctxlog"
	"github.com/modelgrid/modelgrid/internal/modelref"
	"github.com/modelgrid/modelgrid/internal/resolver"
	"github.com/modelgrid/modelgrid/internal/runctx"
	"github.com/modelgrid/modelgrid/internal/store"
	"github.com/modelgrid/modelgrid/internal/store/memory"
	"github.com/modelgrid/modelgrid/internal/store/rest"
)

// main is the entrypoint for the modelgrid binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, os.Stderr)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	grid, err := config.LoadGrid(ctx, appConfig.GridPath)
	if err != nil {
		return err
	}

	st, cleanup := newStore(appConfig.StoreURL)
	defer cleanup()

	return resolveGrid(ctx, outW, resolver.New(st), grid)
}

// newStore picks the store backend: a remote control plane when a URL was
// given, otherwise an ephemeral in-memory store.
func newStore(url string) (store.Store, func()) {
	if url == "" {
		return memory.New(), func() {}
	}
	restStore := rest.New(url)
	return restStore, func() { _ = restStore.Close() }
}

// resolveGrid walks the grid's declared references in definition order,
// resolving the run-level reference first and then each step.
func resolveGrid(ctx context.Context, outW io.Writer, res *resolver.Resolver, grid *config.Grid) error {
	run := runctx.NewRun(grid.Pipeline.Name)
	run.Ref = grid.Pipeline.Model
	ctx = runctx.WithRun(ctx, run)

	if run.Ref != nil {
		prepared, err := res.PrepareForLaunch(ctx, run.Ref, nil)
		if err != nil {
			return fmt.Errorf("pipeline %q: %w", grid.Pipeline.Name, err)
		}
		run.Ref = prepared
		printBinding(outW, "run", grid.Pipeline.Name, prepared)
	}

	for _, step := range grid.Steps {
		stepConfig := &runctx.StepConfig{ID: uuid.New(), Name: step.Name}

		var prepared *modelref.Ref
		var err error
		switch {
		case step.Model != nil:
			prepared, err = res.PrepareForLaunch(ctx, step.Model, stepConfig)
		case run.Ref != nil:
			prepared, err = res.PrepareForLaunch(ctx, run.Ref, nil)
		default:
			run.RecordStep(stepConfig)
			continue
		}
		if err != nil {
			return fmt.Errorf("step %q: %w", step.Name, err)
		}

		stepConfig.Ref = prepared
		run.RecordStep(stepConfig)
		printBinding(outW, "step", step.Name, prepared)
	}
	return nil
}

// printBinding writes one resolved binding to the output.
func printBinding(outW io.Writer, kind, name string, ref *modelref.Ref) {
	res, ok := ref.Resolved()
	if !ok {
		return
	}
	fmt.Fprintf(outW, "%s %s: model %s version %s (number %d, id %s)\n",
		kind, name, ref.Name, res.VersionName, res.Number, res.VersionID)
}

// newLogger creates and configures a new slog.Logger instance. It does not
// set the global logger, allowing for isolated logger instances.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}
