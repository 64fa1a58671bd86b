// Package main is the entry point for the batch-files application.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/batch-files/internal/config"
	"github.com/joe/batch-files/internal/logging"
	"github.com/joe/batch-files/internal/operation"
	"github.com/joe/batch-files/internal/pipeline"
	"github.com/joe/batch-files/internal/report"
	"github.com/joe/batch-files/internal/runlock"
	"github.com/joe/batch-files/internal/tui"
	"github.com/joe/batch-files/internal/tui/shared"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitFailures = 2 // the run completed but some files failed
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse configuration
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	interactive := !cfg.Plain && term.IsTerminal(int(os.Stdout.Fd()))

	var fallback io.Writer
	if !interactive {
		fallback = os.Stderr
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		Path:     cfg.LogFile,
		Fallback: fallback,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	defer func() { _ = closeLog() }()

	lock, err := runlock.Acquire(cfg.OutputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release lock", "path", lock.Path(), "error", err)
		}
	}()

	controller := pipeline.NewController(operation.NewFactory(operation.Options{
		Timeout: cfg.Timeout,
		Logger:  logger,
	}))
	controller.Logger = logger
	controller.Parallelism = cfg.Parallelism
	controller.Configure(cfg.ToRun())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	var result *pipeline.Result
	if interactive {
		result, err = runInteractive(ctx, controller, cfg.InputPath)
	} else {
		result, err = runPlain(ctx, controller, cfg.InputPath, logger)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if result != nil && len(result.Failed) > 0 {
		return exitFailures
	}

	return exitOK
}

// runInteractive shows the terminal UI until the user quits, then prints the
// summary of the last run to the normal screen.
func runInteractive(ctx context.Context, controller *pipeline.Controller, inputDir string) (*pipeline.Result, error) {
	bridge := shared.NewEventBridge()
	defer bridge.Close()

	controller.SetEventEmitter(bridge)

	final, err := tui.Run(tui.NewModel(ctx, controller, bridge, inputDir), tea.WithAltScreen())

	// The screen may exit with a run still going; stop it and let its
	// workers emit into a closed bridge.
	controller.Stop()
	bridge.Close()

	result := controller.Wait()

	if err != nil {
		return result, fmt.Errorf("terminal UI: %w", err)
	}

	if result == nil {
		return nil, final.Err()
	}

	fmt.Println(report.Summary(result, inputDir))

	return result, nil
}

// runPlain prints one line per file. The first interrupt stops the run after
// the files in progress; the second interrupts them.
func runPlain(
	ctx context.Context,
	controller *pipeline.Controller,
	inputDir string,
	logger *slog.Logger,
) (*pipeline.Result, error) {
	controller.SetEventEmitter(report.NewPrinter(os.Stdout, inputDir))

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt)

	defer signal.Stop(signals)

	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	err := controller.Start(runCtx)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	done := make(chan *pipeline.Result, 1)

	go func() {
		done <- controller.Wait()
	}()

	interrupts := 0

	for {
		select {
		case result := <-done:
			return result, nil
		case <-signals:
			interrupts++

			if interrupts == 1 {
				logger.Info("interrupt: stopping after files in progress")
				fmt.Fprintln(os.Stderr, "stopping after the files in progress; interrupt again to abort them")
				controller.Stop()

				continue
			}

			logger.Warn("interrupt: aborting files in progress")
			abort()
		}
	}
}
