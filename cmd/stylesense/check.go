package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stylesense/internal/analysis"
	"stylesense/internal/report"
	"stylesense/internal/rules"
	"stylesense/internal/workspace"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrViolationsFound is returned when diagnostics at or above --fail-on remain.
var ErrViolationsFound = errors.New("style violations found")

var (
	checkFormat  string
	checkFix     bool
	checkWatch   bool
	checkWorkers int
	checkFailOn  string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check C/C++ files for style problems",
	Long: `Checks the given files and directories (default: the workspace) and
reports every style problem found.

Examples:
  stylesense check
  stylesense check src/ include/foo.h --format json
  stylesense check --fix
  stylesense check --watch`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "Output format: text or json")
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "Apply available fixes in place")
	checkCmd.Flags().BoolVar(&checkWatch, "watch", false, "Keep running and re-check files as they change")
	checkCmd.Flags().IntVar(&checkWorkers, "workers", 0, "Concurrent file checks (default: from config)")
	checkCmd.Flags().StringVar(&checkFailOn, "fail-on", "warning", "Lowest severity that fails the run: error, warning, information, hint")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if checkFormat != "text" && checkFormat != "json" {
		return fmt.Errorf("unknown --format %q (want text or json)", checkFormat)
	}
	failOn, err := rules.ParseSeverity(checkFailOn)
	if err != nil {
		return fmt.Errorf("--fail-on: %w", err)
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	a, err := analysis.New(cfg, rules.Default())
	if err != nil {
		return err
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{workspaceRoot}
	}
	ws := cfg.Workspace
	if checkWorkers > 0 {
		ws.Workers = checkWorkers
	}

	files, err := workspace.Collect(ctx, roots, ws.IgnorePatterns)
	if err != nil {
		return err
	}
	if len(files) == 0 && !checkWatch {
		return workspace.ErrNoSources
	}

	start := time.Now()
	results, err := workspace.CheckFiles(ctx, a, files, workspace.Options{
		Workers: ws.EffectiveWorkers(),
		Fix:     checkFix,
	})
	if err != nil {
		return err
	}
	sum := workspace.Summarize(results, time.Since(start))
	logger.Info("check complete",
		zap.Int("files", sum.Files),
		zap.Int("diagnostics", sum.Diagnostics),
		zap.Int("fixed", sum.Fixed),
		zap.Int("failed", sum.Failed),
		zap.Duration("elapsed", sum.Duration))

	out := cmd.OutOrStdout()
	if err := writeResults(out, results); err != nil {
		return err
	}

	if checkWatch {
		return watch(ctx, a, roots, out)
	}

	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d files could not be checked", sum.Failed, sum.Files)
	}
	if report.CountAtLeast(results, failOn) > 0 {
		return ErrViolationsFound
	}
	return nil
}

func writeResults(w io.Writer, results []workspace.FileResult) error {
	if checkFormat == "json" {
		return report.WriteJSON(w, results)
	}
	return report.WriteText(w, results, report.TextOptions{
		Color:    !noColor,
		BasePath: workspaceRoot,
	})
}

// watch re-checks changed files until ctx is cancelled.
func watch(ctx context.Context, a *analysis.Analyzer, roots []string, out io.Writer) error {
	var mu sync.Mutex
	w, err := workspace.NewWatcher(roots, cfg.Workspace.IgnorePatterns, cfg.Workspace.GetWatchDebounce(),
		func(ctx context.Context, path string) {
			fr := workspace.CheckFile(ctx, a, path, checkFix)
			mu.Lock()
			defer mu.Unlock()
			if err := writeResults(out, []workspace.FileResult{fr}); err != nil {
				logger.Warn("failed to write results", zap.String("path", path), zap.Error(err))
			}
		})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return err
	}
	logger.Info("watching for changes", zap.Strings("roots", roots))

	select {
	case <-ctx.Done():
	case <-w.Done():
	}
	w.Stop()
	logger.Info("watch stopped", zap.Int("checks", w.Stats().Checks))
	return nil
}
