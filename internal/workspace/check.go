package workspace

import (
	"context"
	"fmt"
	"os"
	"time"

	"stylesense/internal/analysis"
	"stylesense/internal/lang"
	"stylesense/internal/logging"

	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome for one file of a batch.
type FileResult struct {
	Path   string
	Result *analysis.Result
	// Fixed counts edits written back to disk when fixing.
	Fixed int
	// Err is a per-file failure; other files are still checked.
	Err error
}

// Options controls a batch check.
type Options struct {
	Workers int
	// Fix rewrites files with all available fixes before reporting what is left.
	Fix bool
}

// Summary aggregates a batch.
type Summary struct {
	Files       int
	Failed      int
	Skipped     int
	Diagnostics int
	Fixed       int
	Duration    time.Duration
}

// CheckFiles analyzes files concurrently. Results are returned in input
// order. Only cancellation aborts the batch; per-file failures are carried
// on the FileResult.
func CheckFiles(ctx context.Context, a *analysis.Analyzer, files []string, opts Options) ([]FileResult, error) {
	timer := logging.StartTimer(logging.CategoryWorkspace, fmt.Sprintf("check %d files", len(files)))
	defer timer.StopWithThreshold(5 * time.Second)

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = CheckFile(gctx, a, path, opts.Fix)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// CheckFile analyzes a single file, optionally fixing it in place first.
func CheckFile(ctx context.Context, a *analysis.Analyzer, path string, fix bool) FileResult {
	fr := FileResult{Path: path}

	language, err := lang.Detect(path)
	if err != nil {
		fr.Err = err
		return fr
	}
	content, err := os.ReadFile(path)
	if err != nil {
		fr.Err = fmt.Errorf("read %s: %w", path, err)
		return fr
	}
	doc := analysis.Document{URI: path, Language: language, Content: content}

	if fix {
		fixed, n, err := a.Fix(ctx, doc)
		if err != nil {
			fr.Err = err
			return fr
		}
		if n > 0 {
			info, statErr := os.Stat(path)
			mode := os.FileMode(0o644)
			if statErr == nil {
				mode = info.Mode().Perm()
			}
			if err := os.WriteFile(path, fixed, mode); err != nil {
				fr.Err = fmt.Errorf("write %s: %w", path, err)
				return fr
			}
			logging.Workspace("fixed %d issues in %s", n, path)
			doc.Content = fixed
			fr.Fixed = n
		}
	}

	fr.Result, fr.Err = a.Analyze(ctx, doc)
	return fr
}

// Summarize totals a batch.
func Summarize(results []FileResult, elapsed time.Duration) Summary {
	s := Summary{Files: len(results), Duration: elapsed}
	for _, r := range results {
		s.Fixed += r.Fixed
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Result == nil:
		case r.Result.Skipped:
			s.Skipped++
		default:
			s.Diagnostics += len(r.Result.Diagnostics)
		}
	}
	return s
}
