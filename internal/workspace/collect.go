// Package workspace finds C and C++ sources on disk and checks them in
// batches or as they change.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"stylesense/internal/lang"
	"stylesense/internal/logging"
)

// ErrNoSources is returned when the given roots contain no C or C++ files.
var ErrNoSources = errors.New("no C or C++ source files found")

// Collect walks roots and returns every C/C++ source below them, sorted and
// de-duplicated. Roots that are files are taken as-is when their extension
// is recognised. Directories and files whose base name matches one of the
// ignore patterns are skipped, except a root given explicitly.
func Collect(ctx context.Context, roots []string, ignore []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if !seen[abs] {
			seen[abs] = true
			files = append(files, abs)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("collect %s: %w", root, err)
		}
		if !info.IsDir() {
			if !lang.IsSource(root) {
				return nil, fmt.Errorf("collect %s: %w", root, lang.ErrUnsupportedLanguage)
			}
			add(root)
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				logging.WorkspaceWarn("skipping %s: %v", path, walkErr)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if path != root && Ignored(d.Name(), ignore) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && lang.IsSource(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	logging.WorkspaceDebug("collected %d source files from %d roots", len(files), len(roots))
	return files, nil
}

// Ignored reports whether a base name matches any ignore pattern. Patterns
// are filepath.Match globs; a malformed pattern only matches literally.
func Ignored(name string, patterns []string) bool {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if p == name {
			return true
		}
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
