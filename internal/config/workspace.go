package config

import (
	"runtime"
	"time"
)

// WorkspaceConfig controls file discovery and batch checking.
type WorkspaceConfig struct {
	// Workers caps concurrent file checks. Zero means one per CPU.
	Workers int `yaml:"workers" json:"workers,omitempty"`
	// IgnorePatterns skips matching directory or file base names (globs allowed).
	IgnorePatterns []string `yaml:"ignore_patterns" json:"ignore_patterns,omitempty"`
	// MaxFileBytes skips analysis for larger files. Zero disables the limit.
	MaxFileBytes int64 `yaml:"max_file_bytes" json:"max_file_bytes,omitempty"`
	// WatchDebounce is how long a file must be quiet before --watch re-checks it.
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce,omitempty"`
}

// DefaultWorkspaceConfig returns defaults for workspace scanning.
func DefaultWorkspaceConfig() WorkspaceConfig {
	workers := runtime.NumCPU()
	if workers > 16 {
		workers = 16
	}
	if workers < 2 {
		workers = 2
	}
	return WorkspaceConfig{
		Workers: workers,
		IgnorePatterns: []string{
			".git",
			".stylesense",
			"node_modules",
			"vendor",
			"third_party",
			"build",
			"cmake-build-*",
			"out",
			"target",
			"bin",
			"obj",
			".cache",
		},
		MaxFileBytes:  2 * 1024 * 1024,
		WatchDebounce: "300ms",
	}
}

// EffectiveWorkers resolves the zero value to the CPU count.
func (w WorkspaceConfig) EffectiveWorkers() int {
	if w.Workers > 0 {
		return w.Workers
	}
	return runtime.NumCPU()
}

// GetWatchDebounce returns the watch debounce as a duration.
func (w WorkspaceConfig) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(w.WatchDebounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}
