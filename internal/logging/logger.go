// Package logging provides config-driven categorized logging for StyleSense.
// Every category is a named child of one zap logger. Output goes to stderr
// unless logging.file is set, because stdout carries the LSP transport.
// Disabled categories get a no-op logger.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"stylesense/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot        Category = "boot"        // Startup, config loading
	CategoryParser      Category = "parser"      // tree-sitter parsing
	CategoryRules       Category = "rules"       // Rule registry and rule execution
	CategoryAnalysis    Category = "analysis"    // Per-document analysis runs
	CategoryWorkspace   Category = "workspace"   // File discovery, batch checks, watching
	CategoryLSP         Category = "lsp"         // Language server protocol traffic
	CategoryPerformance Category = "performance" // Slow operations
)

// Logger wraps a sugared zap logger for one category.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	cfg     config.LoggingConfig
	loggers = make(map[Category]*Logger)
)

// Initialize builds the process logger from config and installs it for all
// categories. verbose forces debug level, like DebugMode.
func Initialize(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	if lc.File != "" {
		zc.OutputPaths = []string{lc.File}
	}
	if lc.Format != "json" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.Sampling = nil

	level, err := parseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if verbose || lc.DebugMode {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	Install(logger, lc)

	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s file=%q", level, zc.Encoding, lc.File)
	return logger, nil
}

// Install replaces the process logger. Tests use it with zaptest/observer.
func Install(logger *zap.Logger, lc config.LoggingConfig) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	base = logger
	cfg = lc
	loggers = make(map[Category]*Logger)
}

// Reset restores the no-op logger.
func Reset() {
	Install(nil, config.LoggingConfig{})
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	b := base
	mu.RUnlock()
	_ = b.Sync()
}

func parseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}
	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// With returns a logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	if l.sugar == nil {
		return l
	}
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) {
	Get(CategoryBoot).Debug(format, args...)
}

// Parser logs to the parser category
func Parser(format string, args ...interface{}) {
	Get(CategoryParser).Info(format, args...)
}

// ParserDebug logs debug to the parser category
func ParserDebug(format string, args ...interface{}) {
	Get(CategoryParser).Debug(format, args...)
}

// RulesDebug logs debug to the rules category
func RulesDebug(format string, args ...interface{}) {
	Get(CategoryRules).Debug(format, args...)
}

// Analysis logs to the analysis category
func Analysis(format string, args ...interface{}) {
	Get(CategoryAnalysis).Info(format, args...)
}

// AnalysisDebug logs debug to the analysis category
func AnalysisDebug(format string, args ...interface{}) {
	Get(CategoryAnalysis).Debug(format, args...)
}

// Workspace logs to the workspace category
func Workspace(format string, args ...interface{}) {
	Get(CategoryWorkspace).Info(format, args...)
}

// WorkspaceDebug logs debug to the workspace category
func WorkspaceDebug(format string, args ...interface{}) {
	Get(CategoryWorkspace).Debug(format, args...)
}

// WorkspaceWarn logs a warning to the workspace category
func WorkspaceWarn(format string, args ...interface{}) {
	Get(CategoryWorkspace).Warn(format, args...)
}

// LSP logs to the lsp category
func LSP(format string, args ...interface{}) {
	Get(CategoryLSP).Info(format, args...)
}

// LSPDebug logs debug to the lsp category
func LSPDebug(format string, args ...interface{}) {
	Get(CategoryLSP).Debug(format, args...)
}

// LSPWarn logs a warning to the lsp category
func LSPWarn(format string, args ...interface{}) {
	Get(CategoryLSP).Warn(format, args...)
}

// LSPError logs an error to the lsp category
func LSPError(format string, args ...interface{}) {
	Get(CategoryLSP).Error(format, args...)
}

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs to the performance category if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(CategoryPerformance).Warn("%s/%s took %v (threshold: %v)", t.category, t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
