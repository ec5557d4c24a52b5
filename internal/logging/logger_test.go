package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"stylesense/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, lc config.LoggingConfig) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	Install(zap.New(core), lc)
	t.Cleanup(Reset)
	return logs
}

func TestCategoriesAreNamedLoggers(t *testing.T) {
	logs := observe(t, config.LoggingConfig{})

	LSP("opened %s", "file:///a.cpp")
	Workspace("found %d files", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "lsp", entries[0].LoggerName)
	assert.Equal(t, "opened file:///a.cpp", entries[0].Message)
	assert.Equal(t, "workspace", entries[1].LoggerName)
	assert.Equal(t, "found 3 files", entries[1].Message)
}

func TestDisabledCategoryIsNoop(t *testing.T) {
	logs := observe(t, config.LoggingConfig{
		Categories: map[string]bool{"parser": false},
	})

	Parser("should not appear")
	ParserDebug("nor this")
	Analysis("but this does")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "analysis", entries[0].LoggerName)
}

func TestLevelsAndWith(t *testing.T) {
	logs := observe(t, config.LoggingConfig{})

	l := Get(CategoryRules).With("rule", "space_after_comma")
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "space_after_comma", entries[1].ContextMap()["rule"])
}

func TestNoopBeforeInstall(t *testing.T) {
	Reset()
	// Must not panic.
	Get(CategoryLSP).Info("nothing")
	Get(CategoryLSP).With("k", "v").Error("nothing")
}

func TestTimerStopWithThreshold(t *testing.T) {
	logs := observe(t, config.LoggingConfig{})

	timer := StartTimer(CategoryAnalysis, "slow op")
	time.Sleep(2 * time.Millisecond)
	elapsed := timer.StopWithThreshold(time.Nanosecond)

	assert.GreaterOrEqual(t, elapsed, 2*time.Millisecond)
	perf := logs.FilterLoggerName("performance").All()
	require.Len(t, perf, 1)
	assert.True(t, strings.Contains(perf[0].Message, "analysis/slow op"))
}

func TestInitializeWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stylesense.log")
	t.Cleanup(Reset)

	logger, err := Initialize(config.LoggingConfig{Level: "debug", Format: "json", File: path}, false)
	require.NoError(t, err)

	Boot("hello from %s", "test")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), `"logger":"boot"`)
}

func TestInitializeRejectsBadLevel(t *testing.T) {
	_, err := Initialize(config.LoggingConfig{Level: "chatty"}, false)
	require.Error(t, err)
}

func TestConcurrentGet(t *testing.T) {
	observe(t, config.LoggingConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Get(CategoryLSP).Debug("tick")
		}()
	}
	wg.Wait()
}
