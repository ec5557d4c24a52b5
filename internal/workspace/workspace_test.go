package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stylesense/internal/analysis"
	"stylesense/internal/config"
	"stylesense/internal/lang"
	"stylesense/internal/rules"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newAnalyzer(t *testing.T) *analysis.Analyzer {
	t.Helper()
	a, err := analysis.New(config.DefaultConfig(), rules.Default())
	require.NoError(t, err)
	return a
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.cpp":                 "int main() { return 0; }\n",
		"src/util.c":               "int x = 1;\n",
		"src/util.h":               "int f(void);\n",
		"src/README.md":            "# docs\n",
		"build/gen.cpp":            "int y=2;\n",
		"cmake-build-debug/a.cpp":  "int z=3;\n",
		"third_party/lib/vendor.c": "int w=4;\n",
	})

	files, err := Collect(context.Background(), []string{root}, config.DefaultWorkspaceConfig().IgnorePatterns)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"main.cpp", "src/util.c", "src/util.h"}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Errorf("collected files mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_FileRootsAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.cc": "int a;\n", "notes.txt": "x\n"})

	a := filepath.Join(root, "a.cc")
	files, err := Collect(context.Background(), []string{a, root, a}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	_, err = Collect(context.Background(), []string{filepath.Join(root, "notes.txt")}, nil)
	assert.True(t, errors.Is(err, lang.ErrUnsupportedLanguage))

	_, err = Collect(context.Background(), []string{filepath.Join(root, "missing")}, nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCollect_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.c": "int a;\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, []string{root}, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestIgnored(t *testing.T) {
	patterns := []string{"build", "cmake-build-*", "[", ""}
	assert.True(t, Ignored("build", patterns))
	assert.False(t, Ignored("BUILD", patterns))
	assert.False(t, Ignored("Build", patterns))
	assert.True(t, Ignored("cmake-build-release", patterns))
	assert.True(t, Ignored("[", patterns))
	assert.False(t, Ignored("src", patterns))
}

func TestCheckFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"clean.c": "int x = 1;\n",
		"dirty.c": "int x=1;\n",
		"bad.txt": "nope\n",
	})
	files := []string{
		filepath.Join(root, "clean.c"),
		filepath.Join(root, "dirty.c"),
		filepath.Join(root, "bad.txt"),
		filepath.Join(root, "gone.c"),
	}

	results, err := CheckFiles(context.Background(), newAnalyzer(t), files, Options{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
	}
	require.NoError(t, results[0].Err)
	assert.Empty(t, results[0].Result.Diagnostics)
	require.NoError(t, results[1].Err)
	assert.Len(t, results[1].Result.Diagnostics, 2)
	assert.True(t, errors.Is(results[2].Err, lang.ErrUnsupportedLanguage))
	assert.True(t, errors.Is(results[3].Err, os.ErrNotExist))

	sum := Summarize(results, time.Second)
	assert.Equal(t, Summary{Files: 4, Failed: 2, Diagnostics: 2, Duration: time.Second}, sum)
}

func TestCheckFiles_Fix(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"dirty.c": "int x=1;  \n"})
	path := filepath.Join(root, "dirty.c")

	results, err := CheckFiles(context.Background(), newAnalyzer(t), []string{path}, Options{Fix: true})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 3, results[0].Fixed)
	assert.Empty(t, results[0].Result.Diagnostics)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "int x = 1;\n", string(got))
}

func TestCheckFiles_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.c": "int a;\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CheckFiles(ctx, newAnalyzer(t), []string{filepath.Join(root, "a.c")}, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWatcher_DebouncedChecks(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.c": "int a;\n"})

	var mu sync.Mutex
	var seen []string
	changed := make(chan string, 8)
	w, err := NewWatcher([]string{root}, []string{"build"}, 50*time.Millisecond, func(_ context.Context, path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		changed <- path
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	assert.True(t, w.IsWatching())
	assert.NotEmpty(t, w.WatchedDirs())

	target := filepath.Join(root, "a.c")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("int a=1;\n"), 0o644))
	}
	// Non-sources are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	// Rapid writes collapse into a single check.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{target}, seen)
	mu.Unlock()

	stats := w.Stats()
	assert.Equal(t, 1, stats.Checks)
	assert.Equal(t, target, stats.LastEventPath)
}

func TestWatcher_NewDirectories(t *testing.T) {
	root := t.TempDir()
	changed := make(chan string, 8)
	w, err := NewWatcher([]string{root}, nil, 20*time.Millisecond, func(_ context.Context, path string) {
		changed <- path
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	target := filepath.Join(sub, "b.cpp")
	require.Eventually(t, func() bool {
		for _, d := range w.WatchedDirs() {
			if d == sub {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(target, []byte("int b;\n"), 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not pick up the new directory")
	}
}

func TestWatcher_FileRootOnlyReportsThatFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.c":            "int a;\n",
		"b.c":            "int b;\n",
		"other/deep/c.c": "int c;\n",
	})
	target := filepath.Join(root, "a.c")

	var mu sync.Mutex
	var seen []string
	changed := make(chan string, 8)
	w, err := NewWatcher([]string{target}, nil, 20*time.Millisecond, func(_ context.Context, path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		changed <- path
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()
	assert.Equal(t, []string{root}, w.WatchedDirs())

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.c"), []byte("int b=1;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "other", "deep", "c.c"), []byte("int c=1;\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "fresh"), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("int a=1;\n"), 0o644))

	select {
	case got := <-changed:
		assert.Equal(t, target, got)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the file root")
	}

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{target}, seen)
	mu.Unlock()
	assert.Equal(t, []string{root}, w.WatchedDirs())
}

func TestWatcher_SingleUse(t *testing.T) {
	w, err := NewWatcher([]string{t.TempDir()}, nil, 0, func(context.Context, string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()

	err = w.Start(context.Background())
	assert.True(t, errors.Is(err, ErrWatcherStopped))
	assert.False(t, w.IsWatching())

	unstarted, err := NewWatcher([]string{t.TempDir()}, nil, 0, func(context.Context, string) {})
	require.NoError(t, err)
	unstarted.Stop()
	select {
	case <-unstarted.Done():
	default:
		t.Fatal("Done not closed after Stop")
	}
	assert.True(t, errors.Is(unstarted.Start(context.Background()), ErrWatcherStopped))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := NewWatcher([]string{t.TempDir()}, nil, 0, func(context.Context, string) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
	assert.False(t, w.IsWatching())
}
