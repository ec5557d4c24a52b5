package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stylesense/internal/config"
	"stylesense/internal/lang"
	"stylesense/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzer(t *testing.T, cfg *config.Config) *Analyzer {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a, err := New(cfg, rules.Default())
	require.NoError(t, err)
	return a
}

func loadFixture(t *testing.T) Document {
	t.Helper()
	path := filepath.Join("testdata", "test-file.cpp")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return Document{URI: path, Language: lang.CPP, Content: content}
}

// byLine groups rule names by 1-based line number.
func byLine(res *Result) map[int][]string {
	out := make(map[int][]string)
	for _, d := range res.Diagnostics {
		line := res.Lines.Position(d.Start).Line + 1
		out[line] = append(out[line], d.Rule)
	}
	return out
}

func TestAnalyze_Fixture(t *testing.T) {
	a := newAnalyzer(t, nil)
	res, err := a.Analyze(context.Background(), loadFixture(t))
	require.NoError(t, err)

	assert.False(t, res.HasSyntaxErrors)
	assert.False(t, res.Skipped)
	assert.NotEmpty(t, res.RunID)

	lines := byLine(res)
	expect := map[int][]string{
		8:  {"space_before_equals", "space_after_equals"},
		10: {"no_trailing_whitespace"},
		12: {"space_after_keyword", "space_around_binary_operator", "space_before_brace"},
		13: {"space_around_binary_operator"},
		15: {"no_trailing_whitespace"},
		17: {"space_after_keyword", "space_before_equals", "space_after_equals"},
		19: {"space_before_equals", "space_after_equals", "space_after_comma"},
		21: {"no_trailing_whitespace"},
	}
	for line, want := range expect {
		for _, rule := range want {
			assert.Contains(t, lines[line], rule, "line %d", line)
		}
	}

	// Correctly formatted lines stay quiet.
	for _, line := range []int{1, 2, 3, 5, 6, 9, 14, 20, 22, 23} {
		assert.Empty(t, lines[line], "line %d", line)
	}

	assert.Len(t, filterRule(res, "space_after_comma"), 4)
	assert.Len(t, filterRule(res, "no_trailing_whitespace"), 3)
	assert.Len(t, filterRule(res, "space_before_brace"), 1)
}

func filterRule(res *Result, rule string) []rules.Diagnostic {
	var out []rules.Diagnostic
	for _, d := range res.Diagnostics {
		if d.Rule == rule {
			out = append(out, d)
		}
	}
	return out
}

func TestAnalyze_DiagnosticsSorted(t *testing.T) {
	a := newAnalyzer(t, nil)
	res, err := a.Analyze(context.Background(), loadFixture(t))
	require.NoError(t, err)

	for i := 1; i < len(res.Diagnostics); i++ {
		prev, cur := res.Diagnostics[i-1], res.Diagnostics[i]
		assert.True(t, prev.Start < cur.Start || (prev.Start == cur.Start && prev.Rule <= cur.Rule),
			"diagnostics out of order at %d: %+v then %+v", i, prev, cur)
	}
}

func TestFix_Fixture(t *testing.T) {
	a := newAnalyzer(t, nil)
	doc := loadFixture(t)

	out, applied, err := a.Fix(context.Background(), doc)
	require.NoError(t, err)
	assert.Greater(t, applied, 0)

	got := string(out)
	for _, want := range []string{
		"    int x = 5;",
		"    int y = 10;",
		"    if (x > 3) {",
		`        std::cout << "Hello, StyleSense!" << std::endl;`,
		"std::vector<int> vec = {1, 2, 3, 4, 5};",
		"    for (int i = 0;",
	} {
		assert.Contains(t, got, want)
	}
	for i, line := range strings.Split(got, "\n") {
		assert.Equal(t, strings.TrimRight(line, " \t"), line, "line %d keeps trailing whitespace", i+1)
	}

	// Fixing is idempotent.
	_, again, err := a.Fix(context.Background(), Document{URI: doc.URI, Language: doc.Language, Content: out})
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestNew_UnknownRuleInConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SetRule("tabs_are_evil", true, "")

	_, err := New(cfg, rules.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, rules.ErrUnknownRule))
}

func TestNew_BadSeverityInConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SetRule("space_after_comma", true, "fatal")

	_, err := New(cfg, rules.Default())
	assert.True(t, errors.Is(err, rules.ErrInvalidSeverity))
}

func TestNew_DisableAndOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SetRule("no_trailing_whitespace", false, "")
	cfg.SetRule("space_after_comma", true, "error")

	a := newAnalyzer(t, cfg)
	names := make(map[string]rules.Severity)
	for _, ar := range a.Rules() {
		names[ar.Rule.Name()] = ar.Severity
	}
	assert.NotContains(t, names, "no_trailing_whitespace")
	assert.Equal(t, rules.SeverityError, names["space_after_comma"])
	assert.Len(t, names, a.Registry().Len()-1)

	res, err := a.Analyze(context.Background(), loadFixture(t))
	require.NoError(t, err)
	assert.Empty(t, filterRule(res, "no_trailing_whitespace"))
	for _, d := range filterRule(res, "space_after_comma") {
		assert.Equal(t, rules.SeverityError, d.Severity)
	}
}

func TestAnalyze_SkipsOversizedDocuments(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workspace.MaxFileBytes = 16

	a := newAnalyzer(t, cfg)
	res, err := a.Analyze(context.Background(), loadFixture(t))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Diagnostics)
}

func TestAnalyze_SyntaxErrorsStillReported(t *testing.T) {
	a := newAnalyzer(t, nil)
	res, err := a.Analyze(context.Background(), Document{
		URI:      "broken.c",
		Language: lang.C,
		Content:  []byte("int x=5;\nvoid f(void\n"),
	})
	require.NoError(t, err)
	assert.True(t, res.HasSyntaxErrors)
	assert.NotEmpty(t, filterRule(res, "space_before_equals"))
}

func TestAnalyze_UnsupportedLanguage(t *testing.T) {
	a := newAnalyzer(t, nil)
	_, err := a.Analyze(context.Background(), Document{URI: "x.txt", Language: lang.Unknown, Content: []byte("x")})
	assert.True(t, errors.Is(err, lang.ErrUnsupportedLanguage))
}
