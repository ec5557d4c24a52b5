package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"stylesense/internal/analysis"
	"stylesense/internal/config"
	"stylesense/internal/lang"
	"stylesense/internal/rules"
	"stylesense/internal/workspace"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResults(t *testing.T) []workspace.FileResult {
	t.Helper()
	a, err := analysis.New(config.DefaultConfig(), rules.Default())
	require.NoError(t, err)

	res, err := a.Analyze(context.Background(), analysis.Document{
		URI:      "/src/main.c",
		Language: lang.C,
		Content:  []byte("int x = 1;\nint y=2;  \n"),
	})
	require.NoError(t, err)
	clean, err := a.Analyze(context.Background(), analysis.Document{
		URI:      "/src/ok.c",
		Language: lang.C,
		Content:  []byte("int z = 3;\n"),
	})
	require.NoError(t, err)

	return []workspace.FileResult{
		{Path: "/src/main.c", Result: res, Fixed: 1},
		{Path: "/src/ok.c", Result: clean},
		{Path: "/src/gone.c", Err: errors.New("read /src/gone.c: no such file")},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleResults(t), TextOptions{BasePath: "/src"}))

	want := strings.Join([]string{
		"main.c:2:6: warning: Missing space after '=' [space_after_equals]",
		"main.c:2:6: warning: Missing space before '=' [space_before_equals]",
		"main.c:2:9: information: Trailing whitespace [no_trailing_whitespace]",
		"gone.c: error: read /src/gone.c: no such file",
		"3 problems (0 errors, 2 warnings, 1 information, 0 hints) in 3 files, 1 fixed, 1 failed",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("text report mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResults(t)))

	var rep JSONReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rep))
	require.Len(t, rep.Files, 3)

	main := rep.Files[0]
	assert.Equal(t, "c", main.Language)
	assert.Equal(t, 1, main.Fixed)
	require.Len(t, main.Diagnostics, 3)
	assert.Equal(t, JSONDiagnostic{
		Rule:      "space_after_equals",
		Severity:  "warning",
		Message:   "Missing space after '='",
		Line:      2,
		Column:    6,
		EndLine:   2,
		EndColumn: 7,
		Fixable:   true,
	}, main.Diagnostics[0])

	assert.NotNil(t, rep.Files[1].Diagnostics)
	assert.Empty(t, rep.Files[1].Diagnostics)
	assert.Contains(t, rep.Files[2].Error, "no such file")

	assert.Equal(t, Totals{Files: 3, Failed: 1, Fixed: 1, Diagnostics: 3, Warnings: 2, Information: 1}, rep.Totals)
}

func TestCountAtLeast(t *testing.T) {
	results := sampleResults(t)
	assert.Equal(t, 0, CountAtLeast(results, rules.SeverityError))
	assert.Equal(t, 2, CountAtLeast(results, rules.SeverityWarning))
	assert.Equal(t, 3, CountAtLeast(results, rules.SeverityHint))
}

func TestRuleDocs(t *testing.T) {
	t.Parallel()

	rule, err := rules.Default().Lookup("space_before_brace")
	require.NoError(t, err)

	md := RuleMarkdown(rule, rules.SeverityError, false)
	assert.True(t, strings.HasPrefix(md, "# space_before_brace\n"))
	assert.Contains(t, md, "**Severity:** error (default warning)")
	assert.Contains(t, md, "**State:** disabled")
	assert.Contains(t, md, rule.Documentation())

	var plain bytes.Buffer
	statuses := []RuleStatus{{Rule: rule, Enabled: true, Severity: rule.DefaultSeverity()}}
	require.NoError(t, RenderRuleDocs(&plain, statuses, 80, false))
	assert.Contains(t, plain.String(), "```cpp")

	var styled bytes.Buffer
	require.NoError(t, RenderRuleDocs(&styled, statuses, 60, true))
	assert.Contains(t, styled.String(), "space_before_brace")
}

func TestWriteRuleTable(t *testing.T) {
	t.Parallel()

	reg := rules.Default()
	brace, err := reg.Lookup("space_before_brace")
	require.NoError(t, err)
	comma, err := reg.Lookup("space_after_comma")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRuleTable(&buf, []RuleStatus{
		{Rule: comma, Enabled: true, Severity: rules.SeverityWarning},
		{Rule: brace, Enabled: false, Severity: rules.SeverityWarning},
	}, false))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "space_after_comma   on   warning"))
	assert.True(t, strings.HasPrefix(lines[1], "space_before_brace  off  warning"))
	assert.Contains(t, lines[0], comma.Description())
}
