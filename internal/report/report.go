// Package report renders check results for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"stylesense/internal/rules"
	"stylesense/internal/workspace"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	errorColor   = lipgloss.Color("#e53935")
	warningColor = lipgloss.Color("#FFC107")
	infoColor    = lipgloss.Color("#2196F3")
	hintColor    = lipgloss.Color("#8BC34A")
	mutedColor   = lipgloss.Color("#6b7280")
)

// TextOptions controls WriteText.
type TextOptions struct {
	Color bool
	// BasePath is trimmed from file paths when set.
	BasePath string
}

type styles struct {
	color    bool
	path     lipgloss.Style
	rule     lipgloss.Style
	summary  lipgloss.Style
	severity map[rules.Severity]lipgloss.Style
}

func newStyles(color bool) styles {
	return styles{
		color:   color,
		path:    lipgloss.NewStyle().Bold(true),
		rule:    lipgloss.NewStyle().Foreground(mutedColor),
		summary: lipgloss.NewStyle().Bold(true),
		severity: map[rules.Severity]lipgloss.Style{
			rules.SeverityError:       lipgloss.NewStyle().Foreground(errorColor).Bold(true),
			rules.SeverityWarning:     lipgloss.NewStyle().Foreground(warningColor),
			rules.SeverityInformation: lipgloss.NewStyle().Foreground(infoColor),
			rules.SeverityHint:        lipgloss.NewStyle().Foreground(hintColor),
		},
	}
}

func (s styles) paint(st lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return st.Render(text)
}

// Totals counts diagnostics by severity across a batch.
type Totals struct {
	Files       int `json:"files"`
	Failed      int `json:"failed"`
	Skipped     int `json:"skipped"`
	Fixed       int `json:"fixed"`
	Diagnostics int `json:"diagnostics"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
	Information int `json:"information"`
	Hints       int `json:"hints"`
}

// Count totals results.
func Count(results []workspace.FileResult) Totals {
	t := Totals{Files: len(results)}
	for _, r := range results {
		t.Fixed += r.Fixed
		if r.Err != nil {
			t.Failed++
			continue
		}
		if r.Result == nil {
			continue
		}
		if r.Result.Skipped {
			t.Skipped++
		}
		for _, d := range r.Result.Diagnostics {
			t.Diagnostics++
			switch d.Severity {
			case rules.SeverityError:
				t.Errors++
			case rules.SeverityWarning:
				t.Warnings++
			case rules.SeverityInformation:
				t.Information++
			default:
				t.Hints++
			}
		}
	}
	return t
}

// CountAtLeast returns how many diagnostics are at least as severe as min.
func CountAtLeast(results []workspace.FileResult, min rules.Severity) int {
	n := 0
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		for _, d := range r.Result.Diagnostics {
			if d.Severity.AtLeast(min) {
				n++
			}
		}
	}
	return n
}

func displayPath(path, base string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// WriteText prints one line per diagnostic followed by a summary:
//
//	path:line:col: severity: message [rule]
func WriteText(w io.Writer, results []workspace.FileResult, opts TextOptions) error {
	st := newStyles(opts.Color)
	for _, r := range results {
		path := st.paint(st.path, displayPath(r.Path, opts.BasePath))
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: %s: %v\n", path,
				st.paint(st.severity[rules.SeverityError], "error"), r.Err); err != nil {
				return err
			}
			continue
		}
		if r.Result == nil {
			continue
		}
		if r.Result.Skipped {
			if _, err := fmt.Fprintf(w, "%s: skipped (file too large)\n", path); err != nil {
				return err
			}
			continue
		}
		for _, d := range r.Result.Diagnostics {
			pos := r.Result.Lines.Position(d.Start)
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s %s\n",
				path, pos.Line+1, pos.Character+1,
				st.paint(st.severity[d.Severity], d.Severity.String()),
				d.Message,
				st.paint(st.rule, "["+d.Rule+"]"),
			); err != nil {
				return err
			}
		}
	}

	t := Count(results)
	summary := fmt.Sprintf("%d %s (%d errors, %d warnings, %d information, %d hints) in %d %s",
		t.Diagnostics, plural(t.Diagnostics, "problem", "problems"),
		t.Errors, t.Warnings, t.Information, t.Hints,
		t.Files, plural(t.Files, "file", "files"))
	if t.Fixed > 0 {
		summary += fmt.Sprintf(", %d fixed", t.Fixed)
	}
	if t.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", t.Failed)
	}
	_, err := fmt.Fprintln(w, st.paint(st.summary, summary))
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// JSONReport is the machine-readable output of a check.
type JSONReport struct {
	Files  []JSONFile `json:"files"`
	Totals Totals     `json:"totals"`
}

// JSONFile is one checked file.
type JSONFile struct {
	Path        string           `json:"path"`
	Language    string           `json:"language,omitempty"`
	Skipped     bool             `json:"skipped,omitempty"`
	Fixed       int              `json:"fixed,omitempty"`
	Error       string           `json:"error,omitempty"`
	Diagnostics []JSONDiagnostic `json:"diagnostics"`
}

// JSONDiagnostic uses one-based lines and columns.
type JSONDiagnostic struct {
	Rule      string `json:"rule"`
	Severity  string `json:"severity"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
	Fixable   bool   `json:"fixable"`
}

// BuildJSON converts results into the JSON report structure.
func BuildJSON(results []workspace.FileResult) JSONReport {
	rep := JSONReport{Files: make([]JSONFile, 0, len(results)), Totals: Count(results)}
	for _, r := range results {
		f := JSONFile{Path: r.Path, Fixed: r.Fixed, Diagnostics: []JSONDiagnostic{}}
		if r.Err != nil {
			f.Error = r.Err.Error()
		}
		if r.Result != nil {
			f.Language = r.Result.Language.String()
			f.Skipped = r.Result.Skipped
			for _, d := range r.Result.Diagnostics {
				rng := r.Result.Lines.Range(d.Start, d.End)
				f.Diagnostics = append(f.Diagnostics, JSONDiagnostic{
					Rule:      d.Rule,
					Severity:  d.Severity.String(),
					Message:   d.Message,
					Line:      rng.Start.Line + 1,
					Column:    rng.Start.Character + 1,
					EndLine:   rng.End.Line + 1,
					EndColumn: rng.End.Character + 1,
					Fixable:   d.Fixable(),
				})
			}
		}
		rep.Files = append(rep.Files, f)
	}
	return rep
}

// WriteJSON writes the JSON report, indented.
func WriteJSON(w io.Writer, results []workspace.FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildJSON(results))
}
