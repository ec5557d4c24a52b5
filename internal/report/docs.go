package report

import (
	"fmt"
	"io"
	"strings"

	"stylesense/internal/rules"

	"github.com/charmbracelet/glamour"
)

// RuleStatus is a rule as configured for a workspace.
type RuleStatus struct {
	Rule     rules.Rule
	Enabled  bool
	Severity rules.Severity
}

// RuleMarkdown returns the documentation page for one rule.
func RuleMarkdown(rule rules.Rule, severity rules.Severity, enabled bool) string {
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", rule.Name())
	fmt.Fprintf(&sb, "%s.\n\n", strings.TrimSuffix(rule.Description(), "."))
	fmt.Fprintf(&sb, "- **Severity:** %s (default %s)\n", severity, rule.DefaultSeverity())
	fmt.Fprintf(&sb, "- **State:** %s\n\n", state)
	sb.WriteString(rule.Documentation())
	return sb.String()
}

// RenderMarkdown renders markdown for the terminal. Plain markdown is
// returned when styled is false or rendering fails.
func RenderMarkdown(md string, width int, styled bool) string {
	if !styled {
		return md
	}
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// RenderRuleDocs writes the documentation of each rule.
func RenderRuleDocs(w io.Writer, statuses []RuleStatus, width int, styled bool) error {
	var sb strings.Builder
	for i, st := range statuses {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString(RuleMarkdown(st.Rule, st.Severity, st.Enabled))
	}
	_, err := io.WriteString(w, RenderMarkdown(sb.String(), width, styled))
	return err
}

// WriteRuleTable lists rules one per line with state and severity.
func WriteRuleTable(w io.Writer, statuses []RuleStatus, color bool) error {
	st := newStyles(color)
	nameWidth := 0
	for _, s := range statuses {
		if n := len(s.Rule.Name()); n > nameWidth {
			nameWidth = n
		}
	}
	for _, s := range statuses {
		state := "on "
		if !s.Enabled {
			state = "off"
		}
		sev := fmt.Sprintf("%-11s", s.Severity.String())
		if s.Enabled {
			sev = st.paint(st.severity[s.Severity], sev)
		}
		if _, err := fmt.Fprintf(w, "%-*s  %s  %s  %s\n",
			nameWidth, s.Rule.Name(), state, sev, st.paint(st.rule, s.Rule.Description())); err != nil {
			return err
		}
	}
	return nil
}
