// Package rules defines StyleSense's style rules and the registry that holds
// them. Rules inspect a tree-sitter syntax tree plus the raw source bytes and
// report diagnostics as byte ranges, optionally with a fix.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"stylesense/internal/lang"
	"stylesense/internal/text"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrUnknownRule is returned when looking up a rule that is not registered.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrDuplicateRule is returned when registering a name twice.
	ErrDuplicateRule = errors.New("duplicate rule")
	// ErrInvalidSeverity is returned for unparseable severity names.
	ErrInvalidSeverity = errors.New("invalid severity")
)

// Severity follows LSP severity levels.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
	SeverityHint        Severity = 4
)

// String returns the lower-case name used in config and reports.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	case SeverityHint:
		return "hint"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// AtLeast reports whether s is as severe as other or more (lower is worse).
func (s Severity) AtLeast(other Severity) bool {
	return s <= other
}

// ParseSeverity parses a severity name.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "information", "info":
		return SeverityInformation, nil
	case "hint":
		return SeverityHint, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
	}
}

// Diagnostic is one style violation. Start and End are byte offsets.
type Diagnostic struct {
	Rule     string
	Message  string
	Severity Severity
	Start    int
	End      int
	Fix      []text.Edit
}

// Fixable reports whether the diagnostic carries a fix.
func (d Diagnostic) Fixable() bool {
	return len(d.Fix) > 0
}

// Context is what a rule sees when it runs.
type Context struct {
	Source   []byte
	Root     *sitter.Node
	Language lang.Language
	// Severity is the effective severity for the running rule.
	Severity Severity

	rule  string
	diags []Diagnostic
}

// NewContext prepares a context for running rules over one document.
func NewContext(src []byte, root *sitter.Node, language lang.Language) *Context {
	return &Context{Source: src, Root: root, Language: language}
}

// Run executes rule with severity and returns its diagnostics.
func (c *Context) Run(rule Rule, severity Severity) []Diagnostic {
	c.rule = rule.Name()
	c.Severity = severity
	c.diags = nil
	rule.Check(c)
	out := c.diags
	c.diags = nil
	return out
}

// Report records a diagnostic for the running rule.
func (c *Context) Report(start, end int, message string, fix ...text.Edit) {
	c.diags = append(c.diags, Diagnostic{
		Rule:     c.rule,
		Message:  message,
		Severity: c.Severity,
		Start:    start,
		End:      end,
		Fix:      fix,
	})
}

// Rule is a single style check.
type Rule interface {
	Name() string
	Description() string
	// Documentation is markdown shown on hover and by `rules explain`.
	Documentation() string
	DefaultSeverity() Severity
	DefaultEnabled() bool
	// Check reports violations through ctx.Report.
	Check(ctx *Context)
}

// meta carries the descriptive half of a rule.
type meta struct {
	name        string
	description string
	doc         string
	severity    Severity
	disabled    bool
}

func (m meta) Name() string              { return m.name }
func (m meta) Description() string       { return m.description }
func (m meta) Documentation() string     { return m.doc }
func (m meta) DefaultSeverity() Severity { return m.severity }
func (m meta) DefaultEnabled() bool      { return !m.disabled }
