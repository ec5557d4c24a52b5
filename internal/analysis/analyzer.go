// Package analysis runs the configured style rules against documents.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stylesense/internal/config"
	"stylesense/internal/lang"
	"stylesense/internal/logging"
	"stylesense/internal/parser"
	"stylesense/internal/rules"
	"stylesense/internal/text"

	"github.com/google/uuid"
)

// maxFixPasses bounds Fix; fixes that conflict in one pass get another try.
const maxFixPasses = 4

// Document is one unit of analysis.
type Document struct {
	// URI is a file:// URI or a plain path; it is only carried through.
	URI      string
	Language lang.Language
	Content  []byte
}

// Result is the outcome of analyzing one document.
type Result struct {
	RunID           string
	URI             string
	Language        lang.Language
	Diagnostics     []rules.Diagnostic
	Lines           *text.LineIndex
	HasSyntaxErrors bool
	// Skipped is set when the document exceeded the size limit.
	Skipped  bool
	Duration time.Duration
}

// Fixes returns every edit carried by the result's diagnostics.
func (r *Result) Fixes() []text.Edit {
	var edits []text.Edit
	for _, d := range r.Diagnostics {
		edits = append(edits, d.Fix...)
	}
	return edits
}

// ActiveRule is an enabled rule with its effective severity.
type ActiveRule struct {
	Rule     rules.Rule
	Severity rules.Severity
}

// Analyzer holds the enabled rules. It is safe for concurrent use.
type Analyzer struct {
	registry *rules.Registry
	active   []ActiveRule
	maxBytes int64
}

// New builds an analyzer from config. Config entries naming rules the
// registry does not know are rejected.
func New(cfg *config.Config, registry *rules.Registry) (*Analyzer, error) {
	for name := range cfg.Rules {
		if _, err := registry.Lookup(name); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	var active []ActiveRule
	for _, rule := range registry.All() {
		if !cfg.RuleEnabled(rule.Name(), rule.DefaultEnabled()) {
			logging.AnalysisDebug("rule %s disabled by config", rule.Name())
			continue
		}
		severity := rule.DefaultSeverity()
		if override := cfg.Rules[rule.Name()].Severity; override != "" {
			s, err := rules.ParseSeverity(override)
			if err != nil {
				return nil, fmt.Errorf("config: rule %s: %w", rule.Name(), err)
			}
			severity = s
		}
		active = append(active, ActiveRule{Rule: rule, Severity: severity})
	}

	logging.AnalysisDebug("analyzer ready with %d/%d rules", len(active), registry.Len())
	return &Analyzer{
		registry: registry,
		active:   active,
		maxBytes: cfg.Workspace.MaxFileBytes,
	}, nil
}

// Rules returns the enabled rules in name order.
func (a *Analyzer) Rules() []ActiveRule {
	out := make([]ActiveRule, len(a.active))
	copy(out, a.active)
	return out
}

// Registry returns the registry the analyzer was built from.
func (a *Analyzer) Registry() *rules.Registry {
	return a.registry
}

// Analyze parses doc and runs every enabled rule.
func (a *Analyzer) Analyze(ctx context.Context, doc Document) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:    uuid.NewString(),
		URI:      doc.URI,
		Language: doc.Language,
		Lines:    text.NewLineIndex(doc.Content),
	}
	log := logging.Get(logging.CategoryAnalysis).With("run", res.RunID, "uri", doc.URI)

	if a.maxBytes > 0 && int64(len(doc.Content)) > a.maxBytes {
		log.Info("skipping %d-byte document (limit %d)", len(doc.Content), a.maxBytes)
		res.Skipped = true
		res.Duration = time.Since(start)
		return res, nil
	}

	tree, err := parser.ParseTree(ctx, doc.Content, doc.Language)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", doc.URI, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	res.HasSyntaxErrors = root.HasError()

	rc := rules.NewContext(doc.Content, root, doc.Language)
	for _, ar := range a.active {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Diagnostics = append(res.Diagnostics, rc.Run(ar.Rule, ar.Severity)...)
	}

	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		di, dj := res.Diagnostics[i], res.Diagnostics[j]
		if di.Start != dj.Start {
			return di.Start < dj.Start
		}
		if di.Rule != dj.Rule {
			return di.Rule < dj.Rule
		}
		return di.End < dj.End
	})

	res.Duration = time.Since(start)
	log.Debug("%d diagnostics in %v (syntax errors: %v)", len(res.Diagnostics), res.Duration, res.HasSyntaxErrors)
	return res, nil
}

// Fix applies every available fix and returns the new content with the
// number of edits applied. Edits that conflict are retried on a fresh
// analysis of the partially fixed text.
func (a *Analyzer) Fix(ctx context.Context, doc Document) ([]byte, int, error) {
	content := doc.Content
	total := 0
	for pass := 0; pass < maxFixPasses; pass++ {
		res, err := a.Analyze(ctx, Document{URI: doc.URI, Language: doc.Language, Content: content})
		if err != nil {
			return nil, total, err
		}
		next, applied := text.ApplyEdits(content, res.Fixes())
		if applied == 0 {
			break
		}
		content = next
		total += applied
	}
	return content, total, nil
}
