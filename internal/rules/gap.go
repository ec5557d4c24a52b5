package rules

import (
	"fmt"
	"strings"

	"stylesense/internal/parser"
	"stylesense/internal/text"

	sitter "github.com/smacker/go-tree-sitter"
)

type gapKind int

const (
	gapEmpty   gapKind = iota // tokens touch
	gapSpaces                 // spaces/tabs only
	gapNewline                // whitespace including a line break
	gapOther                  // comment or anything else; never judged
)

func classifyGap(g []byte) gapKind {
	if len(g) == 0 {
		return gapEmpty
	}
	kind := gapSpaces
	for _, b := range g {
		switch {
		case b == '\n' || b == '\r':
			kind = gapNewline
		case parser.IsSpace(b):
		default:
			return gapOther
		}
	}
	return kind
}

// usable reports whether a node is a real token we can measure against.
func usable(n *sitter.Node) bool {
	return n != nil && !n.IsNull() && !n.IsMissing() && n.Type() != "ERROR"
}

// statementBoundary reports whether a node type ends the upward search in
// inBrokenStatement.
func statementBoundary(kind string) bool {
	return strings.HasSuffix(kind, "_statement") ||
		strings.HasSuffix(kind, "declaration") ||
		kind == "function_definition"
}

// inBrokenStatement reports whether n, or anything between n and its
// enclosing statement, contains a syntax error. Fixes inside such code would
// fight the parser's recovery.
func inBrokenStatement(n *sitter.Node) bool {
	for p := n; p != nil && !p.IsNull(); p = p.Parent() {
		if p.Type() == "translation_unit" {
			return false
		}
		if parser.Broken(p) {
			return true
		}
		if statementBoundary(p.Type()) {
			return false
		}
	}
	return false
}

// requireSpaceBefore reports tok when nothing separates it from prev.
func requireSpaceBefore(ctx *Context, prev, tok *sitter.Node) {
	if !usable(prev) || !usable(tok) {
		return
	}
	if classifyGap(parser.Gap(ctx.Source, prev, tok)) != gapEmpty {
		return
	}
	start, end := int(tok.StartByte()), int(tok.EndByte())
	ctx.Report(start, end,
		fmt.Sprintf("Missing space before '%s'", tok.Content(ctx.Source)),
		text.Insert(start, " "))
}

// requireSpaceAfter reports tok when nothing separates it from next.
func requireSpaceAfter(ctx *Context, tok, next *sitter.Node) {
	if !usable(tok) || !usable(next) {
		return
	}
	if classifyGap(parser.Gap(ctx.Source, tok, next)) != gapEmpty {
		return
	}
	start, end := int(tok.StartByte()), int(tok.EndByte())
	ctx.Report(start, end,
		fmt.Sprintf("Missing space after '%s'", tok.Content(ctx.Source)),
		text.Insert(end, " "))
}

// siblings returns the children of n before and after index i.
func siblings(n *sitter.Node, i int) (prev, next *sitter.Node) {
	if i > 0 {
		prev = n.Child(i - 1)
	}
	if i+1 < int(n.ChildCount()) {
		next = n.Child(i + 1)
	}
	return prev, next
}

// eachAnonymousChild calls fn for every unnamed child token of n whose type
// is in types.
func eachAnonymousChild(n *sitter.Node, types map[string]bool, fn func(i int, tok *sitter.Node)) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil || child.IsNamed() || !types[child.Type()] {
			continue
		}
		fn(i, child)
	}
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
