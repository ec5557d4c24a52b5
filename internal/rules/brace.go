package rules

import (
	"stylesense/internal/parser"
	"stylesense/internal/text"

	sitter "github.com/smacker/go-tree-sitter"
)

var bracedStatements = set(
	"function_definition",
	"lambda_expression",
	"if_statement",
	"else_clause",
	"for_statement",
	"for_range_loop",
	"while_statement",
	"do_statement",
	"switch_statement",
	"catch_clause",
	"try_statement",
)

type spaceBeforeBrace struct{ meta }

func newSpaceBeforeBrace() Rule {
	return &spaceBeforeBrace{meta{
		name:        "space_before_brace",
		description: "Require exactly one space before an opening body brace",
		severity:    SeverityWarning,
		doc: "Function and control-statement bodies that open on the same " +
			"line need exactly one space before `{`. Putting the brace on its " +
			"own line is accepted.\n\n" +
			"```cpp\n" +
			"if (x > 3){      // flagged: missing space\n" +
			"while (x)   {    // flagged: more than one space\n" +
			"int main() {     // ok\n" +
			"for (;;)\n" +
			"{                // ok\n" +
			"```\n",
	}}
}

type bracePair struct {
	prev, body *sitter.Node
}

// bracedBodies returns the compound bodies of n with the token preceding
// each. Grammars without an else_clause node hang the else body directly off
// the if_statement as "alternative".
func bracedBodies(n *sitter.Node) []bracePair {
	var pairs []bracePair
	add := func(body *sitter.Node) {
		if body == nil || body.Type() != "compound_statement" {
			return
		}
		pairs = append(pairs, bracePair{prev: parser.TokenBefore(n, body), body: body})
	}

	switch n.Type() {
	case "else_clause":
		if count := int(n.ChildCount()); count >= 2 {
			add(n.Child(count - 1))
		}
	case "if_statement":
		add(parser.Body(n))
		add(n.ChildByFieldName("alternative"))
	default:
		add(parser.Body(n))
	}
	return pairs
}

func (r *spaceBeforeBrace) Check(ctx *Context) {
	parser.Walk(ctx.Root, func(n *sitter.Node) bool {
		if !bracedStatements[n.Type()] || inBrokenStatement(n) {
			return true
		}
		for _, p := range bracedBodies(n) {
			checkBrace(ctx, p.prev, p.body)
		}
		return true
	})
}

func checkBrace(ctx *Context, prev, body *sitter.Node) {
	if !usable(prev) || !usable(body) {
		return
	}
	gap := parser.Gap(ctx.Source, prev, body)
	start := int(body.StartByte())
	switch classifyGap(gap) {
	case gapEmpty:
		ctx.Report(start, start+1, "Missing space before '{'", text.Insert(start, " "))
	case gapSpaces:
		if string(gap) != " " {
			ctx.Report(start, start+1, "Expected a single space before '{'",
				text.Replace(int(prev.EndByte()), start, " "))
		}
	}
}
