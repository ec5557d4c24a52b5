package rules

import (
	"stylesense/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
)

var keywordStatements = set(
	"if_statement",
	"for_statement",
	"for_range_loop",
	"while_statement",
	"do_statement",
	"switch_statement",
	"catch_clause",
)

var controlKeywords = set("if", "for", "while", "switch", "catch")

type spaceAfterKeyword struct{ meta }

func newSpaceAfterKeyword() Rule {
	return &spaceAfterKeyword{meta{
		name:        "space_after_keyword",
		description: "Require space between a control keyword and '('",
		severity:    SeverityWarning,
		doc: "`if`, `for`, `while`, `switch` and `catch` are keywords, " +
			"not function calls; separate them from the opening parenthesis.\n\n" +
			"```cpp\n" +
			"if(x > 3)      // flagged\n" +
			"for(;;)        // flagged\n" +
			"while (true)   // ok\n" +
			"```\n",
	}}
}

func (r *spaceAfterKeyword) Check(ctx *Context) {
	parser.Walk(ctx.Root, func(n *sitter.Node) bool {
		if !keywordStatements[n.Type()] || inBrokenStatement(n) {
			return true
		}
		eachAnonymousChild(n, controlKeywords, func(i int, kw *sitter.Node) {
			_, next := siblings(n, i)
			requireSpaceAfter(ctx, kw, next)
		})
		return true
	})
}
