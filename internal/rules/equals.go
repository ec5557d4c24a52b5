package rules

import (
	"stylesense/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parents whose '=' (or compound assignment) tokens are checked.
var assignmentParents = set(
	"init_declarator",
	"assignment_expression",
	"field_declaration",
	"optional_parameter_declaration",
)

var assignmentOperators = set(
	"=", "+=", "-=", "*=", "/=", "%=", "<<=", ">>=", "&=", "^=", "|=",
)

// eachAssignment calls fn for every assignment token with its neighbours.
func eachAssignment(root *sitter.Node, fn func(prev, tok, next *sitter.Node)) {
	parser.Walk(root, func(n *sitter.Node) bool {
		if !assignmentParents[n.Type()] || inBrokenStatement(n) {
			return true
		}
		eachAnonymousChild(n, assignmentOperators, func(i int, tok *sitter.Node) {
			prev, next := siblings(n, i)
			fn(prev, tok, next)
		})
		return true
	})
}

type spaceBeforeEquals struct{ meta }

func newSpaceBeforeEquals() Rule {
	return &spaceBeforeEquals{meta{
		name:        "space_before_equals",
		description: "Require space before equals sign",
		severity:    SeverityWarning,
		doc: "Assignments and initializers need whitespace before `=` " +
			"and compound assignment operators.\n\n" +
			"```cpp\n" +
			"int x=5;   // flagged\n" +
			"int x = 5; // ok\n" +
			"total+= n; // flagged\n" +
			"```\n",
	}}
}

func (r *spaceBeforeEquals) Check(ctx *Context) {
	eachAssignment(ctx.Root, func(prev, tok, _ *sitter.Node) {
		requireSpaceBefore(ctx, prev, tok)
	})
}

type spaceAfterEquals struct{ meta }

func newSpaceAfterEquals() Rule {
	return &spaceAfterEquals{meta{
		name:        "space_after_equals",
		description: "Require space after equals sign",
		severity:    SeverityWarning,
		doc: "Assignments and initializers need whitespace after `=` " +
			"and compound assignment operators.\n\n" +
			"```cpp\n" +
			"int x =5;                // flagged\n" +
			"std::vector<int> v={1};  // flagged (and before)\n" +
			"int x = 5;               // ok\n" +
			"```\n",
	}}
}

func (r *spaceAfterEquals) Check(ctx *Context) {
	eachAssignment(ctx.Root, func(_, tok, next *sitter.Node) {
		requireSpaceAfter(ctx, tok, next)
	})
}
