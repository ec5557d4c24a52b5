package rules

import (
	"stylesense/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
)

var commaLists = set(
	"initializer_list",
	"argument_list",
	"parameter_list",
	"template_argument_list",
	"template_parameter_list",
	"enumerator_list",
	"field_initializer_list",
	"declaration",
	"field_declaration",
	"comma_expression",
)

var closers = set(")", "}", ">", "]")

type spaceAfterComma struct{ meta }

func newSpaceAfterComma() Rule {
	return &spaceAfterComma{meta{
		name:        "space_after_comma",
		description: "Require space after commas in lists",
		severity:    SeverityWarning,
		doc: "Commas in initializer, argument, parameter and template lists " +
			"must be followed by whitespace. A trailing comma before the " +
			"closing delimiter is fine.\n\n" +
			"```cpp\n" +
			"std::vector<int> vec = {1,2,3};  // flagged twice\n" +
			"f(a, b);                         // ok\n" +
			"enum { A, B, };                  // ok\n" +
			"```\n",
	}}
}

func (r *spaceAfterComma) Check(ctx *Context) {
	commas := set(",")
	parser.Walk(ctx.Root, func(n *sitter.Node) bool {
		if !commaLists[n.Type()] || inBrokenStatement(n) {
			return true
		}
		eachAnonymousChild(n, commas, func(i int, comma *sitter.Node) {
			_, next := siblings(n, i)
			if next == nil || closers[next.Type()] {
				return
			}
			requireSpaceAfter(ctx, comma, next)
		})
		return true
	})
}
