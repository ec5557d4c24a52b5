package rules

import (
	"stylesense/internal/parser"

	sitter "github.com/smacker/go-tree-sitter"
)

type spaceAroundBinaryOperator struct{ meta }

func newSpaceAroundBinaryOperator() Rule {
	return &spaceAroundBinaryOperator{meta{
		name:        "space_around_binary_operator",
		description: "Require spaces around binary operators",
		severity:    SeverityWarning,
		doc: "Binary operators such as `>`, `+`, `&&` and stream `<<` " +
			"must be surrounded by whitespace. Line breaks count as whitespace.\n\n" +
			"```cpp\n" +
			"if (x>3)               // flagged twice\n" +
			"std::cout<<\"hi\";       // flagged twice\n" +
			"if (x > 3)             // ok\n" +
			"```\n",
	}}
}

// binaryOperator finds the operator token of a binary_expression.
func binaryOperator(n *sitter.Node) (left, op, right *sitter.Node) {
	left = n.ChildByFieldName("left")
	right = n.ChildByFieldName("right")
	op = n.ChildByFieldName("operator")
	if op == nil && left != nil {
		if idx := parser.ChildIndex(n, left); idx >= 0 && idx+1 < int(n.ChildCount()) {
			op = n.Child(idx + 1)
		}
	}
	return left, op, right
}

func (r *spaceAroundBinaryOperator) Check(ctx *Context) {
	for _, n := range parser.BinaryExpressions(ctx.Root) {
		if inBrokenStatement(n) {
			continue
		}
		left, op, right := binaryOperator(n)
		if op == nil || op.IsNamed() {
			continue
		}
		requireSpaceBefore(ctx, left, op)
		requireSpaceAfter(ctx, op, right)
	}
}
