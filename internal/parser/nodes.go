package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Walk visits root and its descendants in document order. Returning false
// from fn skips the node's children.
func Walk(root *sitter.Node, fn func(n *sitter.Node) bool) {
	if root == nil || root.IsNull() {
		return
	}
	if !fn(root) {
		return
	}
	count := int(root.ChildCount())
	for i := 0; i < count; i++ {
		Walk(root.Child(i), fn)
	}
}

// RetrieveNodesByKind returns every node of the requested kind at or below
// root, in document order.
func RetrieveNodesByKind(root *sitter.Node, kind string) []*sitter.Node {
	var nodes []*sitter.Node
	Walk(root, func(n *sitter.Node) bool {
		if n.Type() == kind {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// FunctionDefinitions retrieves function definitions.
func FunctionDefinitions(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "function_definition")
}

// Variables retrieves declarations, including for-loop initializers.
func Variables(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "declaration")
}

// IfStatements retrieves if statements.
func IfStatements(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "if_statement")
}

// WhileStatements retrieves while loops.
func WhileStatements(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "while_statement")
}

// ForStatements retrieves for loops.
func ForStatements(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "for_statement")
}

// AssignmentExpressions retrieves assignment expressions.
func AssignmentExpressions(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "assignment_expression")
}

// ReturnStatements retrieves return statements.
func ReturnStatements(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "return_statement")
}

// BinaryExpressions retrieves binary expressions.
func BinaryExpressions(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "binary_expression")
}

// UnaryExpressions retrieves unary expressions.
func UnaryExpressions(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "unary_expression")
}

// FunctionCalls retrieves call expressions.
func FunctionCalls(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "call_expression")
}

// StructDefinitions retrieves struct specifiers.
func StructDefinitions(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "struct_specifier")
}

// EnumDefinitions retrieves enum specifiers.
func EnumDefinitions(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "enum_specifier")
}

// Comments retrieves comments.
func Comments(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "comment")
}

// PreprocessorDefines retrieves #define directives.
func PreprocessorDefines(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "preproc_def")
}

// PreprocessorIncludes retrieves #include directives.
func PreprocessorIncludes(root *sitter.Node) []*sitter.Node {
	return RetrieveNodesByKind(root, "preproc_include")
}

// Broken reports whether a node is, or contains, a syntax error.
func Broken(n *sitter.Node) bool {
	return n == nil || n.IsNull() || n.IsMissing() || n.Type() == "ERROR" || n.HasError()
}

// sameNode compares nodes by span and type; tree-sitter hands out fresh
// wrappers on every Child call so pointer identity is useless.
func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// ChildIndex returns the index of child among parent's children, or -1.
func ChildIndex(parent, child *sitter.Node) int {
	count := int(parent.ChildCount())
	for i := 0; i < count; i++ {
		if sameNode(parent.Child(i), child) {
			return i
		}
	}
	return -1
}

// TokenBefore returns the sibling immediately preceding child, or nil.
func TokenBefore(parent, child *sitter.Node) *sitter.Node {
	idx := ChildIndex(parent, child)
	if idx <= 0 {
		return nil
	}
	return parent.Child(idx - 1)
}

// Body returns the statement body of a control statement or function
// definition. if_statement names it "consequence"; everything else "body".
func Body(n *sitter.Node) *sitter.Node {
	if body := n.ChildByFieldName("body"); body != nil {
		return body
	}
	if body := n.ChildByFieldName("consequence"); body != nil {
		return body
	}
	return nil
}

// Gap returns the source text between two adjacent nodes.
func Gap(src []byte, before, after *sitter.Node) []byte {
	start, end := before.EndByte(), after.StartByte()
	if end < start || int(end) > len(src) {
		return nil
	}
	return src[start:end]
}

// SpaceBetweenConditionAndBody returns how many bytes separate a control
// statement's condition from its body. ok is false when the statement has
// no body or the gap is not pure whitespace.
func SpaceBetweenConditionAndBody(n *sitter.Node, src []byte) (int, bool) {
	body := Body(n)
	if body == nil {
		return 0, false
	}
	prev := TokenBefore(n, body)
	if prev == nil {
		return 0, false
	}
	gap := Gap(src, prev, body)
	for _, b := range gap {
		if !IsSpace(b) {
			return 0, false
		}
	}
	return len(gap), true
}

// IsSpace reports whether b is ASCII whitespace.
func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
