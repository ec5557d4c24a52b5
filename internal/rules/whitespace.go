package rules

import (
	"stylesense/internal/parser"
	"stylesense/internal/text"

	sitter "github.com/smacker/go-tree-sitter"
)

// Literal kinds whose contents must never be touched.
var literalKinds = set("string_literal", "raw_string_literal", "char_literal", "concatenated_string")

type noTrailingWhitespace struct{ meta }

func newNoTrailingWhitespace() Rule {
	return &noTrailingWhitespace{meta{
		name:        "no_trailing_whitespace",
		description: "Disallow whitespace at the end of lines",
		severity:    SeverityInformation,
		doc: "Lines must not end in spaces or tabs, including otherwise " +
			"blank lines. Whitespace inside multi-line string literals is left " +
			"alone.\n",
	}}
}

func (r *noTrailingWhitespace) Check(ctx *Context) {
	var literals [][2]int
	parser.Walk(ctx.Root, func(n *sitter.Node) bool {
		if literalKinds[n.Type()] {
			literals = append(literals, [2]int{int(n.StartByte()), int(n.EndByte())})
			return false
		}
		return true
	})

	for _, span := range text.TrailingWhitespace(ctx.Source) {
		if insideAny(span, literals) {
			continue
		}
		ctx.Report(span[0], span[1], "Trailing whitespace", text.Delete(span[0], span[1]))
	}
}

func insideAny(span [2]int, ranges [][2]int) bool {
	for _, r := range ranges {
		if span[0] >= r[0] && span[1] <= r[1] {
			return true
		}
	}
	return false
}
