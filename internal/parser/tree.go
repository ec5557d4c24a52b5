// Package parser builds tree-sitter syntax trees for C and C++ documents and
// retrieves the nodes style rules care about.
package parser

import (
	"context"
	"errors"
	"fmt"

	"stylesense/internal/lang"
	"stylesense/internal/logging"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrParseFailed is returned when tree-sitter produces no tree.
var ErrParseFailed = errors.New("failed to parse source code")

// ParseTree parses src as the given language. A fresh parser is used per
// call because tree-sitter parsers must not be shared across goroutines.
// The caller owns the tree and must Close it.
func ParseTree(ctx context.Context, src []byte, language lang.Language) (*sitter.Tree, error) {
	grammar, err := language.Grammar()
	if err != nil {
		return nil, err
	}

	timer := logging.StartTimer(logging.CategoryParser, "parse "+language.String())
	defer timer.Stop()

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(grammar)

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		logging.Get(logging.CategoryParser).Error("tree-sitter parse failed (%d bytes): %v", len(src), err)
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	if tree == nil {
		return nil, ErrParseFailed
	}

	logging.ParserDebug("parsed %d bytes of %s, errors=%v", len(src), language, tree.RootNode().HasError())
	return tree, nil
}
