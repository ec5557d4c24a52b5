// Package lang maps StyleSense's supported languages onto tree-sitter grammars.
package lang

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

// ErrUnsupportedLanguage is returned for any language StyleSense cannot parse.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language identifies a language StyleSense can check.
type Language int

const (
	// Unknown is the zero value and never parses.
	Unknown Language = iota
	C
	CPP
)

// String returns the canonical (config/CLI) name of the language.
func (l Language) String() string {
	switch l {
	case C:
		return "c"
	case CPP:
		return "cpp"
	default:
		return "unknown"
	}
}

// Grammar returns the tree-sitter grammar for the language.
func (l Language) Grammar() (*sitter.Language, error) {
	switch l {
	case C:
		return c.GetLanguage(), nil
	case CPP:
		return cpp.GetLanguage(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, l)
	}
}

// Supported reports whether the language has a grammar.
func (l Language) Supported() bool {
	return l == C || l == CPP
}

var extensions = map[string]Language{
	".c":   C,
	".h":   C,
	".cc":  CPP,
	".cpp": CPP,
	".cxx": CPP,
	".c++": CPP,
	".hh":  CPP,
	".hpp": CPP,
	".hxx": CPP,
	".ipp": CPP,
	".inl": CPP,
}

// Detect maps a file path onto a language by extension.
func Detect(path string) (Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if l, ok := extensions[ext]; ok {
		return l, nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, filepath.Base(path))
}

// IsSource reports whether the path has an extension StyleSense checks.
func IsSource(path string) bool {
	_, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FromLanguageID maps an LSP languageId onto a language.
func FromLanguageID(id string) (Language, error) {
	switch id {
	case "c":
		return C, nil
	case "cpp", "cuda-cpp", "objective-cpp":
		return CPP, nil
	default:
		return Unknown, fmt.Errorf("%w: languageId %q", ErrUnsupportedLanguage, id)
	}
}

// Parse accepts the names used in config files and on the command line.
func Parse(name string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "c":
		return C, nil
	case "cpp", "c++":
		return CPP, nil
	default:
		return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
}
