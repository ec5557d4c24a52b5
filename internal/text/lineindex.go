// Package text converts between byte offsets and LSP positions and applies
// byte-range edits to documents.
package text

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is an LSP position: zero-based line and UTF-16 code unit column.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is an LSP range.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// LineIndex maps byte offsets of one document onto positions.
type LineIndex struct {
	src    []byte
	starts []int // byte offset of each line start
}

// NewLineIndex indexes src. The slice is retained, not copied.
func NewLineIndex(src []byte) *LineIndex {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{src: src, starts: starts}
}

// LineCount returns the number of lines, counting a final unterminated one.
func (li *LineIndex) LineCount() int {
	return len(li.starts)
}

// LineStart returns the byte offset at which line begins.
func (li *LineIndex) LineStart(line int) int {
	if line < 0 {
		return 0
	}
	if line >= len(li.starts) {
		return len(li.src)
	}
	return li.starts[line]
}

// LineEnd returns the offset of the line's terminator (or EOF), excluding
// any '\r' before '\n'.
func (li *LineIndex) LineEnd(line int) int {
	end := len(li.src)
	if line+1 < len(li.starts) {
		end = li.starts[line+1] - 1
	}
	if end > li.LineStart(line) && li.src[end-1] == '\r' {
		end--
	}
	return end
}

// Position converts a byte offset into an LSP position. Offsets are clamped
// to the document.
func (li *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(li.src) {
		offset = len(li.src)
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{Line: line, Character: utf16Len(li.src[li.starts[line]:offset])}
}

// Range converts a byte span into an LSP range.
func (li *LineIndex) Range(start, end int) Range {
	return Range{Start: li.Position(start), End: li.Position(end)}
}

// Offset converts an LSP position into a byte offset. Characters past the
// end of a line clamp to the line end; lines past EOF clamp to EOF.
func (li *LineIndex) Offset(p Position) int {
	if p.Line < 0 {
		return 0
	}
	if p.Line >= len(li.starts) {
		return len(li.src)
	}
	start := li.starts[p.Line]
	end := li.LineEnd(p.Line)
	units := 0
	for i := start; i < end; {
		if units >= p.Character {
			return i
		}
		r, size := utf8.DecodeRune(li.src[i:])
		units += utf16.RuneLen(r)
		if units > p.Character {
			// Inside a surrogate pair; snap to the rune start.
			return i
		}
		i += size
	}
	return end
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			n++
		} else {
			n += utf16.RuneLen(r)
		}
		b = b[size:]
	}
	return n
}
