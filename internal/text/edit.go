package text

import (
	"sort"
)

// Edit replaces src[Start:End] with NewText. Start == End is an insertion.
type Edit struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	NewText string `json:"newText"`
}

// Insert returns an edit inserting s at offset.
func Insert(offset int, s string) Edit {
	return Edit{Start: offset, End: offset, NewText: s}
}

// Replace returns an edit replacing [start, end) with s.
func Replace(start, end int, s string) Edit {
	return Edit{Start: start, End: end, NewText: s}
}

// Delete returns an edit removing [start, end).
func Delete(start, end int) Edit {
	return Edit{Start: start, End: end}
}

// overlaps treats two insertions at the same offset as conflicting, and an
// insertion touching a replacement boundary as compatible.
func overlaps(a, b Edit) bool {
	if a.Start == a.End && b.Start == b.End {
		return a.Start == b.Start
	}
	return a.Start < b.End && b.Start < a.End
}

// Normalize sorts edits by start offset and drops invalid edits and edits
// that conflict with one already accepted. The earlier edit wins.
func Normalize(srcLen int, edits []Edit) []Edit {
	sorted := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Start < 0 || e.End < e.Start || e.End > srcLen {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	accepted := sorted[:0]
	for _, e := range sorted {
		conflict := false
		for _, a := range accepted {
			if overlaps(a, e) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, e)
		}
	}
	return accepted
}

// ApplyEdits applies the non-conflicting subset of edits to src and returns
// the new content and the number of edits applied.
func ApplyEdits(src []byte, edits []Edit) ([]byte, int) {
	accepted := Normalize(len(src), edits)
	if len(accepted) == 0 {
		out := make([]byte, len(src))
		copy(out, src)
		return out, 0
	}

	out := make([]byte, 0, len(src)+len(accepted))
	last := 0
	for _, e := range accepted {
		out = append(out, src[last:e.Start]...)
		out = append(out, e.NewText...)
		last = e.End
	}
	out = append(out, src[last:]...)
	return out, len(accepted)
}

// TrailingWhitespace returns the [start, end) span of trailing spaces and
// tabs on every line that has any.
func TrailingWhitespace(src []byte) [][2]int {
	var spans [][2]int
	li := NewLineIndex(src)
	for line := 0; line < li.LineCount(); line++ {
		start, end := li.LineStart(line), li.LineEnd(line)
		ws := end
		for ws > start && (src[ws-1] == ' ' || src[ws-1] == '\t') {
			ws--
		}
		if ws < end {
			spans = append(spans, [2]int{ws, end})
		}
	}
	return spans
}
