package text

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLineIndex_PositionAndOffset(t *testing.T) {
	t.Parallel()

	src := []byte("int x=5;\r\nint y = 10;\n// ünï\n𝄞a\n")
	li := NewLineIndex(src)

	if li.LineCount() != 5 {
		t.Fatalf("expected 5 lines, got %d", li.LineCount())
	}

	cases := []struct {
		name   string
		offset int
		want   Position
	}{
		{"start", 0, Position{0, 0}},
		{"equals", 5, Position{0, 5}},
		{"second line", 10, Position{1, 0}},
		{"after multibyte", len("int x=5;\r\nint y = 10;\n// ü"), Position{2, 4}},
		{"after surrogate pair", len("int x=5;\r\nint y = 10;\n// ünï\n𝄞"), Position{3, 2}},
		{"clamped", 10_000, Position{4, 0}},
		{"negative", -3, Position{0, 0}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := li.Position(tc.offset)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Position(%d) mismatch (-want +got):\n%s", tc.offset, diff)
			}
		})
	}

	// Round trip for every rune boundary.
	for off := 0; off <= len(src); off++ {
		if off < len(src) && (src[off]&0xC0) == 0x80 {
			continue
		}
		p := li.Position(off)
		if off < len(src) && src[off] == '\n' && off > 0 && src[off-1] == '\r' {
			// '\n' of CRLF maps to the end of the line like the '\r'.
			continue
		}
		if got := li.Offset(p); got != off {
			t.Errorf("Offset(Position(%d)=%+v) = %d", off, p, got)
		}
	}
}

func TestLineIndex_OffsetClamps(t *testing.T) {
	t.Parallel()

	li := NewLineIndex([]byte("ab\r\ncd"))
	if got := li.Offset(Position{Line: 0, Character: 99}); got != 2 {
		t.Errorf("expected clamp to line end (2), got %d", got)
	}
	if got := li.Offset(Position{Line: 9, Character: 0}); got != 6 {
		t.Errorf("expected clamp to EOF (6), got %d", got)
	}
	if got := li.LineEnd(0); got != 2 {
		t.Errorf("LineEnd(0) = %d, want 2", got)
	}
}

func TestApplyEdits(t *testing.T) {
	t.Parallel()

	src := []byte("int x=5;")
	out, n := ApplyEdits(src, []Edit{
		Insert(6, " "),
		Insert(5, " "),
	})
	if n != 2 || string(out) != "int x = 5;" {
		t.Errorf("got %q (%d edits)", out, n)
	}
	if string(src) != "int x=5;" {
		t.Error("source must not be modified")
	}
}

func TestApplyEdits_ConflictsAndInvalid(t *testing.T) {
	t.Parallel()

	src := []byte("if(x){")
	out, n := ApplyEdits(src, []Edit{
		Insert(2, " "),
		Insert(2, "  "),        // same insertion point, dropped
		Replace(4, 5, " "),     // ")" -> " "  (contrived)
		Replace(4, 6, ""),      // overlaps previous, dropped
		Edit{Start: 5, End: 2}, // invalid
		Insert(99, "x"),        // out of range
	})
	if n != 2 {
		t.Fatalf("expected 2 applied edits, got %d", n)
	}
	if string(out) != "if (x {" {
		t.Errorf("got %q", out)
	}
}

func TestNormalize_AdjacentEditsCompatible(t *testing.T) {
	t.Parallel()

	got := Normalize(10, []Edit{Replace(3, 5, " "), Insert(3, "x"), Delete(5, 7)})
	want := []Edit{Insert(3, "x"), Replace(3, 5, " "), Delete(5, 7)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestTrailingWhitespace(t *testing.T) {
	t.Parallel()

	src := []byte("a  \n    \nb\t\r\nclean\nend ")
	got := TrailingWhitespace(src)
	want := [][2]int{{1, 3}, {4, 8}, {10, 11}, {22, 23}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TrailingWhitespace mismatch (-want +got):\n%s", diff)
	}
}
