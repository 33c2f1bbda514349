package textdiff

import (
	"reflect"
	"strings"
	"testing"
)

func TestDiffLines_SingleLineReplacement(t *testing.T) {
	segs := DiffLines("a\nb\nc", "a\nx\nc")

	want := []Segment{
		{Op: OpEqual, Lines: []string{"a"}},
		{Op: OpDelete, Lines: []string{"b"}},
		{Op: OpInsert, Lines: []string{"x"}},
		{Op: OpEqual, Lines: []string{"c"}},
	}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestDiffLines_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
	}{
		{"identical", "a\nb\nc", "a\nb\nc"},
		{"replacement", "a\nb\nc", "a\nx\nc"},
		{"empty both", "", ""},
		{"empty a", "", "only\nright"},
		{"empty b", "left\nonly", ""},
		{"trailing newline added", "a\nb", "a\nb\n"},
		{"all different", "one\ntwo", "three\nfour\nfive"},
		{"repeated lines", "x\nx\ny\nx", "x\ny\nx\nx"},
		{"html-ish", "<html>\n<body>\n<p>hi</p>\n</body>\n</html>", "<html>\n<body>\n<p>bye</p>\n<p>new</p>\n</body>\n</html>"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			segs := DiffLines(tc.a, tc.b)
			if got := Reconstruct(segs, SideA); got != tc.a {
				t.Errorf("side A round-trip failed:\n got %q\nwant %q", got, tc.a)
			}
			if got := Reconstruct(segs, SideB); got != tc.b {
				t.Errorf("side B round-trip failed:\n got %q\nwant %q", got, tc.b)
			}
		})
	}
}

func TestDiffLines_NoMidLineBoundaries(t *testing.T) {
	a := "prefix common suffix\nsecond line"
	b := "prefix changed suffix\nsecond line"

	segs := DiffLines(a, b)
	for _, seg := range segs {
		for _, line := range seg.Lines {
			if strings.Contains(line, "\n") {
				t.Fatalf("segment line contains newline: %q", line)
			}
		}
	}
	// The changed first line must appear whole on both sides, never split
	// into common word fragments.
	added, removed := Changes(segs)
	if len(removed) != 1 || removed[0] != "prefix common suffix" {
		t.Errorf("removed = %v, want the whole first line of A", removed)
	}
	if len(added) != 1 || added[0] != "prefix changed suffix" {
		t.Errorf("added = %v, want the whole first line of B", added)
	}
}

func TestChanges_SkipsBlankLines(t *testing.T) {
	segs := []Segment{
		{Op: OpDelete, Lines: []string{"gone", "", "   "}},
		{Op: OpInsert, Lines: []string{"\t", "new"}},
	}

	added, removed := Changes(segs)
	if !reflect.DeepEqual(removed, []string{"gone"}) {
		t.Errorf("removed = %v, want [gone]", removed)
	}
	if !reflect.DeepEqual(added, []string{"new"}) {
		t.Errorf("added = %v, want [new]", added)
	}
}

func TestFlatten_OrderAndKinds(t *testing.T) {
	segs := DiffLines("a\nb\nc", "a\nx\nc")
	lines := Flatten(segs)

	want := []DiffLine{
		{Kind: LineUnchanged, Text: "a"},
		{Kind: LineRemoved, Text: "b"},
		{Kind: LineAdded, Text: "x"},
		{Kind: LineUnchanged, Text: "c"},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("unexpected flattened diff: %+v", lines)
	}
}

func TestDiffLines_EncoderOverflowFallsBack(t *testing.T) {
	old := encoderLimit
	encoderLimit = 4
	defer func() { encoderLimit = old }()

	a := "same\na1\na2\na3\nend"
	b := "same\nb1\nb2\nb3\nend"

	segs := DiffLines(a, b)
	if got := Reconstruct(segs, SideA); got != a {
		t.Errorf("side A round-trip failed:\n got %q\nwant %q", got, a)
	}
	if got := Reconstruct(segs, SideB); got != b {
		t.Errorf("side B round-trip failed:\n got %q\nwant %q", got, b)
	}

	want := []Segment{
		{Op: OpEqual, Lines: []string{"same"}},
		{Op: OpDelete, Lines: []string{"a1", "a2", "a3"}},
		{Op: OpInsert, Lines: []string{"b1", "b2", "b3"}},
		{Op: OpEqual, Lines: []string{"end"}},
	}
	if !reflect.DeepEqual(segs, want) {
		t.Fatalf("unexpected fallback segments: %+v", segs)
	}
}

func TestDiffLines_ManyDistinctLines(t *testing.T) {
	// Force the line encoder past small rune values to make sure encoding
	// stays injective for large documents.
	var sbA, sbB strings.Builder
	for i := 0; i < 3000; i++ {
		sbA.WriteString("line-a-")
		sbA.WriteString(strings.Repeat("x", i%7))
		sbA.WriteString("\n")
		sbB.WriteString("line-b-")
		sbB.WriteString(strings.Repeat("y", i%5))
		sbB.WriteString("\n")
	}
	a, b := sbA.String(), sbB.String()

	segs := DiffLines(a, b)
	if got := Reconstruct(segs, SideA); got != a {
		t.Error("side A round-trip failed for large input")
	}
	if got := Reconstruct(segs, SideB); got != b {
		t.Error("side B round-trip failed for large input")
	}
}
