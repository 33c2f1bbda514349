// Package textdiff computes line-granularity diffs between two HTML
// documents and derives the row-aligned view used by the split diff pane.
package textdiff

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op classifies a diff segment.
type Op int

const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "equal"
	}
}

// Segment is a run of consecutive lines sharing the same operation,
// in document order.
type Segment struct {
	Op    Op       `json:"op"`
	Lines []string `json:"lines"`
}

// LineKind classifies a single line of a flattened diff.
type LineKind string

const (
	LineUnchanged LineKind = "unchanged"
	LineAdded     LineKind = "added"
	LineRemoved   LineKind = "removed"
)

// DiffLine is one line of a flattened (unified-style) diff.
type DiffLine struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// DiffLines computes a line-level edit script between a and b.
// Lines are split on "\n"; each line is encoded as a single rune so the
// Myers diff in diffmatchpatch operates on whole lines and segment
// boundaries always fall on line boundaries.
//
// Invariant: joining the lines of equal+delete segments with "\n"
// reconstructs a exactly; equal+insert reconstructs b exactly.
func DiffLines(a, b string) []Segment {
	linesA := strings.Split(a, "\n")
	linesB := strings.Split(b, "\n")

	enc := newLineEncoder()
	ra, okA := enc.encode(linesA)
	rb, okB := enc.encode(linesB)
	if !okA || !okB {
		return coarseSegments(linesA, linesB)
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(ra, rb, false)

	segs := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		op := OpEqual
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = OpInsert
		case diffmatchpatch.DiffDelete:
			op = OpDelete
		}
		lines := enc.decode(d.Text)
		if n := len(segs); n > 0 && segs[n-1].Op == op {
			segs[n-1].Lines = append(segs[n-1].Lines, lines...)
			continue
		}
		segs = append(segs, Segment{Op: op, Lines: lines})
	}
	return segs
}

// coarseSegments is the fallback edit script for inputs with more distinct
// lines than the encoder can represent. It trims the common prefix and
// suffix and reports everything between as one replaced region. Not a
// minimal diff, but the reconstruction invariant still holds exactly.
func coarseSegments(linesA, linesB []string) []Segment {
	pre := 0
	for pre < len(linesA) && pre < len(linesB) && linesA[pre] == linesB[pre] {
		pre++
	}
	suf := 0
	for suf < len(linesA)-pre && suf < len(linesB)-pre &&
		linesA[len(linesA)-1-suf] == linesB[len(linesB)-1-suf] {
		suf++
	}

	segs := make([]Segment, 0, 4)
	if pre > 0 {
		segs = append(segs, Segment{Op: OpEqual, Lines: linesA[:pre]})
	}
	if mid := linesA[pre : len(linesA)-suf]; len(mid) > 0 {
		segs = append(segs, Segment{Op: OpDelete, Lines: mid})
	}
	if mid := linesB[pre : len(linesB)-suf]; len(mid) > 0 {
		segs = append(segs, Segment{Op: OpInsert, Lines: mid})
	}
	if suf > 0 {
		segs = append(segs, Segment{Op: OpEqual, Lines: linesA[len(linesA)-suf:]})
	}
	return segs
}

// Flatten converts segments into an ordered unified sequence of lines.
// Within a replaced region removed lines precede added ones, matching
// segment order.
func Flatten(segs []Segment) []DiffLine {
	out := make([]DiffLine, 0)
	for _, seg := range segs {
		kind := LineUnchanged
		switch seg.Op {
		case OpInsert:
			kind = LineAdded
		case OpDelete:
			kind = LineRemoved
		}
		for _, l := range seg.Lines {
			out = append(out, DiffLine{Kind: kind, Text: l})
		}
	}
	return out
}

// Changes returns the added and removed lines, skipping lines that are
// blank or whitespace-only. This is the presentation filter applied at
// the consumer boundary; the segments themselves keep every line so
// alignment bookkeeping stays exact.
func Changes(segs []Segment) (added, removed []string) {
	for _, seg := range segs {
		if seg.Op == OpEqual {
			continue
		}
		for _, l := range seg.Lines {
			if strings.TrimSpace(l) == "" {
				continue
			}
			if seg.Op == OpInsert {
				added = append(added, l)
			} else {
				removed = append(removed, l)
			}
		}
	}
	return added, removed
}

// Side selects which input document Reconstruct rebuilds.
type Side int

const (
	SideA Side = iota
	SideB
)

// Reconstruct rebuilds one side of the diff from its segments.
func Reconstruct(segs []Segment, side Side) string {
	var lines []string
	for _, seg := range segs {
		switch seg.Op {
		case OpEqual:
			lines = append(lines, seg.Lines...)
		case OpDelete:
			if side == SideA {
				lines = append(lines, seg.Lines...)
			}
		case OpInsert:
			if side == SideB {
				lines = append(lines, seg.Lines...)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// encoderLimit is the largest rune the encoder may hand out. Variable so
// tests can force the overflow path without allocating a million lines.
var encoderLimit rune = utf8.MaxRune

// lineEncoder maps distinct lines to single runes and back. Rune values
// start at 1 and skip the surrogate range and U+FFFD, which cannot
// round-trip through a Go string. When the inputs hold more distinct
// lines than the limit allows, encode reports failure instead of handing
// out values that rune-to-string conversion would collapse to U+FFFD.
type lineEncoder struct {
	toRune map[string]rune
	toLine map[rune]string
	next   rune
}

func newLineEncoder() *lineEncoder {
	return &lineEncoder{
		toRune: make(map[string]rune),
		toLine: make(map[rune]string),
		next:   1,
	}
}

func (e *lineEncoder) encode(lines []string) ([]rune, bool) {
	out := make([]rune, 0, len(lines))
	for _, l := range lines {
		r, ok := e.toRune[l]
		if !ok {
			if e.next > encoderLimit {
				return nil, false
			}
			r = e.next
			e.next++
			if e.next == 0xD800 {
				e.next = 0xE000
			}
			if e.next == 0xFFFD {
				e.next++
			}
			e.toRune[l] = r
			e.toLine[r] = l
		}
		out = append(out, r)
	}
	return out, true
}

func (e *lineEncoder) decode(encoded string) []string {
	lines := make([]string, 0, len(encoded))
	for _, r := range encoded {
		lines = append(lines, e.toLine[r])
	}
	return lines
}
