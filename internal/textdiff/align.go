package textdiff

// RowKind classifies one cell of an aligned row.
type RowKind string

const (
	RowNormal  RowKind = "normal"
	RowAdded   RowKind = "added"
	RowRemoved RowKind = "removed"
	RowEmpty   RowKind = "empty"
)

// AlignedRow is one row of a two-column diff view. A row is one of: both
// sides carrying the same unchanged line, a removed line paired opposite
// the added line that replaced it, or a one-sided row whose other column
// is empty. Both sides empty never occurs. Line numbers are nil on an
// empty side and increment only on sides that have content.
type AlignedRow struct {
	LeftLineNo  *int    `json:"left_line_no"`
	LeftText    string  `json:"left_text"`
	LeftKind    RowKind `json:"left_kind"`
	RightLineNo *int    `json:"right_line_no"`
	RightText   string  `json:"right_text"`
	RightKind   RowKind `json:"right_kind"`
}

// Align diffs a against b and produces the row-aligned two-column view.
func Align(a, b string) []AlignedRow {
	return AlignSegments(DiffLines(a, b))
}

// AlignSegments walks an edit script in order. Equal segments populate both
// columns and advance both counters. A delete segment immediately followed
// by an insert segment is a replacement block: its lines are zipped
// pairwise, removed on the left opposite added on the right, and whichever
// run is longer spills into one-sided rows. Unpaired delete and insert
// segments produce one-sided rows. This keeps a synchronized-scroll split
// view vertically aligned with changed regions shown opposite each other.
func AlignSegments(segs []Segment) []AlignedRow {
	rows := make([]AlignedRow, 0)
	leftNo, rightNo := 0, 0

	for i := 0; i < len(segs); i++ {
		seg := segs[i]
		switch seg.Op {
		case OpEqual:
			for _, line := range seg.Lines {
				leftNo++
				rightNo++
				l, r := leftNo, rightNo
				rows = append(rows, AlignedRow{
					LeftLineNo: &l, LeftText: line, LeftKind: RowNormal,
					RightLineNo: &r, RightText: line, RightKind: RowNormal,
				})
			}
		case OpDelete:
			removed := seg.Lines
			var added []string
			if i+1 < len(segs) && segs[i+1].Op == OpInsert {
				added = segs[i+1].Lines
				i++
			}
			n := len(removed)
			if len(added) > n {
				n = len(added)
			}
			for j := 0; j < n; j++ {
				row := AlignedRow{LeftKind: RowEmpty, RightKind: RowEmpty}
				if j < len(removed) {
					leftNo++
					l := leftNo
					row.LeftLineNo, row.LeftText, row.LeftKind = &l, removed[j], RowRemoved
				}
				if j < len(added) {
					rightNo++
					r := rightNo
					row.RightLineNo, row.RightText, row.RightKind = &r, added[j], RowAdded
				}
				rows = append(rows, row)
			}
		case OpInsert:
			for _, line := range seg.Lines {
				rightNo++
				r := rightNo
				rows = append(rows, AlignedRow{
					LeftKind:    RowEmpty,
					RightLineNo: &r, RightText: line, RightKind: RowAdded,
				})
			}
		}
	}
	return rows
}
