package textdiff

import "testing"

func TestAlign_SingleLineReplacement(t *testing.T) {
	rows := Align("a\nb\nc", "a\nx\nc")

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %+v", len(rows), rows)
	}

	r := rows[1]
	if r.LeftText != "b" || r.LeftKind != RowRemoved {
		t.Errorf("row 2 left = %q (%s), want b (removed)", r.LeftText, r.LeftKind)
	}
	if r.RightText != "x" || r.RightKind != RowAdded {
		t.Errorf("row 2 right = %q (%s), want x (added)", r.RightText, r.RightKind)
	}
}

func TestAlign_LineNumbersIncrementPerSide(t *testing.T) {
	rows := Align("a\nb\nc", "a\nc\nd")

	var lastLeft, lastRight int
	for i, r := range rows {
		if r.LeftKind == RowEmpty && r.RightKind == RowEmpty {
			t.Fatalf("row %d has both sides empty", i)
		}
		if r.LeftKind != RowEmpty {
			if r.LeftLineNo == nil {
				t.Fatalf("row %d populated left has nil line number", i)
			}
			if *r.LeftLineNo != lastLeft+1 {
				t.Errorf("row %d left line no = %d, want %d", i, *r.LeftLineNo, lastLeft+1)
			}
			lastLeft = *r.LeftLineNo
		} else if r.LeftLineNo != nil {
			t.Errorf("row %d empty left side has a line number", i)
		}
		if r.RightKind != RowEmpty {
			if r.RightLineNo == nil {
				t.Fatalf("row %d populated right has nil line number", i)
			}
			if *r.RightLineNo != lastRight+1 {
				t.Errorf("row %d right line no = %d, want %d", i, *r.RightLineNo, lastRight+1)
			}
			lastRight = *r.RightLineNo
		} else if r.RightLineNo != nil {
			t.Errorf("row %d empty right side has a line number", i)
		}
	}
}

func TestAlign_RowCountMatchesSegments(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
	}{
		{"replacement", "a\nb\nc", "a\nx\nc"},
		{"pure insert", "a", "a\nb\nc"},
		{"pure delete", "a\nb\nc", "a"},
		{"disjoint", "p\nq", "r\ns\nt"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			segs := DiffLines(tc.a, tc.b)

			// Equal segments contribute one row per line; a delete run and
			// the insert run that immediately follows it share rows, so the
			// block contributes max(removed, added) rows.
			want := 0
			for i := 0; i < len(segs); i++ {
				n := len(segs[i].Lines)
				if segs[i].Op == OpDelete && i+1 < len(segs) && segs[i+1].Op == OpInsert {
					if m := len(segs[i+1].Lines); m > n {
						n = m
					}
					i++
				}
				want += n
			}

			rows := AlignSegments(segs)
			if len(rows) != want {
				t.Errorf("row count = %d, want %d", len(rows), want)
			}
		})
	}
}

func TestAlign_UnevenReplacementSpills(t *testing.T) {
	rows := Align("a\nb\nc", "a\nx\ny\nc")

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(rows), rows)
	}

	r := rows[1]
	if r.LeftText != "b" || r.LeftKind != RowRemoved || r.RightText != "x" || r.RightKind != RowAdded {
		t.Errorf("row 2 = %+v, want b (removed) opposite x (added)", r)
	}

	r = rows[2]
	if r.LeftKind != RowEmpty || r.LeftLineNo != nil {
		t.Errorf("row 3 left = %+v, want empty", r)
	}
	if r.RightText != "y" || r.RightKind != RowAdded {
		t.Errorf("row 3 right = %q (%s), want y (added)", r.RightText, r.RightKind)
	}
}

func TestAlign_EqualRowsCarrySameText(t *testing.T) {
	rows := Align("same\ntext", "same\ntext")
	for i, r := range rows {
		if r.LeftKind != RowNormal || r.RightKind != RowNormal {
			t.Errorf("row %d kinds = %s/%s, want normal/normal", i, r.LeftKind, r.RightKind)
		}
		if r.LeftText != r.RightText {
			t.Errorf("row %d texts differ: %q vs %q", i, r.LeftText, r.RightText)
		}
	}
}
