package dom

// TagDiff partitions two fact lists by exact canonical-key membership.
// OnlyA holds elements of A whose key never appears in B, OnlyB the
// converse. Every element of A lands in exactly one of OnlyA or the
// matched remainder; these sets are the source of truth for added/removed
// counts.
type TagDiff struct {
	OnlyA FactList `json:"only_a"`
	OnlyB FactList `json:"only_b"`
}

// Reconcile computes the exact-match set partition of a against b.
func Reconcile(a, b []Fact) TagDiff {
	keysA := make(map[string]bool, len(a))
	for _, f := range a {
		keysA[f.Key()] = true
	}
	keysB := make(map[string]bool, len(b))
	for _, f := range b {
		keysB[f.Key()] = true
	}

	diff := TagDiff{OnlyA: FactList{}, OnlyB: FactList{}}
	for _, f := range a {
		if !keysB[f.Key()] {
			diff.OnlyA = append(diff.OnlyA, f)
		}
	}
	for _, f := range b {
		if !keysA[f.Key()] {
			diff.OnlyB = append(diff.OnlyB, f)
		}
	}
	return diff
}

// FactPair holds the facts rendered opposite each other in a side-by-side
// detail card.
type FactPair struct {
	A Fact `json:"a"`
	B Fact `json:"b"`
}

// Pair zips a and b positionally up to min(len(a), len(b)). Index i of A
// is always shown opposite index i of B regardless of key equality, so
// reordered elements produce spurious pairs. This is a known rendering
// limitation; Reconcile keeps the count semantics exact.
func Pair(a, b []Fact) []FactPair {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	pairs := make([]FactPair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, FactPair{A: a[i], B: b[i]})
	}
	return pairs
}
