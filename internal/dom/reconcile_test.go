package dom

import "testing"

func strp(s string) *string { return &s }

func TestReconcile_ExactPartition(t *testing.T) {
	a := []Fact{
		ScriptFact{Src: strp("/static/js/app.js")},
		ScriptFact{Src: strp("/static/js/vendor.js")},
		ScriptFact{Inline: true, Text: "console.log(1)"},
	}
	b := []Fact{
		ScriptFact{Src: strp("/static/js/app.js")},
		ScriptFact{Src: strp("/static/js/analytics.js")},
	}

	diff := Reconcile(a, b)

	if len(diff.OnlyA) != 2 {
		t.Fatalf("onlyA = %d facts, want 2", len(diff.OnlyA))
	}
	if len(diff.OnlyB) != 1 {
		t.Fatalf("onlyB = %d facts, want 1", len(diff.OnlyB))
	}

	// Partition of A is exhaustive and non-overlapping: onlyA plus the
	// elements of A whose key exists in B must equal A exactly.
	onlyAKeys := make(map[string]bool)
	for _, f := range diff.OnlyA {
		onlyAKeys[f.Key()] = true
	}
	bKeys := make(map[string]bool)
	for _, f := range b {
		bKeys[f.Key()] = true
	}
	for _, f := range a {
		inOnlyA := onlyAKeys[f.Key()]
		inB := bKeys[f.Key()]
		if inOnlyA == inB {
			t.Errorf("fact %q must be in exactly one of onlyA / matched, got onlyA=%v matched=%v", f.Key(), inOnlyA, inB)
		}
	}
}

func TestReconcile_AbsentAndEmptyDiffer(t *testing.T) {
	a := []Fact{ImageFact{Src: strp("")}}
	b := []Fact{ImageFact{}}

	diff := Reconcile(a, b)
	if len(diff.OnlyA) != 1 || len(diff.OnlyB) != 1 {
		t.Errorf("empty-string and absent src must not match: onlyA=%d onlyB=%d", len(diff.OnlyA), len(diff.OnlyB))
	}
}

func TestReconcile_EmptyInputs(t *testing.T) {
	diff := Reconcile(nil, nil)
	if len(diff.OnlyA) != 0 || len(diff.OnlyB) != 0 {
		t.Errorf("nil inputs should reconcile to empty sets: %+v", diff)
	}
}

func TestPair_PositionalZip(t *testing.T) {
	a := []Fact{
		HeadingFact{Level: 1, Text: "one"},
		HeadingFact{Level: 2, Text: "two"},
		HeadingFact{Level: 3, Text: "three"},
	}
	b := []Fact{
		HeadingFact{Level: 2, Text: "two"},
		HeadingFact{Level: 1, Text: "one"},
	}

	pairs := Pair(a, b)
	if len(pairs) != 2 {
		t.Fatalf("len(pairs) = %d, want min(3,2) = 2", len(pairs))
	}

	// Pairing is positional: index 0 of A faces index 0 of B even though
	// their keys differ. Reordering shows spurious pairs here while
	// Reconcile still reports both sides as fully matched.
	if pairs[0].A.Key() == pairs[0].B.Key() {
		t.Error("expected a spurious pair for reordered inputs")
	}
	diff := Reconcile(a[:2], b)
	if len(diff.OnlyA) != 0 || len(diff.OnlyB) != 0 {
		t.Errorf("reordered identical facts must reconcile as matched: %+v", diff)
	}
}

func TestPair_LengthAlwaysMin(t *testing.T) {
	if got := Pair(nil, []Fact{HeadingFact{Level: 1}}); len(got) != 0 {
		t.Errorf("pairing against empty list should be empty, got %d", len(got))
	}
}

func TestFactKey_Deterministic(t *testing.T) {
	f := MetaFact{Name: strp("description"), Content: strp("hello")}
	if f.Key() != f.Key() {
		t.Error("key must be deterministic")
	}
	other := MetaFact{Name: strp("description"), Content: strp("hello!")}
	if f.Key() == other.Key() {
		t.Error("distinct facts must have distinct keys")
	}
}
