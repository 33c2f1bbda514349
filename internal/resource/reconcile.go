package resource

// Pairing is one resource matched across environments by normalized key.
type Pairing struct {
	A Resource `json:"a"`
	B Resource `json:"b"`

	// SizeDiff is set when both sizes are known and differ. An unknown
	// size on either side claims nothing.
	SizeDiff bool `json:"size_diff"`

	// URLDiff is set when the comparison keys (normalized key plus query)
	// differ: same resource, different query or version parameter.
	URLDiff bool `json:"url_diff"`
}

// CategoryDiff partitions one category's resources across environments.
// Every resource of A appears in exactly one of OnlyA or Common.
type CategoryDiff struct {
	OnlyA  []Resource `json:"only_a"`
	OnlyB  []Resource `json:"only_b"`
	Common []Pairing  `json:"common"`
}

// Diff holds the per-category reconciliation results.
type Diff map[Type]CategoryDiff

// Reconcile partitions resourcesA against resourcesB independently within
// each category; cross-category matching never occurs. marker is the
// static-asset marker used for key truncation ("" disables truncation).
//
// Duplicate normalized keys within one side are resolved deterministically:
// the first occurrence on each side pairs, later duplicates fall into
// OnlyA/OnlyB.
func Reconcile(resourcesA, resourcesB []Resource, marker string) Diff {
	byCatA := splitByCategory(resourcesA)
	byCatB := splitByCategory(resourcesB)

	out := make(Diff, len(Categories))
	for _, cat := range Categories {
		out[cat] = reconcileCategory(byCatA[cat], byCatB[cat], marker)
	}
	return out
}

func splitByCategory(resources []Resource) map[Type][]Resource {
	m := make(map[Type][]Resource)
	for _, r := range resources {
		cat := bucketFor(r.Type)
		m[cat] = append(m[cat], r)
	}
	return m
}

func reconcileCategory(a, b []Resource, marker string) CategoryDiff {
	diff := CategoryDiff{OnlyA: []Resource{}, OnlyB: []Resource{}, Common: []Pairing{}}

	// First occurrence of each key on the B side is the pairing candidate.
	firstB := make(map[string]int, len(b))
	for i, r := range b {
		key, _ := NormalizedKey(r.URL, marker)
		if _, seen := firstB[key]; !seen {
			firstB[key] = i
		}
	}

	pairedB := make(map[int]bool, len(b))
	pairedKeys := make(map[string]bool)

	for _, ra := range a {
		key, _ := NormalizedKey(ra.URL, marker)
		bi, found := firstB[key]
		if !found || pairedKeys[key] {
			// No counterpart, or a duplicate key already consumed its
			// counterpart: this occurrence is exclusive to A.
			diff.OnlyA = append(diff.OnlyA, ra)
			continue
		}
		pairedKeys[key] = true
		pairedB[bi] = true

		rb := b[bi]
		ckA, _ := ComparisonKey(ra.URL, marker)
		ckB, _ := ComparisonKey(rb.URL, marker)
		diff.Common = append(diff.Common, Pairing{
			A:        ra,
			B:        rb,
			SizeDiff: ra.Size != nil && rb.Size != nil && *ra.Size != *rb.Size,
			URLDiff:  ckA != ckB,
		})
	}

	for i, rb := range b {
		if !pairedB[i] {
			diff.OnlyB = append(diff.OnlyB, rb)
		}
	}
	return diff
}
