package alert

// Thresholds configures which rules run and where they trip. A nil field
// disables its rule entirely; absence is never "threshold = 0". The core
// does not validate values; a caller supplying a negative threshold gets
// the comparison evaluated as given.
type Thresholds struct {
	// HTMLSizeDiffPercent trips when |prod-dev|/dev*100 exceeds it.
	HTMLSizeDiffPercent *float64 `json:"html_size_diff,omitempty"`

	// ScriptCountDiff trips when |prod-dev| script count exceeds it.
	ScriptCountDiff *int `json:"script_count_diff,omitempty"`

	// ImageCountDiff trips when |prod-dev| image count exceeds it.
	ImageCountDiff *int `json:"image_count_diff,omitempty"`

	// PerformanceScoreDiff trips when dev-prod exceeds it. Regression
	// only: prod scoring better than dev never alerts.
	PerformanceScoreDiff *float64 `json:"performance_score_diff,omitempty"`

	// SEOScoreDiff trips when dev-prod exceeds it, regression only.
	SEOScoreDiff *float64 `json:"seo_score_diff,omitempty"`

	// BrokenLinksMax trips when the production broken-link count exceeds it.
	BrokenLinksMax *int `json:"broken_links_max,omitempty"`

	// LighthousePerformanceMin trips when the production Lighthouse
	// performance score falls below it.
	LighthousePerformanceMin *float64 `json:"lighthouse_performance_min,omitempty"`

	// VisualDiffPercent trips when the changed-pixel percentage exceeds
	// it. Unlike the other fields this one has a default (5): the rule
	// runs whenever a visual comparison result is supplied.
	VisualDiffPercent *float64 `json:"visual_diff_percent,omitempty"`
}

// defaultVisualDiffPercent applies when VisualDiffPercent is unset but a
// visual comparison result is available.
const defaultVisualDiffPercent = 5.0

// DefaultThresholds is the everyday preset. Plain data, not runtime state:
// each call returns a fresh value.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HTMLSizeDiffPercent:      fptr(10),
		ScriptCountDiff:          iptr(5),
		ImageCountDiff:           iptr(5),
		PerformanceScoreDiff:     fptr(20),
		SEOScoreDiff:             fptr(15),
		BrokenLinksMax:           iptr(0),
		LighthousePerformanceMin: fptr(50),
	}
}

// StrictThresholds is the tight preset used ahead of releases.
func StrictThresholds() Thresholds {
	return Thresholds{
		HTMLSizeDiffPercent:      fptr(5),
		ScriptCountDiff:          iptr(2),
		ImageCountDiff:           iptr(2),
		PerformanceScoreDiff:     fptr(10),
		SEOScoreDiff:             fptr(5),
		BrokenLinksMax:           iptr(0),
		LighthousePerformanceMin: fptr(80),
		VisualDiffPercent:        fptr(1),
	}
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }
