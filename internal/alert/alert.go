// Package alert evaluates dev/prod metric deltas against configured
// thresholds and emits typed alert records.
package alert

import (
	"fmt"
	"math"
)

// Severity grades an alert.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Categories group alerts for display and history summaries.
const (
	CategoryPerformance = "Performance"
	CategoryDOM         = "DOM"
	CategorySEO         = "SEO"
	CategoryLinks       = "Links"
	CategoryVisual      = "Visual"
)

// Record is one triggered rule. Records are immutable and collected in
// rule-evaluation order, not severity order, so identical inputs always
// produce an identical list.
type Record struct {
	Severity  Severity `json:"severity"`
	Category  string   `json:"category"`
	Message   string   `json:"message"`
	Threshold *float64 `json:"threshold,omitempty"`
	Actual    *float64 `json:"actual,omitempty"`
}

// Metrics carries one environment's measured values. Pointer fields are
// optional collaborator data; a nil value means the corresponding rules
// are skipped, never that the value is zero.
type Metrics struct {
	HTMLBytes   int `json:"html_bytes"`
	ScriptCount int `json:"script_count"`
	ImageCount  int `json:"image_count"`

	PerformanceScore      *float64 `json:"performance_score,omitempty"`
	SEOScore              *float64 `json:"seo_score,omitempty"`
	LighthousePerformance *float64 `json:"lighthouse_performance,omitempty"`
	BrokenLinks           *int     `json:"broken_links,omitempty"`

	// MetaTags maps a meta name/property to its content for the critical
	// set checked by the parity rule. A missing key means the tag is
	// absent from the document. nil means no metadata was collected and
	// the rule is skipped.
	MetaTags map[string]string `json:"meta_tags,omitempty"`
}

// criticalMetaTags is the fixed set checked for presence/parity, in
// evaluation order.
var criticalMetaTags = []string{"description", "og:title", "og:description"}

// Comparison is the pair of environment metrics plus pair-level inputs.
type Comparison struct {
	Dev  Metrics `json:"dev"`
	Prod Metrics `json:"prod"`

	// VisualDiffPercent is the changed-pixel percentage from a visual
	// comparison, when one ran.
	VisualDiffPercent *float64 `json:"visual_diff_percent,omitempty"`
}

// Evaluate runs every rule in fixed order: HTML size, script count, image
// count, performance regression, SEO regression, broken links, Lighthouse
// floor, visual diff, meta-tag parity. A rule whose threshold is unset or
// whose inputs are absent is skipped, never an error.
func Evaluate(c Comparison, th Thresholds) []Record {
	records := []Record{}

	if th.HTMLSizeDiffPercent != nil && c.Dev.HTMLBytes > 0 {
		pct := math.Abs(float64(c.Prod.HTMLBytes-c.Dev.HTMLBytes)) / float64(c.Dev.HTMLBytes) * 100
		if pct > *th.HTMLSizeDiffPercent {
			records = append(records, Record{
				Severity:  SeverityWarning,
				Category:  CategoryPerformance,
				Message:   fmt.Sprintf("HTML size differs by %.1f%% between dev (%d bytes) and prod (%d bytes)", pct, c.Dev.HTMLBytes, c.Prod.HTMLBytes),
				Threshold: th.HTMLSizeDiffPercent,
				Actual:    fptr(pct),
			})
		}
	}

	records = appendCountDelta(records, "script", c.Dev.ScriptCount, c.Prod.ScriptCount, th.ScriptCountDiff)
	records = appendCountDelta(records, "image", c.Dev.ImageCount, c.Prod.ImageCount, th.ImageCountDiff)

	records = appendScoreRegression(records, CategoryPerformance, "performance",
		c.Dev.PerformanceScore, c.Prod.PerformanceScore, th.PerformanceScoreDiff)
	records = appendScoreRegression(records, CategorySEO, "SEO",
		c.Dev.SEOScore, c.Prod.SEOScore, th.SEOScoreDiff)

	if th.BrokenLinksMax != nil && c.Prod.BrokenLinks != nil {
		if count := *c.Prod.BrokenLinks; count > *th.BrokenLinksMax {
			records = append(records, Record{
				Severity:  SeverityError,
				Category:  CategoryLinks,
				Message:   fmt.Sprintf("production has %d broken links (max %d)", count, *th.BrokenLinksMax),
				Threshold: fptr(float64(*th.BrokenLinksMax)),
				Actual:    fptr(float64(count)),
			})
		}
	}

	if th.LighthousePerformanceMin != nil && c.Prod.LighthousePerformance != nil {
		if score := *c.Prod.LighthousePerformance; score < *th.LighthousePerformanceMin {
			records = append(records, Record{
				Severity:  SeverityError,
				Category:  CategoryPerformance,
				Message:   fmt.Sprintf("Lighthouse performance score %.0f is below the %.0f floor", score, *th.LighthousePerformanceMin),
				Threshold: th.LighthousePerformanceMin,
				Actual:    fptr(score),
			})
		}
	}

	if c.VisualDiffPercent != nil {
		limit := defaultVisualDiffPercent
		if th.VisualDiffPercent != nil {
			limit = *th.VisualDiffPercent
		}
		if pct := *c.VisualDiffPercent; pct > limit {
			records = append(records, Record{
				Severity:  SeverityWarning,
				Category:  CategoryVisual,
				Message:   fmt.Sprintf("%.2f%% of pixels differ between dev and prod (limit %.2f%%)", pct, limit),
				Threshold: fptr(limit),
				Actual:    fptr(pct),
			})
		}
	}

	if c.Dev.MetaTags != nil && c.Prod.MetaTags != nil {
		for _, tag := range criticalMetaTags {
			devVal, devOK := c.Dev.MetaTags[tag]
			prodVal, prodOK := c.Prod.MetaTags[tag]
			switch {
			case devOK && !prodOK:
				records = append(records, Record{
					Severity: SeverityError,
					Category: CategorySEO,
					Message:  fmt.Sprintf("meta tag %q is missing in production", tag),
				})
			case devOK && prodOK && devVal != prodVal:
				records = append(records, Record{
					Severity: SeverityInfo,
					Category: CategorySEO,
					Message:  fmt.Sprintf("meta tag %q differs between dev and prod", tag),
				})
			}
		}
	}

	return records
}

// appendCountDelta implements the shared shape of the script and image
// count rules: warning when prod grew, info when it shrank.
func appendCountDelta(records []Record, what string, dev, prod int, threshold *int) []Record {
	if threshold == nil {
		return records
	}
	delta := prod - dev
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	if abs <= *threshold {
		return records
	}

	severity := SeverityInfo
	direction := "decreased"
	if prod > dev {
		severity = SeverityWarning
		direction = "increased"
	}
	return append(records, Record{
		Severity:  severity,
		Category:  CategoryDOM,
		Message:   fmt.Sprintf("%s count %s by %d (dev %d, prod %d)", what, direction, abs, dev, prod),
		Threshold: fptr(float64(*threshold)),
		Actual:    fptr(float64(abs)),
	})
}

// appendScoreRegression alerts only when prod regressed relative to dev;
// prod doing better never alerts.
func appendScoreRegression(records []Record, category, what string, dev, prod, threshold *float64) []Record {
	if threshold == nil || dev == nil || prod == nil {
		return records
	}
	drop := *dev - *prod
	if drop <= *threshold {
		return records
	}
	return append(records, Record{
		Severity:  SeverityError,
		Category:  category,
		Message:   fmt.Sprintf("%s score regressed by %.1f points (dev %.1f, prod %.1f)", what, drop, *dev, *prod),
		Threshold: threshold,
		Actual:    fptr(drop),
	})
}
