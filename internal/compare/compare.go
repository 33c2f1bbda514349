// Package compare orchestrates one dev/prod comparison: it runs the line
// differ, the fact extractor and reconcilers, the resource reconciler and
// folder differ, and the alert engine over a pair of already-fetched
// inputs, and assembles the Report consumed by the API and the history
// store. Everything here is pure and synchronous; fetching happened
// before Compare is called.
package compare

import (
	"sync"
	"time"

	"github.com/stagediff/stagediff/internal/alert"
	"github.com/stagediff/stagediff/internal/dom"
	"github.com/stagediff/stagediff/internal/logging"
	"github.com/stagediff/stagediff/internal/resource"
	"github.com/stagediff/stagediff/internal/textdiff"
)

// ExternalMetrics carries per-environment scores measured by collaborators
// (Lighthouse runs, link checkers). All fields are optional; missing data
// only reduces alert coverage.
type ExternalMetrics struct {
	PerformanceScore      *float64 `json:"performance_score,omitempty"`
	SEOScore              *float64 `json:"seo_score,omitempty"`
	LighthousePerformance *float64 `json:"lighthouse_performance,omitempty"`
	BrokenLinks           *int     `json:"broken_links,omitempty"`
}

// Input is everything one comparison consumes. The core is agnostic to
// how the HTML and resource lists were obtained.
type Input struct {
	DevURL  string
	ProdURL string

	DevHTML  string
	ProdHTML string

	DevResources  []resource.Resource
	ProdResources []resource.Resource

	DevMetrics  ExternalMetrics
	ProdMetrics ExternalMetrics

	// VisualDiffPercent is the changed-pixel percentage when a visual
	// comparison ran; nil otherwise.
	VisualDiffPercent *float64

	Thresholds alert.Thresholds

	// Marker overrides the static-asset marker; "" selects the default.
	Marker string

	// DenySegments skips resources under generated-artifact folders when
	// building trees.
	DenySegments []string
}

// TagCategoryDiff pairs the exact set reconciliation with the positional
// pairing used for rendering, kept separate per their different semantics.
type TagCategoryDiff struct {
	Diff   dom.TagDiff    `json:"diff"`
	Paired []dom.FactPair `json:"paired"`
}

// Side holds the per-environment derived structures.
type Side struct {
	URL      string               `json:"url"`
	Snapshot *dom.Snapshot        `json:"snapshot"`
	Tree     *resource.FolderNode `json:"tree"`
}

// Summary is the compact digest appended to the history store.
type Summary struct {
	LinesAdded        int                    `json:"lines_added"`
	LinesRemoved      int                    `json:"lines_removed"`
	ResourcesOnlyDev  int                    `json:"resources_only_dev"`
	ResourcesOnlyProd int                    `json:"resources_only_prod"`
	ResourcesCommon   int                    `json:"resources_common"`
	AlertCounts       map[alert.Severity]int `json:"alert_counts"`
}

// Report is the full result of one comparison.
type Report struct {
	DevURL      string    `json:"dev_url"`
	ProdURL     string    `json:"prod_url"`
	GeneratedAt time.Time `json:"generated_at"`

	Segments     []textdiff.Segment               `json:"segments"`
	Lines        []textdiff.DiffLine              `json:"lines"`
	Rows         []textdiff.AlignedRow            `json:"rows"`
	AddedLines   []string                         `json:"added_lines"`
	RemovedLines []string                         `json:"removed_lines"`
	Dev          Side                             `json:"dev"`
	Prod         Side                             `json:"prod"`
	Tags         map[dom.Category]TagCategoryDiff `json:"tags"`
	Resources    resource.Diff                    `json:"resources"`
	TreeDiff     resource.TreeDiff                `json:"tree_diff"`
	Alerts       []alert.Record                   `json:"alerts"`
	Summary      Summary                          `json:"summary"`
}

// tagCategories lists the element categories reconciled per comparison.
var tagCategories = []dom.Category{
	dom.CategoryScript,
	dom.CategoryStyle,
	dom.CategoryImage,
	dom.CategoryLink,
	dom.CategoryMeta,
	dom.CategoryHeading,
}

// Comparator runs comparisons. It holds no per-comparison state: every
// call takes both sides as explicit arguments and returns a fresh report.
type Comparator struct {
	logger logging.Logger
}

func New(logger logging.Logger) *Comparator {
	return &Comparator{
		logger: logger.With(logging.Field{Key: "component", Value: "comparator"}),
	}
}

// Compare runs every engine over in and assembles the report. The two
// sides are independent until reconciliation, so their extraction runs as
// a two-way fan-out.
func (c *Comparator) Compare(in Input) *Report {
	marker := in.Marker
	if marker == "" {
		marker = resource.DefaultMarker
	}

	report := &Report{
		DevURL:      in.DevURL,
		ProdURL:     in.ProdURL,
		GeneratedAt: time.Now().UTC(),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		report.Dev = Side{
			URL:      in.DevURL,
			Snapshot: dom.Extract(in.DevHTML),
			Tree:     resource.BuildTree(in.DevResources, marker, in.DenySegments),
		}
	}()
	go func() {
		defer wg.Done()
		report.Prod = Side{
			URL:      in.ProdURL,
			Snapshot: dom.Extract(in.ProdHTML),
			Tree:     resource.BuildTree(in.ProdResources, marker, in.DenySegments),
		}
	}()
	wg.Wait()

	report.Segments = textdiff.DiffLines(in.DevHTML, in.ProdHTML)
	report.Lines = textdiff.Flatten(report.Segments)
	report.Rows = textdiff.AlignSegments(report.Segments)
	report.AddedLines, report.RemovedLines = textdiff.Changes(report.Segments)

	report.Tags = make(map[dom.Category]TagCategoryDiff, len(tagCategories))
	for _, cat := range tagCategories {
		a := report.Dev.Snapshot.Facts(cat)
		b := report.Prod.Snapshot.Facts(cat)
		report.Tags[cat] = TagCategoryDiff{
			Diff:   dom.Reconcile(a, b),
			Paired: dom.Pair(a, b),
		}
	}

	report.Resources = resource.Reconcile(in.DevResources, in.ProdResources, marker)
	report.TreeDiff = resource.DiffTrees(report.Dev.Tree, report.Prod.Tree)

	report.Alerts = alert.Evaluate(alert.Comparison{
		Dev:               c.metrics(in.DevHTML, report.Dev.Snapshot, in.DevMetrics),
		Prod:              c.metrics(in.ProdHTML, report.Prod.Snapshot, in.ProdMetrics),
		VisualDiffPercent: in.VisualDiffPercent,
	}, in.Thresholds)

	report.Summary = c.summarize(report)

	c.logger.Info("comparison complete",
		logging.Field{Key: "dev_url", Value: in.DevURL},
		logging.Field{Key: "prod_url", Value: in.ProdURL},
		logging.Field{Key: "alerts", Value: len(report.Alerts)})

	return report
}

// criticalMetaTags mirrors the fixed set the alert engine checks.
var criticalMetaTags = []string{"description", "og:title", "og:description"}

func (c *Comparator) metrics(html string, snap *dom.Snapshot, ext ExternalMetrics) alert.Metrics {
	meta := make(map[string]string, len(criticalMetaTags))
	for _, tag := range criticalMetaTags {
		if content, ok := snap.MetaContent(tag); ok {
			meta[tag] = content
		}
	}
	return alert.Metrics{
		HTMLBytes:             len(html),
		ScriptCount:           snap.Counts.Scripts,
		ImageCount:            snap.Counts.Images,
		PerformanceScore:      ext.PerformanceScore,
		SEOScore:              ext.SEOScore,
		LighthousePerformance: ext.LighthousePerformance,
		BrokenLinks:           ext.BrokenLinks,
		MetaTags:              meta,
	}
}

func (c *Comparator) summarize(r *Report) Summary {
	s := Summary{AlertCounts: make(map[alert.Severity]int)}
	s.LinesAdded = len(r.AddedLines)
	s.LinesRemoved = len(r.RemovedLines)
	for _, cat := range r.Resources {
		s.ResourcesOnlyDev += len(cat.OnlyA)
		s.ResourcesOnlyProd += len(cat.OnlyB)
		s.ResourcesCommon += len(cat.Common)
	}
	for _, a := range r.Alerts {
		s.AlertCounts[a.Severity]++
	}
	return s
}
