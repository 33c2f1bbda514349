package history

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagediff/stagediff/internal/alert"
	"github.com/stagediff/stagediff/internal/compare"
	"github.com/stagediff/stagediff/internal/dom"
	"github.com/stagediff/stagediff/internal/logging"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"), logging.NewNopLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func sampleReport(at time.Time) *compare.Report {
	devScript := dom.ScriptFact{Src: sptr("/static/js/app.js"), Defer: true}
	prodScript := dom.ScriptFact{Src: sptr("/static/js/analytics.js"), Async: true}
	return &compare.Report{
		DevURL:      "https://dev.site/",
		ProdURL:     "https://prod.site/",
		GeneratedAt: at,
		AddedLines:  []string{`<script src="/static/js/analytics.js"></script>`},
		Dev: compare.Side{
			URL: "https://dev.site/",
			Snapshot: &dom.Snapshot{
				Scripts: dom.FactList{devScript},
				Styles:  dom.FactList{dom.StyleFact{Href: sptr("/static/css/main.css")}},
				Images:  dom.FactList{dom.ImageFact{Src: sptr("/static/img/logo.png"), Alt: sptr("logo")}},
			},
		},
		Prod: compare.Side{
			URL: "https://prod.site/",
			Snapshot: &dom.Snapshot{
				Scripts: dom.FactList{devScript, prodScript},
				Styles:  dom.FactList{dom.StyleFact{Href: sptr("/static/css/main.css")}},
			},
		},
		Tags: map[dom.Category]compare.TagCategoryDiff{
			dom.CategoryScript: {
				Diff:   dom.TagDiff{OnlyA: dom.FactList{}, OnlyB: dom.FactList{prodScript}},
				Paired: []dom.FactPair{{A: devScript, B: devScript}},
			},
		},
		Alerts: []alert.Record{
			{Severity: alert.SeverityWarning, Category: alert.CategoryDOM, Message: "script count increased by 1 (dev 1, prod 2)", Threshold: fptr(0), Actual: fptr(1)},
			{Severity: alert.SeverityInfo, Category: alert.CategorySEO, Message: `meta tag "description" differs between dev and prod`},
		},
		Summary: compare.Summary{
			LinesAdded:        1,
			ResourcesOnlyProd: 2,
			ResourcesCommon:   1,
			AlertCounts: map[alert.Severity]int{
				alert.SeverityWarning: 1,
				alert.SeverityInfo:    1,
			},
		},
	}
}

func TestAppendAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.Append(ctx, sampleReport(time.Unix(1700000000, 0)))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored record has no id")
	}

	got, err := s.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DevURL != "https://dev.site/" || got.ProdURL != "https://prod.site/" {
		t.Errorf("urls = %q / %q", got.DevURL, got.ProdURL)
	}
	if got.Report == nil {
		t.Fatal("Get must hydrate the full report")
	}
	if len(got.Report.AddedLines) != 1 {
		t.Errorf("report added lines = %d, want 1", len(got.Report.AddedLines))
	}
	// Element facts and tag diffs must come back as their concrete types.
	if got.Report.Prod.Snapshot == nil || len(got.Report.Prod.Snapshot.Scripts) != 2 {
		t.Fatalf("prod snapshot scripts = %+v, want 2 facts", got.Report.Prod.Snapshot)
	}
	sf, ok := got.Report.Prod.Snapshot.Scripts[1].(dom.ScriptFact)
	if !ok {
		t.Fatalf("scripts[1] is %T, want dom.ScriptFact", got.Report.Prod.Snapshot.Scripts[1])
	}
	if sf.Src == nil || *sf.Src != "/static/js/analytics.js" || !sf.Async {
		t.Errorf("script fact lost fields: %+v", sf)
	}
	scriptTags, ok := got.Report.Tags[dom.CategoryScript]
	if !ok {
		t.Fatal("script tag diff missing from stored report")
	}
	if len(scriptTags.Diff.OnlyB) != 1 || scriptTags.Diff.OnlyB[0].Key() != sf.Key() {
		t.Errorf("onlyB = %+v, want the analytics script", scriptTags.Diff.OnlyB)
	}
	if len(scriptTags.Paired) != 1 {
		t.Errorf("paired = %d, want 1", len(scriptTags.Paired))
	}
	if len(got.Alerts) != 2 {
		t.Fatalf("alerts = %d, want 2", len(got.Alerts))
	}
	// Alert order is preserved across the round trip.
	if got.Alerts[0].Severity != alert.SeverityWarning || got.Alerts[1].Severity != alert.SeverityInfo {
		t.Errorf("alert order lost: %v, %v", got.Alerts[0].Severity, got.Alerts[1].Severity)
	}
	if got.Alerts[0].Threshold == nil || *got.Alerts[0].Threshold != 0 {
		t.Errorf("threshold = %v, want 0", got.Alerts[0].Threshold)
	}
	if got.Alerts[1].Threshold != nil {
		t.Error("absent threshold must round-trip as nil")
	}
	if got.CreatedAt.Unix() != 1700000000 {
		t.Errorf("created_at = %v", got.CreatedAt)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestList_NewestFirstWithoutReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Append(ctx, sampleReport(time.Unix(int64(1700000000+i), 0))); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	records, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Errorf("list not newest first: %v then %v", records[0].CreatedAt, records[1].CreatedAt)
	}
	if records[0].Report != nil {
		t.Error("list results must not hydrate reports")
	}
	if records[0].Summary.AlertCounts[alert.SeverityWarning] != 1 {
		t.Errorf("alert counts = %v", records[0].Summary.AlertCounts)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty store: %v", err)
	}
	if stats.TotalComparisons != 0 || stats.FirstAt != nil || stats.LastAt != nil {
		t.Errorf("empty stats = %+v", stats)
	}

	for i := 0; i < 2; i++ {
		if _, err := s.Append(ctx, sampleReport(time.Unix(int64(1700000000+i), 0))); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalComparisons != 2 {
		t.Errorf("total comparisons = %d, want 2", stats.TotalComparisons)
	}
	if stats.TotalAlerts != 4 {
		t.Errorf("total alerts = %d, want 4", stats.TotalAlerts)
	}
	if stats.AlertsBySeverity[alert.SeverityWarning] != 2 {
		t.Errorf("warning count = %d, want 2", stats.AlertsBySeverity[alert.SeverityWarning])
	}
	if stats.FirstAt == nil || stats.LastAt == nil || stats.FirstAt.After(*stats.LastAt) {
		t.Errorf("first/last = %v / %v", stats.FirstAt, stats.LastAt)
	}
}

func TestExportJSON(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, sampleReport(time.Unix(1700000000, 0))); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportJSON(ctx, s, &buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var records []Record
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(records) != 1 || records[0].DevURL != "https://dev.site/" {
		t.Errorf("exported records = %+v", records)
	}
}

func TestExportJSON_EmptyStoreIsArray(t *testing.T) {
	s := newTestStore(t)

	var buf bytes.Buffer
	if err := ExportJSON(context.Background(), s, &buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var records []Record
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("empty export must decode as an array: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %d, want 0", len(records))
	}
}

func TestExportCSV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, sampleReport(time.Unix(1700000000, 0))); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportCSV(ctx, s, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("export is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header plus one", len(rows))
	}
	if rows[0][0] != "id" || rows[1][2] != "https://dev.site/" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if rows[1][9] != "2" {
		t.Errorf("alert count column = %q, want 2", rows[1][9])
	}
}
