package resource

import (
	"reflect"
	"testing"
)

func TestNormalizedKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
		want string
	}{
		{"marker truncation", "https://dev.site/app/v2/static/js/app.js", "/static/js/app.js"},
		{"host ignored", "https://prod.site/static/js/app.js", "/static/js/app.js"},
		{"query stripped", "https://dev.site/static/js/app.js?v=1", "/static/js/app.js"},
		{"fragment stripped", "https://dev.site/static/js/app.js#main", "/static/js/app.js"},
		{"no marker keeps full path", "https://dev.site/assets/app.js", "/assets/app.js"},
		{"marker is whole segment", "https://dev.site/staticfiles/app.js", "/staticfiles/app.js"},
		{"relative path", "/static/css/x.css", "/static/css/x.css"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizedKey(tc.url, DefaultMarker)
			if !ok {
				t.Fatalf("url %q did not parse", tc.url)
			}
			if got != tc.want {
				t.Errorf("NormalizedKey(%q) = %q, want %q", tc.url, got, tc.want)
			}
		})
	}
}

func TestNormalizedKey_Idempotent(t *testing.T) {
	first, _ := NormalizedKey("https://dev.site/static/js/app.js?v=1", DefaultMarker)
	second, _ := NormalizedKey(first, DefaultMarker)
	if first != second {
		t.Errorf("normalizing twice changed the key: %q -> %q", first, second)
	}
}

func TestNormalizedKey_HostAndQueryInvariance(t *testing.T) {
	a, _ := NormalizedKey("https://dev.site/static/js/app.js?v=1", DefaultMarker)
	b, _ := NormalizedKey("https://prod.example.net/static/js/app.js?v=2", DefaultMarker)
	if a != b {
		t.Errorf("host/query variations must share a normalized key: %q vs %q", a, b)
	}

	ca, _ := ComparisonKey("https://dev.site/static/js/app.js?v=1", DefaultMarker)
	cb, _ := ComparisonKey("https://prod.example.net/static/js/app.js?v=2", DefaultMarker)
	if ca == cb {
		t.Error("comparison keys must keep the query and differ")
	}
	if ca != "/static/js/app.js?v=1" {
		t.Errorf("comparison key = %q", ca)
	}
}

func TestNormalizedKey_UnparseableFallsBack(t *testing.T) {
	raw := "http://bad url with spaces/%zz"
	key, ok := NormalizedKey(raw, DefaultMarker)
	if ok {
		t.Fatal("expected parse failure")
	}
	if key != raw {
		t.Errorf("fallback key = %q, want the literal raw URL", key)
	}
}

func TestPathSegments(t *testing.T) {
	got := PathSegments("/static/js/app.js")
	want := []string{"static", "js", "app.js"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PathSegments = %v, want %v", got, want)
	}
	if got := PathSegments(""); len(got) != 0 {
		t.Errorf("empty key should yield no segments, got %v", got)
	}
}
