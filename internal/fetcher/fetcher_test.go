package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stagediff/stagediff/internal/logging"
	"github.com/stagediff/stagediff/internal/resource"
	"github.com/stagediff/stagediff/internal/webclient"
)

func newTestClient(t *testing.T) *webclient.NetHTTPClient {
	t.Helper()
	wc, err := webclient.NewNetHTTPClient(webclient.Config{}, logging.NewNopLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return wc
}

func TestFillContent_TextResourcesOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/static/js/app.js":
			w.Write([]byte("var app = 1;"))
		case "/static/css/app.css":
			w.Write([]byte("body{}"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := New(0, newTestClient(t), logging.NewNopLogger())
	in := []resource.Resource{
		{URL: srv.URL + "/static/js/app.js", Type: resource.TypeScript},
		{URL: srv.URL + "/static/css/app.css", Type: resource.TypeStylesheet},
		{URL: srv.URL + "/static/img/logo.png", Type: resource.TypeImage},
	}

	out := f.FillContent(context.Background(), in)

	if out[0].Content == nil || *out[0].Content != "var app = 1;" {
		t.Errorf("script content = %v", out[0].Content)
	}
	if out[0].Size == nil || *out[0].Size != int64(len("var app = 1;")) {
		t.Errorf("script size = %v", out[0].Size)
	}
	if out[1].Content == nil || *out[1].Content != "body{}" {
		t.Errorf("stylesheet content = %v", out[1].Content)
	}
	if out[2].Content != nil {
		t.Error("image content must stay nil")
	}
	// Input slice is never mutated.
	if in[0].Content != nil {
		t.Error("FillContent mutated its input")
	}
}

func TestFillContent_FailureLeavesContentAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(2, newTestClient(t), logging.NewNopLogger())
	out := f.FillContent(context.Background(), []resource.Resource{
		{URL: srv.URL + "/missing.js", Type: resource.TypeScript},
	})

	if out[0].Content != nil {
		t.Error("404 fetch must leave content nil, not empty")
	}
}

func TestFillContent_BoundedConcurrency(t *testing.T) {
	const window = 3

	var mu sync.Mutex
	active, peak := 0, 0
	gate := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		<-gate

		mu.Lock()
		active--
		mu.Unlock()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New(window, newTestClient(t), logging.NewNopLogger())

	var in []resource.Resource
	for i := 0; i < 10; i++ {
		in = append(in, resource.Resource{URL: srv.URL + "/a.js", Type: resource.TypeScript})
	}

	done := make(chan struct{})
	go func() {
		f.FillContent(context.Background(), in)
		close(done)
	}()

	close(gate)
	<-done

	if peak > window {
		t.Errorf("peak concurrency = %d, want <= %d", peak, window)
	}
}
