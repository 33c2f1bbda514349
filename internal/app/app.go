// Package app wires the fetch, discovery, comparison, and history layers
// into a single runner used by both the CLI and the API server.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/stagediff/stagediff/internal/alert"
	"github.com/stagediff/stagediff/internal/compare"
	"github.com/stagediff/stagediff/internal/discover"
	"github.com/stagediff/stagediff/internal/fetcher"
	"github.com/stagediff/stagediff/internal/history"
	"github.com/stagediff/stagediff/internal/logging"
	"github.com/stagediff/stagediff/internal/resource"
	"github.com/stagediff/stagediff/internal/urlutil"
	"github.com/stagediff/stagediff/internal/webclient"
)

// Stage names a phase of a comparison run, reported over progress callbacks
// and the websocket stream.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageDiscovering Stage = "discovering"
	StageComparing   Stage = "comparing"
	StageStoring     Stage = "storing"
	StageDone        Stage = "done"
)

// ProgressFunc receives stage transitions during a run. May be nil.
type ProgressFunc func(stage Stage, detail string)

// RunRequest describes one comparison run.
type RunRequest struct {
	DevURL  string `json:"dev_url"`
	ProdURL string `json:"prod_url"`

	DevMetrics  compare.ExternalMetrics `json:"dev_metrics,omitempty"`
	ProdMetrics compare.ExternalMetrics `json:"prod_metrics,omitempty"`

	VisualDiffPercent *float64 `json:"visual_diff_percent,omitempty"`

	// Thresholds overrides the configured preset when non-nil.
	Thresholds *alert.Thresholds `json:"thresholds,omitempty"`
}

// App owns the long-lived collaborators of a comparison pipeline.
type App struct {
	cfg        *Config
	logger     logging.Logger
	wc         webclient.WebClient
	fetcher    *fetcher.Fetcher
	comparator *compare.Comparator
	store      history.Store
}

// New builds the pipeline from cfg. The caller owns Close.
func New(cfg *Config, logger logging.Logger) (*App, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("stagediff")
	}

	wc, err := webclient.New(cfg.WebClientCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating webclient: %w", err)
	}

	store, err := history.NewSQLiteStore(cfg.DBPath, logger)
	if err != nil {
		wc.Close()
		return nil, fmt.Errorf("opening history store: %w", err)
	}

	return &App{
		cfg:        cfg,
		logger:     logger.With(logging.Field{Key: "component", Value: "app"}),
		wc:         wc,
		fetcher:    fetcher.New(cfg.MaxConcurrency, wc, logger),
		comparator: compare.New(logger),
		store:      store,
	}, nil
}

// Store exposes the history store for the API server's read endpoints.
func (a *App) Store() history.Store {
	return a.store
}

// Run executes one full comparison: fetch both environments, discover and
// fill their resources, compare, and append the result to history.
func (a *App) Run(ctx context.Context, req RunRequest, progress ProgressFunc) (*history.Record, error) {
	if progress == nil {
		progress = func(Stage, string) {}
	}

	devURL, err := urlutil.Canonicalize(req.DevURL, a.cfg.URLCfg)
	if err != nil {
		return nil, fmt.Errorf("invalid dev url: %w", err)
	}
	prodURL, err := urlutil.Canonicalize(req.ProdURL, a.cfg.URLCfg)
	if err != nil {
		return nil, fmt.Errorf("invalid prod url: %w", err)
	}

	progress(StageFetching, devURL+" and "+prodURL)

	type side struct {
		html      string
		resources []resource.Resource
		err       error
	}
	var dev, prod side

	// Both environments are fetched and discovered independently.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dev.html, dev.resources, dev.err = a.fetchSide(ctx, devURL, progress)
	}()
	go func() {
		defer wg.Done()
		prod.html, prod.resources, prod.err = a.fetchSide(ctx, prodURL, progress)
	}()
	wg.Wait()

	if dev.err != nil {
		return nil, fmt.Errorf("fetching dev environment: %w", dev.err)
	}
	if prod.err != nil {
		return nil, fmt.Errorf("fetching prod environment: %w", prod.err)
	}

	progress(StageComparing, "")

	report := a.comparator.Compare(compare.Input{
		DevURL:            devURL,
		ProdURL:           prodURL,
		DevHTML:           dev.html,
		ProdHTML:          prod.html,
		DevResources:      dev.resources,
		ProdResources:     prod.resources,
		DevMetrics:        req.DevMetrics,
		ProdMetrics:       req.ProdMetrics,
		VisualDiffPercent: req.VisualDiffPercent,
		Thresholds:        a.thresholds(req.Thresholds),
		Marker:            a.cfg.Marker,
		DenySegments:      a.cfg.DenySegments,
	})

	progress(StageStoring, "")

	record, err := a.store.Append(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("storing comparison: %w", err)
	}

	progress(StageDone, record.ID)

	a.logger.Info("run complete",
		logging.Field{Key: "id", Value: record.ID},
		logging.Field{Key: "alerts", Value: len(record.Alerts)})

	return record, nil
}

func (a *App) fetchSide(ctx context.Context, pageURL string, progress ProgressFunc) (string, []resource.Resource, error) {
	resp, err := a.wc.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: pageURL})
	if err != nil {
		return "", nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	html := string(resp.Body)

	progress(StageDiscovering, pageURL)
	resources := discover.Resources(html, pageURL)
	resources = a.fetcher.FillContent(ctx, resources)

	return html, resources, nil
}

// thresholds resolves the per-request override, falling back to the
// configured preset.
func (a *App) thresholds(override *alert.Thresholds) alert.Thresholds {
	if override != nil {
		return *override
	}
	if a.cfg.Preset == "strict" {
		return alert.StrictThresholds()
	}
	return alert.DefaultThresholds()
}

// Close releases the webclient and the history store.
func (a *App) Close() error {
	var firstErr error
	if a.wc != nil {
		if err := a.wc.Close(); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
