// Package fetcher populates resource content for text-based assets so the
// folder differ can flag files whose contents changed between environments.
package fetcher

import (
	"context"
	"net/http"
	"sync"

	"github.com/stagediff/stagediff/internal/logging"
	"github.com/stagediff/stagediff/internal/resource"
	"github.com/stagediff/stagediff/internal/webclient"
)

// DefaultMaxConcurrency bounds the per-comparison fetch fan-out.
const DefaultMaxConcurrency = 5

// Fetcher fans resource-content fetches out over a bounded worker window.
type Fetcher struct {
	MaxConcurrency int
	wc             webclient.WebClient
	logger         logging.Logger
}

// New creates a Fetcher over the given webclient. maxConcurrency <= 0
// selects the default window.
func New(maxConcurrency int, wc webclient.WebClient, logger logging.Logger) *Fetcher {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Fetcher{
		MaxConcurrency: maxConcurrency,
		wc:             wc,
		logger:         logger.With(logging.Field{Key: "component", Value: "fetcher"}),
	}
}

// FillContent returns a copy of resources where every text-based resource
// (script, stylesheet) that could be fetched carries its content and size.
// A failed or skipped fetch leaves Content nil; "not fetched" is a valid
// state downstream, never an error. Resources of other types pass through
// untouched.
func (f *Fetcher) FillContent(ctx context.Context, resources []resource.Resource) []resource.Resource {
	out := make([]resource.Resource, len(resources))
	copy(out, resources)

	var wg sync.WaitGroup
	sem := make(chan struct{}, f.MaxConcurrency)

	for i := range out {
		if !textBased(out[i].Type) || out[i].Content != nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			res := &out[i]
			resp, err := f.wc.Do(ctx, &webclient.Request{Method: http.MethodGet, URL: res.URL})
			if err != nil {
				f.logger.Warn("error while fetching resource content",
					logging.Field{Key: "url", Value: res.URL},
					logging.Field{Key: "error", Value: err.Error()})
				return
			}
			if resp.StatusCode != http.StatusOK {
				f.logger.Debug("skipping non-200 resource",
					logging.Field{Key: "url", Value: res.URL},
					logging.Field{Key: "status", Value: resp.StatusCode})
				return
			}

			content := string(resp.Body)
			res.Content = &content
			if res.Size == nil {
				size := int64(len(resp.Body))
				res.Size = &size
			}
		}(i)
	}

	wg.Wait()
	return out
}

func textBased(t resource.Type) bool {
	return t == resource.TypeScript || t == resource.TypeStylesheet
}
