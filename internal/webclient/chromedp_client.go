package webclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/stagediff/stagediff/internal/logging"
)

// ChromedpClient renders a page in headless Chrome before capturing its
// HTML. Use it when the compared environments build the DOM with
// JavaScript; the nethttp backend is cheaper for server-rendered pages.
type ChromedpClient struct {
	timeout time.Duration
	logger  logging.Logger
}

func NewChromedpClient(cfg Config, logger logging.Logger) (*ChromedpClient, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	componentLogger := logger.With(logging.Field{Key: "backend", Value: "chromedp"})
	componentLogger.Info("created chromedp webclient",
		logging.Field{Key: "timeout", Value: timeout.String()})

	return &ChromedpClient{timeout: timeout, logger: componentLogger}, nil
}

// waitNetworkIdle signals once no network request has been in flight for
// idleAfter. Rendered pages keep loading resources well past DOMContentLoaded,
// so capturing the HTML too early misses lazily injected nodes.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	chromedp.ListenTarget(ctx,
		func(ev any) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt32(&activeReqs, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				if atomic.AddInt32(&activeReqs, -1) == 0 {
					startTimer()
				}
			}
		})

	// Arm the timer immediately so a page with no subresources still
	// reports idle.
	startTimer()

	return idleChan
}

// Do navigates to req.URL, waits for the network to go idle, and returns
// the rendered outer HTML as the response body.
func (cdc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	cdc.logger.Debug("rendering page", logging.Field{Key: "url", Value: req.URL})

	ctx, cancel := context.WithTimeout(ctx, cdc.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(ctx)
	defer browserCancel()

	waitIdleChan := waitNetworkIdle(browserCtx, 2*time.Second)

	if err := chromedp.Run(browserCtx, chromedp.Navigate(req.URL)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", req.URL, err)
	}

	select {
	case <-waitIdleChan:
	case <-browserCtx.Done():
		return nil, fmt.Errorf("render %s: %w", req.URL, browserCtx.Err())
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, fmt.Errorf("capture html for %s: %w", req.URL, err)
	}

	return &Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    http.Header{},
		StatusCode: http.StatusOK,
		FetchedAt:  time.Now(),
	}, nil
}

func (cdc *ChromedpClient) Close() error {
	cdc.logger.Info("closing chromedp webclient")
	return nil
}
