package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/html/charset"

	"github.com/answerly/knowledge/internal/extract"
)

const maxFetchSize = 5 << 20 // 5MB

// PageFetcher fetches one URL and returns its extracted page. Two variants
// exist: a headless-browser fetch that renders JavaScript, and a plain HTTP
// fetch used when no rendering engine is available.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string, timeout time.Duration) (extract.CrawlPage, error)
}

// RenderingFetcher drives a shared headless browser. Each Fetch opens a new
// tab context with its own timeout, so one slow page cannot wedge the rest
// of the crawl.
type RenderingFetcher struct {
	browserCtx context.Context
	cancel     context.CancelFunc
}

// NewRenderingFetcher starts a headless browser and probes that it is
// actually usable. Returns an error when no browser can be launched; the
// caller is expected to fall back to PlainFetcher.
func NewRenderingFetcher(ctx context.Context) (*RenderingFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// Probe: starting the browser lazily happens on the first Run. A short
	// no-op run tells us now whether the environment has a browser at all.
	probeCtx, probeCancel := context.WithTimeout(browserCtx, 15*time.Second)
	defer probeCancel()
	if err := chromedp.Run(probeCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("launching headless browser: %w", err)
	}

	return &RenderingFetcher{browserCtx: browserCtx, cancel: cancel}, nil
}

// Close shuts the browser down.
func (f *RenderingFetcher) Close() {
	f.cancel()
}

func (f *RenderingFetcher) Fetch(ctx context.Context, pageURL string, timeout time.Duration) (extract.CrawlPage, error) {
	tabCtx, tabCancel := chromedp.NewContext(f.browserCtx)
	defer tabCancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, timeout)
	defer timeoutCancel()

	// Stop the tab early if the caller's context dies first.
	go func() {
		select {
		case <-ctx.Done():
			timeoutCancel()
		case <-timeoutCtx.Done():
		}
	}()

	var pageHTML string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &pageHTML),
	)
	if err != nil {
		return extract.CrawlPage{}, fmt.Errorf("rendering %s: %w", pageURL, err)
	}

	return extract.Extract(pageHTML, pageURL)
}

// PlainFetcher does a plain HTTP GET with no JavaScript rendering. Coverage
// degrades on script-heavy sites but the tenant still gets a knowledge base.
type PlainFetcher struct {
	client *http.Client
}

func NewPlainFetcher(client *http.Client) *PlainFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &PlainFetcher{client: client}
}

func (f *PlainFetcher) Fetch(ctx context.Context, pageURL string, timeout time.Duration) (extract.CrawlPage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return extract.CrawlPage{}, fmt.Errorf("building request for %s: %w", pageURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return extract.CrawlPage{}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return extract.CrawlPage{}, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	// Decode legacy charsets to UTF-8 before parsing.
	reader, err := charset.NewReader(io.LimitReader(resp.Body, maxFetchSize), resp.Header.Get("Content-Type"))
	if err != nil {
		return extract.CrawlPage{}, fmt.Errorf("decoding %s: %w", pageURL, err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return extract.CrawlPage{}, fmt.Errorf("reading %s: %w", pageURL, err)
	}

	return extract.Extract(string(body), pageURL)
}

// DetectFetcher picks the rendering fetcher when a headless browser is
// available and falls back to plain HTTP otherwise. The returned cleanup
// function releases browser resources and is always safe to call.
func DetectFetcher(ctx context.Context) (PageFetcher, bool, func()) {
	rf, err := NewRenderingFetcher(ctx)
	if err != nil {
		slog.Warn("headless browser unavailable, using plain HTTP fetcher", "error", err)
		return NewPlainFetcher(nil), false, func() {}
	}
	return rf, true, rf.Close
}
