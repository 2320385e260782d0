package crawler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/answerly/knowledge/internal/extract"
)

// fakeFetcher serves canned pages and records which URLs were fetched.
type fakeFetcher struct {
	pages   map[string]extract.CrawlPage
	errs    map[string]error
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string, _ time.Duration) (extract.CrawlPage, error) {
	f.fetched = append(f.fetched, pageURL)
	if err, ok := f.errs[pageURL]; ok {
		return extract.CrawlPage{}, err
	}
	page, ok := f.pages[pageURL]
	if !ok {
		return extract.CrawlPage{}, fmt.Errorf("no such page %s", pageURL)
	}
	return page, nil
}

func TestCrawlBreadthFirstWithinHost(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]extract.CrawlPage{
		"https://acme.example": {
			URL:   "https://acme.example",
			Title: "Home",
			Links: []string{
				"https://acme.example/about",
				"https://other.example/elsewhere",
				"https://acme.example/services",
			},
		},
		"https://acme.example/about":    {URL: "https://acme.example/about", Title: "About"},
		"https://acme.example/services": {URL: "https://acme.example/services", Title: "Services"},
	}}

	pages, err := New(fetcher, true).Crawl(context.Background(), "https://acme.example", 10, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	for _, url := range fetcher.fetched {
		if url == "https://other.example/elsewhere" {
			t.Error("crawler followed a cross-host link")
		}
	}
	if pages[0].Title != "Home" || pages[1].Title != "About" || pages[2].Title != "Services" {
		t.Errorf("unexpected page order: %v, %v, %v", pages[0].Title, pages[1].Title, pages[2].Title)
	}
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	pages := map[string]extract.CrawlPage{}
	for i := 0; i < 20; i++ {
		url := fmt.Sprintf("https://acme.example/p%d", i)
		next := fmt.Sprintf("https://acme.example/p%d", i+1)
		pages[url] = extract.CrawlPage{URL: url, Links: []string{next}}
	}
	fetcher := &fakeFetcher{pages: pages}

	got, err := New(fetcher, true).Crawl(context.Background(), "https://acme.example/p0", 5, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("got %d pages, want 5", len(got))
	}
}

func TestCrawlSkipsVisitedURLs(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]extract.CrawlPage{
		"https://acme.example": {
			URL:   "https://acme.example",
			Links: []string{"https://acme.example/a", "https://acme.example/a#section"},
		},
		"https://acme.example/a": {URL: "https://acme.example/a", Links: []string{"https://acme.example"}},
	}}

	got, err := New(fetcher, true).Crawl(context.Background(), "https://acme.example", 10, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d pages, want 2", len(got))
	}
	if len(fetcher.fetched) != 2 {
		t.Errorf("fetched %v, want each URL fetched once", fetcher.fetched)
	}
}

func TestCrawlEnqueuesAtMostFiveLinksPerPage(t *testing.T) {
	var links []string
	pages := map[string]extract.CrawlPage{}
	for i := 0; i < 8; i++ {
		url := fmt.Sprintf("https://acme.example/l%d", i)
		links = append(links, url)
		pages[url] = extract.CrawlPage{URL: url}
	}
	pages["https://acme.example"] = extract.CrawlPage{URL: "https://acme.example", Links: links}
	fetcher := &fakeFetcher{pages: pages}

	got, err := New(fetcher, true).Crawl(context.Background(), "https://acme.example", 20, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	// Root plus at most 5 of its links.
	if len(got) != 6 {
		t.Errorf("got %d pages, want 6", len(got))
	}
}

func TestCrawlSkipsFailingPages(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[string]extract.CrawlPage{
			"https://acme.example": {
				URL:   "https://acme.example",
				Links: []string{"https://acme.example/broken", "https://acme.example/ok"},
			},
			"https://acme.example/ok": {URL: "https://acme.example/ok"},
		},
		errs: map[string]error{"https://acme.example/broken": fmt.Errorf("timeout")},
	}

	got, err := New(fetcher, true).Crawl(context.Background(), "https://acme.example", 10, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d pages, want 2 (broken page skipped)", len(got))
	}
}

func TestCrawlUnreachableRootIsFatal(t *testing.T) {
	fetcher := &fakeFetcher{errs: map[string]error{"https://gone.example": fmt.Errorf("connection refused")}}

	_, err := New(fetcher, true).Crawl(context.Background(), "https://gone.example", 10, time.Second)
	if err == nil {
		t.Fatal("expected error for unreachable root")
	}
}

func TestCrawlInvalidRootURL(t *testing.T) {
	fetcher := &fakeFetcher{}
	if _, err := New(fetcher, true).Crawl(context.Background(), "not a url", 10, time.Second); err == nil {
		t.Fatal("expected error for invalid root url")
	}
}

func TestCrawlSinglePageFallback(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]extract.CrawlPage{
		"https://acme.example": {
			URL:   "https://acme.example",
			Links: []string{"https://acme.example/about"},
		},
	}}

	got, err := New(fetcher, false).Crawl(context.Background(), "https://acme.example", 10, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d pages, want exactly 1 in fallback mode", len(got))
	}
	if got[0].Title != "acme.example" {
		t.Errorf("synthetic title = %q, want hostname", got[0].Title)
	}
	if len(fetcher.fetched) != 1 {
		t.Errorf("fallback fetched %v, want only the root", fetcher.fetched)
	}
}

func TestCrawlDeadlineStopsFrontier(t *testing.T) {
	pages := map[string]extract.CrawlPage{}
	for i := 0; i < 10; i++ {
		url := fmt.Sprintf("https://acme.example/p%d", i)
		pages[url] = extract.CrawlPage{URL: url, Links: []string{fmt.Sprintf("https://acme.example/p%d", i+1)}}
	}
	fetcher := &fakeFetcher{pages: pages}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := New(fetcher, true).Crawl(ctx, "https://acme.example/p0", 10, time.Second)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d pages with cancelled context, want 0", len(got))
	}
}
