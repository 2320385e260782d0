// Package crawler walks a single site breadth-first, bounded by page count
// and same-host filtering, and hands each fetched page to the extractor.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/answerly/knowledge/internal/extract"
)

// maxLinksPerPage caps how many same-host links discovered on one page are
// added to the frontier.
const maxLinksPerPage = 5

// Crawler owns the frontier (queue + visited set) for the duration of one
// crawl job. When rendering is false the crawler degrades to a single fetch
// of the root URL, which is the contract for deployments without a browser.
type Crawler struct {
	fetcher   PageFetcher
	rendering bool
	logger    *slog.Logger
}

func New(fetcher PageFetcher, rendering bool) *Crawler {
	return &Crawler{
		fetcher:   fetcher,
		rendering: rendering,
		logger:    slog.Default(),
	}
}

// Crawl walks the site rooted at rootURL breadth-first, visiting at most
// maxPages pages and never following a link off the root's host. Per-page
// failures are logged and skipped; only a completely unreachable root is
// fatal.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, maxPages int, perPageTimeout time.Duration) ([]extract.CrawlPage, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	root, err := url.Parse(rootURL)
	if err != nil || root.Hostname() == "" {
		return nil, fmt.Errorf("invalid root url %q: %w", rootURL, err)
	}

	if !c.rendering {
		return c.crawlRootOnly(ctx, rootURL, root, perPageTimeout)
	}

	queue := []string{rootURL}
	visited := make(map[string]bool)
	var pages []extract.CrawlPage

	for len(queue) > 0 && len(pages) < maxPages {
		if ctx.Err() != nil {
			c.logger.Warn("crawl deadline reached", "root", rootURL, "pages", len(pages))
			break
		}

		current := queue[0]
		queue = queue[1:]

		key := normalizeURL(current)
		if visited[key] {
			continue
		}
		visited[key] = true

		page, err := c.fetcher.Fetch(ctx, current, perPageTimeout)
		if err != nil {
			if len(pages) == 0 && len(queue) == 0 {
				return nil, fmt.Errorf("crawl failed: %w", err)
			}
			c.logger.Warn("skipping page", "url", current, "error", err)
			continue
		}
		pages = append(pages, page)

		enqueued := 0
		for _, link := range page.Links {
			if enqueued >= maxLinksPerPage {
				break
			}
			u, err := url.Parse(link)
			if err != nil || u.Hostname() != root.Hostname() {
				continue
			}
			if visited[normalizeURL(link)] {
				continue
			}
			queue = append(queue, link)
			enqueued++
		}
	}

	c.logger.Info("crawl complete", "root", rootURL, "pages", len(pages))
	return pages, nil
}

// crawlRootOnly is the no-rendering fallback: one plain fetch of the root,
// with a synthetic title when the page has none.
func (c *Crawler) crawlRootOnly(ctx context.Context, rootURL string, root *url.URL, timeout time.Duration) ([]extract.CrawlPage, error) {
	page, err := c.fetcher.Fetch(ctx, rootURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("crawl failed: %w", err)
	}
	if page.Title == "" {
		page.Title = root.Hostname()
	}
	c.logger.Info("crawl complete (single-page fallback)", "root", rootURL)
	return []extract.CrawlPage{page}, nil
}

// normalizeURL strips the fragment and any trailing slash so the visited
// set treats trivially different spellings of one page as the same URL.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	s := u.String()
	if len(s) > 1 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
