// Package extract turns raw HTML into the page representation the
// ingestion pipeline consumes: a title, a bounded main-content text block,
// and the page's outbound links.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MaxContentLength bounds extracted page content so a single page cannot
// blow up downstream storage.
const MaxContentLength = 10000

// CrawlPage is the transient result of extracting one fetched page.
// It is consumed by the knowledge-base builder and discarded.
type CrawlPage struct {
	URL     string
	Title   string
	Content string
	Links   []string
}

// Selectors tried in priority order for the main content block: semantic
// main regions first, then common content-container conventions, then the
// whole body as a last resort.
var contentSelectors = []string{
	"main",
	"article",
	"[role=main]",
	"#content",
	".content",
	"#main",
	".main",
	"body",
}

var nonContentSelector = "script, style, noscript, nav, header, footer, iframe"

var (
	spaceRuns   = regexp.MustCompile(`[^\S\n]+`)
	newlineRuns = regexp.MustCompile(`\n[\s\n]*\n`)
)

// Extract parses html and returns the page's title, main content, and
// outbound links. Malformed markup never fails: the parser is lenient and
// missing pieces simply come back empty.
func Extract(htmlSrc, pageURL string) (CrawlPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return CrawlPage{}, err
	}

	doc.Find(nonContentSelector).Remove()

	page := CrawlPage{
		URL:     pageURL,
		Title:   extractTitle(doc),
		Content: extractContent(doc),
		Links:   extractLinks(doc, pageURL),
	}
	return page, nil
}

// extractTitle returns the document title, falling back to the first
// non-empty heading.
func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title != "" {
		return title
	}

	var heading string
	doc.Find("h1, h2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := strings.TrimSpace(s.Text()); t != "" {
			heading = t
			return false
		}
		return true
	})
	return heading
}

// extractContent returns the first non-empty text block from the selector
// priority list, whitespace-collapsed and capped at MaxContentLength runes.
func extractContent(doc *goquery.Document) string {
	for _, sel := range contentSelectors {
		text := CollapseWhitespace(doc.Find(sel).First().Text())
		if text != "" {
			return truncate(text, MaxContentLength)
		}
	}
	return ""
}

// extractLinks resolves every hyperlink against pageURL, drops anything
// unparseable or non-HTTP, and deduplicates the result.
func extractLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		abs.Fragment = ""
		link := abs.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links
}

// CollapseWhitespace squeezes runs of spaces and tabs into a single space
// and runs of newlines into a single newline.
func CollapseWhitespace(s string) string {
	s = spaceRuns.ReplaceAllString(s, " ")
	s = newlineRuns.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
