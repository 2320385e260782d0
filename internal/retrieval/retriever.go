// Package retrieval turns a free-text user message into a ranked set of
// knowledge records. The ranker is deliberately simple and explainable:
// additive lexical scores, no document-length normalization, no
// term-frequency weighting beyond whole-word versus substring.
package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/answerly/knowledge/internal/storage"
)

const (
	// DefaultLimit is how many candidates Query returns when the caller
	// passes a non-positive limit.
	DefaultLimit = 3

	// minScore is the confidence floor: candidates must score strictly
	// above it to be returned.
	minScore = 5

	// maxFilterTerms bounds how many expanded terms go into the substring
	// candidate fetch.
	maxFilterTerms = 20

	// candidateOverfetch widens the fetch beyond the requested limit so
	// scoring has enough material to rank.
	candidateOverfetch = 10
)

// ScoredCandidate is one ranked retrieval result, created fresh per query.
type ScoredCandidate struct {
	Content     string
	ContentType string
	Score       int
}

// RecordSearcher is the read-only storage capability the retriever needs.
type RecordSearcher interface {
	SearchRecords(tenantID string, terms []string, limit int) ([]storage.KnowledgeRecord, error)
}

// Retriever scores a tenant's stored records against a query.
type Retriever struct {
	store RecordSearcher
}

func NewRetriever(store RecordSearcher) *Retriever {
	return &Retriever{store: store}
}

// Query extracts keywords from text, expands them through the synonym
// table, fetches lexical-match candidates for the tenant, and returns the
// top results scoring above the confidence floor, at most limit of them.
func (r *Retriever) Query(tenantID, text string, limit int) ([]ScoredCandidate, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	keywords := ExtractKeywords(text)
	if len(keywords) == 0 {
		return nil, nil
	}
	expanded := ExpandKeywords(keywords)

	filterTerms := expanded
	if len(filterTerms) > maxFilterTerms {
		filterTerms = filterTerms[:maxFilterTerms]
	}

	records, err := r.store.SearchRecords(tenantID, filterTerms, limit+candidateOverfetch)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	contactIntent := HasContactIntent(expanded)
	expandedOnly := expandedOnlyTerms(keywords, expanded)

	candidates := make([]ScoredCandidate, 0, len(records))
	for _, rec := range records {
		score := scoreRecord(rec, keywords, expandedOnly, contactIntent)
		if score > minScore {
			candidates = append(candidates, ScoredCandidate{
				Content:     rec.Content,
				ContentType: rec.ContentType,
				Score:       score,
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// scoreRecord sums all positive contributions first, then applies the
// long-weak-match penalty once against that subtotal.
func scoreRecord(rec storage.KnowledgeRecord, keywords, expandedOnly []string, contactIntent bool) int {
	content := strings.ToLower(rec.Content)

	score := 0
	for _, kw := range keywords {
		switch {
		case containsWholeWord(content, kw):
			score += 10
		case strings.Contains(content, kw):
			score += 5
		}
	}

	for _, term := range expandedOnly {
		if strings.Contains(content, term) {
			score += 3
		}
	}

	switch rec.ContentType {
	case storage.TypeManualQA:
		score += 20
	case storage.TypeContact:
		if contactIntent {
			score += 15
		}
	}

	if rec.ContentType == storage.TypeScraped && len(rec.Content) > 500 && score < 10 {
		score -= 5
	}
	return score
}

// expandedOnlyTerms returns the terms synonym expansion pulled in that were
// not among the original keywords.
func expandedOnlyTerms(keywords, expanded []string) []string {
	original := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		original[kw] = true
	}

	var extra []string
	for _, term := range expanded {
		if !original[term] {
			extra = append(extra, term)
		}
	}
	return extra
}
