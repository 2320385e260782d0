// Package composer turns a ranked retrieval result set (or its absence)
// into the final chat reply. The decision ladder is fixed: greeting, then
// the top-result shortcut, then combined snippets, then profile-field
// heuristics, then a generic fallback. Later rules only run when every
// earlier rule produced nothing.
package composer

import (
	"fmt"
	"strings"

	"github.com/answerly/knowledge/internal/retrieval"
	"github.com/answerly/knowledge/internal/storage"
)

const snippetSeparator = "\n\n---\n\n"

var greetings = map[string]bool{
	"hi":           true,
	"hello":        true,
	"hey":          true,
	"greetings":    true,
	"good morning": true,
}

// vagueIntentWords trigger the business-description answer when the query
// matched nothing concrete but still sounds like a request for information.
var vagueIntentWords = map[string]bool{
	"more": true, "about": true, "info": true, "detail": true,
	"describe": true, "tell": true, "what": true, "it": true,
}

// Compose renders the reply for query given the tenant's profile and the
// ranked results. It always returns a non-empty answer; absence of data is
// a handled state, not an error.
func Compose(query string, tenant storage.Tenant, results []retrieval.ScoredCandidate) string {
	normalized := normalize(query)

	if greetings[normalized] {
		return fmt.Sprintf("Hi there! Welcome to %s. How can I help you today?", tenant.BusinessName)
	}

	if len(results) > 0 {
		top := results[0]
		if top.ContentType == storage.TypeManualQA || top.ContentType == storage.TypeContact {
			return top.Content
		}
		return combineSnippets(results)
	}

	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "contact", "email", "phone", "call"):
		return contactAnswer(tenant)
	case containsAny(lower, "address", "location", "located", "where"):
		return addressAnswer(tenant)
	case containsAny(lower, "website", "site", "url"):
		return websiteAnswer(tenant)
	}

	if hasVagueIntent(normalized) && tenant.Description != "" {
		return fmt.Sprintf("%s\n\nFor more details, feel free to contact us at %s.", tenant.Description, tenant.Email)
	}

	return fmt.Sprintf("I couldn't find an answer to that. Please contact us at %s and we'll be happy to help.", tenant.Email)
}

// combineSnippets joins the top two results with a visual separator.
func combineSnippets(results []retrieval.ScoredCandidate) string {
	n := len(results)
	if n > 2 {
		n = 2
	}
	parts := make([]string, 0, n)
	for _, r := range results[:n] {
		parts = append(parts, strings.TrimSpace(r.Content))
	}
	return fmt.Sprintf("Here's what I found:\n\n%s\n\nIs there anything else I can help you with?",
		strings.Join(parts, snippetSeparator))
}

func contactAnswer(t storage.Tenant) string {
	var sb strings.Builder
	sb.WriteString("You can reach us")
	if t.Email != "" {
		sb.WriteString(" by email at " + t.Email)
	}
	if t.Phone != "" {
		if t.Email != "" {
			sb.WriteString(" or")
		}
		sb.WriteString(" by phone at " + t.Phone)
	}
	sb.WriteString(".")
	return sb.String()
}

func addressAnswer(t storage.Tenant) string {
	if t.Address == "" {
		return fmt.Sprintf("Please contact us at %s for location details.", t.Email)
	}
	return fmt.Sprintf("You can find us at %s.", t.Address)
}

func websiteAnswer(t storage.Tenant) string {
	if t.Website == "" {
		return fmt.Sprintf("Please contact us at %s for more information.", t.Email)
	}
	return fmt.Sprintf("Visit our website at %s.", t.Website)
}

// normalize lowercases and strips punctuation so greeting detection sees
// "Hello!!" as "hello".
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func hasVagueIntent(normalized string) bool {
	for _, word := range strings.Fields(normalized) {
		if vagueIntentWords[word] {
			return true
		}
	}
	return false
}
