package retrieval

import "sort"

// synonymGroups maps each canonical key to its variant phrases. A keyword
// equal to the key or to any variant pulls the key and all of its variants
// into the expanded term set.
var synonymGroups = map[string][]string{
	"price":    {"cost", "costs", "pricing", "fee", "fees", "charge", "charges", "rate", "rates", "much"},
	"location": {"address", "located", "directions", "place", "city", "area"},
	"services": {"service", "offer", "offers", "offerings", "provide", "solutions"},
	"hours":    {"open", "opening", "opens", "close", "closing", "closes", "schedule", "time", "times"},
	"contact":  {"email", "phone", "call", "reach", "telephone", "number", "mail"},
}

// ExpandKeywords returns the union of the original keywords and every
// synonym group any of them belongs to. Originals come first in their
// input order; pulled-in terms follow in deterministic group order.
func ExpandKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	expanded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if !seen[kw] {
			seen[kw] = true
			expanded = append(expanded, kw)
		}
	}

	keys := make([]string, 0, len(synonymGroups))
	for key := range synonymGroups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !groupMatches(key, keywords) {
			continue
		}
		if !seen[key] {
			seen[key] = true
			expanded = append(expanded, key)
		}
		for _, variant := range synonymGroups[key] {
			if !seen[variant] {
				seen[variant] = true
				expanded = append(expanded, variant)
			}
		}
	}
	return expanded
}

// groupMatches reports whether any keyword equals the canonical key or one
// of its variants.
func groupMatches(key string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == key {
			return true
		}
		for _, variant := range synonymGroups[key] {
			if kw == variant {
				return true
			}
		}
	}
	return false
}

// HasContactIntent reports whether the expanded term set intersects the
// contact synonym group. Used to gate the contact-record scoring boost.
func HasContactIntent(expanded []string) bool {
	for _, term := range expanded {
		if term == "contact" {
			return true
		}
		for _, variant := range synonymGroups["contact"] {
			if term == variant {
				return true
			}
		}
	}
	return false
}
