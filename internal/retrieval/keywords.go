package retrieval

import "strings"

// stopWords are dropped during keyword extraction: pronouns, articles, and
// the auxiliary/question words that carry no lexical signal of their own.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "was": true, "were": true, "have": true, "has": true,
	"had": true, "you": true, "your": true, "yours": true, "our": true,
	"ours": true, "his": true, "her": true, "hers": true, "its": true,
	"they": true, "them": true, "their": true, "theirs": true,
	"this": true, "that": true, "these": true, "those": true,
	"what": true, "when": true, "where": true, "why": true, "how": true,
	"who": true, "whom": true, "which": true,
	"can": true, "could": true, "will": true, "would": true,
	"shall": true, "should": true, "may": true, "might": true, "must": true,
	"does": true, "did": true, "done": true, "doing": true,
	"with": true, "from": true, "into": true, "onto": true,
	"please": true, "about": true,
}

// ExtractKeywords lowercases the text, strips punctuation, splits on
// whitespace, and drops stop words and tokens of two characters or fewer.
func ExtractKeywords(text string) []string {
	normalized := normalizeText(text)

	var keywords []string
	for _, token := range strings.Fields(normalized) {
		if len(token) <= 2 || stopWords[token] {
			continue
		}
		keywords = append(keywords, token)
	}
	return keywords
}

// normalizeText lowercases s and replaces every non-alphanumeric rune with
// a space. This is deliberately not real tokenization.
func normalizeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, s)
}

// containsWholeWord reports whether word occurs in text bounded by
// non-alphanumeric characters on both sides. Both arguments must already
// be lowercase.
func containsWholeWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; ; {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			return false
		}
		idx += from
		end := idx + len(word)
		if (idx == 0 || !isWordByte(text[idx-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		from = idx + 1
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
