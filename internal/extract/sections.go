package extract

import "strings"

// Window taken around a section trigger match, in bytes of the page content.
const (
	sectionBefore = 100
	sectionAfter  = 1000
)

// sectionTriggers maps each section name to the phrases that mark it in
// page text. The first phrase found wins; at most one excerpt per section.
var sectionTriggers = map[string][]string{
	"about":    {"about us", "who we are", "our story", "our mission", "about"},
	"services": {"our services", "what we do", "what we offer", "services"},
	"products": {"our products", "product range", "catalog", "products"},
	"contact":  {"contact us", "get in touch", "reach us", "contact"},
	"faq":      {"frequently asked questions", "frequently asked", "faq"},
}

// SectionNames lists the sections ExtractSections looks for.
func SectionNames() []string {
	names := make([]string, 0, len(sectionTriggers))
	for name := range sectionTriggers {
		names = append(names, name)
	}
	return names
}

// ExtractSections scans content for each section's trigger phrases and
// returns an excerpt window around the first match per section. Sections
// with no trigger present are absent from the result.
func ExtractSections(content string) map[string]string {
	lower := strings.ToLower(content)
	sections := make(map[string]string)

	for name, triggers := range sectionTriggers {
		for _, trigger := range triggers {
			idx := strings.Index(lower, trigger)
			if idx < 0 {
				continue
			}
			start := idx - sectionBefore
			if start < 0 {
				start = 0
			}
			end := idx + sectionAfter
			if end > len(content) {
				end = len(content)
			}
			sections[name] = strings.TrimSpace(content[start:end])
			break
		}
	}
	return sections
}
