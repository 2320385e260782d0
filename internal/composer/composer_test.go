package composer

import (
	"strings"
	"testing"

	"github.com/answerly/knowledge/internal/retrieval"
	"github.com/answerly/knowledge/internal/storage"
)

var acme = storage.Tenant{
	ID:           "t1",
	BusinessName: "Acme Plumbing",
	Description:  "Acme Plumbing fixes pipes across the city, day and night.",
	Email:        "info@acme.example",
	Phone:        "555-0100",
	Address:      "12 Pipe Street",
	Website:      "https://acme.example",
}

func TestComposeGreeting(t *testing.T) {
	for _, query := range []string{"hi", "Hello!", "HEY", "good morning"} {
		got := Compose(query, acme, nil)
		if !strings.Contains(got, "Welcome to Acme Plumbing") {
			t.Errorf("Compose(%q) = %q, want greeting", query, got)
		}
	}
}

func TestComposeGreetingBeatsResults(t *testing.T) {
	results := []retrieval.ScoredCandidate{
		{Content: "irrelevant", ContentType: storage.TypeScraped, Score: 40},
	}
	got := Compose("hello", acme, results)
	if !strings.Contains(got, "Welcome to Acme Plumbing") {
		t.Errorf("got %q, want greeting even with results present", got)
	}
}

func TestComposeManualAnswerVerbatim(t *testing.T) {
	answer := "Do you fix boilers?\nYes, we fix all boiler brands."
	results := []retrieval.ScoredCandidate{
		{Content: answer, ContentType: storage.TypeManualQA, Score: 40},
		{Content: "other snippet", ContentType: storage.TypeScraped, Score: 12},
	}
	if got := Compose("do you fix boilers", acme, results); got != answer {
		t.Errorf("got %q, want the curated answer verbatim", got)
	}
}

func TestComposeContactRecordVerbatim(t *testing.T) {
	contact := "Phone: 555-0100\nEmail: info@acme.example"
	results := []retrieval.ScoredCandidate{
		{Content: contact, ContentType: storage.TypeContact, Score: 31},
	}
	if got := Compose("what is your phone number", acme, results); got != contact {
		t.Errorf("got %q, want the contact record verbatim", got)
	}
}

func TestComposeCombinesTopTwoSnippets(t *testing.T) {
	results := []retrieval.ScoredCandidate{
		{Content: "first snippet", ContentType: storage.TypeScraped, Score: 20},
		{Content: "second snippet", ContentType: storage.TypeScrapedSection, Score: 15},
		{Content: "third snippet", ContentType: storage.TypeScraped, Score: 10},
	}
	got := Compose("services", acme, results)
	if !strings.Contains(got, "first snippet") || !strings.Contains(got, "second snippet") {
		t.Errorf("got %q, want both top snippets", got)
	}
	if strings.Contains(got, "third snippet") {
		t.Errorf("got %q, third result should be dropped", got)
	}
	if !strings.Contains(got, "---") {
		t.Errorf("got %q, want separator between snippets", got)
	}
}

func TestComposeSingleSnippet(t *testing.T) {
	results := []retrieval.ScoredCandidate{
		{Content: "only snippet", ContentType: storage.TypeScraped, Score: 20},
	}
	got := Compose("services", acme, results)
	if !strings.Contains(got, "only snippet") {
		t.Errorf("got %q, want the snippet", got)
	}
	if strings.Contains(got, "---") {
		t.Errorf("got %q, no separator expected for one snippet", got)
	}
}

func TestComposeProfileFallbacks(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"how can I contact you", "by email at info@acme.example"},
		{"call me back", "by phone at 555-0100"},
		{"where are you located", "12 Pipe Street"},
		{"do you have a website", "https://acme.example"},
	}
	for _, tt := range tests {
		got := Compose(tt.query, acme, nil)
		if !strings.Contains(got, tt.want) {
			t.Errorf("Compose(%q) = %q, want it to mention %q", tt.query, got, tt.want)
		}
	}
}

func TestComposeProfileFallbacksMissingFields(t *testing.T) {
	bare := storage.Tenant{BusinessName: "Bare Co", Email: "hi@bare.example"}

	got := Compose("where are you located", bare, nil)
	if !strings.Contains(got, "hi@bare.example") {
		t.Errorf("got %q, want email fallback for missing address", got)
	}
	got = Compose("what is your website", bare, nil)
	if !strings.Contains(got, "hi@bare.example") {
		t.Errorf("got %q, want email fallback for missing website", got)
	}
}

func TestComposeVagueIntentUsesDescription(t *testing.T) {
	got := Compose("tell me more", acme, nil)
	if !strings.Contains(got, acme.Description) {
		t.Errorf("got %q, want the business description", got)
	}
}

func TestComposeVagueIntentWithoutDescription(t *testing.T) {
	bare := storage.Tenant{BusinessName: "Bare Co", Email: "hi@bare.example"}
	got := Compose("tell me more", bare, nil)
	if !strings.Contains(got, "couldn't find an answer") {
		t.Errorf("got %q, want the generic fallback", got)
	}
}

func TestComposeGenericFallback(t *testing.T) {
	got := Compose("do you sell unicorns", acme, nil)
	if !strings.Contains(got, "couldn't find an answer") || !strings.Contains(got, acme.Email) {
		t.Errorf("got %q, want fallback pointing at the contact email", got)
	}
}
