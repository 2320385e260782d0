package retrieval

import (
	"reflect"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"question words dropped", "What are your hours?", []string{"hours"}},
		{"short tokens dropped", "When do you close?", []string{"close"}},
		{"punctuation stripped", "price-list, now!", []string{"price", "list", "now"}},
		{"mixed case", "EMERGENCY Plumbing", []string{"emergency", "plumbing"}},
		{"only stop words", "what about this, please?", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractKeywords(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractKeywords(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestContainsWholeWord(t *testing.T) {
	tests := []struct {
		text string
		word string
		want bool
	}{
		{"we open at 9am", "open", true},
		{"opening times vary", "open", false},
		{"open every day", "open", true},
		{"closed on sundays, open otherwise", "open", true},
		{"we are always closed", "open", false},
		{"reopen after lunch", "open", false},
		{"call 555-0100 today", "555", true},
		{"anything", "", false},
	}

	for _, tt := range tests {
		if got := containsWholeWord(tt.text, tt.word); got != tt.want {
			t.Errorf("containsWholeWord(%q, %q) = %v, want %v", tt.text, tt.word, got, tt.want)
		}
	}
}
