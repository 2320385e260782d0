package retrieval

import (
	"reflect"
	"testing"
)

func TestExpandKeywordsPullsInGroup(t *testing.T) {
	got := ExpandKeywords([]string{"close"})
	want := []string{"close", "hours", "open", "opening", "opens", "closing", "closes", "schedule", "time", "times"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandKeywords([close]) = %v, want %v", got, want)
	}
}

func TestExpandKeywordsNoGroup(t *testing.T) {
	got := ExpandKeywords([]string{"plumbing", "emergency"})
	want := []string{"plumbing", "emergency"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandKeywords = %v, want originals unchanged %v", got, want)
	}
}

func TestExpandKeywordsOriginalsFirstAndDeduped(t *testing.T) {
	got := ExpandKeywords([]string{"cost", "cost", "hours"})
	if got[0] != "cost" || got[1] != "hours" {
		t.Fatalf("originals not first: %v", got)
	}
	seen := make(map[string]int)
	for _, term := range got {
		seen[term]++
		if seen[term] > 1 {
			t.Errorf("duplicate term %q in %v", term, got)
		}
	}
	// "cost" is a price variant, so the price group joins too.
	if seen["price"] != 1 || seen["hours"] != 1 {
		t.Errorf("expected price and hours groups in %v", got)
	}
}

func TestHasContactIntent(t *testing.T) {
	tests := []struct {
		terms []string
		want  bool
	}{
		{[]string{"contact"}, true},
		{[]string{"phone"}, true},
		{[]string{"email", "plumbing"}, true},
		{[]string{"hours", "open"}, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := HasContactIntent(tt.terms); got != tt.want {
			t.Errorf("HasContactIntent(%v) = %v, want %v", tt.terms, got, tt.want)
		}
	}
}
