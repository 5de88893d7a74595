package session

import "testing"

func TestAnswerAggregatorConcatenatesVerbatim(t *testing.T) {
	var a answerAggregator

	// An answer split mid-word must survive unchanged.
	a.Add("jane")
	a.Add("@x.com")
	if got := a.Flush(); got != "jane@x.com" {
		t.Fatalf("intra-word split corrupted: got %q", got)
	}

	// Spacing comes from the deltas themselves.
	a.Add("Jane ")
	a.Add("Doe")
	if got := a.Flush(); got != "Jane Doe" {
		t.Fatalf("delta spacing lost: got %q", got)
	}

	// Flush trims only the outer whitespace.
	a.Add("  555 ")
	a.Add("0100 ")
	if got := a.Flush(); got != "555 0100" {
		t.Fatalf("expected trimmed answer, got %q", got)
	}

	if !a.Empty() {
		t.Fatalf("aggregator not reset after flush")
	}
}
