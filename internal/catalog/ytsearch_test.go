package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestSearchTarget(t *testing.T) {
	tests := []struct {
		query    string
		max      int
		order    Order
		expected string
	}{
		{"some song", 5, OrderRelevance, "ytsearch5:some song"},
		{"  padded  ", 3, OrderViewCount, "ytsearch3:padded"},
		{"news", 10, OrderDate, "ytsearchdate10:news"},
	}

	for _, test := range tests {
		if got := searchTarget(test.query, test.max, test.order); got != test.expected {
			t.Errorf("searchTarget(%q, %d, %s) = %q, expected %q", test.query, test.max, test.order, got, test.expected)
		}
	}
}

func TestParseSearchOutput(t *testing.T) {
	output := `{"id": "AAAAAAAAAAA", "title": "First", "channel": "Chan", "duration": 213, "view_count": 99}
not json at all
{"id": "", "title": "missing id"}
{"id": "BBBBBBBBBBB", "title": "Second", "uploader": "Uploader", "duration": null}
{"id": "CCCCCCCCCCC", "title": "Third"}`

	results := parseSearchOutput(output, 0)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	if results[0].Duration != "03:33" || results[0].ViewCount != 99 || results[0].Channel != "Chan" {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Channel != "Uploader" || results[1].Duration != "" {
		t.Errorf("expected uploader fallback and no duration, got %+v", results[1])
	}

	capped := parseSearchOutput(output, 2)
	if len(capped) != 2 {
		t.Errorf("expected results capped at 2, got %d", len(capped))
	}
}

func TestYTDLPSearch_Search(t *testing.T) {
	s := NewYTDLPSearch(nil)
	var target string
	s.run = func(ctx context.Context, tgt string) (string, error) {
		target = tgt
		return `{"id": "AAAAAAAAAAA", "title": "Only"}`, nil
	}

	results, err := s.Search(context.Background(), "only song", 5, OrderRelevance)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if target != "ytsearch5:only song" {
		t.Errorf("unexpected target %q", target)
	}
	if len(results) != 1 || results[0].ID != "AAAAAAAAAAA" {
		t.Errorf("unexpected results %+v", results)
	}

	s.run = func(ctx context.Context, tgt string) (string, error) {
		return "", errors.New("yt-dlp missing")
	}
	if _, err := s.Search(context.Background(), "x", 5, ""); err == nil {
		t.Error("expected error when yt-dlp fails")
	}
}
