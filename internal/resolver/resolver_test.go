package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ytget/yt-queue/internal/catalog"
	"github.com/ytget/yt-queue/internal/locator"
	"github.com/ytget/yt-queue/internal/model"
)

type fakeSearcher struct {
	results []catalog.Result
	err     error
	calls   int
	max     int
	order   catalog.Order
}

func (f *fakeSearcher) Search(ctx context.Context, query string, max int, order catalog.Order) ([]catalog.Result, error) {
	f.calls++
	f.max = max
	f.order = order
	return f.results, f.err
}

type fakeProber struct {
	accessible map[string]bool
	probed     []string
}

func (f *fakeProber) Probe(ctx context.Context, loc string) (bool, string) {
	f.probed = append(f.probed, loc)
	if f.accessible[loc] {
		return true, "URL is accessible"
	}
	return false, "Download error: Video unavailable"
}

type fakeDetails struct {
	details map[string]catalog.Details
}

func (f *fakeDetails) Details(ctx context.Context, id string) (catalog.Details, error) {
	d, ok := f.details[id]
	if !ok {
		return catalog.Details{}, catalog.ErrNotFound
	}
	return d, nil
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func watch(id string) string {
	return locator.YouTube.Canonical(id)
}

func threeResults() []catalog.Result {
	return []catalog.Result{
		{ID: "AAAAAAAAAAA", Title: "First", Channel: "one"},
		{ID: "BBBBBBBBBBB", Title: "Second", Channel: "two"},
		{ID: "CCCCCCCCCCC", Title: "Third", Channel: "three"},
	}
}

func TestResolve_DirectLocatorSkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	source := "https://youtu.be/dQw4w9WgXcQ"
	prober := &fakeProber{accessible: map[string]bool{source: true}}
	r := New(nil, searcher, nil, prober, quietLogger())

	candidates, err := r.Resolve(context.Background(), "  "+source+"  ", 5, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if searcher.calls != 0 {
		t.Error("direct locator must not be searched")
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ID != "dQw4w9WgXcQ" || c.Locator != source || !c.Accessible {
		t.Errorf("unexpected candidate %+v", c)
	}
}

func TestResolve_DirectLocatorInaccessible(t *testing.T) {
	r := New(nil, nil, nil, &fakeProber{}, quietLogger())

	candidates, err := r.Resolve(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ", 5, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidates[0].Accessible {
		t.Error("expected inaccessible candidate")
	}
	if !strings.HasPrefix(candidates[0].AccessDetail, "Download error: ") {
		t.Errorf("unexpected access detail %q", candidates[0].AccessDetail)
	}
}

func TestResolve_QueryProbesAndMergesDetails(t *testing.T) {
	searcher := &fakeSearcher{results: threeResults()}
	prober := &fakeProber{accessible: map[string]bool{watch("BBBBBBBBBBB"): true}}
	details := &fakeDetails{details: map[string]catalog.Details{
		"BBBBBBBBBBB": {Duration: "03:33", ViewCount: 42, LikeCount: 7},
	}}
	r := New(nil, searcher, details, prober, quietLogger())

	candidates, err := r.Resolve(context.Background(), "some song title", 0, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if searcher.max != DefaultMaxCandidates || searcher.order != catalog.OrderRelevance {
		t.Errorf("unexpected search params max=%d order=%s", searcher.max, searcher.order)
	}
	if len(prober.probed) != 3 {
		t.Errorf("expected every result probed, got %d", len(prober.probed))
	}
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}

	second := candidates[1]
	if !second.Accessible || second.Locator != watch("BBBBBBBBBBB") {
		t.Errorf("unexpected second candidate %+v", second)
	}
	if second.Duration != "03:33" || second.ViewCount != 42 || second.LikeCount != 7 {
		t.Errorf("details not merged: %+v", second)
	}
	if candidates[0].Accessible || candidates[2].Accessible {
		t.Error("only the second candidate should be accessible")
	}
}

func TestResolve_ViewCountOrderSortsDescending(t *testing.T) {
	results := threeResults()
	results[0].ViewCount = 10
	results[1].ViewCount = 300
	results[2].ViewCount = 10
	r := New(nil, &fakeSearcher{results: results}, nil, nil, quietLogger())

	candidates, err := r.Resolve(context.Background(), "top songs", 3, catalog.OrderViewCount)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	got := []string{candidates[0].ID, candidates[1].ID, candidates[2].ID}
	expected := []string{"BBBBBBBBBBB", "AAAAAAAAAAA", "CCCCCCCCCCC"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected stable view-count order %v, got %v", expected, got)
		}
	}
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name     string
		searcher Searcher
		source   string
		expected error
	}{
		{"empty source", &fakeSearcher{}, "   ", ErrInvalidLocator},
		{"no searcher", nil, "query", ErrCatalogUnavailable},
		{"search error", &fakeSearcher{err: errors.New("quota exceeded")}, "query", ErrCatalogUnavailable},
		{"no results", &fakeSearcher{}, "query", ErrNoResultsFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := New(nil, test.searcher, nil, nil, quietLogger())
			candidates, err := r.Resolve(context.Background(), test.source, 5, "")
			if !errors.Is(err, test.expected) {
				t.Errorf("expected %v, got %v", test.expected, err)
			}
			if len(candidates) != 0 {
				t.Errorf("expected empty candidates, got %d", len(candidates))
			}
		})
	}
}

func TestResolve_CatalogErrorIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(nil, &fakeSearcher{err: errors.New("quota exceeded")}, nil, nil, logger)

	_, _ = r.Resolve(context.Background(), "query", 5, "")
	if len(hook.Entries) == 0 {
		t.Fatal("expected catalog failure to be logged")
	}
	if hook.LastEntry().Level != logrus.WarnLevel {
		t.Errorf("expected warn level, got %s", hook.LastEntry().Level)
	}
}

func TestProbeLocator_Invalid(t *testing.T) {
	r := New(nil, nil, nil, nil, quietLogger())
	if _, err := r.ProbeLocator(context.Background(), "https://other.example/x"); !errors.Is(err, ErrInvalidLocator) {
		t.Errorf("expected ErrInvalidLocator, got %v", err)
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		candidates []model.Candidate
		expectedID string
		expected   error
	}{
		{"empty", nil, "", ErrNoResultsFound},
		{"none accessible", []model.Candidate{{ID: "a"}, {ID: "b"}}, "", ErrNoAccessibleCandidate},
		{"first accessible wins", []model.Candidate{{ID: "a"}, {ID: "b", Accessible: true}, {ID: "c", Accessible: true}}, "b", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := Select(test.candidates)
			if !errors.Is(err, test.expected) {
				t.Errorf("expected error %v, got %v", test.expected, err)
			}
			if c.ID != test.expectedID {
				t.Errorf("expected %q, got %q", test.expectedID, c.ID)
			}
		})
	}
}

func TestResolveTarget(t *testing.T) {
	t.Run("one accessible of three", func(t *testing.T) {
		prober := &fakeProber{accessible: map[string]bool{watch("CCCCCCCCCCC"): true}}
		r := New(nil, &fakeSearcher{results: threeResults()}, nil, prober, quietLogger())

		c, err := r.ResolveTarget(context.Background(), "some song title", 5)
		if err != nil {
			t.Fatalf("ResolveTarget: %v", err)
		}
		if c.Locator != watch("CCCCCCCCCCC") || c.Title != "Third" {
			t.Errorf("unexpected target %+v", c)
		}
	})

	t.Run("all inaccessible", func(t *testing.T) {
		r := New(nil, &fakeSearcher{results: threeResults()}, nil, &fakeProber{}, quietLogger())

		_, err := r.ResolveTarget(context.Background(), "some song title", 5)
		if !errors.Is(err, ErrNoAccessibleCandidate) {
			t.Fatalf("expected ErrNoAccessibleCandidate, got %v", err)
		}
		if err.Error() != "No accessible videos found in search results" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		r := New(nil, &fakeSearcher{err: errors.New("network down")}, nil, nil, quietLogger())

		_, err := r.ResolveTarget(context.Background(), "some song title", 5)
		if !errors.Is(err, ErrNoResultsFound) {
			t.Fatalf("expected ErrNoResultsFound, got %v", err)
		}
		if !strings.Contains(err.Error(), "network down") {
			t.Errorf("expected cause in message, got %q", err.Error())
		}
	})
}
