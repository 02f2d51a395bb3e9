package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/time/rate"

	"github.com/ytget/yt-queue/internal/platform"
)

// yt-dlp search prefixes
const (
	searchPrefix     = "ytsearch"
	searchDatePrefix = "ytsearchdate"
	searchTemplate   = "%(.{id,title,channel,uploader,description,duration,view_count})j"
)

// YTDLPSearch searches through yt-dlp's ytsearch extractor. It needs no API
// key but only supports relevance and date ordering.
type YTDLPSearch struct {
	limiter *rate.Limiter
	run     func(ctx context.Context, target string) (string, error)
}

// NewYTDLPSearch creates a keyless searcher
func NewYTDLPSearch(limiter *rate.Limiter) *YTDLPSearch {
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &YTDLPSearch{limiter: limiter, run: runFlatSearch}
}

// Search returns up to max results for the query
func (s *YTDLPSearch) Search(ctx context.Context, query string, max int, order Order) ([]Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out, err := s.run(ctx, searchTarget(query, max, order))
	if err != nil {
		return nil, fmt.Errorf("searching with yt-dlp: %w", err)
	}
	return parseSearchOutput(out, max), nil
}

func searchTarget(query string, max int, order Order) string {
	prefix := searchPrefix
	if order == OrderDate {
		prefix = searchDatePrefix
	}
	return fmt.Sprintf("%s%d:%s", prefix, max, strings.TrimSpace(query))
}

func runFlatSearch(ctx context.Context, target string) (string, error) {
	res, err := ytdlp.New().
		FlatPlaylist().
		NoWarnings().
		Print(searchTemplate).
		Run(ctx, target)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

type searchEntry struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Channel     string  `json:"channel"`
	Uploader    string  `json:"uploader"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	ViewCount   int64   `json:"view_count"`
}

// parseSearchOutput parses one JSON object per line, skipping anything else
func parseSearchOutput(output string, max int) []Result {
	var results []Result
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry searchEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.ID == "" || entry.Title == "" {
			continue
		}
		channel := entry.Channel
		if channel == "" {
			channel = entry.Uploader
		}
		r := Result{
			ID:          entry.ID,
			Title:       entry.Title,
			Channel:     channel,
			Description: snippet(entry.Description),
			ViewCount:   entry.ViewCount,
		}
		if entry.Duration > 0 {
			r.Duration = platform.FormatDuration(int(entry.Duration))
		}
		results = append(results, r)
		if max > 0 && len(results) == max {
			break
		}
	}
	return results
}
