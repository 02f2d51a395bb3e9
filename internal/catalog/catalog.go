// Package catalog adapts remote media catalogs for search and metadata
// lookup: the YouTube Data API, yt-dlp's ytsearch extractor, and the
// keyless player API.
package catalog

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/ytget/yt-queue/internal/platform"
)

// Order is the ranking requested from the catalog
type Order string

const (
	OrderRelevance Order = "relevance"
	OrderViewCount Order = "viewCount"
	OrderDate      Order = "date"
	OrderRating    Order = "rating"
)

// DefaultOrder is used when the caller does not ask for one
const DefaultOrder = OrderRelevance

// DescriptionSnippetLength bounds the description kept per result
const DescriptionSnippetLength = 200

// ErrNotFound is returned by lookups when the id is unknown to the catalog
var ErrNotFound = errors.New("video not found in catalog")

// ParseOrder normalizes a user supplied order, falling back to relevance
func ParseOrder(raw string) Order {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "viewcount", "views":
		return OrderViewCount
	case "date":
		return OrderDate
	case "rating":
		return OrderRating
	default:
		return DefaultOrder
	}
}

// Result is one ranked search hit
type Result struct {
	ID          string
	Title       string
	Channel     string
	Description string

	// Filled when the search itself carries metadata
	Duration  string
	ViewCount int64
}

// Details is the secondary metadata for one id
type Details struct {
	Duration  string
	ViewCount int64
	LikeCount int64
}

// DetailsChain asks each lookup in turn and returns the first success
type DetailsChain []interface {
	Details(ctx context.Context, id string) (Details, error)
}

// Details implements the lookup over the chain
func (c DetailsChain) Details(ctx context.Context, id string) (Details, error) {
	lastErr := ErrNotFound
	for _, lookup := range c {
		if lookup == nil {
			continue
		}
		d, err := lookup.Details(ctx, id)
		if err == nil {
			return d, nil
		}
		lastErr = err
	}
	return Details{}, lastErr
}

// NewLimiter returns a limiter allowing perSecond requests with a burst of one.
// A non-positive rate disables pacing.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseISODuration converts an ISO 8601 duration (PT4M13S) into seconds
func ParseISODuration(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	m := isoDuration.FindStringSubmatch(raw)
	if m == nil || raw == "P" || raw == "PT" {
		return 0, false
	}
	units := []int{86400, 3600, 60, 1}
	total := 0
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}
		total += n * unit
	}
	return total, true
}

// DurationLabel renders an ISO 8601 duration as HH:MM:SS / MM:SS
func DurationLabel(raw string) string {
	seconds, ok := ParseISODuration(raw)
	if !ok {
		return ""
	}
	return platform.FormatDuration(seconds)
}

func snippet(description string) string {
	if len(description) <= DescriptionSnippetLength {
		return description
	}
	cut := description[:DescriptionSnippetLength]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
