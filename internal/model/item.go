package model

import (
	"strings"
	"time"
)

// MediaKind selects whether an item is fetched as audio or video
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// DefaultMediaKind is used when the caller does not specify one
const DefaultMediaKind = MediaAudio

// Quality sentinels understood by the format selector. Anything else is an
// explicit format identifier passed through to the fetch engine.
const (
	QualityBest  = "best"
	QualityWorst = "worst"
)

// ParseMediaKind normalizes a user supplied media kind, falling back to audio
func ParseMediaKind(raw string) MediaKind {
	switch MediaKind(strings.ToLower(strings.TrimSpace(raw))) {
	case MediaVideo:
		return MediaVideo
	default:
		return DefaultMediaKind
	}
}

// Item represents a single unit of work in the download queue
type Item struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`      // original URL or free-text query
	MediaKind  MediaKind `json:"media_kind"`  // audio or video
	Quality    string    `json:"quality"`     // best, worst or explicit format id
	State      State     `json:"state"`       // pending, processing, completed, failed
	Error      string    `json:"error"`       // set only when failed
	Title      string    `json:"title"`       // resolved media title
	Locator    string    `json:"locator"`     // resolved fetch target
	OutputPath string    `json:"output_path"` // set only when completed
	Duration   string    `json:"duration"`    // human readable duration
	ViewCount  int64     `json:"view_count"`
	Retried    bool      `json:"retried"` // a failed item may be re-driven once
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CanRetry reports whether the item may be moved back to processing
func (it Item) CanRetry() bool {
	return it.State == StateFailed && !it.Retried
}

// GetDisplayTitle returns title, filename, or source in order of preference
func (it Item) GetDisplayTitle() string {
	if it.Title != "" && !strings.HasPrefix(it.Title, "http") {
		return it.Title
	}

	if it.OutputPath != "" {
		// support both / and \ separators
		parts := strings.FieldsFunc(it.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	return it.Source
}

// Record is the flat, stable export form of an Item
type Record struct {
	Source     string `json:"source"`
	MediaKind  string `json:"media_kind"`
	Quality    string `json:"quality"`
	State      string `json:"state"`
	Error      string `json:"error"`
	OutputPath string `json:"output_path"`
	Title      string `json:"title"`
	Duration   string `json:"duration"`
	ViewCount  int64  `json:"view_count"`
}

// ToRecord converts the item into its export record
func (it Item) ToRecord() Record {
	return Record{
		Source:     it.Source,
		MediaKind:  string(it.MediaKind),
		Quality:    it.Quality,
		State:      string(it.State),
		Error:      it.Error,
		OutputPath: it.OutputPath,
		Title:      it.Title,
		Duration:   it.Duration,
		ViewCount:  it.ViewCount,
	}
}
