package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// Format labels used when yt-dlp leaves a field out
const (
	CodecNone       = "none"
	ResolutionAudio = "audio only"
)

// FormatInfo describes one format a locator can be fetched in. Its ID can be
// passed as an explicit quality.
type FormatInfo struct {
	ID         string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution"`
	FileSize   int64   `json:"filesize,omitempty"`
	FPS        float64 `json:"fps,omitempty"`
	VCodec     string  `json:"vcodec"`
	ACodec     string  `json:"acodec"`
}

// HasMedia reports whether the format carries audio or video
func (f FormatInfo) HasMedia() bool {
	return f.VCodec != CodecNone || f.ACodec != CodecNone
}

// Formats lists the formats available for a locator, worst to best.
// Entries carrying neither audio nor video (storyboards) are dropped.
// go-ytdlp reports a "none" codec as absent, so a format without codec
// fields is dropped too.
func (e *YTDLPEngine) Formats(ctx context.Context, locator string) ([]FormatInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()

	res, err := ytdlp.New().
		SkipDownload().
		DumpSingleJSON().
		NoPlaylist().
		Quiet().
		NoWarnings().
		Run(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("listing formats: %s", describeFailure(res, err))
	}

	formats, err := parseFormats(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("listing formats for %s: %w", locator, err)
	}
	e.logger.WithField("locator", locator).Debugf("Found %d formats", len(formats))
	return formats, nil
}

// parseFormats reads the info JSON yt-dlp dumps for a single video
func parseFormats(output string) ([]FormatInfo, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, errors.New("yt-dlp printed no info")
	}

	raw := json.RawMessage(lastLine(output))
	info, err := ytdlp.ParseExtractedInfo(&raw)
	if err != nil {
		return nil, err
	}

	formats := make([]FormatInfo, 0, len(info.Formats))
	for _, f := range info.Formats {
		if f == nil {
			continue
		}
		format := FormatInfo{
			ID:         deref(f.FormatID, ""),
			Ext:        deref(f.Extension, ""),
			Resolution: deref(f.Resolution, ResolutionAudio),
			VCodec:     deref(f.VCodec, CodecNone),
			ACodec:     deref(f.ACodec, CodecNone),
		}
		if f.FPS != nil {
			format.FPS = *f.FPS
		}
		switch {
		case f.FileSize != nil:
			format.FileSize = int64(*f.FileSize)
		case f.FileSizeApprox != nil:
			format.FileSize = int64(*f.FileSizeApprox)
		}
		if format.HasMedia() {
			formats = append(formats, format)
		}
	}
	return formats, nil
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
