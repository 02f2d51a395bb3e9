package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-queue/internal/model"
)

// Timeout constants
const (
	DefaultProbeTimeout = 60 * time.Second
	DefaultRetryBackoff = 2 * time.Second
)

// Default fetch settings
const (
	DefaultRetries          = 3
	DefaultAudioFormat      = "mp3"
	DefaultAudioQuality     = "192"
	DefaultFilenameTemplate = "%(title)s.%(ext)s"
	DefaultDuration         = "Unknown"
)

// Format selectors handed to yt-dlp
const (
	FormatBestAudio  = "bestaudio/best"
	FormatBestVideo  = "bestvideo+bestaudio/best"
	FormatWorstVideo = "worstvideo+worstaudio/worst"
)

// Probe messages
const (
	ProbeAccessible   = "URL is accessible"
	ProbeNoInfo       = "Unable to extract video information"
	ProbeErrorPrefix  = "Download error: "
	progressInterval  = 500 * time.Millisecond
	maxVerboseRetries = 1
)

// Print templates. The fetch template runs after post-processing so filepath
// is the final (converted) file.
const (
	probeTemplate    = "id"
	filenameTemplate = "filename"
	fetchTemplate    = "after_move:%(.{title,duration,duration_string,view_count,filepath})j"
)

// Time formatting constants
const (
	SecondsPerHour   = 3600
	SecondsPerMinute = 60
	TimeFormat       = "%02d"
)

// ErrFetchFailed wraps any transfer-time error. The yt-dlp message is kept verbatim.
var ErrFetchFailed = errors.New("fetch failed")

// FetchRequest describes one transfer
type FetchRequest struct {
	Locator string
	Format  string
	Kind    model.MediaKind
}

// FetchResult is the metadata reported by yt-dlp after a transfer
type FetchResult struct {
	Title     string
	Duration  string
	ViewCount int64
	Path      string
}

// FetchOptions configures the yt-dlp engine
type FetchOptions struct {
	DownloadDir      string
	FilenameTemplate string
	AudioFormat      string
	AudioQuality     string
	Retries          int
	ProbeTimeout     time.Duration
}

// YTDLPEngine runs yt-dlp for probing, output path prediction and transfers
type YTDLPEngine struct {
	opts    FetchOptions
	backoff time.Duration
	logger  logrus.FieldLogger
}

// NewYTDLPEngine creates a new yt-dlp backed fetch engine
func NewYTDLPEngine(opts FetchOptions, logger logrus.FieldLogger) *YTDLPEngine {
	if opts.FilenameTemplate == "" {
		opts.FilenameTemplate = DefaultFilenameTemplate
	}
	if opts.AudioFormat == "" {
		opts.AudioFormat = DefaultAudioFormat
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = DefaultAudioQuality
	}
	if opts.Retries < 0 {
		opts.Retries = DefaultRetries
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &YTDLPEngine{
		opts:    opts,
		backoff: DefaultRetryBackoff,
		logger:  logger,
	}
}

// FormatSelector builds the yt-dlp format string for a media kind and quality
func FormatSelector(kind model.MediaKind, quality string) string {
	if kind == model.MediaAudio {
		return FormatBestAudio
	}
	switch quality {
	case model.QualityBest, "":
		return FormatBestVideo
	case model.QualityWorst:
		return FormatWorstVideo
	default:
		return quality
	}
}

// Probe checks that a locator resolves without transferring any media
func (e *YTDLPEngine) Probe(ctx context.Context, locator string) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()

	res, err := ytdlp.New().
		Simulate().
		Quiet().
		NoWarnings().
		NoPlaylist().
		Print(probeTemplate).
		Run(ctx, locator)
	if err != nil {
		return false, ProbeErrorPrefix + describeFailure(res, err)
	}
	if res == nil || strings.TrimSpace(res.Stdout) == "" {
		return false, ProbeNoInfo
	}
	return true, ProbeAccessible
}

// ResolveOutputPath predicts where a transfer would land, without transferring
func (e *YTDLPEngine) ResolveOutputPath(ctx context.Context, req FetchRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.ProbeTimeout)
	defer cancel()

	res, err := e.command(req).
		Simulate().
		Print(filenameTemplate).
		Run(ctx, req.Locator)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %s", describeFailure(res, err))
	}

	path := lastLine(res.Stdout)
	if path == "" {
		return "", fmt.Errorf("resolving output path: yt-dlp printed no filename for %s", req.Locator)
	}
	if req.Kind == model.MediaAudio {
		// audio extraction replaces the container extension
		path = strings.TrimSuffix(path, filepath.Ext(path)) + "." + e.opts.AudioFormat
	}
	return path, nil
}

// Fetch performs the transfer. yt-dlp retries transient network errors itself;
// a failed run is re-attempted once with verbose diagnostics and the last
// attempt's error is returned.
func (e *YTDLPEngine) Fetch(ctx context.Context, req FetchRequest) (FetchResult, error) {
	res, err := e.fetchWithRetry(ctx, req)
	if err != nil {
		return FetchResult{}, err
	}

	result, err := parseFetchOutput(res.Stdout)
	if err != nil {
		return FetchResult{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return result, nil
}

// fetchWithRetry attempts the transfer with one diagnostic re-attempt
func (e *YTDLPEngine) fetchWithRetry(ctx context.Context, req FetchRequest) (*ytdlp.Result, error) {
	var lastErr error

	for attempt := 0; attempt <= maxVerboseRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(e.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			e.logger.WithField("locator", req.Locator).Infof("Retrying fetch with verbose output, attempt %d", attempt+1)
		}

		dl := e.fetchCommand(req, attempt > 0)
		res, err := dl.Run(ctx, req.Locator)
		if err == nil {
			return res, nil
		}

		lastErr = fmt.Errorf("%w: %s", ErrFetchFailed, describeFailure(res, err))
		e.logger.WithField("locator", req.Locator).Warnf("Fetch attempt %d failed: %v", attempt+1, lastErr)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// command returns the options shared by path prediction and transfer
func (e *YTDLPEngine) command(req FetchRequest) *ytdlp.Command {
	dl := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		RestrictFilenames().
		Format(req.Format).
		Output(filepath.Join(e.opts.DownloadDir, e.opts.FilenameTemplate))

	if req.Kind == model.MediaAudio {
		dl = dl.ExtractAudio().
			AudioFormat(e.opts.AudioFormat).
			AudioQuality(e.opts.AudioQuality)
	}
	return dl
}

func (e *YTDLPEngine) fetchCommand(req FetchRequest, verbose bool) *ytdlp.Command {
	retries := strconv.Itoa(e.opts.Retries)
	dl := e.command(req).
		Retries(retries).
		FragmentRetries(retries).
		NoSimulate().
		Print(fetchTemplate)

	if verbose {
		dl = dl.Verbose()
	}

	log := e.logger.WithField("locator", req.Locator)
	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		if update.TotalBytes <= 0 {
			return
		}
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		log.WithFields(logrus.Fields{
			"percent": fmt.Sprintf("%.1f", percent),
			"eta":     update.ETA().Round(time.Second).String(),
		}).Debug("Fetch progress")
	})
	return dl
}

// fetchInfo mirrors the JSON printed by fetchTemplate
type fetchInfo struct {
	Title          string  `json:"title"`
	Duration       float64 `json:"duration"`
	DurationString string  `json:"duration_string"`
	ViewCount      int64   `json:"view_count"`
	Filepath       string  `json:"filepath"`
}

// parseFetchOutput picks the last JSON object carrying a filepath out of
// yt-dlp stdout. Non-JSON lines (progress, notices) are skipped.
func parseFetchOutput(output string) (FetchResult, error) {
	var (
		info  fetchInfo
		found bool
	)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var candidate fetchInfo
		if err := json.Unmarshal([]byte(line), &candidate); err != nil {
			continue
		}
		if candidate.Filepath == "" {
			continue
		}
		info = candidate
		found = true
	}
	if !found {
		return FetchResult{}, errors.New("yt-dlp reported no output file")
	}

	duration := info.DurationString
	if duration == "" && info.Duration > 0 {
		duration = FormatDuration(int(info.Duration))
	}
	if duration == "" {
		duration = DefaultDuration
	}

	return FetchResult{
		Title:     info.Title,
		Duration:  duration,
		ViewCount: info.ViewCount,
		Path:      info.Filepath,
	}, nil
}

// FormatDuration formats seconds into HH:MM:SS or MM:SS
func FormatDuration(seconds int) string {
	hours := seconds / SecondsPerHour
	minutes := (seconds % SecondsPerHour) / SecondsPerMinute
	secs := seconds % SecondsPerMinute
	if hours > 0 {
		return fmt.Sprintf(TimeFormat+":"+TimeFormat+":"+TimeFormat, hours, minutes, secs)
	}
	return fmt.Sprintf(TimeFormat+":"+TimeFormat, minutes, secs)
}

// describeFailure prefers yt-dlp's own ERROR line over the exit status
func describeFailure(res *ytdlp.Result, err error) string {
	if res != nil {
		if msg := errorLine(res.Stderr); msg != "" {
			return msg
		}
	}
	if err != nil {
		return err.Error()
	}
	return "unknown yt-dlp failure"
}

func errorLine(stderr string) string {
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return line
		}
	}
	return ""
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
