// Package config loads queue settings from a YAML file overlaid by YTQ_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

const (
	envVarPrefix = "YTQ"
	appName      = "yt-queue"
	configName   = "config.yaml"
)

// Default values
const (
	DefaultDownloadDir      = "/tmp/downloads"
	DefaultMediaKind        = model.DefaultMediaKind
	DefaultQualityPreset    = model.QualityBest
	DefaultFilenameTemplate = platform.DefaultFilenameTemplate
	DefaultSearchCandidates = 5
	DefaultFetchRetries     = platform.DefaultRetries
	DefaultAudioFormat      = platform.DefaultAudioFormat
	DefaultAudioQuality     = platform.DefaultAudioQuality
	DefaultCatalogRate      = 5.0
	DefaultListenAddr       = "127.0.0.1:8080"
	DefaultLogLevel         = "info"
)

// Limits for clamped settings
const (
	MinSearchCandidates = 1
	MaxSearchCandidates = 25
	MinFetchRetries     = 0
	MaxFetchRetries     = 10
)

// Settings manages application configuration. Zero values fall back to the
// defaults through the getters.
type Settings struct {
	DownloadDir      string  `yaml:"download_dir,omitempty" envconfig:"DOWNLOAD_DIR"`
	MediaKind        string  `yaml:"media_kind,omitempty" envconfig:"MEDIA_KIND"`
	Quality          string  `yaml:"quality,omitempty" envconfig:"QUALITY"`
	FilenameTemplate string  `yaml:"filename_template,omitempty" envconfig:"FILENAME_TEMPLATE"`
	SearchCandidates int     `yaml:"search_candidates,omitempty" envconfig:"SEARCH_CANDIDATES"`
	FetchRetries     *int    `yaml:"fetch_retries,omitempty" envconfig:"FETCH_RETRIES"`
	AudioFormat      string  `yaml:"audio_format,omitempty" envconfig:"AUDIO_FORMAT"`
	AudioQuality     string  `yaml:"audio_quality,omitempty" envconfig:"AUDIO_QUALITY"`
	APIKey           string  `yaml:"api_key,omitempty" envconfig:"API_KEY"`
	CatalogRate      float64 `yaml:"catalog_rate,omitempty" envconfig:"CATALOG_RATE"`
	ListenAddr       string  `yaml:"listen_addr,omitempty" envconfig:"LISTEN_ADDR"`
	LogLevel         string  `yaml:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	LogJSON          bool    `yaml:"log_json,omitempty" envconfig:"LOG_JSON"`
}

// DefaultConfigPath returns $YTQ_CONFIG_FILE or the per-user config file
func DefaultConfigPath() string {
	if path := os.Getenv(envVarPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return configName
	}
	return filepath.Join(dir, appName, configName)
}

// Load reads the YAML file at path (a missing file is not an error) and then
// applies environment overrides. An empty path uses DefaultConfigPath.
func Load(path string) (*Settings, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	var s Settings
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &s); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &s, nil
}

// WriteYAML writes the effective settings, defaults included
func (s *Settings) WriteYAML(w io.Writer) error {
	retries := s.GetFetchRetries()
	effective := Settings{
		DownloadDir:      s.GetDownloadDirectory(),
		MediaKind:        string(s.GetMediaKind()),
		Quality:          s.GetQualityPreset(),
		FilenameTemplate: s.GetFilenameTemplate(),
		SearchCandidates: s.GetSearchCandidates(),
		FetchRetries:     &retries,
		AudioFormat:      s.GetAudioFormat(),
		AudioQuality:     s.GetAudioQuality(),
		CatalogRate:      s.GetCatalogRate(),
		ListenAddr:       s.GetListenAddr(),
		LogLevel:         s.GetLogLevel().String(),
		LogJSON:          s.LogJSON,
	}
	if s.APIKey != "" {
		effective.APIKey = "********"
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(effective); err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return enc.Close()
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	if s.DownloadDir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = DefaultDownloadDir
		}
		s.SetDownloadDirectory(defaultDir)
	}
	return s.DownloadDir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.DownloadDir = dir
}

// GetMediaKind returns the default media kind for enqueued items
func (s *Settings) GetMediaKind() model.MediaKind {
	return model.ParseMediaKind(s.MediaKind)
}

// SetMediaKind sets the default media kind
func (s *Settings) SetMediaKind(kind model.MediaKind) {
	s.MediaKind = string(kind)
}

// GetQualityPreset returns the configured quality: best, worst or a format id
func (s *Settings) GetQualityPreset() string {
	if s.Quality == "" {
		return DefaultQualityPreset
	}
	return s.Quality
}

// SetQualityPreset sets the quality preset
func (s *Settings) SetQualityPreset(preset string) {
	s.Quality = strings.TrimSpace(preset)
}

// GetQualityPresetOptions returns the named quality presets
func (s *Settings) GetQualityPresetOptions() []string {
	return []string{model.QualityBest, model.QualityWorst}
}

// GetFilenameTemplate returns the filename template
func (s *Settings) GetFilenameTemplate() string {
	if s.FilenameTemplate == "" {
		return DefaultFilenameTemplate
	}
	return s.FilenameTemplate
}

// SetFilenameTemplate sets the filename template
func (s *Settings) SetFilenameTemplate(template string) {
	if template == "" {
		template = DefaultFilenameTemplate
	}
	s.FilenameTemplate = template
}

// GetSearchCandidates returns how many catalog results are considered per query
func (s *Settings) GetSearchCandidates() int {
	if s.SearchCandidates <= 0 {
		return DefaultSearchCandidates
	}
	return clamp(s.SearchCandidates, MinSearchCandidates, MaxSearchCandidates)
}

// SetSearchCandidates sets the candidate cap
func (s *Settings) SetSearchCandidates(count int) {
	s.SearchCandidates = clamp(count, MinSearchCandidates, MaxSearchCandidates)
}

// GetFetchRetries returns the transfer retry count handed to yt-dlp
func (s *Settings) GetFetchRetries() int {
	if s.FetchRetries == nil {
		return DefaultFetchRetries
	}
	return clamp(*s.FetchRetries, MinFetchRetries, MaxFetchRetries)
}

// SetFetchRetries sets the transfer retry count
func (s *Settings) SetFetchRetries(count int) {
	count = clamp(count, MinFetchRetries, MaxFetchRetries)
	s.FetchRetries = &count
}

// GetAudioFormat returns the audio extraction codec
func (s *Settings) GetAudioFormat() string {
	if s.AudioFormat == "" {
		return DefaultAudioFormat
	}
	return s.AudioFormat
}

// GetAudioQuality returns the audio extraction bitrate in kbps
func (s *Settings) GetAudioQuality() string {
	if s.AudioQuality == "" {
		return DefaultAudioQuality
	}
	return s.AudioQuality
}

// GetAPIKey returns the YouTube Data API key, empty when not configured
func (s *Settings) GetAPIKey() string {
	return s.APIKey
}

// GetCatalogRate returns the catalog request rate in requests per second
func (s *Settings) GetCatalogRate() float64 {
	if s.CatalogRate <= 0 {
		return DefaultCatalogRate
	}
	return s.CatalogRate
}

// GetListenAddr returns the HTTP listen address
func (s *Settings) GetListenAddr() string {
	if s.ListenAddr == "" {
		return DefaultListenAddr
	}
	return s.ListenAddr
}

// GetLogLevel returns the parsed log level, info when unset or invalid
func (s *Settings) GetLogLevel() logrus.Level {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		level, _ = logrus.ParseLevel(DefaultLogLevel)
	}
	return level
}

// FetchOptions returns the yt-dlp engine options for these settings
func (s *Settings) FetchOptions() platform.FetchOptions {
	return platform.FetchOptions{
		DownloadDir:      s.GetDownloadDirectory(),
		FilenameTemplate: s.GetFilenameTemplate(),
		AudioFormat:      s.GetAudioFormat(),
		AudioQuality:     s.GetAudioQuality(),
		Retries:          s.GetFetchRetries(),
		ProbeTimeout:     platform.DefaultProbeTimeout,
	}
}

// NewLogger builds a logger honouring log_level and log_json
func (s *Settings) NewLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(s.GetLogLevel())
	if s.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
