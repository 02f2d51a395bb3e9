package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-queue/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFile(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Missing config file should not be an error, got %v", err)
	}

	if settings.GetMediaKind() != model.MediaAudio {
		t.Errorf("Expected default media kind audio, got %s", settings.GetMediaKind())
	}
	if settings.GetSearchCandidates() != DefaultSearchCandidates {
		t.Errorf("Expected default candidates %d, got %d", DefaultSearchCandidates, settings.GetSearchCandidates())
	}
	if settings.GetFetchRetries() != DefaultFetchRetries {
		t.Errorf("Expected default retries %d, got %d", DefaultFetchRetries, settings.GetFetchRetries())
	}
	if settings.GetAudioFormat() != "mp3" || settings.GetAudioQuality() != "192" {
		t.Errorf("Expected mp3 @ 192, got %s @ %s", settings.GetAudioFormat(), settings.GetAudioQuality())
	}
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
download_dir: /srv/media
media_kind: video
quality: worst
search_candidates: 8
fetch_retries: 0
listen_addr: ":9000"
`)
	t.Setenv("YTQ_QUALITY", "137+140")
	t.Setenv("YTQ_API_KEY", "secret")
	t.Setenv("YTQ_CATALOG_RATE", "2.5")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if settings.GetDownloadDirectory() != "/srv/media" {
		t.Errorf("Expected download dir from file, got %s", settings.GetDownloadDirectory())
	}
	if settings.GetMediaKind() != model.MediaVideo {
		t.Errorf("Expected video, got %s", settings.GetMediaKind())
	}
	if settings.GetQualityPreset() != "137+140" {
		t.Errorf("Expected environment to override quality, got %s", settings.GetQualityPreset())
	}
	if settings.GetSearchCandidates() != 8 {
		t.Errorf("Expected 8 candidates, got %d", settings.GetSearchCandidates())
	}
	if settings.GetFetchRetries() != 0 {
		t.Errorf("Expected explicit zero retries to be kept, got %d", settings.GetFetchRetries())
	}
	if settings.GetAPIKey() != "secret" || settings.GetCatalogRate() != 2.5 {
		t.Errorf("Unexpected key/rate %q / %v", settings.GetAPIKey(), settings.GetCatalogRate())
	}
	if settings.GetListenAddr() != ":9000" {
		t.Errorf("Expected listen addr :9000, got %s", settings.GetListenAddr())
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "search_candidates: [not, a, number]")
	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	t.Setenv("YTQ_SEARCH_CANDIDATES", "many")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for non-numeric environment value")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("YTQ_CONFIG_FILE", "/etc/yt-queue.yaml")
	if path := DefaultConfigPath(); path != "/etc/yt-queue.yaml" {
		t.Errorf("Expected override path, got %s", path)
	}
}

func TestDownloadDirectory(t *testing.T) {
	settings := &Settings{}

	// Test default value
	if dir := settings.GetDownloadDirectory(); dir == "" {
		t.Error("Download directory should not be empty")
	}

	// Test setting custom value
	customDir := "/custom/downloads"
	settings.SetDownloadDirectory(customDir)
	if retrievedDir := settings.GetDownloadDirectory(); retrievedDir != customDir {
		t.Errorf("Expected download directory %s, got %s", customDir, retrievedDir)
	}
}

func TestSearchCandidates(t *testing.T) {
	settings := &Settings{}

	settings.SetSearchCandidates(10)
	if settings.GetSearchCandidates() != 10 {
		t.Errorf("Expected 10, got %d", settings.GetSearchCandidates())
	}

	// Test boundary values
	settings.SetSearchCandidates(0)
	if settings.GetSearchCandidates() != MinSearchCandidates {
		t.Error("Search candidates should be clamped to minimum 1")
	}
	settings.SetSearchCandidates(100)
	if settings.GetSearchCandidates() != MaxSearchCandidates {
		t.Error("Search candidates should be clamped to maximum 25")
	}
}

func TestFetchRetries(t *testing.T) {
	settings := &Settings{}

	settings.SetFetchRetries(-1)
	if settings.GetFetchRetries() != MinFetchRetries {
		t.Error("Fetch retries should be clamped to minimum 0")
	}
	settings.SetFetchRetries(15)
	if settings.GetFetchRetries() != MaxFetchRetries {
		t.Error("Fetch retries should be clamped to maximum 10")
	}
}

func TestFilenameTemplate(t *testing.T) {
	settings := &Settings{}

	// Test default value
	if template := settings.GetFilenameTemplate(); template != DefaultFilenameTemplate {
		t.Errorf("Expected default template %s, got %s", DefaultFilenameTemplate, template)
	}

	customTemplate := "%(uploader)s - %(title)s.%(ext)s"
	settings.SetFilenameTemplate(customTemplate)
	if retrieved := settings.GetFilenameTemplate(); retrieved != customTemplate {
		t.Errorf("Expected template %s, got %s", customTemplate, retrieved)
	}

	// Test empty template defaults back
	settings.SetFilenameTemplate("")
	if retrieved := settings.GetFilenameTemplate(); retrieved != DefaultFilenameTemplate {
		t.Errorf("Empty template should default to %s, got %s", DefaultFilenameTemplate, retrieved)
	}
}

func TestQualityPreset(t *testing.T) {
	settings := &Settings{}

	if preset := settings.GetQualityPreset(); preset != DefaultQualityPreset {
		t.Errorf("Expected default quality preset %s, got %s", DefaultQualityPreset, preset)
	}

	settings.SetQualityPreset(" worst ")
	if preset := settings.GetQualityPreset(); preset != model.QualityWorst {
		t.Errorf("Expected quality preset worst, got %s", preset)
	}

	options := settings.GetQualityPresetOptions()
	if len(options) != 2 || options[0] != model.QualityBest || options[1] != model.QualityWorst {
		t.Errorf("Unexpected options %v", options)
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		raw      string
		expected logrus.Level
	}{
		{"", logrus.InfoLevel},
		{"debug", logrus.DebugLevel},
		{"WARN", logrus.WarnLevel},
		{"loud", logrus.InfoLevel},
	}

	for _, test := range tests {
		settings := &Settings{LogLevel: test.raw}
		if level := settings.GetLogLevel(); level != test.expected {
			t.Errorf("GetLogLevel(%q) = %s, expected %s", test.raw, level, test.expected)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	settings := &Settings{LogLevel: "warn", LogJSON: true}
	logger := settings.NewLogger(&buf)

	logger.Info("hidden")
	logger.WithField("item", "item-1").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info entry should be filtered at warn level")
	}
	if !strings.Contains(out, `"item":"item-1"`) || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("Expected JSON entry, got %s", out)
	}
}

func TestFetchOptions(t *testing.T) {
	settings := &Settings{DownloadDir: "/media", AudioFormat: "opus"}
	settings.SetFetchRetries(5)

	opts := settings.FetchOptions()
	if opts.DownloadDir != "/media" || opts.AudioFormat != "opus" || opts.Retries != 5 {
		t.Errorf("Unexpected fetch options %+v", opts)
	}
	if opts.AudioQuality != DefaultAudioQuality || opts.FilenameTemplate != DefaultFilenameTemplate {
		t.Errorf("Expected defaults to fill fetch options, got %+v", opts)
	}
}

func TestWriteYAML(t *testing.T) {
	settings := &Settings{DownloadDir: "/media", APIKey: "secret"}

	var buf bytes.Buffer
	if err := settings.WriteYAML(&buf); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "secret") {
		t.Error("API key must be masked")
	}
	for _, want := range []string{"download_dir: /media", "search_candidates: 5", "fetch_retries: 3", "media_kind: audio"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in %s", want, out)
		}
	}
}
