package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

func init() {
	color.NoColor = true
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		max      int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a longer title here", 10, "a longer …"},
		{"песня про лето", 6, "песня…"},
	}

	for _, test := range tests {
		if got := truncate(test.in, test.max); got != test.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q", test.in, test.max, got, test.expected)
		}
	}
}

func TestRenderItems(t *testing.T) {
	var buf bytes.Buffer
	renderItems(&buf, []model.Item{
		{Source: "a", Title: "Done Song", State: model.StateCompleted, OutputPath: "/media/done.mp3"},
		{Source: "b", State: model.StateFailed, Error: "No accessible videos found in search results"},
	})

	out := buf.String()
	for _, want := range []string{"Done Song", "/media/done.mp3", "completed", "failed", "No accessible videos"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table:\n%s", want, out)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, model.Summary{Completed: 2, Failed: 1, Total: 5, Remaining: 2, Stopped: true})

	expected := "Done: 2 completed, 1 failed of 5 (stopped, 2 left pending)\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, ""},
		{512, "512 B"},
		{1536, "1.5 KiB"},
		{3433514, "3.3 MiB"},
		{79412345, "75.7 MiB"},
	}

	for _, test := range tests {
		if got := formatSize(test.bytes); got != test.expected {
			t.Errorf("formatSize(%d) = %q, expected %q", test.bytes, got, test.expected)
		}
	}
}

func TestRenderFormats(t *testing.T) {
	var buf bytes.Buffer
	renderFormats(&buf, []platform.FormatInfo{
		{ID: "140", Ext: "m4a", Resolution: "audio only", FileSize: 3433514, VCodec: "none", ACodec: "mp4a.40.2"},
		{ID: "137", Ext: "mp4", Resolution: "1920x1080", FPS: 25, FileSize: 79412345, VCodec: "avc1.640028", ACodec: "none"},
	})

	out := buf.String()
	for _, want := range []string{"140", "audio only", "3.3 MiB", "1920x1080", "25", "avc1.640028"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in table:\n%s", want, out)
		}
	}
}
