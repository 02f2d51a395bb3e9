package platform

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewPlaylistService(t *testing.T) {
	service := NewPlaylistService(nil)

	if service == nil {
		t.Fatal("service should not be nil")
	}
	if service.timeout != DefaultPlaylistParseTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultPlaylistParseTimeout, service.timeout)
	}
	if service.matcher == nil {
		t.Error("expected default matcher")
	}
}

func TestPlaylistSetTimeout(t *testing.T) {
	service := NewPlaylistService(nil)
	service.SetTimeout(30 * time.Second)

	if service.timeout != 30*time.Second {
		t.Errorf("expected timeout %v, got %v", 30*time.Second, service.timeout)
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		items       []PlaylistItem
		fetchErr    error
		expectedID  string
		expectedLen int
		expectError error
	}{
		{
			name: "expands playlist in order",
			url:  "https://www.youtube.com/playlist?list=PL123",
			items: []PlaylistItem{
				{ID: "dQw4w9WgXcQ", Title: "First", Locator: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
				{ID: "9bZkp7q19f0", Title: "Second", Locator: "https://www.youtube.com/watch?v=9bZkp7q19f0"},
			},
			expectedID:  "PL123",
			expectedLen: 2,
		},
		{
			name:        "rejects URL without list parameter",
			url:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			expectError: ErrNotPlaylist,
		},
		{
			name:        "propagates fetch errors",
			url:         "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL999",
			fetchErr:    errors.New("boom"),
			expectedID:  "PL999",
			expectError: errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewPlaylistService(nil)
			var gotID string
			service.fetch = func(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
				gotID = playlistID
				if _, ok := ctx.Deadline(); !ok {
					t.Error("expected fetch context to carry a deadline")
				}
				return tt.items, tt.fetchErr
			}

			items, err := service.Expand(context.Background(), tt.url)
			if tt.expectError != nil {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if errors.Is(tt.expectError, ErrNotPlaylist) && !errors.Is(err, ErrNotPlaylist) {
					t.Errorf("expected ErrNotPlaylist, got %v", err)
				}
				if gotID != tt.expectedID {
					t.Errorf("expected playlist id %q, got %q", tt.expectedID, gotID)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotID != tt.expectedID {
				t.Errorf("expected playlist id %q, got %q", tt.expectedID, gotID)
			}
			if len(items) != tt.expectedLen {
				t.Fatalf("expected %d items, got %d", tt.expectedLen, len(items))
			}
			if items[0].Title != "First" {
				t.Errorf("expected playlist order to be preserved, got %+v", items)
			}
		})
	}
}
