package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	ytget "github.com/ytget/ytdlp/v2"

	"github.com/ytget/yt-queue/internal/locator"
)

// Timeout constants
const (
	DefaultPlaylistParseTimeout = 60 * time.Second
)

// ErrNotPlaylist is returned for URLs without a list= parameter
var ErrNotPlaylist = errors.New("URL does not contain playlist parameter")

// PlaylistItem is one entry of an expanded playlist
type PlaylistItem struct {
	ID      string
	Title   string
	Locator string
}

// playlistFetcher is the slice of the ytdlp client the expander needs
type playlistFetcher func(ctx context.Context, playlistID string) ([]PlaylistItem, error)

// PlaylistService expands platform playlists into watch locators
type PlaylistService struct {
	timeout time.Duration
	matcher *locator.Matcher
	fetch   playlistFetcher
}

// NewPlaylistService creates a new playlist expander backed by ytget/ytdlp
func NewPlaylistService(matcher *locator.Matcher) *PlaylistService {
	if matcher == nil {
		matcher = locator.YouTube
	}
	p := &PlaylistService{
		timeout: DefaultPlaylistParseTimeout,
		matcher: matcher,
	}
	p.fetch = p.fetchItems
	return p
}

// SetTimeout sets the timeout for playlist parsing
func (p *PlaylistService) SetTimeout(timeout time.Duration) {
	p.timeout = timeout
}

// Expand returns the playlist entries in playlist order
func (p *PlaylistService) Expand(ctx context.Context, url string) ([]PlaylistItem, error) {
	playlistID, ok := locator.PlaylistID(url)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotPlaylist, url)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	items, err := p.fetch(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}
	return items, nil
}

func (p *PlaylistService) fetchItems(ctx context.Context, playlistID string) ([]PlaylistItem, error) {
	d := ytget.New()
	entries, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, err
	}

	items := make([]PlaylistItem, 0, len(entries))
	for _, it := range entries {
		if !locator.IsValidID(it.VideoID) {
			continue
		}
		items = append(items, PlaylistItem{
			ID:      it.VideoID,
			Title:   it.Title,
			Locator: p.matcher.Canonical(it.VideoID),
		})
	}
	return items, nil
}
