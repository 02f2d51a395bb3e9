package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kkdai/youtube/v2"
	"golang.org/x/time/rate"

	"github.com/ytget/yt-queue/internal/platform"
)

// DefaultPlayerTimeout bounds one player API request
const DefaultPlayerTimeout = 30 * time.Second

// PlayerLookup reads duration and view count from the player API. It needs
// no API key and carries no like count.
type PlayerLookup struct {
	client  *youtube.Client
	limiter *rate.Limiter
}

// NewPlayerLookup creates a keyless details lookup
func NewPlayerLookup(limiter *rate.Limiter) *PlayerLookup {
	if limiter == nil {
		limiter = NewLimiter(0)
	}
	return &PlayerLookup{
		client: &youtube.Client{
			HTTPClient: &http.Client{Timeout: DefaultPlayerTimeout},
		},
		limiter: limiter,
	}
}

// Details implements the lookup through the player API
func (p *PlayerLookup) Details(ctx context.Context, id string) (Details, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Details{}, err
	}

	video, err := p.client.GetVideoContext(ctx, id)
	if err != nil {
		return Details{}, fmt.Errorf("fetching player info for %s: %w", id, err)
	}

	d := Details{ViewCount: int64(video.Views)}
	if video.Duration > 0 {
		d.Duration = platform.FormatDuration(int(video.Duration.Seconds()))
	}
	return d, nil
}
