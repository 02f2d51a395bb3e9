package catalog

import (
	"context"
	"fmt"
	"html"

	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Data API request parts
var (
	searchParts  = []string{"id", "snippet"}
	detailsParts = []string{"contentDetails", "statistics"}
)

const searchTypeVideo = "video"

// DataAPI searches and looks up videos through the YouTube Data API v3
type DataAPI struct {
	service *youtube.Service
	limiter *rate.Limiter
}

// NewDataAPI creates a Data API client authenticated with an API key.
// Extra options (endpoint, HTTP client) are appended after the key.
func NewDataAPI(ctx context.Context, apiKey string, limiter *rate.Limiter, opts ...option.ClientOption) (*DataAPI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("initializing youtube client: missing API key")
	}
	if limiter == nil {
		limiter = NewLimiter(0)
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initializing youtube client: %w", err)
	}
	return &DataAPI{service: service, limiter: limiter}, nil
}

// Search returns up to max video results in the requested order
func (c *DataAPI) Search(ctx context.Context, query string, max int, order Order) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if order == "" {
		order = DefaultOrder
	}

	resp, err := c.service.Search.List(searchParts).
		Q(query).
		Type(searchTypeVideo).
		MaxResults(int64(max)).
		Order(string(order)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("searching youtube: %w", err)
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		r := Result{ID: item.Id.VideoId}
		if item.Snippet != nil {
			// the API returns HTML-escaped titles
			r.Title = html.UnescapeString(item.Snippet.Title)
			r.Channel = html.UnescapeString(item.Snippet.ChannelTitle)
			r.Description = snippet(html.UnescapeString(item.Snippet.Description))
		}
		results = append(results, r)
	}
	return results, nil
}

// Details returns duration, view and like counts for one video
func (c *DataAPI) Details(ctx context.Context, id string) (Details, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Details{}, err
	}

	resp, err := c.service.Videos.List(detailsParts).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return Details{}, fmt.Errorf("fetching video info for %s: %w", id, err)
	}
	if len(resp.Items) == 0 {
		return Details{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	video := resp.Items[0]
	var d Details
	if video.ContentDetails != nil {
		d.Duration = DurationLabel(video.ContentDetails.Duration)
	}
	if video.Statistics != nil {
		d.ViewCount = int64(video.Statistics.ViewCount)
		d.LikeCount = int64(video.Statistics.LikeCount)
	}
	return d, nil
}
