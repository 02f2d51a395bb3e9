package download

import (
	"context"
	"io"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

// Fetcher is the fetch engine used for probing, output path prediction and
// transfers.
type Fetcher interface {
	Probe(ctx context.Context, locator string) (bool, string)
	ResolveOutputPath(ctx context.Context, req platform.FetchRequest) (string, error)
	Fetch(ctx context.Context, req platform.FetchRequest) (platform.FetchResult, error)
}

// TargetResolver picks the fetch target for a free-text source
type TargetResolver interface {
	ResolveTarget(ctx context.Context, source string, max int) (model.Candidate, error)
}

// PlaylistExpander turns a playlist URL into its entries
type PlaylistExpander interface {
	Expand(ctx context.Context, url string) ([]platform.PlaylistItem, error)
}

// ProgressFunc receives the 1-based index, the run size and the item source
// before each item is processed.
type ProgressFunc func(index, total int, source string)

// Queue defines the interface for the queue service.
type Queue interface {
	SetUpdateCallback(func(model.Item))

	EnqueueOne(ctx context.Context, source string, kind model.MediaKind, quality string) (model.Item, error)
	EnqueueMany(ctx context.Context, sources []string, kind model.MediaKind, quality string) []model.Item
	EnqueueFromText(ctx context.Context, raw string, kind model.MediaKind, quality string) []model.Item
	EnqueueFromFile(ctx context.Context, path string, kind model.MediaKind, quality string) ([]model.Item, error)
	EnqueuePlaylist(ctx context.Context, url string, kind model.MediaKind, quality string) ([]model.Item, error)

	Item(id string) (model.Item, bool)
	Items() []model.Item
	Snapshot() model.Snapshot
	Clear() error

	// ProcessQueue drives every item present at call time and never fails
	ProcessQueue(ctx context.Context, progress ProgressFunc) model.Summary
	Retry(ctx context.Context, id string) (model.Item, error)
	Stop() bool
	Running() bool

	ExportState() []model.Record
	WriteExport(w io.Writer) error
}
