package download

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-queue/internal/locator"
	"github.com/ytget/yt-queue/internal/model"
)

// URLValidationPrefix prefixes the probe detail of items failed at enqueue
const URLValidationPrefix = "URL validation failed: "

// DefaultSearchCandidates is the candidate cap used to resolve queries
const DefaultSearchCandidates = 5

// itemIDPrefix is prepended to generated item ids
const itemIDPrefix = "item-"

// Queue errors
var (
	ErrEmptySource        = errors.New("empty source")
	ErrItemNotFound       = errors.New("item not found")
	ErrNotRetryable       = errors.New("item cannot be retried")
	ErrBusy               = errors.New("queue is being processed")
	ErrNoPlaylistExpander = errors.New("playlist expansion is not configured")
	ErrEmptyPlaylist      = errors.New("playlist has no entries")
	ErrIllegalTransition  = errors.New("illegal state transition")
	ErrNoOutputPath       = errors.New("fetch engine reported no output path")
)

// slot holds one queue item. Transitions publish a complete new copy so
// readers never see a half-applied transition.
type slot struct {
	item atomic.Pointer[model.Item]
}

func newSlot(item model.Item) *slot {
	s := &slot{}
	s.item.Store(&item)
	return s
}

func (s *slot) load() model.Item {
	return *s.item.Load()
}

// Service handles the queue and its batch runs
type Service struct {
	items      []*slot
	index      map[string]*slot
	itemsMutex sync.RWMutex

	// runMutex makes the batch driver (or a retry) the sole writer of item state
	runMutex      sync.Mutex
	running       atomic.Bool
	stopRequested atomic.Bool

	fetcher          Fetcher
	resolver         TargetResolver
	playlists        PlaylistExpander
	matcher          *locator.Matcher
	searchCandidates int
	logger           logrus.FieldLogger

	callbackMutex sync.RWMutex
	onUpdate      func(model.Item) // callback for readers (CLI, HTTP)

	now func() time.Time
}

var _ Queue = (*Service)(nil)

// NewService creates a new queue service
func NewService(fetcher Fetcher, resolver TargetResolver, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		index:            make(map[string]*slot),
		fetcher:          fetcher,
		resolver:         resolver,
		matcher:          locator.YouTube,
		searchCandidates: DefaultSearchCandidates,
		logger:           logger,
		now:              time.Now,
	}
}

// SetUpdateCallback sets the callback function for item updates
func (s *Service) SetUpdateCallback(callback func(model.Item)) {
	s.callbackMutex.Lock()
	defer s.callbackMutex.Unlock()
	s.onUpdate = callback
}

// SetPlaylistExpander configures playlist expansion for EnqueuePlaylist
func (s *Service) SetPlaylistExpander(expander PlaylistExpander) {
	s.playlists = expander
}

// SetMatcher sets the matcher that tells direct locators from queries
func (s *Service) SetMatcher(matcher *locator.Matcher) {
	if matcher != nil {
		s.matcher = matcher
	}
}

// SetSearchCandidates sets the candidate cap for query resolution
func (s *Service) SetSearchCandidates(max int) {
	if max > 0 {
		s.searchCandidates = max
	}
}

// EnqueueOne adds a single source. A direct locator is probed right away and
// an inaccessible one is added already failed; that outcome is recorded in
// the item, not returned as an error.
func (s *Service) EnqueueOne(ctx context.Context, source string, kind model.MediaKind, quality string) (model.Item, error) {
	return s.enqueue(ctx, source, kind, quality, "")
}

func (s *Service) enqueue(ctx context.Context, source string, kind model.MediaKind, quality, title string) (model.Item, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return model.Item{}, ErrEmptySource
	}
	if kind == "" {
		kind = model.DefaultMediaKind
	}
	if quality == "" {
		quality = model.QualityBest
	}

	now := s.now()
	item := model.Item{
		ID:        generateItemID(),
		Source:    source,
		MediaKind: kind,
		Quality:   quality,
		State:     model.StatePending,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if s.matcher.IsLocator(source) {
		item.Locator = source
		if ok, detail := s.fetcher.Probe(ctx, source); !ok {
			item.State = model.StateFailed
			item.Error = URLValidationPrefix + detail
			s.logger.WithFields(logrus.Fields{"item": item.ID, "source": source}).
				Warnf("Probe failed: %s", detail)
		}
	}

	s.itemsMutex.Lock()
	sl := newSlot(item)
	s.items = append(s.items, sl)
	s.index[item.ID] = sl
	s.itemsMutex.Unlock()

	s.notifyUpdate(item)
	return item, nil
}

// EnqueueMany adds each non-blank source in order
func (s *Service) EnqueueMany(ctx context.Context, sources []string, kind model.MediaKind, quality string) []model.Item {
	items := make([]model.Item, 0, len(sources))
	for _, source := range sources {
		item, err := s.EnqueueOne(ctx, source, kind, quality)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// EnqueueFromText adds one source per non-blank line
func (s *Service) EnqueueFromText(ctx context.Context, raw string, kind model.MediaKind, quality string) []model.Item {
	sources, _ := readSources(strings.NewReader(raw))
	return s.EnqueueMany(ctx, sources, kind, quality)
}

// EnqueueFromFile adds one source per non-blank line of a UTF-8 text file
func (s *Service) EnqueueFromFile(ctx context.Context, path string, kind model.MediaKind, quality string) ([]model.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	sources, err := readSources(f)
	if err != nil {
		return nil, fmt.Errorf("reading batch file %s: %w", path, err)
	}
	s.logger.WithField("file", path).Infof("Loaded %d sources", len(sources))
	return s.EnqueueMany(ctx, sources, kind, quality), nil
}

// EnqueuePlaylist expands a playlist URL and adds every entry in playlist order
func (s *Service) EnqueuePlaylist(ctx context.Context, url string, kind model.MediaKind, quality string) ([]model.Item, error) {
	if s.playlists == nil {
		return nil, ErrNoPlaylistExpander
	}

	entries, err := s.playlists.Expand(ctx, strings.TrimSpace(url))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPlaylist, url)
	}

	items := make([]model.Item, 0, len(entries))
	for _, entry := range entries {
		item, err := s.enqueue(ctx, entry.Locator, kind, quality, entry.Title)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// readSources returns the trimmed, non-blank lines of r
func readSources(r io.Reader) ([]string, error) {
	var sources []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			sources = append(sources, line)
		}
	}
	return sources, scanner.Err()
}

// Item returns an item by ID
func (s *Service) Item(id string) (model.Item, bool) {
	s.itemsMutex.RLock()
	sl, exists := s.index[id]
	s.itemsMutex.RUnlock()
	if !exists {
		return model.Item{}, false
	}
	return sl.load(), true
}

// Items returns a copy of every item in queue order
func (s *Service) Items() []model.Item {
	slots := s.slots()
	items := make([]model.Item, 0, len(slots))
	for _, sl := range slots {
		items = append(items, sl.load())
	}
	return items
}

// Snapshot returns the per-state counts at this point in time
func (s *Service) Snapshot() model.Snapshot {
	var snap model.Snapshot
	for _, sl := range s.slots() {
		snap.Add(sl.load().State)
	}
	return snap
}

// Clear discards every item. It is refused while a run is in progress.
func (s *Service) Clear() error {
	if !s.runMutex.TryLock() {
		return ErrBusy
	}
	defer s.runMutex.Unlock()

	s.itemsMutex.Lock()
	s.items = nil
	s.index = make(map[string]*slot)
	s.itemsMutex.Unlock()

	s.logger.Info("Queue cleared")
	return nil
}

// Stop asks a running batch to stop before its next item. It reports
// whether a run was in progress.
func (s *Service) Stop() bool {
	if !s.running.Load() {
		return false
	}
	s.stopRequested.Store(true)
	return true
}

// Running reports whether a batch run is in progress
func (s *Service) Running() bool {
	return s.running.Load()
}

// slots returns the current membership without holding the lock afterwards
func (s *Service) slots() []*slot {
	s.itemsMutex.RLock()
	defer s.itemsMutex.RUnlock()
	slots := make([]*slot, len(s.items))
	copy(slots, s.items)
	return slots
}

// advance publishes a copy of the slot's item moved to next. Only the holder
// of runMutex calls it.
func (s *Service) advance(sl *slot, next model.State, retry bool, mutate func(*model.Item)) (model.Item, error) {
	current := sl.load()
	if !current.State.CanTransition(next, retry) {
		return current, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.State, next)
	}

	updated := current
	updated.State = next
	if mutate != nil {
		mutate(&updated)
	}
	if next != model.StateCompleted {
		updated.OutputPath = ""
	}
	if next != model.StateFailed {
		updated.Error = ""
	}
	updated.UpdatedAt = s.now()

	sl.item.Store(&updated)
	s.notifyUpdate(updated)
	return updated, nil
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(item model.Item) {
	s.callbackMutex.RLock()
	callback := s.onUpdate
	s.callbackMutex.RUnlock()
	if callback != nil {
		callback(item)
	}
}

// generateItemID generates a unique item ID
func generateItemID() string {
	return itemIDPrefix + uuid.NewString()
}
