// Package api exposes the queue over HTTP so a separate reader can enqueue,
// start runs and poll progress while a batch is being processed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-queue/internal/catalog"
	"github.com/ytget/yt-queue/internal/download"
	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/resolver"
)

// maxBodyBytes bounds enqueue request bodies
const maxBodyBytes = 1 << 20

type candidateSearcher interface {
	Resolve(ctx context.Context, source string, max int, order catalog.Order) ([]model.Candidate, error)
}

// Defaults applied to requests that leave fields empty
type Defaults struct {
	MediaKind        model.MediaKind
	Quality          string
	SearchCandidates int
}

type Handler struct {
	ctx      context.Context
	queue    download.Queue
	searcher candidateSearcher
	defaults Defaults
	logger   logrus.FieldLogger

	busy    atomic.Bool
	runs    sync.WaitGroup
	mu      sync.RWMutex
	lastRun *model.Summary
}

// NewHandler wires HTTP handlers with the queue. Background runs started
// through the API use ctx, so cancelling it stops them between items.
func NewHandler(ctx context.Context, queue download.Queue, searcher candidateSearcher, defaults Defaults, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if defaults.MediaKind == "" {
		defaults.MediaKind = model.DefaultMediaKind
	}
	if defaults.Quality == "" {
		defaults.Quality = model.QualityBest
	}
	if defaults.SearchCandidates <= 0 {
		defaults.SearchCandidates = resolver.DefaultMaxCandidates
	}
	return &Handler{
		ctx:      ctx,
		queue:    queue,
		searcher: searcher,
		defaults: defaults,
		logger:   logger,
	}
}

// Wait blocks until a background run started through the API has returned
func (h *Handler) Wait() {
	h.runs.Wait()
}

type enqueueRequest struct {
	Sources   []string `json:"sources"`
	Text      string   `json:"text"`
	Playlist  string   `json:"playlist"`
	MediaKind string   `json:"media_kind"`
	Quality   string   `json:"quality"`
}

// Enqueue handles POST /api/queue.
func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	kind := h.defaults.MediaKind
	if req.MediaKind != "" {
		kind = model.ParseMediaKind(req.MediaKind)
	}
	quality := h.defaults.Quality
	if q := strings.TrimSpace(req.Quality); q != "" {
		quality = q
	}

	ctx := r.Context()
	items := h.queue.EnqueueMany(ctx, req.Sources, kind, quality)
	if req.Text != "" {
		items = append(items, h.queue.EnqueueFromText(ctx, req.Text, kind, quality)...)
	}
	if req.Playlist != "" {
		added, err := h.queue.EnqueuePlaylist(ctx, req.Playlist, kind, quality)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		items = append(items, added...)
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, download.ErrEmptySource)
		return
	}

	writeJSON(w, http.StatusCreated, items)
}

// ListItems handles GET /api/queue.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queue.Items())
}

// GetItem handles GET /api/queue/items/{id}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, ok := h.queue.Item(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, download.ErrItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type statusResponse struct {
	Snapshot model.Snapshot `json:"snapshot"`
	Running  bool           `json:"running"`
	LastRun  *model.Summary `json:"last_run,omitempty"`
}

// Snapshot handles GET /api/queue/snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	lastRun := h.lastRun
	h.mu.RUnlock()

	writeJSON(w, http.StatusOK, statusResponse{
		Snapshot: h.queue.Snapshot(),
		Running:  h.queue.Running() || h.busy.Load(),
		LastRun:  lastRun,
	})
}

// Export handles GET /api/queue/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := h.queue.WriteExport(w); err != nil {
		h.logger.WithError(err).Error("Export failed")
	}
}

// Process handles POST /api/queue/process. The run continues in the
// background; progress is read through the snapshot endpoint.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	if h.queue.Running() || !h.busy.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, download.ErrBusy)
		return
	}

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		defer h.busy.Store(false)

		summary := h.queue.ProcessQueue(h.ctx, func(index, total int, source string) {
			h.logger.WithField("source", source).Infof("Processing %d/%d", index, total)
		})
		h.mu.Lock()
		h.lastRun = &summary
		h.mu.Unlock()
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Stop handles POST /api/queue/stop.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"stopping": h.queue.Stop()})
}

// Retry handles POST /api/queue/items/{id}/retry.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	item, err := h.queue.Retry(h.ctx, mux.Vars(r)["id"])
	switch {
	case errors.Is(err, download.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, download.ErrNotRetryable):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, item)
	}
}

// Clear handles DELETE /api/queue.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.Clear(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search?q=&max=&order=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing q parameter"))
		return
	}
	if h.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, resolver.ErrCatalogUnavailable)
		return
	}
	max := h.defaults.SearchCandidates
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("max must be a positive integer"))
			return
		}
		max = n
	}
	order := catalog.ParseOrder(r.URL.Query().Get("order"))

	candidates, err := h.searcher.Resolve(r.Context(), query, max, order)
	switch {
	case errors.Is(err, resolver.ErrNoResultsFound):
		writeJSON(w, http.StatusOK, []model.Candidate{})
	case errors.Is(err, resolver.ErrCatalogUnavailable):
		writeError(w, http.StatusBadGateway, err)
	case err != nil:
		writeError(w, http.StatusBadRequest, err)
	default:
		writeJSON(w, http.StatusOK, candidates)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
