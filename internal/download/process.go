package download

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-queue/internal/model"
	"github.com/ytget/yt-queue/internal/platform"
)

// ProcessQueue drives every item present when the call starts, one at a
// time and in queue order. Items enqueued meanwhile wait for the next run.
// A stop request or cancelled context is honoured between items; items not
// reached stay pending and are reported as Remaining.
func (s *Service) ProcessQueue(ctx context.Context, progress ProgressFunc) model.Summary {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	s.stopRequested.Store(false)
	s.running.Store(true)
	defer s.running.Store(false)

	slots := s.slots()
	summary := model.Summary{Total: len(slots)}
	s.logger.WithField("items", summary.Total).Info("Batch run started")

	for i, sl := range slots {
		item := sl.load()
		switch item.State {
		case model.StateFailed:
			summary.Failed++
			continue
		case model.StateCompleted:
			summary.Completed++
			continue
		}

		if summary.Stopped || s.stopRequested.Load() || ctx.Err() != nil {
			summary.Stopped = true
			summary.Remaining++
			continue
		}

		if progress != nil {
			progress(i+1, summary.Total, item.Source)
		}

		final := s.processItem(ctx, sl, false)
		if final.State == model.StateCompleted {
			summary.Completed++
		} else {
			summary.Failed++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"remaining": summary.Remaining,
	}).Info("Batch run finished")
	return summary
}

// Retry re-drives a failed item once. It waits for any run in progress.
func (s *Service) Retry(ctx context.Context, id string) (model.Item, error) {
	s.runMutex.Lock()
	defer s.runMutex.Unlock()

	s.itemsMutex.RLock()
	sl, exists := s.index[id]
	s.itemsMutex.RUnlock()
	if !exists {
		return model.Item{}, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	item := sl.load()
	if !item.CanRetry() {
		return item, fmt.Errorf("%w: %s is %s", ErrNotRetryable, id, item.State)
	}

	s.running.Store(true)
	defer s.running.Store(false)
	return s.processItem(ctx, sl, true), nil
}

// processItem moves one item through processing to completed or failed
func (s *Service) processItem(ctx context.Context, sl *slot, retry bool) model.Item {
	item, err := s.advance(sl, model.StateProcessing, retry, func(it *model.Item) {
		if retry {
			it.Retried = true
		}
	})
	if err != nil {
		s.logger.WithField("item", item.ID).WithError(err).Error("Cannot start item")
		return item
	}

	log := s.logger.WithFields(logrus.Fields{"item": item.ID, "source": item.Source})

	req, title, err := s.fetchRequest(ctx, item)
	if err != nil {
		return s.fail(sl, log, err)
	}
	log = log.WithField("locator", req.Locator)

	predicted, err := s.fetcher.ResolveOutputPath(ctx, req)
	if err != nil {
		return s.fail(sl, log, err)
	}

	if existing, ok := platform.FindExistingOutput(predicted, req.Kind); ok {
		log.WithField("path", existing).Info("Output already exists, skipping transfer")
		return s.complete(sl, req.Locator, existing, platform.FetchResult{Title: title})
	}

	result, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return s.fail(sl, log, err)
	}
	if result.Path == "" {
		result.Path = predicted
	}
	if result.Path == "" {
		return s.fail(sl, log, ErrNoOutputPath)
	}
	if result.Title == "" {
		result.Title = title
	}

	log.WithField("path", result.Path).Info("Item completed")
	return s.complete(sl, req.Locator, result.Path, result)
}

// fetchRequest picks the fetch target. Queries are resolved to the first
// accessible candidate; direct locators are used as given.
func (s *Service) fetchRequest(ctx context.Context, item model.Item) (platform.FetchRequest, string, error) {
	req := platform.FetchRequest{
		Locator: item.Locator,
		Format:  platform.FormatSelector(item.MediaKind, item.Quality),
		Kind:    item.MediaKind,
	}
	title := item.Title

	switch {
	case req.Locator != "":
	case s.matcher.IsLocator(item.Source):
		req.Locator = item.Source
	default:
		if s.resolver == nil {
			return req, title, fmt.Errorf("no resolver configured for query %q", item.Source)
		}
		candidate, err := s.resolver.ResolveTarget(ctx, item.Source, s.searchCandidates)
		if err != nil {
			return req, title, err
		}
		req.Locator = candidate.Locator
		title = candidate.Title
	}
	return req, title, nil
}

func (s *Service) complete(sl *slot, target, path string, result platform.FetchResult) model.Item {
	item, _ := s.advance(sl, model.StateCompleted, false, func(it *model.Item) {
		it.Locator = target
		it.OutputPath = path
		if result.Title != "" {
			it.Title = result.Title
		}
		if result.Duration != "" {
			it.Duration = result.Duration
		}
		if result.ViewCount > 0 {
			it.ViewCount = result.ViewCount
		}
	})
	return item
}

func (s *Service) fail(sl *slot, log logrus.FieldLogger, cause error) model.Item {
	log.WithError(cause).Warn("Item failed")
	item, _ := s.advance(sl, model.StateFailed, false, func(it *model.Item) {
		it.Error = cause.Error()
	})
	return item
}
