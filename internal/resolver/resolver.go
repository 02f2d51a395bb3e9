// Package resolver turns a queue source (direct locator or free-text query)
// into ranked, probed candidates and picks the fetch target.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ytget/yt-queue/internal/catalog"
	"github.com/ytget/yt-queue/internal/locator"
	"github.com/ytget/yt-queue/internal/model"
)

// DefaultMaxCandidates caps the catalog search during automatic resolution
const DefaultMaxCandidates = 5

// Resolution errors
var (
	ErrCatalogUnavailable    = errors.New("catalog unavailable")
	ErrNoResultsFound        = errors.New("No search results found")
	ErrNoAccessibleCandidate = errors.New("No accessible videos found in search results")
	ErrInvalidLocator        = errors.New("invalid locator")
)

// Searcher queries the remote catalog
type Searcher interface {
	Search(ctx context.Context, query string, max int, order catalog.Order) ([]catalog.Result, error)
}

// DetailsLookup fetches secondary metadata for one id
type DetailsLookup interface {
	Details(ctx context.Context, id string) (catalog.Details, error)
}

// Prober checks that a locator can be resolved without transferring data
type Prober interface {
	Probe(ctx context.Context, locator string) (bool, string)
}

// Resolver resolves sources into candidates
type Resolver struct {
	matcher  *locator.Matcher
	searcher Searcher
	details  DetailsLookup
	prober   Prober
	logger   logrus.FieldLogger
}

// New creates a resolver. searcher and details may be nil; without a
// searcher every query resolves to ErrCatalogUnavailable.
func New(matcher *locator.Matcher, searcher Searcher, details DetailsLookup, prober Prober, logger logrus.FieldLogger) *Resolver {
	if matcher == nil {
		matcher = locator.YouTube
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Resolver{
		matcher:  matcher,
		searcher: searcher,
		details:  details,
		prober:   prober,
		logger:   logger,
	}
}

// Matcher returns the locator matcher used to tell locators from queries
func (r *Resolver) Matcher() *locator.Matcher {
	return r.matcher
}

// Resolve returns the probed candidates for source. A direct locator yields a
// single candidate without searching; anything else is searched in the
// catalog with at most max results in the given order.
func (r *Resolver) Resolve(ctx context.Context, source string, max int, order catalog.Order) ([]model.Candidate, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidLocator)
	}

	if r.matcher.IsLocator(source) {
		c, err := r.ProbeLocator(ctx, source)
		if err != nil {
			return nil, err
		}
		return []model.Candidate{c}, nil
	}

	return r.search(ctx, source, max, order)
}

// ProbeLocator builds the candidate for a direct locator
func (r *Resolver) ProbeLocator(ctx context.Context, source string) (model.Candidate, error) {
	source = strings.TrimSpace(source)
	id, ok := r.matcher.ExtractID(source)
	if !ok {
		return model.Candidate{}, fmt.Errorf("%w: %s", ErrInvalidLocator, source)
	}

	c := model.Candidate{ID: id, Locator: source}
	r.probe(ctx, &c)
	r.mergeDetails(ctx, &c)
	return c, nil
}

func (r *Resolver) search(ctx context.Context, query string, max int, order catalog.Order) ([]model.Candidate, error) {
	log := r.logger.WithField("query", query)
	if r.searcher == nil {
		log.Warn("No catalog configured for search")
		return nil, fmt.Errorf("%w: no searcher configured", ErrCatalogUnavailable)
	}
	if max <= 0 {
		max = DefaultMaxCandidates
	}
	if order == "" {
		order = catalog.DefaultOrder
	}

	results, err := r.searcher.Search(ctx, query, max, order)
	if err != nil {
		log.WithError(err).Warn("Catalog search failed")
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if len(results) == 0 {
		return nil, ErrNoResultsFound
	}
	if len(results) > max {
		results = results[:max]
	}

	candidates := make([]model.Candidate, 0, len(results))
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := model.Candidate{
			ID:          res.ID,
			Title:       res.Title,
			Locator:     r.matcher.Canonical(res.ID),
			Channel:     res.Channel,
			Description: res.Description,
			Duration:    res.Duration,
			ViewCount:   res.ViewCount,
		}
		r.probe(ctx, &c)
		r.mergeDetails(ctx, &c)
		candidates = append(candidates, c)
	}

	if order == catalog.OrderViewCount {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].ViewCount > candidates[j].ViewCount
		})
	}

	log.WithField("candidates", len(candidates)).Debug("Resolved search candidates")
	return candidates, nil
}

func (r *Resolver) probe(ctx context.Context, c *model.Candidate) {
	if r.prober == nil {
		c.Accessible = true
		return
	}
	c.Accessible, c.AccessDetail = r.prober.Probe(ctx, c.Locator)
}

// mergeDetails overlays lookup metadata; lookup failures keep what we have
func (r *Resolver) mergeDetails(ctx context.Context, c *model.Candidate) {
	if r.details == nil || c.ID == "" {
		return
	}
	d, err := r.details.Details(ctx, c.ID)
	if err != nil {
		r.logger.WithField("id", c.ID).WithError(err).Debug("Details lookup failed")
		return
	}
	if d.Duration != "" {
		c.Duration = d.Duration
	}
	if d.ViewCount > 0 {
		c.ViewCount = d.ViewCount
	}
	if d.LikeCount > 0 {
		c.LikeCount = d.LikeCount
	}
}

// Select returns the first accessible candidate in order
func Select(candidates []model.Candidate) (model.Candidate, error) {
	if len(candidates) == 0 {
		return model.Candidate{}, ErrNoResultsFound
	}
	for _, c := range candidates {
		if c.Accessible {
			return c, nil
		}
	}
	return model.Candidate{}, ErrNoAccessibleCandidate
}

// ResolveTarget resolves source in relevance order and selects the fetch
// target. An unavailable catalog is reported as an empty result.
func (r *Resolver) ResolveTarget(ctx context.Context, source string, max int) (model.Candidate, error) {
	candidates, err := r.Resolve(ctx, source, max, catalog.DefaultOrder)
	if err != nil {
		if errors.Is(err, ErrCatalogUnavailable) {
			return model.Candidate{}, fmt.Errorf("%w (%v)", ErrNoResultsFound, err)
		}
		return model.Candidate{}, err
	}
	return Select(candidates)
}
