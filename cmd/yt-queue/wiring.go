package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/ytget/yt-queue/internal/catalog"
	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/download"
	"github.com/ytget/yt-queue/internal/locator"
	"github.com/ytget/yt-queue/internal/platform"
	"github.com/ytget/yt-queue/internal/resolver"
)

// services bundles everything a command needs
type services struct {
	settings *config.Settings
	logger   *logrus.Logger
	engine   *platform.YTDLPEngine
	resolver *resolver.Resolver
	queue    *download.Service
}

// newServices loads settings, applies global flags and wires the queue
func newServices(c *cli.Context) (*services, error) {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("log-level") {
		settings.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-json") {
		settings.LogJSON = c.Bool("log-json")
	}
	if dir := c.String("download-dir"); dir != "" {
		settings.SetDownloadDirectory(dir)
	}

	logger := settings.NewLogger(os.Stderr)

	if c.Bool("install-ytdlp") {
		ytdlp.MustInstall(c.Context, nil)
	}

	dir := settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return nil, fmt.Errorf("preparing download directory: %w", err)
	}

	engine := platform.NewYTDLPEngine(settings.FetchOptions(), logger)
	searcher, details, err := newCatalog(c.Context, settings, logger)
	if err != nil {
		return nil, err
	}
	res := resolver.New(locator.YouTube, searcher, details, engine, logger)

	queue := download.NewService(engine, res, logger)
	queue.SetMatcher(locator.YouTube)
	queue.SetSearchCandidates(settings.GetSearchCandidates())
	queue.SetPlaylistExpander(platform.NewPlaylistService(locator.YouTube))

	return &services{
		settings: settings,
		logger:   logger,
		engine:   engine,
		resolver: res,
		queue:    queue,
	}, nil
}

// newCatalog prefers the Data API when a key is configured and falls back to
// keyless yt-dlp search with player lookups otherwise.
func newCatalog(ctx context.Context, settings *config.Settings, logger logrus.FieldLogger) (resolver.Searcher, resolver.DetailsLookup, error) {
	limiter := catalog.NewLimiter(settings.GetCatalogRate())
	player := catalog.NewPlayerLookup(limiter)

	if key := settings.GetAPIKey(); key != "" {
		dataAPI, err := catalog.NewDataAPI(ctx, key, limiter)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Using YouTube Data API catalog")
		return dataAPI, catalog.DetailsChain{dataAPI, player}, nil
	}

	logger.Debug("No API key configured, searching through yt-dlp")
	return catalog.NewYTDLPSearch(limiter), player, nil
}
