package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/yt-queue/internal/api"
	"github.com/ytget/yt-queue/internal/catalog"
	"github.com/ytget/yt-queue/internal/config"
	"github.com/ytget/yt-queue/internal/model"
)

const shutdownTimeout = 10 * time.Second

var itemFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "media kind: audio or video (default from config)",
	},
	&cli.StringFlag{
		Name:    "quality",
		Aliases: []string{"q"},
		Usage:   "best, worst or an explicit yt-dlp format id",
	},
}

func itemOptions(c *cli.Context, settings *config.Settings) (model.MediaKind, string) {
	kind := settings.GetMediaKind()
	if c.IsSet("kind") {
		kind = model.ParseMediaKind(c.String("kind"))
	}
	quality := settings.GetQualityPreset()
	if q := strings.TrimSpace(c.String("quality")); q != "" {
		quality = q
	}
	return kind, quality
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "enqueue sources (URLs or search queries) and process them",
		ArgsUsage: "[source ...]",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "batch file with one source per line",
			},
			&cli.StringSliceFlag{
				Name:  "playlist",
				Usage: "playlist URL to expand into the queue",
			},
			&cli.StringFlag{
				Name:  "export",
				Usage: "write the final queue state as JSON to this path",
			},
		}, itemFlags...),
		Action: func(c *cli.Context) error {
			svc, err := newServices(c)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			kind, quality := itemOptions(c, svc.settings)
			svc.queue.EnqueueMany(ctx, c.Args().Slice(), kind, quality)
			for _, path := range c.StringSlice("file") {
				if _, err := svc.queue.EnqueueFromFile(ctx, path, kind, quality); err != nil {
					return err
				}
			}
			for _, url := range c.StringSlice("playlist") {
				if _, err := svc.queue.EnqueuePlaylist(ctx, url, kind, quality); err != nil {
					return fmt.Errorf("expanding playlist %s: %w", url, err)
				}
			}

			snap := svc.queue.Snapshot()
			if snap.Total == 0 {
				return cli.Exit("nothing to process: pass sources, --file or --playlist", 2)
			}
			fmt.Printf("Queued %d items (%d failed validation)\n", snap.Total, snap.Failed)

			summary := svc.queue.ProcessQueue(ctx, func(index, total int, source string) {
				fmt.Printf("%s %s\n", color.CyanString("[%d/%d]", index, total), source)
			})

			renderItems(os.Stdout, svc.queue.Items())
			renderSummary(os.Stdout, summary)

			if path := c.String("export"); path != "" {
				if err := svc.queue.ExportToFile(path); err != nil {
					return err
				}
			}
			if summary.Failed > 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "list catalog candidates with their accessibility",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max",
				Aliases: []string{"n"},
				Usage:   "number of results",
				Value:   10,
			},
			&cli.StringFlag{
				Name:  "order",
				Usage: "relevance, viewCount, date or rating",
				Value: string(catalog.OrderRelevance),
			},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return cli.Exit("search needs a query", 2)
			}
			svc, err := newServices(c)
			if err != nil {
				return err
			}

			candidates, err := svc.resolver.Resolve(c.Context, query, c.Int("max"), catalog.ParseOrder(c.String("order")))
			if err != nil {
				return err
			}
			renderCandidates(os.Stdout, candidates)
			return nil
		},
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "check that direct locators are accessible without fetching",
		ArgsUsage: "<url> [url ...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("probe needs at least one URL", 2)
			}
			svc, err := newServices(c)
			if err != nil {
				return err
			}

			candidates := make([]model.Candidate, 0, c.NArg())
			for _, url := range c.Args().Slice() {
				candidate, err := svc.resolver.ProbeLocator(c.Context, url)
				if err != nil {
					candidate = model.Candidate{Locator: url, AccessDetail: err.Error()}
				}
				candidates = append(candidates, candidate)
			}
			renderCandidates(os.Stdout, candidates)
			return nil
		},
	}
}

func formatsCommand() *cli.Command {
	return &cli.Command{
		Name:      "formats",
		Usage:     "list the formats a locator can be fetched in",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("formats needs exactly one URL", 2)
			}
			svc, err := newServices(c)
			if err != nil {
				return err
			}

			url := c.Args().First()
			if !svc.resolver.Matcher().IsLocator(url) {
				return cli.Exit(fmt.Sprintf("not a direct locator: %s", url), 2)
			}
			formats, err := svc.engine.Formats(c.Context, url)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			renderFormats(os.Stdout, formats)
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "expose the queue over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen address (default from config)",
			},
		},
		Action: func(c *cli.Context) error {
			svc, err := newServices(c)
			if err != nil {
				return err
			}
			addr := svc.settings.GetListenAddr()
			if c.IsSet("addr") {
				addr = c.String("addr")
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			kind, quality := svc.settings.GetMediaKind(), svc.settings.GetQualityPreset()
			handler := api.NewHandler(ctx, svc.queue, svc.resolver, api.Defaults{
				MediaKind:        kind,
				Quality:          quality,
				SearchCandidates: svc.settings.GetSearchCandidates(),
			}, svc.logger)
			server := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(handler),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				svc.logger.WithField("addr", addr).Info("Server started")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				svc.queue.Stop()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				err := server.Shutdown(shutdownCtx)
				handler.Wait()
				svc.logger.Info("Server stopped")
				return err
			})
			return g.Wait()
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "print the effective settings",
		Action: func(c *cli.Context) error {
			settings, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			return settings.WriteYAML(os.Stdout)
		},
	}
}
