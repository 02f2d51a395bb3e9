package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	app := cli.App{
		Name:    "yt-queue",
		Usage:   "batch media download queue on top of yt-dlp",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				EnvVars: []string{"YTQ_CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "emit JSON log lines",
			},
			&cli.StringFlag{
				Name:  "download-dir",
				Usage: "directory for fetched media",
			},
			&cli.BoolFlag{
				Name:  "install-ytdlp",
				Usage: "download a yt-dlp binary if none is found",
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			searchCommand(),
			probeCommand(),
			formatsCommand(),
			serveCommand(),
			configCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
