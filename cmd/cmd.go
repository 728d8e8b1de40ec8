// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/mrd/internal/models"
	"github.com/urfave/cli/v3"
)

// globalFlags are accepted by every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Recommendation backend base URL",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// outputFlags control how result lists are printed and what gets downloaded afterwards.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: table, json, csv, markdown (default: table on a terminal, json otherwise)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write results to a file instead of stdout",
		},
		&cli.IntFlag{
			Name:  "download",
			Usage: "Download the result at this 1-based position",
		},
		&cli.BoolFlag{
			Name:  "download-all",
			Usage: "Download every result",
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Download directory (default: downloads.dir from config)",
		},
	}
}

// recommendCommand runs the three query chains.
func recommendCommand(r *Runner) *cli.Command {
	valueFlags := outputFlags()
	for _, f := range models.FeatureFields {
		valueFlags = append(valueFlags, &cli.StringFlag{
			Name:  f.Name,
			Usage: f.Placeholder(),
		})
	}

	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Get track recommendations",
		Commands: []*cli.Command{
			{
				Name:  "song",
				Usage: "Recommend tracks similar to a song",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags:  outputFlags(),
				Action: r.RecommendSong,
			},
			{
				Name:    "values",
				Aliases: []string{"value"},
				Usage:   "Recommend tracks matching eight audio features",
				Flags:   valueFlags,
				Action:  r.RecommendValues,
			},
			{
				Name:  "genre",
				Usage: "Recommend tracks from a genre (see 'mrd genres')",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "genre"},
				},
				Flags:  outputFlags(),
				Action: r.RecommendGenre,
			},
		},
	}
}

// downloadCommand saves one track's MP3.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download the MP3 for a video ID",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "video-id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Song title, used for the file name",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory (default: downloads.dir from config)",
			},
		},
		Action: r.Download,
	}
}

// genresCommand lists the genre catalog.
func genresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List the genres accepted by 'recommend genre'",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Genres,
	}
}

// historyCommand inspects the local query and download history.
func historyCommand(r *Runner) *cli.Command {
	listFlags := []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of rows",
			Value:   20,
		},
		&cli.BoolFlag{
			Name:  "failed",
			Usage: "Only show failures",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Show past queries and downloads",
		Commands: []*cli.Command{
			{
				Name:  "queries",
				Usage: "List recent queries",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Only show one mode: song, values, genre",
					},
				}, listFlags...),
				Action: r.HistoryQueries,
			},
			{
				Name:  "downloads",
				Usage: "List recent downloads",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "video-id",
						Usage: "Only show one video",
					},
				}, listFlags...),
				Action: r.HistoryDownloads,
			},
			{
				Name:   "clear",
				Usage:  "Delete all history",
				Action: r.HistoryClear,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml with default values",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Download directory (default: downloads.dir from config)",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the browser front end.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the query page on a local port",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the page in a browser once listening",
			},
		},
		Action: r.Serve,
	}
}
