// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the resolution cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SetupDatabase,
	}
}

// configCommand manages the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file operations",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Create a config file from the bundled template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config file",
						Value:   "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the active configuration",
				Action: r.ConfigShow,
			},
		},
	}
}

// servicesCommand lists registered streaming services.
func servicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "services",
		Usage:  "List configured streaming services",
		Action: r.Services,
	}
}

// syncCommand runs a full library sync, optionally enqueueing downloads.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a streaming service's library and resolve tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "service",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "download",
				Aliases: []string{"d"},
				Usage:   "Enqueue resolved tracks for download",
			},
			&cli.BoolFlag{
				Name:  "no-auto-resolve",
				Usage: "Disable the fallback resolver for unmatched tracks",
			},
			&cli.FloatFlag{
				Name:  "rate-limit",
				Usage: "Maximum enqueues per second",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up waiting for downloads after this long (0 waits forever)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Sync,
	}
}

// resolveCommand resolves a single track without downloading.
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Find download-source candidates for a track",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Track title",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name",
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Album name",
			},
			&cli.IntFlag{
				Name:  "duration",
				Usage: "Expected duration in seconds",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum candidates to return",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Resolve,
	}
}

// downloadCommand performs a one-shot download of a single source URL.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download a single track from a source URL",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Track title used for the output filename",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name used for the output directory",
			},
			&cli.StringFlag{
				Name:  "album",
				Usage: "Album name used for the output directory",
			},
		},
		Action: r.Download,
	}
}
