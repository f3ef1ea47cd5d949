// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// outputFlags are shared by every command that prints catalog data.
func outputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, csv or markdown",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	)
}

// setupCommand handles setup operations for the config file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the database (SQLite migrations or PostgreSQL schema)",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent SQLite migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override server.port",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Override provider.kind (jamendo, spotify, none)",
			},
		},
		Action: r.Serve,
	}
}

// seedCommand loads demo data into the database.
func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert the demo catalog, listener and playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Seed TOML file (defaults to the built-in demo data)",
			},
		},
		Action: r.Seed,
	}
}

// healthCommand checks a running server.
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check that the configured server is reachable",
		Action: r.Health,
	}
}

// tracksCommand lists resolved tracks.
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tracks",
		Usage:     "List tracks from the remote provider, falling back to the local catalog",
		ArgsUsage: "[query]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: outputFlags(
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Usage:   "Maximum number of tracks (1-200)",
				Value:   30,
			},
		),
		Action: r.Tracks,
	}
}

// searchCommand searches tracks, artists and albums.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search tracks, artists and albums",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags:  outputFlags(),
		Action: r.Search,
	}
}

// playlistsCommand handles playlist operations.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List playlists with owners and tracks",
				Flags:  outputFlags(),
				Action: r.PlaylistsList,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				ArgsUsage: "<name>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "description",
						Usage: "Playlist description",
					},
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Cover image URL",
					},
					&cli.IntFlag{
						Name:  "user-id",
						Usage: "Owner id (defaults to the first user)",
					},
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:      "add",
				Usage:     "Append a track to a playlist",
				ArgsUsage: "<playlist-id> <track-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist-id"},
					&cli.StringArg{Name: "track-id"},
				},
				Action: r.PlaylistsAdd,
			},
			{
				Name:      "show",
				Usage:     "Show a playlist's tracks in order",
				ArgsUsage: "<playlist-id>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist-id"},
				},
				Flags:  outputFlags(),
				Action: r.PlaylistsShow,
			},
			{
				Name:  "export",
				Usage: "Export playlists to files with a JSON manifest",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: text, json, csv or markdown",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: playlists_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent exports (max 10)",
						Value: 5,
					},
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Playlist id to export (repeatable); omit to export all",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// historyCommand prints recently played tracks.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "history",
		Usage:  "Show recently played tracks for client.user_id",
		Flags:  outputFlags(),
		Action: r.History,
	}
}

// playCommand returns the top-level command for the terminal player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Aliases:   []string{"tui", "ui"},
		Usage:     "Launch the interactive terminal player",
		ArgsUsage: "[query]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of tracks to load",
				Value: 30,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Player log file",
				Value: "./tmp/spotifycc-player.log",
			},
		},
		Action: r.Play,
	}
}
