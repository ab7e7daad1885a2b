// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/flickx/internal/models"
	"github.com/urfave/cli/v3"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file with environment overrides",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, csv, markdown or json",
		Value:   "table",
	}
}

func pageFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "page",
		Aliases: []string{"p"},
		Usage:   "Page to fetch",
		Value:   1,
	}
}

func filterFlags(withSearch bool) []cli.Flag {
	flags := []cli.Flag{
		pageFlag(),
		formatFlag(),
		&cli.StringFlag{
			Name:    "languages",
			Aliases: []string{"l"},
			Usage:   "Comma-separated language codes (defaults to saved preferences)",
		},
		&cli.StringFlag{
			Name:    "genres",
			Aliases: []string{"g"},
			Usage:   "Comma-separated genre ids (defaults to saved preferences)",
		},
	}
	if withSearch {
		flags = append(flags, &cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Title search",
		})
	}
	return flags
}

func movieIDArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "movie-id"}}
}

// serveCommand runs the proxy server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the same-origin proxy in front of the movie backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles session operations against the proxy
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Usage:   "Account password",
						Sources: cli.EnvVars("FLICKX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and drop the stored session cookie",
				Action: r.AuthLogout,
			},
			{
				Name:    "status",
				Aliases: []string{"me"},
				Usage:   "Show who the proxy thinks you are",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "import",
				Usage: "Import a browser session from a cURL command (DevTools \"Copy as cURL\")",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from the browser",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
				},
				Action: r.AuthImport,
			},
		},
	}
}

// moviesCommand handles listing and details lookups
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse movies",
		Commands: []*cli.Command{
			{
				Name:   "discover",
				Usage:  "List discovery results",
				Flags:  filterFlags(true),
				Action: r.MoviesDiscover,
			},
			{
				Name:    "recommendations",
				Aliases: []string{"recs"},
				Usage:   "List recommendations",
				Flags:   filterFlags(false),
				Action:  r.MoviesRecommendations,
			},
			{
				Name:      "details",
				Usage:     "Show one movie",
				Arguments: movieIDArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "poster",
						Usage: "Open the poster image in the browser",
					},
				},
				Action: r.MoviesDetails,
			},
		},
	}
}

func membershipCommands(r *Runner, kind models.MembershipKind, extra ...*cli.Command) []*cli.Command {
	commands := []*cli.Command{
		{
			Name:   "list",
			Usage:  "List the collection",
			Flags:  []cli.Flag{pageFlag(), formatFlag()},
			Action: r.MembershipList(kind),
		},
		{
			Name:   "ids",
			Usage:  "Print the movie ids in the collection",
			Action: r.MembershipIDs(kind),
		},
		{
			Name:      "add",
			Usage:     "Add a movie",
			Arguments: movieIDArg(),
			Action:    r.MembershipAdd(kind),
		},
		{
			Name:      "remove",
			Aliases:   []string{"rm"},
			Usage:     "Remove a movie",
			Arguments: movieIDArg(),
			Action:    r.MembershipRemove(kind),
		},
		{
			Name:      "toggle",
			Usage:     "Add the movie when absent, remove it when present",
			Arguments: movieIDArg(),
			Action:    r.MembershipToggle(kind),
		},
	}
	return append(commands, extra...)
}

// likesCommand handles the liked movies collection
func likesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "likes",
		Usage: "Manage liked movies",
		Commands: membershipCommands(r, models.Likes, &cli.Command{
			Name:  "clear",
			Usage: "Remove every liked movie",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:    "yes",
					Aliases: []string{"y"},
					Usage:   "Skip the confirmation prompt",
				},
			},
			Action: r.LikesClear,
		}),
	}
}

// wishlistCommand handles the wishlist collection
func wishlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "wishlist",
		Aliases:  []string{"wish"},
		Usage:    "Manage the wishlist",
		Commands: membershipCommands(r, models.Wishlist),
	}
}

// contactCommand submits the contact form
func contactCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "contact",
		Usage: "Send a message through the contact form",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Your name", Required: true},
			&cli.StringFlag{Name: "email", Usage: "Your email", Required: true},
			&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Message (at least 10 characters)", Required: true},
		},
		Action: r.Contact,
	}
}

// prefsCommand manages saved listing filters
func prefsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "prefs",
		Usage: "Manage saved language and genre filters",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Show saved filters",
				Action: r.PrefsGet,
			},
			{
				Name:  "set",
				Usage: "Replace saved filters",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "languages", Aliases: []string{"l"}, Usage: "Comma-separated language codes"},
					&cli.StringFlag{Name: "genres", Aliases: []string{"g"}, Usage: "Comma-separated genre ids"},
				},
				Action: r.PrefsSet,
			},
			{
				Name:   "clear",
				Usage:  "Forget saved filters",
				Action: r.PrefsClear,
			},
		},
	}
}

// exportCommand writes a whole collection to a file
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export liked movies or the wishlist",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Export every page of a collection (likes or wishlist)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "kind"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "csv, markdown or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: <kind>.<ext>)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent page fetchers",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Page requests per second",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Stop after this many pages (0 for all)",
					},
				},
				Action: r.ExportRun,
			},
			{
				Name:  "history",
				Usage: "List previous exports",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of exports to show",
						Value: 20,
					},
				},
				Action: r.ExportHistory,
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
				Usage:  "Write a config file from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
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
				Name:  "log-file",
				Usage: "Where logs go while the TUI owns the terminal",
				Value: "./tmp/flickx-tui.log",
			},
		},
		Action: r.TUI,
	}
}
