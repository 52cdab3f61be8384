// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User ID or email (default: the configured dev user)",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml if missing, initialize the database and run migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.SetupDatabase,
	}
}

func seedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Create the dev user, optionally with a sample project",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "plan",
				Usage: "Plan for the dev user (FREE, CREATOR, PRO, TEAM)",
				Value: "FREE",
			},
			&cli.BoolFlag{
				Name:  "demo",
				Usage: "Also create a ready-made demo project",
			},
		},
		Action: r.Seed,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log at debug level",
			},
		},
		Action: r.Serve,
	}
}

// projectsCommand runs the pipeline locally against the configured database
func projectsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "projects",
		Aliases: []string{"p"},
		Usage:   "Create, inspect and export projects",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List projects with their status",
				Flags:  []cli.Flag{configFlag(), userFlag(), jsonFlag()},
				Action: r.ProjectsList,
			},
			{
				Name:  "create",
				Usage: "Create a project and run it through the pipeline",
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.StringFlag{
						Name:    "title",
						Aliases: []string{"t"},
						Usage:   "Project title",
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "Source text (TEXT input)",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Audio or video file to upload and transcribe",
					},
					&cli.StringSliceFlag{
						Name:     "platform",
						Aliases:  []string{"p"},
						Usage:    "Target platform, repeatable (TWITTER, LINKEDIN, INSTAGRAM, BLOG, NEWSLETTER, SHORT_VIDEO, THREADS, QUOTE_CARD)",
						Required: true,
					},
					jsonFlag(),
				},
				Action: r.ProjectsCreate,
			},
			{
				Name:      "show",
				Usage:     "Show a project and its outputs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					jsonFlag(),
					&cli.StringFlag{
						Name:  "format",
						Usage: "Render as an export format instead (md, csv, txt)",
					},
				},
				Action: r.ProjectsShow,
			},
			{
				Name:      "delete",
				Usage:     "Delete a project",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{configFlag(), userFlag()},
				Action:    r.ProjectsDelete,
			},
			{
				Name:  "export",
				Usage: "Export projects to files (all projects when no --id is given)",
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.StringSliceFlag{
						Name:  "id",
						Usage: "Project ID to export, repeatable",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format (md, csv, txt)",
						Value: "md",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: contentforge_export_{timestamp})",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent export workers (1-10)",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Projects loaded per second",
						Value: 10,
					},
				},
				Action: r.ProjectsExport,
			},
		},
	}
}

func outputsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "outputs",
		Aliases: []string{"o"},
		Usage:   "Regenerate or edit platform outputs",
		Commands: []*cli.Command{
			{
				Name:      "regenerate",
				Usage:     "Generate one platform's output again",
				Arguments: []cli.Argument{&cli.StringArg{Name: "project"}},
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.StringFlag{
						Name:     "platform",
						Aliases:  []string{"p"},
						Usage:    "Platform to regenerate",
						Required: true,
					},
					jsonFlag(),
				},
				Action: r.OutputsRegenerate,
			},
			{
				Name:      "edit",
				Usage:     "Set or clear an output's edited content",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.StringFlag{
						Name:  "content",
						Usage: "Edited content",
					},
					&cli.StringFlag{
						Name:  "from-file",
						Usage: "Read edited content from a file",
					},
					&cli.BoolFlag{
						Name:  "clear",
						Usage: "Drop the edit and fall back to generated content",
					},
				},
				Action: r.OutputsEdit,
			},
		},
	}
}

func feedbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Output feedback",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Summarize ratings by platform",
				Flags:  []cli.Flag{configFlag(), userFlag(), jsonFlag()},
				Action: r.FeedbackStats,
			},
		},
	}
}

func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "youtube",
		Aliases: []string{"yt"},
		Usage:   "YouTube channel connection",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether a channel is connected",
				Flags:  []cli.Flag{configFlag(), userFlag(), jsonFlag()},
				Action: r.YouTubeStatus,
			},
			{
				Name:  "connect",
				Usage: "Connect a channel through Google OAuth in the browser",
				Flags: []cli.Flag{
					configFlag(),
					userFlag(),
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the OAuth callback",
						Value: defaultConnectTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening it",
					},
				},
				Action: r.YouTubeConnect,
			},
			{
				Name:   "disconnect",
				Usage:  "Revoke and forget the stored connection",
				Flags:  []cli.Flag{configFlag(), userFlag()},
				Action: r.YouTubeDisconnect,
			},
		},
	}
}

// apiCommand talks to a running server
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Send raw requests to a running contentforge server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Server base URL",
				Value: "http://localhost:3000",
			},
			&cli.StringFlag{
				Name:  "user-id",
				Usage: "User ID sent as X-User-ID",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET an API path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST JSON to an API path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON request body",
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse projects in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "Server base URL",
				Value: "http://localhost:3000",
			},
			&cli.StringFlag{
				Name:  "user-id",
				Usage: "User ID sent as X-User-ID",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where TUI logs are written",
				Value: "./tmp/contentforge-tui.log",
			},
		},
		Action: r.TUI,
	}
}
