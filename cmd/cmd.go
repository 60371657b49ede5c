// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "dclone",
		Usage:   "Clone Google Drive files and folder trees into your own Drive",
		Version: r.version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.configure,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, parseCommand, cloneCommand, progressCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create a config file from the bundled template",
		Action: r.Setup,
	}
}

// authCommand handles the Google OAuth flow
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Google account authorization",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with Google in the browser and save tokens to the config file",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: 2 * time.Minute,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check whether the saved token is usable",
				Action: r.AuthStatus,
			},
		},
	}
}

func parseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Resolve a share link and show what it points at",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "url",
				UsageText: "Drive share link or item id",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Parse,
	}
}

func cloneCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "clone",
		Usage: "Copy a shared file or folder tree into your Drive",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "url",
				UsageText: "Drive share link or item id",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Show a live progress view",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the final progress record as JSON",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the progress view is shown",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a report of the finished task to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: csv, md, txt, or json (default: from the report file extension)",
			},
		},
		Action: r.Clone,
	}
}

func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Show a task's progress from a running server",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "Base URL of the server",
				Value: "http://localhost:5000",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Poll until the task finishes",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write a report of the finished task to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Report format: csv, md, txt, or json (default: from the report file extension)",
			},
		},
		Action: r.Progress,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overriding [server] host and port",
			},
		},
		Action: r.Serve,
	}
}
