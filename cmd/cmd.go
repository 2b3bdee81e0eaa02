// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/desertthunder/ridex/internal/formatter"
	"github.com/urfave/cli/v3"
)

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output the touched regions as JSON",
	}
}

func routeFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "route",
		Aliases:  []string{"r"},
		Usage:    "Route ID",
		Required: required,
	}
}

func virtualFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "virtual",
		Usage: "Virtual ride (home trainer)",
	}
}

// setupCommand handles setup operations for the configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Revert the last database migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
		},
	}
}

// activitiesCommand handles the activity panel actions
func activitiesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "activities",
		Aliases: []string{"act"},
		Usage:   "Activity operations",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Check for new activities without importing them",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ActivitiesCheck,
			},
			{
				Name:   "update",
				Usage:  "Import new activities",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ActivitiesUpdate,
			},
		},
	}
}

// routesCommand handles the route panel actions
func routesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "routes",
		Usage: "Route operations",
		Commands: []*cli.Command{
			{
				Name:   "update",
				Usage:  "Import new routes",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.RoutesUpdate,
			},
		},
	}
}

// modelsCommand handles the model panel actions
func modelsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "Prediction model operations",
		Commands: []*cli.Command{
			{
				Name:   "train",
				Usage:  "Train the prediction models",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ModelsTrain,
			},
		},
	}
}

func predictCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "predict",
		Usage:  "Predict the ride time of a route",
		Flags:  []cli.Flag{routeFlag(false), virtualFlag(), jsonFlag()},
		Action: r.Predict,
	}
}

func mapCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "map",
		Usage: "Load the maps of a route into an HTML page",
		Flags: []cli.Flag{
			routeFlag(false),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output page path (default: maps/route_<id>.html)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the page in the browser",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Export the maps of every configured route",
			},
			&cli.StringFlag{
				Name:  "out-dir",
				Usage: "Output directory for --all (default: maps_export_<epoch>)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers for --all",
				Value: 3,
			},
		},
		Action: r.Map,
	}
}

func segmentationCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "segmentation",
		Usage: "Route segmentation operations",
		Commands: []*cli.Command{
			{
				Name:   "test",
				Usage:  "Run the segmentation test of a route",
				Flags:  []cli.Flag{routeFlag(false), jsonFlag()},
				Action: r.SegmentationTest,
			},
		},
	}
}

func probeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "probe",
		Usage: "Backend probes",
		Commands: []*cli.Command{
			{
				Name:   "virtual-ride",
				Usage:  "Send the virtual ride toggle to the backend",
				Flags:  []cli.Flag{virtualFlag(), jsonFlag()},
				Action: r.ProbeVirtualRide,
			},
		},
	}
}

// historyCommand handles the recorded request history
func historyCommand(r *Runner) *cli.Command {
	filterFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:  "action",
				Usage: "Only requests of this action",
			},
			&cli.StringFlag{
				Name:  "outcome",
				Usage: "Only requests with this outcome (succeeded, empty, failed, refused)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of requests, most recent first",
				Value: 50,
			},
		}
	}
	return &cli.Command{
		Name:  "history",
		Usage: "Recorded backend requests",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List recent requests",
				Flags:  append(filterFlags(), &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}),
				Action: r.HistoryList,
			},
			{
				Name:  "export",
				Usage: "Export requests",
				Flags: append(filterFlags(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, markdown, txt, json)",
						Value:   formatter.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				),
				Action: r.HistoryExport,
			},
			{
				Name:  "clear",
				Usage: "Delete old requests",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "before",
						Usage: "Delete requests older than this",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.HistoryClear,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the prediction backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"p"},
						Usage:   "Query parameter as key=value",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:   "endpoints",
				Usage:  "List the backend endpoints",
				Action: r.APIEndpoints,
			},
		},
	}
}

// serveCommand runs the fixture backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run an in-memory backend for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.DurationFlag{
				Name:  "latency",
				Usage: "Delay added to every response",
			},
			&cli.IntFlag{
				Name:  "activities",
				Usage: "Activities already imported",
			},
			&cli.IntFlag{
				Name:  "pending-activities",
				Usage: "New activities waiting to be imported",
				Value: 3,
			},
			&cli.IntFlag{
				Name:  "pending-routes",
				Usage: "New routes waiting to be imported",
				Value: 1,
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand returns the top-level TUI command for the interactive dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "maps-dir",
				Usage: "Directory for the pages opened from the dashboard",
				Value: "maps",
			},
		},
		Action: r.TUI,
	}
}
