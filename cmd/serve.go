package main

import (
	"context"

	"github.com/desertthunder/ridex/internal/server"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the fixture backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	logger := shared.WithLogger(r.logger, "component", "fixture")

	fixture := server.NewFixture(server.FixtureOpts{
		Routes:            server.FixtureRoutesFromConfig(r.config.Routes),
		ActivitiesInBase:  int(cmd.Int("activities")),
		PendingActivities: int(cmd.Int("pending-activities")),
		PendingRoutes:     int(cmd.Int("pending-routes")),
		Logger:            logger,
	})

	srv := server.NewHTTPServer(fixture, server.Opts{
		Addr:    addr,
		Logger:  logger,
		Latency: cmd.Duration("latency"),
	})
	return server.Serve(ctx, srv, logger)
}
