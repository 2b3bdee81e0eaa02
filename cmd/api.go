package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/ridex/internal/services"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	params := url.Values{}
	for _, p := range cmd.StringSlice("param") {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("%w: --param %q is not key=value", shared.ErrInvalidFlag, p)
		}
		params.Add(k, v)
	}

	r.logger.Info("GET request", "url", r.backend.URL(path, params))

	resp, err := r.backend.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIEndpoints lists the backend endpoints used by the dashboard.
func (r *Runner) APIEndpoints(ctx context.Context, cmd *cli.Command) error {
	for _, e := range services.Endpoints {
		r.writePlain("%s\n", r.backend.URL(e, nil))
	}
	return nil
}
