package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/services"
	"github.com/desertthunder/dclone/internal/shared"
	"github.com/urfave/cli/v3"
)

// Progress fetches a task's progress from a running `dclone serve`.
func (r *Runner) Progress(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: task id is required", shared.ErrMissingArgument)
	}

	api := services.NewAPIClient(cmd.String("server"), r.httpClient)
	if _, err := api.Health(ctx); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", cmd.String("server"), err)
	}

	if cmd.Bool("watch") {
		fetch := func(ctx context.Context) (*models.Progress, error) {
			return api.Progress(ctx, id)
		}
		if err := r.watch(ctx, fetch, "Task "+id); err != nil {
			return err
		}
		if !cmd.Bool("json") && cmd.String("report") == "" {
			return nil
		}
	}

	p, err := api.Progress(ctx, id)
	if err != nil {
		return err
	}
	if err := r.writeReport(p, cmd); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(p, true)
	}
	r.printProgress(p)
	return nil
}
