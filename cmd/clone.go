package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/desertthunder/dclone/internal/formatter"
	"github.com/desertthunder/dclone/internal/models"
	"github.com/desertthunder/dclone/internal/shared"
	"github.com/desertthunder/dclone/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Parse resolves a share link and prints the item it points at.
func (r *Runner) Parse(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("url")
	if ref == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	store, err := r.store(ctx)
	if err != nil {
		return err
	}

	info, err := tasks.Resolve(ctx, store, ref, r.logger)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	r.writePlainHeader(info.Name)
	r.writePlain("ID:    %s\n", info.ID)
	r.writePlain("Type:  %s\n", info.Kind)
	if info.Size != nil {
		r.writePlain("Size:  %s\n", formatBytes(*info.Size))
	}
	if info.ItemCount != nil {
		r.writePlain("Items: %d\n", *info.ItemCount)
	}
	return nil
}

// Clone copies the linked item into the caller's Drive on an in-process runner and waits for it.
func (r *Runner) Clone(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("url")
	if ref == "" {
		return fmt.Errorf("%w: url is required", shared.ErrMissingArgument)
	}

	sourceID, err := shared.ParseSourceID(ref)
	if err != nil {
		return err
	}

	watch := cmd.Bool("watch")
	if watch {
		logFile := cmd.String("log-file")
		if logFile == "" {
			logFile = r.config.Log.File
		}
		fileLogger, err := shared.NewFileLogger(logFile)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		shared.SetLogLevel(fileLogger, r.logger.GetLevel())
		r.SetLogger(fileLogger)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	store, err := r.store(ctx)
	if err != nil {
		return err
	}

	runner := tasks.NewRunner(tasks.RunnerOpts{
		Workers:    1,
		QueueSize:  1,
		NamePrefix: r.config.Clone.NamePrefix,
		Logger:     r.logger,
		Context:    ctx,
	})
	defer runner.Shutdown(context.Background())

	id, err := runner.Start(store, sourceID)
	if err != nil {
		return err
	}

	if watch {
		fetch := func(context.Context) (*models.Progress, error) {
			return runner.Tracker().Get(id)
		}
		if err := r.watch(ctx, fetch, "Cloning "+sourceID); err != nil {
			return err
		}
		if p, err := fetch(ctx); err == nil && !p.Status.IsTerminal() {
			r.writePlain("→ Still cloning; waiting for the task to finish (ctrl+c to abort)...\n")
		}
	}

	p, err := runner.Wait(ctx, id)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%w: clone interrupted", shared.ErrTimeout)
		}
		return err
	}

	if err := r.writeReport(p, cmd); err != nil {
		return err
	}
	return r.report(p, cmd.Bool("json"), !watch)
}

// writeReport saves p when --report is set.
func (r *Runner) writeReport(p *models.Progress, cmd *cli.Command) error {
	path := cmd.String("report")
	if path == "" {
		return nil
	}

	format, err := formatter.ParseFormat(cmd.String("format"), path)
	if err != nil {
		return err
	}

	written, err := formatter.WriteReport(p, format, path)
	if err != nil {
		return err
	}
	r.logger.Info("report written", "path", written, "format", format)
	return nil
}

// report prints a finished progress record and returns an error when the task failed.
func (r *Runner) report(p *models.Progress, asJSON, verbose bool) error {
	if asJSON {
		if err := r.writeJSON(p, true); err != nil {
			return err
		}
	} else if verbose {
		r.printProgress(p)
	}

	if p.Status == models.StatusFailed {
		return fmt.Errorf("clone %s failed", p.TaskID)
	}
	return nil
}

func (r *Runner) printProgress(p *models.Progress) {
	r.writePlainHeader(fmt.Sprintf("Task %s", p.TaskID))
	r.writePlain("Status:   %s\n", p.Status)
	r.writePlain("Progress: %d/%d (%.1f%%)\n", p.Completed, p.Total, p.Percentage)
	if p.CurrentFile != "" && !p.Status.IsTerminal() {
		r.writePlain("Current:  %s\n", p.CurrentFile)
	}
	if p.Result != nil {
		r.writePlain("Copy:     %s (%s)\n", p.Result.Name, p.Result.ID)
	}
	if len(p.Errors) > 0 {
		r.writePlainln("Errors (%d):", len(p.Errors))
		for _, e := range p.Errors {
			r.writePlain("  - %s\n", e)
		}
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
