package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ridex/internal/formatter"
	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/repositories"
	"github.com/desertthunder/ridex/internal/shared"
	"github.com/urfave/cli/v3"
)

// openHistory opens the request history stored in the configured database.
func (r *Runner) openHistory() (*repositories.RunRepository, func(), error) {
	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	return repositories.NewRunRepository(db), func() { db.Close() }, nil
}

func historyFilter(cmd *cli.Command) (repositories.RunFilter, error) {
	f := repositories.RunFilter{
		Action: cmd.String("action"),
		Limit:  int(cmd.Int("limit")),
	}
	if s := cmd.String("outcome"); s != "" {
		o, err := models.ParseOutcome(s)
		if err != nil {
			return f, fmt.Errorf("%w: --outcome: %v", shared.ErrInvalidFlag, err)
		}
		f.Outcome = &o
	}
	return f, nil
}

// HistoryList prints the most recent requests.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	filter, err := historyFilter(cmd)
	if err != nil {
		return err
	}

	runs, closeFn, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := runs.List(filter)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		data, err := formatter.HistoryToJSON(list)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if len(list) == 0 {
		r.writePlain("No requests recorded.\n")
		return nil
	}

	data, err := formatter.HistoryToText(list)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	counts := formatter.CountOutcomes(list)
	summary := fmt.Sprintf("Total: %d succeeded, %d empty, %d failed, %d refused",
		counts[models.Succeeded], counts[models.Empty], counts[models.Failed], counts[models.Refused])

	recorded, err := runs.Count()
	if err != nil {
		return err
	}
	if recorded > len(list) {
		summary += fmt.Sprintf(" (%d of %d recorded)", len(list), recorded)
	}
	return r.writePlainln("%s", summary)
}

// HistoryExport writes the request history in --format to --output, or to stdout.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	filter, err := historyFilter(cmd)
	if err != nil {
		return err
	}
	format := cmd.String("format")

	runs, closeFn, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := runs.List(filter)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		data, err := formatter.ExportHistory(list, format)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	path, err := formatter.WriteHistoryExport(list, format, output)
	if err != nil {
		return err
	}
	r.logger.Info("history exported", "runs", len(list), "format", format, "path", path)
	r.writePlain("✓ Exported %d requests to %s\n", len(list), path)
	return nil
}

// HistoryClear deletes requests older than --before.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("before")
	if age < 0 {
		return fmt.Errorf("%w: --before must not be negative", shared.ErrInvalidFlag)
	}

	runs, closeFn, err := r.openHistory()
	if err != nil {
		return err
	}
	defer closeFn()

	cutoff := time.Now().UTC().Add(-age)
	n, err := runs.DeleteBefore(cutoff)
	if err != nil {
		return err
	}
	r.logger.Info("history cleared", "before", cutoff.Format(time.RFC3339), "deleted", n)
	r.writePlain("✓ Deleted %d requests\n", n)
	return nil
}
