package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/flickx/internal/formatter"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/repositories"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/desertthunder/flickx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ExportRun fetches every page of a collection, writes it to a file and records the export.
func (r *Runner) ExportRun(ctx context.Context, cmd *cli.Command) error {
	kindArg := cmd.StringArg("kind")
	if kindArg == "" {
		return fmt.Errorf("%w: kind (likes or wishlist)", shared.ErrMissingArgument)
	}
	kind, err := models.ParseMembershipKind(kindArg)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format == formatter.Table {
		return fmt.Errorf("%w: exports are written as csv, markdown or json", shared.ErrInvalidFlag)
	}

	output := cmd.String("output")
	if output == "" {
		output = kind.String() + format.Extension()
	}

	acct, err := r.signedIn(ctx, kind.Messages().LoadFailed)
	if err != nil {
		return err
	}
	acct.teardown()

	client, err := r.apiClient()
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
	}()

	start := time.Now()
	result, err := tasks.ExportCollection(ctx, client, kind, tasks.ExportOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		MaxPages:   int(cmd.Int("max-pages")),
	}, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(result.Items, format, collectionTitle(kind), output)
	if err != nil {
		return err
	}

	rec := &repositories.ExportRecord{
		Kind:        kind.String(),
		Format:      string(format),
		Destination: path,
		ItemCount:   len(result.Items),
		FailedCount: len(result.Failed),
	}
	if db, err := r.database(); err == nil {
		if err := repositories.NewExportRepository(db).Create(rec); err != nil {
			r.logger.Warn("failed to record export", "error", err)
		}
	}

	r.writePlain("✓ Exported %d movies to %s in %s\n", len(result.Items), path, time.Since(start).Round(time.Millisecond))
	for _, failed := range result.Failed {
		r.writePlain("  ✗ page %d: %v\n", failed.Page, failed.Err)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%w: %d of %d pages failed", shared.ErrAPIRequest, len(result.Failed), result.Pages)
	}
	return nil
}

// ExportHistory lists recorded exports, newest first.
func (r *Runner) ExportHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}
	records, err := repositories.NewExportRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("No exports yet\n")
	}

	r.writePlainHeader("Exports")
	for _, rec := range records {
		r.writePlain("%s  %-8s %-8s %4d movies  %s\n",
			rec.CreatedAt.Local().Format("2006-01-02 15:04"), rec.Kind, rec.Format, rec.ItemCount, rec.Destination)
		if rec.FailedCount > 0 {
			r.writePlain("    %d pages failed\n", rec.FailedCount)
		}
	}
	return nil
}
