// Command purge deletes every document of every root collection of the
// configured project. It lists the collections first and refuses to delete
// anything without --yes; --dry-run only lists.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"firestore-utils/internal/cli"
	"firestore-utils/internal/di"
	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/maintenance/usecase"
	apperrors "firestore-utils/internal/shared/errors"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run executes one purge and returns the exit status. A nil connect uses the
// configured backend.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, connect di.StoreConnector) int {
	fs := flag.NewFlagSet("purge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dryRun := fs.Bool("dry-run", false, "list root collections and exit without deleting")
	yes := fs.Bool("yes", false, "confirm deletion of every document in the listed collections")
	filter := fs.String("filter", "", `CEL expression over "collection" selecting the root collections to purge`)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitFailure
	}
	if fs.NArg() > 0 {
		return cli.Exit(stderr, apperrors.NewValidationError(fmt.Sprintf("unexpected arguments: %v", fs.Args())))
	}
	if _, err := usecase.NewCollectionFilter(*filter); err != nil {
		return cli.Exit(stderr, err)
	}

	cfg, log, err := cli.Bootstrap(stderr)
	if err != nil {
		return cli.Exit(stderr, err)
	}

	container := di.NewContainer(cfg, log)
	if connect != nil {
		container.WithConnector(connect)
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error("Failed to close container", zap.Error(err))
		}
	}()

	ctx = container.Context(ctx, "purge")
	if err := container.Connect(ctx); err != nil {
		return cli.Exit(stderr, err)
	}

	uc, err := container.PurgeUsecase(*filter, stdout, stderr)
	if err != nil {
		return cli.Exit(stderr, err)
	}

	report, err := uc.Run(ctx, model.PurgeFlags{DryRun: *dryRun, Confirmed: *yes, Filter: *filter})
	if report != nil {
		log.WithContext(ctx).Info("Purge finished",
			zap.String("decision", report.Decision.String()),
			zap.Int("collections", len(report.Collections)),
			zap.Int("documentsDeleted", report.TotalDeleted()))
	}
	return cli.Exit(stderr, err)
}
