// Command seed merge-writes the bundled datasets (tools, hobbies, skills)
// into their collections. Records are keyed by their "id" field and existing
// fields that a record does not mention are left untouched.
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
	apperrors "firestore-utils/internal/shared/errors"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run executes one seed and returns the exit status. A nil connect uses the
// configured backend.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, connect di.StoreConnector) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitFailure
	}
	if fs.NArg() > 0 {
		return cli.Exit(stderr, apperrors.NewValidationError(fmt.Sprintf("unexpected arguments: %v", fs.Args())))
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

	ctx = container.Context(ctx, "seed")
	if err := container.Connect(ctx); err != nil {
		return cli.Exit(stderr, err)
	}

	uc, err := container.SeedUsecase(stdout)
	if err != nil {
		return cli.Exit(stderr, err)
	}

	report, err := uc.Run(ctx)
	if report != nil {
		for _, r := range report.Results {
			log.WithContext(ctx).Info("Dataset seeded",
				zap.String("collection", r.Collection),
				zap.Int("upserted", r.Upserted),
				zap.Int("skipped", r.Skipped),
				zap.Int("failed", r.Failed))
		}
	}
	return cli.Exit(stderr, err)
}
