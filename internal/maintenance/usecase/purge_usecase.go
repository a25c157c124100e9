package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/maintenance/domain/repository"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"
	"firestore-utils/internal/shared/utils"

	"go.uber.org/zap"
)

// PurgeUsecase runs a whole purge: enumerate, gate, then empty each
// collection in sorted order. The first failing collection aborts the run.
type PurgeUsecase struct {
	store      repository.Store
	enumerator *CollectionEnumerator
	gate       *SafetyGate
	deleter    *BatchDeleter
	filter     *CollectionFilter
	out        io.Writer
	errOut     io.Writer
	logger     logger.Logger
}

// NewPurgeUsecase creates a PurgeUsecase. out receives the operator report,
// errOut the refusal and warning lines.
func NewPurgeUsecase(store repository.Store, enumerator *CollectionEnumerator, gate *SafetyGate, deleter *BatchDeleter, filter *CollectionFilter, out, errOut io.Writer, log logger.Logger) *PurgeUsecase {
	if log == nil {
		log = logger.Nop()
	}
	return &PurgeUsecase{
		store:      store,
		enumerator: enumerator,
		gate:       gate,
		deleter:    deleter,
		filter:     filter,
		out:        out,
		errOut:     errOut,
		logger:     log.WithComponent("purge"),
	}
}

// Run executes the purge. A refusal is returned as a Refused error; a failed
// collection as a *PartialPurgeError, with the report listing what was fully
// purged before it.
func (uc *PurgeUsecase) Run(ctx context.Context, flags model.PurgeFlags) (*model.PurgeReport, error) {
	identity := uc.store.Identity()
	ctx = utils.WithOperation(utils.WithProjectID(ctx, identity.ProjectID), "purge")
	log := uc.logger.WithContext(ctx)

	report := &model.PurgeReport{Project: identity}

	collections, err := uc.enumerator.ListCollections(ctx)
	if err != nil {
		return report, err
	}
	collections, err = uc.filter.Apply(collections)
	if err != nil {
		return report, apperrors.NewValidationError("invalid collection filter").WithCause(err)
	}
	report.Collections = collections

	// Gate is decided once, before any collection is touched.
	report.Decision = uc.gate.Evaluate(flags)
	log.Info("Purge gate evaluated",
		zap.String("decision", report.Decision.String()),
		zap.Int("collections", len(collections)),
		zap.String("filter", uc.filter.Expression()))

	fmt.Fprintf(uc.out, "Project: %s\n", identity.ProjectID)
	if len(collections) == 0 {
		fmt.Fprintln(uc.out, "No root collections found.")
		return report, nil
	}
	fmt.Fprintln(uc.out, "Root collections:")
	for _, c := range collections {
		fmt.Fprintf(uc.out, "- %s\n", c)
	}

	switch report.Decision {
	case model.GateDryRun:
		fmt.Fprintln(uc.out, "\nDry run complete. No deletions performed.")
		return report, nil
	case model.GateRefuse:
		fmt.Fprintln(uc.errOut, "\nRefusing to delete without --yes. Re-run with --dry-run to inspect.")
		return report, apperrors.NewRefusedError()
	}

	fmt.Fprintln(uc.errOut, "\nDELETING all documents in all root collections...")
	log.Info("Purging collections",
		zap.Int("collections", len(collections)),
		zap.Int("batchSize", uc.deleter.BatchSize()))
	for _, c := range collections {
		fmt.Fprintf(uc.out, "Deleting => %s\n", c)
		result, err := uc.deleter.PurgeCollection(ctx, c)
		if err != nil {
			report.Partial = &result
			uc.printFailure(report)
			return report, err
		}
		report.Purged = append(report.Purged, result)
	}

	log.Info("Purge complete", zap.Int("deleted", report.TotalDeleted()))
	fmt.Fprintln(uc.out, "Purge complete.")
	return report, nil
}

func (uc *PurgeUsecase) printFailure(report *model.PurgeReport) {
	purged := make([]string, 0, len(report.Purged))
	for _, p := range report.Purged {
		purged = append(purged, fmt.Sprintf("%s (%d)", p.Collection, p.DocumentsDeleted))
	}
	if len(purged) == 0 {
		fmt.Fprintln(uc.errOut, "\nFully purged: none")
	} else {
		fmt.Fprintf(uc.errOut, "\nFully purged: %s\n", strings.Join(purged, ", "))
	}
	fmt.Fprintf(uc.errOut, "Partially purged %s: %d documents removed\n",
		report.Partial.Collection, report.Partial.DocumentsDeleted)
}
