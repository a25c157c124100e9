package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/maintenance/domain/repository"
	"firestore-utils/internal/shared/logger"
	"firestore-utils/internal/shared/utils"

	"go.uber.org/zap"
)

// SeedUsecase loads every dataset and seeds its collection, in order.
type SeedUsecase struct {
	store    repository.Store
	assets   repository.AssetSource
	seeder   *UpsertSeeder
	dataDir  string
	datasets []model.Dataset
	out      io.Writer
	logger   logger.Logger
}

// NewSeedUsecase creates a SeedUsecase.
func NewSeedUsecase(store repository.Store, assets repository.AssetSource, seeder *UpsertSeeder, dataDir string, datasets []model.Dataset, out io.Writer, log logger.Logger) *SeedUsecase {
	if log == nil {
		log = logger.Nop()
	}
	return &SeedUsecase{
		store:    store,
		assets:   assets,
		seeder:   seeder,
		dataDir:  dataDir,
		datasets: datasets,
		out:      out,
		logger:   log.WithComponent("seed"),
	}
}

// Run seeds all datasets. A malformed asset aborts the whole run; a missing
// one contributes an empty dataset.
func (uc *SeedUsecase) Run(ctx context.Context) (*model.SeedReport, error) {
	identity := uc.store.Identity()
	ctx = utils.WithOperation(utils.WithProjectID(ctx, identity.ProjectID), "seed")
	log := uc.logger.WithContext(ctx)

	dataDir := uc.dataDir
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	report := &model.SeedReport{Project: identity, DataDir: dataDir}

	fmt.Fprintf(uc.out, "Project: %s\n", identity.ProjectID)
	fmt.Fprintf(uc.out, "Data dir: %s\n", dataDir)

	for _, ds := range uc.datasets {
		path := filepath.Join(dataDir, ds.File)
		records, err := uc.assets.LoadRecords(path)
		if err != nil {
			log.Error("Failed to load asset", zap.String("path", path), zap.Error(err))
			return report, err
		}

		fmt.Fprintf(uc.out, "\nSeeding %s from %s (items: %d)\n", ds.Collection, ds.File, len(records))
		result, err := uc.seeder.SeedCollection(ctx, ds.Collection, records)
		report.Results = append(report.Results, result)
		fmt.Fprintln(uc.out, formatTally(result))
		if err != nil {
			return report, err
		}
	}

	fmt.Fprintln(uc.out, "\nSeed complete.")
	return report, nil
}

func formatTally(r model.SeedResult) string {
	line := fmt.Sprintf("Done: upserted=%d, skipped=%d", r.Upserted, r.Skipped)
	if r.Failed > 0 {
		line += fmt.Sprintf(", failed=%d", r.Failed)
	}
	return line
}
