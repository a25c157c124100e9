package usecase

import (
	"context"

	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/maintenance/domain/repository"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/eventbus"
	"firestore-utils/internal/shared/logger"
	"firestore-utils/internal/shared/utils"

	"go.uber.org/zap"
)

const upsertSeederSource = "upsert_seeder"

// UpsertSeeder merge-writes seed records into a collection one at a time.
// Fields absent from a record are never touched on the stored document.
type UpsertSeeder struct {
	store       repository.Store
	maxFailures int
	events      eventbus.Publisher
	logger      logger.Logger
}

// NewUpsertSeeder creates an UpsertSeeder. maxFailures is the number of write
// failures tolerated per dataset before it is aborted; zero means unlimited.
func NewUpsertSeeder(store repository.Store, maxFailures int, events eventbus.Publisher, log logger.Logger) *UpsertSeeder {
	if events == nil {
		events = eventbus.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UpsertSeeder{
		store:       store,
		maxFailures: maxFailures,
		events:      events,
		logger:      log.WithComponent(upsertSeederSource),
	}
}

// SeedCollection applies records to name in order. Non-addressable records
// are skipped; write failures are counted and the loop continues until the
// failure threshold is exceeded. A cancelled ctx stops the loop between
// records and is returned with the partial tally.
func (s *UpsertSeeder) SeedCollection(ctx context.Context, name string, records []model.SeedRecord) (model.SeedResult, error) {
	ctx = utils.WithCollection(ctx, name)
	log := s.logger.WithContext(ctx)
	result := model.SeedResult{Collection: name}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !rec.Addressable() {
			result.Skipped++
			log.Debug("Skipping seed record",
				zap.Int("position", rec.Position),
				zap.String("reason", rec.Invalid))
			s.publish(ctx, eventbus.EventTypeRecordSkipped, map[string]interface{}{
				"collection": name,
				"position":   rec.Position,
				"reason":     rec.Invalid,
			})
			continue
		}

		if err := s.store.MergeDocument(context.WithoutCancel(ctx), name, rec.ID, rec.Fields); err != nil {
			result.Failed++
			writeErr := apperrors.NewWriteError(name, rec.ID).WithCause(err).WithComponent(upsertSeederSource)
			log.Error("Failed to upsert seed record",
				zap.String("documentID", rec.ID),
				zap.Int("position", rec.Position),
				zap.Error(err))
			s.publish(ctx, eventbus.EventTypeRecordFailed, map[string]interface{}{
				"collection": name,
				"documentId": rec.ID,
				"error":      err.Error(),
			})
			if s.maxFailures > 0 && result.Failed > s.maxFailures {
				return result, writeErr.
					WithDetail("failed", result.Failed).
					WithDetail("threshold", s.maxFailures)
			}
			continue
		}
		result.Upserted++
	}

	log.Info("Dataset seeded",
		zap.Int("upserted", result.Upserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	s.publish(ctx, eventbus.EventTypeDatasetSeeded, map[string]interface{}{
		"collection": name,
		"upserted":   result.Upserted,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	})
	return result, nil
}

func (s *UpsertSeeder) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	event := eventbus.NewBasicEventWithSource(eventType, data, upsertSeederSource)
	if err := s.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish seed event",
			zap.String("eventType", eventType),
			zap.Error(err))
	}
}
