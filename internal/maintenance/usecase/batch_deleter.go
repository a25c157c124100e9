package usecase

import (
	"context"
	"fmt"
	"time"

	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/maintenance/domain/repository"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/eventbus"
	"firestore-utils/internal/shared/logger"
	"firestore-utils/internal/shared/utils"

	"go.uber.org/zap"
)

const batchDeleterSource = "batch_deleter"

// BatchDeleter empties a collection by repeated fetch + atomic batch delete
// cycles. Batch N is committed before batch N+1 is fetched.
type BatchDeleter struct {
	store         repository.Store
	batchSize     int
	maxIterations int
	events        eventbus.Publisher
	logger        logger.Logger
}

// NewBatchDeleter creates a BatchDeleter. maxIterations bounds the number of
// committed batches per collection; zero disables the cap.
func NewBatchDeleter(store repository.Store, batchSize, maxIterations int, events eventbus.Publisher, log logger.Logger) (*BatchDeleter, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: got %d", apperrors.ErrInvalidBatchSize, batchSize)
	}
	if events == nil {
		events = eventbus.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BatchDeleter{
		store:         store,
		batchSize:     batchSize,
		maxIterations: maxIterations,
		events:        events,
		logger:        log.WithComponent(batchDeleterSource),
	}, nil
}

// BatchSize returns the configured page size.
func (d *BatchDeleter) BatchSize() int {
	return d.batchSize
}

// PurgeCollection deletes every document of name. On failure the returned
// error is a *PartialPurgeError and the result holds what was already removed.
//
// Cancellation is checked before each fetch. A commit that has started is
// allowed to finish even if ctx is cancelled meanwhile.
func (d *BatchDeleter) PurgeCollection(ctx context.Context, name string) (model.PurgeResult, error) {
	ctx = utils.WithCollection(ctx, name)
	log := d.logger.WithContext(ctx)
	start := time.Now()
	result := model.PurgeResult{Collection: name}

	d.publish(ctx, eventbus.EventTypeCollectionPurgeStarted, map[string]interface{}{
		"collection": name,
		"batchSize":  d.batchSize,
	})

	fail := func(cause error) (model.PurgeResult, error) {
		result.Duration = time.Since(start)
		log.Error("Collection purge stopped before completion",
			zap.Int("deleted", result.DocumentsDeleted),
			zap.Int("batches", result.Batches),
			zap.Error(cause))
		d.publish(ctx, eventbus.EventTypeCollectionPurgeFailed, map[string]interface{}{
			"collection": name,
			"deleted":    result.DocumentsDeleted,
			"batches":    result.Batches,
			"error":      cause.Error(),
		})
		return result, apperrors.NewPartialPurgeError(name, result.DocumentsDeleted, result.Batches, cause)
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if d.maxIterations > 0 && result.Batches >= d.maxIterations {
			return fail(fmt.Errorf("%w after %d batches", apperrors.ErrNeverEmpty, result.Batches))
		}

		refs, err := d.store.FetchPage(ctx, name, d.batchSize)
		if err != nil {
			return fail(fmt.Errorf("failed to fetch page: %w", err))
		}
		if len(refs) == 0 {
			break
		}

		deleted, err := d.store.DeleteBatch(context.WithoutCancel(ctx), name, refs)
		result.DocumentsDeleted += deleted
		if err != nil {
			return fail(fmt.Errorf("failed to commit delete batch %d: %w", result.Batches+1, err))
		}
		result.Batches++

		log.Debug("Committed delete batch",
			zap.Int("batch", result.Batches),
			zap.Int("size", len(refs)),
			zap.Int("deleted", result.DocumentsDeleted))
		d.publish(ctx, eventbus.EventTypeBatchCommitted, map[string]interface{}{
			"collection": name,
			"batch":      result.Batches,
			"size":       deleted,
			"deleted":    result.DocumentsDeleted,
		})
	}

	result.Duration = time.Since(start)
	log.Info("Collection purged",
		zap.Int("deleted", result.DocumentsDeleted),
		zap.Int("batches", result.Batches),
		zap.Duration("duration", result.Duration))
	d.publish(ctx, eventbus.EventTypeCollectionPurgeCompleted, map[string]interface{}{
		"collection": name,
		"deleted":    result.DocumentsDeleted,
		"batches":    result.Batches,
	})
	return result, nil
}

func (d *BatchDeleter) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	event := eventbus.NewBasicEventWithSource(eventType, data, batchDeleterSource)
	if err := d.events.Publish(context.WithoutCancel(ctx), event); err != nil {
		d.logger.WithContext(ctx).Warn("Failed to publish purge event",
			zap.String("eventType", eventType),
			zap.Error(err))
	}
}
