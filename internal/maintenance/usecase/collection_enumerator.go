package usecase

import (
	"context"
	"sort"

	"firestore-utils/internal/maintenance/domain/repository"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"go.uber.org/zap"
)

// CollectionEnumerator lists root-level collections in a deterministic order.
type CollectionEnumerator struct {
	store  repository.Store
	logger logger.Logger
}

// NewCollectionEnumerator creates a CollectionEnumerator
func NewCollectionEnumerator(store repository.Store, log logger.Logger) *CollectionEnumerator {
	if log == nil {
		log = logger.Nop()
	}
	return &CollectionEnumerator{store: store, logger: log.WithComponent("collection_enumerator")}
}

// ListCollections returns every root collection name sorted lexicographically.
// An empty store yields an empty slice. Transport failures are returned as
// StoreUnavailable errors and are not retried.
func (e *CollectionEnumerator) ListCollections(ctx context.Context) ([]string, error) {
	names, err := e.store.ListCollections(ctx)
	if err != nil {
		e.logger.WithContext(ctx).Error("Failed to list root collections", zap.Error(err))
		return nil, apperrors.NewStoreUnavailableError("failed to list root collections").
			WithCause(err).
			WithComponent("collection_enumerator")
	}

	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	e.logger.WithContext(ctx).Debug("Listed root collections", zap.Int("count", len(sorted)))
	return sorted, nil
}
