package persistence

import (
	"context"
	"fmt"

	"firestore-utils/internal/maintenance/adapter/persistence/cloudfirestore"
	"firestore-utils/internal/maintenance/adapter/persistence/mongodb"
	"firestore-utils/internal/maintenance/config"
	"firestore-utils/internal/maintenance/domain/repository"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"
)

// Connect opens the session with the configured backend. It is called once
// per process; a failure is a ConnectionError and is never retried.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	project, source := cfg.ProjectOverrideSource()

	switch cfg.Backend {
	case config.BackendFirestore:
		store, err := cloudfirestore.Connect(ctx, cloudfirestore.Options{
			ProjectOverride: project,
			OverrideSource:  source,
			DatabaseID:      cfg.FirestoreDatabase,
			EmulatorHost:    cfg.FirestoreEmulatorHost,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMongoDB:
		store, err := mongodb.Connect(ctx, mongodb.Options{
			URI:             cfg.MongoDBURI,
			Database:        cfg.MongoDBDatabase,
			ProjectOverride: project,
			OverrideSource:  source,
			Transactional:   cfg.MongoDBTransactionalBatches,
		}, log)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, apperrors.NewConnectionError(fmt.Sprintf("cannot connect to backend %q", cfg.Backend)).
			WithCause(apperrors.ErrUnknownBackend)
	}
}
