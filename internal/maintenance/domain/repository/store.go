package repository

import (
	"context"

	"firestore-utils/internal/maintenance/domain/model"
)

// Store is the session with the document store. One Store is created per
// process and passed to every component; it is never re-created implicitly.
type Store interface {
	// Identity returns the project identity resolved at connect time.
	Identity() model.ProjectIdentity

	// ListCollections returns the names of all root-level collections, in
	// no particular order.
	ListCollections(ctx context.Context) ([]string, error)

	// FetchPage returns up to limit documents of collection, in store order.
	FetchPage(ctx context.Context, collection string, limit int) ([]model.DocumentRef, error)

	// DeleteBatch removes refs as one batch. It returns how many documents
	// the store reports as removed, which may be non-zero alongside an error
	// for backends without all-or-nothing batches.
	DeleteBatch(ctx context.Context, collection string, refs []model.DocumentRef) (int, error)

	// MergeDocument creates collection/id or overwrites only the given fields
	// of the existing document.
	MergeDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error

	Close() error
}
