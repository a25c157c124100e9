package cloudfirestore

import (
	"context"
	"fmt"
	"strings"

	"firestore-utils/internal/maintenance/domain/model"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BackendName identifies this adapter in ProjectIdentity.Backend.
const BackendName = "firestore"

const datastoreScope = "https://www.googleapis.com/auth/datastore"

// CredentialsFinder looks up ambient credentials.
type CredentialsFinder func(ctx context.Context, scopes ...string) (*google.Credentials, error)

// Options configures Connect.
type Options struct {
	// ProjectOverride wins over the credentials' project when non-empty.
	ProjectOverride string
	// OverrideSource names the variable ProjectOverride came from.
	OverrideSource string
	DatabaseID     string
	// EmulatorHost disables the credential lookup; the SDK dials the
	// emulator on its own.
	EmulatorHost string
	// FindCredentials defaults to google.FindDefaultCredentials.
	FindCredentials CredentialsFinder
}

// Store is a repository.Store over Cloud Firestore.
type Store struct {
	client   *firestore.Client
	identity model.ProjectIdentity
	logger   logger.Logger
}

// Connect resolves the project identity and opens a Firestore client.
func Connect(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("firestore_store")

	databaseID := opts.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	var (
		creds     *google.Credentials
		clientOps []option.ClientOption
	)
	if opts.EmulatorHost == "" {
		find := opts.FindCredentials
		if find == nil {
			find = google.FindDefaultCredentials
		}
		found, err := find(ctx, datastoreScope)
		if err != nil {
			return nil, apperrors.NewConnectionError("failed to find default credentials").WithCause(err)
		}
		creds = found
		clientOps = append(clientOps, option.WithCredentials(creds))
	}

	projectID, source, err := resolveProject(opts.ProjectOverride, opts.OverrideSource, creds)
	if err != nil {
		return nil, apperrors.NewConnectionError("failed to resolve project identity").WithCause(err)
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, clientOps...)
	if err != nil {
		return nil, apperrors.NewConnectionError(fmt.Sprintf("failed to create Firestore client for project %s", projectID)).WithCause(err)
	}

	log.Info("Connected to Firestore",
		zap.String("projectID", projectID),
		zap.String("databaseID", databaseID),
		zap.String("projectSource", source),
		zap.Bool("emulator", opts.EmulatorHost != ""))

	return &Store{
		client: client,
		identity: model.ProjectIdentity{
			ProjectID:  projectID,
			DatabaseID: databaseID,
			Backend:    BackendName,
			Source:     source,
		},
		logger: log,
	}, nil
}

// resolveProject applies the override, then the credentials' project.
func resolveProject(override, overrideSource string, creds *google.Credentials) (string, string, error) {
	if p := strings.TrimSpace(override); p != "" {
		if overrideSource == "" {
			overrideSource = "override"
		}
		return p, overrideSource, nil
	}
	if creds != nil && creds.ProjectID != "" {
		return creds.ProjectID, "credentials", nil
	}
	return "", "", apperrors.ErrProjectNotResolved
}

func (s *Store) Identity() model.ProjectIdentity {
	return s.identity
}

// ListCollections returns the root collection ids.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	iter := s.client.Collections(ctx)
	var names []string
	for {
		coll, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, coll.ID)
	}
	return names, nil
}

// FetchPage reads up to limit document references without their fields.
func (s *Store) FetchPage(ctx context.Context, collection string, limit int) ([]model.DocumentRef, error) {
	snaps, err := s.client.Collection(collection).Select().Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	refs := make([]model.DocumentRef, 0, len(snaps))
	for _, snap := range snaps {
		refs = append(refs, model.DocumentRef{
			Collection: collection,
			ID:         snap.Ref.ID,
			Handle:     snap.Ref,
		})
	}
	return refs, nil
}

// DeleteBatch deletes refs in one transaction: all of them or none.
func (s *Store) DeleteBatch(ctx context.Context, collection string, refs []model.DocumentRef) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, ref := range refs {
			if err := tx.Delete(s.docRef(collection, ref)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

func (s *Store) docRef(collection string, ref model.DocumentRef) *firestore.DocumentRef {
	if h, ok := ref.Handle.(*firestore.DocumentRef); ok && h != nil {
		return h
	}
	return s.client.Collection(collection).Doc(ref.ID)
}

// MergeDocument writes fields under a merge mask of their leaf paths, so a
// non-empty object merges into the stored one while an empty object or an
// object over a scalar replaces the stored value. Keys are literal field
// names. An empty record only ensures the document exists.
func (s *Store) MergeDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	ref := s.client.Collection(collection).Doc(id)
	if len(fields) == 0 {
		_, err := ref.Set(ctx, map[string]interface{}{}, firestore.MergeAll)
		return err
	}
	_, err := ref.Set(ctx, fields, firestore.Merge(mergePaths(fields)...))
	return err
}

func mergePaths(fields map[string]interface{}) []firestore.FieldPath {
	leaves := model.LeafPaths(fields)
	paths := make([]firestore.FieldPath, len(leaves))
	for i, leaf := range leaves {
		paths[i] = firestore.FieldPath(leaf)
	}
	return paths
}

func (s *Store) Close() error {
	return s.client.Close()
}
