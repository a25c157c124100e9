package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"firestore-utils/internal/maintenance/domain/model"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// BackendName identifies this adapter in ProjectIdentity.Backend.
const BackendName = "mongodb"

const systemCollectionPrefix = "system."

// Options configures Connect.
type Options struct {
	URI string
	// Database wins over the database named in URI.
	Database        string
	ProjectOverride string
	OverrideSource  string
	// Transactional commits every delete batch inside a multi-document
	// transaction. Requires a replica set.
	Transactional bool
}

// Store is a repository.Store over one MongoDB database. Root collections
// are MongoDB collections and document ids are _id values.
type Store struct {
	client        *mongo.Client
	db            *mongo.Database
	transactional bool
	identity      model.ProjectIdentity
	logger        logger.Logger
}

// Connect dials the server, pings it and selects the database.
func Connect(ctx context.Context, opts Options, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("mongodb_store")

	dbName, dbSource, err := databaseName(opts.URI, opts.Database)
	if err != nil {
		return nil, apperrors.NewConnectionError("invalid MONGODB_URI").WithCause(err)
	}
	projectID, source := resolveProject(opts.ProjectOverride, opts.OverrideSource, dbName, dbSource)
	if projectID == "" {
		return nil, apperrors.NewConnectionError("failed to resolve project identity").WithCause(apperrors.ErrProjectNotResolved)
	}
	if dbName == "" {
		dbName = projectID
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, apperrors.NewConnectionError("failed to connect to MongoDB").WithCause(err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, apperrors.NewConnectionError("failed to ping MongoDB").WithCause(err)
	}

	log.Info("MongoDB connection established successfully",
		zap.String("projectID", projectID),
		zap.String("database", dbName),
		zap.String("projectSource", source),
		zap.Bool("transactional", opts.Transactional))

	return &Store{
		client:        client,
		db:            client.Database(dbName),
		transactional: opts.Transactional,
		identity: model.ProjectIdentity{
			ProjectID:  projectID,
			DatabaseID: dbName,
			Backend:    BackendName,
			Source:     source,
		},
		logger: log,
	}, nil
}

// databaseName picks the explicit database, else the one in the URI path.
func databaseName(uri, explicit string) (string, string, error) {
	if db := strings.TrimSpace(explicit); db != "" {
		return db, "MONGODB_DATABASE", nil
	}
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", "", err
	}
	if cs.Database != "" {
		return cs.Database, "uri", nil
	}
	return "", "", nil
}

// resolveProject applies the override, then the database name.
func resolveProject(override, overrideSource, dbName, dbSource string) (string, string) {
	if p := strings.TrimSpace(override); p != "" {
		if overrideSource == "" {
			overrideSource = "override"
		}
		return p, overrideSource
	}
	return dbName, dbSource
}

func (s *Store) Identity() model.ProjectIdentity {
	return s.identity
}

// ListCollections returns the names of regular collections, without views
// and system collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "type", Value: "collection"}})
	if err != nil {
		return nil, err
	}
	return userCollections(names), nil
}

func userCollections(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, systemCollectionPrefix) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// FetchPage reads up to limit _id values.
func (s *Store) FetchPage(ctx context.Context, collection string, limit int) ([]model.DocumentRef, error) {
	findOpts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	refs := make([]model.DocumentRef, 0, len(docs))
	for _, doc := range docs {
		refs = append(refs, model.DocumentRef{
			Collection: collection,
			ID:         idString(doc["_id"]),
			Handle:     doc["_id"],
		})
	}
	return refs, nil
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprint(v)
	}
}

// DeleteBatch removes refs with one DeleteMany. Without transactions a
// failed batch may still have removed some documents; the returned count
// reports them.
func (s *Store) DeleteBatch(ctx context.Context, collection string, refs []model.DocumentRef) (int, error) {
	if len(refs) == 0 {
		return 0, nil
	}
	ids := make(bson.A, 0, len(refs))
	for _, ref := range refs {
		if ref.Handle != nil {
			ids = append(ids, ref.Handle)
		} else {
			ids = append(ids, ref.ID)
		}
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	coll := s.db.Collection(collection)

	if !s.transactional {
		res, err := coll.DeleteMany(ctx, filter)
		if err != nil {
			if res != nil {
				return int(res.DeletedCount), err
			}
			return 0, err
		}
		return int(res.DeletedCount), nil
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return 0, err
	}
	defer sess.EndSession(ctx)

	out, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return coll.DeleteMany(sc, filter)
	})
	if err != nil {
		return 0, err
	}
	return int(out.(*mongo.DeleteResult).DeletedCount), nil
}

// MergeDocument reads the stored document, merges fields into it and writes
// it back with an upserting replace. Merging in the process keeps the rules
// of model.MergeFields, which $set paths cannot express: an object written
// over a scalar, or a key containing ".". With transactional batches the
// read and the write share one transaction.
func (s *Store) MergeDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if !s.transactional {
		return s.mergeOne(ctx, collection, id, fields)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, s.mergeOne(sc, collection, id, fields)
	})
	return err
}

func (s *Store) mergeOne(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	coll := s.db.Collection(collection)
	filter := bson.D{{Key: "_id", Value: id}}

	var stored bson.M
	err := coll.FindOne(ctx, filter).Decode(&stored)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	doc := model.MergeFields(plainMap(stored), fields)
	delete(doc, "_id")
	_, err = coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

// plainMap converts decoded BSON documents and arrays into the plain maps
// and slices model.MergeFields works on.
func plainMap(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return nil
	}
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		return plainMap(t)
	case map[string]interface{}:
		return plainMap(t)
	case bson.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case bson.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
