package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"firestore-utils/internal/maintenance/domain/model"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPlainValue(t *testing.T) {
	stored := bson.M{
		"name": "Hammer",
		"meta": bson.M{"color": "red", "dims": bson.D{{Key: "h", Value: 1.5}}},
		"tags": bson.A{"a", bson.M{"k": "v"}},
	}

	got := plainMap(stored)
	assert.Equal(t, map[string]interface{}{
		"name": "Hammer",
		"meta": map[string]interface{}{"color": "red", "dims": map[string]interface{}{"h": 1.5}},
		"tags": []interface{}{"a", map[string]interface{}{"k": "v"}},
	}, got)

	merged := model.MergeFields(got, map[string]interface{}{"meta": map[string]interface{}{"color": "blue"}})
	assert.Equal(t, "blue", merged["meta"].(map[string]interface{})["color"])
	assert.Equal(t, map[string]interface{}{"h": 1.5}, merged["meta"].(map[string]interface{})["dims"])
	assert.Nil(t, plainMap(nil))
}

func TestIDString(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, "hammer", idString("hammer"))
	assert.Equal(t, oid.Hex(), idString(oid))
	assert.Equal(t, "42", idString(int32(42)))
}

func TestUserCollections(t *testing.T) {
	got := userCollections([]string{"tools", "system.views", "hobbies", "system.profile"})
	assert.Equal(t, []string{"tools", "hobbies"}, got)
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		explicit   string
		wantDB     string
		wantSource string
		wantErr    bool
	}{
		{"explicit wins", "mongodb://localhost:27017/fromuri", "explicit", "explicit", "MONGODB_DATABASE", false},
		{"from uri", "mongodb://localhost:27017/kidsplay?retryWrites=true", "", "kidsplay", "uri", false},
		{"none", "mongodb://localhost:27017", "", "", "", false},
		{"invalid uri", "http://nope", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, source, err := databaseName(tt.uri, tt.explicit)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDB, db)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestResolveProject(t *testing.T) {
	id, source := resolveProject("env-project", "GCP_PROJECT", "kidsplay", "uri")
	assert.Equal(t, "env-project", id)
	assert.Equal(t, "GCP_PROJECT", source)

	id, source = resolveProject("", "", "kidsplay", "uri")
	assert.Equal(t, "kidsplay", id)
	assert.Equal(t, "uri", source)
}

func TestConnect_UnresolvedProject(t *testing.T) {
	_, err := Connect(context.Background(), Options{URI: "mongodb://localhost:27017"}, logger.Nop())
	require.Error(t, err)
	assert.True(t, apperrors.IsConnection(err))
	assert.ErrorIs(t, err, apperrors.ErrProjectNotResolved)
}

// testStore connects to MONGODB_TEST_URI and skips when it is unset or
// unreachable.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set, skipping MongoDB test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := Connect(ctx, Options{URI: uri, Database: "firestore_utils_test"}, logger.Nop())
	if err != nil {
		t.Skip("MongoDB not available for testing:", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PurgeCycle(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	coll := "it_" + uuid.NewString()[:8]
	defer store.db.Collection(coll).Drop(ctx)

	for i := 0; i < 7; i++ {
		require.NoError(t, store.MergeDocument(ctx, coll, fmt.Sprintf("doc-%d", i), map[string]interface{}{"n": i}))
	}

	names, err := store.ListCollections(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, coll)

	deleted := 0
	for {
		refs, err := store.FetchPage(ctx, coll, 3)
		require.NoError(t, err)
		if len(refs) == 0 {
			break
		}
		n, err := store.DeleteBatch(ctx, coll, refs)
		require.NoError(t, err)
		deleted += n
	}
	assert.Equal(t, 7, deleted)
}

func TestStore_MergeKeepsOtherFields(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	coll := "it_" + uuid.NewString()[:8]
	defer store.db.Collection(coll).Drop(ctx)

	require.NoError(t, store.MergeDocument(ctx, coll, "hammer", map[string]interface{}{
		"name":   "Hammer",
		"meta":   map[string]interface{}{"weight": 2, "color": "red"},
		"legacy": "scalar",
		"extra":  map[string]interface{}{"a": 1},
	}))
	require.NoError(t, store.MergeDocument(ctx, coll, "hammer", map[string]interface{}{
		"meta":   map[string]interface{}{"color": "blue"},
		"legacy": map[string]interface{}{"now": "object"},
		"extra":  map[string]interface{}{},
		"a.b":    true,
	}))
	require.NoError(t, store.MergeDocument(ctx, coll, "hammer", map[string]interface{}{}))

	var stored bson.M
	require.NoError(t, store.db.Collection(coll).FindOne(ctx, bson.D{{Key: "_id", Value: "hammer"}}).Decode(&stored))
	doc := plainMap(stored)
	assert.Equal(t, "Hammer", doc["name"])
	assert.Equal(t, "blue", doc["meta"].(map[string]interface{})["color"])
	assert.EqualValues(t, 2, doc["meta"].(map[string]interface{})["weight"])
	assert.Equal(t, map[string]interface{}{"now": "object"}, doc["legacy"])
	assert.Equal(t, map[string]interface{}{}, doc["extra"])
	assert.Equal(t, true, doc["a.b"])
}

func TestStore_MergeCreatesEmptyDocument(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	coll := "it_" + uuid.NewString()[:8]
	defer store.db.Collection(coll).Drop(ctx)

	require.NoError(t, store.MergeDocument(ctx, coll, "blank", map[string]interface{}{}))
	n, err := store.db.Collection(coll).CountDocuments(ctx, bson.D{{Key: "_id", Value: "blank"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
