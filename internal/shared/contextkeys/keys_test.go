package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKey_String(t *testing.T) {
	key := contextKey("testKey")
	assert.Equal(t, "firestore-utils context key testKey", key.String())
}

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, RunIDKey, "run-123")
	ctx = context.WithValue(ctx, ProjectIDKey, "project-789")
	ctx = context.WithValue(ctx, DatabaseIDKey, "(default)")
	ctx = context.WithValue(ctx, CollectionKey, "tools")
	ctx = context.WithValue(ctx, ComponentKey, "batch_deleter")
	ctx = context.WithValue(ctx, OperationKey, "purge")

	assert.Equal(t, "run-123", ctx.Value(RunIDKey))
	assert.Equal(t, "project-789", ctx.Value(ProjectIDKey))
	assert.Equal(t, "(default)", ctx.Value(DatabaseIDKey))
	assert.Equal(t, "tools", ctx.Value(CollectionKey))
	assert.Equal(t, "batch_deleter", ctx.Value(ComponentKey))
	assert.Equal(t, "purge", ctx.Value(OperationKey))
}

func TestContextKeys_Distinct(t *testing.T) {
	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	assert.Nil(t, ctx.Value(ProjectIDKey))
	assert.Nil(t, ctx.Value(contextKey("other")))
}
