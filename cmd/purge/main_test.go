package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"firestore-utils/internal/maintenance/config"
	"firestore-utils/internal/maintenance/domain/repository"
	"firestore-utils/internal/maintenance/testutil"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConnector(store *testutil.MemoryStore) func(context.Context, *config.Config, logger.Logger) (repository.Store, error) {
	return func(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
		return store, nil
	}
}

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("STORE_BACKEND", "firestore")
	t.Setenv("PURGE_BATCH_SIZE", "300")
}

func TestRun_DryRun(t *testing.T) {
	quietEnv(t)
	store := testutil.NewMemoryStore("demo-project")
	store.Fill("b", 2)
	store.Fill("a", 1)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--dry-run"}, &stdout, &stderr, memoryConnector(store))

	assert.Equal(t, apperrors.ExitSuccess, code)
	assert.Equal(t, "Project: demo-project\nRoot collections:\n- a\n- b\n\nDry run complete. No deletions performed.\n", stdout.String())
	assert.Equal(t, 0, store.CommitCalls)
	assert.True(t, store.Closed)
}

func TestRun_RefusesWithoutYes(t *testing.T) {
	quietEnv(t)
	store := testutil.NewMemoryStore("demo-project")
	store.Fill("a", 3)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, &stdout, &stderr, memoryConnector(store))

	assert.Equal(t, apperrors.ExitRefused, code)
	assert.Contains(t, stderr.String(), "Refusing to delete without --yes. Re-run with --dry-run to inspect.")
	assert.NotContains(t, stderr.String(), "Error:")
	assert.Equal(t, 3, store.Count("a"))
}

func TestRun_YesPurgesEverything(t *testing.T) {
	quietEnv(t)
	store := testutil.NewMemoryStore("demo-project")
	store.Fill("a", 301)
	store.Fill("b", 1)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--yes"}, &stdout, &stderr, memoryConnector(store))

	require.Equal(t, apperrors.ExitSuccess, code, stderr.String())
	assert.Equal(t, 0, store.Count("a"))
	assert.Equal(t, 0, store.Count("b"))
	assert.Contains(t, stdout.String(), "Purge complete.")
}

func TestRun_PartialPurgeExitsWithFailure(t *testing.T) {
	quietEnv(t)
	t.Setenv("PURGE_BATCH_SIZE", "2")
	store := testutil.NewMemoryStore("demo-project")
	store.Fill("a", 5)
	store.FailCommitAt = 2

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--yes"}, &stdout, &stderr, memoryConnector(store))

	assert.Equal(t, apperrors.ExitFailure, code)
	assert.Contains(t, stderr.String(), "Partially purged a: 2 documents removed")
	assert.Contains(t, stderr.String(), "Error:")
}

func TestRun_InvalidFilterFailsBeforeConnecting(t *testing.T) {
	quietEnv(t)
	connected := false
	connect := func(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
		connected = true
		return testutil.NewMemoryStore("demo"), nil
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--yes", "--filter", "collection +"}, &stdout, &stderr, connect)

	assert.Equal(t, apperrors.ExitFailure, code)
	assert.False(t, connected)
	assert.Contains(t, stderr.String(), "CEL compilation error")
}

func TestRun_ConnectionFailure(t *testing.T) {
	quietEnv(t)
	connect := func(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
		return nil, apperrors.NewConnectionError("failed to resolve project identity").WithCause(errors.New("no credentials"))
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"--dry-run"}, &stdout, &stderr, connect)

	assert.Equal(t, apperrors.ExitFailure, code)
	assert.Contains(t, stderr.String(), "Error: failed to resolve project identity: no credentials")
	assert.Empty(t, stdout.String())
}

func TestRun_BadUsage(t *testing.T) {
	quietEnv(t)
	var stdout, stderr bytes.Buffer
	assert.Equal(t, apperrors.ExitFailure, run(context.Background(), []string{"--bogus"}, &stdout, &stderr, nil))
	assert.Equal(t, apperrors.ExitFailure, run(context.Background(), []string{"extra"}, &stdout, &stderr, nil))
	assert.Equal(t, apperrors.ExitSuccess, run(context.Background(), []string{"-h"}, &stdout, &stderr, nil))
}
