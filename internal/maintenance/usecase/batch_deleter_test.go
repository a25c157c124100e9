package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firestore-utils/internal/maintenance/testutil"
	. "firestore-utils/internal/maintenance/usecase"
	apperrors "firestore-utils/internal/shared/errors"
	"firestore-utils/internal/shared/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatchDeleter_RejectsNonPositiveBatchSize(t *testing.T) {
	store := testutil.NewMemoryStore("demo")
	for _, size := range []int{0, -1} {
		_, err := NewBatchDeleter(store, size, 0, nil, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidBatchSize)
	}
}

func TestNewBatchDeleter_KeepsBatchSize(t *testing.T) {
	deleter, err := NewBatchDeleter(testutil.NewMemoryStore("demo"), 300, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 300, deleter.BatchSize())
}

func TestBatchDeleter_CyclesAndCompleteness(t *testing.T) {
	tests := []struct {
		docs      int
		batchSize int
		commits   int
	}{
		{docs: 0, batchSize: 300, commits: 0},
		{docs: 1, batchSize: 300, commits: 1},
		{docs: 300, batchSize: 300, commits: 1},
		{docs: 301, batchSize: 300, commits: 2},
		{docs: 7, batchSize: 3, commits: 3},
		{docs: 10, batchSize: 1, commits: 10},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("N=%d,B=%d", tt.docs, tt.batchSize), func(t *testing.T) {
			store := testutil.NewMemoryStore("demo")
			store.Fill("tools", tt.docs)
			deleter, err := NewBatchDeleter(store, tt.batchSize, 0, nil, nil)
			require.NoError(t, err)

			result, err := deleter.PurgeCollection(context.Background(), "tools")
			require.NoError(t, err)

			assert.Equal(t, tt.docs, result.DocumentsDeleted)
			assert.Equal(t, tt.commits, result.Batches)
			assert.Equal(t, tt.commits, store.CommitCalls)
			// One extra fetch observes the empty collection.
			assert.Equal(t, tt.commits+1, store.FetchCalls)
			assert.Equal(t, 0, store.Count("tools"))
		})
	}
}

func TestBatchDeleter_PartialFailureCountsCommittedBatches(t *testing.T) {
	store := testutil.NewMemoryStore("demo")
	store.Fill("tools", 10)
	store.FailCommitAt = 3
	store.PartialOnFail = 1

	deleter, err := NewBatchDeleter(store, 3, 0, nil, nil)
	require.NoError(t, err)

	result, err := deleter.PurgeCollection(context.Background(), "tools")
	require.Error(t, err)

	ppe, ok := apperrors.AsPartialPurge(err)
	require.True(t, ok)
	assert.Equal(t, "tools", ppe.Collection)
	// (k-1)*B plus what the failed batch reported as applied.
	assert.Equal(t, 2*3+1, ppe.Deleted)
	assert.Equal(t, 2, ppe.Batches)
	assert.Equal(t, ppe.Deleted, result.DocumentsDeleted)
	assert.ErrorIs(t, err, testutil.ErrInjected)
	assert.Equal(t, 3, store.Count("tools"))
}

func TestBatchDeleter_SafetyCap(t *testing.T) {
	store := testutil.NewMemoryStore("demo")
	store.Fill("tools", 5)
	store.NeverEmpty = true

	deleter, err := NewBatchDeleter(store, 2, 4, nil, nil)
	require.NoError(t, err)

	_, err = deleter.PurgeCollection(context.Background(), "tools")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNeverEmpty)
	assert.Equal(t, 4, store.CommitCalls)
	_, ok := apperrors.AsPartialPurge(err)
	assert.True(t, ok)
}

func TestBatchDeleter_CancellationBetweenBatches(t *testing.T) {
	store := testutil.NewMemoryStore("demo")
	store.Fill("tools", 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.OnCommit = func(commit int) {
		if commit == 1 {
			cancel()
		}
	}

	deleter, err := NewBatchDeleter(store, 3, 0, nil, nil)
	require.NoError(t, err)

	result, err := deleter.PurgeCollection(ctx, "tools")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	// The first batch finished; nothing after it started.
	assert.Equal(t, 3, result.DocumentsDeleted)
	assert.Equal(t, 1, store.CommitCalls)
	assert.Equal(t, 1, store.FetchCalls)
	assert.Equal(t, 7, store.Count("tools"))
}

func TestBatchDeleter_PublishesEvents(t *testing.T) {
	store := testutil.NewMemoryStore("demo")
	store.Fill("tools", 5)
	bus, rec := newRecordingBus()

	deleter, err := NewBatchDeleter(store, 2, 0, bus, nil)
	require.NoError(t, err)

	_, err = deleter.PurgeCollection(context.Background(), "tools")
	require.NoError(t, err)

	assert.Equal(t, []string{
		eventbus.EventTypeCollectionPurgeStarted,
		eventbus.EventTypeBatchCommitted,
		eventbus.EventTypeBatchCommitted,
		eventbus.EventTypeBatchCommitted,
		eventbus.EventTypeCollectionPurgeCompleted,
	}, rec.types())
}

func TestBatchDeleter_EventFailuresDoNotAbort(t *testing.T) {
	store := testutil.NewMemoryStore("demo")
	store.Fill("tools", 4)
	bus := eventbus.NewEventBusWithConfig(nil, eventbus.BusConfig{})
	bus.SubscribeAll(func(ctx context.Context, event eventbus.Event) error {
		return errors.New("journal down")
	})

	deleter, err := NewBatchDeleter(store, 2, 0, bus, nil)
	require.NoError(t, err)

	result, err := deleter.PurgeCollection(context.Background(), "tools")
	require.NoError(t, err)
	assert.Equal(t, 4, result.DocumentsDeleted)
}
