package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"firestore-utils/internal/maintenance/domain/model"
)

// ErrInjected is returned by MemoryStore operations configured to fail.
var ErrInjected = errors.New("injected store failure")

// MemoryStore is an in-memory repository.Store. A collection exists while it
// holds at least one document, like the real stores.
type MemoryStore struct {
	mu       sync.Mutex
	identity model.ProjectIdentity
	docs     map[string]map[string]map[string]interface{}

	// ListErr makes ListCollections fail.
	ListErr error
	// FailCommitAt makes the Nth DeleteBatch call (1-based, across all
	// collections) fail after removing PartialOnFail documents.
	FailCommitAt  int
	PartialOnFail int
	// NeverEmpty makes DeleteBatch report success without removing anything.
	NeverEmpty bool
	// WriteErrs fails MergeDocument for the given "collection/id" keys.
	WriteErrs map[string]error

	FetchCalls  int
	CommitCalls int
	MergeCalls  int
	Closed      bool
	// OnCommit runs after each successful DeleteBatch, outside the lock.
	OnCommit func(commit int)
}

// NewMemoryStore returns an empty store for project.
func NewMemoryStore(project string) *MemoryStore {
	return &MemoryStore{
		identity: model.ProjectIdentity{
			ProjectID:  project,
			DatabaseID: "(default)",
			Backend:    "memory",
			Source:     "test",
		},
		docs:      make(map[string]map[string]map[string]interface{}),
		WriteErrs: make(map[string]error),
	}
}

// Put stores a copy of fields at collection/id, replacing any existing document.
func (s *MemoryStore) Put(collection, id string, fields map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string]map[string]interface{})
		s.docs[collection] = coll
	}
	coll[id] = copyFields(fields)
}

// Fill adds n documents named doc-00000.. to collection.
func (s *MemoryStore) Fill(collection string, n int) {
	for i := 0; i < n; i++ {
		s.Put(collection, fmt.Sprintf("doc-%05d", i), map[string]interface{}{"n": i})
	}
}

// Get returns a copy of collection/id.
func (s *MemoryStore) Get(collection, id string) (map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, false
	}
	return copyFields(doc), true
}

// Count returns the number of documents in collection.
func (s *MemoryStore) Count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

func (s *MemoryStore) Identity() model.ProjectIdentity {
	return s.identity
}

func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	names := make([]string, 0, len(s.docs))
	for name, docs := range s.docs {
		if len(docs) > 0 {
			names = append(names, name)
		}
	}
	// Map order: callers must sort.
	return names, nil
}

func (s *MemoryStore) FetchPage(ctx context.Context, collection string, limit int) ([]model.DocumentRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FetchCalls++
	ids := make([]string, 0, len(s.docs[collection]))
	for id := range s.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	refs := make([]model.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = model.DocumentRef{Collection: collection, ID: id, Handle: id}
	}
	return refs, nil
}

func (s *MemoryStore) DeleteBatch(ctx context.Context, collection string, refs []model.DocumentRef) (int, error) {
	s.mu.Lock()
	s.CommitCalls++
	commit := s.CommitCalls
	if s.FailCommitAt > 0 && commit == s.FailCommitAt {
		removed := 0
		for _, ref := range refs {
			if removed >= s.PartialOnFail {
				break
			}
			delete(s.docs[collection], ref.ID)
			removed++
		}
		s.mu.Unlock()
		return removed, ErrInjected
	}
	removed := 0
	if !s.NeverEmpty {
		for _, ref := range refs {
			if _, ok := s.docs[collection][ref.ID]; ok {
				delete(s.docs[collection], ref.ID)
				removed++
			}
		}
	} else {
		removed = len(refs)
	}
	hook := s.OnCommit
	s.mu.Unlock()

	if hook != nil {
		hook(commit)
	}
	return removed, nil
}

func (s *MemoryStore) MergeDocument(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MergeCalls++
	if err := s.WriteErrs[collection+"/"+id]; err != nil {
		return err
	}
	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string]map[string]interface{})
		s.docs[collection] = coll
	}
	coll[id] = model.MergeFields(coll[id], fields)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = model.CopyValue(v)
	}
	return out
}
