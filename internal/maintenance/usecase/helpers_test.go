package usecase_test

import (
	"context"
	"sync"

	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/shared/eventbus"
)

type modelRef = model.DocumentRef

// eventRecorder collects every maintenance event published on a bus.
type eventRecorder struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func newRecordingBus() (*eventbus.EventBus, *eventRecorder) {
	bus := eventbus.NewEventBus(nil)
	rec := &eventRecorder{}
	bus.SubscribeAll(func(ctx context.Context, event eventbus.Event) error {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.events = append(rec.events, event)
		return nil
	})
	return bus, rec
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type()
	}
	return out
}

func (r *eventRecorder) count(eventType string) int {
	n := 0
	for _, t := range r.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

func seedRecords(raw ...interface{}) []model.SeedRecord {
	out := make([]model.SeedRecord, len(raw))
	for i, r := range raw {
		out[i] = model.NewSeedRecord(i, r)
	}
	return out
}

type obj = map[string]interface{}
