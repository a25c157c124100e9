package persistence

import (
	"context"
	"encoding/json"

	"firestore-utils/internal/shared/eventbus"
	"firestore-utils/internal/shared/logger"
	"firestore-utils/internal/shared/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisJournal appends maintenance events to a Redis stream named
// "<prefix>:<project>", so every purge or seed leaves an audit trail.
type RedisJournal struct {
	client    *redis.Client
	stream    string
	maxLength int64
	logger    logger.Logger
}

// NewRedisJournal creates a journal writing to prefix:projectID. A positive
// maxLength caps the stream approximately.
func NewRedisJournal(client *redis.Client, prefix, projectID string, maxLength int64, log logger.Logger) *RedisJournal {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisJournal{
		client:    client,
		stream:    StreamName(prefix, projectID),
		maxLength: maxLength,
		logger:    log.WithComponent("redis_journal"),
	}
}

// StreamName returns the stream key for a project.
func StreamName(prefix, projectID string) string {
	return prefix + ":" + projectID
}

// Stream returns the stream key this journal writes to.
func (j *RedisJournal) Stream() string {
	return j.stream
}

// Ping checks that Redis is reachable.
func (j *RedisJournal) Ping(ctx context.Context) error {
	return j.client.Ping(ctx).Err()
}

// Attach subscribes the journal to every maintenance event on bus.
func (j *RedisJournal) Attach(bus *eventbus.EventBus) {
	bus.SubscribeAll(j.Handle)
}

// Handle is an eventbus.Handler. Write failures are logged and swallowed so
// the journal never aborts a run.
func (j *RedisJournal) Handle(ctx context.Context, event eventbus.Event) error {
	if err := j.Append(ctx, event); err != nil {
		j.logger.Warn("Failed to journal maintenance event",
			zap.String("stream", j.stream),
			zap.String("eventType", event.Type()),
			zap.Error(err))
	}
	return nil
}

// Append writes one event to the stream.
func (j *RedisJournal) Append(ctx context.Context, event eventbus.Event) error {
	values, err := journalValues(ctx, event)
	if err != nil {
		return err
	}
	args := &redis.XAddArgs{
		Stream: j.stream,
		Values: values,
	}
	if j.maxLength > 0 {
		args.MaxLen = j.maxLength
		args.Approx = true
	}
	id, err := j.client.XAdd(ctx, args).Result()
	if err != nil {
		return err
	}
	j.logger.Debug("Event journaled",
		zap.String("stream", j.stream),
		zap.String("eventType", event.Type()),
		zap.String("messageId", id))
	return nil
}

func journalValues(ctx context.Context, event eventbus.Event) (map[string]interface{}, error) {
	data, err := json.Marshal(event.Data())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"type":      event.Type(),
		"source":    event.Source(),
		"timestamp": event.Timestamp().UnixNano(),
		"runId":     utils.GetRunIDOrDefault(ctx, ""),
		"data":      string(data),
	}, nil
}

// Close releases the Redis client.
func (j *RedisJournal) Close() error {
	return j.client.Close()
}
