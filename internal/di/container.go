package di

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"firestore-utils/internal/maintenance/adapter/assets"
	"firestore-utils/internal/maintenance/adapter/persistence"
	"firestore-utils/internal/maintenance/config"
	"firestore-utils/internal/maintenance/domain/model"
	"firestore-utils/internal/maintenance/domain/repository"
	"firestore-utils/internal/maintenance/usecase"
	"firestore-utils/internal/shared/eventbus"
	"firestore-utils/internal/shared/logger"
	"firestore-utils/internal/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreConnector opens the process-wide store session.
type StoreConnector func(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error)

// Container wires the maintenance components for one process run.
type Container struct {
	mu sync.RWMutex

	Config  *config.Config
	Logger  logger.Logger
	Bus     *eventbus.EventBus
	Store   repository.Store
	Journal *persistence.RedisJournal
	RunID   string

	connect StoreConnector
}

// NewContainer creates a container with a fresh run id. A nil log uses the
// default stderr logger.
func NewContainer(cfg *config.Config, log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{
		Config:  cfg,
		Logger:  log,
		Bus:     eventbus.NewEventBus(log),
		RunID:   uuid.NewString(),
		connect: persistence.Connect,
	}
}

// WithStore installs an already open store instead of connecting.
func (c *Container) WithStore(store repository.Store) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Store = store
	return c
}

// WithConnector replaces the store connector.
func (c *Container) WithConnector(connect StoreConnector) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connect = connect
	return c
}

// Context returns ctx carrying the run id and the operation name.
func (c *Container) Context(ctx context.Context, operation string) context.Context {
	return utils.WithOperation(utils.WithRunID(ctx, c.RunID), operation)
}

// Connect opens the store session once and, when enabled, the Redis journal.
// Journal problems are logged and never fail the run.
func (c *Container) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Store == nil {
		store, err := c.connect(ctx, c.Config, c.Logger)
		if err != nil {
			return err
		}
		c.Store = store
	}

	identity := c.Store.Identity()
	c.Logger.WithContext(ctx).Info("Store session ready",
		zap.String("projectID", identity.ProjectID),
		zap.String("backend", identity.Backend),
		zap.String("projectSource", identity.Source))

	if c.Config.Journal.Enabled && c.Journal == nil {
		c.initJournal(ctx, identity.ProjectID)
	}
	return nil
}

func (c *Container) initJournal(ctx context.Context, projectID string) {
	client := config.NewRedisClient(&c.Config.Journal.Redis)
	journal := persistence.NewRedisJournal(client, c.Config.Journal.StreamPrefix, projectID,
		c.Config.Journal.Redis.StreamMaxLength, c.Logger)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := journal.Ping(pingCtx); err != nil {
		c.Logger.Warn("Redis journal unavailable, continuing without it",
			zap.String("addr", c.Config.Journal.Redis.GetAddr()),
			zap.Error(err))
		_ = journal.Close()
		return
	}

	journal.Attach(c.Bus)
	c.Journal = journal
	c.Logger.Info("Journaling maintenance events", zap.String("stream", journal.Stream()))
}

// PurgeUsecase builds the purge pipeline. filter is a CEL expression over
// the collection name; empty selects every collection.
func (c *Container) PurgeUsecase(filter string, out, errOut io.Writer) (*usecase.PurgeUsecase, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Store == nil {
		return nil, fmt.Errorf("store must be connected before building the purge usecase")
	}

	collectionFilter, err := usecase.NewCollectionFilter(filter)
	if err != nil {
		return nil, err
	}
	deleter, err := usecase.NewBatchDeleter(c.Store, c.Config.Purge.BatchSize, c.Config.Purge.MaxIterations, c.Bus, c.Logger)
	if err != nil {
		return nil, err
	}
	return usecase.NewPurgeUsecase(
		c.Store,
		usecase.NewCollectionEnumerator(c.Store, c.Logger),
		usecase.NewSafetyGate(),
		deleter,
		collectionFilter,
		out,
		errOut,
		c.Logger,
	), nil
}

// SeedUsecase builds the seed pipeline over the default datasets.
func (c *Container) SeedUsecase(out io.Writer) (*usecase.SeedUsecase, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Store == nil {
		return nil, fmt.Errorf("store must be connected before building the seed usecase")
	}

	seeder := usecase.NewUpsertSeeder(c.Store, c.Config.Seed.MaxWriteFailures, c.Bus, c.Logger)
	return usecase.NewSeedUsecase(
		c.Store,
		assets.NewLoader(c.Logger),
		seeder,
		c.Config.Seed.DataDir,
		model.DefaultDatasets(),
		out,
		c.Logger,
	), nil
}

// HealthCheck verifies the journal connection, when there is one.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Journal != nil {
		if err := c.Journal.Ping(ctx); err != nil {
			return fmt.Errorf("redis journal health check failed: %w", err)
		}
	}
	return nil
}

// Close releases the journal and the store session, in that order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.Journal != nil {
		if err := c.Journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close journal: %w", err))
		}
		c.Journal = nil
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
		c.Store = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}
