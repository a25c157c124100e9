package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Store backends
const (
	BackendFirestore = "firestore"
	BackendMongoDB   = "mongodb"
)

const (
	// DefaultBatchSize is the number of documents fetched and deleted per batch.
	DefaultBatchSize = 300
	// MaxBatchSize is the store's write limit for a single atomic batch.
	MaxBatchSize = 500
)

// PurgeConfig holds configuration for the purge tool.
type PurgeConfig struct {
	// BatchSize is the page size for fetch + atomic delete cycles.
	BatchSize int `env:"PURGE_BATCH_SIZE" envDefault:"300" json:"batch_size"`

	// MaxIterations aborts a collection purge when the store keeps returning
	// documents after this many cycles.
	MaxIterations int `env:"PURGE_MAX_ITERATIONS" envDefault:"100000" json:"max_iterations"`
}

// SeedConfig holds configuration for the seed tool.
type SeedConfig struct {
	DataDir string `env:"SEED_DATA_DIR" envDefault:"kidsplay/assets/data" json:"data_dir"`

	// MaxWriteFailures is the number of per-record write failures tolerated
	// within one dataset. Zero means unlimited.
	MaxWriteFailures int `env:"SEED_MAX_WRITE_FAILURES" envDefault:"0" json:"max_write_failures"`
}

// JournalConfig configures the Redis stream journal of maintenance events.
type JournalConfig struct {
	Enabled      bool        `env:"JOURNAL_ENABLED" envDefault:"false" json:"enabled"`
	StreamPrefix string      `env:"JOURNAL_STREAM_PREFIX" envDefault:"maintenance" json:"stream_prefix"`
	Redis        RedisConfig `json:"redis"`
}

// Config holds all configuration for the maintenance tools.
type Config struct {
	Backend string `env:"STORE_BACKEND" envDefault:"firestore" json:"backend"`

	// Project identity overrides, checked in this order.
	GCloudProject string `env:"GCLOUD_PROJECT" json:"gcloud_project"`
	GCPProject    string `env:"GCP_PROJECT" json:"gcp_project"`

	FirestoreDatabase string `env:"FIRESTORE_DATABASE" envDefault:"(default)" json:"firestore_database"`
	// FirestoreEmulatorHost is read by the Firestore SDK itself; it is kept
	// here so the connector can skip the credential lookup.
	FirestoreEmulatorHost string `env:"FIRESTORE_EMULATOR_HOST" json:"firestore_emulator_host"`

	MongoDBURI                  string `env:"MONGODB_URI" json:"-"`
	MongoDBDatabase             string `env:"MONGODB_DATABASE" json:"mongodb_database"`
	MongoDBTransactionalBatches bool   `env:"MONGODB_TRANSACTIONAL_BATCHES" envDefault:"false" json:"mongodb_transactional_batches"`

	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"30s" json:"connect_timeout"`

	Purge   PurgeConfig   `json:"purge"`
	Seed    SeedConfig    `json:"seed"`
	Journal JournalConfig `json:"journal"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Nested sections are parsed along with the root struct.
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load configuration from environment: " + err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the tools cannot work with.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendFirestore:
	case BackendMongoDB:
		if c.MongoDBURI == "" {
			return errors.New("MONGODB_URI environment variable is not set")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendFirestore, BackendMongoDB, c.Backend)
	}

	if c.Purge.BatchSize <= 0 || c.Purge.BatchSize > MaxBatchSize {
		return fmt.Errorf("PURGE_BATCH_SIZE must be between 1 and %d, got %d", MaxBatchSize, c.Purge.BatchSize)
	}
	if c.Purge.MaxIterations <= 0 {
		return fmt.Errorf("PURGE_MAX_ITERATIONS must be positive, got %d", c.Purge.MaxIterations)
	}
	if c.Seed.MaxWriteFailures < 0 {
		return fmt.Errorf("SEED_MAX_WRITE_FAILURES must not be negative, got %d", c.Seed.MaxWriteFailures)
	}
	if c.Seed.DataDir == "" {
		return errors.New("SEED_DATA_DIR must not be empty")
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	if c.Journal.StreamPrefix == "" {
		c.Journal.StreamPrefix = "maintenance"
	}
	return nil
}

// ProjectOverrideSource returns the explicitly configured project identity,
// GCLOUD_PROJECT first, then GCP_PROJECT, and the name of the variable it
// came from. Both are empty when neither is set.
func (c *Config) ProjectOverrideSource() (string, string) {
	if p := strings.TrimSpace(c.GCloudProject); p != "" {
		return p, "GCLOUD_PROJECT"
	}
	if p := strings.TrimSpace(c.GCPProject); p != "" {
		return p, "GCP_PROJECT"
	}
	return "", ""
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend:           BackendFirestore,
		FirestoreDatabase: "(default)",
		ConnectTimeout:    30 * time.Second,
		Purge: PurgeConfig{
			BatchSize:     DefaultBatchSize,
			MaxIterations: 100000,
		},
		Seed: SeedConfig{
			DataDir: "kidsplay/assets/data",
		},
		Journal: JournalConfig{
			StreamPrefix: "maintenance",
			Redis:        DefaultRedisConfig(),
		},
	}
}
