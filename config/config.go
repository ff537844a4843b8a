// Copyright 2026 Traceloft Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/traceloft/traceloft/codec"
)

// Backend names a storage implementation.
type Backend string

const (
	BackendBadger Backend = "badger"
	BackendMongo  Backend = "mongo"
)

// Config holds every tunable of the ingestion service. Zero values are
// filled in by Default before validation, so a partial YAML file is a
// valid configuration.
type Config struct {
	// Listen is the HTTP ingest address, e.g. ":8640".
	Listen string `koanf:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Engine  EngineConfig  `koanf:"engine"`
	Storage StorageConfig `koanf:"storage"`
}

// EngineConfig tunes the queues, the extraction pool and the batch
// assembler.
type EngineConfig struct {
	BatchSize              int           `koanf:"batch_size"`
	BatchTimeout           time.Duration `koanf:"batch_timeout"`
	PoolSize               int           `koanf:"pool_size"`
	RawQueueCapacity       int           `koanf:"raw_queue_capacity"`
	ProcessedQueueCapacity int           `koanf:"processed_queue_capacity"`
	WriteMaxAttempts       int           `koanf:"write_max_attempts"`
	WriteBackoffBase       time.Duration `koanf:"write_backoff_base"`

	// Compression is one of none, lz4, zstd.
	Compression string `koanf:"compression"`
}

// StorageConfig selects and configures the object-store backend.
type StorageConfig struct {
	Backend Backend `koanf:"backend"`

	// Prefix namespaces every object key written by this instance.
	Prefix string `koanf:"prefix"`

	Badger BadgerConfig `koanf:"badger"`
	Mongo  MongoConfig  `koanf:"mongo"`
}

// BadgerConfig configures the embedded backend.
type BadgerConfig struct {
	Path string `koanf:"path"`

	// InMemory skips the filesystem entirely. Data does not survive a
	// restart.
	InMemory bool `koanf:"in_memory"`
}

// MongoConfig configures the MongoDB backend.
type MongoConfig struct {
	URI        string `koanf:"uri"`
	Database   string `koanf:"database"`
	Collection string `koanf:"collection"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Listen:   ":8640",
		LogLevel: "info",
		Engine: EngineConfig{
			BatchSize:              256,
			BatchTimeout:           2 * time.Second,
			PoolSize:               4,
			RawQueueCapacity:       1024,
			ProcessedQueueCapacity: 1024,
			WriteMaxAttempts:       5,
			WriteBackoffBase:       100 * time.Millisecond,
			Compression:            "zstd",
		},
		Storage: StorageConfig{
			Backend: BackendBadger,
			Prefix:  "traces",
			Badger: BadgerConfig{
				Path: "traceloft.db",
			},
			Mongo: MongoConfig{
				Database:   "traceloft",
				Collection: "batches",
			},
		},
	}
}

// Load reads a YAML file and merges it over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return Parse(data)
}

// Parse merges raw YAML bytes over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine or the
// backend would reject at startup.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}

	e := c.Engine
	if e.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	}
	if e.BatchTimeout <= 0 {
		return fmt.Errorf("%w: batch_timeout must be positive", ErrInvalidConfig)
	}
	if e.PoolSize < 1 {
		return fmt.Errorf("%w: pool_size must be positive", ErrInvalidConfig)
	}
	if e.RawQueueCapacity < 1 || e.ProcessedQueueCapacity < 1 {
		return fmt.Errorf("%w: queue capacities must be positive", ErrInvalidConfig)
	}
	if e.WriteMaxAttempts < 1 {
		return fmt.Errorf("%w: write_max_attempts must be positive", ErrInvalidConfig)
	}
	if e.WriteBackoffBase <= 0 {
		return fmt.Errorf("%w: write_backoff_base must be positive", ErrInvalidConfig)
	}
	if _, err := codec.ParseTag(e.Compression); err != nil {
		return fmt.Errorf("%w: unknown compression %q", ErrInvalidConfig, e.Compression)
	}

	s := c.Storage
	if s.Prefix == "" {
		return fmt.Errorf("%w: storage prefix is empty", ErrInvalidConfig)
	}
	switch s.Backend {
	case BackendBadger:
		if !s.Badger.InMemory && s.Badger.Path == "" {
			return fmt.Errorf("%w: badger path is empty", ErrInvalidConfig)
		}
	case BackendMongo:
		if s.Mongo.URI == "" {
			return fmt.Errorf("%w: mongo uri is empty", ErrInvalidConfig)
		}
		if s.Mongo.Database == "" || s.Mongo.Collection == "" {
			return fmt.Errorf("%w: mongo database and collection are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, s.Backend)
	}

	return nil
}

// CompressionTag returns the validated codec tag for the configured
// compression name.
func (c Config) CompressionTag() codec.Tag {
	tag, err := codec.ParseTag(c.Engine.Compression)
	if err != nil {
		return codec.TagZstd
	}
	return tag
}
