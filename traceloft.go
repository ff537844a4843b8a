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

// Package traceloft assembles the ingestion pipeline from a validated
// configuration: one storage backend, one extraction pool, one engine.
package traceloft

import (
	"context"
	"fmt"

	"github.com/traceloft/traceloft/config"
	"github.com/traceloft/traceloft/engine"
	"github.com/traceloft/traceloft/extract"
	"github.com/traceloft/traceloft/storage"
	badgerstore "github.com/traceloft/traceloft/storage/badger"
	mongostore "github.com/traceloft/traceloft/storage/mongo"
)

// Service bundles a running engine with the store it writes to.
type Service struct {
	store  storage.ObjectStore
	engine *engine.Engine
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	extractor extract.Extractor
	engine    []engine.Option
}

// WithExtractor replaces the default span-summary extractor.
func WithExtractor(extractor extract.Extractor) ServiceOption {
	return func(o *serviceOptions) {
		o.extractor = extractor
	}
}

// WithEngineOptions appends engine options on top of those derived
// from the configuration. Later options win.
func WithEngineOptions(opts ...engine.Option) ServiceOption {
	return func(o *serviceOptions) {
		o.engine = append(o.engine, opts...)
	}
}

// Open validates the configuration, opens the configured backend and
// starts the engine. The caller owns the returned Service and must
// Close it to drain in-flight batches.
func Open(ctx context.Context, cfg config.Config, opts ...ServiceOption) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{
		extractor: extract.NewSpanSummary(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engineOpts := append([]engine.Option{
		engine.WithBatchSize(cfg.Engine.BatchSize),
		engine.WithBatchTimeout(cfg.Engine.BatchTimeout),
		engine.WithPoolSize(cfg.Engine.PoolSize),
		engine.WithQueueCapacities(cfg.Engine.RawQueueCapacity, cfg.Engine.ProcessedQueueCapacity),
		engine.WithWriteRetry(cfg.Engine.WriteMaxAttempts, cfg.Engine.WriteBackoffBase),
		engine.WithCompression(cfg.CompressionTag()),
	}, options.engine...)

	eng, err := engine.New(store, options.extractor, engineOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Service{store: store, engine: eng}, nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		if cfg.Storage.Badger.InMemory {
			return badgerstore.OpenMemory(cfg.Storage.Prefix)
		}
		return badgerstore.Open(cfg.Storage.Badger.Path, cfg.Storage.Prefix)
	case config.BackendMongo:
		return mongostore.New(ctx, mongostore.Config{
			URI:        cfg.Storage.Mongo.URI,
			Database:   cfg.Storage.Mongo.Database,
			Collection: cfg.Storage.Mongo.Collection,
			Prefix:     cfg.Storage.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Submit hands one raw payload to the engine.
func (s *Service) Submit(payload []byte) (uint64, error) {
	return s.engine.Submit(payload)
}

// Counters snapshots the engine counters.
func (s *Service) Counters() engine.Counters {
	return s.engine.Counters()
}

// Engine exposes the underlying engine.
func (s *Service) Engine() *engine.Engine {
	return s.engine
}

// Store exposes the underlying object store for read-side access.
func (s *Service) Store() storage.ObjectStore {
	return s.store
}

// Close drains the engine within the context deadline and then closes
// the store. Entities still queued when the deadline expires are
// counted as abandoned.
func (s *Service) Close(ctx context.Context) error {
	drainErr := s.engine.Shutdown(ctx)
	if err := s.store.Close(); err != nil && drainErr == nil {
		return err
	}
	return drainErr
}
