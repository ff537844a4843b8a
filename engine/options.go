package engine

import (
	"log/slog"
	"time"

	"github.com/traceloft/traceloft/codec"
)

// Defaults applied by New when no option overrides them.
const (
	defaultBatchSize         = 256
	defaultBatchTimeout      = 2 * time.Second
	defaultRawCapacity       = 1024
	defaultProcessedCapacity = 1024
	defaultWriteMaxAttempts  = 5
	defaultWriteBackoffBase  = 100 * time.Millisecond
)

// Option configures an Engine.
type Option func(*Engine) error

// WithBatchSize sets the entity-count seal threshold.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		e.batchSize = size
		return nil
	}
}

// WithBatchTimeout sets the time seal threshold, measured from the
// first entity of an open batch.
func WithBatchTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return ErrInvalidBatchTimeout
		}
		e.batchTimeout = timeout
		return nil
	}
}

// WithPoolSize sets the extraction worker count.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.poolSize = size
		return nil
	}
}

// WithQueueCapacities bounds the raw and processed queues. These two
// bounds (plus one open batch) are the engine's memory budget.
func WithQueueCapacities(raw, processed int) Option {
	return func(e *Engine) error {
		if raw < 1 || processed < 1 {
			return ErrInvalidCapacity
		}
		e.rawCapacity = raw
		e.processedCap = processed
		return nil
	}
}

// WithWriteRetry bounds the storage write backoff loop: at most
// maxAttempts tries per batch, delays growing exponentially from base.
func WithWriteRetry(maxAttempts int, base time.Duration) Option {
	return func(e *Engine) error {
		if maxAttempts < 1 || base <= 0 {
			return ErrInvalidRetryPolicy
		}
		e.writeMaxAttempts = maxAttempts
		e.writeBackoffBase = base
		return nil
	}
}

// WithCompression selects the batch compression codec.
func WithCompression(tag codec.Tag) Option {
	return func(e *Engine) error {
		e.compression = tag
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}
