package engine

import "errors"

var (
	// ErrStoreRequired is returned when an object store is not provided.
	ErrStoreRequired = errors.New("object store required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrBackpressure rejects a submission because the raw queue is
	// full. The caller decides whether to retry, slow down, or shed.
	ErrBackpressure = errors.New("raw queue full")

	// ErrShuttingDown rejects a submission because shutdown has begun.
	ErrShuttingDown = errors.New("engine is shutting down")

	// ErrShutdownTimeout indicates the drain deadline expired before
	// all in-flight work finished; remaining work was abandoned and
	// counted.
	ErrShutdownTimeout = errors.New("shutdown deadline exceeded")

	// Option validation errors.
	ErrInvalidBatchSize    = errors.New("batch size must be at least 1")
	ErrInvalidBatchTimeout = errors.New("batch timeout must be positive")
	ErrInvalidCapacity     = errors.New("queue capacity must be at least 1")
	ErrInvalidRetryPolicy  = errors.New("retry policy must allow at least one attempt with positive backoff")
)
