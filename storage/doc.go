// Package storage provides the storage abstraction layer for traceloft.
//
// This package defines the ObjectStore interface that decouples the
// batch assembler from concrete backends. Batches are written as whole
// objects under a backend-agnostic key ({prefix}/{time-bucket}/{id});
// each backend maps that logical path to its own addressing scheme.
//
// # Constructor Return Type Pattern
//
// Backend packages follow a "return interface" pattern for their public
// constructors:
//
//	store, err := badger.Open(path, "traces")  // returns storage.ObjectStore
//
// so consumers never couple to backend specifics and backends stay
// swappable by configuration alone.
//
// # Failure Classification
//
// Write failures carry a WriteError marking them retryable or terminal.
// Only retryable failures participate in the assembler's bounded
// backoff; everything else fails the batch immediately. IsRetryable is
// the single classification point: backends wrap, callers ask.
//
// # Thread Safety
//
// All ObjectStore implementations must be safe for concurrent use.
package storage
