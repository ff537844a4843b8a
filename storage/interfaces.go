package storage

import (
	"context"
	"time"

	"github.com/traceloft/traceloft/core"
)

// ByteRange selects a half-open slice [Offset, Offset+Length) of a
// stored object. A nil *ByteRange means the whole object.
type ByteRange struct {
	Offset int64
	Length int64
}

// ObjectInfo describes a stored object for listing.
type ObjectInfo struct {
	Key       core.ObjectKey
	Size      int64
	Codec     uint8
	Count     int
	CreatedAt time.Time
}

// ObjectStore is the storage adaptor the batch assembler writes
// through. Implementations must be thread-safe; backend selection and
// credentials are supplied once at construction, and implementations
// hold no per-call mutable state beyond connection pooling.
type ObjectStore interface {
	// Write durably stores a compressed batch under its derived key and
	// returns that key. The write is atomic from the caller's
	// perspective: either the full object is stored, or an error is
	// returned and no partial object is observable by a later Read.
	// Errors are classified via IsRetryable: transient failures may
	// participate in the assembler's backoff loop, terminal ones must not.
	Write(ctx context.Context, batch *core.CompressedBatch) (core.ObjectKey, error)

	// Read returns the stored object bytes for a key, optionally
	// narrowed to a byte range. Returns ErrObjectNotFound for unknown
	// keys and ErrInvalidRange for a range outside the object.
	Read(ctx context.Context, key core.ObjectKey, rng *ByteRange) ([]byte, error)

	// List returns descriptors of the most recently written objects,
	// newest first, up to limit.
	List(ctx context.Context, limit int) ([]ObjectInfo, error)

	// Close releases the backend connection and resources.
	Close() error
}
