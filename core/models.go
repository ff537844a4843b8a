package core

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for stored objects.
// Identical payloads always produce identical IDs.
type ID uint64

// IDFromContent generates a deterministic ID from raw bytes using BLAKE2b hashing.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex returns the fixed-width hexadecimal form used in object keys.
func (id ID) Hex() string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	return hex.EncodeToString(buf[:])
}

// RawMessage is an opaque trace payload as accepted at the ingress
// boundary. It is immutable once enqueued; the raw queue owns it until
// exactly one extraction worker claims it.
type RawMessage struct {
	Seq        uint64 // ingestion sequence number, unique and increasing per stream
	Payload    []byte
	ReceivedAt time.Time
}

// Metadata holds the attributes derived from one RawMessage.
type Metadata map[string]string

// Entity is a raw message enriched with extracted metadata, ready for
// batching. Workers may finish out of order, so entities carry their
// original sequence number: ordering is recoverable, never guaranteed
// in-queue.
type Entity struct {
	Seq         uint64    `cbor:"seq"`
	Payload     []byte    `cbor:"payload"`
	Attributes  Metadata  `cbor:"attributes"`
	ReceivedAt  time.Time `cbor:"received_at"`
	ProcessedAt time.Time `cbor:"processed_at"`
}

// Batch accumulates entities until sealed by the assembler. A batch is
// mutable only while open; Seal freezes it for compression.
type Batch struct {
	entities  []*Entity
	createdAt time.Time
	firstAt   time.Time
	rawBytes  int
	sealed    bool
}

// NewBatch creates an empty open batch with the given capacity hint.
func NewBatch(capacity int) *Batch {
	return &Batch{
		entities:  make([]*Entity, 0, capacity),
		createdAt: time.Now().UTC(),
	}
}

// Append adds an entity to an open batch. Appending to a sealed batch
// returns ErrBatchSealed.
func (b *Batch) Append(e *Entity) error {
	if b.sealed {
		return ErrBatchSealed
	}
	if len(b.entities) == 0 {
		b.firstAt = time.Now().UTC()
	}
	b.entities = append(b.entities, e)
	b.rawBytes += len(e.Payload)
	return nil
}

// Seal freezes the batch. After sealing, Entities returns a stable view
// and Append fails.
func (b *Batch) Seal() {
	b.sealed = true
}

// Sealed reports whether the batch has been frozen for compression.
func (b *Batch) Sealed() bool {
	return b.sealed
}

// Len returns the number of accumulated entities.
func (b *Batch) Len() int {
	return len(b.entities)
}

// RawSize returns the accumulated payload bytes before encoding.
func (b *Batch) RawSize() int {
	return b.rawBytes
}

// CreatedAt returns when the batch was opened.
func (b *Batch) CreatedAt() time.Time {
	return b.createdAt
}

// FirstEntityAt returns the arrival time of the first appended entity.
// The zero time means the batch is still empty.
func (b *Batch) FirstEntityAt() time.Time {
	return b.firstAt
}

// Entities returns the accumulated entities.
func (b *Batch) Entities() []*Entity {
	return b.entities
}

// CompressedBatch is a sealed batch after whole-batch compression. The
// codec is declared in Codec and repeated in the stored object header;
// it is never inferred from the payload.
type CompressedBatch struct {
	ID               ID     // content-derived, computed over the encoded payload
	Codec            uint8  // compression tag, see the codec package
	Data             []byte // codec header + compressed payload, as stored
	Count            int
	UncompressedSize int // encoded payload bytes before compression
	CreatedAt        time.Time
}

// ObjectKey is the backend-agnostic logical path of a stored batch:
// prefix, UTC time bucket, and content identifier. Each backend maps it
// to its own addressing scheme.
type ObjectKey struct {
	Prefix string
	Bucket string
	ID     ID
}

// timeBucketLayout buckets objects by UTC hour. Changing it breaks key
// compatibility with already-written objects.
const timeBucketLayout = "2006/01/02/15"

// MakeObjectKey builds the key for a batch created at the given time.
func MakeObjectKey(prefix string, createdAt time.Time, id ID) ObjectKey {
	return ObjectKey{
		Prefix: prefix,
		Bucket: createdAt.UTC().Format(timeBucketLayout),
		ID:     id,
	}
}

// String returns the logical path form "{prefix}/{bucket}/{id}".
func (k ObjectKey) String() string {
	return k.Prefix + "/" + k.Bucket + "/" + k.ID.Hex()
}
