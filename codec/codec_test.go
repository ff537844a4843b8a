package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceloft/traceloft/core"
)

func TestCompress_RoundTrip(t *testing.T) {
	// Repetitive text so both codecs actually shrink it.
	payload := bytes.Repeat([]byte("span service=checkout duration=120ms "), 64)

	tests := []struct {
		name string
		tag  Tag
	}{
		{name: "zstd", tag: TagZstd},
		{name: "lz4", tag: TagLZ4},
		{name: "none", tag: TagNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			object, written, err := Compress(payload, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, written)

			if tt.tag != TagNone {
				assert.Less(t, len(object), len(payload), "compressed object should be smaller")
			}

			recovered, tag, err := Decompress(object)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, tag)
			assert.Equal(t, payload, recovered)
		})
	}
}

func TestCompress_IncompressibleFallsBackToNone(t *testing.T) {
	// High-entropy bytes from a fixed PRNG-ish expansion: every codec
	// should give up and store them raw.
	payload := make([]byte, 512)
	x := uint32(0x9e3779b9)
	for i := range payload {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		payload[i] = byte(x)
	}

	object, written, err := Compress(payload, TagZstd)
	require.NoError(t, err)
	assert.Equal(t, TagNone, written)

	recovered, tag, err := Decompress(object)
	require.NoError(t, err)
	assert.Equal(t, TagNone, tag)
	assert.Equal(t, payload, recovered)
}

func TestCompress_UnknownTag(t *testing.T) {
	_, _, err := Compress([]byte("x"), Tag(42))
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestDecompress_Truncated(t *testing.T) {
	_, _, err := Decompress([]byte{0x02, 0x00})
	assert.ErrorIs(t, err, ErrTruncatedObject)
}

func TestDecompress_CorruptBody(t *testing.T) {
	payload := bytes.Repeat([]byte("abcd"), 256)
	object, _, err := Compress(payload, TagZstd)
	require.NoError(t, err)

	// Flip bytes in the compressed body.
	object[len(object)-1] ^= 0xff
	object[len(object)-2] ^= 0xff

	_, _, err = Decompress(object)
	assert.ErrorIs(t, err, ErrCorruptObject)
}

func TestDecompress_SizeMismatch(t *testing.T) {
	payload := []byte("hello")
	object, _, err := Compress(payload, TagNone)
	require.NoError(t, err)

	// Claim a larger uncompressed size than the body carries.
	object[4] = 0xff
	_, _, err = Decompress(object)
	assert.ErrorIs(t, err, ErrCorruptObject)
}

func TestDecompress_DeclaredSizeBounded(t *testing.T) {
	// A corrupt header declaring a huge uncompressed size must be
	// rejected by the expansion bound, not trusted for allocation.
	for _, tag := range []Tag{TagLZ4, TagZstd} {
		t.Run(tag.String(), func(t *testing.T) {
			object := []byte{byte(tag), 0xff, 0xff, 0xff, 0xff, 0x01, 0x02, 0x03}
			_, _, err := Decompress(object)
			assert.ErrorIs(t, err, ErrCorruptObject)
		})
	}
}

func TestParseTag(t *testing.T) {
	for _, tag := range []Tag{TagNone, TagLZ4, TagZstd} {
		parsed, err := ParseTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, parsed)
	}

	_, err := ParseTag("brotli")
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func testEntities() []*core.Entity {
	received := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return []*core.Entity{
		{
			Seq:         3,
			Payload:     []byte(`{"spans":[{"name":"db.query"}]}`),
			Attributes:  core.Metadata{"service.name": "billing", "span.count": "1"},
			ReceivedAt:  received,
			ProcessedAt: received.Add(2 * time.Millisecond),
		},
		{
			Seq:         1,
			Payload:     []byte(`{"spans":[{"name":"http.request"},{"name":"cache.get"}]}`),
			Attributes:  core.Metadata{"service.name": "gateway", "span.count": "2"},
			ReceivedAt:  received,
			ProcessedAt: received.Add(time.Millisecond),
		},
	}
}

func TestSealBatch_RoundTrip(t *testing.T) {
	batch := core.NewBatch(2)
	for _, e := range testEntities() {
		require.NoError(t, batch.Append(e))
	}
	batch.Seal()

	compressed, err := SealBatch(batch, TagZstd)
	require.NoError(t, err)
	assert.Equal(t, 2, compressed.Count)
	assert.NotZero(t, compressed.ID)
	assert.Positive(t, compressed.UncompressedSize)

	entities, _, err := OpenObject(compressed.Data)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	// Recovered entities preserve sequence numbers and metadata;
	// relative order inside the batch is whatever the workers produced.
	bySeq := map[uint64]*core.Entity{}
	for _, e := range entities {
		bySeq[e.Seq] = e
	}
	require.Contains(t, bySeq, uint64(1))
	require.Contains(t, bySeq, uint64(3))
	assert.Equal(t, "gateway", bySeq[1].Attributes["service.name"])
	assert.Equal(t, "billing", bySeq[3].Attributes["service.name"])
}

func TestSealBatch_OpenBatch(t *testing.T) {
	batch := core.NewBatch(1)
	_, err := SealBatch(batch, TagZstd)
	assert.ErrorIs(t, err, ErrBatchOpen)
}

func TestSealBatch_DeterministicID(t *testing.T) {
	build := func() *core.CompressedBatch {
		batch := core.NewBatch(2)
		for _, e := range testEntities() {
			require.NoError(t, batch.Append(e))
		}
		batch.Seal()
		compressed, err := SealBatch(batch, TagZstd)
		require.NoError(t, err)
		return compressed
	}

	assert.Equal(t, build().ID, build().ID,
		"same entity set must produce the same content identifier")
}
