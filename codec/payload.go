package codec

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/traceloft/traceloft/core"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer encoding,
// no indefinite-length items. The content-derived object ID is computed
// over the encoded payload, so the same entity set must always produce
// identical bytes.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are ignored for forward compatibility.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Keep microsecond precision on entity timestamps; the default
	// integer epoch encoding truncates to whole seconds.
	encOptions.Time = cbor.TimeUnixMicro
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeEntities serializes a sealed batch's entities to the CBOR
// payload that gets compressed and stored.
func EncodeEntities(entities []*core.Entity) ([]byte, error) {
	payload, err := encMode.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return payload, nil
}

// DecodeEntities deserializes a stored payload back into entities.
func DecodeEntities(payload []byte) ([]*core.Entity, error) {
	var entities []*core.Entity
	if err := decMode.Unmarshal(payload, &entities); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return entities, nil
}

// SealBatch encodes and compresses a sealed batch into its stored form.
// The object's identifier is derived from the encoded payload, so a
// batch with the same entities always maps to the same key.
func SealBatch(batch *core.Batch, tag Tag) (*core.CompressedBatch, error) {
	if !batch.Sealed() {
		return nil, ErrBatchOpen
	}

	payload, err := EncodeEntities(batch.Entities())
	if err != nil {
		return nil, err
	}

	object, written, err := Compress(payload, tag)
	if err != nil {
		return nil, err
	}

	return &core.CompressedBatch{
		ID:               core.IDFromContent(payload),
		Codec:            uint8(written),
		Data:             object,
		Count:            batch.Len(),
		UncompressedSize: len(payload),
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// OpenObject reverses SealBatch: it decompresses a stored object and
// decodes the entities it contains.
func OpenObject(object []byte) ([]*core.Entity, Tag, error) {
	payload, tag, err := Decompress(object)
	if err != nil {
		return nil, 0, err
	}
	entities, err := DecodeEntities(payload)
	if err != nil {
		return nil, 0, err
	}
	return entities, tag, nil
}
