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


package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies the compression algorithm of a stored object. The tag
// is written into the object header (1 byte). These values are wire
// constants; changing them breaks compatibility with written objects.
type Tag uint8

const (
	// TagNone indicates an uncompressed payload. Selected automatically
	// when compression would not shrink the data.
	TagNone Tag = 0

	// TagLZ4 indicates LZ4 block compression: fast with a moderate
	// ratio, the choice when write latency matters more than storage.
	TagLZ4 Tag = 1

	// TagZstd indicates zstd at the default level. Trace payloads are
	// text-heavy, so this is the default codec.
	TagZstd Tag = 2
)

// String returns the human-readable name of a tag.
func (t Tag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagLZ4:
		return "lz4"
	case TagZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseTag parses a tag from its string representation.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "none":
		return TagNone, nil
	case "lz4":
		return TagLZ4, nil
	case "zstd":
		return TagZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownTag, name)
	}
}

// headerSize is the stored object header: 1-byte tag plus 4-byte
// big-endian uncompressed payload size.
const headerSize = 5

// zstdEncoder and zstdDecoder are reused across calls; both are safe
// for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress compresses an encoded payload with the requested tag and
// frames it as a stored object: header followed by the compressed
// bytes. If the payload does not shrink under the requested codec, the
// object falls back to TagNone; the returned tag is the one actually
// written.
func Compress(payload []byte, tag Tag) ([]byte, Tag, error) {
	var compressed []byte
	var err error

	switch tag {
	case TagNone:
		compressed = payload
	case TagLZ4:
		compressed, err = compressLZ4(payload)
	case TagZstd:
		compressed, err = compressZstd(payload)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
	if err != nil {
		if err == errIncompressible {
			compressed = payload
			tag = TagNone
		} else {
			return nil, 0, err
		}
	}

	object := make([]byte, headerSize+len(compressed))
	object[0] = byte(tag)
	binary.BigEndian.PutUint32(object[1:headerSize], uint32(len(payload)))
	copy(object[headerSize:], compressed)
	return object, tag, nil
}

// Decompress parses a stored object and returns the original encoded
// payload. The codec is taken from the declared header tag, never
// inferred from the payload bytes.
func Decompress(object []byte) ([]byte, Tag, error) {
	if len(object) < headerSize {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrTruncatedObject, len(object))
	}

	tag := Tag(object[0])
	size := int(binary.BigEndian.Uint32(object[1:headerSize]))
	body := object[headerSize:]

	switch tag {
	case TagNone:
		if len(body) != size {
			return nil, 0, fmt.Errorf("%w: got %d bytes, header declares %d", ErrCorruptObject, len(body), size)
		}
		return body, tag, nil

	case TagLZ4:
		payload, err := decompressLZ4(body, size)
		return payload, tag, err

	case TagZstd:
		payload, err := decompressZstd(body, size)
		return payload, tag, err

	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
	}
}

// maxExpansionRatio bounds the header-declared uncompressed size
// against the stored body. LZ4 blocks cannot expand beyond 255x by
// format, and batch payloads carry unique sequence numbers and
// timestamps, so anything past this ratio is a corrupt header. The
// check runs before any size-driven allocation.
const maxExpansionRatio = 255

func checkDeclaredSize(uncompressedSize, compressedLen int) error {
	if uncompressedSize < 0 || uncompressedSize > compressedLen*maxExpansionRatio {
		return fmt.Errorf("%w: declared size %d exceeds any expansion of %d stored bytes",
			ErrCorruptObject, uncompressedSize, compressedLen)
	}
	return nil
}

// LZ4 compression: block mode.

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	destination := make([]byte, bound)

	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	// CompressBlock returns 0 when it determines the data is
	// incompressible.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}

	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	if err := checkDeclaredSize(uncompressedSize, len(compressed)); err != nil {
		return nil, err
	}
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptObject, err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("%w: lz4: got %d bytes, header declares %d", ErrCorruptObject, read, uncompressedSize)
	}
	return destination, nil
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	if err := checkDeclaredSize(uncompressedSize, len(compressed)); err != nil {
		return nil, err
	}
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptObject, err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("%w: zstd: got %d bytes, header declares %d", ErrCorruptObject, len(result), uncompressedSize)
	}
	return result, nil
}
