package badger

import (
	"encoding/binary"
	"time"

	"github.com/traceloft/traceloft/core"
)

// Key prefixes for different data types
const (
	objectPrefix    = "batobj"
	objectTimeIndex = "batidx"
)

// makeObjectKey generates the value-log key for a stored object.
func makeObjectKey(key core.ObjectKey) []byte {
	return []byte(objectPrefix + ":" + key.String())
}

// makeTimeIndexKey generates a composite key for the creation-time
// index. Format: prefix:timestamp:id, with both fixed-width BigEndian
// so lexicographic sort equals chronological sort.
func makeTimeIndexKey(createdAt time.Time, id core.ID) []byte {
	prefix := objectTimeIndex + ":"
	prefixBytes := []byte(prefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(createdAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
