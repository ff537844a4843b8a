package core

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// bucketSegments is the number of path segments in the UTC hour bucket
// (year/month/day/hour).
const bucketSegments = 4

// ParseObjectKey parses the logical path form produced by
// ObjectKey.String. The prefix may itself contain slashes, so the
// bucket and identifier are taken from the right.
func ParseObjectKey(s string) (ObjectKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) < bucketSegments+2 {
		return ObjectKey{}, fmt.Errorf("%w: %q", ErrInvalidObjectKey, s)
	}

	idPart := parts[len(parts)-1]
	raw, err := hex.DecodeString(idPart)
	if err != nil || len(raw) != 8 {
		return ObjectKey{}, fmt.Errorf("%w: bad identifier %q", ErrInvalidObjectKey, idPart)
	}

	bucketParts := parts[len(parts)-1-bucketSegments : len(parts)-1]
	for _, p := range bucketParts {
		if p == "" {
			return ObjectKey{}, fmt.Errorf("%w: empty bucket segment in %q", ErrInvalidObjectKey, s)
		}
	}

	prefixParts := parts[:len(parts)-1-bucketSegments]
	prefix := strings.Join(prefixParts, "/")
	if prefix == "" {
		return ObjectKey{}, fmt.Errorf("%w: empty prefix in %q", ErrInvalidObjectKey, s)
	}

	return ObjectKey{
		Prefix: prefix,
		Bucket: strings.Join(bucketParts, "/"),
		ID:     ID(binary.BigEndian.Uint64(raw)),
	}, nil
}
