package extract

import (
	"github.com/traceloft/traceloft/core"
)

// Extractor derives metadata attributes from one raw trace payload.
//
// Implementations must be pure: no shared mutable state, safe to call
// from many workers concurrently. Extraction has exactly one failure
// mode, malformed input, which is terminal per message and never
// retried.
type Extractor interface {
	Extract(payload []byte) (core.Metadata, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(payload []byte) (core.Metadata, error)

// Extract calls f.
func (f Func) Extract(payload []byte) (core.Metadata, error) {
	return f(payload)
}
