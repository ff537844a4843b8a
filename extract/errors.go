package extract

import "errors"

var (
	// ErrMalformedPayload indicates a payload the extractor cannot parse.
	// Extraction failures are deterministic: the message is dropped and
	// counted, never retried.
	ErrMalformedPayload = errors.New("malformed trace payload")
)
