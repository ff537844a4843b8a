package codec

import "errors"

var (
	// ErrUnknownTag indicates a compression tag this build does not know.
	ErrUnknownTag = errors.New("unknown compression tag")

	// ErrTruncatedObject indicates a stored object shorter than its header.
	ErrTruncatedObject = errors.New("truncated object")

	// ErrCorruptObject indicates a payload that fails decompression or
	// whose size does not match the header declaration.
	ErrCorruptObject = errors.New("corrupt object")

	// ErrEncodeFailed indicates entity serialization failed.
	ErrEncodeFailed = errors.New("payload encoding failed")

	// ErrDecodeFailed indicates entity deserialization failed.
	ErrDecodeFailed = errors.New("payload decoding failed")

	// ErrBatchOpen indicates an attempt to seal-encode a batch that has
	// not been frozen yet.
	ErrBatchOpen = errors.New("batch is still open")

	// errIncompressible is returned internally when compressed output
	// would not be smaller than the input; Compress falls back to TagNone.
	errIncompressible = errors.New("data is incompressible")
)
