// Package codec defines the stored object format for compressed
// batches: a CBOR-encoded entity payload, compressed as one unit, and
// framed with a declared codec header.
//
// Object byte layout:
//
//	[0]    compression tag (Tag)
//	[1:5]  big-endian uint32 uncompressed payload size
//	[5:]   compressed payload
//
// The codec is always declared in the header and never inferred from
// the payload. Encoding uses CBOR Core Deterministic Encoding so that
// identical entity sets produce identical bytes, which makes the
// content-derived object identifier stable.
package codec
