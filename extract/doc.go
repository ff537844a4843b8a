// Package extract defines the metadata extraction stage: a pure
// transform from one raw trace payload to derived attributes.
//
// Extractors share no mutable state, so the engine runs many instances
// concurrently. The single failure mode is malformed input, which is
// terminal per message: the engine counts and drops, it never retries
// extraction.
package extract
