// Package core defines the domain model of the trace storage pipeline:
// raw messages as accepted at the ingress boundary, entities enriched
// with extracted metadata, batches accumulated by the assembler, their
// compressed form, and the backend-agnostic object keys they are stored
// under.
//
// Every type here is either immutable after construction or, for Batch,
// mutable only until sealed. Ownership moves strictly forward through
// the pipeline: a raw message is claimed by exactly one extraction
// worker, an entity is folded into exactly one batch, and a batch is
// sealed into exactly one compressed object.
package core
