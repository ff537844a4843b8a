// Package engine orchestrates the ingestion-to-storage pipeline.
//
// The shape is two bounded channels with a fixed worker pool between
// them: ingress submits raw messages onto the raw queue, N extraction
// workers drain it concurrently and forward enriched entities onto the
// processed queue, and a single assembler folds entities into one open
// batch at a time, sealing on a size or time threshold and writing the
// compressed result through the storage adaptor with bounded backoff.
//
// Admission control lives in Submit: it never blocks, rejecting
// immediately when the raw queue is full. Backpressure from slow
// storage propagates upstream through the processed queue: workers
// block on their send, stop draining, the raw queue fills, and Submit
// starts rejecting.
//
// Workers may finish out of order; entities carry their original
// sequence number so ordering is recoverable downstream, never
// guaranteed in-queue.
//
// Every accepted message is accounted for: it ends in exactly one of a
// committed batch, the extraction-failure counter, the lost-entity
// counter, or the shutdown-abandonment counter. Loss is observable,
// never silent.
package engine
