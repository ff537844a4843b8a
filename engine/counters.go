package engine

import (
	"sync/atomic"
	"time"
)

// counters is the engine-owned mutable counter set. Each stage updates
// only the counters for events it produces; readers get consistent
// point-in-time values through snapshot.
type counters struct {
	accepted           atomic.Uint64
	rejected           atomic.Uint64
	extractionFailures atomic.Uint64
	batchesCommitted   atomic.Uint64
	batchesFailed      atomic.Uint64
	entitiesCommitted  atomic.Uint64
	entitiesLost       atomic.Uint64
	bytesWritten       atomic.Uint64
	writeRetries       atomic.Uint64
	abandoned          atomic.Uint64

	// openBatchSince is the UnixNano of the open batch's first entity,
	// 0 while no batch is open.
	openBatchSince atomic.Int64
}

func (c *counters) noteBatchOpened(firstEntityAt time.Time) {
	c.openBatchSince.Store(firstEntityAt.UnixNano())
}

func (c *counters) noteBatchClosed() {
	c.openBatchSince.Store(0)
}

// Counters is a read-only snapshot of the pipeline state, produced for
// the health monitoring boundary.
type Counters struct {
	RawQueueDepth       int           `json:"raw_queue_depth"`
	ProcessedQueueDepth int           `json:"processed_queue_depth"`
	Accepted            uint64        `json:"accepted"`
	Rejected            uint64        `json:"rejected"`
	ExtractionFailures  uint64        `json:"extraction_failures"`
	BatchesCommitted    uint64        `json:"batches_committed"`
	BatchesFailed       uint64        `json:"batches_failed"`
	EntitiesCommitted   uint64        `json:"entities_committed"`
	EntitiesLost        uint64        `json:"entities_lost"`
	BytesWritten        uint64        `json:"bytes_written"`
	WriteRetries        uint64        `json:"write_retries"`
	AbandonedOnShutdown uint64        `json:"abandoned_on_shutdown"`
	OldestOpenBatchAge  time.Duration `json:"oldest_open_batch_age_ns"`
}

func (c *counters) snapshot(rawDepth, processedDepth int) Counters {
	var age time.Duration
	if since := c.openBatchSince.Load(); since != 0 {
		age = time.Duration(time.Now().UnixNano() - since)
	}

	return Counters{
		RawQueueDepth:       rawDepth,
		ProcessedQueueDepth: processedDepth,
		Accepted:            c.accepted.Load(),
		Rejected:            c.rejected.Load(),
		ExtractionFailures:  c.extractionFailures.Load(),
		BatchesCommitted:    c.batchesCommitted.Load(),
		BatchesFailed:       c.batchesFailed.Load(),
		EntitiesCommitted:   c.entitiesCommitted.Load(),
		EntitiesLost:        c.entitiesLost.Load(),
		BytesWritten:        c.bytesWritten.Load(),
		WriteRetries:        c.writeRetries.Load(),
		AbandonedOnShutdown: c.abandoned.Load(),
		OldestOpenBatchAge:  age,
	}
}
