package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/traceloft/traceloft/codec"
	"github.com/traceloft/traceloft/core"
	"github.com/traceloft/traceloft/extract"
	"github.com/traceloft/traceloft/storage"
)

// Engine owns the ingestion-to-storage pipeline: the bounded raw
// queue, the extraction worker pool, the bounded processed queue, and
// the batch assembler writing through the storage adaptor.
type Engine struct {
	store     storage.ObjectStore
	extractor extract.Extractor

	batchSize        int
	batchTimeout     time.Duration
	poolSize         int
	rawCapacity      int
	processedCap     int
	writeMaxAttempts int
	writeBackoffBase time.Duration
	compression      codec.Tag

	rdq       chan core.RawMessage
	processed chan *core.Entity
	pool      *ants.Pool

	seq      atomic.Uint64
	counters counters

	// admission guards the rdq send against the close in Shutdown:
	// Submit holds the read side, Shutdown the write side.
	admission sync.RWMutex
	closing   bool

	// quit is closed when the drain deadline expires. Workers stop
	// claiming and forwarding, and in-flight storage writes abort, so
	// no entity is ever both abandoned and committed.
	quit        chan struct{}
	flushCtx    context.Context
	flushCancel context.CancelFunc

	workers       sync.WaitGroup
	assemblerDone chan struct{}

	logger *slog.Logger
}

// New wires and starts an engine: workers begin draining immediately.
// The caller owns the store and must close it after Shutdown returns.
func New(store storage.ObjectStore, extractor extract.Extractor, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	e := &Engine{
		store:            store,
		extractor:        extractor,
		batchSize:        defaultBatchSize,
		batchTimeout:     defaultBatchTimeout,
		poolSize:         poolSize,
		rawCapacity:      defaultRawCapacity,
		processedCap:     defaultProcessedCapacity,
		writeMaxAttempts: defaultWriteMaxAttempts,
		writeBackoffBase: defaultWriteBackoffBase,
		compression:      codec.TagZstd,
		quit:             make(chan struct{}),
		assemblerDone:    make(chan struct{}),
		logger:           slog.Default(),
	}
	e.flushCtx, e.flushCancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.logger = e.logger.With("engine_id", uuid.NewString())
	e.rdq = make(chan core.RawMessage, e.rawCapacity)
	e.processed = make(chan *core.Entity, e.processedCap)

	pool, err := ants.NewPool(e.poolSize)
	if err != nil {
		return nil, err
	}
	e.pool = pool

	e.workers.Add(e.poolSize)
	for i := 0; i < e.poolSize; i++ {
		if err := pool.Submit(e.runWorker); err != nil {
			pool.Release()
			return nil, err
		}
	}
	go e.runAssembler()

	e.logger.Info("engine started",
		"pool_size", e.poolSize,
		"batch_size", e.batchSize,
		"batch_timeout", e.batchTimeout,
		"compression", e.compression.String())

	return e, nil
}

// Submit offers one raw payload to the pipeline. It never blocks: a
// full raw queue rejects with ErrBackpressure, an engine past Shutdown
// rejects with ErrShuttingDown. On acceptance the assigned sequence
// number is returned and the message is owned by the pipeline until it
// commits or is counted as lost.
func (e *Engine) Submit(payload []byte) (uint64, error) {
	if len(payload) == 0 {
		return 0, core.ErrEmptyPayload
	}

	e.admission.RLock()
	defer e.admission.RUnlock()

	if e.closing {
		return 0, ErrShuttingDown
	}

	msg := core.RawMessage{
		Seq:        e.seq.Add(1),
		Payload:    payload,
		ReceivedAt: time.Now().UTC(),
	}

	select {
	case e.rdq <- msg:
		e.counters.accepted.Add(1)
		return msg.Seq, nil
	default:
		e.counters.rejected.Add(1)
		return 0, ErrBackpressure
	}
}

// Counters returns a point-in-time snapshot of the pipeline counters.
// It never blocks the writer path.
func (e *Engine) Counters() Counters {
	return e.counters.snapshot(len(e.rdq), len(e.processed))
}

// Shutdown stops admissions, drains both queues to completion, flushes
// any open batch, and returns. If ctx expires first the remaining
// in-flight work is abandoned and counted, and ErrShutdownTimeout is
// returned. Shutdown is idempotent; later calls return ErrShuttingDown.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.admission.Lock()
	if e.closing {
		e.admission.Unlock()
		return ErrShuttingDown
	}
	e.closing = true
	close(e.rdq)
	e.admission.Unlock()

	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(e.processed)
		<-e.assemblerDone
		close(done)
	}()

	select {
	case <-done:
		e.pool.Release()
		e.flushCancel()
		e.logger.Info("engine drained", "counters", e.Counters())
		return nil
	case <-ctx.Done():
		// Deadline expired: stop the pipeline before accounting.
		// Workers stop claiming, the in-flight write aborts, the
		// assembler exits. The leftover raw queue is counted only
		// after everything has stopped, so an entity counted abandoned
		// can never also commit.
		close(e.quit)
		e.flushCancel()
		<-done
		e.pool.Release()

		for range e.rdq {
			e.counters.abandoned.Add(1)
		}

		e.logger.Error("shutdown deadline exceeded, abandoned in-flight work",
			"abandoned", e.counters.abandoned.Load())
		return ErrShutdownTimeout
	}
}

// runWorker is one extraction worker: it drains raw messages, runs the
// extractor, and forwards entities. The send on the processed queue is
// the backpressure point that throttles extraction when the assembler
// is slow downstream.
func (e *Engine) runWorker() {
	defer e.workers.Done()

	for {
		var msg core.RawMessage
		var ok bool
		select {
		case <-e.quit:
			return
		case msg, ok = <-e.rdq:
			if !ok {
				return
			}
		}

		attrs, err := e.extractor.Extract(msg.Payload)
		if err != nil {
			// Malformed input is deterministic: count and drop.
			e.counters.extractionFailures.Add(1)
			e.logger.Debug("extraction failed, message dropped",
				"seq", msg.Seq, "err", err)
			continue
		}

		entity := &core.Entity{
			Seq:         msg.Seq,
			Payload:     msg.Payload,
			Attributes:  attrs,
			ReceivedAt:  msg.ReceivedAt,
			ProcessedAt: time.Now().UTC(),
		}

		select {
		case e.processed <- entity:
		case <-e.quit:
			// The claimed entity cannot be re-queued once the deadline
			// fires; count it so the conservation law still holds.
			e.counters.abandoned.Add(1)
			return
		}
	}
}
