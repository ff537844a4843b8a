// Copyright 2026 Traceloft Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package engine

import (
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/traceloft/traceloft/codec"
	"github.com/traceloft/traceloft/core"
	"github.com/traceloft/traceloft/storage"
)

// runAssembler is the single batch assembler: it accumulates processed
// entities into exactly one open batch at a time, seals on whichever of
// the size or time threshold fires first, and hands the compressed
// result to the storage adaptor.
func (e *Engine) runAssembler() {
	defer close(e.assemblerDone)

	var batch *core.Batch
	var timer *time.Timer

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}

	for {
		if batch == nil {
			// Empty: block until the first entity arrives.
			entity, ok := <-e.processed
			if !ok {
				return
			}
			batch = core.NewBatch(e.batchSize)
			_ = batch.Append(entity)
			e.counters.noteBatchOpened(batch.FirstEntityAt())

			if batch.Len() >= e.batchSize {
				e.flush(batch)
				batch = nil
				continue
			}
			timer = time.NewTimer(e.batchTimeout)
			continue
		}

		select {
		case entity, ok := <-e.processed:
			if !ok {
				// Shutdown drain: flush whatever is open.
				stopTimer()
				e.flush(batch)
				return
			}
			_ = batch.Append(entity)
			if batch.Len() >= e.batchSize {
				stopTimer()
				e.flush(batch)
				batch = nil
			}

		case <-timer.C:
			timer = nil
			e.flush(batch)
			batch = nil
		}
	}
}

// flush seals, compresses, and writes one batch, then updates the
// counters. Retryable write failures back off exponentially up to the
// configured attempt cap; terminal failures and cap exhaustion drop the
// batch with an explicit loss record. This is the documented
// at-least-once boundary.
func (e *Engine) flush(batch *core.Batch) {
	defer e.counters.noteBatchClosed()

	batch.Seal()

	compressed, err := codec.SealBatch(batch, e.compression)
	if err != nil {
		// Encoding is deterministic; retrying cannot help.
		e.counters.batchesFailed.Add(1)
		e.counters.entitiesLost.Add(uint64(batch.Len()))
		e.logger.Error("batch encoding failed, batch dropped",
			"entities", batch.Len(), "err", err)
		return
	}

	var key core.ObjectKey
	attempts := 0
	err = retry.New(
		retry.Context(e.flushCtx),
		retry.Attempts(uint(e.writeMaxAttempts)),
		retry.Delay(e.writeBackoffBase),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(storage.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			e.counters.writeRetries.Add(1)
			e.logger.Warn("batch write failed, backing off",
				"batch_id", compressed.ID.Hex(), "attempt", n+1, "err", err)
		}),
		retry.LastErrorOnly(true),
	).Do(func() error {
		attempts++
		written, werr := e.store.Write(e.flushCtx, compressed)
		if werr != nil {
			return werr
		}
		key = written
		return nil
	})
	if err != nil {
		e.counters.batchesFailed.Add(1)
		e.counters.entitiesLost.Add(uint64(compressed.Count))
		// Structured failure record for out-of-band recovery.
		e.logger.Error("batch write failed terminally, batch dropped",
			"batch_id", compressed.ID.Hex(),
			"entities", compressed.Count,
			"bytes", len(compressed.Data),
			"codec", codec.Tag(compressed.Codec).String(),
			"attempts", attempts,
			"err", err)
		return
	}

	e.counters.batchesCommitted.Add(1)
	e.counters.entitiesCommitted.Add(uint64(compressed.Count))
	e.counters.bytesWritten.Add(uint64(len(compressed.Data)))
	e.logger.Info("batch committed",
		"key", key.String(),
		"entities", compressed.Count,
		"bytes", len(compressed.Data),
		"attempts", attempts)
}
