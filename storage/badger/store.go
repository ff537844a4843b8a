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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"

	"github.com/traceloft/traceloft/core"
	"github.com/traceloft/traceloft/storage"
)

// Store implements storage.ObjectStore on a local BadgerDB instance.
type Store struct {
	backend *backend
	prefix  string
}

var _ storage.ObjectStore = (*Store)(nil)

// objectMeta is the time-index value: enough to serve List without
// touching the object blob.
type objectMeta struct {
	Key       string    `cbor:"key"`
	Size      int64     `cbor:"size"`
	Codec     uint8     `cbor:"codec"`
	Count     int       `cbor:"count"`
	CreatedAt time.Time `cbor:"created_at"`
}

// Open opens (or creates) a badger-backed object store rooted at
// filePath. Objects are keyed under the given logical prefix.
func Open(filePath, prefix string) (storage.ObjectStore, error) {
	backend, err := openBackend(filePath, false)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, prefix: prefix}, nil
}

// OpenMemory creates an in-memory object store. Intended for tests.
func OpenMemory(prefix string) (storage.ObjectStore, error) {
	backend, err := openBackend("", true)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, prefix: prefix}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.close()
}

// Write stores the object blob and its time-index entry in one
// transaction, so a reader either sees the whole object or nothing.
func (s *Store) Write(ctx context.Context, batch *core.CompressedBatch) (core.ObjectKey, error) {
	key := core.MakeObjectKey(s.prefix, batch.CreatedAt, batch.ID)

	meta := objectMeta{
		Key:       key.String(),
		Size:      int64(len(batch.Data)),
		Codec:     batch.Codec,
		Count:     batch.Count,
		CreatedAt: batch.CreatedAt,
	}
	metaBytes, err := cbor.Marshal(meta)
	if err != nil {
		return core.ObjectKey{}, storage.TerminalWrite(err)
	}

	err = s.backend.withTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeObjectKey(key), batch.Data); err != nil {
			return err
		}
		if err := tx.Set(makeTimeIndexKey(batch.CreatedAt, batch.ID), metaBytes); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return core.ObjectKey{}, classifyWrite(err)
	}

	return key, nil
}

// Read returns the stored object bytes, optionally narrowed to a range.
func (s *Store) Read(ctx context.Context, key core.ObjectKey, rng *storage.ByteRange) ([]byte, error) {
	var data []byte
	err := s.backend.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeObjectKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrObjectNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	return sliceRange(data, rng)
}

// List walks the time index in reverse, newest objects first.
func (s *Store) List(ctx context.Context, limit int) ([]storage.ObjectInfo, error) {
	if limit <= 0 {
		return nil, nil
	}

	var infos []storage.ObjectInfo
	err := s.backend.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(objectTimeIndex + ":")
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Reverse iteration needs a seek key past the whole prefix.
		seek := append([]byte(objectTimeIndex+":"), 0xff)

		for iter.Seek(seek); iter.Valid() && len(infos) < limit; iter.Next() {
			var meta objectMeta
			err := iter.Item().Value(func(val []byte) error {
				return cbor.Unmarshal(val, &meta)
			})
			if err != nil {
				return err
			}

			key, err := core.ParseObjectKey(meta.Key)
			if err != nil {
				return err
			}
			infos = append(infos, storage.ObjectInfo{
				Key:       key,
				Size:      meta.Size,
				Codec:     meta.Codec,
				Count:     meta.Count,
				CreatedAt: meta.CreatedAt,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return infos, nil
}

// classifyWrite maps badger errors onto the storage taxonomy. Conflicts
// and stalled writes resolve on retry; everything else on a local store
// is terminal.
func classifyWrite(err error) error {
	if errors.Is(err, badger.ErrConflict) || errors.Is(err, badger.ErrBlockedWrites) {
		return storage.RetryableWrite(err)
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return storage.TerminalWrite(storage.ErrStoreClosed)
	}
	return storage.TerminalWrite(err)
}

// sliceRange applies an optional byte range to a whole object.
func sliceRange(data []byte, rng *storage.ByteRange) ([]byte, error) {
	if rng == nil {
		return data, nil
	}
	if rng.Offset < 0 || rng.Length < 0 || rng.Offset+rng.Length > int64(len(data)) {
		return nil, storage.ErrInvalidRange
	}
	return data[rng.Offset : rng.Offset+rng.Length], nil
}
