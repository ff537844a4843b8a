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


package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/traceloft/traceloft/core"
	"github.com/traceloft/traceloft/storage"
)

// Config holds construction-time backend settings. Credentials go in
// the URI; the store holds no per-call mutable state beyond the
// driver's connection pool.
type Config struct {
	URI        string
	Database   string
	Collection string
	Prefix     string
}

// Store implements storage.ObjectStore on a MongoDB collection, one
// document per stored object.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	prefix     string
}

var _ storage.ObjectStore = (*Store)(nil)

// objectDoc is the stored shape of one compressed batch. The logical
// path string is the document ID, so writes are idempotent upserts.
type objectDoc struct {
	Key              string    `bson:"_id"`
	Data             []byte    `bson:"data"`
	Size             int64     `bson:"size"`
	Codec            uint8     `bson:"codec"`
	Count            int       `bson:"count"`
	UncompressedSize int       `bson:"uncompressed_size"`
	CreatedAt        time.Time `bson:"created_at"`
}

// New connects to MongoDB and verifies the connection with a ping.
func New(ctx context.Context, cfg Config) (storage.ObjectStore, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo: URI is required")
	}
	if cfg.Database == "" || cfg.Collection == "" {
		return nil, errors.New("mongo: database and collection are required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		prefix:     cfg.Prefix,
	}, nil
}

// Close disconnects the driver.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Write upserts the object document keyed by its logical path. A
// replace of the full document is atomic on the server, so a concurrent
// reader sees either the whole object or none of it.
func (s *Store) Write(ctx context.Context, batch *core.CompressedBatch) (core.ObjectKey, error) {
	key := core.MakeObjectKey(s.prefix, batch.CreatedAt, batch.ID)

	doc := objectDoc{
		Key:              key.String(),
		Data:             batch.Data,
		Size:             int64(len(batch.Data)),
		Codec:            batch.Codec,
		Count:            batch.Count,
		UncompressedSize: batch.UncompressedSize,
		CreatedAt:        batch.CreatedAt,
	}

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": doc.Key}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return core.ObjectKey{}, classifyWrite(err)
	}

	return key, nil
}

// Read fetches the object document and applies the optional byte range
// client-side; MongoDB has no sub-document byte addressing.
func (s *Store) Read(ctx context.Context, key core.ObjectKey, rng *storage.ByteRange) ([]byte, error) {
	var doc objectDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrObjectNotFound
		}
		return nil, fmt.Errorf("mongo: read %s: %w", key, err)
	}

	return sliceRange(doc.Data, rng)
}

// List returns the newest objects by creation time. The blob field is
// projected out so listing stays cheap.
func (s *Store) List(ctx context.Context, limit int) ([]storage.ObjectInfo, error) {
	if limit <= 0 {
		return nil, nil
	}

	cursor, err := s.collection.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(limit)).
			SetProjection(bson.M{"data": 0}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list: %w", err)
	}
	defer cursor.Close(ctx)

	var infos []storage.ObjectInfo
	for cursor.Next(ctx) {
		var doc struct {
			Key       string    `bson:"_id"`
			Size      int64     `bson:"size"`
			Codec     uint8     `bson:"codec"`
			Count     int       `bson:"count"`
			CreatedAt time.Time `bson:"created_at"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: list decode: %w", err)
		}

		key, err := core.ParseObjectKey(doc.Key)
		if err != nil {
			return nil, err
		}
		infos = append(infos, storage.ObjectInfo{
			Key:       key,
			Size:      doc.Size,
			Codec:     doc.Codec,
			Count:     doc.Count,
			CreatedAt: doc.CreatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: list: %w", err)
	}

	return infos, nil
}

// classifyWrite maps driver errors onto the storage taxonomy: network
// faults and timeouts resolve on retry, everything else (authorization,
// malformed documents) is terminal.
func classifyWrite(err error) error {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return storage.RetryableWrite(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return storage.RetryableWrite(err)
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
