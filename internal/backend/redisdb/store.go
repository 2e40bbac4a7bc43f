// Package redisdb is the Redis-backed implementation of the backend record
// store and blob store. Each collection lives in one hash keyed by record
// key, and every mutation publishes the collection name on a pub/sub channel
// so subscribers can re-read and deliver a fresh snapshot.
//
// This is the production-recommended implementation for deployments where
// multiple instances need to observe the same shipment and report state.
package redisdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/pkg/platform/sentinel"
)

const (
	hashKeyPrefix = "llk:coll:"
	changeChannel = "llk:changes:"
	blobKeyPrefix = "llk:blob:"
)

// Database stores records in Redis hashes, one hash per collection.
type Database struct {
	client *redis.Client
}

// NewDatabase constructs a Redis-backed record store. The client lifecycle
// is managed externally.
func NewDatabase(client *redis.Client) *Database {
	return &Database{client: client}
}

// recordPath splits "collection/key" at the last separator so nested
// collections such as "tracking/<shipmentID>" resolve correctly.
func recordPath(path string) (collection, key string, err error) {
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("invalid record path %q", path)
	}
	return path[:i], path[i+1:], nil
}

func pushKey() string {
	return fmt.Sprintf("pk%020d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

func (d *Database) Get(ctx context.Context, path string) (backend.Record, error) {
	collection, key, err := recordPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := d.client.HGet(ctx, hashKeyPrefix+collection, key).Result()
	if err == redis.Nil {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", path, err)
	}
	return decodeRecord(raw)
}

func (d *Database) Set(ctx context.Context, path string, rec backend.Record) error {
	collection, key, err := recordPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", path, err)
	}
	if err := d.client.HSet(ctx, hashKeyPrefix+collection, key, raw).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", path, err)
	}
	return d.notify(ctx, collection)
}

// Update merges top-level fields into the stored record. The read-merge-write
// runs inside a WATCH transaction so concurrent updates to the same record
// retry instead of clobbering each other.
func (d *Database) Update(ctx context.Context, path string, partial backend.Record) error {
	collection, key, err := recordPath(path)
	if err != nil {
		return err
	}
	hashKey := hashKeyPrefix + collection

	txn := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, hashKey, key).Result()
		if err == redis.Nil {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return err
		}
		rec, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		for k, v := range partial {
			if v == nil {
				delete(rec, k)
				continue
			}
			rec[k] = v
		}
		merged, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hashKey, key, merged)
			return nil
		})
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := d.client.Watch(ctx, txn, hashKey)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return fmt.Errorf("redis update %s: %w", path, err)
		}
		return d.notify(ctx, collection)
	}
	return fmt.Errorf("redis update %s: too many conflicts", path)
}

// Push reserves a chronologically sortable child key without writing data.
func (d *Database) Push(ctx context.Context, path string) (string, error) {
	return pushKey(), nil
}

func (d *Database) QueryOnce(ctx context.Context, path string, q backend.Query) ([]backend.KeyedRecord, error) {
	return d.snapshot(ctx, path, q)
}

func (d *Database) snapshot(ctx context.Context, collection string, q backend.Query) ([]backend.KeyedRecord, error) {
	raw, err := d.client.HGetAll(ctx, hashKeyPrefix+collection).Result()
	if err != nil {
		return nil, fmt.Errorf("redis query %s: %w", collection, err)
	}
	out := make([]backend.KeyedRecord, 0, len(raw))
	for key, encoded := range raw {
		rec, err := decodeRecord(encoded)
		if err != nil {
			return nil, err
		}
		if !q.Matches(rec) {
			continue
		}
		out = append(out, backend.KeyedRecord{Key: key, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Subscribe delivers the current snapshot, then re-reads the collection after
// every published change. Deliveries are serialized under a per-subscription
// mutex; after Detach returns no further callbacks run.
func (d *Database) Subscribe(path string, q backend.Query, onSnapshot func([]backend.KeyedRecord), onError func(error)) (backend.Detach, error) {
	ctx, cancel := context.WithCancel(context.Background())
	pubsub := d.client.Subscribe(ctx, changeChannel+path)

	// Confirm the subscription before the initial read so no change between
	// snapshot and subscribe is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", path, err)
	}

	var mu sync.Mutex
	detached := false

	deliver := func() {
		mu.Lock()
		defer mu.Unlock()
		if detached {
			return
		}
		snap, err := d.snapshot(ctx, path, q)
		if err != nil {
			if ctx.Err() == nil && onError != nil {
				onError(err)
			}
			return
		}
		onSnapshot(snap)
	}

	deliver()

	ch := pubsub.Channel()
	go func() {
		for range ch {
			deliver()
		}
	}()

	return func() {
		mu.Lock()
		detached = true
		mu.Unlock()
		cancel()
		_ = pubsub.Close()
	}, nil
}

func (d *Database) notify(ctx context.Context, collection string) error {
	if err := d.client.Publish(ctx, changeChannel+collection, "changed").Err(); err != nil {
		return fmt.Errorf("redis notify %s: %w", collection, err)
	}
	return nil
}

func decodeRecord(raw string) (backend.Record, error) {
	var rec backend.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// BlobStore keeps uploaded payloads in plain Redis keys. URLs are formed by
// joining a configured base URL with the blob path; the HTTP layer serving
// blobs is expected to read the same keys.
type BlobStore struct {
	client  *redis.Client
	baseURL string
}

func NewBlobStore(client *redis.Client, baseURL string) *BlobStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &BlobStore{client: client, baseURL: baseURL}
}

func (b *BlobStore) Upload(ctx context.Context, path string, data []byte, contentType string) error {
	pipe := b.client.Pipeline()
	pipe.Set(ctx, blobKeyPrefix+path, data, 0)
	pipe.Set(ctx, blobKeyPrefix+path+":content-type", contentType, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis blob upload %s: %w", path, err)
	}
	return nil
}

func (b *BlobStore) URL(ctx context.Context, path string) (string, error) {
	exists, err := b.client.Exists(ctx, blobKeyPrefix+path).Result()
	if err != nil {
		return "", fmt.Errorf("redis blob url %s: %w", path, err)
	}
	if exists == 0 {
		return "", sentinel.ErrNotFound
	}
	return b.baseURL + path, nil
}
