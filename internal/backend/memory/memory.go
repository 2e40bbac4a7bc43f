// Package memory provides in-process implementations of the backend
// interfaces. They keep the flows testable without wiring Redis and favor
// clarity over performance, matching the expected record volume.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lord-william/lalalika-logistics/internal/backend"
	"github.com/lord-william/lalalika-logistics/pkg/platform/sentinel"
)

// Database is a realtime in-memory record store. Every mutation under a
// collection re-delivers the full matching snapshot to that collection's
// subscribers, preserving the backend's full-replace subscription contract.
//
// Snapshot callbacks must not mutate the store synchronously; dispatch is
// serialized per subscription and a re-entrant write would deadlock.
type Database struct {
	mu   sync.RWMutex
	data map[string]map[string]backend.Record
	subs map[string]map[int64]*subscription
	next int64
}

type subscription struct {
	mu         sync.Mutex
	closed     bool
	query      backend.Query
	collection string
	onSnapshot func([]backend.KeyedRecord)
	onError    func(error)
}

func NewDatabase() *Database {
	return &Database{
		data: make(map[string]map[string]backend.Record),
		subs: make(map[string]map[int64]*subscription),
	}
}

// recordPath splits a record path into its parent collection and child key.
// Collections may nest ("tracking/<shipmentID>"); the key is always the last
// segment.
func recordPath(path string) (collection, key string, err error) {
	trimmed := strings.Trim(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx <= 0 || idx == len(trimmed)-1 {
		return "", "", fmt.Errorf("path %q: expected collection/key", path)
	}
	return trimmed[:idx], trimmed[idx+1:], nil
}

// collectionPath validates a path used as a whole collection.
func collectionPath(path string) (string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", fmt.Errorf("empty path")
	}
	return trimmed, nil
}

// pushKey produces a chronologically ordered unique child key so push-key
// order doubles as insertion order, like the hosted backend's keys.
func pushKey() string {
	return fmt.Sprintf("pk%020d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}

func cloneRecord(rec backend.Record) backend.Record {
	if rec == nil {
		return nil
	}
	out := make(backend.Record, len(rec))
	for k, v := range rec {
		switch val := v.(type) {
		case backend.Record:
			out[k] = cloneRecord(val)
		case []any:
			items := make([]any, len(val))
			for i, item := range val {
				if m, ok := item.(backend.Record); ok {
					items[i] = cloneRecord(m)
				} else {
					items[i] = item
				}
			}
			out[k] = items
		default:
			out[k] = v
		}
	}
	return out
}

func (d *Database) Get(_ context.Context, path string) (backend.Record, error) {
	collection, key, err := recordPath(path)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.data[collection][key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (d *Database) Set(_ context.Context, path string, rec backend.Record) error {
	collection, key, err := recordPath(path)
	if err != nil {
		return err
	}
	d.mu.Lock()
	if d.data[collection] == nil {
		d.data[collection] = make(map[string]backend.Record)
	}
	d.data[collection][key] = cloneRecord(rec)
	d.mu.Unlock()
	d.notify(collection)
	return nil
}

func (d *Database) Update(_ context.Context, path string, partial backend.Record) error {
	collection, key, err := recordPath(path)
	if err != nil {
		return err
	}
	d.mu.Lock()
	current, ok := d.data[collection][key]
	if !ok {
		d.mu.Unlock()
		return sentinel.ErrNotFound
	}
	for k, v := range cloneRecord(partial) {
		if v == nil {
			delete(current, k)
			continue
		}
		current[k] = v
	}
	d.mu.Unlock()
	d.notify(collection)
	return nil
}

func (d *Database) Push(_ context.Context, path string) (string, error) {
	if _, err := collectionPath(path); err != nil {
		return "", err
	}
	return pushKey(), nil
}

func (d *Database) QueryOnce(_ context.Context, path string, q backend.Query) ([]backend.KeyedRecord, error) {
	collection, err := collectionPath(path)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked(collection, q), nil
}

func (d *Database) snapshotLocked(collection string, q backend.Query) []backend.KeyedRecord {
	var out []backend.KeyedRecord
	for key, rec := range d.data[collection] {
		if q.Matches(rec) {
			out = append(out, backend.KeyedRecord{Key: key, Record: cloneRecord(rec)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (d *Database) Subscribe(path string, q backend.Query, onSnapshot func([]backend.KeyedRecord), onError func(error)) (backend.Detach, error) {
	collection, err := collectionPath(path)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		query:      q,
		collection: collection,
		onSnapshot: onSnapshot,
		onError:    onError,
	}

	d.mu.Lock()
	d.next++
	id := d.next
	if d.subs[collection] == nil {
		d.subs[collection] = make(map[int64]*subscription)
	}
	d.subs[collection][id] = sub
	d.mu.Unlock()

	// Initial snapshot, matching the hosted backend's immediate first push.
	d.deliver(sub)

	detach := func() {
		sub.mu.Lock()
		sub.closed = true
		sub.mu.Unlock()
		d.mu.Lock()
		delete(d.subs[collection], id)
		d.mu.Unlock()
	}
	return detach, nil
}

// deliver recomputes the snapshot under the subscription lock so a consumer
// never observes an older snapshot after a newer one, and never after detach.
func (d *Database) deliver(sub *subscription) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	d.mu.RLock()
	snap := d.snapshotLocked(sub.collection, sub.query)
	d.mu.RUnlock()
	sub.onSnapshot(snap)
}

func (d *Database) notify(collection string) {
	d.mu.RLock()
	targets := make([]*subscription, 0, len(d.subs[collection]))
	for _, sub := range d.subs[collection] {
		targets = append(targets, sub)
	}
	d.mu.RUnlock()
	for _, sub := range targets {
		d.deliver(sub)
	}
}

// Auth is an in-memory identity service. Accounts are seeded by tests or by
// the dev entry point; the hosted auth service owns real credentials.
type Auth struct {
	mu        sync.Mutex
	accounts  map[string]account
	current   *backend.Identity
	listeners map[int64]*identityListener
	next      int64
}

type account struct {
	uid      string
	password string
}

type identityListener struct {
	closed atomic.Bool
	fn     func(*backend.Identity)
}

func NewAuth() *Auth {
	return &Auth{
		accounts:  make(map[string]account),
		listeners: make(map[int64]*identityListener),
	}
}

// RegisterAccount seeds a credential pair. The uid links the identity to its
// profile record at users/<uid>.
func (a *Auth) RegisterAccount(email, password, uid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accounts[email] = account{uid: uid, password: password}
}

func (a *Auth) SignIn(_ context.Context, email, password string) (backend.Identity, error) {
	a.mu.Lock()
	acct, ok := a.accounts[email]
	if !ok || acct.password != password {
		a.mu.Unlock()
		return backend.Identity{}, sentinel.ErrNotFound
	}
	ident := backend.Identity{UID: acct.uid, Email: email}
	a.current = &ident
	targets := a.snapshotListenersLocked()
	a.mu.Unlock()
	a.fanout(targets, &ident)
	return ident, nil
}

func (a *Auth) SignInAnonymously(_ context.Context) (backend.Identity, error) {
	a.mu.Lock()
	if a.current != nil {
		ident := *a.current
		a.mu.Unlock()
		return ident, nil
	}
	ident := backend.Identity{UID: "anon-" + uuid.NewString(), Anonymous: true}
	a.current = &ident
	targets := a.snapshotListenersLocked()
	a.mu.Unlock()
	a.fanout(targets, &ident)
	return ident, nil
}

func (a *Auth) SignOut(_ context.Context) error {
	a.mu.Lock()
	a.current = nil
	targets := a.snapshotListenersLocked()
	a.mu.Unlock()
	a.fanout(targets, nil)
	return nil
}

func (a *Auth) CurrentIdentity() (backend.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return backend.Identity{}, false
	}
	return *a.current, true
}

func (a *Auth) OnIdentityChange(cb func(*backend.Identity)) backend.Detach {
	lst := &identityListener{fn: cb}
	a.mu.Lock()
	a.next++
	id := a.next
	a.listeners[id] = lst
	current := a.current
	a.mu.Unlock()

	// Immediate delivery of the current state, like the hosted stream.
	var snapshot *backend.Identity
	if current != nil {
		c := *current
		snapshot = &c
	}
	lst.fn(snapshot)

	return func() {
		lst.closed.Store(true)
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Auth) snapshotListenersLocked() []*identityListener {
	out := make([]*identityListener, 0, len(a.listeners))
	for _, lst := range a.listeners {
		out = append(out, lst)
	}
	return out
}

// fanout runs outside the auth mutex so a listener may call SignOut without
// deadlocking; the session gate does exactly that on authorization failure.
func (a *Auth) fanout(targets []*identityListener, ident *backend.Identity) {
	for _, lst := range targets {
		if lst.closed.Load() {
			continue
		}
		if ident == nil {
			lst.fn(nil)
			continue
		}
		c := *ident
		lst.fn(&c)
	}
}

// BlobStore keeps uploaded payloads in memory and serves stable pseudo-URLs.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

func (b *BlobStore) Upload(_ context.Context, path string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	b.blobs[path] = cp
	return nil
}

func (b *BlobStore) URL(_ context.Context, path string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if _, ok := b.blobs[path]; !ok {
		return "", sentinel.ErrNotFound
	}
	return "memory://" + path, nil
}

// NewClient bundles fresh in-memory services into one backend handle.
func NewClient() *backend.Client {
	return &backend.Client{
		Auth:  NewAuth(),
		DB:    NewDatabase(),
		Blobs: NewBlobStore(),
	}
}
