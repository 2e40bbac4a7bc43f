// Package backend defines the client surface of the hosted backend: keyed
// record storage with ordered child queries, push-generated keys, realtime
// subscriptions, identity management, and blob upload with retrievable URLs.
//
// Flows depend on these interfaces only. main constructs one Client and
// injects it everywhere so components stay testable with a substitute.
package backend

import "context"

// Record is a stored document. Nested blocks (sender, recipient, package,
// completionDetails) are nested Records; ordered sequences are []any.
type Record = map[string]any

// KeyedRecord pairs a record with its storage key. Query results and
// subscription snapshots preserve push-key order.
type KeyedRecord struct {
	Key    string
	Record Record
}

// Query filters a collection on equality of one ordered child field.
type Query struct {
	OrderBy string
	Equals  any
	Limit   int
}

// Matches reports whether a record satisfies the query filter.
func (q Query) Matches(rec Record) bool {
	if q.OrderBy == "" {
		return true
	}
	return rec[q.OrderBy] == q.Equals
}

// Detach stops future callback delivery for a subscription or identity
// listener. Cancellation is cooperative: requests already in flight still
// complete, only delivery stops.
type Detach func()

// Identity is the authenticated principal as reported by the backend's auth
// service. Anonymous identities are created for unauthenticated kiosk writes.
type Identity struct {
	UID       string
	Email     string
	Anonymous bool
}

// Database is the keyed record store. Paths are "collection" or
// "collection/key".
type Database interface {
	// Get returns the record at path, or sentinel.ErrNotFound when absent.
	Get(ctx context.Context, path string) (Record, error)
	// Set writes the full record at path.
	Set(ctx context.Context, path string, rec Record) error
	// Update merges top-level fields of partial into the record at path.
	// A missing record is ErrNotFound, never an upsert; a nil field value
	// deletes that field.
	Update(ctx context.Context, path string, partial Record) error
	// Push reserves a new child key under path without writing data.
	Push(ctx context.Context, path string) (string, error)
	// QueryOnce runs a one-shot filtered read over a collection.
	QueryOnce(ctx context.Context, path string, q Query) ([]KeyedRecord, error)
	// Subscribe delivers the current matching snapshot immediately and a
	// fresh full snapshot after every matching mutation, in order. onError
	// receives subscription failures; the subscription itself owns
	// reconnection. Detach must not race a delivery into a torn-down
	// consumer: after Detach returns no further callbacks run.
	Subscribe(path string, q Query, onSnapshot func([]KeyedRecord), onError func(error)) (Detach, error)
}

// Auth is the identity service surface the flows require.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignInAnonymously(ctx context.Context) (Identity, error)
	SignOut(ctx context.Context) error
	// CurrentIdentity reports the active identity, if any.
	CurrentIdentity() (Identity, bool)
	// OnIdentityChange delivers the current identity immediately and again
	// on every change; nil means signed out.
	OnIdentityChange(cb func(*Identity)) Detach
}

// BlobStore holds uploaded binary payloads (signatures, report photos).
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	// URL returns a retrievable URL for a previously uploaded blob.
	URL(ctx context.Context, path string) (string, error)
}

// Client aggregates the three backend services behind one handle. One
// initialized connection is shared by all flows.
type Client struct {
	Auth  Auth
	DB    Database
	Blobs BlobStore
}
