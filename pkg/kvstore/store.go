// Package kvstore provides whole-document key-value storage backends.
//
// Every collection in the application lives under a single key as one JSON
// document; backends only ever read or replace complete values.
package kvstore

import "context"

// Store is an asynchronous string key-value store.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by backends holding external resources.
type Closer interface {
	Close() error
}
