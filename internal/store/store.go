package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been set or was
// deleted.
var ErrNotFound = errors.New("key not found")

// Store is durable local key/value storage that survives restarts. Values
// are plain strings, the same contract a browser's local storage offers,
// so callers encode booleans and floats themselves.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Keys lists every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)
}
