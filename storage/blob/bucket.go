// Package blob stores records as JSON documents in a key/value bucket.
// Two buckets are provided: a local bbolt file and a Backblaze B2 bucket.
package blob

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotExist is returned by Bucket.Get for missing keys.
var ErrNotExist = errors.New("blob: key does not exist")

// Bucket is a flat key/value namespace.
type Bucket interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Scan calls fn for every key starting with prefix, in key order.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error
	Close() error
}
