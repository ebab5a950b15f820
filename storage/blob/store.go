package blob

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
)

// Store wraps a Bucket for the repositories. Writes that must see a consistent
// view (cascades, conditional updates) hold mu, which only covers this process:
// two processes sharing a B2 bucket may still race.
type Store struct {
	mu     sync.Mutex
	bucket Bucket
}

func NewStore(bucket Bucket) *Store {
	return &Store{bucket: bucket}
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

// Ping checks that the bucket answers a read.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.exists(ctx, "health"); err != nil {
		return err
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, v interface{}) error {
	data, err := s.bucket.Get(ctx, key)
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decoding %s", key)
}

func (s *Store) put(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	return errors.Wrapf(s.bucket.Put(ctx, key, data), "storing %s", key)
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.bucket.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case err == ErrNotExist:
		return false, nil
	default:
		return false, errors.Wrapf(err, "reading %s", key)
	}
}

// nextSeq increments and returns the counter name. The caller holds mu.
func (s *Store) nextSeq(ctx context.Context, name string) (uint64, error) {
	var seq uint64
	key := seqKey(name)
	if err := s.get(ctx, key, &seq); err != nil && err != ErrNotExist {
		return 0, err
	}
	seq++
	return seq, s.put(ctx, key, seq)
}

// scan decodes every record under prefix and passes it to fn.
func scan[T any](ctx context.Context, s *Store, prefix string, fn func(rec T) error) error {
	return s.bucket.Scan(ctx, prefix, func(key string, value []byte) error {
		var rec T
		if err := json.Unmarshal(value, &rec); err != nil {
			return errors.Wrapf(err, "decoding %s", key)
		}
		return fn(rec)
	})
}

func seqKey(name string) string            { return "seq:" + name }
func sheikhKey(id string) string           { return "sheikh:" + id }
func studentPrefix(ownerID string) string  { return "student:" + ownerID + ":" }
func studentKey(ownerID, id string) string { return studentPrefix(ownerID) + id }
func loo7Prefix(ownerID string) string     { return "loo7:" + ownerID + ":" }
func loo7Key(ownerID, id string) string    { return loo7Prefix(ownerID) + id }
