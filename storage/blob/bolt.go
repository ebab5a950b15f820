package blob

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var boltBucketName = []byte("loo7")

type boltBucket struct {
	db *bbolt.DB
}

var _ Bucket = (*boltBucket)(nil)

// OpenBolt opens (or creates) a bbolt file at path.
func OpenBolt(path string) (Bucket, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt file")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating bolt bucket")
	}
	return &boltBucket{db: db}, nil
}

func (b *boltBucket) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(boltBucketName).Get([]byte(key))
		if v == nil {
			return ErrNotExist
		}
		// v is only valid during the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

func (b *boltBucket) Put(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucketName).Put([]byte(key), value)
	})
}

func (b *boltBucket) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucketName).Delete([]byte(key))
	})
}

func (b *boltBucket) Scan(_ context.Context, prefix string, fn func(key string, value []byte) error) error {
	p := []byte(prefix)
	return b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(boltBucketName).Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			if err := fn(string(k), append([]byte(nil), v...)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *boltBucket) Close() error {
	return b.db.Close()
}
