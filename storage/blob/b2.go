package blob

import (
	"bytes"
	"context"
	"io"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"
)

type b2Bucket struct {
	bucket *b2.Bucket
}

var _ Bucket = (*b2Bucket)(nil)

// OpenB2 connects to a Backblaze B2 bucket. Each key is stored as one object.
func OpenB2(ctx context.Context, accountID, appKey, bucketName string) (Bucket, error) {
	client, err := b2.NewClient(ctx, accountID, appKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "getting b2 bucket")
	}
	return &b2Bucket{bucket: bucket}, nil
}

func (b *b2Bucket) Get(ctx context.Context, key string) ([]byte, error) {
	return b.read(ctx, b.bucket.Object(key))
}

func (b *b2Bucket) read(ctx context.Context, obj *b2.Object) ([]byte, error) {
	r := obj.NewReader(ctx)
	defer r.Close()

	value, err := io.ReadAll(r)
	if err != nil {
		if b2.IsNotExist(err) {
			return nil, ErrNotExist
		}
		return nil, errors.Wrapf(err, "reading b2 object %s", obj.Name())
	}
	return value, nil
}

func (b *b2Bucket) Put(ctx context.Context, key string, value []byte) error {
	w := b.bucket.Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, bytes.NewReader(value)); err != nil {
		_ = w.Close()
		return errors.Wrapf(err, "writing b2 object %s", key)
	}
	return errors.Wrapf(w.Close(), "closing b2 object %s", key)
}

func (b *b2Bucket) Delete(ctx context.Context, key string) error {
	err := b.bucket.Object(key).Delete(ctx)
	if err != nil && !b2.IsNotExist(err) {
		return errors.Wrapf(err, "deleting b2 object %s", key)
	}
	return nil
}

func (b *b2Bucket) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	iter := b.bucket.List(ctx, b2.ListPrefix(prefix))
	for iter.Next() {
		obj := iter.Object()
		value, err := b.read(ctx, obj)
		if err == ErrNotExist {
			// deleted since listing
			continue
		}
		if err != nil {
			return err
		}
		if err = fn(obj.Name(), value); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Err(), "listing b2 objects")
}

func (b *b2Bucket) Close() error { return nil }
