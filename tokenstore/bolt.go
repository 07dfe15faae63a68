package tokenstore

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var (
	boltBucket = []byte("authsync")
	boltKey    = []byte("tokens")
)

// Bolt is a file-backed [Store] built on bbolt. The record survives process
// restarts; Set is a single Update transaction, so readers never observe a
// partial write.
type Bolt struct {
	db    *bbolt.DB
	owned bool
}

// OpenBolt opens (or creates) a bbolt database at path and returns a store
// that owns the handle. Close releases the file.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return &Bolt{db: db, owned: true}, nil
}

// NewBoltWithDB wraps an existing bbolt handle shared with other buckets.
// Close becomes a no-op; the caller keeps ownership of the handle.
func NewBoltWithDB(db *bbolt.DB) *Bolt {
	return &Bolt{db: db}
}

// Close releases the underlying database when the store owns it.
func (b *Bolt) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

// Get returns the persisted record, if any.
func (b *Bolt) Get(_ context.Context) (Tokens, bool, error) {
	var (
		tokens  Tokens
		present bool
	)

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}
		data := bucket.Get(boltKey)
		if data == nil {
			return nil
		}

		decoded, err := Decode(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}

		tokens = decoded
		present = true
		return nil
	})
	if err != nil {
		return Tokens{}, false, err
	}

	return tokens, present, nil
}

// Set persists the record in one transaction.
func (b *Bolt) Set(_ context.Context, t Tokens) error {
	data, err := Encode(t)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTokens, err)
	}

	err = b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return bucket.Put(boltKey, data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// Clear removes the record. Clearing an empty store is a no-op.
func (b *Bolt) Clear(_ context.Context) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(boltKey)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}
