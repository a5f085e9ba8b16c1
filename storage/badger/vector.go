package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/critique/storage"
)

// VectorTier implements storage.VectorTier for BadgerDB.
// Entries are written with a TTL so stale vectors age out on their own.
type VectorTier struct {
	backend *Backend
	ttl     time.Duration
	owned   bool
}

var _ storage.VectorTier = (*VectorTier)(nil)

// NewVectorTier creates a vector tier over an already open backend.
// The caller keeps ownership of the backend. A ttl of zero disables expiry.
func NewVectorTier(backend *Backend, ttl time.Duration) (storage.VectorTier, error) {
	return newVectorTier(backend, ttl, false)
}

// OpenVectorTier opens a backend at path and wraps it in a vector tier that
// closes the backend on Close.
func OpenVectorTier(path string, ttl time.Duration) (storage.VectorTier, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newVectorTier(backend, ttl, true)
}

func newVectorTier(backend *Backend, ttl time.Duration, owned bool) (*VectorTier, error) {
	if backend == nil {
		return nil, errors.New("backend cannot be nil")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("ttl must be non-negative, got %s", ttl)
	}
	return &VectorTier{backend: backend, ttl: ttl, owned: owned}, nil
}

// TTL returns how long stored vectors live.
func (t *VectorTier) TTL() time.Duration {
	return t.ttl
}

// Close releases resources. The backend is only closed when the tier opened it.
func (t *VectorTier) Close() error {
	if t.owned {
		return t.backend.Close()
	}
	return nil
}

// GetVectors returns the stored, unexpired vectors for the given keys.
func (t *VectorTier) GetVectors(ctx context.Context, keys ...string) (map[string][]float32, error) {
	if t.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	found := make(map[string][]float32, len(keys))

	err := t.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			if key == "" {
				return storage.ErrInvalidKey
			}
			item, err := tx.Get(makeVectorKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				vec, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				found[key] = vec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return found, nil
}

// PutVectors stores vectors, resetting the expiry of existing entries.
func (t *VectorTier) PutVectors(ctx context.Context, entries map[string][]float32) error {
	if len(entries) == 0 {
		return nil
	}
	if t.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return t.backend.WithTx(func(tx *badger.Txn) error {
		for key, vec := range entries {
			if err := ctx.Err(); err != nil {
				return err
			}
			if key == "" {
				return storage.ErrInvalidKey
			}
			entry := badger.NewEntry(makeVectorKey(key), storage.MarshalVector(vec))
			if t.ttl > 0 {
				entry = entry.WithTTL(t.ttl)
			}
			if err := tx.SetEntry(entry); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Purge removes every stored vector.
func (t *VectorTier) Purge(ctx context.Context) error {
	if t.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	t.backend.logger.Debug("purging vector tier")
	return t.backend.DropPrefix([]byte(vectorRecordPrefix))
}
