// Package store persists run artifacts between ssw invocations on the
// same AIG, the direct analogue of the teacher's internal/storage
// local bolt database of per-user snapshots (internal/storage/local_db.go):
// same open-with-timeout-then-copy-to-temp recovery dance, same
// single-file embedded KV choice, repurposed here to cache the rarity
// engine's "last pattern" state (spec.md §4.8 fSetLastState) and the
// constraint handler's vInits (spec.md §4.7) keyed by a content hash of
// the AIG so stale entries from a different circuit are never reused.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	bucketVInits = []byte("vinits")
	bucketCex    = []byte("cex")
)

// Cache wraps a bbolt database file.
type Cache struct {
	db          *bbolt.DB
	isTemporary bool
	path        string
}

// Open opens (creating if absent) the cache file at path, with the
// teacher's recover-by-copying-to-a-temp-file behavior when another
// process is holding the file lock.
func Open(path string) (*Cache, error) {
	temporary := false
	opts := bbolt.DefaultOptions
	opts.Timeout = 500 * time.Millisecond

	for {
		db, err := bbolt.Open(path, 0o600, opts)
		if err == nil {
			c := &Cache{db: db, isTemporary: temporary, path: path}
			if err := c.init(); err != nil {
				_ = db.Close()
				return nil, err
			}
			return c, nil
		}

		recoverable := errors.Is(err, bbolt.ErrTimeout) && !temporary
		if !recoverable {
			return nil, err
		}

		src, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dst, err := os.CreateTemp("", "ssw-cache-*.db")
		if err != nil {
			_ = src.Close()
			return nil, err
		}
		_, err = io.Copy(dst, src)
		_ = src.Close()
		_ = dst.Close()
		if err != nil {
			return nil, err
		}
		path = dst.Name()
		temporary = true
	}
}

func (c *Cache) init() error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketVInits); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketCex)
		return err
	})
}

// Close closes the underlying database, removing it first if it was a
// temporary fallback copy.
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return err
	}
	if c.isTemporary {
		return os.Remove(c.path)
	}
	return nil
}

// SaveVInits stores the rarity engine's last-round state vector under key.
func (c *Cache) SaveVInits(key string, vInits []uint64) error {
	buf := make([]byte, 8*len(vInits))
	for i, w := range vInits {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVInits).Put([]byte(key), buf)
	})
}

// LoadVInits retrieves a previously saved state vector.
func (c *Cache) LoadVInits(key string) (vInits []uint64, ok bool, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketVInits).Get([]byte(key))
		if v == nil {
			return nil
		}
		if len(v)%8 != 0 {
			return fmt.Errorf("store: corrupt vinits record for %q", key)
		}
		ok = true
		vInits = make([]uint64, len(v)/8)
		for i := range vInits {
			vInits[i] = binary.BigEndian.Uint64(v[i*8:])
		}
		return nil
	})
	return vInits, ok, err
}

// CexRecord is the bit-packed counter-example format from spec.md §6.
type CexRecord struct {
	NRegs   int
	NPis    int
	NFrames int
	IPo     int
	IFrame  int
	Bitmap  []byte
}

// SaveCex stores the latest counter-example for key.
func (c *Cache) SaveCex(key string, rec CexRecord) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCex).Put([]byte(key), buf)
	})
}

// LoadCex retrieves the latest counter-example for key.
func (c *Cache) LoadCex(key string) (rec CexRecord, ok bool, err error) {
	err = c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketCex).Get([]byte(key))
		if v == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &rec)
	})
	return rec, ok, err
}
