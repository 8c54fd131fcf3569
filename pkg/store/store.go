// Package store persists Clay chunks locally: one file per (object,
// user index) plus a bbolt index of per-chunk integrity fingerprints.
// The Clay codec itself is storage-agnostic (spec.md §1: "callers
// persist chunks opaquely") — this package is that caller.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spool-labs/clay/pkg/fingerprint"
	bolt "go.etcd.io/bbolt"
)

const (
	seedsBucket   = "seeds"
	chunksBucket  = "chunks"
	lengthsBucket = "lengths"
)

// chunkMeta is the integrity record kept alongside each persisted
// chunk: a cryptographic hash for tamper detection and a cheap Horner
// fingerprint, mirroring the dual check the AVID-FP predecessor ran on
// every fragment it dispersed or retrieved.
type chunkMeta struct {
	Hash [32]byte
	FP   uint64
}

// Store is a local, single-node chunk store: fragment bytes live under
// Datadir as one file per (object, index); a bbolt database tracks
// per-object fingerprint seeds and per-chunk integrity metadata.
type Store struct {
	db      *bolt.DB
	datadir string
	batcher *Batcher
}

// Open opens (creating if absent) the bbolt database at dbPath and
// ensures datadir exists, returning a Store ready for Put/Get.
func Open(datadir, dbPath string, flushInterval time.Duration) (*Store, error) {
	if err := os.MkdirAll(datadir, 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir datadir: %w", err)
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range []string{seedsBucket, chunksBucket, lengthsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}
	return &Store{
		db:      db,
		datadir: datadir,
		batcher: NewBatcher(db, chunksBucket, flushInterval),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) fragPath(object string, index int) string {
	return filepath.Join(s.datadir, object, fmt.Sprintf("%d.bin", index))
}

func chunkKey(object string, index int) []byte {
	return []byte(fmt.Sprintf("%s|%d", object, index))
}

// seedFor returns the fingerprint seed for object, creating and
// persisting a fresh random one on first use so every chunk of the
// same object is checked against the same evaluation point.
func (s *Store) seedFor(object string) (uint64, error) {
	var seed uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(seedsBucket))
		if v := b.Get([]byte(object)); v != nil {
			seed = binary.LittleEndian.Uint64(v)
			return nil
		}
		fp, err := fingerprint.NewRandom()
		if err != nil {
			return err
		}
		seed = fp.Seed()
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], seed)
		return b.Put([]byte(object), buf[:])
	})
	return seed, err
}

// PutChunk writes a chunk to disk atomically and records its integrity
// metadata. If a file for (object, index) already exists, the call
// returns nil without writing anything, whatever data holds.
func (s *Store) PutChunk(object string, index int, data []byte) error {
	path := s.fragPath(object, index)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: mkdir object dir: %w", err)
	}
	if err := atomicWrite(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write chunk: %w", err)
	}

	seed, err := s.seedFor(object)
	if err != nil {
		return fmt.Errorf("store: fingerprint seed: %w", err)
	}
	meta := chunkMeta{Hash: sha256.Sum256(data), FP: fingerprint.NewWithSeed(seed).Eval(data)}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("store: marshal chunk meta: %w", err)
	}
	s.batcher.Put(chunkKey(object, index), raw)
	return nil
}

// GetChunk reads a chunk back from disk and verifies it against its
// recorded hash and fingerprint, returning a corruption error rather
// than silently serving damaged bytes.
func (s *Store) GetChunk(object string, index int) ([]byte, error) {
	data, err := os.ReadFile(s.fragPath(object, index))
	if err != nil {
		return nil, fmt.Errorf("store: read chunk: %w", err)
	}

	var meta chunkMeta
	found := false
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(chunksBucket)).Get(chunkKey(object, index))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &meta)
	})
	if err != nil {
		return nil, fmt.Errorf("store: read chunk meta: %w", err)
	}
	if !found {
		// Written before this batcher flushed, or metadata was never
		// recorded; skip verification rather than reject valid data.
		return data, nil
	}

	if sha256.Sum256(data) != meta.Hash {
		return nil, fmt.Errorf("store: chunk %s/%d failed hash check", object, index)
	}
	seed, err := s.seedFor(object)
	if err != nil {
		return nil, fmt.Errorf("store: fingerprint seed: %w", err)
	}
	if fingerprint.NewWithSeed(seed).Eval(data) != meta.FP {
		return nil, fmt.Errorf("store: chunk %s/%d failed fingerprint check", object, index)
	}
	return data, nil
}

// PutLength records the unpadded byte length of object's original
// input, so a decode can trim the zero padding Encode added to reach a
// chunk-size-aligned stripe.
func (s *Store) PutLength(object string, n int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(n))
		return tx.Bucket([]byte(lengthsBucket)).Put([]byte(object), buf[:])
	})
}

// GetLength returns the length previously recorded by PutLength.
func (s *Store) GetLength(object string) (int, error) {
	var n int
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(lengthsBucket)).Get([]byte(object))
		if v == nil {
			return nil
		}
		found = true
		n = int(binary.LittleEndian.Uint64(v))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("store: no recorded length for object %q", object)
	}
	return n, nil
}

// DeleteObject removes every persisted chunk and metadata entry for
// object.
func (s *Store) DeleteObject(object string) error {
	if err := os.RemoveAll(filepath.Join(s.datadir, object)); err != nil {
		return fmt.Errorf("store: remove object dir: %w", err)
	}
	prefix := []byte(object + "|")
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(chunksBucket))
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		if err := tx.Bucket([]byte(seedsBucket)).Delete([]byte(object)); err != nil {
			return err
		}
		return tx.Bucket([]byte(lengthsBucket)).Delete([]byte(object))
	})
}

func hasPrefix(b, prefix []byte) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == string(prefix)
}

// atomicWrite writes data to path via a temp-file-then-rename, so
// readers never observe a partially written chunk.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
