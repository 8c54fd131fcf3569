package store

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "data"), filepath.Join(dir, "clay.db"), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetChunkRoundTrip(t *testing.T) {
	s := openTestStore(t)
	data := []byte("clay chunk payload")
	if err := s.PutChunk("obj1", 0, data); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	// Give the batcher a chance to flush metadata.
	time.Sleep(30 * time.Millisecond)

	got, err := s.GetChunk("obj1", 0)
	if err != nil {
		t.Fatalf("GetChunk: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("GetChunk = %q, want %q", got, data)
	}
}

func TestGetChunkDetectsCorruption(t *testing.T) {
	s := openTestStore(t)
	data := []byte("clay chunk payload")
	if err := s.PutChunk("obj1", 0, data); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if err := atomicWrite(s.fragPath("obj1", 0), []byte("corrupted!!"), 0o644); err != nil {
		t.Fatalf("atomicWrite: %v", err)
	}
	if _, err := s.GetChunk("obj1", 0); err == nil {
		t.Fatalf("expected corruption error, got nil")
	}
}

func TestDeleteObjectRemovesChunksAndMeta(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutChunk("obj1", 0, []byte("a")); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	if err := s.PutChunk("obj1", 1, []byte("b")); err != nil {
		t.Fatalf("PutChunk: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if err := s.DeleteObject("obj1"); err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if _, err := s.GetChunk("obj1", 0); err == nil {
		t.Fatalf("expected error reading deleted chunk")
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(chunksBucket)).Get(chunkKey("obj1", 0)) != nil {
			t.Errorf("chunk metadata for obj1/0 still present after DeleteObject")
		}
		if tx.Bucket([]byte(seedsBucket)).Get([]byte("obj1")) != nil {
			t.Errorf("fingerprint seed for obj1 still present after DeleteObject")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("db.View: %v", err)
	}
}
