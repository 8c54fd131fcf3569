package store

import (
	"time"

	bolt "go.etcd.io/bbolt"
)

type kv struct{ k, v []byte }

// Batcher coalesces metadata writes into periodic bbolt transactions
// instead of one fsync per chunk, the way the object-store predecessor
// batched its Echo/Ready gossip acks.
type Batcher struct {
	db     *bolt.DB
	bucket string
	ch     chan kv
}

// NewBatcher starts a Batcher writing into bucket of db. bucket must
// already exist.
func NewBatcher(db *bolt.DB, bucket string, flushInterval time.Duration) *Batcher {
	if flushInterval <= 0 {
		flushInterval = 250 * time.Millisecond
	}
	b := &Batcher{db: db, bucket: bucket, ch: make(chan kv, 1024)}
	go b.loop(flushInterval)
	return b
}

// Put enqueues a key/value write. It does not block on the flush.
func (b *Batcher) Put(k, v []byte) { b.ch <- kv{k, v} }

func (b *Batcher) loop(flushInterval time.Duration) {
	buf := make([]kv, 0, 100)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		_ = b.db.Update(func(tx *bolt.Tx) error {
			bk := tx.Bucket([]byte(b.bucket))
			for _, p := range buf {
				if err := bk.Put(p.k, p.v); err != nil {
					return err
				}
			}
			return nil
		})
		buf = buf[:0]
	}
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case p := <-b.ch:
			buf = append(buf, p)
			if len(buf) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
