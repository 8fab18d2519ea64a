package store

import (
	"errors"
	"maps"
	"slices"
	"sync"
)

var (
	errMemClosed   = errors.New("memory storage closed")
	errMemReadOnly = errors.New("read-only transaction")
)

type memTable = map[string][]byte

// memStorage keeps buckets in maps. Every transaction sees a private copy of
// the bucket maps taken when it began; values are never mutated in place, so
// the copies share them. Writers are serialized by wmu.
type memStorage struct {
	wmu     sync.Mutex
	mu      sync.Mutex
	buckets map[string]memTable
	closed  bool
}

// newMemStorage returns a transient in-memory storage, used by tests and by
// OpenMemory.
func newMemStorage() storage {
	return &memStorage{buckets: make(map[string]memTable)}
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	if writable {
		s.wmu.Lock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if writable {
			s.wmu.Unlock()
		}
		return nil, errMemClosed
	}
	view := make(map[string]memTable, len(s.buckets))
	for name, tbl := range s.buckets {
		view[name] = maps.Clone(tbl)
	}
	return &memTx{s: s, writable: writable, buckets: view}, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	return nil
}

type memTx struct {
	s        *memStorage
	writable bool
	done     bool
	buckets  map[string]memTable
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) finish() {
	if !tx.done {
		tx.done = true
		if tx.writable {
			tx.s.wmu.Unlock()
		}
	}
}

func (tx *memTx) Bucket(name string) storageBucket {
	tbl, found := tx.buckets[name]
	if !found {
		return nil
	}
	return memBucket{tx, tbl}
}

func (tx *memTx) CreateBucket(name string) (storageBucket, error) {
	if !tx.writable {
		return nil, errMemReadOnly
	}
	tbl, found := tx.buckets[name]
	if !found {
		tbl = make(memTable)
		tx.buckets[name] = tbl
	}
	return memBucket{tx, tbl}, nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	defer tx.finish()
	if !tx.writable {
		return errMemReadOnly
	}
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if tx.s.closed {
		return errMemClosed
	}
	tx.s.buckets = tx.buckets
	return nil
}

func (tx *memTx) Rollback() error {
	tx.finish()
	return nil
}

type memBucket struct {
	tx  *memTx
	tbl memTable
}

func (b memBucket) Get(key []byte) []byte {
	return b.tbl[string(key)]
}

func (b memBucket) Put(key, value []byte) error {
	if !b.tx.writable {
		return errMemReadOnly
	}
	b.tbl[string(key)] = slices.Clone(value)
	return nil
}

func (b memBucket) Delete(key []byte) error {
	if !b.tx.writable {
		return errMemReadOnly
	}
	delete(b.tbl, string(key))
	return nil
}

// Cursor iterates over the keys present when it was created, in byte order.
func (b memBucket) Cursor() storageCursor {
	return &memCursor{tbl: b.tbl, keys: slices.Sorted(maps.Keys(b.tbl)), pos: -1}
}

type memCursor struct {
	tbl  memTable
	keys []string
	pos  int
}

func (c *memCursor) First() ([]byte, []byte) {
	c.pos = -1
	return c.Next()
}

func (c *memCursor) Next() ([]byte, []byte) {
	c.pos++
	if c.pos >= len(c.keys) {
		return nil, nil
	}
	k := c.keys[c.pos]
	return []byte(k), c.tbl[k]
}
