// Package store keeps named map files in a Bolt database.
//
// Blobs are compressed with zstd and checksummed with xxhash; per-map metadata
// is stored as msgpack next to them. Saving content identical to what is
// already stored is a no-op.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/frqstbite/celestemap"
)

var (
	ErrNotFound  = errors.New("map not found")
	ErrCorrupted = errors.New("stored map is corrupted")
)

const (
	blobBucket = "maps"
	metaBucket = "meta"
)

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	Timeout   time.Duration
	Now       func() time.Time
}

// Meta describes a stored map.
type Meta struct {
	Name     string    `msgpack:"n"`
	Size     int       `msgpack:"sz"`
	Stored   int       `msgpack:"st"`
	Checksum uint64    `msgpack:"h"`
	Saved    time.Time `msgpack:"t"`
}

type Store struct {
	s       storage
	logger  *slog.Logger
	verbose bool
	now     func() time.Time
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// Open opens or creates a Bolt database at path.
func Open(path string, opt Options) (*Store, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	st, err := newStore(newBoltStorage(bdb), opt)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return st, nil
}

// OpenMemory returns a Store that keeps everything in memory.
func OpenMemory(opt Options) (*Store, error) {
	return newStore(newMemStorage(), opt)
}

func newStore(s storage, opt Options) (*Store, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	st := &Store{
		s:       s,
		logger:  opt.Logger,
		verbose: opt.Verbose,
		now:     opt.Now,
		enc:     enc,
		dec:     dec,
	}
	err = st.update(func(tx storageTx) error {
		for _, name := range []string{blobBucket, metaBucket} {
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		st.close()
		return nil, fmt.Errorf("store: %w", err)
	}
	return st, nil
}

func (st *Store) close() {
	st.enc.Close()
	st.dec.Close()
}

func (st *Store) Close() error {
	st.close()
	return st.s.Close()
}

func (st *Store) debug(msg string, attrs ...slog.Attr) {
	if st.verbose {
		st.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
	}
}

func (st *Store) update(fn func(tx storageTx) error) error {
	tx, err := st.s.BeginTx(true)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (st *Store) view(fn func(tx storageTx) error) error {
	tx, err := st.s.BeginTx(false)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return fn(tx)
}

func readMeta(tx storageTx, name string) (Meta, bool, error) {
	raw := tx.Bucket(metaBucket).Get([]byte(name))
	if raw == nil {
		return Meta{}, false, nil
	}
	meta, err := decodeMeta(name, raw)
	if err != nil {
		return Meta{}, false, err
	}
	return meta, true, nil
}

func decodeMeta(name string, raw []byte) (Meta, error) {
	var meta Meta
	if err := msgpack.Unmarshal(raw, &meta); err != nil {
		return Meta{}, fmt.Errorf("%w: %s: metadata: %w", ErrCorrupted, name, err)
	}
	meta.Saved = meta.Saved.UTC()
	return meta, nil
}

// Put stores data under name. It reports false, without writing, when the
// stored content is already identical.
func (st *Store) Put(name string, data []byte) (Meta, bool, error) {
	sum := xxhash.Sum64(data)
	var meta Meta
	var written bool
	err := st.update(func(tx storageTx) error {
		old, found, err := readMeta(tx, name)
		if err != nil {
			return err
		}
		if found && old.Checksum == sum && old.Size == len(data) {
			meta = old
			return nil
		}

		blob := st.enc.EncodeAll(data, nil)
		meta = Meta{
			Name:     name,
			Size:     len(data),
			Stored:   len(blob),
			Checksum: sum,
			Saved:    st.now().UTC(),
		}
		rawMeta, err := msgpack.Marshal(&meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(blobBucket).Put([]byte(name), blob); err != nil {
			return err
		}
		if err := tx.Bucket(metaBucket).Put([]byte(name), rawMeta); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return Meta{}, false, err
	}
	if written {
		st.debug("store: PUT", slog.String("name", name), slog.Int("size", meta.Size), slog.Int("stored", meta.Stored))
	} else {
		st.debug("store: PUT.NOOP", slog.String("name", name))
	}
	return meta, written, nil
}

// Get returns the content stored under name, verifying its checksum.
func (st *Store) Get(name string) ([]byte, Meta, error) {
	var data []byte
	var meta Meta
	err := st.view(func(tx storageTx) error {
		var found bool
		var err error
		meta, found, err = readMeta(tx, name)
		if err != nil {
			return err
		}
		blob := tx.Bucket(blobBucket).Get([]byte(name))
		if !found || blob == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		data, err = st.dec.DecodeAll(blob, make([]byte, 0, meta.Size))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrCorrupted, name, err)
		}
		return nil
	})
	if err != nil {
		return nil, Meta{}, err
	}
	if len(data) != meta.Size || xxhash.Sum64(data) != meta.Checksum {
		st.logger.LogAttrs(context.Background(), slog.LevelWarn, "store: checksum mismatch", slog.String("name", name))
		return nil, Meta{}, fmt.Errorf("%w: %s: checksum mismatch", ErrCorrupted, name)
	}
	st.debug("store: GET", slog.String("name", name), slog.Int("size", meta.Size))
	return data, meta, nil
}

func (st *Store) Meta(name string) (Meta, error) {
	var meta Meta
	err := st.view(func(tx storageTx) error {
		var found bool
		var err error
		meta, found, err = readMeta(tx, name)
		if err == nil && !found {
			err = fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	})
	return meta, err
}

// List returns the metadata of all stored maps, ordered by name.
func (st *Store) List() ([]Meta, error) {
	var result []Meta
	err := st.view(func(tx storageTx) error {
		c := tx.Bucket(metaBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			meta, err := decodeMeta(string(k), v)
			if err != nil {
				return err
			}
			result = append(result, meta)
		}
		return nil
	})
	return result, err
}

func (st *Store) Delete(name string) error {
	err := st.update(func(tx storageTx) error {
		key := []byte(name)
		if tx.Bucket(metaBucket).Get(key) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err := tx.Bucket(metaBucket).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(blobBucket).Delete(key)
	})
	if err == nil {
		st.debug("store: DELETE", slog.String("name", name))
	}
	return err
}

// PutMap encodes m and stores it under name.
func (st *Store) PutMap(name string, m *celestemap.Map, opt celestemap.Options) (Meta, bool, error) {
	data, err := celestemap.Encode(m, opt)
	if err != nil {
		return Meta{}, false, err
	}
	return st.Put(name, data)
}

// GetMap loads and decodes the map stored under name.
func (st *Store) GetMap(name string, opt celestemap.Options) (*celestemap.Map, error) {
	data, _, err := st.Get(name)
	if err != nil {
		return nil, err
	}
	return celestemap.Decode(data, opt)
}
