package ledb

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.etcd.io/bbolt"
)

// Environment owns one KV environment (one on-disk directory, or one
// in-memory store for tests) together with its write serialization and
// collection handles. It is the concrete type behind both the "Env" that
// owns sub-DB handles and the "Storage" external interface that opens
// collections, since in this single-process embedded engine they are the
// same object.
type Environment struct {
	path string
	opt  Options
	st   storage
	bdb  *bbolt.DB // nil for the in-memory backend

	// writeMu serializes write transactions process-wide. bbolt already
	// enforces a single writer per file; this lock is cheap insurance
	// against ever running two logical write operations concurrently
	// against one Environment. The collections cache is guarded by mu.
	writeMu sync.Mutex

	ReaderCount atomic.Int64
	WriterCount atomic.Int64
	txCount     atomic.Int64

	mu          sync.Mutex
	collections map[string]*Collection

	closed atomic.Bool
}

// openEnvironment opens (or creates) the on-disk environment at path.
func openEnvironment(path string, opt Options) (*Environment, error) {
	st, bdb, err := openBoltStorage(path, opt.boltOptions())
	if err != nil {
		return nil, storageErrf(err, "opening environment at %q", path)
	}
	env := &Environment{
		path:        path,
		opt:         opt,
		st:          st,
		bdb:         bdb,
		collections: make(map[string]*Collection),
	}
	return env, nil
}

// openMemEnvironment opens a transient, non-durable Environment, used by
// the Pool's InMemory path and by tests that don't want to touch disk.
func openMemEnvironment(path string, opt Options) *Environment {
	return &Environment{
		path:        path,
		opt:         opt,
		st:          newMemStorage(),
		collections: make(map[string]*Collection),
	}
}

func (e *Environment) Path() string { return e.path }

// Close releases the underlying KV environment. Safe to call once; the
// Pool guarantees it is only invoked when the last reference drops.
func (e *Environment) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	return e.st.Close()
}

// view runs fn inside a read-only transaction.
func (e *Environment) view(fn func(tx storageTx) error) error {
	tx, err := e.st.BeginTx(false)
	if err != nil {
		return storageErrf(err, "beginning read transaction")
	}
	e.ReaderCount.Add(1)
	defer e.ReaderCount.Add(-1)
	defer tx.Rollback()
	return fn(tx)
}

// update runs fn inside a write transaction, committing if fn succeeds and
// rolling back otherwise. Only one update runs at a time per Environment.
func (e *Environment) update(fn func(tx storageTx) error) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	tx, err := e.st.BeginTx(true)
	if err != nil {
		return storageErrf(err, "beginning write transaction")
	}
	e.WriterCount.Add(1)
	defer e.WriterCount.Add(-1)

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErrf(err, "committing write transaction")
	}
	e.txCount.Add(1)
	return nil
}

// EnvInfo reports environment-level info, mirroring what an LMDB-family
// engine's mdb_env_info / mdb_env_stat would surface.
type EnvInfo struct {
	MapSize    int64
	LastTxID   int64
	MaxReaders int
	NumReaders int
}

func (e *Environment) GetInfo() EnvInfo {
	return EnvInfo{
		MapSize:    e.opt.MapSize,
		LastTxID:   e.txCount.Load(),
		MaxReaders: e.opt.maxReaders(),
		NumReaders: int(e.ReaderCount.Load()),
	}
}

// EnvStats aggregates B-tree shape across every bucket in the environment.
type EnvStats struct {
	PageSize      int
	Depth         int
	BranchPages   int64
	LeafPages     int64
	OverflowPages int64
	KeyN          int
}

func (e *Environment) GetStats() (EnvStats, error) {
	var stats EnvStats
	if e.bdb != nil {
		stats.PageSize = e.bdb.Info().PageSize
	}
	err := e.view(func(tx storageTx) error {
		names, err := tx.RootBucketNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			b := tx.Bucket(name, "")
			if b == nil {
				continue
			}
			bs := b.Stats()
			stats.BranchPages += bs.BranchAlloc
			stats.LeafPages += bs.LeafInuse
			stats.KeyN += bs.KeyN
		}
		return nil
	})
	return stats, err
}

// Collection bucket naming. A collection named "post" owns three (or more)
// top-level buckets: "$post" (primary store), "$post$meta" (index
// definitions + primary counter), and "$post$index$<path>" (one per
// secondary index). Collection names must not themselves contain "$".
const (
	bucketPrefix     = "$"
	metaSuffix       = "$meta"
	indexInfix       = "$index$"
)

func primaryBucketName(collection string) string { return bucketPrefix + collection }
func metaBucketName(collection string) string    { return bucketPrefix + collection + metaSuffix }
func indexBucketName(collection, path string) string {
	return bucketPrefix + collection + indexInfix + path
}

// collectionNameFromPrimaryBucket reports the collection name if bucketName
// is a primary bucket (exactly one leading "$", no further "$").
func collectionNameFromPrimaryBucket(bucketName string) (string, bool) {
	if !strings.HasPrefix(bucketName, bucketPrefix) {
		return "", false
	}
	rest := bucketName[len(bucketPrefix):]
	if strings.Contains(rest, "$") {
		return "", false
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// GetCollections returns the sorted names of every collection that has
// been created in this environment (detected by the existence of its
// primary bucket, per the on-disk layout — no separate registry is kept).
func (e *Environment) GetCollections() ([]string, error) {
	var names []string
	err := e.view(func(tx storageTx) error {
		roots, err := tx.RootBucketNames()
		if err != nil {
			return err
		}
		for _, b := range roots {
			if name, ok := collectionNameFromPrimaryBucket(b); ok {
				names = append(names, name)
			}
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

func (e *Environment) HasCollection(name string) (bool, error) {
	var found bool
	err := e.view(func(tx storageTx) error {
		found = tx.Bucket(primaryBucketName(name), "") != nil
		return nil
	})
	return found, err
}

// Collection returns a handle for the named collection, creating its
// backing buckets if this is the first reference. Handles are cached per
// Environment so repeated calls share state (e.g. the index definition
// cache).
func (e *Environment) Collection(name string) (*Collection, error) {
	e.mu.Lock()
	if c, ok := e.collections[name]; ok {
		e.mu.Unlock()
		return c, nil
	}
	e.mu.Unlock()

	c := &Collection{env: e, name: name}
	if err := c.ensureBuckets(); err != nil {
		return nil, err
	}
	if err := c.loadIndexDefs(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.collections[name]; ok {
		return existing, nil
	}
	e.collections[name] = c
	return c, nil
}

// DropCollection removes a collection's primary bucket, meta bucket, and
// every index bucket it owns, atomically.
func (e *Environment) DropCollection(name string) error {
	err := e.update(func(tx storageTx) error {
		c := &Collection{env: e, name: name}
		if err := c.loadIndexDefsTx(tx); err != nil {
			return err
		}
		for _, def := range c.indexDefs {
			if err := tx.DeleteBucket(indexBucketName(name, def.Path), ""); err != nil && err != ErrBucketNotFound {
				return storageErrf(err, "dropping index bucket for %q", def.Path)
			}
		}
		if err := tx.DeleteBucket(metaBucketName(name), ""); err != nil && err != ErrBucketNotFound {
			return storageErrf(err, "dropping meta bucket")
		}
		if err := tx.DeleteBucket(primaryBucketName(name), ""); err != nil && err != ErrBucketNotFound {
			return storageErrf(err, "dropping primary bucket")
		}
		return nil
	})
	if err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.collections, name)
	e.mu.Unlock()
	return nil
}
