package ledb

import (
	"time"

	"go.etcd.io/bbolt"
)

// Options configures an Environment, mirroring the flag surface of the
// underlying mmap-backed KV engine. boltOptions translates MapSize,
// NoMetaSync, NoSync and ReadOnly into bbolt.Options; MaxReaders is only
// reported by GetInfo. MaxDBs and the flags MapAsync, NoLock, NoMemInit,
// NoReadAhead, NoSubDir, NoTLS and WriteMap are accepted and have no
// effect.
type Options struct {
	// MapSize sets the initial memory-mapped size (bytes). Zero uses the
	// engine's default.
	MapSize int64
	// MaxReaders is the reader limit reported by GetInfo (DefaultMaxReaders
	// when zero). bbolt has no reader slot limit of its own, and ledb does
	// not enforce one: concurrent read transactions are not capped.
	MaxReaders int
	// MaxDBs names a bound on the number of named sub-DBs (buckets). bbolt
	// has no fixed limit; the value is neither enforced nor reported.
	MaxDBs int

	MapAsync    bool
	NoLock      bool
	NoMemInit   bool
	NoMetaSync  bool
	NoReadAhead bool
	NoSubDir    bool
	NoSync      bool
	NoTLS       bool
	ReadOnly    bool
	WriteMap    bool
}

// DefaultMaxReaders is used when Options.MaxReaders is zero.
const DefaultMaxReaders = 126

func (o Options) boltOptions() *bbolt.Options {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	bopt.ReadOnly = o.ReadOnly
	bopt.NoSync = o.NoSync
	bopt.NoGrowSync = o.NoMetaSync
	bopt.MmapFlags = 0
	if o.MapSize > 0 {
		bopt.InitialMmapSize = int(o.MapSize)
	}
	if o.NoSubDir {
		// bbolt always uses a single file; NoSubDir changes neither
		// boltOptions nor how the Pool canonicalizes the path.
		_ = o.NoSubDir
	}
	return &bopt
}

func (o Options) maxReaders() int {
	if o.MaxReaders > 0 {
		return o.MaxReaders
	}
	return DefaultMaxReaders
}
