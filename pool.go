package ledb

import (
	"path/filepath"
	"sort"
	"sync"
)

// InMemory is a sentinel path: opening it returns a transient, non-durable
// Environment instead of touching disk. The Pool deduplicates repeated
// opens of InMemory like any other path, so every open of it shares one
// in-memory Environment while a handle to it stays open. Only this exact
// string is treated as in-memory; any other path opens a file.
const InMemory = ":memory:"

// Pool is a process-wide registry mapping canonical filesystem paths to
// shared Environments. The underlying KV engine forbids two open handles
// into the same file; Pool makes that safe by handing out the existing
// handle (with its reference count bumped) instead of opening a second
// one. The last release of a path closes its Environment and drops the
// registry entry.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*poolEntry
}

type poolEntry struct {
	env      *Environment
	refCount int
}

// NewPool constructs an empty registry. Most programs want a single Pool
// for their process; DefaultPool is provided for that common case, but
// nothing requires using it — the Pool handle is passed through
// construction rather than reached for as a global singleton.
func NewPool() *Pool {
	return &Pool{entries: make(map[string]*poolEntry)}
}

// DefaultPool is a convenience process-wide Pool for callers that don't
// need multiple independent registries.
var DefaultPool = NewPool()

// Handle is a reference-counted lease on a shared Environment. Close
// releases this reference; the Environment itself is closed when the
// last Handle referencing its path is closed.
type Handle struct {
	pool *Pool
	path string
	env  *Environment
	once sync.Once
}

func (h *Handle) Env() *Environment { return h.env }

// Close releases this reference. Safe to call multiple times.
func (h *Handle) Close() error {
	var err error
	h.once.Do(func() {
		err = h.pool.release(h.path)
	})
	return err
}

// Open returns a Handle to the Environment at path, opening it if this is
// the first reference and reusing the existing one (with its reference
// count bumped) otherwise.
func (p *Pool) Open(path string, opt Options) (*Handle, error) {
	canon := canonicalizePath(path)

	p.mu.Lock()
	if e, ok := p.entries[canon]; ok {
		e.refCount++
		p.mu.Unlock()
		return &Handle{pool: p, path: canon, env: e.env}, nil
	}
	p.mu.Unlock()

	var env *Environment
	var err error
	if path == InMemory {
		env = openMemEnvironment(canon, opt)
	} else {
		env, err = openEnvironment(path, opt)
	}
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if e, ok := p.entries[canon]; ok {
		// Lost the race to open: another goroutine beat us to it. Close
		// the redundant handle and adopt the winner's.
		e.refCount++
		p.mu.Unlock()
		_ = env.Close()
		return &Handle{pool: p, path: canon, env: e.env}, nil
	}
	p.entries[canon] = &poolEntry{env: env, refCount: 1}
	p.mu.Unlock()

	return &Handle{pool: p, path: canon, env: env}, nil
}

func (p *Pool) release(canon string) error {
	p.mu.Lock()
	e, ok := p.entries[canon]
	if !ok {
		p.mu.Unlock()
		return nil
	}
	e.refCount--
	if e.refCount > 0 {
		p.mu.Unlock()
		return nil
	}
	delete(p.entries, canon)
	p.mu.Unlock()
	return e.env.Close()
}

// Openned returns a sorted, read-only snapshot of every currently-open
// canonical path.
func (p *Pool) Openned() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	paths := make([]string, 0, len(p.entries))
	for path := range p.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func canonicalizePath(path string) string {
	if path == InMemory {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return filepath.Clean(abs)
}
