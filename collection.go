package ledb

import (
	"sync"
)

// primaryFieldName is the document field that mirrors a document's
// allocated primary key. insert overwrites it unconditionally; put reads
// it to know which document to replace.
const primaryFieldName = "_id"

// Collection is a named container of schema-less documents plus the set
// of secondary indexes defined over it. Each single-document operation,
// Update, Remove, Purge, EnsureIndex and DropIndex runs inside exactly one
// Environment transaction and is atomic. Load and SetIndexes commit one
// transaction per document or per index, so a failure part-way leaves the
// earlier ones in place.
type Collection struct {
	env  *Environment
	name string

	mu        sync.RWMutex
	indexDefs []IndexDef
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) ensureBuckets() error {
	return c.env.update(func(tx storageTx) error {
		if _, err := tx.CreateBucket(primaryBucketName(c.name), ""); err != nil {
			return storageErrf(err, "creating primary bucket for %q", c.name)
		}
		meta, err := tx.CreateBucket(metaBucketName(c.name), "")
		if err != nil {
			return storageErrf(err, "creating meta bucket for %q", c.name)
		}
		if meta.Get(primaryCounterKey) == nil {
			var zero [8]byte
			if err := meta.Put(primaryCounterKey, zero[:]); err != nil {
				return storageErrf(err, "initializing primary counter for %q", c.name)
			}
		}
		return nil
	})
}

func (c *Collection) loadIndexDefs() error {
	return c.env.view(func(tx storageTx) error {
		return c.loadIndexDefsTx(tx)
	})
}

func (c *Collection) loadIndexDefsTx(tx storageTx) error {
	meta := tx.Bucket(metaBucketName(c.name), "")
	if meta == nil {
		c.mu.Lock()
		c.indexDefs = nil
		c.mu.Unlock()
		return nil
	}
	defs, err := decodeIndexDefs(meta.Get(indexDefsKey))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.indexDefs = defs
	c.mu.Unlock()
	return nil
}

func (c *Collection) defsSnapshot() []IndexDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]IndexDef(nil), c.indexDefs...)
}

// openIndexStores opens the bucket for every currently-defined index
// inside tx.
func (c *Collection) openIndexStores(tx storageTx) ([]*indexStore, error) {
	defs := c.defsSnapshot()
	stores := make([]*indexStore, 0, len(defs))
	for _, def := range defs {
		b := tx.Bucket(indexBucketName(c.name, def.Path), "")
		if b == nil {
			return nil, internalErrf(nil, "missing bucket for index %q on %q", def.Path, c.name)
		}
		stores = append(stores, newIndexStore(def, b))
	}
	return stores, nil
}

func (c *Collection) allocatePrimary(meta storageBucket) (uint64, error) {
	raw := meta.Get(primaryCounterKey)
	var next uint64
	if raw != nil {
		v, ok := DecodePrimary(raw)
		if !ok {
			return 0, internalErrf(nil, "corrupt primary counter for %q", c.name)
		}
		next = v
	}
	next++
	var buf [8]byte
	EncodePrimary(buf[:0], next)
	if err := meta.Put(primaryCounterKey, buf[:]); err != nil {
		return 0, storageErrf(err, "advancing primary counter for %q", c.name)
	}
	return next, nil
}

func primaryKeyBytes(primary uint64) []byte {
	return EncodePrimary(nil, primary)
}

// Insert allocates the next primary key, stamps it onto the document body,
// stores it, and updates every secondary index. Returns the allocated
// primary.
func (c *Collection) Insert(doc Document) (uint64, error) {
	var primary uint64
	err := c.env.update(func(tx storageTx) error {
		primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
		meta := tx.Bucket(metaBucketName(c.name), "")
		if primaryBucket == nil || meta == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}

		p, err := c.allocatePrimary(meta)
		if err != nil {
			return err
		}
		primary = p

		doc.Root = doc.Root.Set(primaryFieldName, IntNode(int64(primary)))
		blob := EncodeDocument(doc)

		stores, err := c.openIndexStores(tx)
		if err != nil {
			return err
		}
		for _, ix := range stores {
			if err := ix.insert(primary, doc); err != nil {
				return err
			}
		}
		return primaryBucket.Put(primaryKeyBytes(primary), blob)
	})
	return primary, err
}

// Get fetches a document by primary key. Returns ok=false if absent (a
// distinguished not-found value, not an error).
func (c *Collection) Get(primary uint64) (Document, bool, error) {
	var doc Document
	var ok bool
	err := c.env.view(func(tx storageTx) error {
		b := tx.Bucket(primaryBucketName(c.name), "")
		if b == nil {
			return nil
		}
		blob := b.Get(primaryKeyBytes(primary))
		if blob == nil {
			return nil
		}
		d, err := DecodeDocument(blob)
		if err != nil {
			return err
		}
		doc, ok = d, true
		return nil
	})
	return doc, ok, err
}

// Has reports whether a primary key exists.
func (c *Collection) Has(primary uint64) (bool, error) {
	var ok bool
	err := c.env.view(func(tx storageTx) error {
		b := tx.Bucket(primaryBucketName(c.name), "")
		if b == nil {
			return nil
		}
		ok = b.Get(primaryKeyBytes(primary)) != nil
		return nil
	})
	return ok, err
}

// Put replaces the document at its own primary key (doc must carry one via
// primaryFieldName). Every index is updated by diffing the old and new
// value multisets. Fails if the primary doesn't exist.
func (c *Collection) Put(doc Document) error {
	idNode, ok := doc.Root.Get(primaryFieldName)
	if !ok || idNode.Kind != KindInt {
		return queryErrf("put: document missing %q primary field", primaryFieldName)
	}
	primary := uint64(idNode.Int)

	return c.env.update(func(tx storageTx) error {
		primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
		if primaryBucket == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}
		oldBlob := primaryBucket.Get(primaryKeyBytes(primary))
		if oldBlob == nil {
			return queryErrf("put: primary %d does not exist in %q", primary, c.name)
		}
		oldDoc, err := DecodeDocument(oldBlob)
		if err != nil {
			return err
		}

		stores, err := c.openIndexStores(tx)
		if err != nil {
			return err
		}
		for _, ix := range stores {
			if err := ix.update(primary, oldDoc, doc); err != nil {
				return err
			}
		}
		return primaryBucket.Put(primaryKeyBytes(primary), EncodeDocument(doc))
	})
}

// Delete removes a document and its index entries. Returns whether the
// primary existed.
func (c *Collection) Delete(primary uint64) (bool, error) {
	var existed bool
	err := c.env.update(func(tx storageTx) error {
		primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
		if primaryBucket == nil {
			return nil
		}
		key := primaryKeyBytes(primary)
		oldBlob := primaryBucket.Get(key)
		if oldBlob == nil {
			return nil
		}
		oldDoc, err := DecodeDocument(oldBlob)
		if err != nil {
			return err
		}

		stores, err := c.openIndexStores(tx)
		if err != nil {
			return err
		}
		for _, ix := range stores {
			if err := ix.remove(primary, oldDoc); err != nil {
				return err
			}
		}
		if err := primaryBucket.Delete(key); err != nil {
			return storageErrf(err, "deleting primary %d from %q", primary, c.name)
		}
		existed = true
		return nil
	})
	return existed, err
}

// Purge removes every document and recreates every index bucket empty,
// resetting the primary counter to zero.
func (c *Collection) Purge() error {
	return c.env.update(func(tx storageTx) error {
		if err := tx.DeleteBucket(primaryBucketName(c.name), ""); err != nil && err != ErrBucketNotFound {
			return err
		}
		if _, err := tx.CreateBucket(primaryBucketName(c.name), ""); err != nil {
			return err
		}
		meta, err := tx.CreateBucket(metaBucketName(c.name), "")
		if err != nil {
			return err
		}
		var zero [8]byte
		if err := meta.Put(primaryCounterKey, zero[:]); err != nil {
			return err
		}
		for _, def := range c.defsSnapshot() {
			name := indexBucketName(c.name, def.Path)
			if err := tx.DeleteBucket(name, ""); err != nil && err != ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name, ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// Dump returns a Cursor over every document in ascending primary order.
func (c *Collection) Dump() (*Cursor, error) {
	return c.Find(nil, OrderPrimaryAsc)
}

// Load bulk-inserts documents (e.g. restoring a Dump), returning the
// number loaded.
func (c *Collection) Load(docs []Document) (int, error) {
	var n int
	for _, d := range docs {
		if _, err := c.Insert(d); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (c *Collection) GetIndexes() []IndexDef {
	return c.defsSnapshot()
}

func (c *Collection) HasIndex(path string, kind IndexKind, keyType KeyType) bool {
	for _, d := range c.defsSnapshot() {
		if d.Path == path && d.Kind == kind && d.KeyType == keyType {
			return true
		}
	}
	return false
}

// EnsureIndex registers a secondary index on path if one with the same
// (path, kind, keyType) doesn't already exist, replacing any differently
// typed/kinded index already defined on that path, then populates it from
// the current primary store. Returns true if a new index was created.
func (c *Collection) EnsureIndex(path string, kind IndexKind, keyType KeyType) (bool, error) {
	want := IndexDef{Path: path, Kind: kind, KeyType: keyType}
	var created bool

	err := c.env.update(func(tx storageTx) error {
		if err := c.loadIndexDefsTx(tx); err != nil {
			return err
		}
		defs := c.defsSnapshot()

		for _, d := range defs {
			if d.equal(want) {
				return nil
			}
		}

		// Drop any existing index on the same path with a different kind/type.
		var kept []IndexDef
		for _, d := range defs {
			if d.Path == path {
				if err := tx.DeleteBucket(indexBucketName(c.name, d.Path), ""); err != nil && err != ErrBucketNotFound {
					return err
				}
				continue
			}
			kept = append(kept, d)
		}
		kept = append(kept, want)

		bucket, err := tx.CreateBucket(indexBucketName(c.name, path), "")
		if err != nil {
			return storageErrf(err, "creating index bucket for %q", path)
		}
		ix := newIndexStore(want, bucket)

		primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
		if primaryBucket == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}
		rc := RawOO().newCursor(primaryBucket.Cursor())
		for rc.Next() {
			primary, ok := DecodePrimary(rc.Key())
			if !ok {
				return internalErrf(nil, "corrupt primary key in %q", c.name)
			}
			doc, err := DecodeDocument(rc.Value())
			if err != nil {
				return err
			}
			if err := ix.insert(primary, doc); err != nil {
				return err
			}
		}

		meta := tx.Bucket(metaBucketName(c.name), "")
		if meta == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}
		if err := meta.Put(indexDefsKey, encodeIndexDefs(kept)); err != nil {
			return err
		}

		c.mu.Lock()
		c.indexDefs = kept
		c.mu.Unlock()
		created = true
		return nil
	})
	return created, err
}

// DropIndex removes an index by path, if present.
func (c *Collection) DropIndex(path string) (bool, error) {
	var dropped bool
	err := c.env.update(func(tx storageTx) error {
		if err := c.loadIndexDefsTx(tx); err != nil {
			return err
		}
		defs := c.defsSnapshot()
		var kept []IndexDef
		for _, d := range defs {
			if d.Path == path {
				dropped = true
				continue
			}
			kept = append(kept, d)
		}
		if !dropped {
			return nil
		}
		if err := tx.DeleteBucket(indexBucketName(c.name, path), ""); err != nil && err != ErrBucketNotFound {
			return err
		}
		meta := tx.Bucket(metaBucketName(c.name), "")
		if meta == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}
		if err := meta.Put(indexDefsKey, encodeIndexDefs(kept)); err != nil {
			return err
		}
		c.mu.Lock()
		c.indexDefs = kept
		c.mu.Unlock()
		return nil
	})
	return dropped, err
}

// SetIndexes replaces the full set of index definitions in one bulk
// operation: drops every index not in want, then ensures every index in
// want.
func (c *Collection) SetIndexes(want []IndexDef) error {
	if err := c.loadIndexDefs(); err != nil {
		return err
	}
	for _, have := range c.defsSnapshot() {
		keep := false
		for _, w := range want {
			if have.equal(w) {
				keep = true
				break
			}
		}
		if !keep {
			if _, err := c.DropIndex(have.Path); err != nil {
				return err
			}
		}
	}
	for _, w := range want {
		if _, err := c.EnsureIndex(w.Path, w.Kind, w.KeyType); err != nil {
			return err
		}
	}
	return nil
}
