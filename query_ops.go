package ledb

// Update runs filter inside one write transaction and, for each matching
// document, applies actions and writes the result back (primary store and
// every index). If any document's modifier application fails, the whole
// transaction rolls back and no document is modified — update is
// all-or-nothing, not best-effort. Returns the number of documents
// modified, or 0 alongside the error when the update fails.
func (c *Collection) Update(filter *Filter, actions []ModAction) (int, error) {
	var affected int
	err := c.env.update(func(tx storageTx) error {
		primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
		if primaryBucket == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}

		stores, err := c.openIndexStores(tx)
		if err != nil {
			return err
		}
		byPath := make(map[string]*indexStore, len(stores))
		for _, ix := range stores {
			byPath[ix.def.Path] = ix
		}

		plan := compileFilter(filter, byPath)
		primaries, err := materializePlan(tx, primaryBucket, plan, false)
		if err != nil {
			return err
		}

		for _, p := range primaries {
			blob := primaryBucket.Get(primaryKeyBytes(p))
			if blob == nil {
				continue
			}
			oldDoc, err := DecodeDocument(blob)
			if err != nil {
				return err
			}
			newDoc, err := ApplyModify(oldDoc, actions)
			if err != nil {
				return err
			}
			for _, ix := range stores {
				if err := ix.update(p, oldDoc, newDoc); err != nil {
					return err
				}
			}
			if err := primaryBucket.Put(primaryKeyBytes(p), EncodeDocument(newDoc)); err != nil {
				return storageErrf(err, "writing updated document %d in %q", p, c.name)
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Remove runs filter inside one write transaction and deletes every
// matching document and its index entries. Returns the number removed.
func (c *Collection) Remove(filter *Filter) (int, error) {
	var affected int
	err := c.env.update(func(tx storageTx) error {
		primaryBucket := tx.Bucket(primaryBucketName(c.name), "")
		if primaryBucket == nil {
			return internalErrf(nil, "collection %q not initialized", c.name)
		}

		stores, err := c.openIndexStores(tx)
		if err != nil {
			return err
		}
		byPath := make(map[string]*indexStore, len(stores))
		for _, ix := range stores {
			byPath[ix.def.Path] = ix
		}

		plan := compileFilter(filter, byPath)
		primaries, err := materializePlan(tx, primaryBucket, plan, false)
		if err != nil {
			return err
		}

		for _, p := range primaries {
			key := primaryKeyBytes(p)
			blob := primaryBucket.Get(key)
			if blob == nil {
				continue
			}
			doc, err := DecodeDocument(blob)
			if err != nil {
				return err
			}
			for _, ix := range stores {
				if err := ix.remove(p, doc); err != nil {
					return err
				}
			}
			if err := primaryBucket.Delete(key); err != nil {
				return storageErrf(err, "deleting document %d from %q", p, c.name)
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}
