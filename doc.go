/*
Package ledb implements an embedded, schema-less document database on top
of a transactional, mmap-backed key-value store (bbolt).

We implement:

1. Collections, holding arbitrary schema-less documents keyed by an
auto-incrementing primary key.

2. Secondary indexes over document field paths, letting queries resolve to
an index scan instead of a full collection walk.

3. A filter/order/skip/take query surface, compiled into a plan over one or
more index scans, combined by intersection/union/difference when a filter
can't be satisfied by a single index.

4. A modifier engine for in-place document edits (set, delete, arithmetic,
toggle, regex replace, splice, merge), applied atomically per document.

# Technical Details

**Buckets.**
Every collection owns a primary bucket ("$name"), a meta bucket
("$name$meta") holding the primary-key counter and the index definition
list, and one bucket per secondary index ("$name$index$<path>"). The
storage namespace is flat: buckets are addressed by their full composed
name rather than nested, since the naming scheme already encodes the
hierarchy.

**Primary keys.**
Each collection has an 8-byte big-endian counter stored in its meta
bucket. Insert allocates the next value; deleting a document never frees
its primary key. Purge resets the counter, so numbering starts again at 1
after a purge.

## Binary encoding

**Key encoding** uses an order-preserving scheme (see keycodec.go): the
encoded bytes of two values compare, byte-for-byte, in the same order as
the values themselves. A Duplicated-kind index key is the encoded field
value followed by the document's 8-byte big-endian primary key, so
multiple documents sharing one indexed value sort by primary order.

**Document encoding** is msgpack (see doccodec.go): a document is a
self-describing tree of null/bool/int/float/string/binary/array/object
nodes, with no stored schema and no stored index-key section — index
maintenance re-extracts field values from the document body on every
write instead of diffing against a serialized index-key list.
*/
package ledb
