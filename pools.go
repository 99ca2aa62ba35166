package ledb

import "sync"

// keyBytesPool and valueBytesPool follow the teacher's sync.Pool idiom for
// key/value scratch buffers, sized for this domain's keys (order-preserving
// field encodings plus an 8-byte primary suffix) and document bodies
// (msgpack-encoded node trees) rather than the teacher's fixed-schema rows.
// The key and document encoders allocate their own buffers and do not
// draw from these pools.
var keyBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 512)
	},
}

func getKeyBytes() []byte {
	return keyBytesPool.Get().([]byte)[:0]
}

func releaseKeyBytes(b []byte) {
	keyBytesPool.Put(b[:0])
}

var valueBytesPool = &sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

func getValueBytes() []byte {
	return valueBytesPool.Get().([]byte)[:0]
}

func releaseValueBytes(b []byte) {
	valueBytesPool.Put(b[:0])
}

// primarySetPool reuses the scratch sets IndexStore.update builds when
// diffing the old and new value multisets extracted from a document.
var primarySetPool = &sync.Pool{
	New: func() any {
		return make(map[string]struct{}, 16)
	},
}

func getStringSet() map[string]struct{} {
	return primarySetPool.Get().(map[string]struct{})
}

func releaseStringSet(m map[string]struct{}) {
	for k := range m {
		delete(m, k)
	}
	primarySetPool.Put(m)
}
