// Package hashtable implements the open-addressed, Robin-Hood hashtable
// described in spec.md §4.7: power-of-two capacity, growth at 75% load,
// shrink at 20% load, minimum capacity 16, and backward-shift deletion.
//
// Hashing uses github.com/minio/highwayhash, the same fast keyed hash the
// teacher repository depends on for content hashing, instead of a
// hand-rolled FNV variant.
package hashtable

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

const (
	minCapacity   = 16
	growLoadPct   = 75
	shrinkLoadPct = 20
)

// hashKey is a fixed, arbitrary 32-byte HighwayHash key. It need not be
// secret: the table is not used in an adversarial context, only to
// distribute gracht's own small integer keys (message ids, awaiter ids,
// protocol ids, connection handles).
var hashKey = [32]byte{
	0x67, 0x72, 0x61, 0x63, 0x68, 0x74, 0x2d, 0x68,
	0x61, 0x73, 0x68, 0x74, 0x61, 0x62, 0x6c, 0x65,
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
}

func hash(key uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], key)
	return highwayhash.Sum64(b[:], hashKey[:])
}

type entry[V any] struct {
	used  bool
	probe int32
	hash  uint64
	key   uint64
	value V
}

// Table is a Robin-Hood open-addressed hashtable keyed by uint64, used
// for every "mapping keyed by X" structure in spec.md §3 (message id,
// awaiter id, connection handle, protocol id all fit in a uint64 key).
type Table[V any] struct {
	entries []entry[V]
	count   int
}

// New returns an empty table with the spec-mandated minimum capacity.
func New[V any]() *Table[V] {
	return &Table[V]{entries: make([]entry[V], minCapacity)}
}

func (t *Table[V]) mask() uint64 { return uint64(len(t.entries) - 1) }

// Len returns the number of entries currently stored.
func (t *Table[V]) Len() int { return t.count }

// Get returns the value stored under key, if any.
func (t *Table[V]) Get(key uint64) (V, bool) {
	var zero V
	if t.count == 0 {
		return zero, false
	}
	h := hash(key)
	idx := h & t.mask()
	var probe int32
	for {
		e := &t.entries[idx]
		if !e.used || probe > e.probe {
			return zero, false
		}
		if e.hash == h && e.key == key {
			return e.value, true
		}
		idx = (idx + 1) & t.mask()
		probe++
	}
}

// Set inserts or overwrites the value stored under key.
func (t *Table[V]) Set(key uint64, value V) {
	if (t.count+1)*100 >= growLoadPct*len(t.entries) {
		t.resize(len(t.entries) * 2)
	}
	t.insert(entry[V]{used: true, hash: hash(key), key: key, value: value})
}

// insert performs Robin-Hood displacement: when the entry being placed has
// probed further than the occupant in its slot, the two are swapped and
// the (former) occupant continues probing with its own growing probe
// count. This bounds worst-case probe-sequence variance.
func (t *Table[V]) insert(e entry[V]) {
	idx := e.hash & t.mask()
	for {
		slot := &t.entries[idx]
		if !slot.used {
			*slot = e
			t.count++
			return
		}
		if slot.hash == e.hash && slot.key == e.key {
			slot.value = e.value
			return
		}
		if slot.probe < e.probe {
			*slot, e = e, *slot
		}
		e.probe++
		idx = (idx + 1) & t.mask()
	}
}

// Remove deletes the entry stored under key, if present, using
// backward-shift deletion: each following entry in the probe chain is
// moved back one slot (its probe count decremented) until an entry with
// probe 0 (already in its home slot) or an empty slot is reached,
// avoiding tombstones.
func (t *Table[V]) Remove(key uint64) bool {
	if t.count == 0 {
		return false
	}
	h := hash(key)
	idx := h & t.mask()
	var probe int32
	for {
		e := &t.entries[idx]
		if !e.used || probe > e.probe {
			return false
		}
		if e.hash == h && e.key == key {
			t.removeAt(idx)
			t.count--
			if t.count > 0 && t.count*100 <= shrinkLoadPct*len(t.entries) && len(t.entries)/2 >= minCapacity {
				t.resize(len(t.entries) / 2)
			}
			return true
		}
		idx = (idx + 1) & t.mask()
		probe++
	}
}

func (t *Table[V]) removeAt(idx uint64) {
	for {
		nextIdx := (idx + 1) & t.mask()
		next := &t.entries[nextIdx]
		if !next.used || next.probe <= 0 {
			t.entries[idx] = entry[V]{}
			return
		}
		next.probe--
		t.entries[idx] = *next
		idx = nextIdx
	}
}

func (t *Table[V]) resize(newSize int) {
	if newSize < minCapacity {
		newSize = minCapacity
	}
	old := t.entries
	t.entries = make([]entry[V], newSize)
	t.count = 0
	for _, e := range old {
		if e.used {
			e.probe = 0
			t.insert(e)
		}
	}
}

// Range calls fn for every stored key/value pair. fn must not mutate the
// table.
func (t *Table[V]) Range(fn func(key uint64, value V) bool) {
	for _, e := range t.entries {
		if e.used {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}
