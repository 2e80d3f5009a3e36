package value

// DictionaryObject is an open-addressed hash table of (key, value)
// Values, matching spec.md §3.4 exactly:
//   - a VOID key marks an empty slot
//   - a VOID key together with INT(tombstoneSentinel) as the value
//     marks a deleted slot (a tombstone), kept so linear probing can
//     still find entries that were inserted after it
//   - load factor is kept at or below 0.65; crossing it triggers a
//     rehash into a table of double the capacity
type DictionaryObject struct {
	entries []dictEntry
	count   int // occupied, non-tombstone entries
	used    int // occupied entries including tombstones
}

type dictEntry struct {
	key   Value
	value Value
	live  bool // true for an occupied, non-tombstone slot
}

// tombstoneSentinel is the INT payload stored in a tombstone's value
// slot, per spec.md §3.4.
const tombstoneSentinel = 0x46

const initialDictCapacity = 8
const maxLoadFactor = 0.65

func newDictionaryObject() *DictionaryObject {
	return &DictionaryObject{entries: make([]dictEntry, initialDictCapacity)}
}

// Count returns the number of live (non-tombstone) entries.
func (d *DictionaryObject) Count() int { return d.count }

func isEmptySlot(e dictEntry) bool {
	return !e.live && e.key.Kind == Void && !(e.value.Kind == Int && e.value.I == tombstoneSentinel)
}

func isTombstone(e dictEntry) bool {
	return !e.live && e.key.Kind == Void && e.value.Kind == Int && e.value.I == tombstoneSentinel
}

func hashValue(v Value) uint64 {
	switch v.Kind {
	case Void:
		return 0
	case Bool, Int, Char:
		return uint64(v.I)
	case Real:
		return uint64(v.F)
	case Str:
		return uint64(v.Ptr.Str.Hash)
	case Obj:
		if v.Ptr == nil {
			return 0
		}
		return v.Ptr.identity()
	}
	return 0
}

// Get looks up key, returning (value, true) if present.
func (d *DictionaryObject) Get(key Value) (Value, bool) {
	idx, found := d.find(key)
	if !found {
		return VoidValue(), false
	}
	return d.entries[idx].value, true
}

// Set inserts or updates key -> val, rehashing first if the load
// factor would exceed the 0.65 cap.
func (d *DictionaryObject) Set(key Value, val Value) {
	if float64(d.used+1) > maxLoadFactor*float64(len(d.entries)) {
		d.rehash(len(d.entries) * 2)
	}
	idx, found := d.find(key)
	if found {
		if !d.entries[idx].live {
			d.count++
			d.used++
		}
		d.entries[idx] = dictEntry{key: key, value: val, live: true}
		return
	}
	// find() returns the first empty-or-tombstone slot on a miss, via
	// findSlot; replicate that search for the insert path.
	slot := d.findInsertSlot(key)
	wasTombstone := isTombstone(d.entries[slot])
	d.entries[slot] = dictEntry{key: key, value: val, live: true}
	d.count++
	if !wasTombstone {
		d.used++
	}
}

// Delete removes key if present, leaving a tombstone behind.
func (d *DictionaryObject) Delete(key Value) bool {
	idx, found := d.find(key)
	if !found {
		return false
	}
	d.entries[idx] = dictEntry{key: VoidValue(), value: IntValue(tombstoneSentinel), live: false}
	d.count--
	return true
}

// Each calls fn for every live entry, in table order.
func (d *DictionaryObject) Each(fn func(key, val Value)) {
	for _, e := range d.entries {
		if e.live {
			fn(e.key, e.value)
		}
	}
}

func (d *DictionaryObject) find(key Value) (int, bool) {
	if len(d.entries) == 0 {
		return 0, false
	}
	mask := uint64(len(d.entries) - 1)
	start := hashValue(key) & mask
	for i := uint64(0); i < uint64(len(d.entries)); i++ {
		idx := (start + i) & mask
		e := d.entries[idx]
		if isEmptySlot(e) {
			return 0, false
		}
		if e.live && Equal(e.key, key) {
			return int(idx), true
		}
	}
	return 0, false
}

func (d *DictionaryObject) findInsertSlot(key Value) int {
	mask := uint64(len(d.entries) - 1)
	start := hashValue(key) & mask
	var firstTombstone = -1
	for i := uint64(0); i < uint64(len(d.entries)); i++ {
		idx := (start + i) & mask
		e := d.entries[idx]
		if isEmptySlot(e) {
			if firstTombstone >= 0 {
				return firstTombstone
			}
			return int(idx)
		}
		if isTombstone(e) && firstTombstone < 0 {
			firstTombstone = int(idx)
		}
	}
	if firstTombstone >= 0 {
		return firstTombstone
	}
	// Unreachable under the 0.65 load factor cap, but fall back to
	// growing rather than panicking if it is ever hit.
	d.rehash(len(d.entries) * 2)
	return d.findInsertSlot(key)
}

func (d *DictionaryObject) rehash(newCapacity int) {
	if newCapacity < initialDictCapacity {
		newCapacity = initialDictCapacity
	}
	old := d.entries
	d.entries = make([]dictEntry, newCapacity)
	d.count = 0
	d.used = 0
	for _, e := range old {
		if e.live {
			d.Set(e.key, e.value)
		}
	}
}

var identityCounter uint64

// identity hands out a process-lifetime-unique id the first time it
// is requested for an Object, memoized on the object itself, used only
// to hash OBJ-kind dictionary keys by identity.
func (o *Object) identity() uint64 {
	if o.identityID == 0 {
		identityCounter++
		o.identityID = identityCounter
	}
	return o.identityID
}
