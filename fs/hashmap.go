package fs

import "github.com/robinhood-suite/robinhood4-sub001/fs/rbherr"

// HashMap is a fixed-capacity, open-addressed, linear-probing map from
// opaque keys to opaque values. Unlike a plain Go map, Get and Pop
// report an absent key through a KindNoEntry error, so a present key
// whose value is nil is told apart from a missing one. The dedup pool
// does not use it; it indexes ids with plain Go maps.
type HashMap struct {
	capacity int
	hash     func(key interface{}) uint64
	equal    func(a, b interface{}) bool

	slots []hashSlot
	count int
}

type hashSlot struct {
	occupied bool
	key      interface{}
	value    interface{}
}

// NewHashMap builds a HashMap with room for capacity entries. hash
// and equal are caller-supplied since HashMap's keys are opaque
// interface{} values (usually ID or string).
func NewHashMap(capacity int, hash func(key interface{}) uint64, equal func(a, b interface{}) bool) *HashMap {
	if capacity <= 0 {
		capacity = 1
	}
	return &HashMap{
		capacity: capacity,
		hash:     hash,
		equal:    equal,
		slots:    make([]hashSlot, capacity),
	}
}

// Len returns the number of entries currently stored.
func (m *HashMap) Len() int { return m.count }

func (m *HashMap) idealSlot(key interface{}) int {
	return int(m.hash(key) % uint64(m.capacity))
}

// Set inserts key/value, replacing any existing value for key. It
// returns KindNoBufferSpace if the probe chain starting at key's ideal
// slot is entirely full without finding key first.
func (m *HashMap) Set(key, value interface{}) error {
	start := m.idealSlot(key)
	for i := 0; i < m.capacity; i++ {
		idx := (start + i) % m.capacity
		s := &m.slots[idx]
		if !s.occupied {
			s.occupied = true
			s.key = key
			s.value = value
			m.count++
			return nil
		}
		if m.equal(s.key, key) {
			s.value = value
			return nil
		}
	}
	return rbherr.NoBufferSpace("hashmap probe chain full for key")
}

// Get returns the value stored for key. It returns a KindNoEntry error
// only when key is absent -- a present key
// whose value is nil returns (nil, nil), distinguishing "absent" from
// "present with zero value".
func (m *HashMap) Get(key interface{}) (interface{}, error) {
	idx, found := m.find(key)
	if !found {
		return nil, rbherr.NoEntry("key not present")
	}
	return m.slots[idx].value, nil
}

func (m *HashMap) find(key interface{}) (int, bool) {
	start := m.idealSlot(key)
	for i := 0; i < m.capacity; i++ {
		idx := (start + i) % m.capacity
		s := &m.slots[idx]
		if !s.occupied {
			return 0, false
		}
		if m.equal(s.key, key) {
			return idx, true
		}
	}
	return 0, false
}

// Pop removes and returns the value stored for key, then walks the
// occupied slots after the freed one and moves back into the gap every
// entry whose ideal position does not lie in the cyclic range (freed
// slot, its current slot] (the "probe invariant": deletions do not
// break lookups for keys that probed past it).
func (m *HashMap) Pop(key interface{}) (interface{}, error) {
	freed, found := m.find(key)
	if !found {
		return nil, rbherr.NoEntry("key not present")
	}
	value := m.slots[freed].value
	m.slots[freed] = hashSlot{}
	m.count--

	idx := (freed + 1) % m.capacity
	for m.slots[idx].occupied {
		ideal := m.idealSlot(m.slots[idx].key)
		if between(freed, ideal, idx, m.capacity) {
			m.slots[freed] = m.slots[idx]
			m.slots[idx] = hashSlot{}
			freed = idx
		}
		idx = (idx + 1) % m.capacity
	}
	return value, nil
}

// between reports whether ideal lies outside the modular range (free,
// cur] when walking forward from free -- i.e. moving the entry at cur
// back to free would not jump it past its own ideal slot. This is the
// standard linear-probing deletion rule (Knuth's "back-shift
// deletion").
func between(free, ideal, cur, capacity int) bool {
	if free <= cur {
		return ideal <= free || ideal > cur
	}
	return ideal <= free && ideal > cur
}
