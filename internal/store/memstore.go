package store

import "sort"

// MemStore is the in-memory KVStore backing the deterministic core.
// Not thread-safe — the engine serializes all access behind its own lock.
type MemStore struct {
	entries map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]byte)}
}

func (m *MemStore) Get(key string) ([]byte, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *MemStore) Set(key string, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.entries[key] = cp
}

func (m *MemStore) Delete(key string) {
	delete(m.entries, key)
}

func (m *MemStore) Range(prefix string, fn func(key string, value []byte) bool) {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if hasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// Export copies the full contents for snapshotting.
func (m *MemStore) Export() map[string][]byte {
	out := make(map[string][]byte, len(m.entries))
	for k, v := range m.entries {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// Restore replaces the full contents from a snapshot.
func (m *MemStore) Restore(entries map[string][]byte) {
	m.entries = make(map[string][]byte, len(entries))
	for k, v := range entries {
		cp := make([]byte, len(v))
		copy(cp, v)
		m.entries[k] = cp
	}
}

// Len returns the number of stored entries.
func (m *MemStore) Len() int {
	return len(m.entries)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
