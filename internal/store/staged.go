package store

import "sort"

// Staged is a copy-on-write overlay over a base KVStore. All writes land in
// the overlay; Commit applies them to the base in one pass, Discard drops
// them. The engine wraps every mutating call in one Staged, which is what
// gives each call its all-or-nothing guarantee: an operation that fails
// mid-way has touched only the overlay.
type Staged struct {
	base KVStore
	// writes holds pending mutations; a nil value marks a pending delete.
	writes map[string][]byte
}

func NewStaged(base KVStore) *Staged {
	return &Staged{
		base:   base,
		writes: make(map[string][]byte),
	}
}

func (s *Staged) Get(key string) ([]byte, bool) {
	if v, ok := s.writes[key]; ok {
		if v == nil {
			return nil, false
		}
		return v, true
	}
	return s.base.Get(key)
}

func (s *Staged) Set(key string, value []byte) {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.writes[key] = cp
}

func (s *Staged) Delete(key string) {
	s.writes[key] = nil
}

// Range iterates the merged view of base and overlay in ascending key order.
func (s *Staged) Range(prefix string, fn func(key string, value []byte) bool) {
	merged := make(map[string][]byte)
	s.base.Range(prefix, func(k string, v []byte) bool {
		merged[k] = v
		return true
	})
	for k, v := range s.writes {
		if !hasPrefix(k, prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !fn(k, merged[k]) {
			return
		}
	}
}

// Commit applies all pending writes to the base store.
func (s *Staged) Commit() {
	for k, v := range s.writes {
		if v == nil {
			s.base.Delete(k)
		} else {
			s.base.Set(k, v)
		}
	}
	s.writes = make(map[string][]byte)
}

// Discard drops all pending writes, leaving the base untouched.
func (s *Staged) Discard() {
	s.writes = make(map[string][]byte)
}

// Dirty reports whether the overlay holds uncommitted writes.
func (s *Staged) Dirty() bool {
	return len(s.writes) > 0
}

// PendingKeys returns the overlay's keys in ascending order, deletes
// included. Used to build the per-operation state digest before Commit.
func (s *Staged) PendingKeys() []string {
	keys := make([]string, 0, len(s.writes))
	for k := range s.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PendingValue returns the staged value for key; nil means a pending delete.
func (s *Staged) PendingValue(key string) []byte {
	return s.writes[key]
}
