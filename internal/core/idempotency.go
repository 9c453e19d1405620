package core

import (
	"container/list"
	"fmt"
)

// IdempotencyChecker implements two-tier command deduplication: a hot
// in-memory LRU backed by a cold Postgres lookup over the op log.
type IdempotencyChecker struct {
	lru       *IdempotencyLRU
	dbChecker DBIdempotencyChecker
}

// DBIdempotencyChecker is the interface for the cold-path dedup lookup.
// The persistence layer implements it against router_log.operations.
type DBIdempotencyChecker interface {
	IsDuplicate(method string, commandID string) (bool, error)
}

func NewIdempotencyChecker(capacity int, dbChecker DBIdempotencyChecker) *IdempotencyChecker {
	return &IdempotencyChecker{
		lru:       NewIdempotencyLRU(capacity),
		dbChecker: dbChecker,
	}
}

// IsDuplicate checks whether a command id has already been applied.
func (ic *IdempotencyChecker) IsDuplicate(method string, commandID string) bool {
	compositeKey := fmt.Sprintf("%s:%s", method, commandID)

	if ic.lru.Contains(compositeKey) {
		return true
	}

	if ic.dbChecker != nil {
		isDup, err := ic.dbChecker.IsDuplicate(method, commandID)
		if err != nil {
			// Conservative: a DB failure must not block command processing,
			// so assume not-duplicate and let the op log's unique constraint
			// catch the rare false negative.
			return false
		}

		if isDup {
			ic.lru.Add(compositeKey)
			return true
		}
	}

	return false
}

// MarkProcessed adds the key to the LRU after a successful apply.
func (ic *IdempotencyChecker) MarkProcessed(method string, commandID string) {
	compositeKey := fmt.Sprintf("%s:%s", method, commandID)
	ic.lru.Add(compositeKey)
}

// --- LRU Implementation ---

// IdempotencyLRU is an LRU cache for idempotency keys.
// Not thread-safe — only accessed under the engine's write lock.
type IdempotencyLRU struct {
	capacity int
	cache    map[string]*list.Element
	lruList  *list.List

	evictions int64
}

type lruEntry struct {
	key string
}

func NewIdempotencyLRU(capacity int) *IdempotencyLRU {
	return &IdempotencyLRU{
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		lruList:  list.New(),
	}
}

// Contains checks if key exists (promotes to front).
func (lru *IdempotencyLRU) Contains(key string) bool {
	elem, exists := lru.cache[key]
	if exists {
		lru.lruList.MoveToFront(elem)
		return true
	}
	return false
}

// Add inserts a key (or promotes if exists).
func (lru *IdempotencyLRU) Add(key string) {
	if elem, exists := lru.cache[key]; exists {
		lru.lruList.MoveToFront(elem)
		return
	}

	entry := &lruEntry{key: key}
	elem := lru.lruList.PushFront(entry)
	lru.cache[key] = elem

	if lru.lruList.Len() > lru.capacity {
		lru.evictOldest()
	}
}

func (lru *IdempotencyLRU) evictOldest() {
	elem := lru.lruList.Back()
	if elem != nil {
		lru.lruList.Remove(elem)
		entry := elem.Value.(*lruEntry)
		delete(lru.cache, entry.key)
		lru.evictions++
	}
}

// WarmFromKeys loads a batch of composite keys into the LRU. On restart the
// most recent command ids from Postgres are loaded so recently applied
// commands skip the cold-path lookup.
func (lru *IdempotencyLRU) WarmFromKeys(keys []string) {
	for _, key := range keys {
		if _, exists := lru.cache[key]; exists {
			continue
		}
		entry := &lruEntry{key: key}
		elem := lru.lruList.PushFront(entry)
		lru.cache[key] = elem

		if lru.lruList.Len() > lru.capacity {
			lru.evictOldest()
		}
	}
}

// Size returns current number of entries.
func (lru *IdempotencyLRU) Size() int {
	return lru.lruList.Len()
}

// Evictions returns total evictions.
func (lru *IdempotencyLRU) Evictions() int64 {
	return lru.evictions
}
