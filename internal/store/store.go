package store

// KVStore is the typed key-value persistence surface the router core runs
// against. Implementations are not required to be safe for concurrent use;
// the hosting engine serializes all access.
type KVStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) ([]byte, bool)

	// Set stores value under key, overwriting any previous value.
	Set(key string, value []byte)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string)

	// Range calls fn for every key with the given prefix, in ascending
	// byte order. Iteration stops when fn returns false.
	Range(prefix string, fn func(key string, value []byte) bool)
}
