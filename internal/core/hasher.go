package core

import (
	"crypto/sha256"
	"encoding/binary"
)

const GenesisHashSeed = "RouterLedger:genesis:v1"

// StateHasher chains deterministic state hashes across applied operations.
type StateHasher struct {
	prevHash [32]byte
}

// NewStateHasher initializes with the genesis hash.
func NewStateHasher() *StateHasher {
	genesis := sha256.Sum256([]byte(GenesisHashSeed))
	return &StateHasher{
		prevHash: genesis,
	}
}

// ComputeHash calculates state_hash[N] = SHA-256(prev_hash || sequence || state_digest)
// and advances the chain tip.
func (h *StateHasher) ComputeHash(sequence int64, stateDigest []byte) [32]byte {
	hasher := sha256.New()

	hasher.Write(h.prevHash[:])

	var seqBuf [8]byte
	binary.LittleEndian.PutUint64(seqBuf[:], uint64(sequence))
	hasher.Write(seqBuf[:])

	hasher.Write(stateDigest)

	var hash [32]byte
	copy(hash[:], hasher.Sum(nil))

	h.prevHash = hash

	return hash
}

// PrevHash returns the current chain tip.
func (h *StateHasher) PrevHash() [32]byte {
	return h.prevHash
}

// Restore sets the chain tip, used when resuming from a snapshot.
func (h *StateHasher) Restore(tip [32]byte) {
	h.prevHash = tip
}
