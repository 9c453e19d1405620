package state

import (
	"RouterLedger/internal/store"
	"encoding/json"
	"fmt"
	"strconv"
)

// Registry accessors: typed load/save over the raw KVStore. Load functions
// distinguish "absent" (lazy-default records) from "corrupt" (decode failure,
// a fatal condition for the singletons).

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal state record: %v", err))
	}
	return data
}

// --- Config singleton ---

// LoadConfig returns the config record. A missing config is corruption, not
// a user-correctable condition: the record is written at instantiation and
// never deleted.
func LoadConfig(s store.KVStore) (Config, error) {
	data, ok := s.Get(KeyConfig)
	if !ok {
		return Config{}, fmt.Errorf("config record missing: state not instantiated or corrupt")
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func SaveConfig(s store.KVStore, c Config) {
	s.Set(KeyConfig, mustMarshal(c))
}

// --- Stats singleton ---

func LoadStats(s store.KVStore) (Stats, error) {
	data, ok := s.Get(KeyStats)
	if !ok {
		return Stats{}, fmt.Errorf("stats record missing: state not instantiated or corrupt")
	}
	var st Stats
	if err := json.Unmarshal(data, &st); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	return st, nil
}

func SaveStats(s store.KVStore, st Stats) {
	s.Set(KeyStats, mustMarshal(st))
}

// --- Fee registry ---

// LoadFeeInfo returns the stored fee record for asset and whether one exists.
func LoadFeeInfo(s store.KVStore, asset string) (FeeInfo, bool, error) {
	data, ok := s.Get(FeeKey(asset))
	if !ok {
		return FeeInfo{}, false, nil
	}
	var fi FeeInfo
	if err := json.Unmarshal(data, &fi); err != nil {
		return FeeInfo{}, false, fmt.Errorf("decode fee info for %s: %w", asset, err)
	}
	return fi, true, nil
}

// ResolveFeeInfo returns the stored record or the lazy default.
func ResolveFeeInfo(s store.KVStore, asset string) (FeeInfo, error) {
	fi, ok, err := LoadFeeInfo(s, asset)
	if err != nil {
		return FeeInfo{}, err
	}
	if !ok {
		return DefaultFeeInfo(), nil
	}
	return fi, nil
}

func SaveFeeInfo(s store.KVStore, asset string, fi FeeInfo) {
	s.Set(FeeKey(asset), mustMarshal(fi))
}

// --- Order ledger ---

func LoadOrder(s store.KVStore, orderID string) (Order, bool, error) {
	data, ok := s.Get(OrderKey(orderID))
	if !ok {
		return Order{}, false, nil
	}
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return Order{}, false, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return o, true, nil
}

func SaveOrder(s store.KVStore, o Order) {
	s.Set(OrderKey(o.OrderID), mustMarshal(o))
}

// LoadUserOrders returns the owner's order-id sequence, empty if none.
func LoadUserOrders(s store.KVStore, owner string) ([]string, error) {
	data, ok := s.Get(UserOrdersKey(owner))
	if !ok {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode user orders for %s: %w", owner, err)
	}
	return ids, nil
}

// AppendUserOrder read-modify-writes the owner's order-id sequence.
func AppendUserOrder(s store.KVStore, owner, orderID string) error {
	ids, err := LoadUserOrders(s, owner)
	if err != nil {
		return err
	}
	ids = append(ids, orderID)
	s.Set(UserOrdersKey(owner), mustMarshal(ids))
	return nil
}

// NextOrderSeq increments and returns the per-ledger order sequence.
// Sequence-derived ids cannot collide across retried calls, unlike ids
// derived from (owner, assets, amount, timestamp).
func NextOrderSeq(s store.KVStore) (uint64, error) {
	var seq uint64
	if data, ok := s.Get(KeyOrderSeq); ok {
		parsed, err := strconv.ParseUint(string(data), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("decode order sequence: %w", err)
		}
		seq = parsed
	}
	seq++
	s.Set(KeyOrderSeq, []byte(strconv.FormatUint(seq, 10)))
	return seq, nil
}

// --- Liquidity ledger ---

// LiquidityBalance returns the (owner, asset) contributed balance, zero if
// never deposited.
func LiquidityBalance(s store.KVStore, owner, asset string) (int64, error) {
	data, ok := s.Get(LiquidityKey(owner, asset))
	if !ok {
		return 0, nil
	}
	bal, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode liquidity balance %s/%s: %w", owner, asset, err)
	}
	return bal, nil
}

// SetLiquidityBalance stores the balance. Zero is a valid terminal state and
// is stored, not deleted.
func SetLiquidityBalance(s store.KVStore, owner, asset string, balance int64) {
	s.Set(LiquidityKey(owner, asset), []byte(strconv.FormatInt(balance, 10)))
}

// --- Escrow ledger ---

func LoadEscrow(s store.KVStore, orderID string) (Escrow, bool, error) {
	data, ok := s.Get(EscrowKey(orderID))
	if !ok {
		return Escrow{}, false, nil
	}
	var e Escrow
	if err := json.Unmarshal(data, &e); err != nil {
		return Escrow{}, false, fmt.Errorf("decode escrow %s: %w", orderID, err)
	}
	return e, true, nil
}

func SaveEscrow(s store.KVStore, orderID string, e Escrow) {
	s.Set(EscrowKey(orderID), mustMarshal(e))
}
