package router

import (
	"RouterLedger/internal/state"
)

// Read-only queries. These bypass the write path entirely and never mutate;
// absent map entries resolve to well-defined defaults rather than errors.

// Config returns the config singleton. Missing config is corruption.
func (r *Router) Config() (state.Config, error) {
	return state.LoadConfig(r.kv)
}

// Order returns the order record, nil when no such order exists.
func (r *Router) Order(orderID string) (*state.Order, error) {
	order, found, err := state.LoadOrder(r.kv, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &order, nil
}

// UserOrders returns the owner's order-id sequence, empty if none.
func (r *Router) UserOrders(user string) ([]string, error) {
	ids, err := state.LoadUserOrders(r.kv, user)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// UserLiquidity returns the (user, asset) contributed balance, zero default.
func (r *Router) UserLiquidity(user, asset string) (int64, error) {
	return state.LiquidityBalance(r.kv, user, asset)
}

// FeeInfo returns the stored fee record for asset, or the 0.25% default.
func (r *Router) FeeInfo(asset string) (state.FeeInfo, error) {
	return state.ResolveFeeInfo(r.kv, asset)
}

// Stats returns the stats singleton. Missing stats is corruption.
func (r *Router) Stats() (state.Stats, error) {
	return state.LoadStats(r.kv)
}
