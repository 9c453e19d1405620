package router

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/state"
)

// UpdateConfig rotates any subset of the four config principals.
// Admin only.
func (r *Router) UpdateConfig(call Call, cmd *command.UpdateConfig) (*Response, error) {
	config, err := state.LoadConfig(r.kv)
	if err != nil {
		return nil, err
	}
	if call.Sender != config.Admin {
		return nil, ErrUnauthorized
	}

	if cmd.Admin != nil {
		config.Admin = *cmd.Admin
	}
	if cmd.FeeCollector != nil {
		config.FeeCollector = *cmd.FeeCollector
	}
	if cmd.OrderBook != nil {
		config.OrderBook = *cmd.OrderBook
	}
	if cmd.LiquidityFactory != nil {
		config.LiquidityFactory = *cmd.LiquidityFactory
	}
	state.SaveConfig(r.kv, config)

	return newResponse("update_config").
		addAttribute("admin", config.Admin), nil
}

// UpdateFeeRate sets the fee rate for one asset, capped at 10%. A rejected
// rate leaves the stored record untouched. Admin only.
func (r *Router) UpdateFeeRate(call Call, cmd *command.UpdateFeeRate) (*Response, error) {
	config, err := state.LoadConfig(r.kv)
	if err != nil {
		return nil, err
	}
	if call.Sender != config.Admin {
		return nil, ErrUnauthorized
	}

	if cmd.Rate.IsNegative() || cmd.Rate.GreaterThan(state.MaxFeeRate) {
		return nil, ErrInvalidFeeRate
	}

	feeInfo, found, err := state.LoadFeeInfo(r.kv, cmd.Asset)
	if err != nil {
		return nil, err
	}
	if !found {
		feeInfo = state.FeeInfo{IsActive: true}
	}
	feeInfo.Rate = cmd.Rate
	state.SaveFeeInfo(r.kv, cmd.Asset, feeInfo)

	return newResponse("update_fee_rate").
		addAttribute("asset", cmd.Asset).
		addAttribute("rate", cmd.Rate.String()), nil
}

// EmergencyWithdraw moves the named asset/amount from contract custody to
// the admin. Deliberately untracked: no ledger balance is decremented.
// Admin only.
func (r *Router) EmergencyWithdraw(call Call, cmd *command.EmergencyWithdraw) (*Response, error) {
	config, err := state.LoadConfig(r.kv)
	if err != nil {
		return nil, err
	}
	if call.Sender != config.Admin {
		return nil, ErrUnauthorized
	}
	if cmd.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	return newResponse("emergency_withdraw").
		addAttribute("asset", cmd.Asset).
		addIntAttribute("amount", cmd.Amount).
		addTransfer(config.Admin, cmd.Asset, cmd.Amount), nil
}
