package router

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/state"
)

// AddLiquidity credits the caller's per-asset contributed balances. What is
// stored is the raw per-asset amounts; the liquidity credit from the pool
// policy is reported but not itself persisted.
func (r *Router) AddLiquidity(call Call, cmd *command.AddLiquidity) (*Response, error) {
	if cmd.AmountA <= 0 || cmd.AmountB <= 0 {
		return nil, ErrInvalidAmount
	}
	if cmd.AssetA == cmd.AssetB {
		return nil, ErrSameToken
	}

	liquidity := r.pool.Credit(cmd.AmountA, cmd.AmountB)
	if liquidity < cmd.MinLiquidity {
		return nil, ErrInsufficientLiquidity
	}

	balanceA, err := state.LiquidityBalance(r.kv, call.Sender, cmd.AssetA)
	if err != nil {
		return nil, err
	}
	balanceB, err := state.LiquidityBalance(r.kv, call.Sender, cmd.AssetB)
	if err != nil {
		return nil, err
	}

	state.SetLiquidityBalance(r.kv, call.Sender, cmd.AssetA, balanceA+cmd.AmountA)
	state.SetLiquidityBalance(r.kv, call.Sender, cmd.AssetB, balanceB+cmd.AmountB)

	return newResponse("add_liquidity").
		addAttribute("user", call.Sender).
		addAttribute("asset_a", cmd.AssetA).
		addAttribute("asset_b", cmd.AssetB).
		addIntAttribute("amount_a", cmd.AmountA).
		addIntAttribute("amount_b", cmd.AmountB).
		addIntAttribute("liquidity", liquidity), nil
}

// RemoveLiquidity redeems contributed liquidity back to the caller, one
// transfer per asset. The redemption split comes from the pool policy.
func (r *Router) RemoveLiquidity(call Call, cmd *command.RemoveLiquidity) (*Response, error) {
	if cmd.Liquidity <= 0 {
		return nil, ErrInvalidAmount
	}

	amountA, amountB := r.pool.Split(cmd.Liquidity)
	if amountA < cmd.MinAmountA || amountB < cmd.MinAmountB {
		return nil, ErrInsufficientOutputAmount
	}

	balanceA, err := state.LiquidityBalance(r.kv, call.Sender, cmd.AssetA)
	if err != nil {
		return nil, err
	}
	balanceB, err := state.LiquidityBalance(r.kv, call.Sender, cmd.AssetB)
	if err != nil {
		return nil, err
	}
	if balanceA < amountA || balanceB < amountB {
		return nil, ErrInsufficientBalance
	}

	state.SetLiquidityBalance(r.kv, call.Sender, cmd.AssetA, balanceA-amountA)
	state.SetLiquidityBalance(r.kv, call.Sender, cmd.AssetB, balanceB-amountB)

	return newResponse("remove_liquidity").
		addAttribute("user", call.Sender).
		addAttribute("asset_a", cmd.AssetA).
		addAttribute("asset_b", cmd.AssetB).
		addIntAttribute("amount_a", amountA).
		addIntAttribute("amount_b", amountB).
		addTransfer(call.Sender, cmd.AssetA, amountA).
		addTransfer(call.Sender, cmd.AssetB, amountB), nil
}
