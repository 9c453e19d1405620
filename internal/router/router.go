package router

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/state"
	"RouterLedger/internal/store"
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultNativeDenom is the asset the ledger can transfer directly.
const DefaultNativeDenom = "usei"

// Call is the envelope context of one mutating invocation: the sender
// principal, the value transfers attached to the call, and the
// caller-supplied time deadlines are checked against. The router never
// consults a clock of its own.
type Call struct {
	Sender string
	Funds  []command.Coin
	Now    int64
}

// AttachedAmount returns how much of asset was attached to the call.
func (c Call) AttachedAmount(asset string) int64 {
	var total int64
	for _, coin := range c.Funds {
		if coin.Asset == asset {
			total += coin.Amount
		}
	}
	return total
}

// Options configures the pluggable pieces of the router.
type Options struct {
	NativeDenom string
	Quoter      Quoter
	Liquidity   LiquidityPolicy
}

// Router is the deterministic core. It reads and writes only through the
// KVStore it is given, performs no locking, and assumes the host commits or
// discards the store's writes atomically per call.
type Router struct {
	kv     store.KVStore
	native string
	quoter Quoter
	pool   LiquidityPolicy
}

func New(kv store.KVStore, opts Options) *Router {
	if opts.NativeDenom == "" {
		opts.NativeDenom = DefaultNativeDenom
	}
	if opts.Quoter == nil {
		opts.Quoter = NewFlatQuoter()
	}
	if opts.Liquidity == nil {
		opts.Liquidity = EvenSplitPolicy{}
	}
	return &Router{
		kv:     kv,
		native: opts.NativeDenom,
		quoter: opts.Quoter,
		pool:   opts.Liquidity,
	}
}

// NativeDenom returns the directly transferable asset.
func (r *Router) NativeDenom() string {
	return r.native
}

// Instantiate writes the initial config, zeroed stats, and the default fee
// record for the native asset. Runs once per ledger.
func (r *Router) Instantiate(admin, feeCollector, orderBook, liquidityFactory string) (*Response, error) {
	for _, principal := range []string{admin, feeCollector, orderBook, liquidityFactory} {
		if principal == "" {
			return nil, fmt.Errorf("instantiate: all four principals are required")
		}
	}

	state.SaveConfig(r.kv, state.Config{
		Admin:            admin,
		FeeCollector:     feeCollector,
		OrderBook:        orderBook,
		LiquidityFactory: liquidityFactory,
	})
	state.SaveStats(r.kv, state.Stats{})
	state.SaveFeeInfo(r.kv, r.native, state.DefaultFeeInfo())

	return newResponse("instantiate").addAttribute("admin", admin), nil
}

// Execute dispatches one typed command.
func (r *Router) Execute(call Call, cmd command.Command) (*Response, error) {
	switch c := cmd.(type) {
	case *command.MarketTrade:
		return r.MarketTrade(call, c)
	case *command.CreateLimitOrder:
		return r.CreateLimitOrder(call, c)
	case *command.CancelOrder:
		return r.CancelOrder(call, c)
	case *command.AddLiquidity:
		return r.AddLiquidity(call, c)
	case *command.RemoveLiquidity:
		return r.RemoveLiquidity(call, c)
	case *command.UpdateConfig:
		return r.UpdateConfig(call, c)
	case *command.UpdateFeeRate:
		return r.UpdateFeeRate(call, c)
	case *command.EmergencyWithdraw:
		return r.EmergencyWithdraw(call, c)
	default:
		return nil, fmt.Errorf("unhandled command type %T", cmd)
	}
}

// MarketTrade executes an immediate trade: fee is taken from the input,
// the net amount is quoted through the pricing source, and the fee is routed
// to the fee collector.
//
// When the computed fee is zero the fee/stats writes and the collector
// transfer are all skipped. That asymmetry (no stats for zero-fee trades) is
// long-standing observable behavior, kept as-is.
func (r *Router) MarketTrade(call Call, cmd *command.MarketTrade) (*Response, error) {
	if call.Now > cmd.Deadline {
		return nil, ErrTradeExpired
	}
	if cmd.AmountIn <= 0 {
		return nil, ErrInvalidAmount
	}
	if cmd.AssetIn == cmd.AssetOut {
		return nil, ErrSameToken
	}

	feeInfo, err := state.ResolveFeeInfo(r.kv, cmd.AssetIn)
	if err != nil {
		return nil, err
	}
	if !feeInfo.IsActive {
		return nil, ErrFeeCollectionInactive
	}

	// Fractional multiply truncates toward zero: 1000 * 0.0025 -> 2.
	fee := feeInfo.Rate.Mul(decimal.NewFromInt(cmd.AmountIn)).IntPart()
	netIn := cmd.AmountIn - fee

	amountOut, err := r.quote(cmd.AssetIn, cmd.AssetOut, netIn)
	if err != nil {
		return nil, fmt.Errorf("quote %s->%s: %w", cmd.AssetIn, cmd.AssetOut, err)
	}
	if amountOut < cmd.MinAmountOut {
		return nil, ErrInsufficientOutputAmount
	}

	resp := newResponse("execute_market_trade").
		addAttribute("user", call.Sender).
		addAttribute("asset_in", cmd.AssetIn).
		addAttribute("asset_out", cmd.AssetOut).
		addIntAttribute("amount_in", cmd.AmountIn).
		addIntAttribute("amount_out", amountOut)

	if fee > 0 {
		// Only the native asset can be routed to the collector directly.
		if cmd.AssetIn != r.native {
			return nil, &UnsupportedTokenError{Token: cmd.AssetIn}
		}

		config, err := state.LoadConfig(r.kv)
		if err != nil {
			return nil, err
		}

		feeInfo.Collected += fee
		state.SaveFeeInfo(r.kv, cmd.AssetIn, feeInfo)

		stats, err := state.LoadStats(r.kv)
		if err != nil {
			return nil, err
		}
		stats.TotalTrades++
		stats.TotalVolume += cmd.AmountIn
		stats.LastTradeTime = call.Now
		state.SaveStats(r.kv, stats)

		// Log-only id; no order record is persisted for market trades.
		orderID := fmt.Sprintf("%s-%s-%s-%d", call.Sender, cmd.AssetIn, cmd.AssetOut, call.Now)

		resp.addIntAttribute("fee", fee).
			addAttribute("order_id", orderID).
			addTransfer(config.FeeCollector, cmd.AssetIn, fee)
	}

	return resp, nil
}

// quote applies the core's own 1:1 identity policy, then delegates any
// cross-asset quote to the pluggable pricing source.
func (r *Router) quote(assetIn, assetOut string, amountIn int64) (int64, error) {
	if assetIn == assetOut {
		return amountIn, nil
	}
	return r.quoter.Quote(assetIn, assetOut, amountIn)
}

// CreateLimitOrder persists a resting order plus its escrow record and
// appends the id to the owner's order index. Order ids come from the
// per-ledger sequence so structurally identical requests in the same instant
// cannot collide.
func (r *Router) CreateLimitOrder(call Call, cmd *command.CreateLimitOrder) (*Response, error) {
	if call.Now > cmd.Deadline {
		return nil, ErrOrderExpired
	}
	if cmd.AmountIn <= 0 || !cmd.Price.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if cmd.AssetIn == cmd.AssetOut {
		return nil, ErrSameToken
	}

	attached := call.AttachedAmount(cmd.AssetIn)
	funded := attached >= cmd.AmountIn

	// Native input must be paid up front; the attached value is the custody.
	if cmd.AssetIn == r.native && !funded {
		return nil, fmt.Errorf("%w: attached %d of %s, need %d",
			ErrPaymentRequired, attached, cmd.AssetIn, cmd.AmountIn)
	}

	seq, err := state.NextOrderSeq(r.kv)
	if err != nil {
		return nil, err
	}
	orderID := fmt.Sprintf("%d-%s-%s-%s", seq, call.Sender, cmd.AssetIn, cmd.AssetOut)

	order := state.Order{
		Owner:        call.Sender,
		AssetIn:      cmd.AssetIn,
		AssetOut:     cmd.AssetOut,
		AmountIn:     cmd.AmountIn,
		MinAmountOut: 0,
		Price:        cmd.Price,
		TradeType:    state.TradeTypeLimit,
		Deadline:     cmd.Deadline,
		IsActive:     true,
		OrderID:      orderID,
	}
	state.SaveOrder(r.kv, order)

	if err := state.AppendUserOrder(r.kv, call.Sender, orderID); err != nil {
		return nil, err
	}

	state.SaveEscrow(r.kv, orderID, state.Escrow{
		Asset:  cmd.AssetIn,
		Amount: cmd.AmountIn,
		Funded: funded,
	})

	return newResponse("create_limit_order").
		addAttribute("user", call.Sender).
		addAttribute("order_id", orderID).
		addAttribute("asset_in", cmd.AssetIn).
		addAttribute("asset_out", cmd.AssetOut).
		addIntAttribute("amount_in", cmd.AmountIn).
		addAttribute("price", cmd.Price.String()), nil
}

// CancelOrder deactivates an owner's active order and refunds whatever its
// escrow records as owed. The escrow is the single source of truth for the
// refund, independent of asset type.
func (r *Router) CancelOrder(call Call, cmd *command.CancelOrder) (*Response, error) {
	order, found, err := state.LoadOrder(r.kv, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	if order.Owner != call.Sender {
		return nil, ErrUnauthorized
	}
	if !order.IsActive {
		return nil, ErrOrderNotActive
	}

	order.IsActive = false
	state.SaveOrder(r.kv, order)

	resp := newResponse("cancel_order").
		addAttribute("user", call.Sender).
		addAttribute("order_id", cmd.OrderID)

	escrow, hasEscrow, err := state.LoadEscrow(r.kv, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if hasEscrow {
		if escrow.Funded {
			resp.addTransfer(order.Owner, escrow.Asset, escrow.Amount)
		}
		r.kv.Delete(state.EscrowKey(cmd.OrderID))
	} else if order.AssetIn == r.native {
		// Orders predating escrow records: native custody was implicit.
		resp.addTransfer(order.Owner, order.AssetIn, order.AmountIn)
	}

	return resp, nil
}
