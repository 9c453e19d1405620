package state

import "github.com/shopspring/decimal"

// Config holds the admin principal and the addresses of the integrated
// subsystems. All four fields are set at instantiation and stay set.
type Config struct {
	Admin            string `json:"admin"`
	FeeCollector     string `json:"fee_collector"`
	OrderBook        string `json:"order_book"`
	LiquidityFactory string `json:"liquidity_factory"`
}

// FeeInfo is the per-asset fee record. Rate is a fraction (0.0025 = 0.25%),
// Collected only ever increases.
type FeeInfo struct {
	Rate      decimal.Decimal `json:"rate"`
	Collected int64           `json:"collected"`
	IsActive  bool            `json:"is_active"`
}

// DefaultFeeRate is the 0.25% rate synthesized for assets with no explicit
// fee record.
var DefaultFeeRate = decimal.New(25, -4)

// MaxFeeRate caps admin fee updates at 10%.
var MaxFeeRate = decimal.New(1, -1)

// DefaultFeeInfo returns the record used when an asset has none stored.
func DefaultFeeInfo() FeeInfo {
	return FeeInfo{
		Rate:      DefaultFeeRate,
		Collected: 0,
		IsActive:  true,
	}
}

// Stats tracks fee-bearing trade activity. Counters are monotonic.
type Stats struct {
	TotalTrades   uint64 `json:"total_trades"`
	TotalVolume   int64  `json:"total_volume"`
	LastTradeTime int64  `json:"last_trade_time"`
}

// TradeType is a closed enum of order kinds.
type TradeType int32

const (
	TradeTypeMarket TradeType = iota
	TradeTypeLimit
	TradeTypeStopLoss
	TradeTypeTakeProfit
)

func (t TradeType) String() string {
	switch t {
	case TradeTypeMarket:
		return "market"
	case TradeTypeLimit:
		return "limit"
	case TradeTypeStopLoss:
		return "stop_loss"
	case TradeTypeTakeProfit:
		return "take_profit"
	default:
		return "unknown"
	}
}

// Order is a resting order record. Immutable after creation except for the
// single IsActive true→false transition on cancellation.
type Order struct {
	Owner        string          `json:"owner"`
	AssetIn      string          `json:"asset_in"`
	AssetOut     string          `json:"asset_out"`
	AmountIn     int64           `json:"amount_in"`
	MinAmountOut int64           `json:"min_amount_out"`
	Price        decimal.Decimal `json:"price"`
	TradeType    TradeType       `json:"trade_type"`
	Deadline     int64           `json:"deadline"`
	IsActive     bool            `json:"is_active"`
	OrderID      string          `json:"order_id"`
}

// Escrow records the custody owed back if an order is cancelled. Funded is
// true when the attached call funds covered AmountIn; a refund transfer is
// only synthesized for funded escrows.
type Escrow struct {
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
	Funded bool   `json:"funded"`
}
