package command

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type discriminator for command payloads
type Type int32

const (
	TypeUnknown Type = iota
	TypeMarketTrade
	TypeCreateLimitOrder
	TypeCancelOrder
	TypeAddLiquidity
	TypeRemoveLiquidity
	TypeUpdateConfig
	TypeUpdateFeeRate
	TypeEmergencyWithdraw
)

func (t Type) String() string {
	switch t {
	case TypeMarketTrade:
		return "execute_market_trade"
	case TypeCreateLimitOrder:
		return "create_limit_order"
	case TypeCancelOrder:
		return "cancel_order"
	case TypeAddLiquidity:
		return "add_liquidity"
	case TypeRemoveLiquidity:
		return "remove_liquidity"
	case TypeUpdateConfig:
		return "update_config"
	case TypeUpdateFeeRate:
		return "update_fee_rate"
	case TypeEmergencyWithdraw:
		return "emergency_withdraw"
	default:
		return "unknown"
	}
}

// Coin is one (asset, amount) value transfer attached to a call.
type Coin struct {
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
}

// Envelope wraps one mutating command with its call context: the sender
// principal, the attached value transfers, and the caller-supplied time the
// deadline checks run against.
type Envelope struct {
	ID        uuid.UUID
	Sender    string
	Funds     []Coin
	Type      Type
	Timestamp time.Time
	Command   Command
}

// Command is the interface all command payloads implement.
type Command interface {
	CommandType() Type
}

// MarketTrade executes an immediate trade against the pricing source.
type MarketTrade struct {
	AssetIn      string
	AssetOut     string
	AmountIn     int64
	MinAmountOut int64
	Deadline     int64
}

func (MarketTrade) CommandType() Type { return TypeMarketTrade }

// CreateLimitOrder persists a resting order.
type CreateLimitOrder struct {
	AssetIn  string
	AssetOut string
	AmountIn int64
	Price    decimal.Decimal
	Deadline int64
}

func (CreateLimitOrder) CommandType() Type { return TypeCreateLimitOrder }

// CancelOrder deactivates an order and releases its escrow.
type CancelOrder struct {
	OrderID string
}

func (CancelOrder) CommandType() Type { return TypeCancelOrder }

// AddLiquidity credits the caller's per-asset pool contributions.
type AddLiquidity struct {
	AssetA       string
	AssetB       string
	AmountA      int64
	AmountB      int64
	MinLiquidity int64
}

func (AddLiquidity) CommandType() Type { return TypeAddLiquidity }

// RemoveLiquidity redeems contributed liquidity back to the caller.
type RemoveLiquidity struct {
	AssetA     string
	AssetB     string
	Liquidity  int64
	MinAmountA int64
	MinAmountB int64
}

func (RemoveLiquidity) CommandType() Type { return TypeRemoveLiquidity }

// UpdateConfig rotates any subset of the four config principals. Nil fields
// are left unchanged.
type UpdateConfig struct {
	Admin            *string
	FeeCollector     *string
	OrderBook        *string
	LiquidityFactory *string
}

func (UpdateConfig) CommandType() Type { return TypeUpdateConfig }

// UpdateFeeRate sets the fee rate for one asset.
type UpdateFeeRate struct {
	Asset string
	Rate  decimal.Decimal
}

func (UpdateFeeRate) CommandType() Type { return TypeUpdateFeeRate }

// EmergencyWithdraw moves contract custody to the admin, untracked.
type EmergencyWithdraw struct {
	Asset  string
	Amount int64
}

func (EmergencyWithdraw) CommandType() Type { return TypeEmergencyWithdraw }
