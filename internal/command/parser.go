package command

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseEnvelope converts a raw JSON command message into a typed Envelope.
// The shell validates and converts here so the deterministic core only ever
// sees well-formed typed commands.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var w envelopeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}

	if w.Sender == "" {
		return nil, fmt.Errorf("parse envelope: sender is required")
	}

	id := uuid.New()
	if w.CommandID != "" {
		parsed, err := uuid.Parse(w.CommandID)
		if err != nil {
			return nil, fmt.Errorf("parse command_id: %w", err)
		}
		id = parsed
	}

	funds := make([]Coin, 0, len(w.Funds))
	for _, c := range w.Funds {
		if c.Asset == "" {
			return nil, fmt.Errorf("parse funds: asset is required")
		}
		if c.Amount < 0 {
			return nil, fmt.Errorf("parse funds: negative amount for %s", c.Asset)
		}
		funds = append(funds, Coin{Asset: c.Asset, Amount: c.Amount})
	}

	cmd, typ, err := parsePayload(w.CommandType, w.Data)
	if err != nil {
		return nil, err
	}

	ts := time.Unix(w.TimestampS, 0).UTC()
	if w.TimestampS == 0 {
		ts = time.Now().UTC()
	}

	return &Envelope{
		ID:        id,
		Sender:    w.Sender,
		Funds:     funds,
		Type:      typ,
		Timestamp: ts,
		Command:   cmd,
	}, nil
}

func parsePayload(commandType string, data json.RawMessage) (Command, Type, error) {
	switch commandType {
	case "execute_market_trade":
		cmd, err := parseMarketTrade(data)
		return cmd, TypeMarketTrade, err
	case "create_limit_order":
		cmd, err := parseCreateLimitOrder(data)
		return cmd, TypeCreateLimitOrder, err
	case "cancel_order":
		cmd, err := parseCancelOrder(data)
		return cmd, TypeCancelOrder, err
	case "add_liquidity":
		cmd, err := parseAddLiquidity(data)
		return cmd, TypeAddLiquidity, err
	case "remove_liquidity":
		cmd, err := parseRemoveLiquidity(data)
		return cmd, TypeRemoveLiquidity, err
	case "update_config":
		cmd, err := parseUpdateConfig(data)
		return cmd, TypeUpdateConfig, err
	case "update_fee_rate":
		cmd, err := parseUpdateFeeRate(data)
		return cmd, TypeUpdateFeeRate, err
	case "emergency_withdraw":
		cmd, err := parseEmergencyWithdraw(data)
		return cmd, TypeEmergencyWithdraw, err
	default:
		return nil, TypeUnknown, fmt.Errorf("unknown command type: %s", commandType)
	}
}

// --- JSON wire formats ---
// Field names use snake_case to match upstream producers.

type envelopeJSON struct {
	CommandID   string          `json:"command_id"`
	Sender      string          `json:"sender"`
	Funds       []coinJSON      `json:"funds"`
	CommandType string          `json:"command_type"`
	TimestampS  int64           `json:"timestamp_s"`
	Data        json.RawMessage `json:"data"`
}

type coinJSON struct {
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
}

type marketTradeJSON struct {
	AssetIn      string `json:"asset_in"`
	AssetOut     string `json:"asset_out"`
	AmountIn     int64  `json:"amount_in"`
	MinAmountOut int64  `json:"min_amount_out"`
	Deadline     int64  `json:"deadline"`
}

func parseMarketTrade(data []byte) (*MarketTrade, error) {
	var j marketTradeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse execute_market_trade: %w", err)
	}
	return &MarketTrade{
		AssetIn:      j.AssetIn,
		AssetOut:     j.AssetOut,
		AmountIn:     j.AmountIn,
		MinAmountOut: j.MinAmountOut,
		Deadline:     j.Deadline,
	}, nil
}

type createLimitOrderJSON struct {
	AssetIn  string `json:"asset_in"`
	AssetOut string `json:"asset_out"`
	AmountIn int64  `json:"amount_in"`
	Price    string `json:"price"`
	Deadline int64  `json:"deadline"`
}

func parseCreateLimitOrder(data []byte) (*CreateLimitOrder, error) {
	var j createLimitOrderJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse create_limit_order: %w", err)
	}
	price, err := decimal.NewFromString(j.Price)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	return &CreateLimitOrder{
		AssetIn:  j.AssetIn,
		AssetOut: j.AssetOut,
		AmountIn: j.AmountIn,
		Price:    price,
		Deadline: j.Deadline,
	}, nil
}

type cancelOrderJSON struct {
	OrderID string `json:"order_id"`
}

func parseCancelOrder(data []byte) (*CancelOrder, error) {
	var j cancelOrderJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse cancel_order: %w", err)
	}
	if j.OrderID == "" {
		return nil, fmt.Errorf("parse cancel_order: order_id is required")
	}
	return &CancelOrder{OrderID: j.OrderID}, nil
}

type addLiquidityJSON struct {
	AssetA       string `json:"asset_a"`
	AssetB       string `json:"asset_b"`
	AmountA      int64  `json:"amount_a"`
	AmountB      int64  `json:"amount_b"`
	MinLiquidity int64  `json:"min_liquidity"`
}

func parseAddLiquidity(data []byte) (*AddLiquidity, error) {
	var j addLiquidityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse add_liquidity: %w", err)
	}
	return &AddLiquidity{
		AssetA:       j.AssetA,
		AssetB:       j.AssetB,
		AmountA:      j.AmountA,
		AmountB:      j.AmountB,
		MinLiquidity: j.MinLiquidity,
	}, nil
}

type removeLiquidityJSON struct {
	AssetA     string `json:"asset_a"`
	AssetB     string `json:"asset_b"`
	Liquidity  int64  `json:"liquidity"`
	MinAmountA int64  `json:"min_amount_a"`
	MinAmountB int64  `json:"min_amount_b"`
}

func parseRemoveLiquidity(data []byte) (*RemoveLiquidity, error) {
	var j removeLiquidityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse remove_liquidity: %w", err)
	}
	return &RemoveLiquidity{
		AssetA:     j.AssetA,
		AssetB:     j.AssetB,
		Liquidity:  j.Liquidity,
		MinAmountA: j.MinAmountA,
		MinAmountB: j.MinAmountB,
	}, nil
}

type updateConfigJSON struct {
	Admin            *string `json:"admin,omitempty"`
	FeeCollector     *string `json:"fee_collector,omitempty"`
	OrderBook        *string `json:"order_book,omitempty"`
	LiquidityFactory *string `json:"liquidity_factory,omitempty"`
}

func parseUpdateConfig(data []byte) (*UpdateConfig, error) {
	var j updateConfigJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse update_config: %w", err)
	}
	return &UpdateConfig{
		Admin:            j.Admin,
		FeeCollector:     j.FeeCollector,
		OrderBook:        j.OrderBook,
		LiquidityFactory: j.LiquidityFactory,
	}, nil
}

type updateFeeRateJSON struct {
	Asset string `json:"asset"`
	Rate  string `json:"rate"`
}

func parseUpdateFeeRate(data []byte) (*UpdateFeeRate, error) {
	var j updateFeeRateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse update_fee_rate: %w", err)
	}
	if j.Asset == "" {
		return nil, fmt.Errorf("parse update_fee_rate: asset is required")
	}
	rate, err := decimal.NewFromString(j.Rate)
	if err != nil {
		return nil, fmt.Errorf("parse rate: %w", err)
	}
	return &UpdateFeeRate{Asset: j.Asset, Rate: rate}, nil
}

type emergencyWithdrawJSON struct {
	Asset  string `json:"asset"`
	Amount int64  `json:"amount"`
}

func parseEmergencyWithdraw(data []byte) (*EmergencyWithdraw, error) {
	var j emergencyWithdrawJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse emergency_withdraw: %w", err)
	}
	if j.Asset == "" {
		return nil, fmt.Errorf("parse emergency_withdraw: asset is required")
	}
	return &EmergencyWithdraw{Asset: j.Asset, Amount: j.Amount}, nil
}
