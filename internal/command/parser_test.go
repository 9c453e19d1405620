package command_test

import (
	"RouterLedger/internal/command"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestParseEnvelope_MarketTrade(t *testing.T) {
	raw := []byte(`{
		"command_id": "550e8400-e29b-41d4-a716-446655440000",
		"sender": "alice",
		"funds": [{"asset": "usei", "amount": 1000}],
		"command_type": "execute_market_trade",
		"timestamp_s": 1700000000,
		"data": {
			"asset_in": "usei",
			"asset_out": "atom",
			"amount_in": 1000,
			"min_amount_out": 900,
			"deadline": 1700000600
		}
	}`)

	env, err := command.ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}

	if env.Sender != "alice" {
		t.Errorf("sender = %q, want alice", env.Sender)
	}
	if env.Type != command.TypeMarketTrade {
		t.Errorf("type = %v, want TypeMarketTrade", env.Type)
	}
	if len(env.Funds) != 1 || env.Funds[0].Asset != "usei" || env.Funds[0].Amount != 1000 {
		t.Errorf("unexpected funds: %+v", env.Funds)
	}

	cmd, ok := env.Command.(*command.MarketTrade)
	if !ok {
		t.Fatalf("command is %T, want *MarketTrade", env.Command)
	}
	if cmd.AssetIn != "usei" || cmd.AssetOut != "atom" || cmd.AmountIn != 1000 ||
		cmd.MinAmountOut != 900 || cmd.Deadline != 1700000600 {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestParseEnvelope_CreateLimitOrderPrice(t *testing.T) {
	raw := []byte(`{
		"sender": "alice",
		"command_type": "create_limit_order",
		"data": {
			"asset_in": "usei",
			"asset_out": "atom",
			"amount_in": 500,
			"price": "1.25",
			"deadline": 99
		}
	}`)

	env, err := command.ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}

	cmd := env.Command.(*command.CreateLimitOrder)
	if !cmd.Price.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("price = %s, want 1.25", cmd.Price)
	}
}

func TestParseEnvelope_UpdateConfigPartial(t *testing.T) {
	raw := []byte(`{
		"sender": "admin",
		"command_type": "update_config",
		"data": {"fee_collector": "fc2"}
	}`)

	env, err := command.ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}

	cmd := env.Command.(*command.UpdateConfig)
	if cmd.Admin != nil || cmd.OrderBook != nil || cmd.LiquidityFactory != nil {
		t.Errorf("unset fields should stay nil: %+v", cmd)
	}
	if cmd.FeeCollector == nil || *cmd.FeeCollector != "fc2" {
		t.Errorf("fee_collector not parsed: %+v", cmd)
	}
}

func TestParseEnvelope_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing sender", `{"command_type": "cancel_order", "data": {"order_id": "x"}}`},
		{"unknown type", `{"sender": "a", "command_type": "stake", "data": {}}`},
		{"bad command id", `{"sender": "a", "command_id": "nope", "command_type": "cancel_order", "data": {"order_id": "x"}}`},
		{"negative funds", `{"sender": "a", "funds": [{"asset": "usei", "amount": -5}], "command_type": "cancel_order", "data": {"order_id": "x"}}`},
		{"missing order id", `{"sender": "a", "command_type": "cancel_order", "data": {}}`},
		{"bad rate", `{"sender": "a", "command_type": "update_fee_rate", "data": {"asset": "usei", "rate": "lots"}}`},
		{"bad price", `{"sender": "a", "command_type": "create_limit_order", "data": {"asset_in": "usei", "asset_out": "atom", "amount_in": 1, "price": "?", "deadline": 1}}`},
		{"malformed json", `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := command.ParseEnvelope([]byte(tc.raw)); err == nil {
				t.Errorf("expected parse error for %s", tc.name)
			}
		})
	}
}

func TestParseEnvelope_GeneratesCommandID(t *testing.T) {
	raw := []byte(`{
		"sender": "alice",
		"command_type": "cancel_order",
		"data": {"order_id": "1-alice-usei-atom"}
	}`)

	env, err := command.ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if env.ID == uuid.Nil {
		t.Error("envelope without command_id should get a generated one")
	}
}

func TestType_Strings(t *testing.T) {
	if command.TypeMarketTrade.String() != "execute_market_trade" {
		t.Errorf("unexpected name: %s", command.TypeMarketTrade)
	}
	if command.TypeEmergencyWithdraw.String() != "emergency_withdraw" {
		t.Errorf("unexpected name: %s", command.TypeEmergencyWithdraw)
	}
	if command.Type(99).String() != "unknown" {
		t.Errorf("out-of-range type should stringify as unknown")
	}
}
