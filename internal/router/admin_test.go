package router_test

import (
	"RouterLedger/internal/command"
	"RouterLedger/internal/router"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Test: UpdateConfig
// ============================================================================

func TestUpdateConfig_PartialUpdate(t *testing.T) {
	r, _ := newTestRouter(t)

	collector := "fc2"
	if _, err := r.UpdateConfig(call("admin", 100), &command.UpdateConfig{
		FeeCollector: &collector,
	}); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}

	config, _ := r.Config()
	if config.FeeCollector != "fc2" {
		t.Errorf("fee collector = %s, want fc2", config.FeeCollector)
	}
	if config.Admin != "admin" || config.OrderBook != "ob" || config.LiquidityFactory != "lf" {
		t.Errorf("omitted fields must be untouched: %+v", config)
	}
}

func TestUpdateConfig_AdminHandoff(t *testing.T) {
	r, _ := newTestRouter(t)

	next := "admin2"
	if _, err := r.UpdateConfig(call("admin", 100), &command.UpdateConfig{Admin: &next}); err != nil {
		t.Fatalf("handoff: %v", err)
	}

	// The old admin is immediately locked out.
	if _, err := r.UpdateConfig(call("admin", 200), &command.UpdateConfig{Admin: &next}); !errors.Is(err, router.ErrUnauthorized) {
		t.Errorf("old admin: err = %v, want ErrUnauthorized", err)
	}

	ob := "ob2"
	if _, err := r.UpdateConfig(call("admin2", 200), &command.UpdateConfig{OrderBook: &ob}); err != nil {
		t.Errorf("new admin should be authorized: %v", err)
	}
}

// ============================================================================
// Test: UpdateFeeRate
// ============================================================================

func TestUpdateFeeRate_SetsRate(t *testing.T) {
	r, _ := newTestRouter(t)

	rate := decimal.New(5, -3) // 0.5%
	if _, err := r.UpdateFeeRate(call("admin", 100), &command.UpdateFeeRate{
		Asset: "uatom",
		Rate:  rate,
	}); err != nil {
		t.Fatalf("UpdateFeeRate: %v", err)
	}

	fee, _ := r.FeeInfo("uatom")
	if !fee.Rate.Equal(rate) {
		t.Errorf("rate = %s, want %s", fee.Rate, rate)
	}
	if !fee.IsActive {
		t.Error("a freshly created fee record must be active")
	}
	if fee.Collected != 0 {
		t.Errorf("collected = %d, want 0", fee.Collected)
	}
}

func TestUpdateFeeRate_PreservesCollected(t *testing.T) {
	r, _ := newTestRouter(t)

	// Collect a fee first, then change the rate; the accumulator survives.
	if _, err := r.MarketTrade(call("user", 100), &command.MarketTrade{
		AssetIn: "usei", AssetOut: "uusdc", AmountIn: 1000, Deadline: farFuture,
	}); err != nil {
		t.Fatalf("MarketTrade: %v", err)
	}

	if _, err := r.UpdateFeeRate(call("admin", 200), &command.UpdateFeeRate{
		Asset: "usei",
		Rate:  decimal.New(5, -3),
	}); err != nil {
		t.Fatalf("UpdateFeeRate: %v", err)
	}

	fee, _ := r.FeeInfo("usei")
	if fee.Collected != 2 {
		t.Errorf("collected = %d, want 2 preserved across the rate change", fee.Collected)
	}
}

func TestUpdateFeeRate_Bounds(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		rate decimal.Decimal
		ok   bool
	}{
		{"zero", decimal.Zero, true},
		{"exactly max", decimal.New(1, -1), true},
		{"above max", decimal.New(11, -2), false},
		{"negative", decimal.New(-1, -2), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.UpdateFeeRate(call("admin", 100), &command.UpdateFeeRate{
				Asset: "uatom",
				Rate:  tc.rate,
			})
			if tc.ok && err != nil {
				t.Errorf("rate %s should be accepted: %v", tc.rate, err)
			}
			if !tc.ok && !errors.Is(err, router.ErrInvalidFeeRate) {
				t.Errorf("rate %s: err = %v, want ErrInvalidFeeRate", tc.rate, err)
			}
		})
	}

	// Repeating an out-of-range update fails identically and leaves no
	// trace in state.
	for i := 0; i < 2; i++ {
		_, err := r.UpdateFeeRate(call("admin", 100), &command.UpdateFeeRate{
			Asset: "ubad",
			Rate:  decimal.New(2, -1),
		})
		if !errors.Is(err, router.ErrInvalidFeeRate) {
			t.Fatalf("attempt %d: err = %v, want ErrInvalidFeeRate", i, err)
		}
	}
	fee, _ := r.FeeInfo("ubad")
	if !fee.Rate.Equal(decimal.New(25, -4)) {
		t.Errorf("failed updates must not write a record: %s", fee.Rate)
	}
}

// ============================================================================
// Test: EmergencyWithdraw
// ============================================================================

func TestEmergencyWithdraw_TransfersToAdmin(t *testing.T) {
	r, _ := newTestRouter(t)

	resp, err := r.EmergencyWithdraw(call("admin", 100), &command.EmergencyWithdraw{
		Asset:  "usei",
		Amount: 5000,
	})
	if err != nil {
		t.Fatalf("EmergencyWithdraw: %v", err)
	}

	if len(resp.Transfers) != 1 {
		t.Fatalf("want one transfer, got %d", len(resp.Transfers))
	}
	tr := resp.Transfers[0]
	if tr.Recipient != "admin" || tr.Asset != "usei" || tr.Amount != 5000 {
		t.Errorf("unexpected transfer: %+v", tr)
	}
}

func TestEmergencyWithdraw_DoesNotTouchLiquidityLedger(t *testing.T) {
	r, _ := newTestRouter(t)

	if _, err := r.AddLiquidity(call("alice", 100), &command.AddLiquidity{
		AssetA: "usei", AssetB: "uatom", AmountA: 300, AmountB: 300,
	}); err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}

	if _, err := r.EmergencyWithdraw(call("admin", 200), &command.EmergencyWithdraw{
		Asset:  "usei",
		Amount: 300,
	}); err != nil {
		t.Fatalf("EmergencyWithdraw: %v", err)
	}

	// The withdrawal is an outbound transfer only; per-user balances are
	// deliberately left alone.
	bal, _ := r.UserLiquidity("alice", "usei")
	if bal != 300 {
		t.Errorf("alice's balance = %d, want 300 untouched", bal)
	}
}

func TestEmergencyWithdraw_ZeroAmount(t *testing.T) {
	r, _ := newTestRouter(t)

	_, err := r.EmergencyWithdraw(call("admin", 100), &command.EmergencyWithdraw{
		Asset:  "usei",
		Amount: 0,
	})
	if !errors.Is(err, router.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}
}

// ============================================================================
// Test: admin gating
// ============================================================================

func TestAdminOperations_RejectNonAdmin(t *testing.T) {
	r, _ := newTestRouter(t)
	collector := "x"

	ops := []struct {
		name string
		run  func() error
	}{
		{"update_config", func() error {
			_, err := r.UpdateConfig(call("mallory", 100), &command.UpdateConfig{FeeCollector: &collector})
			return err
		}},
		{"update_fee_rate", func() error {
			_, err := r.UpdateFeeRate(call("mallory", 100), &command.UpdateFeeRate{Asset: "usei", Rate: decimal.New(1, -2)})
			return err
		}},
		{"emergency_withdraw", func() error {
			_, err := r.EmergencyWithdraw(call("mallory", 100), &command.EmergencyWithdraw{Asset: "usei", Amount: 100})
			return err
		}},
	}

	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if err := op.run(); !errors.Is(err, router.ErrUnauthorized) {
				t.Errorf("err = %v, want ErrUnauthorized", err)
			}
		})
	}

	config, _ := r.Config()
	if config.FeeCollector != "fc" {
		t.Errorf("rejected update must not change config: %+v", config)
	}
}

// ============================================================================
// Test: dispatch and error codes
// ============================================================================

func TestExecute_DispatchesByCommandType(t *testing.T) {
	r, _ := newTestRouter(t)

	resp, err := r.Execute(call("user", 100), &command.MarketTrade{
		AssetIn: "usei", AssetOut: "uusdc", AmountIn: 1000, Deadline: farFuture,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Attribute("method") != "execute_market_trade" {
		t.Errorf("method = %s, want execute_market_trade", resp.Attribute("method"))
	}
}

func TestErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{router.ErrUnauthorized, "unauthorized"},
		{router.ErrInsufficientOutputAmount, "insufficient_output_amount"},
		{&router.UnsupportedTokenError{Token: "uatom"}, "unsupported_token"},
		{errors.New("disk on fire"), "internal"},
	}
	for _, tc := range cases {
		if got := router.Code(tc.err); got != tc.want {
			t.Errorf("Code(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}
