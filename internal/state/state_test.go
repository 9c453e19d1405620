package state_test

import (
	"RouterLedger/internal/state"
	"RouterLedger/internal/store"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadConfig_MissingIsError(t *testing.T) {
	s := store.NewMemStore()

	_, err := state.LoadConfig(s)
	if err == nil {
		t.Error("missing config should be a fatal error, not a default")
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	s := store.NewMemStore()
	state.SaveConfig(s, state.Config{
		Admin:            "admin",
		FeeCollector:     "fc",
		OrderBook:        "ob",
		LiquidityFactory: "lf",
	})

	c, err := state.LoadConfig(s)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Admin != "admin" || c.FeeCollector != "fc" {
		t.Errorf("unexpected config: %+v", c)
	}
}

func TestResolveFeeInfo_DefaultsWhenAbsent(t *testing.T) {
	s := store.NewMemStore()

	fi, err := state.ResolveFeeInfo(s, "atom")
	if err != nil {
		t.Fatalf("ResolveFeeInfo: %v", err)
	}
	if !fi.Rate.Equal(decimal.New(25, -4)) {
		t.Errorf("default rate = %s, want 0.0025", fi.Rate)
	}
	if fi.Collected != 0 || !fi.IsActive {
		t.Errorf("default record should be empty and active: %+v", fi)
	}

	// Resolving a default must not persist anything
	if _, ok, _ := state.LoadFeeInfo(s, "atom"); ok {
		t.Error("resolving a default fee record should not write it")
	}
}

func TestFeeInfo_SaveShadowsDefault(t *testing.T) {
	s := store.NewMemStore()
	state.SaveFeeInfo(s, "usei", state.FeeInfo{
		Rate:      decimal.New(5, -3),
		Collected: 42,
		IsActive:  false,
	})

	fi, err := state.ResolveFeeInfo(s, "usei")
	if err != nil {
		t.Fatalf("ResolveFeeInfo: %v", err)
	}
	if !fi.Rate.Equal(decimal.New(5, -3)) || fi.Collected != 42 || fi.IsActive {
		t.Errorf("stored record should shadow the default: %+v", fi)
	}
}

func TestUserOrders_AppendPreservesOrder(t *testing.T) {
	s := store.NewMemStore()

	if err := state.AppendUserOrder(s, "alice", "1-alice-usei-atom"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := state.AppendUserOrder(s, "alice", "2-alice-usei-btc"); err != nil {
		t.Fatalf("append: %v", err)
	}

	ids, err := state.LoadUserOrders(s, "alice")
	if err != nil {
		t.Fatalf("LoadUserOrders: %v", err)
	}
	if len(ids) != 2 || ids[0] != "1-alice-usei-atom" || ids[1] != "2-alice-usei-btc" {
		t.Errorf("unexpected order-id sequence: %v", ids)
	}

	// Unknown owner defaults to empty, not error
	ids, err = state.LoadUserOrders(s, "bob")
	if err != nil || len(ids) != 0 {
		t.Errorf("unknown owner should yield empty sequence, got %v err=%v", ids, err)
	}
}

func TestNextOrderSeq_Monotonic(t *testing.T) {
	s := store.NewMemStore()

	for want := uint64(1); want <= 3; want++ {
		seq, err := state.NextOrderSeq(s)
		if err != nil {
			t.Fatalf("NextOrderSeq: %v", err)
		}
		if seq != want {
			t.Errorf("seq = %d, want %d", seq, want)
		}
	}
}

func TestLiquidityBalance_ZeroIsStoredNotDeleted(t *testing.T) {
	s := store.NewMemStore()

	state.SetLiquidityBalance(s, "alice", "usei", 500)
	state.SetLiquidityBalance(s, "alice", "usei", 0)

	if _, ok := s.Get(state.LiquidityKey("alice", "usei")); !ok {
		t.Error("zero balance should remain stored as a terminal state")
	}

	bal, err := state.LiquidityBalance(s, "alice", "usei")
	if err != nil || bal != 0 {
		t.Errorf("balance = %d err=%v, want 0", bal, err)
	}
}

func TestEscrow_SaveLoad(t *testing.T) {
	s := store.NewMemStore()
	state.SaveEscrow(s, "7-alice-usei-atom", state.Escrow{
		Asset:  "usei",
		Amount: 1000,
		Funded: true,
	})

	e, ok, err := state.LoadEscrow(s, "7-alice-usei-atom")
	if err != nil || !ok {
		t.Fatalf("LoadEscrow: ok=%v err=%v", ok, err)
	}
	if e.Asset != "usei" || e.Amount != 1000 || !e.Funded {
		t.Errorf("unexpected escrow: %+v", e)
	}

	_, ok, _ = state.LoadEscrow(s, "absent")
	if ok {
		t.Error("absent escrow should report !ok")
	}
}

func TestTradeType_Strings(t *testing.T) {
	cases := map[state.TradeType]string{
		state.TradeTypeMarket:     "market",
		state.TradeTypeLimit:      "limit",
		state.TradeTypeStopLoss:   "stop_loss",
		state.TradeTypeTakeProfit: "take_profit",
	}
	for tt, want := range cases {
		if got := tt.String(); got != want {
			t.Errorf("TradeType(%d).String() = %q, want %q", tt, got, want)
		}
	}
}
