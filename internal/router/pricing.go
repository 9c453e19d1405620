package router

import "github.com/shopspring/decimal"

// Quoter computes the output amount for a cross-asset trade. Real deployments
// plug in CLOB or AMM integration here; the router only does the surrounding
// accounting.
type Quoter interface {
	Quote(assetIn, assetOut string, amountIn int64) (int64, error)
}

// FlatQuoter is the reference stand-in: every cross-asset quote keeps a fixed
// fraction of the input. Not a pricing model — a placeholder until a CLOB/AMM
// quoter is wired in.
type FlatQuoter struct {
	Keep decimal.Decimal
}

// NewFlatQuoter returns the default 95%-keep quoter.
func NewFlatQuoter() *FlatQuoter {
	return &FlatQuoter{Keep: decimal.New(95, -2)}
}

func (q *FlatQuoter) Quote(assetIn, assetOut string, amountIn int64) (int64, error) {
	return q.Keep.Mul(decimal.NewFromInt(amountIn)).IntPart(), nil
}

// LiquidityPolicy computes pool credits and redemption splits. The reference
// policy is an explicit placeholder: credit is the plain sum of both legs and
// redemption splits evenly. A proper pool-share formula replaces this without
// touching the router.
type LiquidityPolicy interface {
	// Credit returns the liquidity credited for depositing (amountA, amountB).
	Credit(amountA, amountB int64) int64

	// Split returns the per-asset amounts redeemed for the given liquidity.
	Split(liquidity int64) (amountA, amountB int64)
}

// EvenSplitPolicy is the reference placeholder policy.
type EvenSplitPolicy struct{}

func (EvenSplitPolicy) Credit(amountA, amountB int64) int64 {
	return amountA + amountB
}

func (EvenSplitPolicy) Split(liquidity int64) (int64, int64) {
	return liquidity / 2, liquidity / 2
}
