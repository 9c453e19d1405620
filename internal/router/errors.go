package router

import (
	"errors"
	"fmt"
)

// Rejection taxonomy. Every precondition violation maps to exactly one of
// these; the caller sees the error kind, a human-readable message, and no
// state change. Store decode failures are NOT rejections — they surface as
// plain errors and are treated as corruption by the host.
var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInvalidAmount            = errors.New("invalid amount")
	ErrSameToken                = errors.New("same token")
	ErrTradeExpired             = errors.New("trade expired")
	ErrOrderExpired             = errors.New("order expired")
	ErrOrderNotFound            = errors.New("order not found")
	ErrOrderNotActive           = errors.New("order not active")
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	ErrInsufficientLiquidity    = errors.New("insufficient liquidity")
	ErrInsufficientBalance      = errors.New("insufficient balance")
	ErrFeeCollectionInactive    = errors.New("fee collection inactive")
	ErrInvalidFeeRate           = errors.New("invalid fee rate")
	ErrPaymentRequired          = errors.New("payment required")
)

// UnsupportedTokenError reports a fee-bearing trade in an asset the ledger
// cannot transfer directly.
type UnsupportedTokenError struct {
	Token string
}

func (e *UnsupportedTokenError) Error() string {
	return fmt.Sprintf("unsupported token: %s", e.Token)
}

// Code maps an operation error to a stable snake_case identifier for wire
// responses and metric labels.
func Code(err error) string {
	var ute *UnsupportedTokenError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrSameToken):
		return "same_token"
	case errors.Is(err, ErrTradeExpired):
		return "trade_expired"
	case errors.Is(err, ErrOrderExpired):
		return "order_expired"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrOrderNotActive):
		return "order_not_active"
	case errors.Is(err, ErrInsufficientOutputAmount):
		return "insufficient_output_amount"
	case errors.Is(err, ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrFeeCollectionInactive):
		return "fee_collection_inactive"
	case errors.Is(err, ErrInvalidFeeRate):
		return "invalid_fee_rate"
	case errors.Is(err, ErrPaymentRequired):
		return "payment_required"
	case errors.As(err, &ute):
		return "unsupported_token"
	default:
		return "internal"
	}
}

// IsRejection reports whether err is a user-correctable precondition
// violation as opposed to state corruption or an infrastructure failure.
func IsRejection(err error) bool {
	return Code(err) != "internal"
}
