package state

// Persisted key layout. Singletons are bare keys; maps use a slash-separated
// prefix so a Range over the prefix enumerates the map.
const (
	KeyConfig   = "config"
	KeyStats    = "stats"
	KeyOrderSeq = "order_seq"

	PrefixOrders     = "orders/"
	PrefixUserOrders = "user_orders/"
	PrefixLiquidity  = "liquidity/"
	PrefixFees       = "fees/"
	PrefixEscrow     = "escrow/"
)

func OrderKey(orderID string) string {
	return PrefixOrders + orderID
}

func UserOrdersKey(owner string) string {
	return PrefixUserOrders + owner
}

func LiquidityKey(owner, asset string) string {
	return PrefixLiquidity + owner + "/" + asset
}

func FeeKey(asset string) string {
	return PrefixFees + asset
}

func EscrowKey(orderID string) string {
	return PrefixEscrow + orderID
}
