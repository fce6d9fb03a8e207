package metrics

import "expvar"

var (
	OrdersSubmitted   = expvar.NewInt("orders_submitted")
	OrdersRejected    = expvar.NewInt("orders_rejected")
	AuthRefreshes     = expvar.NewInt("auth_refreshes")
	ChainReadFailures = expvar.NewInt("chain_read_failures")
)
