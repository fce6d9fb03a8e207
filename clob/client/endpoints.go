package client

// Exchange REST endpoints.
const (
	EndpointTime = "/time"

	// API key endpoints
	EndpointCreateAPIKey = "/auth/api-key"
	EndpointDeriveAPIKey = "/auth/derive-api-key"
	EndpointDeleteAPIKey = "/auth/api-key"

	// Order endpoints
	EndpointPostOrder     = "/order"
	EndpointCancelOrder   = "/order"
	EndpointGetOrder      = "/data/order/"
	EndpointGetOpenOrders = "/data/orders"

	// Market data endpoints
	EndpointGetTickSize  = "/tick-size"
	EndpointGetOrderBook = "/book"
	EndpointGetMidpoint  = "/midpoint"
	EndpointGetPrice     = "/price"

	// Account endpoints
	EndpointGetBalanceAllowance = "/balance-allowance"
)
