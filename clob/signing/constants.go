package signing

const (
	// ClobAuthDomainName is the typed-data domain for the API-key
	// attestation. It has no verifying contract: the message never
	// touches chain.
	ClobAuthDomainName = "ClobAuthDomain"

	// ClobAuthVersion is the attestation domain version.
	ClobAuthVersion = "1"

	// MsgToSign is the fixed attestation phrase the exchange verifies.
	MsgToSign = "This message attests that I control the given wallet"

	// OrderDomainName is the typed-data domain of the exchange order.
	OrderDomainName = "Polymarket CTF Exchange"

	// OrderDomainVersion is the order domain version.
	OrderDomainVersion = "1"

	// ProxyFactoryDomainName is the typed-data domain of the proxy
	// deployment authorization. Deployment, relay and order messages each
	// keep their own domain so a signature for one can never verify as
	// another.
	ProxyFactoryDomainName = "PolyProxyFactory"

	// ProxyFactoryDomainVersion is the factory domain version.
	ProxyFactoryDomainVersion = "1"
)
