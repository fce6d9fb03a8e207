package types

import "time"

// ApiKeyCreds are the exchange API credentials obtained for a session.
// They live in memory only and are never persisted.
type ApiKeyCreds struct {
	Key        string
	Secret     string
	Passphrase string

	// IssuedAt is when the credentials were obtained, used to refresh
	// them before their lifetime elapses.
	IssuedAt time.Time
}

// Stale reports whether the credentials should be refreshed before the
// next authenticated request. A small margin is kept so a request never
// goes out with credentials about to expire mid-flight.
func (c *ApiKeyCreds) Stale(ttl time.Duration, now time.Time) bool {
	if c == nil || c.Key == "" {
		return true
	}
	if ttl <= 0 {
		return false
	}
	margin := ttl / 10
	return now.After(c.IssuedAt.Add(ttl - margin))
}

// ApiKeyRaw is the wire format the exchange returns credentials in.
type ApiKeyRaw struct {
	ApiKey     string `json:"apiKey"`
	Secret     string `json:"secret"`
	Passphrase string `json:"passphrase"`
}
