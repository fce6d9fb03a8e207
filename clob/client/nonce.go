package client

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/betkit/polytrade/pkg/logger"
)

// NonceResolver asks the exchange contract for a maker's replay floor
// across every read path and keeps the highest answer. When no path
// answers it proposes zero and lets the exchange arbitrate at
// submission time.
type NonceResolver struct {
	chain *ChainClient
	venue Venue
}

func NewNonceResolver(chain *ChainClient, venue Venue) *NonceResolver {
	return &NonceResolver{chain: chain, venue: venue}
}

// Resolve returns the nonce to sign with. A locally proposed nonce is
// only ever raised to the chain's answer, never lowered.
func (r *NonceResolver) Resolve(ctx context.Context, maker string, proposed int64) int64 {
	exchange := common.HexToAddress(r.venue.ExchangeAddress(r.chain.Contracts()))
	best, n := r.chain.MinNonce(ctx, exchange, common.HexToAddress(maker))
	if n == 0 {
		logger.Warnf("nonce read failed on all paths for %s, proposing %d", maker, proposed)
		if proposed < 0 {
			return 0
		}
		return proposed
	}
	resolved := best.Int64()
	if proposed > resolved {
		return proposed
	}
	return resolved
}
