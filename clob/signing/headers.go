package signing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/betkit/polytrade/clob/types"
)

// CreateL1Headers builds the attestation-auth header set. nonce and
// timestamp default to 0 and now when nil.
func CreateL1Headers(ctx context.Context, wallet Wallet, chainID types.Chain, nonce *int64, timestamp *int64) (*types.L1PolyHeader, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}
	n := int64(0)
	if nonce != nil {
		n = *nonce
	}

	sig, err := BuildClobAuthSignature(ctx, wallet, chainID, ts, n)
	if err != nil {
		return nil, fmt.Errorf("build auth signature: %w", err)
	}

	return &types.L1PolyHeader{
		PolyAddress:   wallet.Address().Hex(),
		PolySignature: sig,
		PolyTimestamp: strconv.FormatInt(ts, 10),
		PolyNonce:     strconv.FormatInt(n, 10),
	}, nil
}

// CreateL2Headers builds the API-key header set for one request. The
// HMAC covers exactly the method, path and body passed in.
func CreateL2Headers(address string, creds *types.ApiKeyCreds, accountType types.AccountType, args *types.L2HeaderArgs, timestamp *int64) (*types.L2PolyHeader, error) {
	ts := time.Now().Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	sig, err := BuildPolyHmacSignature(creds.Secret, ts, args.Method, args.RequestPath, args.Body)
	if err != nil {
		return nil, fmt.Errorf("build hmac signature: %w", err)
	}

	return &types.L2PolyHeader{
		PolyAddress:     address,
		PolySignature:   sig,
		PolyTimestamp:   strconv.FormatInt(ts, 10),
		PolyAPIKey:      creds.Key,
		PolyPassphrase:  creds.Passphrase,
		PolyAccountType: string(accountType),
	}, nil
}
