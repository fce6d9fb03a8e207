package client

import (
	"context"
	"errors"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/internal/metrics"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/ratelimit"
)

// SessionAuthenticator exchanges one wallet attestation for short-lived
// API credentials and turns them into per-request HMAC headers. The
// attestation and the HMAC are unrelated signature schemes and never
// substitute for each other.
type SessionAuthenticator struct {
	http   *httpClient
	wallet signing.Wallet
	chain  types.Chain
	limits *ratelimit.Manager
}

func NewSessionAuthenticator(http *httpClient, wallet signing.Wallet, chain types.Chain, limits *ratelimit.Manager) *SessionAuthenticator {
	return &SessionAuthenticator{http: http, wallet: wallet, chain: chain, limits: limits}
}

// Authenticate returns usable credentials for the session, reusing the
// cache while fresh and re-deriving proactively before expiry.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, session *Session) (*types.ApiKeyCreds, error) {
	if creds := session.Creds(); creds != nil {
		return creds, nil
	}
	creds, err := a.deriveOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	creds.IssuedAt = time.Now()
	session.SetCreds(creds)
	logger.Infof("api credentials established for %s", session.Address())
	return creds, nil
}

// Reauthenticate discards cached credentials and derives fresh ones.
// Callers invoke it at most once per rejected request.
func (a *SessionAuthenticator) Reauthenticate(ctx context.Context, session *Session) (*types.ApiKeyCreds, error) {
	metrics.AuthRefreshes.Add(1)
	session.DropCreds()
	return a.Authenticate(ctx, session)
}

// deriveOrCreate asks for the existing API key first, then registers a
// new one when the account has none yet.
func (a *SessionAuthenticator) deriveOrCreate(ctx context.Context) (*types.ApiKeyCreds, error) {
	if err := a.limits.Wait(ctx, ratelimit.KeyAuth); err != nil {
		return nil, err
	}
	headers, err := signing.CreateL1Headers(ctx, a.wallet, a.chain, nil, nil)
	if err != nil {
		return nil, err
	}
	hm := headers.Map()

	var raw types.ApiKeyRaw
	err = a.http.get(ctx, EndpointDeriveAPIKey, hm, nil, &raw)
	if err == nil {
		return a.credsFromRaw(&raw)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatus != http.StatusBadRequest && apiErr.HTTPStatus != http.StatusNotFound {
		return nil, err
	}
	logger.Debugf("api key derive failed, creating a new one: %v", err)

	raw = types.ApiKeyRaw{}
	if err := a.http.post(ctx, EndpointCreateAPIKey, hm, nil, &raw); err != nil {
		return nil, err
	}
	return a.credsFromRaw(&raw)
}

func (a *SessionAuthenticator) credsFromRaw(raw *types.ApiKeyRaw) (*types.ApiKeyCreds, error) {
	if raw.ApiKey == "" || raw.Secret == "" || raw.Passphrase == "" {
		return nil, pkgerrors.New("credential response is incomplete")
	}
	return &types.ApiKeyCreds{
		Key:        raw.ApiKey,
		Secret:     raw.Secret,
		Passphrase: raw.Passphrase,
	}, nil
}

// RequestHeaders builds the HMAC header set for one authenticated
// request. Body must be the exact string that will be sent.
func (a *SessionAuthenticator) RequestHeaders(ctx context.Context, session *Session, args *types.L2HeaderArgs) (map[string]string, error) {
	creds, err := a.Authenticate(ctx, session)
	if err != nil {
		return nil, err
	}
	l2, err := signing.CreateL2Headers(a.wallet.Address().Hex(), creds, session.AccountType(), args, nil)
	if err != nil {
		return nil, err
	}
	return l2.Map(), nil
}
