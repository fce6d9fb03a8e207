package client

import (
	"context"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/pkg/ratelimit"
)

// TickSize fetches the market's minimum price increment for a token.
// Feed the answer to BuildOrder so the rounding table matches what the
// venue enforces. Answers are cached with an expiry: the venue
// tightens tick size when the price nears a bound, so a stale answer
// must age out.
func (c *Client) TickSize(ctx context.Context, tokenID string) (types.TickSize, error) {
	if tick, ok := c.ticks.Get(tokenID); ok {
		return tick, nil
	}
	if err := c.limits.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return "", err
	}
	var resp types.TickSizeResponse
	params := map[string]string{"token_id": tokenID}
	if err := c.http.get(ctx, EndpointGetTickSize, nil, params, &resp); err != nil {
		return "", pkgerrors.Wrapf(err, "tick size for %s", tokenID)
	}
	tick, err := types.ParseTickSize(resp.MinimumTickSize.String())
	if err != nil {
		return "", err
	}
	c.ticks.Set(tokenID, tick, 0)
	return tick, nil
}

// OrderBook fetches the book snapshot for a token.
func (c *Client) OrderBook(ctx context.Context, tokenID string) (*types.OrderBookSummary, error) {
	if err := c.limits.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return nil, err
	}
	var book types.OrderBookSummary
	params := map[string]string{"token_id": tokenID}
	if err := c.http.get(ctx, EndpointGetOrderBook, nil, params, &book); err != nil {
		return nil, pkgerrors.Wrapf(err, "order book for %s", tokenID)
	}
	return &book, nil
}

// MidpointPrice fetches the current bid/ask midpoint for a token.
func (c *Client) MidpointPrice(ctx context.Context, tokenID string) (decimal.Decimal, error) {
	if err := c.limits.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return decimal.Zero, err
	}
	var resp types.MidpointResponse
	params := map[string]string{"token_id": tokenID}
	if err := c.http.get(ctx, EndpointGetMidpoint, nil, params, &resp); err != nil {
		return decimal.Zero, pkgerrors.Wrapf(err, "midpoint for %s", tokenID)
	}
	mid, err := decimal.NewFromString(resp.Mid)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrapf(err, "midpoint %q", resp.Mid)
	}
	return mid, nil
}

// BestPrice fetches the best resting price on one side of the book.
func (c *Client) BestPrice(ctx context.Context, tokenID string, side types.Side) (decimal.Decimal, error) {
	if err := c.limits.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return decimal.Zero, err
	}
	var resp types.PriceResponse
	params := map[string]string{"token_id": tokenID, "side": string(side)}
	if err := c.http.get(ctx, EndpointGetPrice, nil, params, &resp); err != nil {
		return decimal.Zero, pkgerrors.Wrapf(err, "best price for %s", tokenID)
	}
	price, err := decimal.NewFromString(resp.Price)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrapf(err, "price %q", resp.Price)
	}
	return price, nil
}

// BalanceAllowance reads the venue's own view of the session account's
// balance and exchange allowance, in raw token units. Requires API
// credentials; chain reads stay the source of truth for preconditions.
func (c *Client) BalanceAllowance(ctx context.Context, params *types.BalanceAllowanceParams) (*types.BalanceAllowanceResponse, error) {
	if _, err := c.auth.Authenticate(ctx, c.session); err != nil {
		return nil, err
	}
	headers, err := c.auth.RequestHeaders(ctx, c.session, &types.L2HeaderArgs{
		Method:      "GET",
		RequestPath: EndpointGetBalanceAllowance,
	})
	if err != nil {
		return nil, err
	}

	sigType := types.SignatureTypeEOA
	if c.session.AccountType() == types.AccountTypeProxy {
		sigType = types.SignatureTypeProxy
	}
	query := map[string]string{
		"asset_type":     string(params.AssetType),
		"signature_type": strconv.Itoa(int(sigType)),
	}
	if params.TokenID != "" {
		query["token_id"] = params.TokenID
	}

	if err := c.limits.Wait(ctx, ratelimit.KeyMarketData); err != nil {
		return nil, err
	}
	var resp types.BalanceAllowanceResponse
	if err := c.http.get(ctx, EndpointGetBalanceAllowance, headers, query, &resp); err != nil {
		return nil, pkgerrors.Wrap(err, "balance allowance")
	}
	return &resp, nil
}
