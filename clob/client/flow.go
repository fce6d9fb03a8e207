package client

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/types"
)

// TradeRequest describes one trade through the full flow.
type TradeRequest struct {
	Input     *types.TradeInput
	TickSize  types.TickSize
	OrderType types.OrderType
}

// TradeResult carries everything the flow produced, so a caller can
// report the rounded amounts and the exchange's answer together.
type TradeResult struct {
	Proxy     *types.ProxyAccount
	Approvals *types.ApprovalStatus
	Order     *types.SignedOrder
	Response  *types.OrderResponse
}

// tradeFlow threads one trade through its steps, accumulating state as
// each completes. Steps run strictly in order and the first failure
// stops the flow with the step's name on the error.
type tradeFlow struct {
	client   *Client
	req      *TradeRequest
	progress *Progress

	proxy     *types.ProxyAccount
	approvals *types.ApprovalStatus
	unsigned  *types.UnsignedOrder
	signed    *types.SignedOrder
	resp      *types.OrderResponse
}

type flowStep struct {
	name string
	run  func(ctx context.Context) error
}

// Trade runs the whole lifecycle: account preparation, approvals,
// order construction, signing, authentication and submission. The
// progress stream is closed when the flow returns, whatever the
// outcome.
func (c *Client) Trade(ctx context.Context, req *TradeRequest, progress *Progress) (*TradeResult, error) {
	if req == nil || req.Input == nil {
		return nil, pkgerrors.New("trade request is empty")
	}
	defer progress.Close()

	flow := &tradeFlow{client: c, req: req, progress: progress}
	for _, step := range flow.steps() {
		if err := ctx.Err(); err != nil {
			return flow.result(), pkgerrors.Wrap(err, step.name)
		}
		if err := step.run(ctx); err != nil {
			return flow.result(), pkgerrors.Wrap(err, step.name)
		}
	}
	return flow.result(), nil
}

func (f *tradeFlow) steps() []flowStep {
	return []flowStep{
		{"prepare account", f.prepareAccount},
		{"ensure approvals", f.ensureApprovals},
		{"build order", f.buildOrder},
		{"sign order", f.signOrder},
		{"authenticate", f.authenticate},
		{"submit order", f.submitOrder},
	}
}

func (f *tradeFlow) result() *TradeResult {
	return &TradeResult{
		Proxy:     f.proxy,
		Approvals: f.approvals,
		Order:     f.signed,
		Response:  f.resp,
	}
}

// prepareAccount makes the funding account usable: for proxy sessions
// that means the proxy contract exists on chain. Already-deployed
// proxies resolve without a transaction.
func (f *tradeFlow) prepareAccount(ctx context.Context) error {
	if f.client.session.AccountType() != types.AccountTypeProxy {
		return nil
	}
	account, err := f.client.DeployProxy(ctx, f.progress)
	if err != nil {
		return err
	}
	f.proxy = account
	return nil
}

func (f *tradeFlow) ensureApprovals(ctx context.Context) error {
	status, err := f.client.EnsureApprovals(ctx, f.progress)
	if err != nil {
		return err
	}
	f.approvals = status
	return nil
}

func (f *tradeFlow) buildOrder(ctx context.Context) error {
	in := f.req.Input
	f.progress.Emitf(StageBuild, "building %s order for token %s", in.Side, in.TokenID)
	unsigned, err := f.client.BuildOrder(in, f.req.TickSize)
	if err != nil {
		return err
	}
	f.unsigned = unsigned
	return nil
}

func (f *tradeFlow) signOrder(ctx context.Context) error {
	f.progress.Emitf(StageSign, "checking funds and signing")
	signed, err := f.client.SignOrder(ctx, f.unsigned)
	if err != nil {
		return err
	}
	f.signed = signed
	return nil
}

func (f *tradeFlow) authenticate(ctx context.Context) error {
	f.progress.Emitf(StageAuth, "establishing api credentials")
	_, err := f.client.Authenticate(ctx)
	return err
}

func (f *tradeFlow) submitOrder(ctx context.Context) error {
	orderType := f.req.OrderType
	if orderType == "" {
		orderType = types.OrderTypeGTC
	}
	f.progress.Emitf(StageSubmit, "posting %s order", orderType)
	resp, err := f.client.submitter.Submit(ctx, f.client.session, f.signed, orderType, f.progress)
	if err != nil {
		return err
	}
	f.resp = resp
	f.client.journalSubmission(ctx, f.signed, orderType, resp, f.req.Input.MarketID)
	return nil
}
