package client

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/internal/journal"
	"github.com/betkit/polytrade/pkg/cache"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/ratelimit"
)

// Options configure a trading client. Wallet is required; TxSigner is
// only needed for flows that write to chain (proxy deployment, relayed
// calls, direct approvals) and stays nil for bridge-backed wallets.
type Options struct {
	Host         string
	Chain        types.Chain
	Venue        string
	RPCEndpoints []string

	// Contracts overrides the chain's pinned address set, for test
	// deployments. Leave nil for the verified defaults.
	Contracts *ContractConfig

	Wallet      signing.Wallet
	TxSigner    TxSigner
	AccountType types.AccountType

	CredentialTTL time.Duration
	PollInterval  time.Duration
	PollAttempts  int
	StatusDelay   time.Duration

	Journal *journal.Journal
}

// Client is the trading surface: it owns the session, the chain and
// REST transports, and the component managers, and exposes the trade
// lifecycle end to end.
type Client struct {
	host    string
	venue   Venue
	wallet  signing.Wallet
	session *Session

	http   *httpClient
	chainc *ChainClient
	pool   *ReaderPool
	limits *ratelimit.Manager
	ticks  *cache.InMemoryCache[string, types.TickSize]

	auth      *SessionAuthenticator
	nonces    *NonceResolver
	signer    *OrderSigner
	submitter *OrderSubmitter
	proxyMgr  *ProxyAccountManager
	approvals *ApprovalManager

	journal *journal.Journal
}

func New(opts Options) (*Client, error) {
	if opts.Wallet == nil {
		return nil, pkgerrors.New("a wallet is required")
	}
	if opts.Host == "" {
		return nil, pkgerrors.New("exchange host is required")
	}
	if opts.Chain == 0 {
		opts.Chain = types.ChainPolygon
	}
	if opts.AccountType == "" {
		opts.AccountType = types.AccountTypeEOA
	}
	venue, err := VenueFor(opts.Venue)
	if err != nil {
		return nil, err
	}
	contracts := opts.Contracts
	if contracts == nil {
		contracts, err = GetContractConfig(opts.Chain)
		if err != nil {
			return nil, err
		}
	}

	pool, err := NewReaderPool(opts.RPCEndpoints, walletReader(opts.Wallet))
	if err != nil {
		return nil, err
	}
	chainc, err := NewChainClient(pool, opts.Chain, contracts, opts.PollInterval, opts.PollAttempts)
	if err != nil {
		pool.Close()
		return nil, err
	}

	httpc := newHTTPClient(opts.Host)
	limits := ratelimit.NewManager()
	auth := NewSessionAuthenticator(httpc, opts.Wallet, opts.Chain, limits)
	session := NewSession(opts.Wallet.Address().Hex(), opts.AccountType, opts.CredentialTTL)
	nonces := NewNonceResolver(chainc, venue)
	proxyMgr := NewProxyAccountManager(chainc, opts.Wallet, opts.TxSigner)

	return &Client{
		host:      strings.TrimSuffix(opts.Host, "/"),
		venue:     venue,
		wallet:    opts.Wallet,
		session:   session,
		http:      httpc,
		chainc:    chainc,
		pool:      pool,
		limits:    limits,
		ticks:     cache.NewInMemoryCache[string, types.TickSize](10 * time.Minute),
		auth:      auth,
		nonces:    nonces,
		signer:    NewOrderSigner(opts.Wallet, chainc, venue, nonces),
		submitter: NewOrderSubmitter(httpc, auth, limits, opts.StatusDelay),
		proxyMgr:  proxyMgr,
		approvals: NewApprovalManager(chainc, venue, proxyMgr, opts.TxSigner),
		journal:   opts.Journal,
	}, nil
}

// walletReader surfaces the wallet's own read path when it has one.
func walletReader(w signing.Wallet) signing.ChainReader {
	if r, okCast := w.(signing.ChainReader); okCast {
		return r
	}
	return nil
}

func (c *Client) Close() error {
	c.pool.Close()
	return c.journal.Close()
}

func (c *Client) Host() string           { return c.host }
func (c *Client) Session() *Session      { return c.session }
func (c *Client) Chain() *ChainClient    { return c.chainc }
func (c *Client) VenueName() string      { return c.venue.Name() }
func (c *Client) Wallet() signing.Wallet { return c.wallet }

// SetAccount switches the session account, dropping every cache tied
// to the previous one.
func (c *Client) SetAccount(address string, accountType types.AccountType) {
	c.session.SetAccount(address, accountType)
}

// ProxyAccount resolves the session's proxy account, serving the
// cached answer while the account is unchanged.
func (c *Client) ProxyAccount(ctx context.Context) (*types.ProxyAccount, error) {
	if cached := c.session.Proxy(); cached != nil && cached.State == types.DeploymentDeployed {
		return cached, nil
	}
	account, err := c.proxyMgr.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	c.session.SetProxy(account)
	return account, nil
}

// DeployProxy makes sure the session's proxy account exists on chain.
func (c *Client) DeployProxy(ctx context.Context, progress *Progress) (*types.ProxyAccount, error) {
	account, err := c.proxyMgr.Deploy(ctx, progress)
	if err != nil {
		return nil, err
	}
	c.session.SetProxy(account)
	return account, nil
}

// fundingAddress is where balances, allowances and fills live: the
// proxy for delegated accounts, the wallet itself otherwise.
func (c *Client) fundingAddress(ctx context.Context) (common.Address, error) {
	if c.session.AccountType() != types.AccountTypeProxy {
		return c.wallet.Address(), nil
	}
	account, err := c.ProxyAccount(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(account.Address), nil
}

// CheckApprovals re-derives the approval triple for the session's
// funding address and caches the answer.
func (c *Client) CheckApprovals(ctx context.Context) (*types.ApprovalStatus, error) {
	owner, err := c.fundingAddress(ctx)
	if err != nil {
		return nil, err
	}
	status, err := c.approvals.Check(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.session.SetApprovals(status)
	return status, nil
}

// EnsureApprovals grants whatever the approval check found missing,
// then re-checks so the cache reflects chain state.
func (c *Client) EnsureApprovals(ctx context.Context, progress *Progress) (*types.ApprovalStatus, error) {
	status, err := c.CheckApprovals(ctx)
	if err != nil {
		return nil, err
	}
	if status.AllApproved() {
		return status, nil
	}
	var proxyAddr common.Address
	if c.session.AccountType() == types.AccountTypeProxy {
		account, err := c.ProxyAccount(ctx)
		if err != nil {
			return nil, err
		}
		proxyAddr = common.HexToAddress(account.Address)
	}
	if err := c.approvals.Grant(ctx, c.session.AccountType(), proxyAddr, status, progress); err != nil {
		return nil, err
	}
	return c.CheckApprovals(ctx)
}

// BuildOrder assembles an unsigned order for the given market tick.
// The account defaults to the session wallet when the input leaves it
// empty.
func (c *Client) BuildOrder(in *types.TradeInput, tick types.TickSize) (*types.UnsignedOrder, error) {
	if in.Address == "" {
		in.Address = c.session.Address()
	}
	rounder, err := NewAmountRounder(tick)
	if err != nil {
		return nil, err
	}
	return NewOrderBuilder(rounder, c.venue).Build(in)
}

// SignOrder finalizes and signs an assembled order for the session
// account.
func (c *Client) SignOrder(ctx context.Context, order *types.UnsignedOrder) (*types.SignedOrder, error) {
	proxyAddress := ""
	if c.session.AccountType() == types.AccountTypeProxy {
		account, err := c.ProxyAccount(ctx)
		if err != nil {
			return nil, err
		}
		proxyAddress = account.Address
	}
	return c.signer.Sign(ctx, order, c.session.AccountType(), proxyAddress)
}

// Authenticate establishes API credentials for the session.
func (c *Client) Authenticate(ctx context.Context) (*types.ApiKeyCreds, error) {
	return c.auth.Authenticate(ctx, c.session)
}

// SubmitOrder posts a signed order and journals the outcome.
func (c *Client) SubmitOrder(ctx context.Context, signed *types.SignedOrder, orderType types.OrderType, progress *Progress) (*types.OrderResponse, error) {
	resp, err := c.submitter.Submit(ctx, c.session, signed, orderType, progress)
	if err != nil {
		return nil, err
	}
	c.journalSubmission(ctx, signed, orderType, resp, "")
	return resp, nil
}

func (c *Client) journalSubmission(ctx context.Context, signed *types.SignedOrder, orderType types.OrderType, resp *types.OrderResponse, market string) {
	if c.journal == nil || resp.OrderID == "" {
		return
	}
	entry := &journal.Entry{
		OrderID:     resp.OrderID,
		Market:      market,
		AssetID:     signed.Order.TokenID,
		Side:        string(signed.Order.Side),
		Price:       signed.Order.Price,
		MakerAmount: signed.Order.MakerAmount,
		TakerAmount: signed.Order.TakerAmount,
		Maker:       signed.Order.Maker,
		Salt:        signed.Order.Salt,
		Nonce:       signed.Order.Nonce,
		OrderType:   string(orderType),
		Status:      resp.Status,
		SubmittedAt: signed.SignedAt,
	}
	if err := c.journal.RecordSubmission(ctx, entry); err != nil {
		logger.Warnf("journal write failed for %s: %v", entry.OrderID, err)
	}
}

// OrderStatus fetches one order, scoped by token when known.
func (c *Client) OrderStatus(ctx context.Context, orderID, tokenID string) (*types.OpenOrder, error) {
	return c.submitter.Status(ctx, c.session, orderID, tokenID)
}

// OpenOrders lists the session account's resting orders.
func (c *Client) OpenOrders(ctx context.Context, query *OpenOrdersQuery) (*types.OpenOrdersResponse, error) {
	return c.submitter.OpenOrders(ctx, c.session, query)
}

// CancelOrder withdraws a resting order and journals the result.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*types.CancelResponse, error) {
	resp, err := c.submitter.Cancel(ctx, c.session, orderID)
	if err != nil {
		return nil, err
	}
	if c.journal != nil {
		for _, id := range resp.Canceled {
			if err := c.journal.UpdateStatus(ctx, id, "canceled"); err != nil {
				logger.Warnf("journal update failed for %s: %v", id, err)
			}
		}
	}
	return resp, nil
}

// WithdrawProxyCollateral relays a collateral transfer from the proxy
// back to the owner wallet.
func (c *Client) WithdrawProxyCollateral(ctx context.Context, amount decimal.Decimal, progress *Progress) (string, error) {
	account, err := c.ProxyAccount(ctx)
	if err != nil {
		return "", err
	}
	if account.State != types.DeploymentDeployed {
		return "", pkgerrors.Wrapf(ErrNotDeployed, "proxy %s", account.Address)
	}
	return c.proxyMgr.WithdrawCollateral(ctx, common.HexToAddress(account.Address), amount, progress)
}

// CollateralBalance reads the funding address's collateral balance in
// human units.
func (c *Client) CollateralBalance(ctx context.Context) (decimal.Decimal, error) {
	owner, err := c.fundingAddress(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	raw, err := c.chainc.CollateralBalance(ctx, owner)
	if err != nil {
		return decimal.Zero, err
	}
	return FromTokenUnits(raw, CollateralTokenDecimals), nil
}
