package client

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/pkg/logger"
)

const erc20ABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"transfer","type":"function","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const erc1155ABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"isApprovedForAll","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"operator","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"name":"setApprovalForAll","type":"function","stateMutability":"nonpayable","inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],"outputs":[]}
]`

const exchangeABI = `[
  {"name":"nonces","type":"function","stateMutability":"view","inputs":[{"name":"maker","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const proxyFactoryABI = `[
  {"name":"computeProxyAddress","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"address"}]},
  {"name":"createProxy","type":"function","stateMutability":"nonpayable","inputs":[{"name":"owner","type":"address"},{"name":"signature","type":"bytes"}],"outputs":[{"name":"","type":"address"}]}
]`

const proxyWalletABI = `[
  {"name":"nonce","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"name":"execTransaction","type":"function","stateMutability":"payable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},{"name":"operation","type":"uint8"},{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},{"name":"refundReceiver","type":"address"},{"name":"signatures","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]}
]`

const fallbackGasLimit = uint64(400000)

// TxSigner signs raw transactions for broadcast. Only local keys can
// do this; bridge wallets sign typed data exclusively, so chain writes
// require a local signing account.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)
}

// ChainClient performs contract reads through the redundant pool and
// writes through the primary endpoint.
type ChainClient struct {
	pool         *ReaderPool
	chain        types.Chain
	chainID      *big.Int
	contracts    *ContractConfig
	pollInterval time.Duration
	pollAttempts int

	erc20    abi.ABI
	erc1155  abi.ABI
	exchange abi.ABI
	factory  abi.ABI
	proxy    abi.ABI
}

func NewChainClient(pool *ReaderPool, chain types.Chain, contracts *ContractConfig, pollInterval time.Duration, pollAttempts int) (*ChainClient, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if pollAttempts <= 0 {
		pollAttempts = 45
	}
	c := &ChainClient{
		pool:         pool,
		chain:        chain,
		chainID:      big.NewInt(int64(chain)),
		contracts:    contracts,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
	for _, def := range []struct {
		dst  *abi.ABI
		json string
	}{
		{&c.erc20, erc20ABI},
		{&c.erc1155, erc1155ABI},
		{&c.exchange, exchangeABI},
		{&c.factory, proxyFactoryABI},
		{&c.proxy, proxyWalletABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(def.json))
		if err != nil {
			return nil, pkgerrors.Wrap(err, "parse contract abi")
		}
		*def.dst = parsed
	}
	return c, nil
}

func (c *ChainClient) Pool() *ReaderPool          { return c.pool }
func (c *ChainClient) Chain() types.Chain         { return c.chain }
func (c *ChainClient) ChainID() *big.Int          { return new(big.Int).Set(c.chainID) }
func (c *ChainClient) Contracts() *ContractConfig { return c.contracts }

func (c *ChainClient) ExplorerURL(txHash string) string {
	return c.contracts.ExplorerTx + txHash
}

// readUint256 fans the call out and keeps the highest successful
// answer, favoring the freshest node for monotonic counters.
func (c *ChainClient) readUint256(ctx context.Context, to common.Address, contract *abi.ABI, method string, calldata []byte) (*big.Int, int) {
	results := c.pool.CallAll(ctx, to, calldata)
	var best *big.Int
	n := 0
	for _, raw := range results {
		if len(raw) < 32 {
			continue
		}
		out, err := contract.Unpack(method, raw)
		if err != nil || len(out) == 0 {
			continue
		}
		v, okCast := out[0].(*big.Int)
		if !okCast {
			continue
		}
		n++
		if best == nil || v.Cmp(best) > 0 {
			best = v
		}
	}
	return best, n
}

func (c *ChainClient) CollateralBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	calldata, err := c.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pack balanceOf")
	}
	v, n := c.readUint256(ctx, common.HexToAddress(c.contracts.Collateral), &c.erc20, "balanceOf", calldata)
	if n == 0 {
		return nil, ErrAllReadsFailed
	}
	return v, nil
}

func (c *ChainClient) OutcomeBalance(ctx context.Context, account common.Address, tokenID *big.Int) (*big.Int, error) {
	calldata, err := c.erc1155.Pack("balanceOf", account, tokenID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pack balanceOf")
	}
	v, n := c.readUint256(ctx, common.HexToAddress(c.contracts.ConditionalTokens), &c.erc1155, "balanceOf", calldata)
	if n == 0 {
		return nil, ErrAllReadsFailed
	}
	return v, nil
}

func (c *ChainClient) CollateralAllowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	calldata, err := c.erc20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pack allowance")
	}
	v, n := c.readUint256(ctx, common.HexToAddress(c.contracts.Collateral), &c.erc20, "allowance", calldata)
	if n == 0 {
		return nil, ErrAllReadsFailed
	}
	return v, nil
}

func (c *ChainClient) IsOperatorApproved(ctx context.Context, owner, operator common.Address) (bool, error) {
	calldata, err := c.erc1155.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		return false, pkgerrors.Wrap(err, "pack isApprovedForAll")
	}
	results := c.pool.CallAll(ctx, common.HexToAddress(c.contracts.ConditionalTokens), calldata)
	n := 0
	approved := false
	for _, raw := range results {
		if len(raw) < 32 {
			continue
		}
		out, err := c.erc1155.Unpack("isApprovedForAll", raw)
		if err != nil || len(out) == 0 {
			continue
		}
		v, okCast := out[0].(bool)
		if !okCast {
			continue
		}
		n++
		if v {
			approved = true
		}
	}
	if n == 0 {
		return false, ErrAllReadsFailed
	}
	return approved, nil
}

// MinNonce reads the exchange's replay floor for maker. Zero successes
// reports n=0 and the caller falls back to zero.
func (c *ChainClient) MinNonce(ctx context.Context, exchange, maker common.Address) (*big.Int, int) {
	calldata, err := c.exchange.Pack("nonces", maker)
	if err != nil {
		logger.Errorf("pack nonces: %v", err)
		return nil, 0
	}
	return c.readUint256(ctx, exchange, &c.exchange, "nonces", calldata)
}

func (c *ChainClient) ComputeProxyAddress(ctx context.Context, owner common.Address) (common.Address, error) {
	calldata, err := c.factory.Pack("computeProxyAddress", owner)
	if err != nil {
		return common.Address{}, pkgerrors.Wrap(err, "pack computeProxyAddress")
	}
	results := c.pool.CallAll(ctx, common.HexToAddress(c.contracts.ProxyFactory), calldata)
	for _, raw := range results {
		if len(raw) < 32 {
			continue
		}
		out, err := c.factory.Unpack("computeProxyAddress", raw)
		if err != nil || len(out) == 0 {
			continue
		}
		if addr, okCast := out[0].(common.Address); okCast {
			return addr, nil
		}
	}
	return common.Address{}, ErrAllReadsFailed
}

// ProxyNonce reads the proxy wallet's replay counter immediately
// before building a relayed call.
func (c *ChainClient) ProxyNonce(ctx context.Context, proxyAddr common.Address) (*big.Int, error) {
	calldata, err := c.proxy.Pack("nonce")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pack nonce")
	}
	v, n := c.readUint256(ctx, proxyAddr, &c.proxy, "nonce", calldata)
	if n == 0 {
		return nil, ErrAllReadsFailed
	}
	return v, nil
}

// ProxyCodeProbe answers the deployment question through eth_call when
// direct code reads failed on every endpoint. A call against an empty
// account returns no data, a deployed proxy answers its counter.
func (c *ChainClient) ProxyCodeProbe(ctx context.Context, proxyAddr common.Address) (deployed bool, ok bool) {
	calldata, err := c.proxy.Pack("nonce")
	if err != nil {
		return false, false
	}
	results := c.pool.CallAll(ctx, proxyAddr, calldata)
	for _, raw := range results {
		if len(raw) >= 32 {
			return true, true
		}
		ok = true
	}
	return false, ok
}

func (c *ChainClient) PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return c.erc20.Pack("approve", spender, amount)
}

func (c *ChainClient) PackSetApprovalForAll(operator common.Address, approved bool) ([]byte, error) {
	return c.erc1155.Pack("setApprovalForAll", operator, approved)
}

func (c *ChainClient) PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return c.erc20.Pack("transfer", to, amount)
}

func (c *ChainClient) PackCreateProxy(owner common.Address, signature []byte) ([]byte, error) {
	return c.factory.Pack("createProxy", owner, signature)
}

// PackExecTransaction mirrors the authorized call exactly: zero value,
// call operation, zeroed gas and fee overrides.
func (c *ChainClient) PackExecTransaction(call *signing.ProxyCall, signature []byte) ([]byte, error) {
	zero := big.NewInt(0)
	var zeroAddr common.Address
	return c.proxy.Pack("execTransaction",
		call.To, zero, call.Data, uint8(0), zero, zero, zero, zeroAddr, zeroAddr, signature)
}

// Execute signs and broadcasts a transaction from the signer account,
// returning its hash without waiting for inclusion.
func (c *ChainClient) Execute(ctx context.Context, signer TxSigner, to common.Address, value *big.Int, calldata []byte) (string, error) {
	primary := c.pool.Primary()
	if primary == nil {
		return "", pkgerrors.New("no write endpoint available")
	}
	if value == nil {
		value = big.NewInt(0)
	}
	from := signer.Address()

	nonce, err := primary.PendingNonceAt(ctx, from)
	if err != nil {
		return "", pkgerrors.Wrap(err, "pending nonce")
	}
	gasPrice, err := primary.SuggestGasPrice(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(err, "suggest gas price")
	}
	gasLimit, err := primary.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  calldata,
	})
	if err != nil {
		logger.Warnf("gas estimate failed, using fallback %d: %v", fallbackGasLimit, err)
		gasLimit = fallbackGasLimit
	} else {
		gasLimit = gasLimit * 12 / 10
	}

	tx := ethtypes.NewTransaction(nonce, to, value, gasLimit, gasPrice, calldata)
	signed, err := signer.SignTx(tx, c.chainID)
	if err != nil {
		return "", pkgerrors.Wrap(err, "sign transaction")
	}
	if err := primary.SendTransaction(ctx, signed); err != nil {
		return "", pkgerrors.Wrap(err, "broadcast transaction")
	}
	hash := signed.Hash().Hex()
	logger.Infof("broadcast tx %s to %s", hash, to.Hex())
	return hash, nil
}

// WaitForReceipt polls at a fixed interval for a bounded number of
// attempts, emitting an elapsed-time event with the explorer link each
// tick. Reverts and timeouts are distinct failures, both carrying the
// transaction reference.
func (c *ChainClient) WaitForReceipt(ctx context.Context, txHash string, progress *Progress, stage string) error {
	primary := c.pool.Primary()
	if primary == nil {
		return pkgerrors.New("no endpoint available for receipt polling")
	}
	hash := common.HexToHash(txHash)
	link := c.ExplorerURL(txHash)
	started := time.Now()

	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		receipt, err := primary.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == ethtypes.ReceiptStatusFailed {
				return pkgerrors.Errorf("transaction reverted: %s", link)
			}
			progress.Emit(ProgressEvent{
				Stage:       stage,
				Message:     "confirmed",
				Elapsed:     time.Since(started),
				TxHash:      txHash,
				ExplorerURL: link,
			})
			return nil
		}
		progress.Emit(ProgressEvent{
			Stage:       stage,
			Message:     "waiting for confirmation",
			Elapsed:     time.Since(started),
			TxHash:      txHash,
			ExplorerURL: link,
		})
		select {
		case <-ctx.Done():
			return pkgerrors.Wrapf(ctx.Err(), "confirmation interrupted: %s", link)
		case <-time.After(c.pollInterval):
		}
	}
	return pkgerrors.Wrapf(ErrConfirmTimeout, "tx %s (%s)", txHash, link)
}
