package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/pkg/logger"
)

// ProxyAccountManager owns the delegated-custody account lifecycle:
// the deterministic address, the one-time deployment, and relayed
// calls authorized per invocation. It holds no session state; callers
// cache the resolved account.
type ProxyAccountManager struct {
	chain    *ChainClient
	wallet   signing.Wallet
	txSigner TxSigner
}

func NewProxyAccountManager(chain *ChainClient, wallet signing.Wallet, txSigner TxSigner) *ProxyAccountManager {
	return &ProxyAccountManager{chain: chain, wallet: wallet, txSigner: txSigner}
}

// ComputeAddress resolves the owner's proxy address from the factory.
// The answer is a pure function of the owner and never changes with
// deployment state.
func (m *ProxyAccountManager) ComputeAddress(ctx context.Context, owner common.Address) (common.Address, error) {
	addr, err := m.chain.ComputeProxyAddress(ctx, owner)
	if err != nil {
		return common.Address{}, pkgerrors.Wrap(err, "compute proxy address")
	}
	return addr, nil
}

// Exists reports deployment as a three-state answer: deployed, not
// deployed, or unknown when every read path failed. The code read is
// retried through eth_call before giving up.
func (m *ProxyAccountManager) Exists(ctx context.Context, proxyAddr common.Address) (types.DeploymentState, error) {
	present, ok := m.chain.Pool().CodePresence(ctx, proxyAddr)
	if !ok {
		present, ok = m.chain.ProxyCodeProbe(ctx, proxyAddr)
	}
	if !ok {
		return types.DeploymentUnknown, pkgerrors.Wrap(ErrAllReadsFailed, "proxy code check")
	}
	if present {
		return types.DeploymentDeployed, nil
	}
	return types.DeploymentMissing, nil
}

// Resolve computes the proxy address and its deployment state in one
// pass.
func (m *ProxyAccountManager) Resolve(ctx context.Context) (*types.ProxyAccount, error) {
	owner := m.wallet.Address()
	addr, err := m.ComputeAddress(ctx, owner)
	if err != nil {
		return nil, err
	}
	state, err := m.Exists(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &types.ProxyAccount{
		Owner:   owner.Hex(),
		Address: addr.Hex(),
		State:   state,
	}, nil
}

// Deploy creates the proxy if it does not exist yet: one deployment
// authorization signature, one transaction, confirmation polling. An
// already-deployed proxy returns immediately with no signature request.
func (m *ProxyAccountManager) Deploy(ctx context.Context, progress *Progress) (*types.ProxyAccount, error) {
	account, err := m.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	progress.Emitf(StageProxyCompute, "proxy address %s", account.Address)
	if account.State == types.DeploymentDeployed {
		logger.Debugf("proxy %s already deployed", account.Address)
		return account, nil
	}
	if m.txSigner == nil {
		return nil, pkgerrors.New("proxy deployment needs a local signing key")
	}

	owner := m.wallet.Address()
	factory := common.HexToAddress(m.chain.Contracts().ProxyFactory)
	progress.Emitf(StageProxyDeploy, "requesting deployment authorization")
	sig, err := signing.BuildProxyDeploySignature(ctx, m.wallet, m.chain.Chain(), factory, owner)
	if err != nil {
		return nil, err
	}

	calldata, err := m.chain.PackCreateProxy(owner, sig)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pack createProxy")
	}
	txHash, err := m.chain.Execute(ctx, m.txSigner, factory, nil, calldata)
	if err != nil {
		return nil, err
	}
	progress.EmitTx(StageProxyDeploy, "deployment broadcast", txHash, m.chain.ExplorerURL(txHash))

	if err := m.chain.WaitForReceipt(ctx, txHash, progress, StageProxyConfirm); err != nil {
		return nil, err
	}
	account.State = types.DeploymentDeployed
	return account, nil
}

// Relay executes one call through the proxy. The replay counter is
// read immediately before signing, the authorization covers exactly
// {target, zero value, calldata, counter}, and the submission carries
// the signature with its recovery id in 27/28 form.
func (m *ProxyAccountManager) Relay(ctx context.Context, proxyAddr, target common.Address, calldata []byte, progress *Progress) (string, error) {
	if m.txSigner == nil {
		return "", pkgerrors.New("relayed calls need a local signing key")
	}
	state, err := m.Exists(ctx, proxyAddr)
	if err != nil {
		return "", err
	}
	if state != types.DeploymentDeployed {
		return "", pkgerrors.Wrapf(ErrNotDeployed, "proxy %s", proxyAddr.Hex())
	}

	counter, err := m.chain.ProxyNonce(ctx, proxyAddr)
	if err != nil {
		return "", pkgerrors.Wrap(err, "read proxy nonce")
	}
	call := &signing.ProxyCall{
		To:    target,
		Data:  calldata,
		Nonce: new(big.Int).Set(counter),
	}

	progress.Emitf(StageRelay, "requesting call authorization for %s", target.Hex())
	sig, err := signing.BuildProxyRelaySignature(ctx, m.wallet, m.chain.Chain(), proxyAddr, call)
	if err != nil {
		return "", err
	}

	execData, err := m.chain.PackExecTransaction(call, sig)
	if err != nil {
		return "", pkgerrors.Wrap(err, "pack execTransaction")
	}
	txHash, err := m.chain.Execute(ctx, m.txSigner, proxyAddr, nil, execData)
	if err != nil {
		return "", err
	}
	progress.EmitTx(StageRelay, "relayed call broadcast", txHash, m.chain.ExplorerURL(txHash))

	if err := m.chain.WaitForReceipt(ctx, txHash, progress, StageRelay); err != nil {
		return txHash, err
	}
	return txHash, nil
}

// WithdrawCollateral moves collateral from the proxy back to the
// owner through a relayed transfer.
func (m *ProxyAccountManager) WithdrawCollateral(ctx context.Context, proxyAddr common.Address, amount decimal.Decimal, progress *Progress) (string, error) {
	if amount.Sign() <= 0 {
		return "", ErrAmountNotPositive
	}
	units := TokenUnits(amount, CollateralTokenDecimals)
	calldata, err := m.chain.PackTransfer(m.wallet.Address(), units)
	if err != nil {
		return "", pkgerrors.Wrap(err, "pack transfer")
	}
	return m.Relay(ctx, proxyAddr, common.HexToAddress(m.chain.Contracts().Collateral), calldata, progress)
}
