package client

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/syncgroup"
)

var (
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	// unlimitedThreshold is half of the maximum grant. Grants always
	// request the maximum, so anything above half means effectively
	// unlimited and needs no top-up.
	unlimitedThreshold = new(big.Int).Rsh(maxUint256, 1)
)

// ApprovalManager reads and grants the allowance triple a trading
// account needs: collateral to the settlement contract, collateral to
// the exchange, and outcome-token operator rights for the venue's
// operators.
type ApprovalManager struct {
	chain    *ChainClient
	venue    Venue
	proxyMgr *ProxyAccountManager
	txSigner TxSigner
}

func NewApprovalManager(chain *ChainClient, venue Venue, proxyMgr *ProxyAccountManager, txSigner TxSigner) *ApprovalManager {
	return &ApprovalManager{chain: chain, venue: venue, proxyMgr: proxyMgr, txSigner: txSigner}
}

// Check derives the approval status for owner from chain state alone.
// The reads run concurrently; each tolerates individual endpoint
// failures and only fails when no path answers.
func (am *ApprovalManager) Check(ctx context.Context, owner common.Address) (*types.ApprovalStatus, error) {
	cfg := am.chain.Contracts()
	support := common.HexToAddress(cfg.ConditionalTokens)
	exchange := common.HexToAddress(am.venue.ExchangeAddress(cfg))
	operators := am.venue.OperatorAddresses(cfg)

	var (
		supportAllowance  *big.Int
		exchangeAllowance *big.Int
		supportErr        error
		exchangeErr       error

		operatorApproved = make([]bool, len(operators))
		operatorErrs     = make([]error, len(operators))
	)

	sg := syncgroup.NewSyncGroup()
	sg.Add(func() {
		supportAllowance, supportErr = am.chain.CollateralAllowance(ctx, owner, support)
	})
	sg.Add(func() {
		exchangeAllowance, exchangeErr = am.chain.CollateralAllowance(ctx, owner, exchange)
	})
	for i, op := range operators {
		i, operator := i, common.HexToAddress(op)
		sg.Add(func() {
			operatorApproved[i], operatorErrs[i] = am.chain.IsOperatorApproved(ctx, owner, operator)
		})
	}
	sg.Run()
	sg.Wait()

	if supportErr != nil {
		return nil, pkgerrors.Wrap(supportErr, "collateral allowance for settlement")
	}
	if exchangeErr != nil {
		return nil, pkgerrors.Wrap(exchangeErr, "collateral allowance for exchange")
	}
	for i, opErr := range operatorErrs {
		if opErr != nil {
			return nil, pkgerrors.Wrapf(opErr, "operator approval for %s", operators[i])
		}
	}

	status := &types.ApprovalStatus{
		NeedsCollateralSupport:  supportAllowance.Cmp(unlimitedThreshold) < 0,
		NeedsCollateralExchange: exchangeAllowance.Cmp(unlimitedThreshold) < 0,
	}
	for _, approved := range operatorApproved {
		if !approved {
			status.NeedsOutcomeExchange = true
		}
	}
	return status, nil
}

type approvalStep struct {
	label    string
	target   common.Address
	calldata []byte
}

// missingSteps turns a status into concrete grant transactions,
// skipping everything already approved.
func (am *ApprovalManager) missingSteps(status *types.ApprovalStatus) ([]approvalStep, error) {
	cfg := am.chain.Contracts()
	collateral := common.HexToAddress(cfg.Collateral)
	conditional := common.HexToAddress(cfg.ConditionalTokens)
	exchange := common.HexToAddress(am.venue.ExchangeAddress(cfg))

	var steps []approvalStep
	if status.NeedsCollateralSupport {
		calldata, err := am.chain.PackApprove(conditional, maxUint256)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "pack approve")
		}
		steps = append(steps, approvalStep{
			label:    "collateral for settlement",
			target:   collateral,
			calldata: calldata,
		})
	}
	if status.NeedsCollateralExchange {
		calldata, err := am.chain.PackApprove(exchange, maxUint256)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "pack approve")
		}
		steps = append(steps, approvalStep{
			label:    "collateral for exchange",
			target:   collateral,
			calldata: calldata,
		})
	}
	if status.NeedsOutcomeExchange {
		for _, op := range am.venue.OperatorAddresses(cfg) {
			calldata, err := am.chain.PackSetApprovalForAll(common.HexToAddress(op), true)
			if err != nil {
				return nil, pkgerrors.Wrap(err, "pack setApprovalForAll")
			}
			steps = append(steps, approvalStep{
				label:    "outcome tokens for " + op,
				target:   conditional,
				calldata: calldata,
			})
		}
	}
	return steps, nil
}

// Grant issues the missing approvals one at a time, each behind its
// own authorization. Step labels count what remains, so a run that
// starts with one missing approval reports "1 of 1". Fully approved
// input is a no-op with no events and no transactions.
func (am *ApprovalManager) Grant(ctx context.Context, accountType types.AccountType, proxyAddr common.Address, status *types.ApprovalStatus, progress *Progress) error {
	if status == nil || status.AllApproved() {
		return nil
	}
	steps, err := am.missingSteps(status)
	if err != nil {
		return err
	}
	total := len(steps)
	for i, step := range steps {
		progress.Emitf(StageApprovalGrant, "approval %d of %d: %s", i+1, total, step.label)
		if accountType == types.AccountTypeProxy {
			if _, err := am.proxyMgr.Relay(ctx, proxyAddr, step.target, step.calldata, progress); err != nil {
				return pkgerrors.Wrapf(err, "grant %s", step.label)
			}
		} else {
			if am.txSigner == nil {
				return pkgerrors.New("granting approvals needs a local signing key")
			}
			txHash, err := am.chain.Execute(ctx, am.txSigner, step.target, nil, step.calldata)
			if err != nil {
				return pkgerrors.Wrapf(err, "grant %s", step.label)
			}
			progress.EmitTx(StageApprovalGrant, step.label+" broadcast", txHash, am.chain.ExplorerURL(txHash))
			if err := am.chain.WaitForReceipt(ctx, txHash, progress, StageApprovalGrant); err != nil {
				return pkgerrors.Wrapf(err, "confirm %s", step.label)
			}
		}
		logger.Infof("approval granted: %s", step.label)
	}
	return nil
}
