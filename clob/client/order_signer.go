package client

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/syncgroup"
)

// OrderSigner finalizes an assembled order: resolves the true maker,
// verifies the maker can actually settle it, resolves the replay
// nonce, stamps a fresh salt and requests the signature. The returned
// SignedOrder carries exactly the fields that went into the signature.
type OrderSigner struct {
	wallet signing.Wallet
	chain  *ChainClient
	venue  Venue
	nonces *NonceResolver
}

func NewOrderSigner(wallet signing.Wallet, chain *ChainClient, venue Venue, nonces *NonceResolver) *OrderSigner {
	return &OrderSigner{wallet: wallet, chain: chain, venue: venue, nonces: nonces}
}

// Sign completes and signs the order. The input is not mutated; the
// signed snapshot is returned. For proxy accounts the maker becomes
// the proxy address and the signature type switches accordingly, while
// the signer stays the wallet account.
func (s *OrderSigner) Sign(ctx context.Context, order *types.UnsignedOrder, accountType types.AccountType, proxyAddress string) (*types.SignedOrder, error) {
	o := *order
	signerAddr := s.wallet.Address()
	o.Signer = signerAddr.Hex()

	switch accountType {
	case types.AccountTypeProxy:
		if proxyAddress == "" {
			return nil, pkgerrors.New("proxy account not resolved")
		}
		o.Maker = proxyAddress
		o.SignatureType = types.SignatureTypeProxy
	default:
		o.Maker = signerAddr.Hex()
		o.SignatureType = types.SignatureTypeEOA
	}

	if err := s.checkPreconditions(ctx, &o); err != nil {
		return nil, err
	}

	o.Nonce = s.nonces.Resolve(ctx, o.Maker, o.Nonce)
	o.Salt = time.Now().UnixNano()

	data, err := signing.OrderDataFromUnsigned(&o)
	if err != nil {
		return nil, err
	}
	exchange := s.venue.ExchangeAddress(s.chain.Contracts())
	sig, err := signing.BuildOrderSignature(ctx, s.wallet, s.chain.Chain(), exchange, data)
	if err != nil {
		return nil, err
	}
	logger.Debugf("order signed: maker=%s salt=%d nonce=%d", o.Maker, o.Salt, o.Nonce)
	return &types.SignedOrder{
		Order:     o,
		Signature: sig,
		SignedAt:  time.Now(),
	}, nil
}

// checkPreconditions fails before any signature request when the maker
// cannot settle the order, reporting the exact required and available
// amounts instead of deferring to an opaque on-chain rejection.
func (s *OrderSigner) checkPreconditions(ctx context.Context, o *types.UnsignedOrder) error {
	maker := common.HexToAddress(o.Maker)
	exchange := common.HexToAddress(s.venue.ExchangeAddress(s.chain.Contracts()))

	makerAmt, err := o.BigMakerAmount()
	if err != nil {
		return err
	}
	required := FromTokenUnits(makerAmt, FixedPointDecimals)

	if o.Side == types.SideBuy {
		var (
			balance   decimal.Decimal
			granted   decimal.Decimal
			balErr    error
			altErr    error
		)
		sg := syncgroup.NewSyncGroup()
		sg.Add(func() {
			raw, e := s.chain.CollateralBalance(ctx, maker)
			if e != nil {
				balErr = e
				return
			}
			balance = FromTokenUnits(raw, CollateralTokenDecimals)
		})
		sg.Add(func() {
			raw, e := s.chain.CollateralAllowance(ctx, maker, exchange)
			if e != nil {
				altErr = e
				return
			}
			granted = FromTokenUnits(raw, CollateralTokenDecimals)
		})
		sg.Run()
		sg.Wait()
		if balErr != nil {
			return pkgerrors.Wrap(balErr, "collateral balance check")
		}
		if altErr != nil {
			return pkgerrors.Wrap(altErr, "collateral allowance check")
		}
		if balance.LessThan(required) {
			return &BalanceShortfall{
				Asset:     "collateral",
				Address:   o.Maker,
				Required:  required.String(),
				Available: balance.String(),
			}
		}
		if granted.LessThan(required) {
			return &AllowanceShortfall{
				Asset:    "collateral",
				Owner:    o.Maker,
				Spender:  exchange.Hex(),
				Required: required.String(),
				Granted:  granted.String(),
			}
		}
		return nil
	}

	tokenID, err := o.BigTokenID()
	if err != nil {
		return err
	}
	var (
		balance  decimal.Decimal
		approved bool
		balErr   error
		appErr   error
	)
	sg := syncgroup.NewSyncGroup()
	sg.Add(func() {
		raw, e := s.chain.OutcomeBalance(ctx, maker, tokenID)
		if e != nil {
			balErr = e
			return
		}
		balance = FromTokenUnits(raw, ConditionalTokenDecimals)
	})
	sg.Add(func() {
		approved, appErr = s.chain.IsOperatorApproved(ctx, maker, exchange)
	})
	sg.Run()
	sg.Wait()
	if balErr != nil {
		return pkgerrors.Wrap(balErr, "outcome balance check")
	}
	if appErr != nil {
		return pkgerrors.Wrap(appErr, "operator approval check")
	}
	if balance.LessThan(required) {
		return &BalanceShortfall{
			Asset:     "outcome token",
			Address:   o.Maker,
			Required:  required.String(),
			Available: balance.String(),
		}
	}
	if !approved {
		return &AllowanceShortfall{
			Asset:    "outcome token",
			Owner:    o.Maker,
			Spender:  exchange.Hex(),
			Required: required.String(),
			Granted:  "0",
		}
	}
	return nil
}
