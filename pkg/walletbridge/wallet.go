package walletbridge

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/signing"
)

// BridgeWallet fulfills the wallet signing capability by relaying each
// request through the host to the connected wallet app. It also serves
// as an extra chain read path when the app answers eth_call.
type BridgeWallet struct {
	host    *Host
	address common.Address
}

// Connect waits for a wallet to attach and resolves its address. The
// address is fixed for the life of the value; reconnecting as another
// account means connecting again.
func Connect(ctx context.Context, host *Host) (*BridgeWallet, error) {
	if err := host.WaitForWallet(ctx); err != nil {
		return nil, err
	}
	raw, err := host.Call(ctx, MethodGetAddress, nil)
	if err != nil {
		return nil, err
	}
	var res AddressResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, pkgerrors.Wrap(err, "walletbridge: address result")
	}
	if !common.IsHexAddress(res.Address) {
		return nil, pkgerrors.Errorf("walletbridge: bad address %q", res.Address)
	}
	return &BridgeWallet{host: host, address: common.HexToAddress(res.Address)}, nil
}

// Address implements signing.Wallet.
func (w *BridgeWallet) Address() common.Address {
	return w.address
}

// SignTypedData implements signing.Wallet. The full typed payload goes
// to the wallet app as data; whatever comes back is normalized to the
// 27/28 convention.
func (w *BridgeWallet) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	raw, err := w.host.Call(ctx, MethodSignTypedData, &SignTypedDataParams{TypedData: typedData})
	if err != nil {
		return nil, err
	}
	var res SignatureResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, pkgerrors.Wrap(err, "walletbridge: signature result")
	}
	sig, err := signing.DecodeSignature(res.Signature)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "walletbridge")
	}
	return signing.NormalizeV(sig), nil
}

// CallContract implements signing.ChainReader over the bridge.
func (w *BridgeWallet) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	params := &EthCallParams{To: to.Hex(), Data: "0x" + common.Bytes2Hex(data)}
	raw, err := w.host.Call(ctx, MethodEthCall, params)
	if err != nil {
		return nil, err
	}
	var res CallResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, pkgerrors.Wrap(err, "walletbridge: call result")
	}
	return common.FromHex(res.Data), nil
}
