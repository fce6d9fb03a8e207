package signing

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Wallet is the signing capability every component goes through: expose
// the account address and sign a typed-structured message. The local key
// wallet and the bridge-relayed wallet implement it identically from the
// caller's point of view.
type Wallet interface {
	// Address returns the wallet's account address.
	Address() common.Address

	// SignTypedData signs the EIP-712 message and returns the 65-byte
	// signature (r, s, v) with v normalized to {27, 28}.
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}

// ChainReader is an optional capability a Wallet may expose: a read-only
// eth_call through the wallet's own connection, used as one more
// redundant read path.
type ChainReader interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// LocalWallet signs with an in-process private key.
type LocalWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewLocalWallet wraps a parsed private key.
func NewLocalWallet(key *ecdsa.PrivateKey) *LocalWallet {
	return &LocalWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// NewLocalWalletFromHex parses a hex private key (with or without 0x).
func NewLocalWalletFromHex(hexKey string) (*LocalWallet, error) {
	if len(hexKey) > 2 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return NewLocalWallet(key), nil
}

// Address implements Wallet.
func (w *LocalWallet) Address() common.Address {
	return w.address
}

// SignTypedData implements Wallet.
func (w *LocalWallet) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	return SignDigest(hash, w.key)
}

// PrivateKey exposes the raw key for transaction signing. Only the chain
// write path uses it; everything else goes through SignTypedData.
func (w *LocalWallet) PrivateKey() *ecdsa.PrivateKey {
	return w.key
}

// SignTx signs a raw transaction for broadcast. Bridge wallets do not
// offer this, so flows that write to chain need a local key.
func (w *LocalWallet) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	return ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), w.key)
}

// SignDigest signs an already-hashed digest and returns the 65-byte
// signature with Ethereum v adjusted to {27, 28}.
func SignDigest(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) == 0 {
		return nil, fmt.Errorf("digest is empty")
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, err
	}
	return NormalizeV(sig), nil
}

// NormalizeV converts a 65-byte signature's recovery id to the 27/28
// convention contracts expect. Signatures already in that form pass
// through unchanged.
func NormalizeV(sig []byte) []byte {
	if len(sig) == 65 && sig[64] < 27 {
		sig[64] += 27
	}
	return sig
}

// EncodeSignature renders a signature as a 0x-prefixed hex string.
func EncodeSignature(sig []byte) string {
	return "0x" + common.Bytes2Hex(sig)
}

// DecodeSignature parses a 0x-prefixed hex signature.
func DecodeSignature(s string) ([]byte, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	sig := common.Hex2Bytes(s)
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	return sig, nil
}
