package walletbridge

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Request methods a connected wallet must answer.
const (
	MethodGetAddress    = "get_address"
	MethodSignTypedData = "sign_typed_data"
	MethodEthCall       = "eth_call"
)

// Request is one frame sent host -> wallet. ID correlates the answer;
// the wallet must echo it back unchanged.
type Request struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one frame sent wallet -> host. Exactly one of Result and
// Error is set.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// SignTypedDataParams carry the full EIP-712 payload. The wallet sees
// domain, types and message as data and decides whether to sign.
type SignTypedDataParams struct {
	TypedData apitypes.TypedData `json:"typed_data"`
}

// EthCallParams describe a read-only contract call.
type EthCallParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// AddressResult answers get_address.
type AddressResult struct {
	Address string `json:"address"`
}

// SignatureResult answers sign_typed_data.
type SignatureResult struct {
	Signature string `json:"signature"`
}

// CallResult answers eth_call.
type CallResult struct {
	Data string `json:"data"`
}
