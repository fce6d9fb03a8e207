package types

// L2HeaderArgs carry the request pieces the HMAC covers. Body must be the
// exact bytes that will be sent, or the server-side MAC will not match.
type L2HeaderArgs struct {
	Method      string
	RequestPath string
	Body        *string
}

// L1PolyHeader is the header set for attestation-signature auth.
type L1PolyHeader struct {
	PolyAddress   string `json:"POLY_ADDRESS"`
	PolySignature string `json:"POLY_SIGNATURE"`
	PolyTimestamp string `json:"POLY_TIMESTAMP"`
	PolyNonce     string `json:"POLY_NONCE"`
}

// L2PolyHeader is the header set for API-key (HMAC) auth.
type L2PolyHeader struct {
	PolyAddress     string `json:"POLY_ADDRESS"`
	PolySignature   string `json:"POLY_SIGNATURE"`
	PolyTimestamp   string `json:"POLY_TIMESTAMP"`
	PolyAPIKey      string `json:"POLY_API_KEY"`
	PolyPassphrase  string `json:"POLY_PASSPHRASE"`
	PolyAccountType string `json:"POLY_ACCOUNT_TYPE"`
}

// Map renders the headers for attaching to a request.
func (h *L1PolyHeader) Map() map[string]string {
	return map[string]string{
		"POLY_ADDRESS":   h.PolyAddress,
		"POLY_SIGNATURE": h.PolySignature,
		"POLY_TIMESTAMP": h.PolyTimestamp,
		"POLY_NONCE":     h.PolyNonce,
	}
}

// Map renders the headers for attaching to a request.
func (h *L2PolyHeader) Map() map[string]string {
	return map[string]string{
		"POLY_ADDRESS":      h.PolyAddress,
		"POLY_SIGNATURE":    h.PolySignature,
		"POLY_TIMESTAMP":    h.PolyTimestamp,
		"POLY_API_KEY":      h.PolyAPIKey,
		"POLY_PASSPHRASE":   h.PolyPassphrase,
		"POLY_ACCOUNT_TYPE": h.PolyAccountType,
	}
}
