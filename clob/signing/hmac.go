package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// BuildPolyHmacSignature authenticates one REST request: HMAC-SHA256
// over timestamp+method+path+body, keyed by the base64url-decoded API
// secret, re-encoded URL-safe. This scheme is wholly separate from the
// wallet's typed-data signatures.
func BuildPolyHmacSignature(secret string, timestamp int64, method string, requestPath string, body *string) (string, error) {
	message := strconv.FormatInt(timestamp, 10) + method + requestPath
	if body != nil {
		message += *body
	}

	keyData, err := decodeSecret(secret)
	if err != nil {
		return "", fmt.Errorf("decode secret: %w", err)
	}

	mac := hmac.New(sha256.New, keyData)
	mac.Write([]byte(message))
	digest := mac.Sum(nil)

	// URL-safe alphabet, '=' padding kept as the exchange expects.
	sig := base64.StdEncoding.EncodeToString(digest)
	sig = strings.ReplaceAll(sig, "+", "-")
	sig = strings.ReplaceAll(sig, "/", "_")
	return sig, nil
}

// decodeSecret accepts the secret in standard or URL-safe base64 and
// strips anything outside the alphabet before decoding.
func decodeSecret(secret string) ([]byte, error) {
	s := strings.ReplaceAll(secret, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	s = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') || r == '+' || r == '/' || r == '=' {
			return r
		}
		return -1
	}, s)
	return base64.StdEncoding.DecodeString(s)
}
