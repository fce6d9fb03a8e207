package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	pkgerrors "github.com/pkg/errors"
)

// Sentinel errors callers branch on.
var (
	// ErrNotDeployed: the proxy account has no code yet.
	ErrNotDeployed = errors.New("proxy account not deployed")

	// ErrConfirmTimeout: the bounded receipt poll ran out of attempts.
	// Distinct from a revert; the transaction may still confirm later.
	ErrConfirmTimeout = errors.New("confirmation timed out")

	// ErrAllReadsFailed: every redundant read path failed.
	ErrAllReadsFailed = errors.New("all read endpoints failed")
)

// APIError is a structured exchange rejection. Code and Description are
// surfaced exactly as the exchange sent them.
type APIError struct {
	HTTPStatus  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("exchange error %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("exchange error (http %d): %s", e.HTTPStatus, e.Description)
}

// IsAuthError reports whether the rejection is an authentication
// failure, the one case that earns a single re-authentication retry.
func (e *APIError) IsAuthError() bool {
	return e.HTTPStatus == http.StatusUnauthorized || e.HTTPStatus == http.StatusForbidden
}

// apiErrorBody covers the error shapes the exchange responds with. The
// code arrives as a number on some endpoints and a string on others.
type apiErrorBody struct {
	Code        json.RawMessage `json:"code"`
	Description string          `json:"description"`
	Error       string          `json:"error"`
}

// parseAPIResponse turns a resty response into a typed error on non-2xx
// and leaves success untouched. Transport failures are wrapped so the
// endpoint shows up in the chain.
func parseAPIResponse(resp *resty.Response, err error) error {
	if err != nil {
		if resp != nil && resp.Request != nil {
			return pkgerrors.Wrapf(err, "request %s %s", resp.Request.Method, resp.Request.URL)
		}
		return pkgerrors.Wrap(err, "request")
	}
	if resp.IsSuccess() {
		return nil
	}

	apiErr := &APIError{HTTPStatus: resp.StatusCode()}
	var body apiErrorBody
	if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr == nil {
		apiErr.Code = strings.Trim(string(body.Code), `"`)
		apiErr.Description = body.Description
		if apiErr.Description == "" {
			apiErr.Description = body.Error
		}
	}
	if apiErr.Description == "" {
		apiErr.Description = string(resp.Body())
	}
	return apiErr
}

// BalanceShortfall carries an exact required-vs-available report from a
// precondition check, so the user never has to decode an on-chain
// rejection to learn the numbers.
type BalanceShortfall struct {
	Asset     string
	Address   string
	Required  string
	Available string
}

func (e *BalanceShortfall) Error() string {
	return fmt.Sprintf("insufficient %s for %s: required %s, available %s",
		e.Asset, e.Address, e.Required, e.Available)
}

// AllowanceShortfall is the allowance analogue of BalanceShortfall.
type AllowanceShortfall struct {
	Asset    string
	Owner    string
	Spender  string
	Required string
	Granted  string
}

func (e *AllowanceShortfall) Error() string {
	return fmt.Sprintf("insufficient %s allowance from %s to %s: required %s, granted %s",
		e.Asset, e.Owner, e.Spender, e.Required, e.Granted)
}
