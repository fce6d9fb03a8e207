package client

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// httpClient wraps resty for the exchange REST surface. No client-level
// retries: redundancy lives in the chain-read fan-out and the single
// re-authentication, nothing else may silently resubmit.
type httpClient struct {
	rc *resty.Client
}

func newHTTPClient(host string) *httpClient {
	host = strings.TrimSuffix(host, "/")
	rc := resty.New().
		SetBaseURL(host).
		SetTimeout(30 * time.Second)
	return &httpClient{rc: rc}
}

func (h *httpClient) newRequest(ctx context.Context, headers map[string]string) *resty.Request {
	r := h.rc.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "*/*")
	r.SetHeader("Connection", "keep-alive")
	r.SetHeader("User-Agent", "polytrade-clob")
	for k, v := range headers {
		r.SetHeader(k, v)
	}
	return r
}

// get performs a GET with optional query params, decoding 2xx JSON into
// out when non-nil.
func (h *httpClient) get(ctx context.Context, endpoint string, headers map[string]string, params map[string]string, out any) error {
	r := h.newRequest(ctx, headers)
	if len(params) > 0 {
		r.SetQueryParams(params)
	}
	if out != nil {
		r.SetResult(out)
	}
	resp, err := r.Get(endpoint)
	return parseAPIResponse(resp, err)
}

// post sends body verbatim when it is a string: the bytes on the wire
// must be exactly the bytes the HMAC was computed over.
func (h *httpClient) post(ctx context.Context, endpoint string, headers map[string]string, body any, out any) error {
	r := h.newRequest(ctx, headers)
	r.SetHeader("Content-Type", "application/json")
	if body != nil {
		r.SetBody(body)
	}
	if out != nil {
		r.SetResult(out)
	}
	resp, err := r.Post(endpoint)
	return parseAPIResponse(resp, err)
}

// del performs a DELETE; body follows the same verbatim rule as post.
func (h *httpClient) del(ctx context.Context, endpoint string, headers map[string]string, body any, out any) error {
	r := h.newRequest(ctx, headers)
	if body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(body)
	}
	if out != nil {
		r.SetResult(out)
	}
	resp, err := r.Delete(endpoint)
	return parseAPIResponse(resp, err)
}
