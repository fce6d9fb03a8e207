package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_ErrorShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"mid":"0.5"}`))
		case "/string-code":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":"INVALID_ORDER_MIN_TICK_SIZE","description":"tick too small"}`))
		case "/numeric-code":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":42,"error":"rejected"}`))
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"api key expired"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`plain text miss`))
		}
	}))
	defer srv.Close()

	h := newHTTPClient(srv.URL)
	ctx := context.Background()

	var out struct {
		Mid string `json:"mid"`
	}
	if err := h.get(ctx, "/ok", nil, nil, &out); err != nil {
		t.Fatalf("success path: %v", err)
	}
	if out.Mid != "0.5" {
		t.Fatalf("decoded got=%+v", out)
	}

	err := h.get(ctx, "/string-code", nil, nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T want APIError", err)
	}
	if apiErr.Code != "INVALID_ORDER_MIN_TICK_SIZE" || apiErr.Description != "tick too small" {
		t.Fatalf("string code got=%+v", apiErr)
	}
	if apiErr.IsAuthError() {
		t.Fatal("400 is not an auth failure")
	}

	err = h.get(ctx, "/numeric-code", nil, nil, nil)
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T want APIError", err)
	}
	if apiErr.Code != "42" || apiErr.Description != "rejected" {
		t.Fatalf("numeric code got=%+v", apiErr)
	}

	err = h.get(ctx, "/unauthorized", nil, nil, nil)
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T want APIError", err)
	}
	if !apiErr.IsAuthError() {
		t.Fatalf("401 must classify as auth failure: %+v", apiErr)
	}

	err = h.get(ctx, "/nowhere", nil, nil, nil)
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T want APIError", err)
	}
	if apiErr.HTTPStatus != http.StatusNotFound || apiErr.Description != "plain text miss" {
		t.Fatalf("non-json body got=%+v", apiErr)
	}
}

func TestHTTPClient_TransportFailure(t *testing.T) {
	h := newHTTPClient("http://127.0.0.1:1")
	err := h.get(context.Background(), "/anything", nil, nil, nil)
	if err == nil {
		t.Fatal("unreachable host should fail")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failures are not exchange rejections: %v", err)
	}
}
