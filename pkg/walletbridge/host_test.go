package walletbridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"

	"github.com/betkit/polytrade/clob/signing"
	"github.com/betkit/polytrade/clob/types"
)

const (
	testWalletAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testSigHex     = "0x" +
		"1111111111111111111111111111111111111111111111111111111111111111" +
		"2222222222222222222222222222222222222222222222222222222222222222" +
		"1b"
)

func startBridge(t *testing.T, host *Host) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(host.Router())
	t.Cleanup(srv.Close)
	return srv
}

func dialWallet(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial wallet: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// answerRequests plays the wallet app: it answers every relayed request
// until the connection drops.
func answerRequests(conn *websocket.Conn) {
	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := Response{ID: req.ID}
		switch req.Method {
		case MethodGetAddress:
			resp.Result, _ = json.Marshal(AddressResult{Address: testWalletAddr})
		case MethodSignTypedData:
			resp.Result, _ = json.Marshal(SignatureResult{Signature: testSigHex})
		case MethodEthCall:
			resp.Result, _ = json.Marshal(CallResult{Data: "0x00000001"})
		default:
			resp.Error = "unsupported method"
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func TestHost_HealthReportsConnection(t *testing.T) {
	host := NewHost(time.Second, "")
	srv := startBridge(t, host)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Connected bool `json:"connected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Connected {
		t.Fatal("no wallet yet, health must report disconnected")
	}

	dialWallet(t, srv, "")
	if err := host.WaitForWallet(context.Background()); err != nil {
		t.Fatalf("WaitForWallet: %v", err)
	}
	if !host.Connected() {
		t.Fatal("wallet dialed in, host must report connected")
	}
}

func TestHost_SingleWalletPolicy(t *testing.T) {
	host := NewHost(time.Second, "")
	srv := startBridge(t, host)

	dialWallet(t, srv, "")
	if err := host.WaitForWallet(context.Background()); err != nil {
		t.Fatalf("WaitForWallet: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second wallet must be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("second dial status got=%v want=409", resp)
	}
	resp.Body.Close()
}

func TestHost_TokenAuth(t *testing.T) {
	host := NewHost(time.Second, "s3cret")
	srv := startBridge(t, host)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("missing token must be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tokenless dial status got=%v want=401", resp)
	}
	resp.Body.Close()

	dialWallet(t, srv, "s3cret")
	if err := host.WaitForWallet(context.Background()); err != nil {
		t.Fatalf("WaitForWallet with token: %v", err)
	}
}

func TestHost_WaitForWalletHonorsContext(t *testing.T) {
	host := NewHost(time.Second, "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := host.WaitForWallet(ctx); err != context.DeadlineExceeded {
		t.Fatalf("WaitForWallet got err=%v want deadline exceeded", err)
	}
}

func TestBridgeWallet_RelaysRequests(t *testing.T) {
	host := NewHost(5*time.Second, "")
	srv := startBridge(t, host)
	conn := dialWallet(t, srv, "")
	go answerRequests(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := Connect(ctx, host)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if w.Address() != common.HexToAddress(testWalletAddr) {
		t.Fatalf("Address got=%s want=%s", w.Address().Hex(), testWalletAddr)
	}

	td := signing.BuildAuthTypedData(types.ChainPolygon, w.Address(), 1700000000, 0)
	sig, err := w.SignTypedData(ctx, td)
	if err != nil {
		t.Fatalf("SignTypedData: %v", err)
	}
	if len(sig) != 65 || sig[64] != 27 {
		t.Fatalf("signature got len=%d v=%d", len(sig), sig[64])
	}

	out, err := w.CallContract(ctx, common.HexToAddress("0x4d97dcd97ec945f40cf65f87097ace5ea0476045"), []byte{0x70, 0xa0, 0x82, 0x31})
	if err != nil {
		t.Fatalf("CallContract: %v", err)
	}
	if len(out) != 4 || out[3] != 1 {
		t.Fatalf("CallContract got=%x", out)
	}
}

func TestHost_WalletRefusal(t *testing.T) {
	host := NewHost(5*time.Second, "")
	srv := startBridge(t, host)
	conn := dialWallet(t, srv, "")
	go answerRequests(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := host.WaitForWallet(ctx); err != nil {
		t.Fatalf("WaitForWallet: %v", err)
	}

	_, err := host.Call(ctx, "not_a_method", nil)
	if err == nil || !strings.Contains(err.Error(), "unsupported method") {
		t.Fatalf("refusal got err=%v", err)
	}
}

func TestHost_CallTimesOut(t *testing.T) {
	host := NewHost(100*time.Millisecond, "")
	srv := startBridge(t, host)
	conn := dialWallet(t, srv, "")
	// read but never answer, like a wallet waiting forever on its human
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := context.Background()
	if err := host.WaitForWallet(ctx); err != nil {
		t.Fatalf("WaitForWallet: %v", err)
	}
	_, err := host.Call(ctx, MethodGetAddress, nil)
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("Call got err=%v want timeout", err)
	}
}

func TestHost_CallWithoutWallet(t *testing.T) {
	host := NewHost(time.Second, "")
	_, err := host.Call(context.Background(), MethodGetAddress, nil)
	if !errors.Is(err, ErrNoWallet) {
		t.Fatalf("Call got err=%v want no wallet", err)
	}
}

func TestHost_DetachFailsInFlight(t *testing.T) {
	host := NewHost(5*time.Second, "")
	srv := startBridge(t, host)
	conn := dialWallet(t, srv, "")
	// drop the connection on the first request instead of answering
	go func() {
		var req Request
		_ = conn.ReadJSON(&req)
		_ = conn.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := host.WaitForWallet(ctx); err != nil {
		t.Fatalf("WaitForWallet: %v", err)
	}

	_, err := host.Call(ctx, MethodGetAddress, nil)
	if err == nil || !strings.Contains(err.Error(), "no wallet connected") {
		t.Fatalf("in-flight call got err=%v want wallet-gone failure", err)
	}
}
