package walletbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/pkg/logger"
)

const (
	defaultRequestTimeout = 120 * time.Second
	pingInterval          = 30 * time.Second
	writeTimeout          = 10 * time.Second
)

var (
	ErrNoWallet       = pkgerrors.New("walletbridge: no wallet connected")
	ErrWalletBusy     = pkgerrors.New("walletbridge: a wallet is already connected")
	ErrRequestTimeout = pkgerrors.New("walletbridge: request timed out")
)

// Host accepts one wallet app over a websocket and relays signing and
// read requests to it. One wallet at a time: a second connection is
// refused until the first drops.
type Host struct {
	timeout  time.Duration
	token    string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	pending map[string]chan *Response
	attach  chan struct{}
}

// NewHost builds a bridge host. timeout bounds each relayed request;
// zero means the default, generous because a human may be approving on
// the other end. A non-empty token must be presented by the wallet as
// the `token` query parameter.
func NewHost(timeout time.Duration, token string) *Host {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Host{
		timeout: timeout,
		token:   token,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 30 * time.Second,
			// The wallet app connects from its own origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pending: make(map[string]chan *Response),
		attach:  make(chan struct{}),
	}
}

// Router exposes the bridge endpoints.
func (h *Host) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"connected": h.Connected()})
	})
	r.GET("/ws", func(c *gin.Context) {
		h.handleWallet(c.Writer, c.Request)
	})
	return r
}

func (h *Host) handleWallet(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && r.URL.Query().Get("token") != h.token {
		http.Error(w, "bad token", http.StatusUnauthorized)
		return
	}
	h.mu.Lock()
	if h.conn != nil {
		h.mu.Unlock()
		http.Error(w, ErrWalletBusy.Error(), http.StatusConflict)
		return
	}
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("wallet upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	if h.conn != nil {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conn = conn
	close(h.attach)
	h.mu.Unlock()
	logger.Infof("wallet connected from %s", r.RemoteAddr)

	stop := make(chan struct{})
	go h.pingLoop(conn, stop)
	h.readLoop(conn)
	close(stop)
	h.detach(conn)
}

func (h *Host) readLoop(conn *websocket.Conn) {
	for {
		var resp Response
		if err := conn.ReadJSON(&resp); err != nil {
			logger.Infof("wallet disconnected: %v", err)
			return
		}
		h.mu.Lock()
		ch, ok := h.pending[resp.ID]
		if ok {
			delete(h.pending, resp.ID)
		}
		h.mu.Unlock()
		if !ok {
			logger.Warnf("response for unknown request %s dropped", resp.ID)
			continue
		}
		ch <- &resp
	}
}

func (h *Host) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			h.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// detach clears the connection and fails everything still in flight.
func (h *Host) detach(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conn != conn {
		h.mu.Unlock()
		return
	}
	h.conn = nil
	h.attach = make(chan struct{})
	orphaned := h.pending
	h.pending = make(map[string]chan *Response)
	h.mu.Unlock()

	conn.Close()
	for id, ch := range orphaned {
		ch <- &Response{ID: id, Error: ErrNoWallet.Error()}
	}
}

// Connected reports whether a wallet is attached.
func (h *Host) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn != nil
}

// WaitForWallet blocks until a wallet attaches or the context ends.
func (h *Host) WaitForWallet(ctx context.Context) error {
	h.mu.Lock()
	if h.conn != nil {
		h.mu.Unlock()
		return nil
	}
	attach := h.attach
	h.mu.Unlock()
	select {
	case <-attach:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call relays one request to the connected wallet and waits for its
// answer.
func (h *Host) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "walletbridge: encode params")
		}
		raw = b
	}
	req := &Request{ID: uuid.NewString(), Method: method, Params: raw}

	h.mu.Lock()
	conn := h.conn
	if conn == nil {
		h.mu.Unlock()
		return nil, ErrNoWallet
	}
	ch := make(chan *Response, 1)
	h.pending[req.ID] = ch
	h.mu.Unlock()

	h.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	err := conn.WriteJSON(req)
	h.writeMu.Unlock()
	if err != nil {
		h.forget(req.ID)
		return nil, pkgerrors.Wrap(err, "walletbridge: send")
	}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, pkgerrors.Errorf("walletbridge: wallet refused %s: %s", method, resp.Error)
		}
		return resp.Result, nil
	case <-timer.C:
		h.forget(req.ID)
		return nil, pkgerrors.Wrapf(ErrRequestTimeout, "%s after %s", method, h.timeout)
	case <-ctx.Done():
		h.forget(req.ID)
		return nil, ctx.Err()
	}
}

func (h *Host) forget(id string) {
	h.mu.Lock()
	delete(h.pending, id)
	h.mu.Unlock()
}
