package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter gates requests to one endpoint family.
type RateLimiter interface {
	Wait(ctx context.Context) error
	Allow() bool
	Remaining() int
}

// TokenBucket refills at a fixed per-second rate up to a burst
// capacity. Used for write endpoints with hard burst budgets.
type TokenBucket struct {
	capacity   int
	tokens     int
	refillRate int
	windowSize time.Duration
	lastRefill time.Time
	mu         sync.Mutex
}

func NewTokenBucket(capacity, refillRate int, windowSize time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		windowSize: windowSize,
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * tb.refillRate
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}
		wait := tb.windowSize
		if tb.refillRate > 0 {
			wait = time.Second / time.Duration(tb.refillRate)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// SlidingWindow caps the number of requests inside a rolling window.
// Used for read endpoints.
type SlidingWindow struct {
	limit      int
	windowSize time.Duration
	requests   []time.Time
	mu         sync.Mutex
}

func NewSlidingWindow(limit int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:      limit,
		windowSize: windowSize,
	}
}

func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := time.Now().Add(-sw.windowSize)
	valid := sw.requests[:0]
	for _, req := range sw.requests {
		if req.After(cutoff) {
			valid = append(valid, req)
		}
	}
	sw.requests = valid

	if len(sw.requests) >= sw.limit {
		return false
	}
	sw.requests = append(sw.requests, time.Now())
	return true
}

func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}
		sw.mu.Lock()
		wait := 100 * time.Millisecond
		if len(sw.requests) > 0 {
			if until := sw.windowSize - time.Since(sw.requests[0]); until > wait {
				wait = until
			}
		}
		sw.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (sw *SlidingWindow) Remaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := time.Now().Add(-sw.windowSize)
	valid := 0
	for _, req := range sw.requests {
		if req.After(cutoff) {
			valid++
		}
	}
	return max(0, sw.limit-valid)
}

// Endpoint keys for the exchange's published budgets.
const (
	KeyOrderPost   = "order:post"
	KeyOrderCancel = "order:cancel"
	KeyOrderGet    = "order:get"
	KeyOrdersGet   = "orders:get"
	KeyMarketData  = "markets:get"
	KeyAuth        = "auth"
)

// Manager holds one limiter per endpoint family.
type Manager struct {
	limiters map[string]RateLimiter
	fallback RateLimiter
	mu       sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		limiters: map[string]RateLimiter{
			KeyOrderPost:   NewTokenBucket(2400, 240, 10*time.Second),
			KeyOrderCancel: NewTokenBucket(2400, 240, 10*time.Second),
			KeyOrderGet:    NewSlidingWindow(150, 10*time.Second),
			KeyOrdersGet:   NewSlidingWindow(150, 10*time.Second),
			KeyMarketData:  NewSlidingWindow(100, 10*time.Second),
			KeyAuth:        NewSlidingWindow(30, 10*time.Second),
		},
		fallback: NewSlidingWindow(500, 10*time.Second),
	}
}

func (m *Manager) limiter(key string) RateLimiter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, exists := m.limiters[key]; exists {
		return l
	}
	return m.fallback
}

// Wait blocks until the endpoint budget admits one more request. A
// nil Manager admits everything.
func (m *Manager) Wait(ctx context.Context, key string) error {
	if m == nil {
		return nil
	}
	return m.limiter(key).Wait(ctx)
}

func (m *Manager) Allow(key string) bool {
	if m == nil {
		return true
	}
	return m.limiter(key).Allow()
}

func (m *Manager) Remaining(key string) int {
	if m == nil {
		return 0
	}
	return m.limiter(key).Remaining()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
