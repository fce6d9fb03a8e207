package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket_BurstThenDeny(t *testing.T) {
	tb := NewTokenBucket(3, 1, time.Second)
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d inside the burst should pass", i)
		}
	}
	if tb.Allow() {
		t.Fatal("burst exhausted, request should be denied")
	}
	if got := tb.Remaining(); got != 0 {
		t.Fatalf("Remaining got=%d want=0", got)
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := NewTokenBucket(2, 2, time.Second)
	if !tb.Allow() || !tb.Allow() {
		t.Fatal("burst should pass")
	}
	if tb.Allow() {
		t.Fatal("bucket should be empty")
	}

	// refill adds whole-second batches
	time.Sleep(1100 * time.Millisecond)
	if got := tb.Remaining(); got != 2 {
		t.Fatalf("Remaining after refill got=%d want=2", got)
	}
}

func TestTokenBucket_WaitHonorsContext(t *testing.T) {
	tb := NewTokenBucket(1, 1, time.Second)
	if !tb.Allow() {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Wait got err=%v want deadline exceeded", err)
	}
}

func TestSlidingWindow_CapsWindow(t *testing.T) {
	sw := NewSlidingWindow(2, 200*time.Millisecond)
	if !sw.Allow() || !sw.Allow() {
		t.Fatal("requests inside the cap should pass")
	}
	if sw.Allow() {
		t.Fatal("window is full, request should be denied")
	}
	if got := sw.Remaining(); got != 0 {
		t.Fatalf("Remaining got=%d want=0", got)
	}

	// the window slides, old requests age out
	time.Sleep(250 * time.Millisecond)
	if !sw.Allow() {
		t.Fatal("window elapsed, request should pass")
	}
	if got := sw.Remaining(); got != 1 {
		t.Fatalf("Remaining got=%d want=1", got)
	}
}

func TestSlidingWindow_WaitUnblocks(t *testing.T) {
	sw := NewSlidingWindow(1, 150*time.Millisecond)
	if !sw.Allow() {
		t.Fatal("first request should pass")
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sw.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if waited := time.Since(start); waited < 100*time.Millisecond {
		t.Fatalf("Wait returned after %v, should have blocked for the window", waited)
	}
}

func TestManager_RoutesKeys(t *testing.T) {
	m := NewManager()

	// published budgets back each key
	if got := m.Remaining(KeyOrderPost); got != 2400 {
		t.Fatalf("order post budget got=%d want=2400", got)
	}
	if got := m.Remaining(KeyAuth); got != 30 {
		t.Fatalf("auth budget got=%d want=30", got)
	}
	if got := m.Remaining(KeyMarketData); got != 100 {
		t.Fatalf("market data budget got=%d want=100", got)
	}

	if !m.Allow(KeyAuth) {
		t.Fatal("fresh auth budget should admit")
	}
	if got := m.Remaining(KeyAuth); got != 29 {
		t.Fatalf("auth budget after one got=%d want=29", got)
	}

	// unknown keys fall back to the generic budget
	if !m.Allow("unknown:endpoint") {
		t.Fatal("fallback should admit")
	}
	if got := m.Remaining("other:endpoint"); got != 499 {
		t.Fatalf("fallback shares one budget, got=%d want=499", got)
	}
}

func TestManager_NilIsOpen(t *testing.T) {
	var m *Manager
	if err := m.Wait(context.Background(), KeyOrderPost); err != nil {
		t.Fatalf("nil manager Wait: %v", err)
	}
	if !m.Allow(KeyOrderPost) {
		t.Fatal("nil manager must admit")
	}
}
