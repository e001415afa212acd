package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Wait(t *testing.T) {
	l := NewLimiter(100, 1)
	l.Allow(1) // consume burst

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Wait(ctx, 1)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("Wait returned too early")
	}
}

func TestLimiter_DelayDoesNotConsume(t *testing.T) {
	l := NewLimiter(1, 1)
	if d := l.Delay(); d != 0 {
		t.Fatalf("expected no delay with a full bucket, got %v", d)
	}
	if !l.Allow(1) {
		t.Fatal("Delay must not consume the token")
	}
	if d := l.Delay(); d <= 0 {
		t.Fatalf("expected positive delay after burst, got %v", d)
	}
}

func TestLimiter_SetRate(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow(1)
	if l.Allow(1) {
		t.Fatal("expected bucket to be empty")
	}
	l.SetRate(1000, 5)
	time.Sleep(20 * time.Millisecond)
	if !l.Allow(1) {
		t.Fatal("expected token after raising the rate")
	}
}
