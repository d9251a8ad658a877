package ratelimit

import (
	"testing"
	"time"
)

func TestAllowRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if !l.Allow("1.2.3.4:chat", 2, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("1.2.3.4:chat", 2, 1) {
		t.Fatal("bucket should be empty")
	}
	if !l.Allow("5.6.7.8:chat", 2, 1) {
		t.Fatal("other keys have their own bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if !l.Allow("1.2.3.4:chat", 2, 1) {
		t.Fatal("expected refill after 1.5s")
	}
	if l.Allow("1.2.3.4:chat", 2, 1) {
		t.Fatal("only one token should have been refilled")
	}
}

func TestSweep(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New()
	l.now = func() time.Time { return now }
	l.Allow("a", 1, 1)
	now = now.Add(time.Hour)
	l.Allow("b", 1, 1)

	if n := l.Sweep(30 * time.Minute); n != 1 {
		t.Fatalf("swept %d", n)
	}
	if _, ok := l.m["b"]; !ok {
		t.Fatal("recent bucket dropped")
	}
}
