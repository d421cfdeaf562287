package rate

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := NewMemory()
	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("k", 5, time.Minute)
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	ok, retry := l.Allow("k", 5, time.Minute)
	if ok {
		t.Fatal("attempt 6 should be denied")
	}
	if retry <= 0 || retry > time.Minute {
		t.Errorf("retry hint out of range: %v", retry)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewMemory()
	for i := 0; i < 3; i++ {
		l.Allow("a", 3, time.Minute)
	}
	if ok, _ := l.Allow("a", 3, time.Minute); ok {
		t.Error("key a should be exhausted")
	}
	if ok, _ := l.Allow("b", 3, time.Minute); !ok {
		t.Error("key b should be unaffected")
	}
}

func TestWindowReset(t *testing.T) {
	l := NewMemory()
	l.Allow("k", 1, 10*time.Millisecond)
	if ok, _ := l.Allow("k", 1, 10*time.Millisecond); ok {
		t.Fatal("should be denied within the window")
	}
	time.Sleep(15 * time.Millisecond)
	if ok, _ := l.Allow("k", 1, 10*time.Millisecond); !ok {
		t.Error("should be allowed after the window resets")
	}
}

func TestPruneDropsExpiredWindows(t *testing.T) {
	l := NewMemory()
	l.Allow("old", 1, time.Millisecond)
	time.Sleep(2 * time.Millisecond)

	// Force the prune interval to have elapsed.
	l.mu.Lock()
	l.lastPrune = time.Now().Add(-2 * time.Minute)
	l.mu.Unlock()

	l.Allow("new", 1, time.Minute)
	l.mu.Lock()
	_, exists := l.windows["old"]
	l.mu.Unlock()
	if exists {
		t.Error("expired window should have been pruned")
	}
}
