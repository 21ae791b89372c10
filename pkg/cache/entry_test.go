package cache

import (
	"testing"
	"time"
)

func TestEntry_IsExpired(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(time.Minute)}
	if fresh.IsExpired() {
		t.Error("IsExpired() = true for a fresh entry")
	}

	stale := &Entry{Expires: time.Now().Add(-time.Second)}
	if !stale.IsExpired() {
		t.Error("IsExpired() = false for a stale entry")
	}
}

func TestEntry_TTL(t *testing.T) {
	entry := &Entry{Expires: time.Now().Add(time.Minute)}

	ttl := entry.TTL()
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL() = %v, want (0, 1m]", ttl)
	}

	expired := &Entry{Expires: time.Now().Add(-time.Minute)}
	if got := expired.TTL(); got != 0 {
		t.Errorf("TTL() = %v, want 0 for an expired entry", got)
	}
}
